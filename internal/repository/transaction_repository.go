package repository

import (
	"context"
	"fmt"
	"medicine_chatbot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Transaction, error)
	// GetAppointmentsByDoctor returns every appointment booked with doctor,
	// across all users and regardless of status.
	GetAppointmentsByDoctor(ctx context.Context, doctor string) ([]models.Transaction, error)
	// Update persists t and, when entry is non-nil, appends it to the history
	// in the same database transaction.
	Update(ctx context.Context, t *models.Transaction, entry *models.AuditEntry) error
	// Delete removes the transaction and its history.
	Delete(ctx context.Context, id string) error
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func withAudit(db *gorm.DB) *gorm.DB {
	return db.Preload("Audit", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	})
}

func (r *transactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	rec, err := models.NewTransactionRecord(t)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(rec).Error; err != nil {
			return translate(err)
		}
		for i, e := range t.History {
			a := models.NewAuditRecord(t.ID, i+1, e)
			if err := tx.Create(&a).Error; err != nil {
				return fmt.Errorf("failed to write audit entry: %w", err)
			}
		}
		return nil
	})
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var rec models.TransactionRecord
	if err := withAudit(r.db.WithContext(ctx)).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return rec.Transaction()
}

func (r *transactionRepository) GetByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	var recs []models.TransactionRecord
	err := withAudit(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, translate(err)
	}
	return toTransactions(recs)
}

func (r *transactionRepository) GetAppointmentsByDoctor(ctx context.Context, doctor string) ([]models.Transaction, error) {
	var recs []models.TransactionRecord
	err := r.db.WithContext(ctx).
		Where("type = ? AND doctor_name = ?", models.TypeAppointment, doctor).
		Find(&recs).Error
	if err != nil {
		return nil, translate(err)
	}
	return toTransactions(recs)
}

func (r *transactionRepository) Update(ctx context.Context, t *models.Transaction, entry *models.AuditEntry) error {
	rec, err := models.NewTransactionRecord(t)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TransactionRecord{}).Where("id = ?", t.ID).Select("*").
			Omit("id", "user_id", "type", "created_at", clause.Associations).
			Updates(rec)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if entry == nil {
			return nil
		}
		var seq int64
		if err := tx.Model(&models.AuditRecord{}).Where("transaction_id = ?", t.ID).Count(&seq).Error; err != nil {
			return fmt.Errorf("failed to count audit entries: %w", err)
		}
		a := models.NewAuditRecord(t.ID, int(seq)+1, *entry)
		if err := tx.Create(&a).Error; err != nil {
			return fmt.Errorf("failed to write audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if entry != nil {
		t.History = append(t.History, *entry)
	}
	return nil
}

func (r *transactionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", id).Delete(&models.AuditRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete audit entries: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.TransactionRecord{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func toTransactions(recs []models.TransactionRecord) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0, len(recs))
	for i := range recs {
		t, err := recs[i].Transaction()
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}
