package repository

import (
	"context"
	"medicine_chatbot/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	// GetAllWithTransactions loads users (only the one with phone, when set)
	// together with every transaction they own, oldest first.
	GetAllWithTransactions(ctx context.Context, phone string) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, translate(err)
}

func (r *userRepository) GetAllWithTransactions(ctx context.Context, phone string) ([]models.User, error) {
	db := r.db.WithContext(ctx)
	var users []models.User
	q := db.Order("created_at ASC")
	if phone != "" {
		q = q.Where("phone = ?", phone)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	if len(users) == 0 {
		return users, nil
	}

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	var records []models.TransactionRecord
	err := withAudit(db).Where("user_id IN ?", ids).Order("created_at ASC").Find(&records).Error
	if err != nil {
		return nil, translate(err)
	}

	byUser := make(map[string][]models.Transaction, len(users))
	for i := range records {
		t, err := records[i].Transaction()
		if err != nil {
			return nil, err
		}
		byUser[t.UserID] = append(byUser[t.UserID], *t)
	}
	for i := range users {
		users[i].Transactions = byUser[users[i].ID]
	}
	return users, nil
}
