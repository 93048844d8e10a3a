package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// TransactionRecord is the relational row behind a Transaction. The variant
// fields live in Payload; DoctorName is copied out so overlap checks can
// filter in SQL.
type TransactionRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	UserID        string `gorm:"index;size:36;not null"`
	Type          string `gorm:"size:20;not null;index"`
	Status        string `gorm:"size:20;not null"`
	Feedback      string `gorm:"type:text"`
	Deleted       bool   `gorm:"not null;default:false"`
	DeletedAt     *time.Time
	DeletedByID   string         `gorm:"size:36"`
	DeletedByRole string         `gorm:"size:10"`
	DoctorName    string         `gorm:"index"`
	Payload       datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"index"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime:false"`
	Audit         []AuditRecord  `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
}

func (TransactionRecord) TableName() string {
	return "transactions"
}

// AuditRecord stores one AuditEntry; Seq keeps history order stable.
type AuditRecord struct {
	ID            uint      `gorm:"primaryKey"`
	TransactionID string    `gorm:"index;size:36;not null"`
	Seq           int       `gorm:"not null"`
	ActorID       string    `gorm:"size:36"`
	Role          string    `gorm:"size:10"`
	OccurredAt    time.Time `gorm:"not null"`
	Action        string    `gorm:"size:32;not null"`
	Before        datatypes.JSONMap
	After         datatypes.JSONMap
}

func (AuditRecord) TableName() string {
	return "audit_entries"
}

func NewAuditRecord(transactionID string, seq int, e AuditEntry) AuditRecord {
	return AuditRecord{
		TransactionID: transactionID,
		Seq:           seq,
		ActorID:       e.By.ID,
		Role:          string(e.Role),
		OccurredAt:    e.When,
		Action:        string(e.Action),
		Before:        datatypes.JSONMap(e.Before),
		After:         datatypes.JSONMap(e.After),
	}
}

func (r AuditRecord) Entry() AuditEntry {
	return AuditEntry{
		By:     Actor{ID: r.ActorID, Role: Role(r.Role)},
		Role:   Role(r.Role),
		When:   r.OccurredAt,
		Action: AuditAction(r.Action),
		Before: map[string]any(r.Before),
		After:  map[string]any(r.After),
	}
}

// NewTransactionRecord flattens t for storage. History is not copied; audit
// rows are written separately so they can be appended.
func NewTransactionRecord(t *Transaction) (*TransactionRecord, error) {
	if t.Details == nil {
		return nil, fmt.Errorf("transaction %s has no details", t.ID)
	}
	payload, err := json.Marshal(t.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction details: %w", err)
	}
	rec := &TransactionRecord{
		ID:        t.ID,
		UserID:    t.UserID,
		Type:      string(t.Type()),
		Status:    t.Status,
		Feedback:  t.Feedback,
		Deleted:   t.Deleted,
		DeletedAt: t.DeletedAt,
		Payload:   datatypes.JSON(payload),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.DeletedBy != nil {
		rec.DeletedByID = t.DeletedBy.ID
		rec.DeletedByRole = string(t.DeletedBy.Role)
	}
	if a, ok := t.Appointment(); ok {
		rec.DoctorName = a.DoctorName
	}
	return rec, nil
}

// DecodeDetails unmarshals a stored payload into the variant named by typ.
func DecodeDetails(typ TransactionType, payload []byte) (Details, error) {
	var d Details
	switch typ {
	case TypeMedicine:
		d = &MedicineDetails{}
	case TypeAppointment:
		d = &AppointmentDetails{}
	default:
		return nil, fmt.Errorf("unknown transaction type %q", typ)
	}
	if err := json.Unmarshal(payload, d); err != nil {
		return nil, fmt.Errorf("failed to decode %s details: %w", typ, err)
	}
	return d, nil
}

func (r *TransactionRecord) Transaction() (*Transaction, error) {
	details, err := DecodeDetails(TransactionType(r.Type), r.Payload)
	if err != nil {
		return nil, err
	}
	t := &Transaction{
		ID:        r.ID,
		UserID:    r.UserID,
		Status:    r.Status,
		Feedback:  r.Feedback,
		Deleted:   r.Deleted,
		DeletedAt: r.DeletedAt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Details:   details,
		History:   make([]AuditEntry, 0, len(r.Audit)),
	}
	if r.DeletedByID != "" {
		t.DeletedBy = &Actor{ID: r.DeletedByID, Role: Role(r.DeletedByRole)}
	}
	for _, a := range r.Audit {
		t.History = append(t.History, a.Entry())
	}
	return t, nil
}
