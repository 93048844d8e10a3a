// Package mongostore keeps users as documents with their transactions
// embedded in an orders array. Every write touches a single user document.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection  = "users"
	adminsCollection = "admins"
)

type actorDoc struct {
	ID   string `bson:"id"`
	Role string `bson:"role"`
}

type auditDoc struct {
	By     actorDoc       `bson:"by"`
	Role   string         `bson:"role"`
	When   time.Time      `bson:"when"`
	Action string         `bson:"action"`
	Before map[string]any `bson:"before,omitempty"`
	After  map[string]any `bson:"after,omitempty"`
}

type medicineDoc struct {
	Name     string `bson:"name"`
	Quantity string `bson:"quantity"`
}

type orderDoc struct {
	ID        string     `bson:"_id"`
	Type      string     `bson:"type"`
	Status    string     `bson:"status"`
	Feedback  string     `bson:"feedback"`
	Deleted   bool       `bson:"deleted"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty"`
	DeletedBy *actorDoc  `bson:"deletedBy,omitempty"`
	CreatedAt time.Time  `bson:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt"`
	History   []auditDoc `bson:"history"`

	Medicines      []medicineDoc `bson:"medicines,omitempty"`
	Address        string        `bson:"address,omitempty"`
	DeliveryOption string        `bson:"deliveryOption,omitempty"`
	PaymentMethod  string        `bson:"paymentMethod,omitempty"`
	Notes          string        `bson:"notes,omitempty"`

	PatientName string `bson:"patientName,omitempty"`
	DoctorName  string `bson:"doctorName,omitempty"`
	Date        string `bson:"date,omitempty"`
	Time        string `bson:"time,omitempty"`
	Age         int    `bson:"age,omitempty"`
	Gender      string `bson:"gender,omitempty"`
	Problem     string `bson:"problem,omitempty"`
}

type userDoc struct {
	ID        string     `bson:"_id"`
	Name      string     `bson:"name"`
	Phone     string     `bson:"phone"`
	Email     string     `bson:"email,omitempty"`
	Language  string     `bson:"language"`
	CreatedAt time.Time  `bson:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt"`
	Orders    []orderDoc `bson:"orders"`
}

type adminDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func newOrderDoc(t *models.Transaction) (orderDoc, error) {
	d := orderDoc{
		ID:        t.ID,
		Type:      string(t.Type()),
		Status:    t.Status,
		Feedback:  t.Feedback,
		Deleted:   t.Deleted,
		DeletedAt: t.DeletedAt,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		History:   make([]auditDoc, 0, len(t.History)),
	}
	if t.DeletedBy != nil {
		d.DeletedBy = &actorDoc{ID: t.DeletedBy.ID, Role: string(t.DeletedBy.Role)}
	}
	for _, e := range t.History {
		d.History = append(d.History, newAuditDoc(e))
	}
	switch v := t.Details.(type) {
	case *models.MedicineDetails:
		for _, m := range v.Medicines {
			d.Medicines = append(d.Medicines, medicineDoc{Name: m.Name, Quantity: m.Quantity})
		}
		d.Address = v.Address
		d.DeliveryOption = v.DeliveryOption
		d.PaymentMethod = v.PaymentMethod
		d.Notes = v.Notes
	case *models.AppointmentDetails:
		d.PatientName = v.PatientName
		d.DoctorName = v.DoctorName
		d.Date = v.Date
		d.Time = v.Time
		d.Age = v.Age
		d.Gender = v.Gender
		d.Problem = v.Problem
	default:
		return d, fmt.Errorf("transaction %s has no details", t.ID)
	}
	return d, nil
}

func newAuditDoc(e models.AuditEntry) auditDoc {
	return auditDoc{
		By:     actorDoc{ID: e.By.ID, Role: string(e.By.Role)},
		Role:   string(e.Role),
		When:   e.When,
		Action: string(e.Action),
		Before: e.Before,
		After:  e.After,
	}
}

func (d orderDoc) transaction(userID string) (models.Transaction, error) {
	t := models.Transaction{
		ID:        d.ID,
		UserID:    userID,
		Status:    d.Status,
		Feedback:  d.Feedback,
		Deleted:   d.Deleted,
		DeletedAt: d.DeletedAt,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		History:   make([]models.AuditEntry, 0, len(d.History)),
	}
	if d.DeletedBy != nil {
		t.DeletedBy = &models.Actor{ID: d.DeletedBy.ID, Role: models.Role(d.DeletedBy.Role)}
	}
	for _, a := range d.History {
		t.History = append(t.History, models.AuditEntry{
			By:     models.Actor{ID: a.By.ID, Role: models.Role(a.By.Role)},
			Role:   models.Role(a.Role),
			When:   a.When,
			Action: models.AuditAction(a.Action),
			Before: normalize(a.Before),
			After:  normalize(a.After),
		})
	}
	switch models.TransactionType(d.Type) {
	case models.TypeMedicine:
		m := &models.MedicineDetails{
			Address:        d.Address,
			DeliveryOption: d.DeliveryOption,
			PaymentMethod:  d.PaymentMethod,
			Notes:          d.Notes,
		}
		for _, item := range d.Medicines {
			m.Medicines = append(m.Medicines, models.MedicineItem{Name: item.Name, Quantity: item.Quantity})
		}
		t.Details = m
	case models.TypeAppointment:
		t.Details = &models.AppointmentDetails{
			PatientName: d.PatientName,
			DoctorName:  d.DoctorName,
			Date:        d.Date,
			Time:        d.Time,
			Age:         d.Age,
			Gender:      d.Gender,
			Problem:     d.Problem,
		}
	default:
		return t, fmt.Errorf("unknown transaction type %q", d.Type)
	}
	return t, nil
}

func (d userDoc) user() (models.User, error) {
	u := models.User{
		ID:        d.ID,
		Name:      d.Name,
		Phone:     d.Phone,
		Email:     d.Email,
		Language:  models.Language(d.Language),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, o := range d.Orders {
		t, err := o.transaction(d.ID)
		if err != nil {
			return u, err
		}
		u.Transactions = append(u.Transactions, t)
	}
	return u, nil
}

// normalize turns the driver's nested D/A values back into plain maps and
// slices so snapshots encode to JSON the same way for every store.
func normalize(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case primitive.M:
		return normalize(x)
	case map[string]any:
		return normalize(x)
	case primitive.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e)
		}
		return out
	}
	return v
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "orders._id", Value: 1}}},
		{Keys: bson.D{{Key: "orders.doctorName", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	_, err = db.Collection(adminsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create admin indexes: %w", err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	}
	return err
}
