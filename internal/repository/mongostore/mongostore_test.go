package mongostore

import (
	"context"
	"errors"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/repository"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var testTime = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func sampleUser() models.User {
	admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	return models.User{
		ID:        "u-1",
		Name:      "Asha",
		Phone:     "9876543210",
		Language:  models.Hindi,
		CreatedAt: testTime,
		UpdatedAt: testTime,
		Transactions: []models.Transaction{
			{
				ID:        "tx-1",
				UserID:    "u-1",
				Status:    models.StatusPending,
				CreatedAt: testTime,
				UpdatedAt: testTime,
				Details: &models.MedicineDetails{
					Medicines:      []models.MedicineItem{{Name: "Crocin", Quantity: "2"}},
					DeliveryOption: models.DeliveryPickup,
					PaymentMethod:  models.PaymentUPI,
				},
			},
			{
				ID:        "tx-2",
				UserID:    "u-1",
				Status:    models.StatusCancelled,
				Deleted:   true,
				DeletedAt: &testTime,
				DeletedBy: &admin,
				CreatedAt: testTime,
				UpdatedAt: testTime,
				History: []models.AuditEntry{
					models.NewAuditEntry(admin, models.ActionEditedByAdmin, testTime,
						map[string]any{"time": "10:00", "medicines": []any{map[string]any{"name": "x"}}},
						map[string]any{"time": "11:00"}),
				},
				Details: &models.AppointmentDetails{DoctorName: "Dr. Sharma", Date: "2026-10-05", Time: "11:00", Age: 30},
			},
		},
	}
}

func toDoc(t *testing.T, u models.User) userDoc {
	t.Helper()
	doc := userDoc{ID: u.ID, Name: u.Name, Phone: u.Phone, Language: string(u.Language), CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
	for i := range u.Transactions {
		o, err := newOrderDoc(&u.Transactions[i])
		if err != nil {
			t.Fatalf("newOrderDoc() error = %v", err)
		}
		doc.Orders = append(doc.Orders, o)
	}
	return doc
}

func TestDocumentRoundTrip(t *testing.T) {
	raw, err := bson.Marshal(toDoc(t, sampleUser()))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded userDoc
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	u, err := decoded.user()
	if err != nil {
		t.Fatalf("user() error = %v", err)
	}

	if len(u.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(u.Transactions))
	}
	med, ok := u.Transactions[0].Medicine()
	if !ok || med.Medicines[0].Name != "Crocin" || med.PaymentMethod != models.PaymentUPI {
		t.Errorf("medicine details = %#v", u.Transactions[0].Details)
	}
	appt := u.Transactions[1]
	if d, ok := appt.Appointment(); !ok || d.DoctorName != "Dr. Sharma" || d.Age != 30 {
		t.Errorf("appointment details = %#v", appt.Details)
	}
	if appt.DeletedBy == nil || appt.DeletedBy.Role != models.RoleAdmin || appt.UserID != "u-1" {
		t.Errorf("envelope = %+v", appt)
	}
	if len(appt.History) != 1 {
		t.Fatalf("history = %+v", appt.History)
	}
	before := appt.History[0].Before
	if before["time"] != "10:00" {
		t.Errorf("before = %v", before)
	}
	items, ok := before["medicines"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("nested slice not normalized: %T", before["medicines"])
	}
	if _, ok := items[0].(map[string]any); !ok {
		t.Errorf("nested document not normalized: %T", items[0])
	}
}

func TestNewOrderDocRequiresDetails(t *testing.T) {
	if _, err := newOrderDoc(&models.Transaction{ID: "x"}); err == nil {
		t.Error("newOrderDoc() without details should fail")
	}
	if _, err := (orderDoc{ID: "x", Type: "refund"}).transaction("u"); err == nil {
		t.Error("transaction() with unknown type should fail")
	}
}

func TestNormalize(t *testing.T) {
	in := map[string]any{
		"d": primitive.D{{Key: "a", Value: primitive.A{primitive.M{"b": int32(1)}}}},
		"s": "plain",
	}
	out := normalize(in)
	d, ok := out["d"].(map[string]any)
	if !ok {
		t.Fatalf("d = %T", out["d"])
	}
	a, ok := d["a"].([]any)
	if !ok || len(a) != 1 {
		t.Fatalf("a = %T", d["a"])
	}
	if m, ok := a[0].(map[string]any); !ok || m["b"] != int32(1) {
		t.Errorf("a[0] = %#v", a[0])
	}
	if out["s"] != "plain" || normalize(nil) != nil {
		t.Errorf("out = %v", out)
	}
}

func TestTranslate(t *testing.T) {
	if !errors.Is(translate(mongo.ErrNoDocuments), repository.ErrNotFound) {
		t.Error("ErrNoDocuments should map to ErrNotFound")
	}
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	if !errors.Is(translate(dup), repository.ErrDuplicate) {
		t.Error("duplicate key should map to ErrDuplicate")
	}
	if translate(nil) != nil {
		t.Error("nil should stay nil")
	}
}

// newTestDatabase connects to MONGO_TEST_URI and returns a throwaway database.
func newTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db := client.Database("medicine_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		db.Drop(context.Background())
		client.Disconnect(context.Background())
	})
	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}
	return db
}

func TestRepositoriesAgainstMongo(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	txs := NewTransactionRepository(db)
	admins := NewAdminRepository(db)

	sample := sampleUser()
	user := sample
	user.Transactions = nil
	if err := users.Create(ctx, &user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	dup := user
	dup.ID = "u-2"
	if err := users.Create(ctx, &dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("duplicate phone error = %v, want ErrDuplicate", err)
	}

	for i := range sample.Transactions {
		if err := txs.Create(ctx, &sample.Transactions[i]); err != nil {
			t.Fatalf("Create(tx) error = %v", err)
		}
	}
	orphan := sample.Transactions[0]
	orphan.ID, orphan.UserID = "tx-x", "nobody"
	if err := txs.Create(ctx, &orphan); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("orphan create error = %v, want ErrNotFound", err)
	}

	got, err := txs.GetByID(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	got.Status = models.StatusConfirmed
	entry := models.NewAuditEntry(models.Actor{ID: "admin-1", Role: models.RoleAdmin}, models.ActionEditedByAdmin, testTime, nil, nil)
	if err := txs.Update(ctx, got, &entry); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	again, _ := txs.GetByID(ctx, "tx-1")
	if again.Status != models.StatusConfirmed || len(again.History) != 1 {
		t.Errorf("after update = %+v", again)
	}

	appts, err := txs.GetAppointmentsByDoctor(ctx, "Dr. Sharma")
	if err != nil || len(appts) != 1 || appts[0].ID != "tx-2" {
		t.Errorf("GetAppointmentsByDoctor() = %v, %v", appts, err)
	}

	if err := txs.Delete(ctx, "tx-2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := txs.GetByID(ctx, "tx-2"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v", err)
	}

	all, err := users.GetAllWithTransactions(ctx, "9876543210")
	if err != nil || len(all) != 1 || len(all[0].Transactions) != 1 {
		t.Errorf("GetAllWithTransactions() = %v, %v", all, err)
	}
	plain, err := users.GetByPhone(ctx, "9876543210")
	if err != nil || len(plain.Transactions) != 0 {
		t.Errorf("GetByPhone() = %+v, %v", plain, err)
	}

	admin := &models.Admin{ID: "a-1", Username: "ops", PasswordHash: "x", CreatedAt: testTime, UpdatedAt: testTime}
	if err := admins.Create(ctx, admin); err != nil {
		t.Fatalf("admin Create() error = %v", err)
	}
	if _, err := admins.GetByUsername(ctx, "ops"); err != nil {
		t.Errorf("GetByUsername() error = %v", err)
	}
}
