package mongostore

import (
	"context"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type transactionRepository struct {
	users *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) repository.TransactionRepository {
	return &transactionRepository{users: db.Collection(usersCollection)}
}

func (r *transactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	doc, err := newOrderDoc(t)
	if err != nil {
		return err
	}
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": t.UserID},
		bson.M{"$push": bson.M{"orders": doc}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, bson.M{"orders._id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	for _, o := range doc.Orders {
		if o.ID == id {
			t, err := o.transaction(doc.ID)
			if err != nil {
				return nil, err
			}
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *transactionRepository) GetByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	u, err := doc.user()
	if err != nil {
		return nil, err
	}
	return u.Transactions, nil
}

func (r *transactionRepository) GetAppointmentsByDoctor(ctx context.Context, doctor string) ([]models.Transaction, error) {
	cur, err := r.users.Find(ctx, bson.M{"orders.doctorName": doctor})
	if err != nil {
		return nil, translate(err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}
	var out []models.Transaction
	for _, d := range docs {
		for _, o := range d.Orders {
			if o.Type != string(models.TypeAppointment) || o.DoctorName != doctor {
				continue
			}
			t, err := o.transaction(d.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// Update rewrites the embedded order in place. The new history entry rides
// along in the same single-document write.
func (r *transactionRepository) Update(ctx context.Context, t *models.Transaction, entry *models.AuditEntry) error {
	next := t.Clone()
	if entry != nil {
		next.History = append(next.History, *entry)
	}
	doc, err := newOrderDoc(next)
	if err != nil {
		return err
	}
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": t.UserID, "orders._id": t.ID},
		bson.M{"$set": bson.M{"orders.$": doc}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	t.History = next.History
	return nil
}

func (r *transactionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"orders._id": id},
		bson.M{"$pull": bson.M{"orders": bson.M{"_id": id}}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
