package mongostore

import (
	"context"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &userRepository{users: db.Collection(usersCollection)}
}

// withoutOrders keeps profile lookups from dragging the embedded array along.
var withoutOrders = bson.M{"orders": 0}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	doc := userDoc{
		ID:        user.ID,
		Name:      user.Name,
		Phone:     user.Phone,
		Email:     user.Email,
		Language:  string(user.Language),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		Orders:    []orderDoc{},
	}
	_, err := r.users.InsertOne(ctx, doc)
	return translate(err)
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, filter, options.FindOne().SetProjection(withoutOrders)).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	u, err := doc.user()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) GetAll(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetProjection(withoutOrders).SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *userRepository) GetAllWithTransactions(ctx context.Context, phone string) ([]models.User, error) {
	filter := bson.M{}
	if phone != "" {
		filter["phone"] = phone
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *userRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cur, err := r.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}
	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.user()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
