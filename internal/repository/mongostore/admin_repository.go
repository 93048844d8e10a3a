package mongostore

import (
	"context"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type adminRepository struct {
	admins *mongo.Collection
}

func NewAdminRepository(db *mongo.Database) repository.AdminRepository {
	return &adminRepository{admins: db.Collection(adminsCollection)}
}

func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) error {
	_, err := r.admins.InsertOne(ctx, adminDoc{
		ID:           admin.ID,
		Username:     admin.Username,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    admin.CreatedAt,
		UpdatedAt:    admin.UpdatedAt,
	})
	return translate(err)
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var doc adminDoc
	if err := r.admins.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return &models.Admin{
		ID:           doc.ID,
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
