package migrations

import (
	"context"
	"log"
	"medicine_chatbot/internal/database"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/services"

	"gorm.io/gorm"
)

// RunMigrations brings the relational schema up to date. With reset, every
// table is dropped first.
func RunMigrations(db *gorm.DB, reset bool) error {
	log.Println("Running database migrations...")

	if reset {
		log.Println("Dropping existing tables...")
		err := db.Migrator().DropTable(
			&models.AuditRecord{},
			&models.TransactionRecord{},
			&models.Admin{},
			&models.User{},
		)
		if err != nil {
			log.Printf("Warning: Error dropping tables: %v", err)
		}
	}

	log.Println("Creating tables...")
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	log.Println("Database migrations completed successfully!")
	return nil
}

// SeedAdmin creates the default admin account unless it already exists.
func SeedAdmin(ctx context.Context, users services.UserService, username, password string) error {
	if username == "" || password == "" {
		log.Println("No default admin configured, skipping")
		return nil
	}

	_, err := users.CreateAdmin(ctx, username, password)
	switch {
	case services.KindOf(err) == services.KindConflict:
		log.Printf("Admin %s already exists", username)
		return nil
	case err != nil:
		return err
	}
	log.Printf("Admin %s created successfully", username)
	return nil
}
