package main

import (
	"context"
	"fmt"
	"log"

	"medicine_chatbot/internal/config"
	"medicine_chatbot/internal/database"
	"medicine_chatbot/internal/notify"
	"medicine_chatbot/internal/repository"
	"medicine_chatbot/internal/repository/mongostore"
	"medicine_chatbot/pkg/mailer"
	"medicine_chatbot/pkg/whatsapp"

	"gorm.io/gorm"
)

// stores holds the repositories of whichever backend DB_DRIVER selects.
type stores struct {
	users  repository.UserRepository
	admins repository.AdminRepository
	txs    repository.TransactionRepository
	// gorm is nil for the document backend.
	gorm  *gorm.DB
	close func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.DBDriver == "mongo" || cfg.DBDriver == "mongodb" {
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return &stores{
			users:  mongostore.NewUserRepository(db),
			admins: mongostore.NewAdminRepository(db),
			txs:    mongostore.NewTransactionRepository(db),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Printf("Warning: mongo disconnect: %v", err)
				}
			},
		}, nil
	}

	db, err := database.Initialize(cfg.DBDriver, cfg.DatabaseURL, cfg.GinMode == "debug")
	if err != nil {
		return nil, err
	}
	return &stores{
		users:  repository.NewUserRepository(db),
		admins: repository.NewAdminRepository(db),
		txs:    repository.NewTransactionRepository(db),
		gorm:   db,
		close: func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		},
	}, nil
}

// newMailer builds the email chain for MAIL_PROVIDER. "auto" tries Mailgun
// then SMTP, whichever are configured, and logs when neither is.
func newMailer(cfg *config.Config) mailer.Sender {
	var mailgun, smtp mailer.Sender
	if cfg.MailgunAPIKey != "" && cfg.MailgunDomain != "" {
		mailgun = mailer.NewMailgunClient(cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.MailgunFrom)
	}
	if cfg.EmailHost != "" {
		smtp = mailer.NewSMTPClient(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPass, cfg.SMTPFrom)
	}

	var chain *mailer.Chain
	switch cfg.MailProvider {
	case "mailgun":
		chain = mailer.NewChain(mailgun)
	case "smtp":
		chain = mailer.NewChain(smtp)
	case "log":
		chain = mailer.NewChain(mailer.LogSender{})
	default:
		chain = mailer.NewChain(mailgun, smtp)
	}
	if chain.Len() == 0 {
		log.Printf("Warning: no email provider configured for %q, emails will only be logged", cfg.MailProvider)
		return mailer.LogSender{}
	}
	log.Printf("Email provider: %s", chain.Name())
	return chain
}

func newDispatcher(cfg *config.Config, wa *whatsapp.Client) *notify.Dispatcher {
	d := notify.NewDispatcher(cfg.NotifyWorkers, cfg.NotifyQueueSize)
	d.Register(notify.ChannelEmail, notify.NewEmailNotifier(newMailer(cfg)))
	if wa.Configured() {
		d.Register(notify.ChannelWhatsApp, notify.NewWhatsAppNotifier(wa))
	}
	return d
}
