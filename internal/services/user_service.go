package services

import (
	"context"
	"errors"
	"medicine_chatbot/internal/models"
	"medicine_chatbot/internal/repository"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs bearer tokens for a subject of the given role.
type TokenIssuer interface {
	Issue(subject string, role models.Role) (string, error)
}

type RegisterInput struct {
	Name     string
	Phone    string
	Email    string
	Language string
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, phone string) (*models.User, string, error)
	AdminLogin(ctx context.Context, username, password string) (*models.Admin, string, error)
	CreateAdmin(ctx context.Context, username, password string) (*models.Admin, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	// GetWithTransactions returns the user and every transaction they own.
	GetWithTransactions(ctx context.Context, phone string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type userService struct {
	userRepo  repository.UserRepository
	adminRepo repository.AdminRepository
	tokens    TokenIssuer
	notifier  *NotificationService
	now       Clock
}

func NewUserService(userRepo repository.UserRepository, adminRepo repository.AdminRepository, tokens TokenIssuer, notifier *NotificationService, clock Clock) UserService {
	if clock == nil {
		clock = defaultClock
	}
	return &userService{
		userRepo:  userRepo,
		adminRepo: adminRepo,
		tokens:    tokens,
		notifier:  notifier,
		now:       clock,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, "", err
	}
	phone, err := validatePhone(in.Phone)
	if err != nil {
		return nil, "", err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	lang, err := normalizeLanguage(in.Language)
	if err != nil {
		return nil, "", err
	}

	if _, err := s.userRepo.GetByPhone(ctx, phone); err == nil {
		return nil, "", conflictErr("Phone number already registered. Please login.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", internalErr("Failed to register user", err)
	}
	if email != "" {
		if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
			return nil, "", conflictErr("Email already registered")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, "", internalErr("Failed to register user", err)
		}
	}

	now := s.now()
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		Email:     email,
		Language:  lang,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", conflictErr("Phone number already registered. Please login.")
		}
		return nil, "", internalErr("Failed to register user", err)
	}

	token, err := s.tokens.Issue(user.ID, models.RoleUser)
	if err != nil {
		return nil, "", internalErr("Failed to issue token", err)
	}
	s.notifier.Welcome(user)
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, phone string) (*models.User, string, error) {
	phone, err := validatePhone(phone)
	if err != nil {
		return nil, "", err
	}
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", notFoundErr("User not found. Please register first.")
		}
		return nil, "", internalErr("Failed to login", err)
	}
	token, err := s.tokens.Issue(user.ID, models.RoleUser)
	if err != nil {
		return nil, "", internalErr("Failed to issue token", err)
	}
	return user, token, nil
}

func (s *userService) AdminLogin(ctx context.Context, username, password string) (*models.Admin, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", validationErr("Username and password are required")
	}
	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", unauthorizedErr("Invalid credentials")
		}
		return nil, "", internalErr("Failed to login", err)
	}
	if !CheckPassword(password, admin.PasswordHash) {
		return nil, "", unauthorizedErr("Invalid credentials")
	}
	token, err := s.tokens.Issue(admin.ID, models.RoleAdmin)
	if err != nil {
		return nil, "", internalErr("Failed to issue token", err)
	}
	return admin, token, nil
}

func (s *userService) CreateAdmin(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 6 {
		return nil, validationErr("Username is required and password must be at least 6 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, internalErr("Failed to hash password", err)
	}
	now := s.now()
	admin := &models.Admin{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictErr("Admin %s already exists", username)
		}
		return nil, internalErr("Failed to create admin", err)
	}
	return admin, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("User not found")
		}
		return nil, internalErr("Failed to load user", err)
	}
	return user, nil
}

func (s *userService) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.userRepo.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("User not found")
		}
		return nil, internalErr("Failed to load user", err)
	}
	return user, nil
}

func (s *userService) GetWithTransactions(ctx context.Context, phone string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, validationErr("Phone is required")
	}
	users, err := s.userRepo.GetAllWithTransactions(ctx, phone)
	if err != nil {
		return nil, internalErr("Failed to load user", err)
	}
	if len(users) == 0 {
		return nil, notFoundErr("User not found")
	}
	u := users[0]
	if u.Transactions == nil {
		u.Transactions = []models.Transaction{}
	}
	return &u, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, internalErr("Failed to load users", err)
	}
	return users, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
