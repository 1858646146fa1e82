package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"digitronix/internal/auth"
	"digitronix/internal/domain"
	"digitronix/internal/metrics"
	"digitronix/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// bcrypt ignores input past 72 bytes
	maxPasswordBytes = 72
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	Phone     string
	Country   string
	City      string
	Street    string
	Apartment string
}

// UserService defines the interface for user business logic
type UserService interface {
	// Register creates a customer account. It never grants admin rights.
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// CreateAdmin creates an administrator account for operators.
	CreateAdmin(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo repository.UserRepository, tokens *auth.TokenManager, m *metrics.Metrics) UserService {
	return &userService{
		userRepo: userRepo,
		tokens:   tokens,
		metrics:  m,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.create(ctx, in, false)
}

func (s *userService) CreateAdmin(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.create(ctx, in, true)
}

func (s *userService) create(ctx context.Context, in RegisterInput, isAdmin bool) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.Validation("email and password are required")
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, domain.Validation("password must be at most %d bytes", maxPasswordBytes)
	}

	// Check if user already exists
	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, domain.ErrEmailTaken
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Phone:        strings.TrimSpace(in.Phone),
		Country:      in.Country,
		City:         in.City,
		Street:       in.Street,
		Apartment:    in.Apartment,
		IsAdmin:      isAdmin,
		CreatedAt:    s.now().UTC(),
	}

	// The unique constraints still catch concurrent registrations
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns a signed session token. Unknown
// email and wrong password fail identically and cost one bcrypt comparison.
func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = verifyPassword(dummyHash(), password)
			s.metrics.LoginAttempt("invalid")
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := verifyPassword(user.PasswordHash, password); err != nil {
		s.metrics.LoginAttempt("invalid")
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, IsAdmin: user.IsAdmin})
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.metrics.LoginAttempt("success")
	return token, user, nil
}

func (s *userService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) Count(ctx context.Context) (int, error) {
	return s.userRepo.Count(ctx)
}

func (s *userService) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.userRepo.Delete(ctx, userID)
}

// hashPassword hashes a password using bcrypt with cost factor 10
func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// verifyPassword verifies a password against a bcrypt hash
func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is compared against when the email is unknown.
func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = hashPassword(uuid.NewString())
	})
	return dummy
}
