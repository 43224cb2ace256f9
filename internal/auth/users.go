package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"classattend/internal/apperr"
	"classattend/internal/model"
	"classattend/internal/store"
)

// ErrInvalidCredentials is returned by Login on a bad email/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository persists user accounts in Postgres.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a repo.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert writes a new user.
func (r *UserRepository) Insert(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, first_name, last_name, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, u.ID, u.Email, u.Password, string(u.Role), u.FirstName, u.LastName, u.IsActive)
	if err := row.Scan(&u.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return model.User{}, apperr.DuplicateEntryf("user with email %q already exists", u.Email)
		}
		return model.User{}, err
	}
	return u, nil
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, first_name, last_name, is_active, created_at
		FROM users WHERE email = $1
	`, email), "email "+email)
}

// GetByID returns a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, first_name, last_name, is_active, created_at
		FROM users WHERE id = $1
	`, id), "id "+id)
}

func (r *UserRepository) scanOne(row *sql.Row, desc string) (model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &role, &u.FirstName, &u.LastName, &u.IsActive, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, apperr.NotFoundf("user not found with %s", desc)
		}
		return model.User{}, err
	}
	u.Role = model.Role(role)
	return u, nil
}

// Service handles account registration and login.
type Service struct {
	users      *UserRepository
	issuer     string
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates an auth service.
func NewService(users *UserRepository, issuer, signingKey string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		users:      users,
		issuer:     issuer,
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string, role model.Role) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}
	return s.users.Insert(ctx, model.User{
		Email:     email,
		Password:  string(hash),
		Role:      role,
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
	})
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return model.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return model.User{}, TokenPair{}, err
	}
	if !u.IsActive {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	tokens, err := Issue(u.ID, u.Role, s.issuer, s.signingKey, s.accessTTL, s.refreshTTL)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, tokens, nil
}
