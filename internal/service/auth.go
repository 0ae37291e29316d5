package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/parley/parley-go/internal/crypto"
	"github.com/parley/parley-go/internal/model"
	"github.com/parley/parley-go/internal/repository"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6

	TokenTypeBearer = "bearer"
)

var (
	ErrUsernameTooShort = validationError("username must be at least 3 characters")
	ErrPasswordTooShort = validationError("password must be at least 6 characters")
	ErrEmailInvalid     = validationError("email address is invalid")

	ErrUsernameTaken = conflictError("username already exists")
	ErrEmailTaken    = conflictError("email already exists")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService handles account and login business logic.
type AuthService struct {
	users  UserStore
	tokens *TokenService
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens *TokenService) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register creates a new account. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.RegisterResponse, error) {
	if utf8.RuneCountInString(req.Username) < MinUsernameLength {
		return model.RegisterResponse{}, ErrUsernameTooShort
	}
	if err := validateCredentials(req.Password, req.Email); err != nil {
		return model.RegisterResponse{}, err
	}

	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return model.RegisterResponse{}, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.RegisterResponse{}, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return model.RegisterResponse{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.RegisterResponse{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.RegisterResponse{}, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return model.RegisterResponse{}, conflictError("username or email already exists")
		}
		return model.RegisterResponse{}, err
	}

	return model.RegisterResponse{
		Message: "User registered successfully",
		User:    model.NewUserResponse(user),
	}, nil
}

// Login checks the password and issues a fresh token, replacing any earlier one.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	s.tokens.sweep(ctx)

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Pay for one verification so unknown usernames are not faster.
			_, _ = crypto.VerifyPassword(req.Password, s.dummy())
			return model.LoginResponse{}, ErrInvalidCredentials
		}
		return model.LoginResponse{}, err
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.LoginResponse{}, err
	}
	if !match {
		return model.LoginResponse{}, ErrInvalidCredentials
	}
	s.upgradeHash(ctx, user, req.Password)

	token, err := s.tokens.Issue(ctx, user.ID, user.Username)
	if err != nil {
		return model.LoginResponse{}, err
	}

	return model.LoginResponse{
		Message:     "Login successful",
		User:        model.NewUserResponse(user),
		AccessToken: token,
		TokenType:   TokenTypeBearer,
	}, nil
}

// Logout revokes the caller's active token.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.tokens.Revoke(ctx, userID)
}

// GetUser retrieves a user by ID and returns safe user data.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return model.NewUserResponse(user), nil
}

// UpdateAccount replaces the password and email of an existing user.
// Tokens already issued stay valid.
func (s *AuthService) UpdateAccount(ctx context.Context, userID int64, req model.UpdateAccountRequest) (model.UserResponse, error) {
	if err := validateCredentials(req.Password, req.Email); err != nil {
		return model.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	if owner, err := s.users.GetByEmail(ctx, req.Email); err == nil && owner.ID != userID {
		return model.UserResponse{}, ErrEmailTaken
	} else if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return model.UserResponse{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.UserResponse{}, err
	}

	if err := s.users.UpdatePasswordAndEmail(ctx, userID, hash, req.Email); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return model.UserResponse{}, ErrEmailTaken
		}
		return model.UserResponse{}, fmt.Errorf("updating account: %w", err)
	}

	user.Email = req.Email
	return model.NewUserResponse(user), nil
}

// upgradeHash re-hashes a verified password stored with outdated parameters.
// Failure leaves the old hash in place.
func (s *AuthService) upgradeHash(ctx context.Context, user *model.User, password string) {
	if !crypto.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		slog.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.users.UpdatePasswordAndEmail(ctx, user.ID, hash, user.Email); err != nil {
		slog.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash = crypto.DummyHash()
	})
	return s.dummyHash
}

func validateCredentials(password, email string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrEmailInvalid
	}
	return nil
}
