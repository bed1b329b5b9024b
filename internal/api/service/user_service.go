package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gridrelay/tictactoe/internal/api/models"
	"github.com/gridrelay/tictactoe/internal/api/repository"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

const tokenLifetime = 72 * time.Hour

// UserService defines the interface for user-related business logic.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (string, error)
	GuestLogin(ctx context.Context) (string, error)
}

type userService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
}

// NewUserService creates a new UserService signing tokens with secret.
func NewUserService(userRepo repository.UserRepository, secret string) UserService {
	return &userService{userRepo: userRepo, jwtSecret: []byte(secret)}
}

// Register handles user registration.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) error {
	existing, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}

	user := &models.User{Username: req.Username}
	return s.userRepo.CreateUser(ctx, user, req.Password)
}

// Login verifies credentials and returns a signed JWT on success.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"un":  user.Username,
		"exp": time.Now().Add(tokenLifetime).Unix(),
	})

	return token.SignedString(s.jwtSecret)
}

// GuestLogin generates a throwaway player ID for an anonymous session.
func (s *userService) GuestLogin(ctx context.Context) (string, error) {
	return uuid.New().String(), nil
}
