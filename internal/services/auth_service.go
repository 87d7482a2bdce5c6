package services

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"chalfim/internal/models"
	"chalfim/internal/repositories"
)

// AuthService handles business logic for accounts, login and the manual
// password-reset workflow.
type AuthService struct {
	userRepo   repositories.UserRepository
	resetRepo  repositories.ResetRepository
	events     EventPublisher
	protected  string // bootstrap admin that can never be deleted
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewAuthService creates a new AuthService. protectedAdmin is the
// bootstrap username whose deletion is always refused.
func NewAuthService(userRepo repositories.UserRepository, resetRepo repositories.ResetRepository, events EventPublisher, protectedAdmin, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		resetRepo:  resetRepo,
		events:     events,
		protected:  protectedAdmin,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
	}
}

// LoginResult is what a successful credential check yields. When the
// account is flagged must-change, RequireNewPassword is set and no token
// is issued.
type LoginResult struct {
	Username           string
	Role               string
	Token              string
	RequireNewPassword bool
}

// ListUsers returns all users.
func (s *AuthService) ListUsers() ([]models.User, error) {
	return s.userRepo.GetAll()
}

// CreateUser registers a user with a bcrypt-hashed password.
func (s *AuthService) CreateUser(username, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.Create(models.User{
		Username: username,
		Password: string(hash),
		Role:     role,
	})
}

// DeleteUser removes a user. The bootstrap admin is undeletable.
func (s *AuthService) DeleteUser(username string) error {
	if username == s.protected {
		return fmt.Errorf("user %q: %w", username, models.ErrForbidden)
	}
	return s.userRepo.Delete(username)
}

// Login checks credentials. An unknown username and a wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(username, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("%w", models.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w", models.ErrInvalidCredentials)
	}

	if user.MustChangePassword {
		return &LoginResult{Username: user.Username, RequireNewPassword: true}, nil
	}

	token, err := s.issueToken(user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Username: user.Username, Role: user.Role, Token: token}, nil
}

// ChangePassword overwrites a user's password without checking the old
// one and clears the must-change flag. Returns the role and a fresh token.
func (s *AuthService) ChangePassword(username, newPassword string) (role, token string, err error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.userRepo.UpdatePassword(username, string(hash))
	if err != nil {
		return "", "", err
	}
	token, err = s.issueToken(user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	return user.Role, token, nil
}

// RequestReset queues a manual reset for an existing user. Repeated
// requests are idempotent.
func (s *AuthService) RequestReset(username string) error {
	if err := s.resetRepo.Request(username); err != nil {
		return err
	}
	publish(s.events, EventResetRequested, map[string]interface{}{"username": username})
	return nil
}

// PendingResets returns usernames waiting for an admin decision.
func (s *AuthService) PendingResets() ([]string, error) {
	return s.resetRepo.Pending()
}

// HandleReset resolves a pending request. Approval grants the one-time
// manual reset; any other action only clears the pending entry. Both
// outcomes are published so a consumer can notify the user.
func (s *AuthService) HandleReset(username, action string) error {
	approve := action == "approve"
	if err := s.resetRepo.Handle(username, approve); err != nil {
		return err
	}
	event := EventResetDenied
	if approve {
		event = EventResetApproved
	}
	publish(s.events, event, map[string]interface{}{"username": username})
	return nil
}

// CompleteReset sets a new password for a user holding an approved manual
// reset, consuming the approval.
func (s *AuthService) CompleteReset(username, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.resetRepo.Complete(username, string(hash)); err != nil {
		return err
	}
	publish(s.events, EventResetCompleted, map[string]interface{}{"username": username})
	return nil
}

// issueToken signs an HS256 session token for the user.
func (s *AuthService) issueToken(username, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a session token, returning its
// claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
