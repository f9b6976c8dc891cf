// Package auth handles admin accounts and the bearer tokens issued to
// them.
package auth

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/katsura919/book-master-server/internal/config"
	"github.com/katsura919/book-master-server/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var (
	ErrAdminNotFound    = errors.New("admin not found")
	ErrAdminExists      = errors.New("admin already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
)

// Service handles admin registration, login, and token verification.
type Service struct {
	db     *gorm.DB
	config config.Auth
	secret []byte
}

// NewService creates an authentication service. When no JWT secret is
// configured a random one is generated, which invalidates tokens across
// restarts.
func NewService(db *gorm.DB, cfg config.Auth) (*Service, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		generated, err := GenerateJWTSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		secret = generated
		log.Printf("Auth: no JWT secret configured, generated an ephemeral one")
	}
	return &Service{
		db:     db,
		config: cfg,
		secret: []byte(secret),
	}, nil
}

// Register creates a new admin account.
func (s *Service) Register(firstName, lastName, username, password string) (*entities.Admin, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}

	var existing entities.Admin
	err := s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, ErrAdminExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing admin: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &entities.Admin{
		FirstName:    firstName,
		LastName:     lastName,
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

// Login validates credentials and returns a signed token with the admin.
func (s *Service) Login(username, password string) (string, *entities.Admin, error) {
	var admin entities.Admin
	err := s.db.Where("username = ?", username).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrAdminNotFound
		}
		return "", nil, fmt.Errorf("failed to find admin: %w", err)
	}

	if err := CheckPassword(password, admin.PasswordHash); err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(&admin)
	if err != nil {
		return "", nil, err
	}
	return token, &admin, nil
}

func (s *Service) issueToken(admin *entities.Admin) (string, error) {
	expiry := s.config.TokenExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   fmt.Sprintf("%d", admin.ID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a signed token, returning its claims.
func (s *Service) VerifyToken(tokenString string) (*jwt.RegisteredClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsEnabled returns true if staff routes require a bearer token.
func (s *Service) IsEnabled() bool {
	return s.config.Enabled
}
