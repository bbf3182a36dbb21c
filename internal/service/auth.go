package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GingerBreadIdeas/echker/internal/config"
	"github.com/GingerBreadIdeas/echker/internal/dto"
	"github.com/GingerBreadIdeas/echker/internal/repository"
)

const tokenIssuer = "echker-api"

var (
	// ErrInvalidCredentials is returned for unknown emails, wrong
	// passwords and deactivated accounts alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for expired, malformed or forged tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// accessClaims is the JWT claims set carried by access tokens.
type accessClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// AuthService issues and verifies HS256 access tokens
type AuthService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepository, cfg config.Auth, log *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL(),
		now:    time.Now,
		log:    log,
	}
}

// Login verifies the credentials and returns a signed access token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsActive {
		s.log.Warn("Login attempt for inactive user", zap.Int64("user_id", user.ID))
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: user.ID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.log.Info("User logged in", zap.Int64("user_id", user.ID))

	return token, nil
}

// Authenticate validates an access token and returns the user id it names
func (s *AuthService) Authenticate(token string) (int64, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	if claims.UserID == 0 {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}
