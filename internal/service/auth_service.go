package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tabungan-api/internal/models"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
)

type authUserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*models.UserCredential, bool)
	FindByID(ctx context.Context, id string) (*models.User, bool)
}

type authSessions interface {
	Login(ctx context.Context, user models.User) (*models.Session, error)
	Logout(ctx context.Context) error
	IsActive(sessionID string) bool
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	SingleSession     bool
}

// AuthService authenticates operators and issues access tokens bound to the
// current session.
type AuthService struct {
	users     authUserDirectory
	sessions  authSessions
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserDirectory, sessions authSessions, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies credentials, records the session and returns an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	cred, ok := s.users.FindByUsername(ctx, req.Username)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("login rejected", zap.String("username", cred.User.Username))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	session, err := s.sessions.Login(ctx, cred.User)
	if err != nil {
		return nil, err
	}

	token, issuedAt, err := s.generateAccessToken(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		User:        session.User,
		SessionID:   session.SessionID,
		IssuedAt:    issuedAt,
	}, nil
}

// Logout ends the session the claims belong to. Claims of a session that is
// no longer current leave the current-user record untouched.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) error {
	if claims == nil || !s.sessions.IsActive(claims.SessionID) {
		return nil
	}
	return s.sessions.Logout(ctx)
}

// Me returns the user behind the claims.
func (s *AuthService) Me(ctx context.Context, claims *models.JWTClaims) (*models.User, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing token")
	}
	user, ok := s.users.FindByID(ctx, claims.UserID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
	}
	return user, nil
}

// ValidateToken parses and validates an access token returning the claims.
// With single-session enforcement tokens of a superseded or logged-out
// session are rejected.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token role")
	}
	if s.config.SingleSession && !s.sessions.IsActive(claims.SessionID) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session has ended")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(session *models.Session) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:    session.ID,
		Username:  session.Username,
		Name:      session.Name,
		Role:      session.Role,
		SessionID: session.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.ID,
			ID:        session.SessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
