package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tabungan-api/internal/models"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
)

type sessionStore interface {
	SaveCurrentUser(ctx context.Context, session models.Session) error
	LoadCurrentUser(ctx context.Context) (*models.Session, error)
	ClearCurrentUser(ctx context.Context) error
}

// SessionService holds the current-user record of the installation.
type SessionService struct {
	store  sessionStore
	logger *zap.Logger

	mu      sync.RWMutex
	current *models.Session

	now   func() time.Time
	newID func() string
}

// NewSessionService constructs the session gate with no logged-in user.
func NewSessionService(store sessionStore, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Restore reloads the persisted current-user record.
func (s *SessionService) Restore(ctx context.Context) error {
	session, err := s.store.LoadCurrentUser(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load current user")
	}
	if session != nil && !session.Role.Valid() {
		s.logger.Warn("discarding stored session with unknown role", zap.String("role", string(session.Role)))
		session = nil
	}

	s.mu.Lock()
	s.current = session
	s.mu.Unlock()

	if session != nil {
		s.logger.Info("session restored", zap.String("username", session.Username), zap.String("role", string(session.Role)))
	}
	return nil
}

// Login records user as the current operator, replacing any previous one.
func (s *SessionService) Login(ctx context.Context, user models.User) (*models.Session, error) {
	if !user.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	session := models.Session{User: user, SessionID: s.newID(), LoggedInAt: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveCurrentUser(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	s.current = &session
	s.logger.Info("user logged in", zap.String("username", user.Username), zap.String("session_id", session.SessionID))

	result := session
	return &result, nil
}

// Logout clears the current-user record.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ClearCurrentUser(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	if s.current != nil {
		s.logger.Info("user logged out", zap.String("username", s.current.Username))
	}
	s.current = nil
	return nil
}

// CurrentUser returns the logged-in session, if any.
func (s *SessionService) CurrentUser() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Session{}, false
	}
	return *s.current, true
}

// HasRole reports whether a user is logged in with the given role.
func (s *SessionService) HasRole(role models.UserRole) bool {
	session, ok := s.CurrentUser()
	return ok && session.Role == role
}

// IsActive reports whether sessionID is the current session.
func (s *SessionService) IsActive(sessionID string) bool {
	session, ok := s.CurrentUser()
	return ok && sessionID != "" && session.SessionID == sessionID
}
