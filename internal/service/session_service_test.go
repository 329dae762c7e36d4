package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tabungan-api/internal/models"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
)

type sessionStoreStub struct {
	saved   *models.Session
	saveErr error
	loadErr error
	clears  int
}

func (s *sessionStoreStub) SaveCurrentUser(_ context.Context, session models.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = &session
	return nil
}

func (s *sessionStoreStub) LoadCurrentUser(context.Context) (*models.Session, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.saved, nil
}

func (s *sessionStoreStub) ClearCurrentUser(context.Context) error {
	s.clears++
	s.saved = nil
	return nil
}

func TestSessionLoginLogout(t *testing.T) {
	store := &sessionStoreStub{}
	svc := NewSessionService(store, nil)

	_, ok := svc.CurrentUser()
	assert.False(t, ok)

	session, err := svc.Login(context.Background(), teacherUser)
	require.NoError(t, err)
	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, teacherUser.ID, store.saved.ID)

	current, ok := svc.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, teacherUser.Username, current.Username)
	assert.True(t, svc.HasRole(models.RoleTeacher))
	assert.False(t, svc.HasRole(models.RoleAdmin))
	assert.True(t, svc.IsActive(session.SessionID))

	require.NoError(t, svc.Logout(context.Background()))
	_, ok = svc.CurrentUser()
	assert.False(t, ok)
	assert.False(t, svc.IsActive(session.SessionID))
	assert.Equal(t, 1, store.clears)
}

func TestSessionLoginReplacesPrevious(t *testing.T) {
	svc := NewSessionService(&sessionStoreStub{}, nil)

	first, err := svc.Login(context.Background(), teacherUser)
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), adminUser)
	require.NoError(t, err)

	assert.False(t, svc.IsActive(first.SessionID))
	assert.True(t, svc.IsActive(second.SessionID))
	assert.True(t, svc.HasRole(models.RoleAdmin))
}

func TestSessionLoginPersistenceFailureKeepsState(t *testing.T) {
	store := &sessionStoreStub{}
	svc := NewSessionService(store, nil)
	_, err := svc.Login(context.Background(), adminUser)
	require.NoError(t, err)

	store.saveErr = errors.New("disk full")
	_, err = svc.Login(context.Background(), teacherUser)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPersistence))
	assert.True(t, svc.HasRole(models.RoleAdmin))
}

func TestSessionLoginRejectsUnknownRole(t *testing.T) {
	svc := NewSessionService(&sessionStoreStub{}, nil)
	_, err := svc.Login(context.Background(), models.User{ID: "x", Role: "parent"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSessionRestore(t *testing.T) {
	store := &sessionStoreStub{saved: &models.Session{User: adminUser, SessionID: "sid-1"}}
	svc := NewSessionService(store, nil)

	require.NoError(t, svc.Restore(context.Background()))
	assert.True(t, svc.IsActive("sid-1"))

	store.loadErr = errors.New("unreachable")
	err := svc.Restore(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrPersistence))
}
