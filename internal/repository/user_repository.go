package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tabungan-api/internal/models"
	"github.com/noah-isme/tabungan-api/pkg/config"
)

var userNamespace = uuid.MustParse("6f1c1a52-3c8e-4c43-9a7e-0b6c2b1f5e21")

// UserRepository is the in-memory directory of operators seeded from
// configuration. User ids are derived from usernames so they stay stable
// across restarts.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]models.UserCredential
}

// NewUserRepository hashes plain seed passwords with bcrypt and indexes the
// users by lower-cased username.
func NewUserRepository(seeds []config.UserSeed) (*UserRepository, error) {
	repo := &UserRepository{users: make(map[string]models.UserCredential, len(seeds))}
	for _, seed := range seeds {
		role := models.UserRole(seed.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("user %s: unknown role %q", seed.Username, seed.Role)
		}
		username := strings.ToLower(strings.TrimSpace(seed.Username))
		if username == "" {
			return nil, fmt.Errorf("user seed without username")
		}
		if _, exists := repo.users[username]; exists {
			return nil, fmt.Errorf("duplicate user %s", username)
		}

		hash := seed.Password
		if !isBcryptHash(hash) {
			generated, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hash password for %s: %w", username, err)
			}
			hash = string(generated)
		}

		name := seed.Name
		if name == "" {
			name = seed.Username
		}
		repo.users[username] = models.UserCredential{
			User: models.User{
				ID:       UserID(username),
				Username: username,
				Name:     name,
				Role:     role,
			},
			PasswordHash: hash,
		}
	}
	return repo, nil
}

// UserID derives the stable identifier of a username.
func UserID(username string) string {
	return uuid.NewSHA1(userNamespace, []byte(strings.ToLower(username))).String()
}

// FindByUsername returns the credential for username.
func (r *UserRepository) FindByUsername(_ context.Context, username string) (*models.UserCredential, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, false
	}
	return &cred, true
}

// FindByID returns the user with the given id.
func (r *UserRepository) FindByID(_ context.Context, id string) (*models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cred := range r.users {
		if cred.User.ID == id {
			user := cred.User
			return &user, true
		}
	}
	return nil, false
}

// List returns every user ordered by username.
func (r *UserRepository) List(_ context.Context) []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]models.User, 0, len(r.users))
	for _, cred := range r.users {
		users = append(users, cred.User)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

func isBcryptHash(value string) bool {
	if len(value) != 60 {
		return false
	}
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}
