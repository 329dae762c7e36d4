package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/tabungan-api/internal/models"
)

// RedisGateway persists each ledger collection as one JSON value under a
// key prefix. SaveLedger writes both values inside MULTI/EXEC.
type RedisGateway struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisGateway constructs a gateway storing keys under prefix.
func NewRedisGateway(client redis.UniversalClient, prefix string) *RedisGateway {
	return &RedisGateway{client: client, prefix: prefix}
}

func (g *RedisGateway) key(name string) string {
	return g.prefix + name
}

// LoadStudents returns the stored students.
func (g *RedisGateway) LoadStudents(ctx context.Context) ([]models.Student, error) {
	students := make([]models.Student, 0)
	if _, err := g.get(ctx, keyStudents, &students); err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	return students, nil
}

// LoadTransactions returns the stored transactions.
func (g *RedisGateway) LoadTransactions(ctx context.Context) ([]models.Transaction, error) {
	txns := make([]models.Transaction, 0)
	if _, err := g.get(ctx, keyTransactions, &txns); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txns, nil
}

// SaveStudents replaces the stored students.
func (g *RedisGateway) SaveStudents(ctx context.Context, students []models.Student) error {
	if err := g.set(ctx, g.client, keyStudents, nonNilStudents(students)); err != nil {
		return fmt.Errorf("save students: %w", err)
	}
	return nil
}

// SaveTransactions replaces the stored transactions.
func (g *RedisGateway) SaveTransactions(ctx context.Context, txns []models.Transaction) error {
	if err := g.set(ctx, g.client, keyTransactions, nonNilTransactions(txns)); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// SaveLedger writes both collections in a single MULTI/EXEC block.
func (g *RedisGateway) SaveLedger(ctx context.Context, students []models.Student, txns []models.Transaction) error {
	studentsPayload, err := json.Marshal(nonNilStudents(students))
	if err != nil {
		return fmt.Errorf("marshal students: %w", err)
	}
	txnsPayload, err := json.Marshal(nonNilTransactions(txns))
	if err != nil {
		return fmt.Errorf("marshal transactions: %w", err)
	}

	_, err = g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, g.key(keyStudents), studentsPayload, 0)
		pipe.Set(ctx, g.key(keyTransactions), txnsPayload, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// SaveCurrentUser stores the current-user record.
func (g *RedisGateway) SaveCurrentUser(ctx context.Context, session models.Session) error {
	if err := g.set(ctx, g.client, keyUser, session); err != nil {
		return fmt.Errorf("save current user: %w", err)
	}
	return nil
}

// LoadCurrentUser returns the current-user record or nil when absent.
func (g *RedisGateway) LoadCurrentUser(ctx context.Context) (*models.Session, error) {
	var session models.Session
	found, err := g.get(ctx, keyUser, &session)
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

// ClearCurrentUser removes the current-user record.
func (g *RedisGateway) ClearCurrentUser(ctx context.Context) error {
	if err := g.client.Del(ctx, g.key(keyUser)).Err(); err != nil {
		return fmt.Errorf("clear current user: %w", err)
	}
	return nil
}

func (g *RedisGateway) get(ctx context.Context, name string, dest interface{}) (bool, error) {
	raw, err := g.client.Get(ctx, g.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", g.key(name), err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("unmarshal %s: %w", g.key(name), err)
	}
	return true, nil
}

func (g *RedisGateway) set(ctx context.Context, cmd redis.Cmdable, name string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := cmd.Set(ctx, g.key(name), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", g.key(name), err)
	}
	return nil
}
