package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tabungan-api/internal/models"
)

type capturedMessage struct {
	routingKey string
	body       []byte
}

type publisherStub struct {
	messages []capturedMessage
	err      error
}

func (p *publisherStub) Publish(_ context.Context, routingKey string, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, capturedMessage{routingKey: routingKey, body: body})
	return nil
}

func TestEventForwarderPublishesJSON(t *testing.T) {
	pub := &publisherStub{}
	fwd := NewEventForwarder(pub, nil)
	event := models.LedgerEvent{
		ID:            "evt-1",
		Type:          models.EventTransactionCreated,
		Revision:      4,
		StudentID:     "s-1",
		TransactionID: "t-1",
		Balance:       75000,
		ActorID:       teacherUser.ID,
		OccurredAt:    time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, fwd.Forward(context.Background(), event))
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "transaction.created", pub.messages[0].routingKey)

	var decoded models.LedgerEvent
	require.NoError(t, json.Unmarshal(pub.messages[0].body, &decoded))
	assert.Equal(t, event, decoded)
}

func TestEventForwarderSurfacesPublishError(t *testing.T) {
	fwd := NewEventForwarder(&publisherStub{err: errors.New("channel closed")}, nil)
	err := fwd.Forward(context.Background(), models.LedgerEvent{ID: "evt-2", Type: models.EventStudentDeleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt-2")
}
