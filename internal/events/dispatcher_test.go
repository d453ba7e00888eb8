package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcher_DeliversInOrderAndSurvivesFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventCommentAdded, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), New(EventTicketCreated, "t1", "u1", nil)))
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}

func TestNew_StampsIdentity(t *testing.T) {
	a := New(EventSessionStarted, "s1", "u1", SessionPayload{})
	b := New(EventSessionStarted, "s1", "u1", SessionPayload{})
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())
	assert.Equal(t, "s1", a.SubjectID)
}
