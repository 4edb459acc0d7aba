package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck-service/internal/identity"
)

func TestBroadcastReachesOnlyThatPrincipal(t *testing.T) {
	b := NewBroker()
	mine := make(chan Event, 1)
	theirs := make(chan Event, 1)
	b.Register("u1", mine)
	b.Register("u2", theirs)

	b.Broadcast(Event{Type: EventProfileViewed, UID: "u1", Data: map[string]string{"by": "Acme"}})

	select {
	case ev := <-mine:
		assert.Equal(t, EventProfileViewed, ev.Type)
		assert.JSONEq(t, `{"by":"Acme"}`, string(ev.Data.(json.RawMessage)))
	default:
		t.Fatal("expected event for u1")
	}
	assert.Empty(t, theirs)
}

func TestPublishCarriesStateChange(t *testing.T) {
	b := NewBroker()
	ch := make(chan Event, 1)
	b.Register("u1", ch)

	b.Publish(identity.StateChange{UID: "u1", Authenticated: false})

	ev := <-ch
	require.NotNil(t, ev.State)
	assert.Equal(t, EventAuthState, ev.Type)
	assert.False(t, ev.State.Authenticated)
}

func TestBlockedClientIsSkipped(t *testing.T) {
	b := NewBroker()
	full := make(chan Event)
	b.Register("u1", full)

	done := make(chan struct{})
	go func() {
		b.Broadcast(Event{Type: "x", UID: "u1"})
		close(done)
	}()
	<-done
}

func TestUnregisterIsIdempotent(t *testing.T) {
	b := NewBroker()
	ch := make(chan Event, 1)
	b.Register("u1", ch)
	assert.Equal(t, 1, b.ClientCount("u1"))

	b.Unregister("u1", ch)
	b.Unregister("u1", ch)
	assert.Equal(t, 0, b.ClientCount("u1"))
	assert.Equal(t, 0, b.TotalClientCount())

	_, open := <-ch
	assert.False(t, open)
}
