package feed

import (
	"testing"
	"time"

	"github.com/selfmadecero/onevdr/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(names ...string) []domain.Investor {
	out := make([]domain.Investor, len(names))
	for i, n := range names {
		out[i] = domain.Investor{ID: n, Name: n}
	}
	return out
}

func TestSubscribeReceivesPublishedSnapshot(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish(1, snapshotOf("acme", "globex"))

	select {
	case got := <-ch:
		require.Len(t, got, 2)
		assert.Equal(t, "acme", got[0].Name)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestPublishIsScopedToUser(t *testing.T) {
	hub := NewHub()
	ch1, cancel1 := hub.Subscribe(1)
	defer cancel1()
	ch2, cancel2 := hub.Subscribe(2)
	defer cancel2()

	hub.Publish(1, snapshotOf("acme"))

	select {
	case <-ch1:
	case <-time.After(time.Second):
		t.Fatal("owner did not receive snapshot")
	}

	select {
	case got := <-ch2:
		t.Fatalf("unexpected snapshot for other user: %v", got)
	default:
	}
}

func TestPublishSkipsFullSubscriber(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe(1)
	defer cancel()

	// Never drained; buffer fills, further publishes must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.Publish(1, snapshotOf("acme"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(7)

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.SubscriberCount(7))

	// Publishing after all subscribers are gone is a no-op.
	hub.Publish(7, snapshotOf("acme"))
}

func TestSubscriberCount(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.SubscriberCount(1))

	_, cancel1 := hub.Subscribe(1)
	_, cancel2 := hub.Subscribe(1)
	assert.Equal(t, 2, hub.SubscriberCount(1))

	cancel1()
	assert.Equal(t, 1, hub.SubscriberCount(1))
	cancel2()
	assert.Equal(t, 0, hub.SubscriberCount(1))
}
