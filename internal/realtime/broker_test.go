package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gpexpress/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*Broker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	b := New(mr.Addr())
	t.Cleanup(func() { b.Close() })
	return b, mr
}

// waitSubscribed blocks until miniredis reports a live subscriber on the
// chat's channel. The probe payload is not JSON, so subscribers drop it.
func waitSubscribed(t *testing.T, mr *miniredis.Miniredis, chatID uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return mr.Publish(chatChannel(chatID), "ping") > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func msgFor(chatID uint64, content string) *model.ChatMessage {
	return &model.ChatMessage{ID: 1, ChatID: chatID, SenderAuthID: "client-1", Content: &content}
}

func TestPublishReachesSubscriber(t *testing.T) {
	b, mr := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.Subscribe(ctx, 42)
	defer sub.Close()
	waitSubscribed(t, mr, 42)

	require.NoError(t, b.PublishMessage(ctx, msgFor(42, "Bonjour")))

	select {
	case got := <-sub.Events():
		assert.Equal(t, uint64(42), got.ChatID)
		require.NotNil(t, got.Content)
		assert.Equal(t, "Bonjour", *got.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestChannelsAreIsolated(t *testing.T) {
	b, mr := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subA := b.Subscribe(ctx, 1)
	defer subA.Close()
	subB := b.Subscribe(ctx, 2)
	defer subB.Close()
	waitSubscribed(t, mr, 1)
	waitSubscribed(t, mr, 2)

	require.NoError(t, b.PublishMessage(ctx, msgFor(2, "pour le chat 2")))

	select {
	case got := <-subB.Events():
		assert.Equal(t, uint64(2), got.ChatID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered to its own chat")
	}

	select {
	case got, ok := <-subA.Events():
		if ok {
			t.Fatalf("chat 1 received a foreign event: %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestContextCancelClosesEvents(t *testing.T) {
	b, mr := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub := b.Subscribe(ctx, 7)
	defer sub.Close()
	waitSubscribed(t, mr, 7)

	cancel()

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "events channel must close when the context ends")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel did not close")
	}
}

func TestCloseReleasesSubscription(t *testing.T) {
	b, mr := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.Subscribe(ctx, 9)
	waitSubscribed(t, mr, 9)
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "events channel must close when the subscription is released")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel did not close")
	}
}
