package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// acceptedChat wires an annonce, a request and a chat, then has the courier
// accept so the composer is open.
func acceptedChat(t *testing.T, repos testRepos, publisher MessagePublisher) *model.Chat {
	t.Helper()
	ctx := context.Background()
	chatSvc := NewChatService(repos.chat, repos.request, repos.annonce, zap.NewNop())
	requestSvc := NewRequestService(repos.request, repos.annonce, repos.chat, publisher, zap.NewNop())

	annonce := seedAnnonce(t, repos, "gp-1", "Paris", "Dakar", "2024-05-01")
	req := seedRequest(t, repos, "client-1")
	chat, err := chatSvc.Contact(ctx, "client-1", annonce.ID, req.ID)
	require.NoError(t, err)
	_, err = requestSvc.Accept(ctx, req.ID, "gp-1")
	require.NoError(t, err)
	return chat
}

func TestSendAndHistory(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(newTestDB(t))
	svc := NewMessageService(repos.chat, repos.request, nil, zap.NewNop())
	chat := acceptedChat(t, repos, nil)

	sent, err := svc.Send(ctx, chat.ID, "client-1", "  Bonjour, quand partez-vous ?  ", "")
	require.NoError(t, err)
	require.NotNil(t, sent.Content)
	assert.Equal(t, "Bonjour, quand partez-vous ?", *sent.Content)
	assert.NotEmpty(t, sent.ClientKey, "server assigns a key when the sender has none")

	reply, err := svc.Send(ctx, chat.ID, "gp-1", "Demain matin", "")
	require.NoError(t, err)

	history, err := svc.History(ctx, chat.ID, "client-1")
	require.NoError(t, err)
	require.Len(t, history, 3, "accept confirmation plus the two messages")
	assert.Equal(t, sent.ID, history[1].ID)
	assert.Equal(t, reply.ID, history[2].ID)
}

func TestSend_ClientKeyDedup(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(newTestDB(t))
	svc := NewMessageService(repos.chat, repos.request, nil, zap.NewNop())
	chat := acceptedChat(t, repos, nil)

	first, err := svc.Send(ctx, chat.ID, "client-1", "Bonjour", "key-abc")
	require.NoError(t, err)

	second, err := svc.Send(ctx, chat.ID, "client-1", "Bonjour", "key-abc")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "resending the same key returns the original row")

	history, err := svc.History(ctx, chat.ID, "client-1")
	require.NoError(t, err)

	var withContent int
	for _, m := range history {
		if m.Content != nil {
			withContent++
		}
	}
	assert.Equal(t, 1, withContent)
}

func TestSend_Guards(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(newTestDB(t))
	svc := NewMessageService(repos.chat, repos.request, nil, zap.NewNop())
	chatSvc := NewChatService(repos.chat, repos.request, repos.annonce, zap.NewNop())

	annonce := seedAnnonce(t, repos, "gp-1", "Paris", "Dakar", "2024-05-01")
	req := seedRequest(t, repos, "client-1")
	chat, err := chatSvc.Contact(ctx, "client-1", annonce.ID, req.ID)
	require.NoError(t, err)

	t.Run("pending request blocks the composer", func(t *testing.T) {
		_, err := svc.Send(ctx, chat.ID, "client-1", "Bonjour", "")
		assert.ErrorIs(t, err, ErrRequestNotAccepted)
	})

	t.Run("only participants may send", func(t *testing.T) {
		_, err := svc.Send(ctx, chat.ID, "stranger", "Bonjour", "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := svc.Send(ctx, chat.ID, "client-1", "   ", "")
		assert.EqualError(t, err, "content is required")
	})

	t.Run("unknown chat", func(t *testing.T) {
		_, err := svc.Send(ctx, 9999, "client-1", "Bonjour", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("history and stream share the participant check", func(t *testing.T) {
		_, err := svc.History(ctx, chat.ID, "stranger")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.ErrorIs(t, svc.Authorize(ctx, chat.ID, "stranger"), ErrForbidden)
		assert.NoError(t, svc.Authorize(ctx, chat.ID, "gp-1"))
	})
}

func TestSend_PublishesToSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	broker := realtime.New(mr.Addr())
	defer broker.Close()

	repos := newTestRepos(newTestDB(t))
	svc := NewMessageService(repos.chat, repos.request, broker, zap.NewNop())
	chat := acceptedChat(t, repos, nil)

	sub := broker.Subscribe(ctx, chat.ID)
	defer sub.Close()

	// Wait for the subscription to land; the probe payload is not JSON and
	// is dropped by the broker.
	channel := fmt.Sprintf("chat:%d", chat.ID)
	require.Eventually(t, func() bool {
		return mr.Publish(channel, "ping") > 0
	}, 2*time.Second, 10*time.Millisecond)

	sent, err := svc.Send(ctx, chat.ID, "client-1", "Le colis est emballé", "")
	require.NoError(t, err)

	select {
	case got := <-sub.Events():
		assert.Equal(t, sent.ID, got.ID)
		require.NotNil(t, got.Content)
		assert.Equal(t, "Le colis est emballé", *got.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered to subscriber")
	}
}
