package service

import (
	"context"
	"testing"

	"github.com/gpexpress/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// matchedRequest seeds an annonce and a request, contacts, and returns both
// sides of the match. The request stays pending unless accept is set.
func matchedRequest(t *testing.T, repos testRepos, accept bool) (*model.DeliveryRequest, *model.Annonce) {
	t.Helper()
	ctx := context.Background()
	chatSvc := NewChatService(repos.chat, repos.request, repos.annonce, zap.NewNop())
	requestSvc := NewRequestService(repos.request, repos.annonce, repos.chat, nil, zap.NewNop())

	annonce := seedAnnonce(t, repos, "gp-1", "Paris", "Dakar", "2024-05-01")
	req := seedRequest(t, repos, "client-1")
	_, err := chatSvc.Contact(ctx, "client-1", annonce.ID, req.ID)
	require.NoError(t, err)
	if accept {
		req, err = requestSvc.Accept(ctx, req.ID, "gp-1")
		require.NoError(t, err)
	}
	return req, annonce
}

func TestRecordStep(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(newTestDB(t))
	svc := NewTrackingService(repos.tracking, repos.request, repos.annonce)
	req, _ := matchedRequest(t, repos, true)

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.RecordStep(ctx, req.ID, "gp-1", "teleported")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("only the matched courier records", func(t *testing.T) {
		_, err := svc.RecordStep(ctx, req.ID, "gp-impostor", model.StepPickedUp)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown request", func(t *testing.T) {
		_, err := svc.RecordStep(ctx, 9999, "gp-1", model.StepPickedUp)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	step, err := svc.RecordStep(ctx, req.ID, "gp-1", model.StepPickedUp)
	require.NoError(t, err)
	assert.Equal(t, model.StepPickedUp, step.Etape)
	assert.Equal(t, "en_cours", step.Status)
}

func TestProgress_MembershipOnly(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(newTestDB(t))
	svc := NewTrackingService(repos.tracking, repos.request, repos.annonce)
	req, _ := matchedRequest(t, repos, true)

	_, err := svc.RecordStep(ctx, req.ID, "gp-1", model.StepPickedUp)
	require.NoError(t, err)

	milestones, err := svc.Progress(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, milestones, 6)

	done := make(map[string]bool, len(milestones))
	for _, m := range milestones {
		done[m.Label] = m.Done
	}
	assert.True(t, done["Récupération du colis"])
	assert.False(t, done["Vérification du colis"], "earlier lines stay unticked without their step")
	assert.False(t, done["Départ du colis"])
	assert.False(t, done["Livraison effectuée"])

	t.Run("one in_transit step ticks both transit lines", func(t *testing.T) {
		_, err := svc.RecordStep(ctx, req.ID, "gp-1", model.StepInTransit)
		require.NoError(t, err)

		milestones, err := svc.Progress(ctx, req.ID)
		require.NoError(t, err)
		for _, m := range milestones {
			if m.Code == model.StepInTransit {
				assert.True(t, m.Done, m.Label)
			}
		}
	})
}

func TestRecordStep_DeliveredFlipsRequest(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(newTestDB(t))
	svc := NewTrackingService(repos.tracking, repos.request, repos.annonce)
	req, _ := matchedRequest(t, repos, true)

	step, err := svc.RecordStep(ctx, req.ID, "gp-1", model.StepDelivered)
	require.NoError(t, err)
	assert.Equal(t, "livree", step.Status)

	updated, err := repos.request.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusDelivered, updated.Status)

	tracked, err := svc.TrackByNumber(ctx, req.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusDelivered, tracked.Status)
	require.NotNil(t, tracked.DeliveredAt)
}

func TestSubmitFeedback(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(newTestDB(t))
	svc := NewTrackingService(repos.tracking, repos.request, repos.annonce)
	req, _ := matchedRequest(t, repos, true)

	t.Run("before delivery", func(t *testing.T) {
		err := svc.SubmitFeedback(ctx, req.ID, "client-1", "Très bien", 5)
		assert.ErrorIs(t, err, ErrNotDelivered)
	})

	_, err := svc.RecordStep(ctx, req.ID, "gp-1", model.StepDelivered)
	require.NoError(t, err)

	t.Run("rating bounds", func(t *testing.T) {
		assert.ErrorIs(t, svc.SubmitFeedback(ctx, req.ID, "client-1", "ok", 0), ErrValidation)
		assert.ErrorIs(t, svc.SubmitFeedback(ctx, req.ID, "client-1", "ok", 6), ErrValidation)
	})

	t.Run("only the requester rates", func(t *testing.T) {
		err := svc.SubmitFeedback(ctx, req.ID, "stranger", "ok", 4)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	require.NoError(t, svc.SubmitFeedback(ctx, req.ID, "client-1", "Livraison rapide, merci", 5))

	t.Run("write-once", func(t *testing.T) {
		err := svc.SubmitFeedback(ctx, req.ID, "client-1", "Changé d'avis", 1)
		assert.ErrorIs(t, err, ErrFeedbackSubmitted)

		delivered, err := repos.tracking.FindDeliveredStep(ctx, req.ID)
		require.NoError(t, err)
		require.NotNil(t, delivered.Rating)
		assert.Equal(t, 5, *delivered.Rating)
		require.NotNil(t, delivered.Commentaire)
		assert.Equal(t, "Livraison rapide, merci", *delivered.Commentaire)
	})
}

func TestTrackByNumber(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(newTestDB(t))
	svc := NewTrackingService(repos.tracking, repos.request, repos.annonce)
	req, _ := matchedRequest(t, repos, false)

	got, err := svc.TrackByNumber(ctx, req.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, req.TrackingNumber, got.TrackingNumber)
	assert.Equal(t, "Documents administratifs", got.PackageName)
	assert.Equal(t, "Ibrahima Kane", got.RequesterName)
	assert.Equal(t, "12 rue des Almadies", got.DeliveryAddress)
	assert.Equal(t, model.RequestStatusPending, got.Status)
	assert.Len(t, got.Milestones, 6)
	assert.Nil(t, got.DeliveredAt)

	_, err = svc.TrackByNumber(ctx, "GP-DOESNOTX")
	assert.ErrorIs(t, err, ErrNotFound)
}
