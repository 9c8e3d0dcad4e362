package service

import (
	"context"
	"testing"

	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&model.DeliveryRequest{},
		&model.Annonce{},
		&model.Chat{},
		&model.ChatMessage{},
		&model.LivraisonEtape{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

type testRepos struct {
	request  repository.RequestRepository
	annonce  repository.AnnonceRepository
	chat     repository.ChatRepository
	tracking repository.TrackingRepository
}

func newTestRepos(db *gorm.DB) testRepos {
	return testRepos{
		request:  repository.NewRequestRepository(db),
		annonce:  repository.NewAnnonceRepository(db),
		chat:     repository.NewChatRepository(db),
		tracking: repository.NewTrackingRepository(db),
	}
}

func seedAnnonce(t *testing.T, repos testRepos, gpUID, origin, destination, date string) *model.Annonce {
	t.Helper()
	a := &model.Annonce{
		UserID:          gpUID,
		FullName:        "Awa Gueye",
		OriginCity:      origin,
		DestinationCity: destination,
		DepartureDate:   date,
	}
	require.NoError(t, repos.annonce.Create(context.Background(), a))
	return a
}

func seedRequest(t *testing.T, repos testRepos, clientUID string) *model.DeliveryRequest {
	t.Helper()
	svc := NewRequestService(repos.request, repos.annonce, repos.chat, nil, zap.NewNop())
	req, err := svc.Create(context.Background(), clientUID, CreateRequestInput{
		PackageName:     "Documents administratifs",
		RequesterName:   "Ibrahima Kane",
		DepartureDate:   "2024-05-01",
		OriginCity:      "Paris",
		DestinationCity: "Dakar",
		DeliveryAddress: "12 rue des Almadies",
	})
	require.NoError(t, err)
	return req
}
