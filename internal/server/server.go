package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gpexpress/backend/internal/config"
	"github.com/gpexpress/backend/internal/handler"
	appmw "github.com/gpexpress/backend/internal/middleware"
	"github.com/gpexpress/backend/internal/realtime"
	"github.com/gpexpress/backend/internal/repository"
	"github.com/gpexpress/backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	e            *echo.Echo
	requestRepo  repository.RequestRepository
	annonceRepo  repository.AnnonceRepository
	chatRepo     repository.ChatRepository
	trackingRepo repository.TrackingRepository
}

func New(db *gorm.DB, broker *realtime.Broker, cfg *config.Config, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			return strings.HasSuffix(u.Hostname(), "gpexpress.app"), nil
		},
	}))

	requestRepo := repository.NewRequestRepository(db)
	annonceRepo := repository.NewAnnonceRepository(db)
	chatRepo := repository.NewChatRepository(db)
	trackingRepo := repository.NewTrackingRepository(db)

	requestSvc := service.NewRequestService(requestRepo, annonceRepo, chatRepo, broker, log)
	matchingSvc := service.NewMatchingService(annonceRepo)
	chatSvc := service.NewChatService(chatRepo, requestRepo, annonceRepo, log)
	messageSvc := service.NewMessageService(chatRepo, requestRepo, broker, log)
	trackingSvc := service.NewTrackingService(trackingRepo, requestRepo, annonceRepo)

	requestHandler := handler.NewRequestHandler(requestSvc)
	annonceHandler := handler.NewAnnonceHandler(matchingSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	messageHandler := handler.NewMessageHandler(messageSvc, broker)
	trackingHandler := handler.NewTrackingHandler(trackingSvc)

	var authMw *appmw.AuthMiddleware
	if cfg != nil && cfg.FirebaseProjectID != "" {
		mw, err := appmw.NewAuthMiddleware(context.Background(), cfg.FirebaseProjectID)
		if err != nil {
			e.Logger.Fatalf("failed to init firebase auth: %v", err)
		}
		authMw = mw
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api")
	// Tracking-number lookup is deliberately outside the auth guard.
	api.GET("/track/:number", trackingHandler.TrackPublic)

	authed := []struct {
		method string
		path   string
		fn     echo.HandlerFunc
	}{
		{http.MethodPost, "/requests", requestHandler.Create},
		{http.MethodGet, "/requests/:id", requestHandler.Get},
		{http.MethodGet, "/me/requests", requestHandler.ListMine},
		{http.MethodPost, "/requests/:id/accept", requestHandler.Accept},
		{http.MethodPost, "/requests/:id/refuse", requestHandler.Refuse},
		{http.MethodGet, "/requests/:id/steps", trackingHandler.ListSteps},
		{http.MethodPost, "/requests/:id/steps", trackingHandler.RecordStep},
		{http.MethodPost, "/requests/:id/feedback", trackingHandler.SubmitFeedback},
		{http.MethodGet, "/annonces", annonceHandler.Search},
		{http.MethodPost, "/requests/:id/contact", chatHandler.Contact},
		{http.MethodGet, "/chats", chatHandler.List},
		{http.MethodGet, "/chats/:id", chatHandler.Get},
		{http.MethodDelete, "/chats/:id", chatHandler.Delete},
		{http.MethodGet, "/chats/:id/messages", messageHandler.List},
		{http.MethodPost, "/chats/:id/messages", messageHandler.Create},
		{http.MethodGet, "/chats/:id/stream", messageHandler.Stream},
	}
	for _, r := range authed {
		if authMw != nil {
			api.Add(r.method, r.path, r.fn, authMw.RequireAuth)
		} else {
			api.Add(r.method, r.path, r.fn)
		}
	}

	return &Server{
		e:            e,
		requestRepo:  requestRepo,
		annonceRepo:  annonceRepo,
		chatRepo:     chatRepo,
		trackingRepo: trackingRepo,
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// SetDB injects the database once it is reachable; until then repositories
// answer with ErrDBNotReady.
func (s *Server) SetDB(db *gorm.DB) {
	s.requestRepo.SetDB(db)
	s.annonceRepo.SetDB(db)
	s.chatRepo.SetDB(db)
	s.trackingRepo.SetDB(db)
}
