package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/parassareen1/relay-chat/internal/broker"
	"github.com/parassareen1/relay-chat/internal/config"
	"github.com/parassareen1/relay-chat/internal/notify"
	"github.com/parassareen1/relay-chat/internal/store"
)

type RelayApp struct {
	log            *log.Logger
	mux            *http.Server
	broker         *broker.Broker
	store          store.RoomStore
	notifier       notify.Notifier
	adminKey       string
	allowedOrigins []string
}

func NewRelayApp(mux *http.ServeMux, logger *log.Logger, b *broker.Broker, rs store.RoomStore, notifier notify.Notifier, cfg *config.Config) *RelayApp {
	s := &RelayApp{
		log:            logger,
		broker:         b,
		store:          rs,
		notifier:       notifier,
		adminKey:       cfg.AdminKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /healthz", s.health)
	mux.Handle("GET /api/rooms", s.adminMiddleware(s.getRooms))
	mux.Handle("DELETE /api/rooms", s.adminMiddleware(s.deleteRoom))
	mux.Handle("PUT /api/rooms/status", s.adminMiddleware(s.setRoomStatus))
	mux.Handle("PUT /api/rooms/priority", s.adminMiddleware(s.setRoomPriority))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "admin-key"}),
		handlers.AllowCredentials(),
	)(mux)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *RelayApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *RelayApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
