package main

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/daniacca/starseed/internal/scan"
	"github.com/daniacca/starseed/internal/scan/notifiers"
	"github.com/daniacca/starseed/internal/store"
	"github.com/daniacca/starseed/internal/worldgen"
)

// eventsNotifierID names the built-in WebSocket notifier behind /events.
const eventsNotifierID = "events"

// Server represents the HTTP server for starseed
type Server struct {
	manager    *scan.Manager
	dispatcher *scan.Dispatcher
	events     *notifiers.WebSocketNotifier
	store      store.Store
	catalog    *worldgen.Catalog
	logger     *Logger

	maxConcurrency int
	rateLimit      float64
	corsOrigins    []string
	upgrader       websocket.Upgrader
}

// NewServer creates a new server instance. The server owns the scan
// manager and the dispatcher; the caller keeps ownership of st.
func NewServer(cfg ServerConfig, st store.Store, catalog *worldgen.Catalog, logger *Logger) *Server {
	dispatcher := scan.NewDispatcher(4, logger)
	checkOrigin := originChecker(cfg.CORSOrigins)
	events := notifiers.NewWebSocketNotifier(eventsNotifierID)
	events.SetCheckOrigin(checkOrigin)
	if err := dispatcher.Register(events); err != nil {
		logger.Errorf("cannot register events notifier: %v", err)
	}

	return &Server{
		manager: scan.NewManager(scan.ManagerOptions{
			Store:          st,
			Dispatcher:     dispatcher,
			Catalog:        catalog,
			Logger:         logger,
			MaxConcurrency: cfg.MaxConcurrency,
		}),
		dispatcher:     dispatcher,
		events:         events,
		store:          st,
		catalog:        catalog,
		logger:         logger,
		maxConcurrency: max(cfg.MaxConcurrency, 1),
		rateLimit:      cfg.RateLimit,
		corsOrigins:    cfg.CORSOrigins,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// originChecker accepts WebSocket handshakes from the configured CORS
// origins. Requests without an Origin header and same-host requests are
// always accepted; "*" accepts everything.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Handler returns the routed HTTP handler wrapped with CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/galaxy", s.handleGalaxy)
	mux.HandleFunc("/find", s.handleFind)
	mux.HandleFunc("/profiles", s.handleProfileRoutes)
	mux.HandleFunc("/profiles/", s.handleProfileRoutes)
	mux.HandleFunc("/scans", s.handleScanRoutes)
	mux.HandleFunc("/scans/", s.handleScanRoutes)
	mux.HandleFunc("/notifiers", s.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", s.handleNotifiersRoutes)
	mux.Handle("/events", s.events)
	mux.HandleFunc("/ws", s.handleSession)

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(mux)
}

// Close stops every scan and closes the notifiers.
func (s *Server) Close() error {
	s.manager.Close()
	return s.dispatcher.Close()
}
