package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/daniacca/starseed/internal/rules"
	"github.com/daniacca/starseed/internal/scan"
	"github.com/daniacca/starseed/internal/scan/notifiers"
	"github.com/daniacca/starseed/internal/store"
	"github.com/daniacca/starseed/internal/worldgen"
)

// splitID extracts the id from a path like "/{prefix}/{id}/..." and returns
// it with the remaining path.
func splitID(path, prefix string) (string, string) {
	if !strings.HasPrefix(path, prefix) {
		return "", ""
	}
	rest := path[len(prefix):]
	idx := strings.Index(rest, "/")
	if idx == -1 {
		return rest, ""
	}
	return rest[:idx], rest[idx:]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrProfileNotFound), errors.Is(err, scan.ErrScanNotFound):
		return http.StatusNotFound
	case errors.Is(err, scan.ErrScanRunning), errors.Is(err, scan.ErrProfileComplete):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /galaxy
// Body: GameDesc JSON
func (s *Server) handleGalaxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var desc worldgen.GameDesc
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	galaxy, err := worldgen.CreateGalaxy(desc, s.catalog)
	if err != nil {
		http.Error(w, "cannot generate galaxy: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Debugf("Galaxy generated: seed=%d stars=%d", desc.Seed, len(galaxy.Stars))
	writeJSON(w, http.StatusOK, galaxy)
}

// POST /find
// Body: { "game": GameDesc, "rule": Definition }
type findRequest struct {
	Game worldgen.GameDesc `json:"game"`
	Rule rules.Definition  `json:"rule"`
}

type findResponse struct {
	Seed    int32 `json:"seed"`
	Indexes []int `json:"indexes"`
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	req := findRequest{Game: worldgen.NewGameDesc(0)}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	rule, err := rules.Compile(req.Rule)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	indexes, err := rules.FindStarsForDesc(req.Game, s.catalog, rule)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if indexes == nil {
		indexes = []int{}
	}
	writeJSON(w, http.StatusOK, findResponse{Seed: req.Game.Seed, Indexes: indexes})
}

// handleProfileRoutes routes /profiles and /profiles/{id}/...
func (s *Server) handleProfileRoutes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/profiles" || r.URL.Path == "/profiles/" {
		switch r.Method {
		case http.MethodGet:
			s.handleListProfiles(w, r)
		case http.MethodPost:
			s.handleCreateProfile(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, remainingPath := splitID(r.URL.Path, "/profiles/")
	if id == "" {
		http.Error(w, "profile ID is required in path: /profiles/{id}/...", http.StatusBadRequest)
		return
	}

	switch {
	case remainingPath == "" && r.Method == http.MethodGet:
		s.handleGetProfile(w, r, id)
	case remainingPath == "" && r.Method == http.MethodDelete:
		s.handleDeleteProfile(w, r, id)
	case remainingPath == "/matches" && r.Method == http.MethodGet:
		s.handleListMatches(w, r, id)
	case remainingPath == "/run" && r.Method == http.MethodPost:
		s.handleRunProfile(w, r, id)
	case remainingPath == "/stop" && r.Method == http.MethodPost:
		s.handleStopProfile(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /profiles
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.ListProfiles(r.Context())
	if err != nil {
		http.Error(w, "cannot list profiles: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// POST /profiles
// Body: { "name": "...", "game": GameDesc, "rule": Definition, "range": [start, end] }
type createProfileRequest struct {
	Name  string            `json:"name"`
	Game  worldgen.GameDesc `json:"game"`
	Rule  rules.Definition  `json:"rule"`
	Range [2]int32          `json:"range"`
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	req := createProfileRequest{Game: worldgen.NewGameDesc(0)}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.store.CreateProfile(r.Context(), store.Profile{
		Name:       req.Name,
		Game:       req.Game,
		Rule:       req.Rule,
		RangeStart: req.Range[0],
		RangeEnd:   req.Range[1],
	})
	if err != nil {
		http.Error(w, "cannot create profile: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("Profile created: id=%s name=%s range=[%d, %d]", p.ID, p.Name, p.RangeStart, p.RangeEnd)
	writeJSON(w, http.StatusCreated, p)
}

// GET /profiles/{id}
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, id string) {
	p, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DELETE /profiles/{id}
// A running scan of the profile is stopped first.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.manager.StopProfile(id); err != nil && !errors.Is(err, scan.ErrScanNotFound) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.store.DeleteProfile(r.Context(), id); err != nil {
		s.logger.Warnf("Failed to delete profile: id=%s error=%v", id, err)
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	s.logger.Infof("Profile deleted: id=%s", id)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("profile deleted"))
}

// GET /profiles/{id}/matches
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request, id string) {
	matches, err := s.store.ListMatches(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

// concurrencyParam reads the optional "concurrency" query parameter.
func (s *Server) concurrencyParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("concurrency")
	if v == "" {
		return s.maxConcurrency, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.New("invalid concurrency: must be a positive integer")
	}
	return n, nil
}

// POST /profiles/{id}/run
// Resumes the profile from its watermark. Query param: concurrency.
func (s *Server) handleRunProfile(w http.ResponseWriter, r *http.Request, id string) {
	concurrency, err := s.concurrencyParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	info, err := s.manager.RunProfile(r.Context(), id, concurrency, nil)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusAccepted, info)
}

// POST /profiles/{id}/stop
func (s *Server) handleStopProfile(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.manager.StopProfile(id); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("scan stopping"))
}

// handleScanRoutes routes /scans and /scans/{id}/...
func (s *Server) handleScanRoutes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/scans" || r.URL.Path == "/scans/" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"scans": s.manager.List()})
		case http.MethodPost:
			s.handleStartScan(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, remainingPath := splitID(r.URL.Path, "/scans/")
	switch {
	case remainingPath == "" && r.Method == http.MethodGet:
		info, ok := s.manager.Get(id)
		if !ok {
			http.Error(w, scan.ErrScanNotFound.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, info)
	case remainingPath == "/stop" && r.Method == http.MethodPost:
		if err := s.manager.Stop(id); err != nil {
			http.Error(w, err.Error(), errorStatus(err))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("scan stopping"))
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// POST /scans
// Body: { "game": GameDesc, "rule": Definition, "range": [start, end], "concurrency": n }
// Events are published to the notifiers only.
type startScanRequest struct {
	Game        worldgen.GameDesc `json:"game"`
	Rule        rules.Definition  `json:"rule"`
	Range       [2]int32          `json:"range"`
	Concurrency int               `json:"concurrency"`
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	req := startScanRequest{Game: worldgen.NewGameDesc(0), Concurrency: s.maxConcurrency}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	info, err := s.manager.Start(scan.Request{
		Game:        req.Game,
		Rule:        req.Rule,
		Start:       req.Range[0],
		End:         req.Range[1],
		Concurrency: req.Concurrency,
	}, nil)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusAccepted, info)
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"notifiers": s.dispatcher.List()})
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// POST /notifiers
// Body: { "type": "webhook", "id": "my-webhook", "config": { "url": "http://...", "headers": {...} } }
type registerNotifierRequest struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Config struct {
		URL     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier scan.Notifier
	switch req.Type {
	case "webhook":
		if req.Config.URL == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		notifier = notifiers.NewWebhookNotifier(req.ID, req.Config.URL, req.Config.Headers)
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.dispatcher.Register(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("Notifier registered: id=%s type=%s", req.ID, req.Type)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	notifierID := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}
	if notifierID == eventsNotifierID {
		http.Error(w, "notifier "+eventsNotifierID+" is built in", http.StatusBadRequest)
		return
	}
	if err := s.dispatcher.Unregister(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}
