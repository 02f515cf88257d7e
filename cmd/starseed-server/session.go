package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/daniacca/starseed/internal/rules"
	"github.com/daniacca/starseed/internal/scan"
	"github.com/daniacca/starseed/internal/worldgen"
)

const writeTimeout = 10 * time.Second

// Incoming session message types.
const (
	msgGenerate = "Generate"
	msgFind     = "Find"
	msgStop     = "Stop"
)

// Outgoing session message types. Found, Progress and Done are scan events.
const (
	msgGalaxy = "Galaxy"
	msgError  = "Error"
)

type incomingMessage struct {
	Type        string            `json:"type"`
	Game        worldgen.GameDesc `json:"game"`
	Rule        rules.Definition  `json:"rule"`
	Range       [2]int32          `json:"range"`
	Concurrency int               `json:"concurrency"`
	ProfileID   string            `json:"profileId,omitempty"`
}

type galaxyMessage struct {
	Type   string           `json:"type"`
	Galaxy *worldgen.Galaxy `json:"galaxy"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// session is one /ws connection. It runs at most one scan at a time.
type session struct {
	ctx     context.Context
	server  *Server
	conn    *websocket.Conn
	limiter *rate.Limiter

	writeMu sync.Mutex

	mu       sync.Mutex
	scanID   string
	scanning bool
}

// GET /ws
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	sess := &session{ctx: r.Context(), server: s, conn: conn}
	if s.rateLimit > 0 {
		burst := max(int(math.Ceil(s.rateLimit)), 1)
		sess.limiter = rate.NewLimiter(rate.Limit(s.rateLimit), burst)
	}

	s.logger.Debugf("Session opened: remote=%s", r.RemoteAddr)
	sess.serve()
	s.logger.Debugf("Session closed: remote=%s", r.RemoteAddr)
}

func (c *session) serve() {
	defer c.conn.Close()
	defer c.stopScan()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if len(data) == 0 {
			continue
		}
		if c.limiter != nil && !c.limiter.Allow() {
			c.sendError("rate limit exceeded")
			continue
		}

		msg := incomingMessage{Game: worldgen.NewGameDesc(0), Concurrency: c.server.maxConcurrency}
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid message: " + err.Error())
			continue
		}

		switch msg.Type {
		case msgGenerate:
			go c.generate(msg.Game)
		case msgFind:
			if err := c.find(msg); err != nil {
				c.sendError(err.Error())
			}
		case msgStop:
			c.stopScan()
		default:
			c.sendError(fmt.Sprintf("unknown message type %q", msg.Type))
		}
	}
}

func (c *session) generate(desc worldgen.GameDesc) {
	galaxy, err := worldgen.CreateGalaxy(desc, c.server.catalog)
	if err != nil {
		c.sendError("cannot generate galaxy: " + err.Error())
		return
	}
	if err := c.write(galaxyMessage{Type: msgGalaxy, Galaxy: galaxy}); err != nil {
		c.server.logger.Debugf("cannot send galaxy: %v", err)
	}
}

// find starts a scan streaming its events to this connection. With a
// profile id the profile's stored range is resumed instead.
func (c *session) find(msg incomingMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scanning {
		if info, ok := c.server.manager.Get(c.scanID); ok && info.State == scan.StateRunning {
			return scan.ErrScanRunning
		}
	}

	// The client may start the next scan as soon as it has read Done.
	sink := func(ev scan.Event) error {
		if ev.Type == scan.EventDone {
			c.mu.Lock()
			c.scanning = false
			c.mu.Unlock()
		}
		return c.write(ev)
	}

	var (
		info scan.Info
		err  error
	)
	if msg.ProfileID != "" {
		info, err = c.server.manager.RunProfile(c.ctx, msg.ProfileID, msg.Concurrency, sink)
	} else {
		info, err = c.server.manager.Start(scan.Request{
			Game:        msg.Game,
			Rule:        msg.Rule,
			Start:       msg.Range[0],
			End:         msg.Range[1],
			Concurrency: msg.Concurrency,
		}, sink)
	}
	if err != nil {
		return err
	}
	c.scanID = info.ID
	c.scanning = true
	return nil
}

func (c *session) stopScan() {
	c.mu.Lock()
	id := c.scanID
	c.mu.Unlock()
	if id != "" {
		_ = c.server.manager.Stop(id)
	}
}

// write sends one JSON message. Writes to the connection are serialized.
func (c *session) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *session) sendError(message string) {
	if err := c.write(errorMessage{Type: msgError, Message: message}); err != nil {
		c.server.logger.Debugf("cannot send error: %v", err)
	}
}
