// Package web provides the control API and real-time dashboard feed
// for the desktop companion.
package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbharat/go-buddy/pkg/buddy"
	"github.com/vbharat/go-buddy/pkg/hub"
	"github.com/vbharat/go-buddy/pkg/live"
)

// transcriptFrame is one message on the transcript websocket. Partials
// stream as they form; turns arrive once, when committed.
type transcriptFrame struct {
	Kind    string     `json:"kind"` // "partial" or "turn"
	Speaker string     `json:"speaker,omitempty"`
	Text    string     `json:"text,omitempty"`
	Turn    *live.Turn `json:"turn,omitempty"`
}

// Server is the HTTP/websocket control surface.
type Server struct {
	app  *fiber.App
	core *buddy.App
	port string

	// Hubs for websocket broadcast
	transcriptHub *hub.Hub
	statusHub     *hub.Hub
}

// NewServer creates the server and subscribes it to the companion's
// callbacks so dashboard clients see turns and status changes live.
func NewServer(core *buddy.App, port string) *Server {
	s := &Server{
		core:          core,
		port:          port,
		transcriptHub: hub.New("transcript"),
		statusHub:     hub.New("status"),
	}

	core.OnTurn = func(turn live.Turn) {
		_ = s.transcriptHub.BroadcastJSON(transcriptFrame{Kind: "turn", Turn: &turn})
	}
	core.OnPartial = func(speaker live.Speaker, text string) {
		_ = s.transcriptHub.BroadcastJSON(transcriptFrame{
			Kind:    "partial",
			Speaker: string(speaker),
			Text:    text,
		})
	}
	core.OnStatus = func(status buddy.Status) {
		_ = s.statusHub.BroadcastJSON(status)
	}

	app := fiber.New(fiber.Config{
		AppName:               "Buddy Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	app.Get("/healthz", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/personas", s.handlePersonas)
	api.Post("/session/start", s.handleSessionStart)
	api.Post("/session/stop", s.handleSessionStop)
	api.Get("/history", s.handleHistory)
	api.Delete("/history", s.handleClearHistory)
	api.Get("/knowledge", s.handleKnowledgeList)
	api.Post("/knowledge", s.handleKnowledgeAdd)
	api.Patch("/knowledge/:id", s.handleKnowledgeToggle)
	api.Delete("/knowledge/:id", s.handleKnowledgeRemove)
	api.Get("/files", s.handleFiles)
	api.Post("/files", s.handleFileCreate)
	api.Post("/generate", s.handleGenerate)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/transcript", websocket.New(s.handleTranscriptWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	go s.transcriptHub.Run()
	go s.statusHub.Run()

	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleTranscriptWS streams partials and committed turns. Recent
// history is replayed on connect so a fresh dashboard is not blank.
func (s *Server) handleTranscriptWS(c *websocket.Conn) {
	for _, turn := range s.core.History() {
		t := turn
		data, err := json.Marshal(transcriptFrame{Kind: "turn", Turn: &t})
		if err != nil {
			continue
		}
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	client := hub.NewClient(s.transcriptHub, c)
	client.Run()
}

// handleStatusWS streams status snapshots, current state first.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	data, err := json.Marshal(s.core.Status())
	if err == nil {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	client := hub.NewClient(s.statusHub, c)
	client.Run()
}
