package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vbharat/go-buddy/pkg/buddy"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus returns the companion's current state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.core.Status())
}

// handlePersonas returns the selectable characters.
func (s *Server) handlePersonas(c *fiber.Ctx) error {
	return c.JSON(buddy.Personas())
}

// SessionStartRequest is the request body for starting a session.
type SessionStartRequest struct {
	Persona string `json:"persona"`
}

// handleSessionStart begins a live session, replacing any running one.
func (s *Server) handleSessionStart(c *fiber.Ctx) error {
	var req SessionStartRequest
	_ = c.BodyParser(&req)

	if err := s.core.StartSession(c.Context(), req.Persona); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.core.Status())
}

// handleSessionStop ends the running session.
func (s *Server) handleSessionStop(c *fiber.Ctx) error {
	if err := s.core.StopSession(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.core.Status())
}

// handleHistory returns the committed conversation turns.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	return c.JSON(s.core.History())
}

// handleClearHistory drops the conversation.
func (s *Server) handleClearHistory(c *fiber.Ctx) error {
	s.core.ClearHistory()
	return c.SendStatus(fiber.StatusNoContent)
}

// handleKnowledgeList returns all knowledge base documents.
func (s *Server) handleKnowledgeList(c *fiber.Ctx) error {
	return c.JSON(s.core.Knowledge().List())
}

// KnowledgeAddRequest is the request body for adding a document.
type KnowledgeAddRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// handleKnowledgeAdd stores a document in the knowledge base.
func (s *Server) handleKnowledgeAdd(c *fiber.Ctx) error {
	var req KnowledgeAddRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Name == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name and content are required",
		})
	}

	doc := s.core.Knowledge().Add(req.Name, req.Content)
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// KnowledgeToggleRequest is the request body for toggling a document.
type KnowledgeToggleRequest struct {
	Active bool `json:"active"`
}

// handleKnowledgeToggle flips whether a document feeds the prompt.
func (s *Server) handleKnowledgeToggle(c *fiber.Ctx) error {
	var req KnowledgeToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if !s.core.Knowledge().Toggle(c.Params("id"), req.Active) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "document not found",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleKnowledgeRemove deletes a document.
func (s *Server) handleKnowledgeRemove(c *fiber.Ctx) error {
	if !s.core.Knowledge().Remove(c.Params("id")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "document not found",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleFiles returns a structured directory listing for the browser.
func (s *Server) handleFiles(c *fiber.Ctx) error {
	path := c.Query("path")
	provider := s.core.Provider()

	entries, err := provider.List(path)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if path == "" {
		path = provider.DesktopPath()
	}
	return c.JSON(fiber.Map{
		"path":    path,
		"parent":  provider.ParentPath(path),
		"entries": entries,
	})
}

// FileCreateRequest is the request body for creating a file or folder.
type FileCreateRequest struct {
	Type string `json:"type"` // "file" or "folder"
	Path string `json:"path"`
}

// handleFileCreate makes a new file or folder for the browser.
func (s *Server) handleFileCreate(c *fiber.Ctx) error {
	var req FileCreateRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type and path are required",
		})
	}

	var (
		result string
		err    error
	)
	switch req.Type {
	case "folder":
		result, err = s.core.Provider().CreateFolder(req.Path)
	case "file":
		result, err = s.core.Provider().CreateFile(req.Path)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type must be \"file\" or \"folder\"",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"result": result})
}

// GenerateRequest is the request body for a local text completion.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// handleGenerate runs a one-shot completion on the local fallback
// model. Used when no cloud key is configured.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "prompt is required",
		})
	}

	text, err := s.core.GenerateLocal(c.Context(), req.Prompt)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"response": text})
}
