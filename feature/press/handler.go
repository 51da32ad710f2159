package press

import (
	"errors"

	"songlib/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for rendered scores.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, l *zap.Logger) *Handler {
	return &Handler{service: service, logger: l}
}

// RegisterRoutes registers the score routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/songs/:id/score", h.HandleGetScore)
	app.Post("/songs/:id/score/rebuild", h.HandleRebuild)
}

// HandleGetScore streams the rendered artifact for a song.
func (h *Handler) HandleGetScore(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	path, err := h.service.ScorePath(c.Context(), c.Params("id"))
	switch {
	case errors.Is(err, ErrUnknownSong):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "song not found",
		})
	case errors.Is(err, ErrNoScore):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "song has no typeset source",
		})
	case errors.Is(err, ErrScoreNotReady):
		// The render was queued; the client retries.
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "score not yet available",
		})
	case err != nil:
		l.Error("Score lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendFile(path)
}

// HandleRebuild force-renders one song's artifact.
func (h *Handler) HandleRebuild(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	path, err := h.service.Rebuild(c.Context(), c.Params("id"))
	switch {
	case errors.Is(err, ErrUnknownSong):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "song not found",
		})
	case errors.Is(err, ErrNoScore):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "song has no typeset source",
		})
	case err != nil:
		l.Error("Forced score rebuild failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"artifact": path})
}
