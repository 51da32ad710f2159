package library

import (
	"errors"

	"songlib/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the library.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, l *zap.Logger) *Handler {
	return &Handler{service: service, logger: l}
}

// RegisterRoutes registers the library routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/library/scan", h.HandleScan)
	group := app.Group("/songs")
	group.Get("/", h.HandleListSongs)
	group.Get("/:id", h.HandleGetSong)
}

// HandleScan triggers a full manual resync of the content tree.
func (h *Handler) HandleScan(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	summary, err := h.service.RunScan(c.Context())
	if errors.Is(err, ErrScanInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		l.Error("Library scan failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(summary)
}

// HandleListSongs returns all catalog songs.
func (h *Handler) HandleListSongs(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	songs, err := h.service.ListSongs(c.Context())
	if err != nil {
		l.Error("Song listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(songs)
}

// HandleGetSong returns one catalog song.
func (h *Handler) HandleGetSong(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	song, err := h.service.GetSong(c.Context(), c.Params("id"))
	if errors.Is(err, ErrSongNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "song not found",
		})
	}
	if err != nil {
		l.Error("Song lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(song)
}
