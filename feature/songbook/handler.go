package songbook

import (
	"errors"

	"songlib/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for songbooks.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, l *zap.Logger) *Handler {
	return &Handler{service: service, logger: l}
}

// RegisterRoutes registers the songbook routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/songbooks", h.HandleCreate)
	app.Get("/songbooks", h.HandleList)
	app.Get("/songbooks/:id", h.HandleGet)
	app.Put("/songbooks/:id/title", h.HandleRename)
	app.Delete("/songbooks/:id", h.HandleDelete)

	app.Get("/songbooks/:id/songs", h.HandleListSongs)
	app.Post("/songbooks/:id/songs/:songID", h.HandleAddSong)
	app.Delete("/songbooks/:id/songs/:songID", h.HandleRemoveSong)
	app.Put("/songbooks/:id/order", h.HandleReorder)

	app.Delete("/entries/:id", h.HandleRemoveEntry)
}

func userID(c *fiber.Ctx) string {
	return c.Get("X-User-Id")
}

// HandleCreate creates a new songbook for the calling user.
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	uid := userID(c)
	if uid == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing user id",
		})
	}

	var body struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&body); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	sb, err := h.service.Create(c.Context(), uid, body.Title, body.Description)
	if err != nil {
		l.Error("Songbook creation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(sb)
}

// HandleList returns the calling user's songbooks.
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	uid := userID(c)
	if uid == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing user id",
		})
	}

	books, err := h.service.ListByUser(c.Context(), uid)
	if err != nil {
		l.Error("Songbook listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(books)
}

// HandleGet returns one songbook.
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	sb, err := h.service.Get(c.Context(), userID(c), c.Params("id"))
	switch {
	case errors.Is(err, ErrSongbookNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "songbook not found",
		})
	case err != nil:
		l.Error("Songbook lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(sb)
}

// HandleRename changes a songbook's title.
func (h *Handler) HandleRename(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var body struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&body); err != nil || body.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title is required",
		})
	}

	err := h.service.Rename(c.Context(), userID(c), c.Params("id"), body.Title)
	switch {
	case errors.Is(err, ErrSongbookNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "songbook not found",
		})
	case err != nil:
		l.Error("Songbook rename failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDelete removes a songbook and its entries.
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	err := h.service.Delete(c.Context(), userID(c), c.Params("id"))
	switch {
	case errors.Is(err, ErrSongbookNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "songbook not found",
		})
	case err != nil:
		l.Error("Songbook deletion failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListSongs returns the songbook's entries in order.
func (h *Handler) HandleListSongs(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	entries, err := h.service.ListOrdered(c.Context(), c.Params("id"))
	switch {
	case errors.Is(err, ErrSongbookNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "songbook not found",
		})
	case err != nil:
		l.Error("Entry listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(entries)
}

// HandleAddSong appends a song to the songbook.
func (h *Handler) HandleAddSong(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	entry, err := h.service.AddSong(c.Context(), c.Params("id"), c.Params("songID"))
	switch {
	case errors.Is(err, ErrSongbookNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "songbook not found",
		})
	case errors.Is(err, ErrSongNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "song not found",
		})
	case errors.Is(err, ErrDuplicateEntry):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "song already in songbook",
		})
	case err != nil:
		l.Error("Entry creation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// HandleRemoveSong removes a song from the songbook.
func (h *Handler) HandleRemoveSong(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	err := h.service.RemoveSong(c.Context(), c.Params("id"), c.Params("songID"))
	switch {
	case errors.Is(err, ErrEntryNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "entry not found",
		})
	case err != nil:
		l.Error("Entry removal failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRemoveEntry removes one entry by its id.
func (h *Handler) HandleRemoveEntry(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	err := h.service.RemoveEntry(c.Context(), c.Params("id"))
	switch {
	case errors.Is(err, ErrEntryNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "entry not found",
		})
	case err != nil:
		l.Error("Entry removal failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleReorder rewrites the songbook's song order.
func (h *Handler) HandleReorder(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var body struct {
		SongIDs []string `json:"song_ids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	entries, err := h.service.Reorder(c.Context(), c.Params("id"), body.SongIDs)
	switch {
	case errors.Is(err, ErrSongbookNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "songbook not found",
		})
	case err != nil:
		l.Error("Reorder failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(entries)
}
