package songbook

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the songbook feature.
func NewFeature(db *gorm.DB, logger *zap.Logger) *Feature {
	service := NewService(db, logger)
	return &Feature{
		service: service,
		handler: NewHandler(service, logger),
	}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "songbook"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
