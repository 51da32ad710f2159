package press

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	enabled bool
}

// NewFeature creates the press feature around an existing service.
func NewFeature(service *Service, enabled bool, logger *zap.Logger) *Feature {
	return &Feature{
		service: service,
		handler: NewHandler(service, logger),
		enabled: enabled,
	}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "press"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
