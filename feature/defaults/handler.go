package defaults

import (
	"rcconf-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the shipped defaults.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the defaults routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/defaults")
	group.Get("/", h.HandleList)
	group.Get("/raw", h.HandleRaw)
	group.Get("/:key", h.HandleGet)
}

// HandleList returns every default.
// @Summary List Defaults
// @Description Returns the key/value mapping of the shipped rc.conf.
// @Tags defaults
// @Produce json
// @Success 200 {object} map[string]string "Defaults"
// @Router /defaults [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	return c.JSON(h.service.Values())
}

// HandleRaw returns the shipped file.
// @Summary Raw Defaults
// @Description Returns the shipped rc.conf verbatim.
// @Tags defaults
// @Produce plain
// @Success 200 {string} string "rc.conf"
// @Router /defaults/raw [get]
func (h *Handler) HandleRaw(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(Raw())
}

// HandleGet returns the default of one key.
// @Summary Get Default
// @Description Returns the default value of a single rc.conf variable.
// @Tags defaults
// @Produce json
// @Param key path string true "Variable name (e.g. 'ntpd_enable')"
// @Success 200 {object} map[string]string "Key and value"
// @Failure 404 {object} map[string]string "Unknown key"
// @Router /defaults/{key} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	key := c.Params("key")
	value, ok := h.service.Value(key)
	if !ok {
		logger.WithRayID(h.service.logger, c).Debug("Unknown default requested", zap.String("key", key))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no default for " + key})
	}
	return c.JSON(fiber.Map{"key": key, "value": value})
}
