package overrides

import (
	"errors"
	"fmt"

	"rcconf-manager/core/logger"
	"rcconf-manager/core/rcconf"
	"rcconf-manager/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SetRequest is the body of PUT /overrides/:key.
type SetRequest struct {
	// Value accepts strings, booleans (YES/NO), numbers and lists of words.
	Value any `json:"value"`
}

// Handler handles HTTP requests for overrides.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the overrides routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/overrides")
	group.Get("/", h.HandleList)
	group.Get("/effective", h.HandleEffective)
	group.Get("/:key", h.HandleGet)
	group.Put("/:key", h.HandleSet)
	group.Delete("/:key", h.HandleDelete)
}

// HandleList returns every override.
// @Summary List Overrides
// @Description Returns the rc.conf variables overridden in the database.
// @Tags overrides
// @Produce json
// @Success 200 {array} Override "Overrides"
// @Failure 503 {object} map[string]string "Store unavailable"
// @Router /overrides [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	rows, err := h.service.List(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	if rows == nil {
		rows = []Override{}
	}
	return c.JSON(rows)
}

// HandleEffective returns the defaults with the overrides applied.
// @Summary Effective Configuration
// @Description Returns the mapping the init system will see after generation.
// @Tags overrides
// @Produce json
// @Success 200 {object} map[string]string "Effective values"
// @Router /overrides/effective [get]
func (h *Handler) HandleEffective(c *fiber.Ctx) error {
	doc, err := h.service.Effective(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(doc.Map())
}

// HandleGet returns one override.
// @Summary Get Override
// @Tags overrides
// @Produce json
// @Param key path string true "Variable name"
// @Success 200 {object} Override "Override"
// @Failure 404 {object} map[string]string "Not overridden"
// @Router /overrides/{key} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	row, err := h.service.Get(c.Context(), c.Params("key"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(row)
}

// HandleSet creates or replaces an override.
// @Summary Set Override
// @Description Stores a database value that replaces the default at generation time.
// @Tags overrides
// @Accept json
// @Produce json
// @Param key path string true "Variable name"
// @Param body body SetRequest true "New value"
// @Success 200 {object} Override "Stored override"
// @Failure 400 {object} map[string]string "Invalid key or value"
// @Router /overrides/{key} [put]
func (h *Handler) HandleSet(c *fiber.Ctx) error {
	var req SetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body: " + err.Error()})
	}

	value, err := requestValue(req.Value)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	row, err := h.service.Set(c.Context(), c.Params("key"), value)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(row)
}

// HandleDelete removes an override.
// @Summary Delete Override
// @Tags overrides
// @Param key path string true "Variable name"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Not overridden"
// @Router /overrides/{key} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("key")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, rcconf.ErrInvalidKey), errors.Is(err, rcconf.ErrInvalidValue):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		status = fiber.StatusServiceUnavailable
	default:
		logger.WithRayID(h.service.logger, c).Error("Override request failed", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// requestValue converts a decoded JSON value to its rc.conf form. Only
// scalars and arrays of scalars are accepted.
func requestValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", errors.New("value is required")
	case string, bool, float64:
		return utils.ToString(val), nil
	case []any:
		for i, item := range val {
			switch item.(type) {
			case string, bool, float64:
			default:
				return "", fmt.Errorf("value[%d] must be a string, boolean or number", i)
			}
		}
		return utils.ToString(val), nil
	default:
		return "", errors.New("value must be a string, boolean, number or list of those")
	}
}
