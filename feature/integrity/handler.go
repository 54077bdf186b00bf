package integrity

import (
	"errors"

	"rcconf-manager/core/logger"
	"rcconf-manager/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = checks.SchemaReport{}
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/defaults", h.HandleDefaultsCheck)
	group.Get("/database", h.HandleDatabaseCheck)
	group.Get("/storage", h.HandleStorageCheck)
	group.Get("/published", h.HandlePublishedCheck)
}

func skipped(err error) bool {
	return errors.Is(err, ErrStorageDisabled) || errors.Is(err, ErrDatabaseDisabled)
}

func section(err error, ok map[string]interface{}) map[string]interface{} {
	switch {
	case err == nil:
		return ok
	case skipped(err):
		return map[string]interface{}{"status": "skipped", "reason": err.Error()}
	default:
		return map[string]interface{}{"status": "error", "error": err.Error()}
	}
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Defaults, Database, Storage, Published).
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	report := make(map[string]interface{})

	lint, err := h.service.CheckDefaults()
	report["defaults"] = section(err, map[string]interface{}{"status": "ok", "report": lint})

	schema, err := h.service.CheckDatabase()
	report["database"] = section(err, map[string]interface{}{"status": "ok", "report": schema})

	missing, err := h.service.CheckStorage(ctx)
	report["storage"] = section(err, map[string]interface{}{"status": "ok", "missing": missing})

	unpublished, err := h.service.CheckPublished(ctx)
	report["published"] = section(err, map[string]interface{}{"status": "ok", "missing": unpublished})

	return c.JSON(report)
}

// HandleDefaultsCheck lints the shipped defaults.
// @Summary Check Defaults
// @Description Verifies the embedded rc.conf: syntax, documented keys, quoting and round trip.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.LintReport "Lint Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/defaults [get]
func (h *Handler) HandleDefaultsCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckDefaults()
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Defaults check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleDatabaseCheck checks the override table schema.
// @Summary Check Database Schema
// @Description Checks if the override table matches the expected model.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 503 {object} map[string]string "Database not connected"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/database [get]
func (h *Handler) HandleDatabaseCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting database schema check")

	report, err := h.service.CheckDatabase()
	if err != nil {
		return h.fail(c, "Database schema check failed", err)
	}
	return c.JSON(report)
}

// HandleStorageCheck checks and optionally fixes the bucket layout.
// @Summary Check Storage
// @Description Checks if the required folders exist in the storage bucket. Optionally fixes missing folders.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Fix missing folders"
// @Success 200 {object} map[string]interface{} "Storage Report"
// @Failure 503 {object} map[string]string "Storage not enabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/storage [get]
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	missing, err := h.service.CheckStorage(c.Context())
	if err != nil {
		return h.fail(c, "Storage check failed", err)
	}

	if len(missing) > 0 {
		l.Warn("Missing folders detected", zap.Strings("missing", missing))

		if fix {
			l.Info("Attempting to fix missing folders")
			if err := h.service.FixStorage(c.Context(), missing); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to fix storage",
					"details": err.Error(),
					"missing": missing,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  missing,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandlePublishedCheck checks that every managed file has a published copy.
// @Summary Check Published Files
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Published Report"
// @Failure 503 {object} map[string]string "Storage not enabled"
// @Router /integrity/published [get]
func (h *Handler) HandlePublishedCheck(c *fiber.Ctx) error {
	missing, err := h.service.CheckPublished(c.Context())
	if err != nil {
		return h.fail(c, "Published check failed", err)
	}
	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	if skipped(err) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.service.logger, c).Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
