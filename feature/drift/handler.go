package drift

import (
	"rcconf-manager/core/logger"
	"rcconf-manager/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for drift reports.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the drift routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/drift")
	group.Get("/", h.HandleReport)
	group.Post("/apply", h.HandleApply)
	group.Get("/:key", h.HandleKey)
}

// HandleReport reconciles defaults, overrides and the published file.
// @Summary Drift Report
// @Description Compares the shipped defaults, the database overrides and the published rc.conf.
// @Tags drift
// @Produce json
// @Success 200 {object} reconcile.Plan "Drift report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /drift [get]
func (h *Handler) HandleReport(c *fiber.Ctx) error {
	plan, err := h.service.Report(c.Context())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Drift report failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(plan)
}

// HandleKey reconciles one variable.
// @Summary Drift For Key
// @Tags drift
// @Produce json
// @Param key path string true "Variable name"
// @Success 200 {object} reconcile.Result "Result"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /drift/{key} [get]
func (h *Handler) HandleKey(c *fiber.Ctx) error {
	result, err := h.service.Key(c.Context(), c.Params("key"))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Drift check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// HandleApply plans and executes reconcile actions.
// @Summary Apply Reconcile
// @Description Prunes overrides equal to their default and regenerates a drifted rc.conf.
// @Tags drift
// @Produce json
// @Param prune query boolean false "Delete overrides equal to their default"
// @Param publish query boolean false "Regenerate the file when it drifted"
// @Param dry_run query boolean false "Plan only"
// @Success 200 {object} map[string]interface{} "Plan and executed count"
// @Failure 500 {object} map[string]interface{} "Internal Server Error"
// @Router /drift/apply [post]
func (h *Handler) HandleApply(c *fiber.Ctx) error {
	opts := reconcile.Options{
		DoPrune:   c.QueryBool("prune"),
		DoPublish: c.QueryBool("publish"),
		DryRun:    c.QueryBool("dry_run"),
		Confirmed: true,
	}

	plan, executed, err := h.service.Apply(c.Context(), opts)
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Reconcile failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":    err.Error(),
			"plan":     plan,
			"executed": executed,
		})
	}
	return c.JSON(fiber.Map{"plan": plan, "executed": executed})
}
