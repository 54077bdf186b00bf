package generate

import (
	"errors"

	"rcconf-manager/core/logger"
	"rcconf-manager/core/rcconf"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for file generation.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the generation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/generate")
	group.Post("/", h.HandleGenerateAll)
	group.Post("/rescan", h.HandleRescan)
	group.Get("/files", h.HandleManagedFiles)
	group.Get("/files/*", h.HandleRender)
	group.Post("/files/*", h.HandleGenerateFile)
}

// HandleManagedFiles lists the managed files.
// @Summary List Managed Files
// @Description Lists the files generated under the /etc mount point and their templates.
// @Tags generate
// @Produce json
// @Success 200 {array} Template "Managed files"
// @Router /generate/files [get]
func (h *Handler) HandleManagedFiles(c *fiber.Ctx) error {
	return c.JSON(h.service.ManagedFiles())
}

// HandleRescan rescans the plugin directories.
// @Summary Rescan Plugins
// @Tags generate
// @Produce json
// @Success 200 {array} Template "Managed files"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /generate/rescan [post]
func (h *Handler) HandleRescan(c *fiber.Ctx) error {
	if err := h.service.Rescan(); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.service.ManagedFiles())
}

// HandleRender previews a managed file without writing it.
// @Summary Render File
// @Description Renders a managed file with the current overrides.
// @Tags generate
// @Produce plain
// @Param name path string true "Managed file (e.g. 'rc.conf')"
// @Success 200 {string} string "Rendered content"
// @Failure 404 {object} map[string]string "Not managed"
// @Router /generate/files/{name} [get]
func (h *Handler) HandleRender(c *fiber.Ctx) error {
	name := c.Params("*")
	if name == "" {
		return h.HandleManagedFiles(c)
	}

	data, err := h.service.Render(c.Context(), name)
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(data)
}

// HandleGenerateFile writes one managed file.
// @Summary Generate File
// @Tags generate
// @Produce json
// @Param name path string true "Managed file (e.g. 'rc.conf')"
// @Success 200 {object} Generated "Generated file"
// @Failure 404 {object} map[string]string "Not managed"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /generate/files/{name} [post]
func (h *Handler) HandleGenerateFile(c *fiber.Ctx) error {
	res, err := h.service.GenerateFile(c.Context(), c.Params("*"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleGenerateAll writes every managed file.
// @Summary Generate All
// @Description Generates every managed file. Files that fail are reported in "errors".
// @Tags generate
// @Produce json
// @Success 200 {object} map[string]interface{} "Generated files"
// @Failure 500 {object} map[string]interface{} "Some files failed"
// @Router /generate [post]
func (h *Handler) HandleGenerateAll(c *fiber.Ctx) error {
	results, err := h.service.GenerateAll(c.Context())
	if results == nil {
		results = []Generated{}
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"generated": results,
			"error":     err.Error(),
		})
	}
	return c.JSON(fiber.Map{"generated": results})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var syntaxErr *rcconf.SyntaxError
	switch {
	case errors.Is(err, ErrNoSuchFile):
		status = fiber.StatusNotFound
	case errors.As(err, &syntaxErr):
		status = fiber.StatusUnprocessableEntity
	default:
		logger.WithRayID(h.service.logger, c).Error("Generation request failed", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
