package delivery

import (
	"bufio"
	"strings"

	"mdpva/config"
	"mdpva/domain"
	"mdpva/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type exportHandler struct {
	uc      domain.ExportUseCase
	limiter domain.RateLimiter
}

func NewExportHandler(app *fiber.App, uc domain.ExportUseCase, limiter domain.RateLimiter) {
	handler := &exportHandler{
		uc:      uc,
		limiter: limiter,
	}

	route := app.Group("/members")
	route.Get("/export", middleware.AuthRequired(), middleware.RoleRequired("admin", "staff"), handler.Export)
}

// clientIP prefers the first X-Forwarded-For hop so the limiter keys on the
// caller, not the reverse proxy.
func clientIP(c *fiber.Ctx) string {
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return c.IP()
}

func (eh *exportHandler) Export(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	if !eh.limiter.Allow("export:" + clientIP(c)) {
		config.PrintLogInfo(&userToken.Username, fiber.StatusTooManyRequests, "Export")
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"error":   "Too many export requests. Please wait a minute.",
			"message": "Too many export requests. Please wait a minute.",
		})
	}

	req := domain.ExportRequest{
		Scope:   domain.ExportScope(c.Query("scope", string(domain.ScopeCurrent))),
		Format:  domain.ExportFormat(c.Query("format", string(domain.FormatCSV))),
		Search:  c.Query("q"),
		Filter:  c.Query("filter", "all"),
		Sort:    c.Query("sort", "created_desc"),
		Columns: domain.ColumnsMode(c.Query("columns", string(domain.ColumnsDefault))),
	}

	if req.Scope != domain.ScopeCurrent && req.Scope != domain.ScopeAll {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "Export")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid scope",
			"message": "Scope must be current or all",
		})
	}
	if req.Format != domain.FormatCSV && req.Format != domain.FormatPDF {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "Export")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid format",
			"message": "Format must be csv or pdf",
		})
	}
	if req.Columns != domain.ColumnsDefault && req.Columns != domain.ColumnsAll {
		req.Columns = domain.ColumnsDefault
	}

	total, err := eh.uc.Count(c.Context(), req)
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "Export")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to count members for export",
		})
	}

	filename := eh.uc.Filename(req, total)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)

	if req.Format == domain.FormatPDF {
		pdf, err := eh.uc.RenderPDF(c.Context(), req)
		if err != nil {
			config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "Export")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
				"message": "Failed to render PDF export",
			})
		}
		config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "Export")
		c.Set(fiber.HeaderContentType, "application/pdf")
		return c.Send(pdf)
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "Export")
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")

	// Rows stream page by page; the response begins before the last page is
	// fetched, so large exports never buffer fully in memory.
	uc := eh.uc
	ctx := c.Context()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		uc.StreamCSV(ctx, req, w)
		w.Flush()
	}))
	return nil
}
