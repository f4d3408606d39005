package delivery

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"mdpva/config"
	"mdpva/domain"
	"mdpva/middleware"
	"mdpva/services/membership/importer"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxImportBytes = 10 * 1024 * 1024

type importHandler struct {
	uc domain.ImportUseCase
}

func NewImportHandler(app *fiber.App, uc domain.ImportUseCase) {
	handler := &importHandler{
		uc: uc,
	}

	route := app.Group("/members")
	route.Post("/import", middleware.AuthRequired(), middleware.RoleRequired("admin"), handler.UploadAndImport)
	route.Get("/download-template", middleware.AuthRequired(), middleware.RoleRequired("admin"), handler.DownloadTemplate)
}

// DownloadTemplate serves a header-only CSV with every canonical column.
func (ih *importHandler) DownloadTemplate(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="mdpva-import-template.csv"`)
	c.Set(fiber.HeaderContentType, "text/csv")

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "DownloadTemplate")
	return c.SendString(strings.Join(importer.Fields, ",") + "\n")
}

func (ih *importHandler) UploadAndImport(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	file, err := c.FormFile("file")
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadAndImport")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to parse file",
		})
	}

	if file.Size > maxImportBytes {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadAndImport")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "File too large. Max 10MB.",
			"message": "File too large. Max 10MB.",
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadAndImport")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Unsupported file type. Use .csv or .xlsx.",
			"message": "Unsupported file type. Use .csv or .xlsx.",
		})
	}

	uploadDir := "./uploads"
	if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
		if err := os.MkdirAll(uploadDir, os.ModePerm); err != nil {
			config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "UploadAndImport")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
				"message": "Failed to create upload directory",
			})
		}
	}

	filePath := filepath.Join(uploadDir, uuid.NewString()+ext)
	if err := c.SaveFile(file, filePath); err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadAndImport")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to save file",
		})
	}
	defer os.Remove(filePath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "UploadAndImport")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to read file",
		})
	}

	var rows [][]string
	if ext == ".xlsx" {
		rows, err = importer.RowsFromXLSX(bytes.NewReader(content))
		if err != nil {
			config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadAndImport")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
				"message": "Failed to parse spreadsheet",
			})
		}
	} else {
		rows = importer.Tokenize(string(content))
	}

	if len(rows) == 0 {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadAndImport")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "File is empty",
			"message": "File is empty",
		})
	}

	batch := &domain.ImportBatch{
		FileName: file.Filename,
		FileSize: file.Size,
		Rows:     rows,
		Policy:   domain.PolicySkip,
	}

	if raw := c.FormValue("mapping"); raw != "" {
		if err := sonic.Unmarshal([]byte(raw), &batch.Mapping); err != nil {
			config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadAndImport")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid mapping",
				"message": "Invalid mapping",
			})
		}
		for _, target := range batch.Mapping {
			if target != importer.IgnoreField && !importer.IsField(target) {
				config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadAndImport")
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"error":   "Invalid mapping",
					"message": "Unknown mapping target: " + target,
				})
			}
		}
	}

	if raw := c.FormValue("policy"); raw != "" {
		policy := domain.DuplicatePolicy(raw)
		if !policy.Valid() {
			config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadAndImport")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid duplicate policy",
				"message": "Policy must be skip, update or undelete",
			})
		}
		batch.Policy = policy
	}

	phase := c.Query("phase", "headers")
	// dryRun must be requested explicitly; a bare rows phase applies.
	dryRun := c.Query("dryRun") == "true"

	switch phase {
	case "headers":
		report, err := ih.uc.AnalyzeHeaders(c.Context(), batch)
		if err != nil {
			config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "UploadAndImport")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
				"message": "Failed to analyze headers",
			})
		}
		config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "UploadAndImport")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"message": "Headers analyzed successfully",
			"data":    report,
		})

	case "rows":
		if dryRun {
			report, err := ih.uc.DryRun(c.Context(), batch)
			if err != nil {
				config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "UploadAndImport")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"error":   err.Error(),
					"message": "Failed to validate rows",
				})
			}
			config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "UploadAndImport")
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"success": true,
				"message": "Dry-run completed successfully",
				"data":    report,
			})
		}

		report, err := ih.uc.Apply(c.Context(), batch)
		if err != nil {
			config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "UploadAndImport")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
				"message": "Failed to import members",
			})
		}
		config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "UploadAndImport")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"message": "Import completed",
			"data":    report,
		})

	default:
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadAndImport")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid phase",
			"message": "Phase must be headers or rows",
		})
	}
}
