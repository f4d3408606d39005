package delivery

import (
	"io"
	"strconv"
	"strings"

	"mdpva/config"
	"mdpva/domain"
	"mdpva/middleware"

	"github.com/asaskevich/govalidator"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
	maxPhotoBytes   = 2 * 1024 * 1024
)

type memberHandler struct {
	uc  domain.MemberUseCase
	geo domain.GeoLookup
}

func NewMemberHandler(app *fiber.App, uc domain.MemberUseCase, geo domain.GeoLookup) {
	handler := &memberHandler{
		uc:  uc,
		geo: geo,
	}

	route := app.Group("/members")
	route.Get("/", middleware.AuthRequired(), middleware.RoleRequired("admin", "staff"), handler.ListMembers)
	route.Get("/detail/:id", middleware.AuthRequired(), middleware.RoleRequired("admin", "staff"), handler.GetMemberByID)
	route.Post("/insert", middleware.AuthRequired(), middleware.RoleRequired("admin"), handler.CreateMember)
	route.Put("/modify/:id", middleware.AuthRequired(), middleware.RoleRequired("admin"), handler.UpdateMember)
	route.Delete("/rm/:id", middleware.AuthRequired(), middleware.RoleRequired("admin"), handler.DeleteMember)
	route.Post("/rms", middleware.AuthRequired(), middleware.RoleRequired("admin"), handler.MassDelete)
	route.Put("/restore/:id", middleware.AuthRequired(), middleware.RoleRequired("admin"), handler.RestoreMember)
	route.Post("/photo/:id", middleware.AuthRequired(), middleware.RoleRequired("admin"), handler.UploadPhoto)
	route.Get("/qr/:id", middleware.AuthRequired(), middleware.RoleRequired("admin", "staff"), handler.MemberQR)

	app.Get("/util/pincode/:code", middleware.AuthRequired(), middleware.RoleRequired("admin", "staff"), handler.PincodeLookup)
}

func (mh *memberHandler) ListMembers(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", strconv.Itoa(defaultPageSize)))
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	q := domain.MemberQuery{
		Search: c.Query("q"),
		Filter: c.Query("filter", "all"),
		Sort:   c.Query("sort", "created_desc"),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}

	members, total, err := mh.uc.List(c.Context(), q)
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "ListMembers")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to list members",
			"data":    nil,
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "ListMembers")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Members retrieved successfully",
		"data":    members,
		"meta": fiber.Map{
			"total":    total,
			"page":     page,
			"per_page": perPage,
		},
	})
}

func (mh *memberHandler) GetMemberByID(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "GetMemberByID")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid member ID",
			"message": "Member ID must be a number",
		})
	}

	member, err := mh.uc.GetByID(c.Context(), id)
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusNotFound, "GetMemberByID")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Member not found",
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "GetMemberByID")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Member retrieved successfully",
		"data":    member,
	})
}

func (mh *memberHandler) CreateMember(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	var req domain.Member
	if err := c.BodyParser(&req); err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "CreateMember")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Invalid request body",
		})
	}

	if _, err := govalidator.ValidateStruct(req); err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "CreateMember")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Invalid member request body",
		})
	}

	errList, err := mh.uc.Create(c.Context(), &req)
	if err != nil {
		if errList != nil && len(*errList) > 0 {
			config.PrintLogInfo(&userToken.Username, fiber.StatusConflict, "CreateMember")
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"error":   errList,
				"message": "Member conflicts with existing data",
			})
		}
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "CreateMember")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to create member",
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusCreated, "CreateMember")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Member created successfully",
		"data":    req,
	})
}

func (mh *memberHandler) UpdateMember(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UpdateMember")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid member ID",
			"message": "Member ID must be a number",
		})
	}

	var req domain.Member
	if err := c.BodyParser(&req); err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UpdateMember")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Invalid request body",
		})
	}

	if _, err := govalidator.ValidateStruct(req); err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UpdateMember")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Invalid member request body",
		})
	}

	errList, err := mh.uc.Update(c.Context(), id, &req)
	if err != nil {
		if errList != nil && len(*errList) > 0 {
			config.PrintLogInfo(&userToken.Username, fiber.StatusConflict, "UpdateMember")
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"error":   errList,
				"message": "Member conflicts with existing data",
			})
		}
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "UpdateMember")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to update member",
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "UpdateMember")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Member updated successfully",
	})
}

func (mh *memberHandler) DeleteMember(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "DeleteMember")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid member ID",
			"message": "Member ID must be a number",
		})
	}

	if err := mh.uc.Delete(c.Context(), id); err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "DeleteMember")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to delete member",
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "DeleteMember")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Member deleted successfully",
	})
}

func (mh *memberHandler) RestoreMember(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "RestoreMember")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid member ID",
			"message": "Member ID must be a number",
		})
	}

	if err := mh.uc.Restore(c.Context(), id); err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "RestoreMember")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to restore member",
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "RestoreMember")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Member restored successfully",
	})
}

func (mh *memberHandler) MassDelete(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	var payload struct {
		IDS []int `json:"member_ids"`
	}
	if err := c.BodyParser(&payload); err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "MassDelete")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to delete members",
		})
	}

	if err := mh.uc.MassDelete(c.Context(), &payload.IDS); err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "MassDelete")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to delete members",
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "MassDelete")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Members deleted successfully",
	})
}

func (mh *memberHandler) UploadPhoto(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadPhoto")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid member ID",
			"message": "Member ID must be a number",
		})
	}

	file, err := c.FormFile("photo")
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadPhoto")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to parse photo",
		})
	}

	if file.Size > maxPhotoBytes {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadPhoto")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Photo too large. Max 2MB.",
			"message": "Photo too large. Max 2MB.",
		})
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "UploadPhoto")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Only image uploads are allowed",
			"message": "Only image uploads are allowed",
		})
	}

	src, err := file.Open()
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "UploadPhoto")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to read photo",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "UploadPhoto")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to read photo",
		})
	}

	url, err := mh.uc.UploadPhoto(c.Context(), id, file.Filename, contentType, data)
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "UploadPhoto")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to upload photo",
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "UploadPhoto")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Photo uploaded successfully",
		"data":    fiber.Map{"profile_photo_url": url},
	})
}

func (mh *memberHandler) MemberQR(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusBadRequest, "MemberQR")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid member ID",
			"message": "Member ID must be a number",
		})
	}

	png, err := mh.uc.QRCode(c.Context(), id)
	if err != nil {
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "MemberQR")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Failed to render QR code",
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "MemberQR")
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

func (mh *memberHandler) PincodeLookup(c *fiber.Ctx) error {
	userToken := c.Locals("user").(*middleware.Claims)

	result, err := mh.geo.Lookup(c.Context(), c.Params("code"))
	if err != nil {
		if err == domain.ErrInvalidPincode {
			config.PrintLogInfo(&userToken.Username, fiber.StatusNotFound, "PincodeLookup")
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
				"message": "Pincode not found",
			})
		}
		config.PrintLogInfo(&userToken.Username, fiber.StatusInternalServerError, "PincodeLookup")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"message": "Pincode lookup failed",
		})
	}

	config.PrintLogInfo(&userToken.Username, fiber.StatusOK, "PincodeLookup")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Pincode resolved successfully",
		"data":    result,
	})
}
