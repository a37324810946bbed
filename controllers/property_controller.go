package controller

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"estatecrm/config"
	"estatecrm/models"
	"estatecrm/utils"
)

type PropertyController struct {
	DB     *gorm.DB
	Config *config.Config
	Logger *log.Logger
}

func NewPropertyController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *PropertyController {
	return &PropertyController{
		DB:     db,
		Config: cfg,
		Logger: logger,
	}
}

type CreatePropertyRequest struct {
	Title         string   `json:"title" validate:"required,min=2"`
	Address       string   `json:"address" validate:"required,min=5"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	Currency      *string  `json:"currency" validate:"omitempty,oneof=ILS USD"`
	Description   *string  `json:"description"`
	Status        *string  `json:"status" validate:"omitempty,oneof=ACTIVE UNDER_OFFER RENTED SOLD ARCHIVED"`
	Rooms         *int     `json:"rooms" validate:"omitempty,gt=0"`
	SizeSqm       *int     `json:"sizeSqm" validate:"omitempty,gt=0"`
	Floor         *int     `json:"floor"`
	OwnerClientID *string  `json:"ownerClientId" validate:"omitempty,uuid"`
}

type UpdatePropertyRequest struct {
	Title         *string  `json:"title" validate:"omitempty,min=2"`
	Address       *string  `json:"address" validate:"omitempty,min=5"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0"`
	Currency      *string  `json:"currency" validate:"omitempty,oneof=ILS USD"`
	Description   *string  `json:"description"`
	Status        *string  `json:"status" validate:"omitempty,oneof=ACTIVE UNDER_OFFER RENTED SOLD ARCHIVED"`
	Rooms         *int     `json:"rooms" validate:"omitempty,gt=0"`
	SizeSqm       *int     `json:"sizeSqm" validate:"omitempty,gt=0"`
	Floor         *int     `json:"floor"`
	OwnerClientID *string  `json:"ownerClientId" validate:"omitempty,uuid"`
}

// GetProperties returns the paginated listing with search and range filters.
func (pc *PropertyController) GetProperties(c *fiber.Ctx) error {
	page, limit, offset := utils.Pagination(c, 20)

	query := pc.DB.Model(&models.Property{})

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(address) LIKE LOWER(?)", pattern, pattern)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if currency := c.Query("currency"); currency != "" {
		query = query.Where("currency = ?", currency)
	}
	if minPrice := c.Query("minPrice"); minPrice != "" {
		if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", v)
		}
	}
	if maxPrice := c.Query("maxPrice"); maxPrice != "" {
		if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", v)
		}
	}
	if minRooms := c.Query("minRooms"); minRooms != "" {
		if v, err := strconv.Atoi(minRooms); err == nil {
			query = query.Where("rooms >= ?", v)
		}
	}
	if maxRooms := c.Query("maxRooms"); maxRooms != "" {
		if v, err := strconv.Atoi(maxRooms); err == nil {
			query = query.Where("rooms <= ?", v)
		}
	}
	if minSize := c.Query("minSize"); minSize != "" {
		if v, err := strconv.Atoi(minSize); err == nil {
			query = query.Where("size_sqm >= ?", v)
		}
	}
	if maxSize := c.Query("maxSize"); maxSize != "" {
		if v, err := strconv.Atoi(maxSize); err == nil {
			query = query.Where("size_sqm <= ?", v)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count properties", err)
	}

	var properties []models.Property
	if err := query.
		Preload("Photos").
		Preload("Owner").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&properties).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch properties", err)
	}

	return c.JSON(utils.NewListResponse(properties, total, page, limit))
}

func (pc *PropertyController) GetProperty(c *fiber.Ctx) error {
	var property models.Property
	err := pc.DB.
		Preload("Photos").
		Preload("Owner").
		Preload("Deals", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Deals.Client").
		Preload("Deals.Agent").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Where("status <> ?", models.TaskDone).Order("due_at ASC")
		}).
		First(&property, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Property not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch property", err)
	}

	return c.JSON(property)
}

func (pc *PropertyController) CreateProperty(c *fiber.Ctx) error {
	var req CreatePropertyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	property := models.Property{
		Title:         req.Title,
		Address:       req.Address,
		Price:         req.Price,
		Description:   req.Description,
		Rooms:         req.Rooms,
		SizeSqm:       req.SizeSqm,
		Floor:         req.Floor,
		OwnerClientID: req.OwnerClientID,
		Currency:      models.CurrencyILS,
		Status:        models.PropertyActive,
	}
	if req.Currency != nil {
		property.Currency = models.Currency(*req.Currency)
	}
	if req.Status != nil {
		property.Status = models.PropertyStatus(*req.Status)
	}

	if err := pc.DB.Create(&property).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create property", err)
	}

	if err := pc.DB.Preload("Photos").Preload("Owner").First(&property, "id = ?", property.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load property", err)
	}

	return c.Status(fiber.StatusCreated).JSON(property)
}

func (pc *PropertyController) UpdateProperty(c *fiber.Ctx) error {
	var req UpdatePropertyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	var existing models.Property
	if err := pc.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Property not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch property", err)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Rooms != nil {
		updates["rooms"] = *req.Rooms
	}
	if req.SizeSqm != nil {
		updates["size_sqm"] = *req.SizeSqm
	}
	if req.Floor != nil {
		updates["floor"] = *req.Floor
	}
	if req.OwnerClientID != nil {
		updates["owner_client_id"] = *req.OwnerClientID
	}

	if len(updates) > 0 {
		if err := pc.DB.Model(&existing).Updates(updates).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update property", err)
		}
	}

	var property models.Property
	if err := pc.DB.Preload("Photos").Preload("Owner").First(&property, "id = ?", existing.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load property", err)
	}

	return c.JSON(property)
}

func (pc *PropertyController) DeleteProperty(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if user.Role != models.RoleAdmin {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Only admins can delete properties", nil)
	}

	var existing models.Property
	if err := pc.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Property not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch property", err)
	}

	// Photo rows cascade with the property; stored files are removed best-effort.
	var photos []models.PropertyPhoto
	pc.DB.Where("property_id = ?", existing.ID).Find(&photos)

	if err := pc.DB.Select("Photos").Delete(&existing).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete property", err)
	}

	for _, photo := range photos {
		pc.removeStoredFile(photo.URL)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UploadPhotos accepts up to MaxUploadFiles images from the multipart field
// "photos", stores them under the upload dir and records one row per file.
func (pc *PropertyController) UploadPhotos(c *fiber.Ctx) error {
	var property models.Property
	if err := pc.DB.First(&property, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Property not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch property", err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid multipart form", err)
	}

	files := form.File["photos"]
	if len(files) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No files uploaded", nil)
	}
	if len(files) > pc.Config.MaxUploadFiles {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			fmt.Sprintf("At most %d files per upload", pc.Config.MaxUploadFiles), nil)
	}

	if err := os.MkdirAll(pc.Config.UploadDir, 0o755); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to prepare upload dir", err)
	}

	var photos []models.PropertyPhoto
	for _, file := range files {
		if file.Size > pc.Config.MaxFileSize {
			return utils.ErrorResponse(c, fiber.StatusBadRequest,
				fmt.Sprintf("File %s exceeds the size limit", file.Filename), nil)
		}
		if !utils.IsAllowedImage(file.Filename, file.Header.Get("Content-Type")) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Only image files are allowed", nil)
		}

		filename := utils.UploadFilename(file.Filename)
		if err := c.SaveFile(file, filepath.Join(pc.Config.UploadDir, filename)); err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to store file", err)
		}

		photo := models.PropertyPhoto{
			PropertyID: property.ID,
			URL:        "/uploads/" + filename,
		}
		if err := pc.DB.Create(&photo).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save photo", err)
		}
		photos = append(photos, photo)
	}

	return c.Status(fiber.StatusCreated).JSON(photos)
}

func (pc *PropertyController) DeletePhoto(c *fiber.Ctx) error {
	var photo models.PropertyPhoto
	if err := pc.DB.First(&photo, "id = ? AND property_id = ?", c.Params("photoId"), c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Photo not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch photo", err)
	}

	if err := pc.DB.Delete(&photo).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete photo", err)
	}

	pc.removeStoredFile(photo.URL)
	return c.SendStatus(fiber.StatusNoContent)
}

func (pc *PropertyController) removeStoredFile(url string) {
	name := filepath.Base(url)
	if name == "" || name == "." {
		return
	}
	if err := os.Remove(filepath.Join(pc.Config.UploadDir, name)); err != nil && !os.IsNotExist(err) {
		pc.Logger.Printf("failed to remove stored file %s: %v", name, err)
	}
}
