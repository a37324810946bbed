package controller

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"estatecrm/models"
	"estatecrm/utils"
)

type ClientController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewClientController(db *gorm.DB, logger *log.Logger) *ClientController {
	return &ClientController{
		DB:     db,
		Logger: logger,
	}
}

type CreateClientRequest struct {
	FullName   string   `json:"fullName" validate:"required,min=2"`
	Phone      string   `json:"phone" validate:"required,min=7"`
	Email      *string  `json:"email"`
	LeadSource *string  `json:"leadSource" validate:"omitempty,oneof=INSTAGRAM FACEBOOK TIKTOK REFERRAL PORTAL OTHER"`
	Status     *string  `json:"status" validate:"omitempty,oneof=NEW ACTIVE NOT_INTERESTED CONVERTED LOST"`
	AssignedTo *string  `json:"assignedTo" validate:"omitempty,uuid"`
	Tags       []string `json:"tags"`
	Notes      *string  `json:"notes"`
}

type UpdateClientRequest struct {
	FullName   *string  `json:"fullName" validate:"omitempty,min=2"`
	Phone      *string  `json:"phone" validate:"omitempty,min=7"`
	Email      *string  `json:"email"`
	LeadSource *string  `json:"leadSource" validate:"omitempty,oneof=INSTAGRAM FACEBOOK TIKTOK REFERRAL PORTAL OTHER"`
	Status     *string  `json:"status" validate:"omitempty,oneof=NEW ACTIVE NOT_INTERESTED CONVERTED LOST"`
	AssignedTo *string  `json:"assignedTo" validate:"omitempty,uuid"`
	Tags       []string `json:"tags"`
	Notes      *string  `json:"notes"`
}

// GetClients returns the paginated client list with search and filters.
func (cc *ClientController) GetClients(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	page, limit, offset := utils.Pagination(c, 20)

	query := utils.ScopeToAgent(cc.DB.Model(&models.Client{}), user, "assigned_to")

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(full_name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			pattern, "%"+search+"%", pattern,
		)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if leadSource := c.Query("leadSource"); leadSource != "" {
		query = query.Where("lead_source = ?", leadSource)
	}
	if assignedTo := c.Query("assignedTo"); assignedTo != "" {
		query = query.Where("assigned_to = ?", assignedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count clients", err)
	}

	var clients []models.Client
	if err := query.
		Preload("Agent").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&clients).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch clients", err)
	}

	return c.JSON(utils.NewListResponse(clients, total, page, limit))
}

func (cc *ClientController) GetClient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var client models.Client
	err := cc.DB.
		Preload("Agent").
		Preload("Deals", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Deals.Property").
		Preload("Deals.Agent").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Where("status <> ?", models.TaskDone).Order("due_at ASC")
		}).
		Preload("Activities", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(20)
		}).
		Preload("Activities.User").
		Preload("OwnedProperties").
		First(&client, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch client", err)
	}

	if !utils.CanAccess(user, client.AssignedTo) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Access denied", nil)
	}

	return c.JSON(client)
}

func (cc *ClientController) CreateClient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}
	if req.Email != nil && *req.Email != "" {
		if err := checkmail.ValidateFormat(*req.Email); err != nil {
			return utils.ValidationErrorResponse(c, []utils.FieldError{
				{Field: "email", Message: "email must be a valid email"},
			})
		}
	}

	client := models.Client{
		FullName:   req.FullName,
		Phone:      req.Phone,
		Tags:       req.Tags,
		Notes:      req.Notes,
		AssignedTo: user.ID,
		Status:     models.ClientNew,
	}
	if req.Email != nil && *req.Email != "" {
		client.Email = req.Email
	}
	if req.LeadSource != nil {
		source := models.LeadSource(*req.LeadSource)
		client.LeadSource = &source
	}
	if req.Status != nil {
		client.Status = models.ClientStatus(*req.Status)
	}
	if req.AssignedTo != nil && *req.AssignedTo != "" {
		client.AssignedTo = *req.AssignedTo
	}

	if err := cc.DB.Create(&client).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create client", err)
	}

	// Sequential side-effect write, deliberately not transactional.
	cc.logActivity(models.Activity{
		Type:     models.ActivityStatusChange,
		Content:  fmt.Sprintf("Client created with status: %s", client.Status),
		UserID:   &user.ID,
		ClientID: &client.ID,
	})

	if err := cc.DB.Preload("Agent").First(&client, "id = ?", client.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load client", err)
	}

	return c.Status(fiber.StatusCreated).JSON(client)
}

func (cc *ClientController) UpdateClient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req UpdateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}
	if req.Email != nil && *req.Email != "" {
		if err := checkmail.ValidateFormat(*req.Email); err != nil {
			return utils.ValidationErrorResponse(c, []utils.FieldError{
				{Field: "email", Message: "email must be a valid email"},
			})
		}
	}

	var existing models.Client
	if err := cc.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch client", err)
	}

	if !utils.CanAccess(user, existing.AssignedTo) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Access denied", nil)
	}

	previousStatus := existing.Status

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		if *req.Email == "" {
			updates["email"] = nil
		} else {
			updates["email"] = *req.Email
		}
	}
	if req.LeadSource != nil {
		updates["lead_source"] = *req.LeadSource
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.AssignedTo != nil && *req.AssignedTo != "" {
		updates["assigned_to"] = *req.AssignedTo
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := cc.DB.Model(&existing).Updates(updates).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update client", err)
		}
	}
	if req.Tags != nil {
		if err := cc.DB.Model(&existing).Update("tags", req.Tags).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update client tags", err)
		}
	}

	if req.Status != nil && models.ClientStatus(*req.Status) != previousStatus {
		cc.logActivity(models.Activity{
			Type:     models.ActivityStatusChange,
			Content:  fmt.Sprintf("Status changed from %s to %s", previousStatus, *req.Status),
			UserID:   &user.ID,
			ClientID: &existing.ID,
		})
	}

	var client models.Client
	if err := cc.DB.Preload("Agent").First(&client, "id = ?", existing.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load client", err)
	}

	return c.JSON(client)
}

func (cc *ClientController) DeleteClient(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if user.Role != models.RoleAdmin {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Only admins can delete clients", nil)
	}

	var existing models.Client
	if err := cc.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch client", err)
	}

	if err := cc.DB.Delete(&existing).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete client", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type AddActivityRequest struct {
	Type    string  `json:"type" validate:"required,oneof=NOTE CALL MEETING EMAIL STAGE_CHANGE TASK_CREATED DEAL_CREATED STATUS_CHANGE"`
	Content string  `json:"content" validate:"required,min=1"`
	DealID  *string `json:"dealId" validate:"omitempty,uuid"`
}

// AddActivity appends a manual log entry (note, call, meeting...) to a client.
func (cc *ClientController) AddActivity(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req AddActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	clientID := c.Params("id")
	activity := models.Activity{
		Type:     models.ActivityType(req.Type),
		Content:  req.Content,
		UserID:   &user.ID,
		ClientID: &clientID,
		DealID:   req.DealID,
	}
	if err := cc.DB.Create(&activity).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create activity", err)
	}

	if err := cc.DB.Preload("User").First(&activity, "id = ?", activity.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load activity", err)
	}

	return c.Status(fiber.StatusCreated).JSON(activity)
}

func (cc *ClientController) GetClientActivities(c *fiber.Ctx) error {
	var activities []models.Activity
	if err := cc.DB.
		Preload("User").
		Where("client_id = ?", c.Params("id")).
		Order("created_at DESC").
		Find(&activities).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activities", err)
	}
	return c.JSON(activities)
}

// logActivity appends to the activity log; a failure is logged, never surfaced.
func (cc *ClientController) logActivity(activity models.Activity) {
	if err := cc.DB.Create(&activity).Error; err != nil {
		cc.Logger.Printf("failed to log activity: %v", err)
	}
}
