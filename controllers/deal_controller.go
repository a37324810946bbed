package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"estatecrm/models"
	"estatecrm/utils"
)

type DealController struct {
	DB     *gorm.DB
	Hub    *BoardHub
	Logger *log.Logger
}

func NewDealController(db *gorm.DB, hub *BoardHub, logger *log.Logger) *DealController {
	return &DealController{
		DB:     db,
		Hub:    hub,
		Logger: logger,
	}
}

type CreateDealRequest struct {
	ClientID     string     `json:"clientId" validate:"required,uuid"`
	PropertyID   *string    `json:"propertyId" validate:"omitempty,uuid"`
	Stage        *string    `json:"stage" validate:"omitempty,oneof=NEW_LEAD NEGOTIATION VIEWING CONTRACT CLOSED"`
	Value        *float64   `json:"value" validate:"omitempty,gt=0"`
	Probability  *int       `json:"probability" validate:"omitempty,gte=0,lte=100"`
	AssignedTo   *string    `json:"assignedTo" validate:"omitempty,uuid"`
	NextActionAt *time.Time `json:"nextActionAt"`
	LostReason   *string    `json:"lostReason"`
}

type UpdateDealRequest struct {
	PropertyID   *string    `json:"propertyId" validate:"omitempty,uuid"`
	Stage        *string    `json:"stage" validate:"omitempty,oneof=NEW_LEAD NEGOTIATION VIEWING CONTRACT CLOSED"`
	Value        *float64   `json:"value" validate:"omitempty,gt=0"`
	Probability  *int       `json:"probability" validate:"omitempty,gte=0,lte=100"`
	AssignedTo   *string    `json:"assignedTo" validate:"omitempty,uuid"`
	NextActionAt *time.Time `json:"nextActionAt"`
	LostReason   *string    `json:"lostReason"`
}

type UpdateDealStageRequest struct {
	Stage      string  `json:"stage" validate:"required,oneof=NEW_LEAD NEGOTIATION VIEWING CONTRACT CLOSED"`
	LostReason *string `json:"lostReason"`
}

// GetDeals returns either a flat listing or, with groupBy=stage, the full
// board grouped by pipeline stage with every stage present.
func (dc *DealController) GetDeals(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := utils.ScopeToAgent(dc.DB.Model(&models.Deal{}), user, "assigned_to")

	if stage := c.Query("stage"); stage != "" {
		query = query.Where("stage = ?", stage)
	}
	if assignedTo := c.Query("assignedTo"); assignedTo != "" && user.Role == models.RoleAdmin {
		query = query.Where("assigned_to = ?", assignedTo)
	}
	if clientID := c.Query("clientId"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	if c.Query("groupBy") == "stage" {
		var deals []models.Deal
		if err := query.
			Preload("Client").
			Preload("Property").
			Preload("Agent").
			Order("created_at ASC").
			Find(&deals).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deals", err)
		}

		grouped := make(map[models.DealStage][]models.Deal, len(models.DealStages))
		for _, stage := range models.DealStages {
			grouped[stage] = []models.Deal{}
		}
		for _, deal := range deals {
			grouped[deal.Stage] = append(grouped[deal.Stage], deal)
		}
		return c.JSON(grouped)
	}

	page, limit, offset := utils.Pagination(c, 50)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count deals", err)
	}

	var deals []models.Deal
	if err := query.
		Preload("Client").
		Preload("Property").
		Preload("Agent").
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&deals).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deals", err)
	}

	return c.JSON(utils.NewListResponse(deals, total, page, limit))
}

func (dc *DealController) GetDeal(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var deal models.Deal
	err := dc.DB.
		Preload("Client").
		Preload("Property").
		Preload("Property.Photos").
		Preload("Agent").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_at ASC")
		}).
		Preload("Activities", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(30)
		}).
		Preload("Activities.User").
		First(&deal, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Deal not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deal", err)
	}

	if !utils.CanAccess(user, deal.AssignedTo) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Access denied", nil)
	}

	return c.JSON(deal)
}

func (dc *DealController) CreateDeal(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateDealRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	var client models.Client
	if err := dc.DB.First(&client, "id = ?", req.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Client not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch client", err)
	}

	deal := models.Deal{
		ClientID:     req.ClientID,
		PropertyID:   req.PropertyID,
		Stage:        models.StageNewLead,
		Value:        req.Value,
		Probability:  req.Probability,
		AssignedTo:   user.ID,
		NextActionAt: req.NextActionAt,
		LostReason:   req.LostReason,
	}
	if req.Stage != nil {
		deal.Stage = models.DealStage(*req.Stage)
	}
	if req.AssignedTo != nil {
		deal.AssignedTo = *req.AssignedTo
	}

	if err := dc.DB.Create(&deal).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create deal", err)
	}

	// Side effects run sequentially and are deliberately not transactional.
	dc.logActivity(models.ActivityDealCreated,
		fmt.Sprintf("Deal created at stage: %s", deal.Stage),
		user.ID, &deal.ClientID, &deal.ID)

	if client.Status == models.ClientNew {
		if err := dc.DB.Model(&client).Update("status", models.ClientActive).Error; err != nil {
			dc.Logger.Printf("failed to activate client %s: %v", client.ID, err)
		}
	}

	if err := dc.DB.
		Preload("Client").
		Preload("Property").
		Preload("Agent").
		First(&deal, "id = ?", deal.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load deal", err)
	}

	return c.Status(fiber.StatusCreated).JSON(deal)
}

// UpdateDeal applies field updates without pipeline side effects. A stage
// passed here changes silently; the stage endpoint is the audited path.
func (dc *DealController) UpdateDeal(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req UpdateDealRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	var existing models.Deal
	if err := dc.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Deal not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deal", err)
	}

	if !utils.CanAccess(user, existing.AssignedTo) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Access denied", nil)
	}

	updates := map[string]interface{}{}
	if req.PropertyID != nil {
		updates["property_id"] = *req.PropertyID
	}
	if req.Stage != nil {
		updates["stage"] = *req.Stage
	}
	if req.Value != nil {
		updates["value"] = *req.Value
	}
	if req.Probability != nil {
		updates["probability"] = *req.Probability
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = *req.AssignedTo
	}
	if req.NextActionAt != nil {
		updates["next_action_at"] = *req.NextActionAt
	}
	if req.LostReason != nil {
		updates["lost_reason"] = *req.LostReason
	}

	if len(updates) > 0 {
		if err := dc.DB.Model(&existing).Updates(updates).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update deal", err)
		}
	}

	var deal models.Deal
	if err := dc.DB.
		Preload("Client").
		Preload("Property").
		Preload("Agent").
		First(&deal, "id = ?", existing.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load deal", err)
	}

	return c.JSON(deal)
}

// UpdateDealStage moves a deal through the pipeline, records the change as
// an activity and converts the client when the deal closes.
func (dc *DealController) UpdateDealStage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req UpdateDealStageRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	var existing models.Deal
	if err := dc.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Deal not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deal", err)
	}

	if !utils.CanAccess(user, existing.AssignedTo) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Access denied", nil)
	}

	oldStage := existing.Stage
	newStage := models.DealStage(req.Stage)

	// An absent or empty reason clears the stored one.
	updates := map[string]interface{}{
		"stage":       newStage,
		"lost_reason": nil,
	}
	if req.LostReason != nil && *req.LostReason != "" {
		updates["lost_reason"] = *req.LostReason
	}

	if err := dc.DB.Model(&existing).Updates(updates).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update deal", err)
	}

	content := fmt.Sprintf("Deal stage changed: %s → %s", oldStage, newStage)
	if req.LostReason != nil && *req.LostReason != "" {
		content += fmt.Sprintf(". Reason: %s", *req.LostReason)
	}
	dc.logActivity(models.ActivityStageChange, content, user.ID, &existing.ClientID, &existing.ID)

	if newStage == models.StageClosed {
		if err := dc.DB.Model(&models.Client{}).
			Where("id = ?", existing.ClientID).
			Update("status", models.ClientConverted).Error; err != nil {
			dc.Logger.Printf("failed to convert client %s: %v", existing.ClientID, err)
		}
	}

	if dc.Hub != nil {
		dc.Hub.Broadcast(StageChangeEvent{
			DealID: existing.ID,
			From:   string(oldStage),
			To:     string(newStage),
		})
	}

	var deal models.Deal
	if err := dc.DB.
		Preload("Client").
		Preload("Property").
		Preload("Agent").
		First(&deal, "id = ?", existing.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load deal", err)
	}

	return c.JSON(deal)
}

func (dc *DealController) DeleteDeal(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if user.Role != models.RoleAdmin {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Only admins can delete deals", nil)
	}

	var existing models.Deal
	if err := dc.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Deal not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deal", err)
	}

	if err := dc.DB.Delete(&existing).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete deal", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (dc *DealController) logActivity(kind models.ActivityType, content, userID string, clientID, dealID *string) {
	activity := models.Activity{
		Type:     kind,
		Content:  content,
		UserID:   &userID,
		ClientID: clientID,
		DealID:   dealID,
	}
	if err := dc.DB.Create(&activity).Error; err != nil {
		dc.Logger.Printf("failed to record activity: %v", err)
	}
}
