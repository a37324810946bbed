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

type TaskController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTaskController(db *gorm.DB, logger *log.Logger) *TaskController {
	return &TaskController{
		DB:     db,
		Logger: logger,
	}
}

type CreateTaskRequest struct {
	Title             string     `json:"title" validate:"required,min=2"`
	Description       *string    `json:"description"`
	DueAt             *time.Time `json:"dueAt" validate:"required"`
	Priority          *string    `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status            *string    `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	AssignedTo        *string    `json:"assignedTo" validate:"omitempty,uuid"`
	RelatedClientID   *string    `json:"relatedClientId" validate:"omitempty,uuid"`
	RelatedDealID     *string    `json:"relatedDealId" validate:"omitempty,uuid"`
	RelatedPropertyID *string    `json:"relatedPropertyId" validate:"omitempty,uuid"`
	ReminderAt        *time.Time `json:"reminderAt"`
}

type UpdateTaskRequest struct {
	Title             *string    `json:"title" validate:"omitempty,min=2"`
	Description       *string    `json:"description"`
	DueAt             *time.Time `json:"dueAt"`
	Priority          *string    `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status            *string    `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	AssignedTo        *string    `json:"assignedTo" validate:"omitempty,uuid"`
	RelatedClientID   *string    `json:"relatedClientId" validate:"omitempty,uuid"`
	RelatedDealID     *string    `json:"relatedDealId" validate:"omitempty,uuid"`
	RelatedPropertyID *string    `json:"relatedPropertyId" validate:"omitempty,uuid"`
	ReminderAt        *time.Time `json:"reminderAt"`
}

// GetTasks lists tasks with status, priority, relation and due-window
// filters. due=overdue ignores the window and matches any unfinished task
// whose due date has passed.
func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	page, limit, offset := utils.Pagination(c, 50)

	query := utils.ScopeToAgent(tc.DB.Model(&models.Task{}), user, "assigned_to")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := c.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if assignedTo := c.Query("assignedTo"); assignedTo != "" && user.Role == models.RoleAdmin {
		query = query.Where("assigned_to = ?", assignedTo)
	}
	if clientID := c.Query("relatedClientId"); clientID != "" {
		query = query.Where("related_client_id = ?", clientID)
	}
	if dealID := c.Query("relatedDealId"); dealID != "" {
		query = query.Where("related_deal_id = ?", dealID)
	}

	now := time.Now()
	switch c.Query("due") {
	case "today":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		query = query.Where("due_at >= ? AND due_at < ?", start, start.AddDate(0, 0, 1))
	case "overdue":
		query = query.Where("due_at < ? AND status <> ?", now, models.TaskDone)
	case "upcoming":
		// Today and tomorrow; the upper bound sits at midnight two days ahead, inclusive.
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		query = query.Where("due_at >= ? AND due_at <= ? AND status <> ?",
			start, start.AddDate(0, 0, 2), models.TaskDone)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count tasks", err)
	}

	var tasks []models.Task
	if err := query.
		Preload("Agent").
		Preload("Client").
		Preload("Deal").
		Preload("Property").
		Order("status ASC, due_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tasks", err)
	}

	return c.JSON(utils.NewListResponse(tasks, total, page, limit))
}

func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var task models.Task
	err := tc.DB.
		Preload("Agent").
		Preload("Client").
		Preload("Deal").
		Preload("Property").
		First(&task, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Task not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch task", err)
	}

	if !utils.CanAccess(user, task.AssignedTo) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Access denied", nil)
	}

	return c.JSON(task)
}

func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	task := models.Task{
		Title:             req.Title,
		Description:       req.Description,
		DueAt:             *req.DueAt,
		Priority:          models.PriorityMedium,
		Status:            models.TaskTodo,
		AssignedTo:        user.ID,
		RelatedClientID:   req.RelatedClientID,
		RelatedDealID:     req.RelatedDealID,
		RelatedPropertyID: req.RelatedPropertyID,
		ReminderAt:        req.ReminderAt,
	}
	if req.Priority != nil {
		task.Priority = models.TaskPriority(*req.Priority)
	}
	if req.Status != nil {
		task.Status = models.TaskStatus(*req.Status)
	}
	if req.AssignedTo != nil {
		task.AssignedTo = *req.AssignedTo
	}

	if err := tc.DB.Create(&task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create task", err)
	}

	if task.RelatedClientID != nil || task.RelatedDealID != nil {
		activity := models.Activity{
			Type:     models.ActivityTaskCreated,
			Content:  fmt.Sprintf("Task created: %q", task.Title),
			UserID:   &user.ID,
			ClientID: task.RelatedClientID,
			DealID:   task.RelatedDealID,
		}
		if err := tc.DB.Create(&activity).Error; err != nil {
			tc.Logger.Printf("failed to record activity: %v", err)
		}
	}

	if err := tc.DB.
		Preload("Agent").
		Preload("Client").
		Preload("Deal").
		Preload("Property").
		First(&task, "id = ?", task.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load task", err)
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	var existing models.Task
	if err := tc.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Task not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch task", err)
	}

	if !utils.CanAccess(user, existing.AssignedTo) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Access denied", nil)
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DueAt != nil {
		updates["due_at"] = *req.DueAt
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = *req.AssignedTo
	}
	if req.RelatedClientID != nil {
		updates["related_client_id"] = *req.RelatedClientID
	}
	if req.RelatedDealID != nil {
		updates["related_deal_id"] = *req.RelatedDealID
	}
	if req.RelatedPropertyID != nil {
		updates["related_property_id"] = *req.RelatedPropertyID
	}
	if req.ReminderAt != nil {
		// Rescheduling a reminder makes it eligible to fire again.
		updates["reminder_at"] = *req.ReminderAt
		updates["reminder_sent_at"] = nil
	}

	if len(updates) > 0 {
		if err := tc.DB.Model(&existing).Updates(updates).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update task", err)
		}
	}

	var task models.Task
	if err := tc.DB.
		Preload("Agent").
		Preload("Client").
		Preload("Deal").
		Preload("Property").
		First(&task, "id = ?", existing.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load task", err)
	}

	return c.JSON(task)
}

// DeleteTask lets agents delete their own tasks, unlike the other resources.
func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var existing models.Task
	if err := tc.DB.First(&existing, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Task not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch task", err)
	}

	if !utils.CanAccess(user, existing.AssignedTo) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Access denied", nil)
	}

	if err := tc.DB.Delete(&existing).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete task", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
