package controller

import (
	"log"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"estatecrm/models"
	"estatecrm/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

type stageCount struct {
	Stage models.DealStage
	Count int64
}

type sourceCount struct {
	LeadSource models.LeadSource `json:"source"`
	Count      int64             `json:"count"`
}

// GetMetrics aggregates the dashboard numbers for the requested period
// (days, default 30). Agents see only their own slice of the data.
func (dc *DashboardController) GetMetrics(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	period := c.Query("period", "30")
	days, err := strconv.Atoi(period)
	if err != nil || days <= 0 {
		days = 30
	}
	now := time.Now()
	since := now.Add(-time.Duration(days) * 24 * time.Hour)

	var newLeads int64
	if err := utils.ScopeToAgent(dc.DB.Model(&models.Client{}), user, "assigned_to").
		Where("created_at >= ?", since).
		Count(&newLeads).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load metrics", err)
	}

	var stageCounts []stageCount
	if err := utils.ScopeToAgent(dc.DB.Model(&models.Deal{}), user, "assigned_to").
		Select("stage, count(*) as count").
		Group("stage").
		Scan(&stageCounts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load metrics", err)
	}

	dealsByStage := make(map[models.DealStage]int64, len(models.DealStages))
	for _, stage := range models.DealStages {
		dealsByStage[stage] = 0
	}
	var totalDeals int64
	for _, sc := range stageCounts {
		dealsByStage[sc.Stage] = sc.Count
		totalDeals += sc.Count
	}

	// Conversion compares deals closed in the window against deals created in
	// it, so long-running deals can push the rate above 100.
	var totalLeads int64
	if err := utils.ScopeToAgent(dc.DB.Model(&models.Deal{}), user, "assigned_to").
		Where("created_at >= ?", since).
		Count(&totalLeads).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load metrics", err)
	}

	var closedDeals int64
	if err := utils.ScopeToAgent(dc.DB.Model(&models.Deal{}), user, "assigned_to").
		Where("stage = ? AND updated_at >= ?", models.StageClosed, since).
		Count(&closedDeals).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load metrics", err)
	}

	conversionRate := 0
	if totalLeads > 0 {
		conversionRate = int(math.Round(float64(closedDeals) / float64(totalLeads) * 100))
	}

	var overdueTasks int64
	if err := utils.ScopeToAgent(dc.DB.Model(&models.Task{}), user, "assigned_to").
		Where("due_at < ? AND status <> ?", now, models.TaskDone).
		Count(&overdueTasks).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load metrics", err)
	}

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var upcomingTasks []models.Task
	if err := utils.ScopeToAgent(dc.DB.Model(&models.Task{}), user, "assigned_to").
		Where("due_at >= ? AND due_at <= ? AND status <> ?",
			todayStart, todayStart.AddDate(0, 0, 2), models.TaskDone).
		Preload("Client").
		Preload("Deal").
		Order("due_at ASC").
		Limit(10).
		Find(&upcomingTasks).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load metrics", err)
	}

	var leadSources []sourceCount
	if err := utils.ScopeToAgent(dc.DB.Model(&models.Client{}), user, "assigned_to").
		Select("lead_source, count(*) as count").
		Where("lead_source IS NOT NULL AND created_at >= ?", since).
		Group("lead_source").
		Order("count DESC").
		Scan(&leadSources).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load metrics", err)
	}

	var pipelineValue float64
	if err := utils.ScopeToAgent(dc.DB.Model(&models.Deal{}), user, "assigned_to").
		Where("stage <> ?", models.StageClosed).
		Select("COALESCE(SUM(value), 0)").
		Scan(&pipelineValue).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load metrics", err)
	}

	activityQuery := dc.DB.Model(&models.Activity{})
	if user.Role == models.RoleAgent {
		activityQuery = activityQuery.Where("user_id = ?", user.ID)
	}
	var recentActivities []models.Activity
	if err := activityQuery.
		Preload("User").
		Preload("Client").
		Order("created_at DESC").
		Limit(8).
		Find(&recentActivities).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load metrics", err)
	}

	return c.JSON(fiber.Map{
		"period":           days,
		"newLeads":         newLeads,
		"dealsByStage":     dealsByStage,
		"totalDeals":       totalDeals,
		"closedDeals":      closedDeals,
		"conversionRate":   conversionRate,
		"pipelineValue":    pipelineValue,
		"overdueTasks":     overdueTasks,
		"upcomingTasks":    upcomingTasks,
		"leadSources":      leadSources,
		"recentActivities": recentActivities,
	})
}
