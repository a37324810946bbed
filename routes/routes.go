package routes

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"estatecrm/config"
	controller "estatecrm/controllers"
	"estatecrm/middleware"
	"estatecrm/utils"
)

// SetupRoutes wires every endpoint. All resource routes sit behind the JWT
// middleware; only login, refresh and health are public.
func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	tokens := utils.NewTokenManager(cfg)
	boardHub := controller.NewBoardHub(log.New(os.Stdout, "BOARD: ", log.LstdFlags))

	authController := controller.NewAuthController(db, tokens, log.New(os.Stdout, "AUTH: ", log.LstdFlags))
	clientController := controller.NewClientController(db, log.New(os.Stdout, "CLIENT: ", log.LstdFlags))
	propertyController := controller.NewPropertyController(db, cfg, log.New(os.Stdout, "PROPERTY: ", log.LstdFlags))
	dealController := controller.NewDealController(db, boardHub, log.New(os.Stdout, "DEAL: ", log.LstdFlags))
	taskController := controller.NewTaskController(db, log.New(os.Stdout, "TASK: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))

	protected := middleware.Protected(db, tokens)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Static("/uploads", cfg.UploadDir)

	auth := app.Group("/auth")
	auth.Post("/login", middleware.LoginRateLimiter(cfg), authController.Login)
	auth.Post("/refresh", authController.Refresh)
	auth.Post("/register", protected, middleware.RequireAdmin(), authController.Register)
	auth.Get("/me", protected, authController.Me)
	auth.Get("/users", protected, authController.GetUsers)

	clients := app.Group("/clients", protected)
	clients.Get("/", clientController.GetClients)
	clients.Post("/", clientController.CreateClient)
	clients.Get("/:id", clientController.GetClient)
	clients.Put("/:id", clientController.UpdateClient)
	clients.Delete("/:id", clientController.DeleteClient)
	clients.Get("/:id/activities", clientController.GetClientActivities)
	clients.Post("/:id/activities", clientController.AddActivity)

	properties := app.Group("/properties", protected)
	properties.Get("/", propertyController.GetProperties)
	properties.Post("/", propertyController.CreateProperty)
	properties.Get("/:id", propertyController.GetProperty)
	properties.Put("/:id", propertyController.UpdateProperty)
	properties.Delete("/:id", propertyController.DeleteProperty)
	properties.Post("/:id/photos", propertyController.UploadPhotos)
	properties.Delete("/:id/photos/:photoId", propertyController.DeletePhoto)

	deals := app.Group("/deals", protected)
	deals.Get("/board/ws", websocket.New(boardHub.Handle))
	deals.Get("/", dealController.GetDeals)
	deals.Post("/", dealController.CreateDeal)
	deals.Get("/:id", dealController.GetDeal)
	deals.Put("/:id", dealController.UpdateDeal)
	deals.Patch("/:id/stage", dealController.UpdateDealStage)
	deals.Delete("/:id", dealController.DeleteDeal)

	tasks := app.Group("/tasks", protected)
	tasks.Get("/", taskController.GetTasks)
	tasks.Post("/", taskController.CreateTask)
	tasks.Get("/:id", taskController.GetTask)
	tasks.Put("/:id", taskController.UpdateTask)
	tasks.Delete("/:id", taskController.DeleteTask)

	dashboard := app.Group("/dashboard", protected)
	dashboard.Get("/metrics", dashboardController.GetMetrics)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Route not found",
		})
	})
}
