package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/grumnuts/the-nest/internal/handlers"
	"github.com/grumnuts/the-nest/internal/middleware"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)
	protected.Get("/users", handlers.GetUsers)
	protected.Patch("/users/:id/role", handlers.UpdateUserRole)

	lists := protected.Group("/lists")
	lists.Get("/", handlers.GetLists)
	lists.Post("/", handlers.CreateList)
	lists.Post("/reorder", handlers.ReorderLists)
	lists.Get("/:id", handlers.GetList)
	lists.Patch("/:id", handlers.UpdateList)
	lists.Delete("/:id", handlers.DeleteList)

	// Permission management (list owners only)
	lists.Get("/:id/permissions", handlers.GetListPermissions)
	lists.Put("/:id/permissions/:userId", handlers.SetListPermission)
	lists.Delete("/:id/permissions/:userId", handlers.RemoveListPermission)

	// Tasks live under their list; mutations under /tasks
	lists.Get("/:id/tasks", handlers.GetTasks)
	lists.Post("/:id/tasks", handlers.CreateTask)
	lists.Post("/:id/tasks/reorder", handlers.ReorderTasks)

	tasks := protected.Group("/tasks")
	tasks.Patch("/:id", handlers.UpdateTask)
	tasks.Delete("/:id", handlers.DeleteTask)
	tasks.Post("/:id/complete", handlers.CompleteTask)
	tasks.Post("/:id/undo", handlers.UndoCompletion)

	goals := protected.Group("/goals")
	goals.Get("/my-goals", handlers.GetMyGoals)
	goals.Get("/all-goals", handlers.GetAllGoals)
	goals.Post("/", handlers.CreateGoal)
	goals.Patch("/:id", handlers.UpdateGoal)
	goals.Delete("/:id", handlers.DeleteGoal)
	goals.Get("/:id/progress", handlers.GetGoalProgress)

	// List activity feed
	lists.Get("/:id/activity", handlers.GetListActivity)

	// WebSocket for near-real-time list updates
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/lists/:id", websocket.New(handlers.HandleWebSocket))
}
