package handlers

import (
	"net/http"
	"taskManager/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// Routes регистрирует маршруты API; всё, кроме /health, требует X-Owner-ID
func Routes(r chi.Router, tasks *TaskHandler, categories *CategoryHandler, notifications *NotificationHandler) {
	r.Get("/health", tasks.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Owner)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", tasks.ListTasks)
			r.Post("/", tasks.PostTask)
			r.Get("/date/{date}", tasks.ListTasksByDate)
			r.Get("/{id}", tasks.GetTaskByID)
			r.Patch("/{id}", tasks.UpdateTaskByID)
			r.Put("/{id}", tasks.UpdateTaskByID)
			r.Delete("/{id}", tasks.DeleteTaskByID)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categories.ListCategories)
			r.Post("/", categories.PostCategory)
			r.Get("/default", categories.GetDefaultCategory)
			r.Patch("/{id}", categories.UpdateCategory)
			r.Put("/{id}", categories.UpdateCategory)
			r.Delete("/{id}", categories.DeleteCategory)
		})
	})

	if notifications != nil {
		r.Post("/admin/notifications/scan", notifications.Scan)
	}
}

// NotFound - JSON-ответ для неизвестных маршрутов
func NotFound(w http.ResponseWriter, r *http.Request) {
	responseWithError(w, http.StatusNotFound, "маршрут не найден")
}
