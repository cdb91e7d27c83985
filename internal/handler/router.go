package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/realtime"
	"github.com/BuzzLyutic/shared-todo/pkg/respond"
)

type Deps struct {
	Todos        *TodoHandler
	Users        *UserHandler
	Templates    *TemplateHandler
	Activity     *ActivityHandler
	Goals        *GoalHandler
	AI           *AIHandler
	Hub          *realtime.Hub
	AIRatePerMin int
	Logger       *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", d.Users.List)
		r.Post("/users", d.Users.Register)
		r.Post("/users/{id}/welcome", d.Users.MarkWelcomed)
		r.Post("/auth/login", d.Users.Login)

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", d.Todos.List)
			r.Post("/", d.Todos.Create)
			r.Get("/{id}", d.Todos.Get)
			r.Patch("/{id}", d.Todos.Update)
			r.Delete("/{id}", d.Todos.Delete)
		})
		r.Get("/stats", d.Todos.Stats)

		r.Get("/templates", d.Templates.List)
		r.Post("/templates", d.Templates.Create)
		r.Delete("/templates/{id}", d.Templates.Delete)

		r.Get("/activity", d.Activity.List)

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", d.Goals.ListGoals)
			r.Post("/", d.Goals.SaveGoal)
			r.Get("/categories", d.Goals.ListCategories)
			r.Post("/categories", d.Goals.SaveCategory)
			r.Put("/categories/{id}", d.Goals.SaveCategory)
			r.Delete("/categories/{id}", d.Goals.DeleteCategory)
			r.Put("/milestones/{id}", d.Goals.UpdateMilestone)
			r.Delete("/milestones/{id}", d.Goals.DeleteMilestone)
			r.Put("/{id}", d.Goals.SaveGoal)
			r.Delete("/{id}", d.Goals.DeleteGoal)
			r.Get("/{id}/milestones", d.Goals.ListMilestones)
			r.Post("/{id}/milestones", d.Goals.CreateMilestone)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Use(d.AI.Available)
			r.Use(RateLimit(d.AIRatePerMin))
			r.Post("/smart-parse", d.AI.SmartParse)
			r.Post("/parse-file", d.AI.ParseFile)
			r.Post("/transcribe", d.AI.Transcribe)
			r.Post("/enhance-task", d.AI.EnhanceTask)
		})

		r.Get("/realtime", realtime.ServeWS(d.Hub, d.Logger))
	})

	return r
}
