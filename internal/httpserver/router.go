package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smartconnect/internal/auth"
	"smartconnect/internal/httpserver/handlers"
	"smartconnect/internal/services"
)

const Version = "1.0"

type Deps struct {
	DB       *gorm.DB
	Services *services.Services
	Tokens   *auth.Tokens
	Policy   *auth.Policy
	Logger   *zap.SugaredLogger
}

func NewRouter(d Deps) http.Handler {
	lg := d.Logger
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger, middleware.StripSlashes)

	can := func(a auth.Action) func(http.Handler) http.Handler { return auth.Require(d.Policy, a, lg) }
	read, create, update, del := can(auth.ActionRead), can(auth.ActionCreate), can(auth.ActionUpdate), can(auth.ActionDelete)

	r.Route("/api", func(api chi.Router) {
		api.Get("/", handlers.Index())
		api.Get("/info", handlers.Info(Version))
		api.Post("/token", handlers.ObtainToken(d.DB, d.Tokens, lg))
		api.Post("/token/refresh", handlers.RefreshToken(d.Tokens))
		api.Post("/token/verify", handlers.VerifyToken(d.Tokens))

		api.Group(func(p chi.Router) {
			p.Use(auth.JWTAuth(d.Tokens))

			depts := d.Services.Departments
			p.Route("/departamentos", func(rt chi.Router) {
				rt.With(read).Get("/", handlers.ListDepartments(depts, lg))
				rt.With(create).Post("/", handlers.CreateDepartment(depts, lg))
				rt.With(read).Get("/{id}", handlers.GetDepartment(depts, lg))
				rt.With(update).Put("/{id}", handlers.UpdateDepartment(depts, lg, false))
				rt.With(update).Patch("/{id}", handlers.UpdateDepartment(depts, lg, true))
				rt.With(del).Delete("/{id}", handlers.DeleteDepartment(depts, lg))
				rt.With(read).Get("/{id}/sensores", handlers.DepartmentSensors(depts, lg))
			})

			sensors := d.Services.Sensors
			p.Route("/sensores", func(rt chi.Router) {
				rt.With(read).Get("/", handlers.ListSensors(sensors, lg))
				rt.With(create).Post("/", handlers.CreateSensor(sensors, lg))
				rt.With(read).Get("/{id}", handlers.GetSensor(sensors, lg))
				rt.With(update).Put("/{id}", handlers.UpdateSensor(sensors, lg, false))
				rt.With(update).Patch("/{id}", handlers.UpdateSensor(sensors, lg, true))
				rt.With(del).Delete("/{id}", handlers.DeleteSensor(sensors, lg))
				rt.With(update).Post("/{id}/cambiar_estado", handlers.ChangeSensorState(sensors, lg))
			})

			users := d.Services.Users
			p.Route("/usuarios", func(rt chi.Router) {
				rt.With(read).Get("/", handlers.ListUsers(users, lg))
				rt.With(create).Post("/", handlers.CreateUser(users, lg))
				rt.With(read).Get("/{id}", handlers.GetUser(users, lg))
				rt.With(update).Put("/{id}", handlers.UpdateUser(users, lg, false))
				rt.With(update).Patch("/{id}", handlers.UpdateUser(users, lg, true))
				rt.With(del).Delete("/{id}", handlers.DeleteUser(users, lg))
			})

			barriers := d.Services.Barriers
			p.Route("/barreras", func(rt chi.Router) {
				rt.With(read).Get("/", handlers.ListBarriers(barriers, lg))
				rt.With(create).Post("/", handlers.CreateBarrier(barriers, lg))
				rt.With(read).Get("/{id}", handlers.GetBarrier(barriers, lg))
				rt.With(update).Put("/{id}", handlers.UpdateBarrier(barriers, lg, false))
				rt.With(update).Patch("/{id}", handlers.UpdateBarrier(barriers, lg, true))
				rt.With(del).Delete("/{id}", handlers.DeleteBarrier(barriers, lg))
				rt.With(can(auth.ActionOperate)).Post("/{id}/abrir", handlers.OpenBarrier(barriers, lg))
				rt.With(can(auth.ActionOperate)).Post("/{id}/cerrar", handlers.CloseBarrier(barriers, lg))
			})

			// Events are append-only: no PUT or PATCH.
			events := d.Services.Events
			p.Route("/eventos", func(rt chi.Router) {
				rt.With(read).Get("/", handlers.ListEvents(events, lg))
				rt.With(create).Post("/", handlers.CreateEvent(events, lg))
				rt.With(read).Get("/{id}", handlers.GetEvent(events, lg))
				rt.With(del).Delete("/{id}", handlers.DeleteEvent(events, lg))
			})
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
