package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"clinic-scheduler/internal/auth"
	"clinic-scheduler/internal/middleware"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Identity *service.Identity
	Users    *service.Users
	Ledger   *service.Ledger
	Bookings *service.Bookings
	Gate     *service.Gate
	Issuer   *auth.Issuer
	Limiter  *middleware.RateLimiter
	Metrics  *middleware.Metrics
	Store    Pinger
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	return &Handler{Deps: d}
}

// NewServer builds the echo instance with the middleware stack and every
// route registered.
func NewServer(h *Handler, log zerolog.Logger, corsOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		h.Metrics.Middleware(),
		middleware.Recovery(log),
		echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, middleware.RequestIDHeader},
			AllowCredentials: true,
		}),
	)
	h.RegisterRoutes(e)
	return e
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(h.Metrics.Handler()))

	authn := middleware.Authenticate(h.Issuer)
	anyRole := middleware.RequireRoles(h.Gate, model.RoleAdmin, model.RoleClient, model.RoleDoctor)
	admin := middleware.RequireRoles(h.Gate, model.RoleAdmin)
	doctor := middleware.RequireRoles(h.Gate, model.RoleDoctor)
	client := middleware.RequireRoles(h.Gate, model.RoleClient)

	a := e.Group("/auth")
	a.POST("/signup", h.Signup, middleware.RateLimit(h.Limiter))
	a.POST("/login", h.Login, middleware.RateLimit(h.Limiter))
	a.GET("/refresh", h.Refresh, middleware.RateLimit(h.Limiter))
	a.GET("/user/me", h.Me, authn, anyRole)
	a.POST("/logout", h.Logout, authn)

	u := e.Group("/users", authn)
	u.GET("", h.ListClients, admin)
	u.GET("/doctors", h.ListDoctors, middleware.RequireRoles(h.Gate, model.RoleAdmin, model.RoleClient))
	u.GET("/:id", h.GetUser, anyRole)
	u.PUT("/:id", h.UpdateUser, anyRole)
	u.DELETE("/:id", h.DeleteUser, anyRole)

	adm := e.Group("/admin/users", authn, admin)
	adm.GET("", h.ListUsers)
	adm.PUT("/block/:id", h.ToggleBlock)

	ap := e.Group("/appointments", authn, anyRole)
	ap.GET("", h.ListAppointments)
	ap.GET("/:id", h.GetAppointment)
	ap.POST("", h.CreateAppointment, client)
	ap.PUT("/cancel/:id", h.CancelAppointment, middleware.RequireRoles(h.Gate, model.RoleDoctor, model.RoleClient))
	ap.PUT("/status/:id", h.UpdateAppointmentStatus, doctor)

	av := e.Group("/availability", authn, anyRole)
	av.GET("", h.ListAvailability)
	av.GET("/:id", h.GetAvailability)
	av.POST("", h.CreateAvailability, doctor)
	av.PUT("/:id", h.UpdateAvailability, doctor)
	av.DELETE("/:id", h.DeleteAvailability, middleware.RequireRoles(h.Gate, model.RoleAdmin, model.RoleDoctor))
}

func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

type message struct {
	Msg string `json:"msg"`
}
