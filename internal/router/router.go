package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appointmenth "github.com/qtrack/clinic-api/internal/handler/appointment"
	authh "github.com/qtrack/clinic-api/internal/handler/auth"
	healthh "github.com/qtrack/clinic-api/internal/handler/health"
	invoiceh "github.com/qtrack/clinic-api/internal/handler/invoice"
	medicineh "github.com/qtrack/clinic-api/internal/handler/medicine"
	patienth "github.com/qtrack/clinic-api/internal/handler/patient"
	prescriptionh "github.com/qtrack/clinic-api/internal/handler/prescription"
	queueh "github.com/qtrack/clinic-api/internal/handler/queue"
	staffh "github.com/qtrack/clinic-api/internal/handler/staff"
	"github.com/qtrack/clinic-api/internal/middleware"
	"github.com/qtrack/clinic-api/internal/model"
)

// Handlers bundles every resource handler the router mounts.
type Handlers struct {
	Auth         *authh.Handler
	Appointment  *appointmenth.Handler
	Queue        *queueh.Handler
	Patient      *patienth.Handler
	Prescription *prescriptionh.Handler
	Medicine     *medicineh.Handler
	Invoice      *invoiceh.Handler
	Staff        *staffh.Handler
	Health       *healthh.Handler
}

type Config struct {
	Mode           string
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	MetricsPrefix  string
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config Config) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	registerValidators()

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
	)

	engine.Use(middleware.CORS(config.AllowedOrigins))

	if config.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
		engine.Use(limiter.Handle())
	}

	return r
}

// registerValidators wires the dateonly binding tag used by request
// structs carrying plain YYYY-MM-DD dates.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
			return model.ValidDate(fl.Field().String())
		})
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	r.handlers.Health.RegisterRoutes(api)
	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", r.handlers.Auth.Register)
		auth.POST("/login", r.handlers.Auth.Login)
		auth.POST("/refresh", r.handlers.Auth.Refresh)
		auth.POST("/logout", r.handlers.Auth.Logout)
		auth.GET("/verify-email", r.handlers.Auth.VerifyEmail)
		auth.POST("/forgot-password", r.handlers.Auth.ForgotPassword)
		auth.POST("/reset-password", r.handlers.Auth.ResetPassword)
	}

	// The waiting-room display carries token numbers only, so it needs
	// no session.
	display := rg.Group("/display")
	{
		display.GET("/board", r.handlers.Queue.Board)
		display.GET("/stream", r.handlers.Queue.Stream)
	}
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	doctorOnly := r.auth.RequireRole(model.StaffRoleDoctor)
	deskOnly := r.auth.RequireRole(model.StaffRoleReceptionist)

	appointments := rg.Group("/appointments")
	{
		appointments.POST("", r.handlers.Appointment.Create)
		appointments.GET("", r.handlers.Appointment.List)
		appointments.GET("/:id", r.handlers.Appointment.Get)
		appointments.PUT("/:id", r.handlers.Appointment.Update)
		appointments.DELETE("/:id", deskOnly, r.handlers.Appointment.Delete)

		appointments.POST("/:id/token", r.handlers.Queue.GenerateToken)
		appointments.POST("/:id/complete", r.handlers.Queue.Complete)
		appointments.POST("/:id/cancel", r.handlers.Queue.Cancel)
	}

	queue := rg.Group("/queue")
	{
		queue.GET("", r.handlers.Queue.Snapshot)
		queue.POST("/call-next", r.handlers.Queue.CallNext)
	}

	patients := rg.Group("/patients")
	{
		patients.GET("", r.handlers.Patient.List)
		patients.GET("/search", r.handlers.Patient.Search)
	}

	prescriptions := rg.Group("/prescriptions")
	{
		prescriptions.POST("", doctorOnly, r.handlers.Prescription.Create)
		prescriptions.GET("/draft", doctorOnly, r.handlers.Prescription.Draft)
		prescriptions.GET("", r.handlers.Prescription.List)
		prescriptions.GET("/:id", r.handlers.Prescription.Get)
		prescriptions.PUT("/:id", doctorOnly, r.handlers.Prescription.Update)
		prescriptions.DELETE("/:id", doctorOnly, r.handlers.Prescription.Delete)
	}

	medicines := rg.Group("/medicines")
	{
		medicines.POST("", r.handlers.Medicine.Create)
		medicines.GET("", r.handlers.Medicine.List)
		medicines.GET("/:id", r.handlers.Medicine.Get)
		medicines.PUT("/:id", r.handlers.Medicine.Update)
		medicines.DELETE("/:id", r.handlers.Medicine.Delete)
	}

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", deskOnly, r.handlers.Invoice.Create)
		invoices.GET("", r.handlers.Invoice.List)
		invoices.GET("/:id", r.handlers.Invoice.Get)
		invoices.POST("/:id/payments", deskOnly, r.handlers.Invoice.RecordPayment)
		invoices.GET("/:id/payments", r.handlers.Invoice.ListPayments)
		invoices.DELETE("/:id", deskOnly, r.handlers.Invoice.Delete)
	}

	staff := rg.Group("/staff")
	{
		staff.GET("/me", r.handlers.Staff.Me)
		staff.GET("/doctors", r.handlers.Staff.ListDoctors)
		staff.GET("", r.handlers.Staff.List)
		staff.PUT("/:id", r.handlers.Staff.Update)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	if prefix == "" {
		prefix = "clinic_api"
	}
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
