package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	addressdomain "github.com/smallbiznis/scrapline/internal/address/domain"
	auditdomain "github.com/smallbiznis/scrapline/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/scrapline/internal/catalog/domain"
	"github.com/smallbiznis/scrapline/internal/config"
	dispatchdomain "github.com/smallbiznis/scrapline/internal/dispatch/domain"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	"github.com/smallbiznis/scrapline/internal/observability"
	obsmiddleware "github.com/smallbiznis/scrapline/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/scrapline/internal/observability/metrics"
	obstracing "github.com/smallbiznis/scrapline/internal/observability/tracing"
	partnerdomain "github.com/smallbiznis/scrapline/internal/partner/domain"
	ratingdomain "github.com/smallbiznis/scrapline/internal/rating/domain"
	settlementdomain "github.com/smallbiznis/scrapline/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(Identity())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	bookingSvc      bookingdomain.Service
	dispatchSvc     dispatchdomain.Service
	settlementSvc   settlementdomain.Service
	ratingSvc       ratingdomain.Service
	catalogSvc      catalogdomain.Service
	partnerSvc      partnerdomain.Service
	addressSvc      addressdomain.Service
	notificationSvc notificationdomain.Service
	auditSvc        auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	BookingSvc      bookingdomain.Service
	DispatchSvc     dispatchdomain.Service
	SettlementSvc   settlementdomain.Service
	RatingSvc       ratingdomain.Service
	CatalogSvc      catalogdomain.Service
	PartnerSvc      partnerdomain.Service
	AddressSvc      addressdomain.Service
	NotificationSvc notificationdomain.Service
	AuditSvc        auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log,
		bookingSvc:      p.BookingSvc,
		dispatchSvc:     p.DispatchSvc,
		settlementSvc:   p.SettlementSvc,
		ratingSvc:       p.RatingSvc,
		catalogSvc:      p.CatalogSvc,
		partnerSvc:      p.PartnerSvc,
		addressSvc:      p.AddressSvc,
		notificationSvc: p.NotificationSvc,
		auditSvc:        p.AuditSvc,
	}

	svc.registerAPIRoutes()
	svc.registerPartnerRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/catalog/categories", s.ListCategories)
	api.GET("/catalog/categories/:id", s.GetCategory)
	api.GET("/catalog/categories/:id/rate", s.GetActiveRate)
	api.GET("/catalog/categories/:id/rates", s.ListRates)

	api.GET("/addresses", s.ListMyAddresses)
	api.GET("/addresses/:id", s.GetAddress)

	api.POST("/bookings", s.CreateBooking)
	api.GET("/bookings", s.ListMyBookings)
	api.GET("/bookings/:id", s.GetBooking)
	api.POST("/bookings/:id/items", s.AddBookingItem)
	api.POST("/bookings/:id/confirm", s.ConfirmBooking)
	api.POST("/bookings/:id/cancel", s.CancelBooking)
	api.GET("/bookings/:id/payment", s.GetBookingPayment)
	api.POST("/bookings/:id/rating", s.SubmitRating)
	api.GET("/bookings/:id/rating", s.GetBookingRating)

	api.GET("/notifications", s.ListMyNotifications)
}

func (s *Server) registerPartnerRoutes() {
	partner := s.engine.Group("/api/partner", RequireRole("partner", "admin"))

	partner.GET("/bookings", s.ListAssignedBookings)
	partner.POST("/bookings/:id/accept", s.PartnerAcceptBooking)
	partner.POST("/bookings/:id/status", s.PartnerAdvanceBooking)
	partner.POST("/bookings/:id/items/:item_id/weight", s.RecordFinalWeight)
	partner.POST("/bookings/:id/settle", s.SettleBooking)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", RequireRole("admin"))

	admin.POST("/partners", s.CreatePartner)
	admin.GET("/partners", s.ListPartners)
	admin.GET("/partners/:id", s.GetPartner)
	admin.PATCH("/partners/:id/active", s.SetPartnerActive)
	admin.GET("/partners/:id/ratings", s.ListPartnerRatings)

	admin.POST("/catalog/rates", s.SetRate)

	admin.GET("/bookings", s.ListBookingsByStatus)
	admin.POST("/bookings/:id/assign", s.AutoAssignBooking)

	admin.GET("/audit-logs", s.ListAuditLogs)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
