package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	authdomain "github.com/smallbiznis/reelgate/internal/auth/domain"
	"github.com/smallbiznis/reelgate/internal/config"
	ledgerdomain "github.com/smallbiznis/reelgate/internal/ledger/domain"
	"github.com/smallbiznis/reelgate/internal/observability"
	obsmiddleware "github.com/smallbiznis/reelgate/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/reelgate/internal/observability/metrics"
	obstracing "github.com/smallbiznis/reelgate/internal/observability/tracing"
	"github.com/smallbiznis/reelgate/internal/ocr"
	paymentdomain "github.com/smallbiznis/reelgate/internal/payment/domain"
	"github.com/smallbiznis/reelgate/internal/ratelimit"
	videogendomain "github.com/smallbiznis/reelgate/internal/videogen/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	verifier    authdomain.Verifier
	ledgerSvc   ledgerdomain.Service
	videogenSvc videogendomain.Service
	paymentSvc  paymentdomain.Service
	ocrSvc      *ocr.Service
	limiter     *ratelimit.GenerateLimiter
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Verifier    authdomain.Verifier
	LedgerSvc   ledgerdomain.Service
	VideogenSvc videogendomain.Service
	PaymentSvc  paymentdomain.Service
	OCRSvc      *ocr.Service
	Limiter     *ratelimit.GenerateLimiter `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		verifier:    p.Verifier,
		ledgerSvc:   p.LedgerSvc,
		videogenSvc: p.VideogenSvc,
		paymentSvc:  p.PaymentSvc,
		ocrSvc:      p.OCRSvc,
		limiter:     p.Limiter,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// Webhook authenticates by signature, not bearer token.
	v1.POST("/payments/webhook", s.HandlePaymentWebhook)

	v1.POST("/videos/generate", s.AuthRequired(), s.GenerateRateLimit(), s.GenerateVideo)
	v1.GET("/account", s.AuthRequired(), s.GetAccount)
	v1.POST("/payments/checkout-session", s.AuthRequired(), s.CreateCheckoutSession)
	v1.POST("/ocr", s.AuthRequired(), s.ParseImage)
}

func RunHTTP(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
