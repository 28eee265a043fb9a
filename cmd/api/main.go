package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/minwoo-kang/localstar-service/internal/config"
	"github.com/minwoo-kang/localstar-service/internal/handler"
	"github.com/minwoo-kang/localstar-service/internal/integrations/media"
	"github.com/minwoo-kang/localstar-service/internal/integrations/toss"
	"github.com/minwoo-kang/localstar-service/internal/middleware"
	"github.com/minwoo-kang/localstar-service/internal/regions"
	"github.com/minwoo-kang/localstar-service/internal/repository"
	"github.com/minwoo-kang/localstar-service/internal/service"
	"github.com/minwoo-kang/localstar-service/internal/utils/email"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if len(cfg.TossDecryptionKey) == 0 {
		logger.Warn("TOSS_DECRYPTION_KEY not set, PII fields will be stored as placeholders")
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Load region dataset
	regionIdx, err := regions.Load(cfg.RegionDataPath)
	if err != nil {
		logger.Fatalf("Failed to load region data: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	tossClient := toss.NewClient(cfg, logger)
	mediaClient := media.NewClient(cfg)
	sender := email.NewSender(cfg, logger)
	svc := service.NewService(repo, tossClient, mediaClient, sender, regionIdx, logger, cfg)
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.MetricsMiddleware())

	// Public routes
	r.HandleFunc("/auth/toss/login", h.TossLogin).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/toss/unlink", h.TossUnlink).Methods("POST", "OPTIONS")
	r.HandleFunc("/regions", h.Regions).Methods("GET", "OPTIONS")
	r.HandleFunc("/districts/{code}/influencers", h.Influencers).Methods("GET", "OPTIONS")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Member routes
	memberRouter := r.PathPrefix("/registrations").Subrouter()
	memberRouter.Use(middleware.AuthMiddleware(cfg))
	memberRouter.HandleFunc("", h.SubmitRegistration).Methods("POST", "OPTIONS")

	// Admin routes
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminMiddleware(cfg))
	adminRouter.HandleFunc("/registrations", h.ListRegistrations).Methods("GET")
	adminRouter.HandleFunc("/registrations/{id}/approve", h.ApproveRegistration).Methods("POST")
	adminRouter.HandleFunc("/registrations/{id}/reject", h.RejectRegistration).Methods("POST")

	// Hourly ranking recompute
	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() {
		if err := svc.RecomputeRanks(); err != nil {
			logger.Errorf("Rank recompute failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule rank recompute: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
