package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"intake-triage/internal/application"
	"intake-triage/internal/application/actionrouter"
	"intake-triage/internal/application/agents"
	apppipeline "intake-triage/internal/application/pipeline"
	"intake-triage/internal/config"
	domaudit "intake-triage/internal/domain/audit"
	domfaults "intake-triage/internal/domain/faults"
	actionsinfra "intake-triage/internal/infra/actions"
	aiopenai "intake-triage/internal/infra/ai/openai"
	mysqlp "intake-triage/internal/infra/db/mysql"
	postgresp "intake-triage/internal/infra/db/postgres"
	"intake-triage/internal/infra/docextract"
	"intake-triage/internal/infra/events"
	"intake-triage/internal/infra/httpserver"
	minioStore "intake-triage/internal/infra/storage"
	"intake-triage/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database (audit store + fault journal)
	var db *sql.DB
	var auditStore domaudit.Store
	var faultRepo domfaults.Repository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		auditStore = postgresp.NewAuditRepository(db)
		faultRepo = postgresp.NewFaultRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		auditStore = mysqlp.NewAuditRepository(db)
		faultRepo = mysqlp.NewFaultRepository(db)
	}
	defer db.Close()

	// classifier port
	classifier := aiopenai.NewClient(cfg.Classifier.APIKey, cfg.Classifier.Model)

	// action dispatcher
	dispatcher := actionsinfra.NewHTTPDispatcher(actionsinfra.Endpoints{
		Escalate:  cfg.Actions.EscalateURL,
		RiskAlert: cfg.Actions.RiskAlertURL,
		Log:       cfg.Actions.LogURL,
	}, cfg.DispatchTimeout(), cfg.Actions.AsyncWorkers)

	clock := application.SystemClock{}

	// analyzers
	emailAgent := agents.NewEmailAgent(classifier, dispatcher, clock, cfg.Analyzers.UrgencyKeywords)
	recordAgent, err := agents.NewRecordAgent(dispatcher, clock)
	if err != nil {
		log.Fatalf("record agent init error: %v", err)
	}
	documentAgent := agents.NewDocumentAgent(
		docextract.NewPDFExtractor(),
		dispatcher,
		clock,
		cfg.Analyzers.ComplianceTerms,
		cfg.Analyzers.RiskTotalThreshold,
	)

	// pipeline service
	svc := &apppipeline.Service{
		Classifier:      classifier,
		Email:           emailAgent,
		Record:          recordAgent,
		Document:        documentAgent,
		Router:          actionrouter.NewRouter(dispatcher, clock),
		Audit:           auditStore,
		Faults:          faultRepo,
		Clock:           clock,
		ClassifyTimeout: cfg.ClassifierTimeout(),
	}

	// optional intake archive
	if cfg.Archive.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Archive.Endpoint,
			cfg.Archive.Region,
			cfg.Archive.BucketName,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		svc.Archive = store
	}

	// optional audit event stream
	if cfg.Events.Enabled {
		producer := events.NewProducer(cfg.Events.Brokers, cfg.Events.Topic)
		defer producer.Close()
		svc.Events = producer
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Mount("/", httpserver.NewRouter(svc, auditStore, faultRepo))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
