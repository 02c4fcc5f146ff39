package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"fileshare/config"
	"fileshare/database"
	"fileshare/docs"
	"fileshare/handlers"
	"fileshare/logger"
	"fileshare/middleware"
	"fileshare/models"
	"fileshare/scheduler"
	"fileshare/services"
)

// @title File Share Server API
// @version 2.0
// @description 비밀번호 보호와 단축 링크를 지원하는 파일 공유 서버

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal("Invalid LOG_LEVEL: %v", err)
	}

	// 로거 초기화
	logConfig := logger.Config{
		Level:      level,
		LogDir:     cfg.LogDir,
		FilePrefix: "fileshare",
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,                // 7일
		UseColor:   !cfg.Production(),
		ShowCaller: false,
	}
	if err := logger.Initialize(logConfig); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}

	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Info("🚀 File Share Server Starting (%s)", cfg.AppEnv)
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if err := database.Initialize(database.Options{
		Type:              cfg.DBType,
		DSN:               cfg.DBDSN,
		StrictUniqueNames: cfg.StrictUniqueNames,
	}); err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 서비스 계층 초기화
	store := services.NewFileStore(services.NewSQLExecutor(database.DB))
	links := newLinkStrategy(cfg)
	detailsCache := services.NewDetailsCache(store, cfg.DetailsCacheSize, cfg.DetailsCacheTTL)
	prometheus.MustRegister(services.NewFileCountGauge(store))

	uploadService := services.NewUploadService(store, links, cfg.Origin(), cfg.UploadPin)
	downloadService := services.NewDownloadService(store, detailsCache, cfg.StagingDir)
	maintenanceService := services.NewMaintenanceService(cfg.StagingDir)

	if cfg.UploadPin == "" {
		logger.Warn("UPLOAD_PIN is not set; uploads larger than %d bytes will be rejected", services.UploadPinThreshold)
	}
	logger.WithFields(map[string]interface{}{
		"links":  links.Name(),
		"origin": cfg.Origin(),
	}).Info("Link strategy selected")

	// 다운로드 후 스테이징 정리
	cleanup := scheduler.NewCleanupScheduler(cfg.StagingDir, cfg.CleanupDelay, scheduler.Scope(cfg.CleanupScope))
	stopSweeper := scheduler.StartSweeper(cfg.StagingDir, cfg.StagingMaxAge, cfg.StagingMaxAge)

	fileHandler := handlers.NewFileHandler(
		uploadService,
		downloadService,
		detailsCache,
		maintenanceService,
		cleanup,
		int64(cfg.MaxUploadSize),
	)
	healthHandler := handlers.NewHealthHandler(database.DB)

	if u, err := url.Parse(cfg.Origin()); err == nil && u.Host != "" {
		docs.SwaggerInfo.Host = u.Host
	}

	// 라우터 설정
	mux := http.NewServeMux()

	// Swagger 문서
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", middleware.ChainMiddleware(
		homeHandler,
		middleware.LoggingMiddleware,
		middleware.CORSMiddleware,
	))
	mux.HandleFunc("/health", healthHandler.Health)

	// 파일 API
	mux.HandleFunc(handlers.FileRoutePrefix,
		middleware.ChainMiddleware(
			fileHandler.Route,
			middleware.RecoverMiddleware,
			middleware.LoggingMiddleware,
			middleware.MetricsMiddleware,
			middleware.CORSMiddleware,
		))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening on %s", server.Addr)
		logger.Info("Swagger UI: %s/swagger/index.html", cfg.Origin())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				logger.Info("Shutting down server...")
				err := server.Shutdown(ctx)
				// 진행 중이던 다운로드가 모두 끝난 뒤 남은 정리 작업을 실행한다.
				stopSweeper()
				cleanup.Flush()
				return err
			},
		},
	)

	exitCode := <-wait
	database.Close()
	logger.Info("Server stopped (exit code %d)", exitCode)
	os.Exit(exitCode)
}

// newLinkStrategy 운영 모드는 단축 URL, 개발 모드는 긴 링크를 그대로 쓴다.
func newLinkStrategy(cfg *config.Config) services.LinkStrategy {
	if cfg.Production() {
		return services.NewShortenedLink(cfg.ShortenerURL, cfg.AccessToken, cfg.ShortenerDomain, cfg.ShortenerTimeout)
	}
	return services.DirectLink{}
}

// homeHandler 루트 핸들러
func homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.Message("Not found"))
		return
	}
	json.NewEncoder(w).Encode(models.HealthResponse{
		Status:  "success",
		Message: "File Share Server",
		Version: handlers.Version,
	})
}
