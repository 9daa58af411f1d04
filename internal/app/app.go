// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/inkwell/internal/auth"
	"github.com/hitoshi/inkwell/internal/comment"
	"github.com/hitoshi/inkwell/internal/config"
	"github.com/hitoshi/inkwell/internal/contact"
	"github.com/hitoshi/inkwell/internal/database"
	"github.com/hitoshi/inkwell/internal/email"
	"github.com/hitoshi/inkwell/internal/handler"
	"github.com/hitoshi/inkwell/internal/identity"
	"github.com/hitoshi/inkwell/internal/imagekit"
	"github.com/hitoshi/inkwell/internal/logger"
	"github.com/hitoshi/inkwell/internal/metrics"
	"github.com/hitoshi/inkwell/internal/middleware"
	"github.com/hitoshi/inkwell/internal/post"
	"github.com/hitoshi/inkwell/internal/repository"
	"github.com/hitoshi/inkwell/internal/security"
	"github.com/hitoshi/inkwell/internal/web"
	"github.com/hitoshi/inkwell/internal/webhook"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// Init はアプリケーションの初期化を行う。
// .envがあれば読み込んだ上で、環境変数からConfigを構築し、
// JSON構造化ログをセットアップする。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envの読み込み（ローカル開発用。存在しなくてもエラーにしない）
	_ = godotenv.Load()

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)
	contactRepo := repository.NewPostgresContactRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 横断サービスの初期化
	verifier, err := auth.NewVerifier(cfg.ClerkJWTPublicKey)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	svixVerifier, err := webhook.NewSvixVerifier(cfg.ClerkWebhookSecret)
	if err != nil {
		return fmt.Errorf("failed to create webhook verifier: %w", err)
	}

	sanitizer := security.NewContentSanitizer()
	provisioner := identity.NewService(userRepo)

	var mailer email.Mailer
	if cfg.SMTPHost != "" {
		mailer = email.NewSMTPMailer(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPUsername,
			To:       cfg.AdminEmail,
		})
	} else {
		slog.Warn("SMTP_HOST is not set, mail delivery disabled")
		mailer = email.NewDisabledMailer()
	}

	// 5. ドメインサービスの初期化
	postService := post.NewService(postRepo, userRepo, provisioner, sanitizer, collector)
	commentService := comment.NewService(commentRepo, postRepo, provisioner, sanitizer, collector)
	contactService := contact.NewService(contactRepo, mailer, sanitizer, collector)
	webhookService := webhook.NewService(svixVerifier, provisioner, collector)
	uploadSigner := imagekit.NewSigner(cfg.ImageKitPrivateKey)

	// 6. SPA配信の初期化
	webHandler, err := web.NewHandler(postRepo, cfg.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("failed to create web handler: %w", err)
	}

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(
		cfg.RateLimitGeneral, cfg.ContactRateLimit, cfg.ContactRateWindow,
	))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Verifier:          verifier,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		StatusCollector:   collector,

		PostService:    postService,
		UploadSigner:   uploadSigner,
		CommentService: commentService,
		ContactService: contactService,
		WebhookService: webhookService,

		DB:       db,
		Gatherer: registry,
		Web:      webHandler,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
