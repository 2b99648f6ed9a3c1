package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	v1 "github.com/spiritgear-io/spiritgear/internal/api/v1"
	"github.com/spiritgear-io/spiritgear/internal/auth"
	"github.com/spiritgear-io/spiritgear/internal/comms"
	"github.com/spiritgear-io/spiritgear/internal/config"
	"github.com/spiritgear-io/spiritgear/internal/database"
	"github.com/spiritgear-io/spiritgear/internal/mail/inbound"
	"github.com/spiritgear-io/spiritgear/internal/mail/outbound"
	"github.com/spiritgear-io/spiritgear/internal/models"
	"github.com/spiritgear-io/spiritgear/internal/repository"
	"github.com/spiritgear-io/spiritgear/internal/service"
)

var (
	version = "dev"

	configPathFlag string
)

var rootCmd = &cobra.Command{
	Use:     "spiritgear",
	Short:   "Spiritgear school merchandise platform",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	RunE:  runServe,
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin user for the dashboard",
	RunE:  runCreateAdmin,
}

var (
	adminEmailFlag    string
	adminNameFlag     string
	adminPasswordFlag string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to config yaml (optional)")

	createAdminCmd.Flags().StringVar(&adminEmailFlag, "email", "", "Admin email address")
	createAdminCmd.Flags().StringVar(&adminNameFlag, "name", "", "Admin display name")
	createAdminCmd.Flags().StringVar(&adminPasswordFlag, "password", "", "Admin password")
	createAdminCmd.MarkFlagRequired("email")
	createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPathFlag)
	if err != nil {
		return err
	}
	logger := log.New(os.Stdout, "[spiritgear] ", log.LstdFlags)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	storage, err := service.NewLocalStorageService(cfg.Storage.BasePath)
	if err != nil {
		return err
	}

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	commRepo := repository.NewCommunicationRepository(db)
	proofRepo := repository.NewProofRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	mailer := outbound.NewSMTPMailer(outbound.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		UseTLS:   cfg.SMTP.UseTLS,
	}, logger)
	sender := comms.NewSender(commRepo, mailer, cfg.Inbound.Domain, logger)
	normalizer := inbound.NewNormalizer(storage, inbound.WithNormalizerLogger(logger))
	recorder := comms.NewRecorder(normalizer, commRepo, orderRepo,
		comms.WithRecorderLogger(logger))

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required; set SPIRITGEAR_AUTH_JWT_SECRET")
	}
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)

	orderSvc := service.NewOrderService(orderRepo, productRepo)

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	api := v1.NewAPIRouter(engine, v1.Deps{
		Catalog:    service.NewCatalogService(productRepo),
		Orders:     orderSvc,
		Proofs:     service.NewProofService(proofRepo, orderSvc, storage, sender),
		Reports:    service.NewReportService(orderRepo, commRepo, proofRepo),
		Storage:    storage,
		CommRepo:   commRepo,
		Admins:     adminRepo,
		Recorder:   recorder,
		Sender:     sender,
		JWTManager: jwtManager,
		Logger:     logger,
	})
	api.SetupRoutes()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Printf("server stopped")
	return nil
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPathFlag)
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := auth.HashPassword(adminPasswordFlag)
	if err != nil {
		return err
	}
	name := adminNameFlag
	if name == "" {
		name = adminEmailFlag
	}
	admin := &models.AdminUser{
		ID:           uuid.NewString(),
		Email:        adminEmailFlag,
		Name:         name,
		PasswordHash: hash,
		Role:         "admin",
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repository.NewAdminRepository(db).Create(cmd.Context(), admin); err != nil {
		return err
	}
	fmt.Printf("created admin %s (%s)\n", admin.Email, admin.ID)
	return nil
}
