package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/redis/v3"
	"github.com/netdash/authcore/internal/audit"
	"github.com/netdash/authcore/internal/config"
	"github.com/netdash/authcore/internal/handlers/api"
	"github.com/netdash/authcore/internal/lockout"
	"github.com/netdash/authcore/internal/mail"
	"github.com/netdash/authcore/internal/middlewares"
	"github.com/netdash/authcore/internal/session"
	"github.com/netdash/authcore/internal/store"
	"github.com/netdash/authcore/internal/users"
	"github.com/netdash/authcore/params"
	"github.com/urfave/cli/v2"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "authcore - authentication and session-security service for the NetDash dashboard"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitStorageBackend(storageCfg config.StorageConfig) store.Backend {
	switch storageCfg.Backend {
	case "memory":
		return memory.New()
	case "redis":
		return redis.New(redis.Config{
			URL:      storageCfg.Redis.URL,
			PoolSize: storageCfg.Redis.PoolSize,
		})
	default:
		slog.Error("Unsupported storage backend", "backend", storageCfg.Backend)
		os.Exit(1)
		return nil
	}
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	if mailCfg.Backend == "" {
		return mail.NullSender{}
	}
	if mailCfg.Backend == "smtp" {
		sender, err := mail.NewSMTPMailSender(mail.SMTPConfig{
			Host:     mailCfg.SMTP.Host,
			Port:     mailCfg.SMTP.Port,
			Username: mailCfg.SMTP.Username,
			Password: mailCfg.SMTP.Password,
			TLS:      mailCfg.SMTP.TLS,
			CertFile: mailCfg.SMTP.CertFile,
			KeyFile:  mailCfg.SMTP.KeyFile,
			CAFile:   mailCfg.SMTP.CAFile,
		}, mailCfg.From)
		if err != nil {
			slog.Error("Failed to initialize SMTP mail sender", "error", err)
			os.Exit(1)
		}
		return sender
	}
	slog.Error("Unsupported mail sender backend", "backend", mailCfg.Backend)
	os.Exit(1)
	return nil
}

func setupAPIRoutes(
	router fiber.Router,
	sessionManager *session.Manager,
	userService *users.UserService,
	auditor *audit.Recorder,
	mailSender mail.MailSender,
	cfg *config.Config) {

	// handlers
	var (
		authHandler      = api.NewAuthHandler(sessionManager)
		accountHandler   = api.NewAccountHandler(sessionManager, mailSender, cfg.SiteName, cfg.BaseURL, cfg.Mail.AlertsTo)
		twoFactorHandler = api.NewTwoFactorHandler(sessionManager)
		adminHandler     = api.NewAdminHandler(userService, auditor)
	)

	// routes
	root := router.Group("/api")
	root.Use(api.ActivityTracker(sessionManager))
	root.Post("/login", authHandler.PostLogin)
	root.Post("/2fa/verify", authHandler.PostVerifyChallenge)
	root.Post("/2fa/cancel", authHandler.PostCancelChallenge)
	root.Post("/logout", authHandler.PostLogout)
	root.Get("/session", authHandler.GetSession)
	root.Post("/forgot-password", accountHandler.PostForgotPassword)
	root.Post("/reset-password", accountHandler.PostResetPassword)

	authed := root.Group("", api.RequireAuth(sessionManager))
	authed.Post("/account/change-password", accountHandler.PostChangePassword)
	authed.Post("/2fa/enroll/begin", twoFactorHandler.PostEnrollBegin)
	authed.Post("/2fa/enroll/confirm", twoFactorHandler.PostEnrollConfirm)
	authed.Post("/2fa/disable", twoFactorHandler.PostDisable)

	admin := root.Group("/admin", api.RequireAdmin(sessionManager))
	admin.Get("/users", adminHandler.GetUsers)
	admin.Post("/users", adminHandler.PostCreateUser)
	admin.Post("/users/:username/toggle", adminHandler.PostToggleUser)
	admin.Delete("/users/:username", adminHandler.DeleteUser)
	admin.Post("/users/:username/mfa/reset", twoFactorHandler.PostResetMfa)
	admin.Get("/audit", adminHandler.GetAuditLogs)
	admin.Delete("/audit", adminHandler.DeleteAuditLogs)
}

func run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))

	if cfg.MasterKey == "" {
		slog.Error("Missing masterKey in config")
		os.Exit(1)
	}

	backend := mustInitStorageBackend(cfg.Storage)
	storage := store.NewJSONStorage(backend)
	mailSender := mustInitMailSender(cfg.Mail)

	// repositories
	var (
		userRepo = users.NewUserRepository(storage)
		mfaRepo  = users.NewMfaRepository(storage)
	)

	// services
	var (
		userService = users.NewUserService(userRepo, mfaRepo, storage)
		auditor     = audit.NewRecorder(storage)
		tracker     = lockout.NewTracker(cfg.Lockout.MaxAttempts, cfg.Lockout.Window)
	)
	sessionManager := session.NewManager(userService, tracker, auditor, session.Config{
		Issuer:      cfg.SiteName,
		MasterKey:   cfg.MasterKey,
		IdleTimeout: cfg.Session.IdleTimeout,
	})
	defer sessionManager.Close()

	if err := userService.EnsureSeedUsers(ctx.Context); err != nil {
		slog.Error("Failed to seed bootstrap users", "error", err)
		return err
	}

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New())

	setupAPIRoutes(router, sessionManager, userService, auditor, mailSender, cfg)

	healthCheckCtx, term := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	go startHealthCheckServer(healthCheckCtx, done, backend)
	defer func() {
		term()
		<-done
	}()
	return router.Listen(cfg.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
