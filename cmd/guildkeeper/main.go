package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guildkeeper/config"
	"guildkeeper/internal/adapters/auth"
	"guildkeeper/internal/adapters/email"
	"guildkeeper/internal/adapters/when2meet"
	"guildkeeper/internal/dates"
	"guildkeeper/internal/delivery/discord"
	httpdelivery "guildkeeper/internal/delivery/http"
	"guildkeeper/internal/delivery/http/controllers"
	"guildkeeper/internal/domain"
	"guildkeeper/internal/repository/postgres"
	"guildkeeper/internal/services"
	"guildkeeper/internal/timezones"
)

func main() {
	if len(os.Args) > 1 {
		if err := runTokenCommand(os.Args[1:], os.Stdin, os.Stdout, time.Now()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		return
	}

	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("guildkeeper stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	guildRepo := postgres.NewGuildRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailerProvider,
		FromAddress: cfg.MailerFromAddress,
		FromName:    cfg.MailerFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.AWSInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	alerts := services.NewAlertService(mailer, email.NewTemplateRenderer(), cfg.AlertEmail, logger)

	schedulerClient := when2meet.NewClient(&http.Client{Timeout: cfg.SchedulerHTTPTimeout}, cfg.SchedulerBaseURL, logger)

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	platform := discord.NewPlatform(session)

	schedulerService := services.NewSchedulerService(guildRepo, schedulerClient, platform, alerts, logger, cfg.ContextTimeout)
	provisioningService := services.NewProvisioningService(guildRepo, platform, logger, cfg.ContextTimeout)

	defaultLoc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return err
	}
	window := dates.NewRollingWindow(dates.SystemClock, cfg.WizardRows, cfg.WizardDaysPerRow)
	warmer, err := dates.NewWarmer(window, defaultLoc, logger)
	if err != nil {
		return err
	}
	warmer.Start()
	defer warmer.Stop()

	bot := discord.New(session, schedulerService, provisioningService, window, timezones.Default(), discord.Options{
		DefaultTimezone: cfg.DefaultTimezone,
		WizardTimeout:   cfg.WizardTimeout,
		DebugGuilds:     cfg.DebugGuilds,
	}, logger)
	if err := bot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := bot.Close(); err != nil {
			logger.Warn("discord session close failed", "err", err)
		}
	}()

	verifier, err := opsVerifier(cfg)
	if err != nil {
		return err
	}
	mux := httpdelivery.NewRouter(
		controllers.NewHealthController(logger, db),
		controllers.NewGuildController(logger, schedulerService, provisioningService),
		verifier,
		logger,
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpdelivery.NewHandler(mux, cfg.CORSAllowedOrigins, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// opsVerifier accepts the hashed shared token and JWTs, whichever are configured.
func opsVerifier(cfg *config.Config) (domain.TokenVerifier, error) {
	var hashed, signed domain.TokenVerifier
	if cfg.OpsTokenHash != "" {
		v, err := auth.NewHashedTokenVerifier(cfg.OpsTokenHash)
		if err != nil {
			return nil, err
		}
		hashed = v
	}
	if cfg.OpsJWTSecret != "" {
		signed = auth.NewJWTVerifier(cfg.OpsJWTSecret)
	}
	return auth.AnyOf(hashed, signed), nil
}
