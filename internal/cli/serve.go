package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/house-market/internal/alert"
	"github.com/evcraddock/house-market/internal/auth"
	"github.com/evcraddock/house-market/internal/bookmark"
	"github.com/evcraddock/house-market/internal/clock"
	"github.com/evcraddock/house-market/internal/config"
	"github.com/evcraddock/house-market/internal/email"
	"github.com/evcraddock/house-market/internal/geocode"
	"github.com/evcraddock/house-market/internal/logging"
	"github.com/evcraddock/house-market/internal/notify"
	"github.com/evcraddock/house-market/internal/property"
	"github.com/evcraddock/house-market/internal/upload"
	"github.com/evcraddock/house-market/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP API server and the alert scheduler. Settings come from HM_* environment variables and an optional .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, port, envFile)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: $HM_PORT or 8080)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "optional .env file to load")

	return cmd
}

func runServe(ctx context.Context, port int, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if port != 0 {
		cfg.Port = port
	}

	opts := logging.Options{DevMode: cfg.DevMode}
	if cfg.FluentBit.Enabled() {
		fc, err := logging.NewFluentClient(cfg.FluentBit.Host, cfg.FluentBit.Port, "hm")
		if err != nil {
			return fmt.Errorf("connecting to fluent bit: %w", err)
		}
		defer func() {
			if cerr := fc.Close(); cerr != nil {
				fmt.Fprintf(os.Stderr, "warning: closing fluent client: %v\n", cerr)
			}
		}()
		opts.Forward = logging.NewFluentHandler(fc, slog.LevelInfo)
	}
	logging.Setup(opts)

	database, err := openDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	props := property.NewRepository(database)
	propSvc, closeGeo := newPropertyService(ctx, cfg, props)
	defer closeGeo()

	mailer := email.NewMailer(email.SMTPConfig{
		Host: cfg.SMTP.Host,
		Port: cfg.SMTP.Port,
		User: cfg.SMTP.User,
		Pass: cfg.SMTP.Pass,
		From: cfg.SMTP.From,
	})
	if !mailer.Configured() {
		slog.Warn("SMTP not configured, emails will be logged instead")
	}

	push, err := notify.NewPush(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	defer func() {
		if cerr := push.Close(); cerr != nil {
			slog.Warn("closing push channel", "error", cerr)
		}
	}()

	inbox := notify.NewInbox(database)
	dispatcher := notify.NewDispatcher(inbox, notify.NewEmail(mailer), push)

	authSvc, err := auth.NewService(database, auth.Config{
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
		DevMode:   cfg.DevMode,
		BaseURL:   cfg.BaseURL,
	}, mailer)
	if err != nil {
		return fmt.Errorf("configuring auth: %w", err)
	}
	if err := authSvc.Sessions().Cleanup(); err != nil {
		slog.Warn("cleaning expired sessions", "error", err)
	}
	if err := authSvc.Revocations().Cleanup(); err != nil {
		slog.Warn("cleaning revoked tokens", "error", err)
	}

	passkeys, err := auth.NewPasskeys(cfg.BaseURL, auth.NewPasskeyStore(database), authSvc.Users())
	if err != nil {
		slog.Warn("passkeys disabled", "error", err)
		passkeys = nil
	}

	alerts := alert.NewRepository(database)
	checker := alert.NewChecker(alerts, props, authSvc.Users(), dispatcher, clock.Real(), cfg.BaseURL)
	scheduler := alert.NewScheduler(alerts, checker.Run, clock.Real(), cfg.ImmediateInterval)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("starting alert scheduler: %w", err)
	}
	defer scheduler.Stop()

	srv, err := web.NewServer(web.Deps{
		Auth:        authSvc,
		Passkeys:    passkeys,
		Properties:  propSvc,
		Bookmarks:   bookmark.NewRepository(database, props),
		Alerts:      alert.NewService(alerts, checker, scheduler),
		Inbox:       inbox,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	slog.Info("starting server",
		"port", cfg.Port,
		"base_url", cfg.BaseURL,
		"dev_mode", cfg.DevMode,
		"channels", dispatcher.Channels(),
	)
	return srv.ListenAndServe(ctx, cfg.Port)
}

// newPropertyService wires the optional geocoder and uploader. Integrations
// that are not configured are left out rather than failing startup.
func newPropertyService(ctx context.Context, cfg config.Config, props *property.Repository) (*property.Service, func()) {
	cleanup := func() {}

	var cache geocode.Cache
	if cfg.Redis.Addr != "" {
		rc := geocode.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password)
		if err := rc.Ping(ctx); err != nil {
			slog.Warn("geocode cache unreachable, continuing without it", "addr", cfg.Redis.Addr, "error", err)
		}
		cache = rc
		cleanup = func() {
			if err := rc.Close(); err != nil {
				slog.Warn("closing geocode cache", "error", err)
			}
		}
	}

	var geocoder property.Geocoder
	if gc, err := geocode.NewClient(cfg.Geocode.APIKey, cfg.Geocode.URL, cache); err == nil {
		geocoder = gc
	} else {
		slog.Warn("geocoding disabled", "error", err)
	}

	var uploader property.Uploader
	if up, err := upload.New(cfg.Upload.Cloud, cfg.Upload.Preset, cfg.Upload.URL); err == nil {
		uploader = up
	} else {
		slog.Warn("image uploads disabled", "error", err)
	}

	return property.NewService(props, geocoder, uploader), cleanup
}
