package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"daygrid/internal/capture"
	"daygrid/internal/config"
	"daygrid/internal/layout"
	applog "daygrid/internal/log"
	"daygrid/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	date       string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		applog.SetLevel(applog.LevelDebug)
	}
	applog.Info("daygrid starting", "config_path", flags.configPath)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		applog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	applog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"start_hour", conf.Window.StartHour,
		"total_hours", conf.Window.TotalHours,
		"policy", conf.Style.Policy,
		"ics_count", len(conf.ICS),
	)

	stateDir := "/var/lib/daygrid"
	if flags.debug {
		stateDir = "./cache"
	}
	cacheDir := filepath.Join(stateDir, "ics-cache")
	previewPath := filepath.Join(stateDir, "preview.png")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		applog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	server := web.NewServer(conf, cacheDir, previewPath, flags.debug)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- web.StartServer(ctx, server)
	}()

	if flags.once {
		// Give the server a moment to bind before the capture hits it.
		time.Sleep(300 * time.Millisecond)
		if err := runCapture(ctx, conf, previewPath, flags.date); err != nil {
			applog.Error("capture failed", err)
			os.Exit(1)
		}
		applog.Info("single-shot capture done", "output", previewPath)
		return
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(conf.RefreshCron, func() {
		if err := runCapture(ctx, conf, previewPath, ""); err != nil {
			applog.Error("scheduled capture failed", err)
		}
	})
	if err != nil {
		applog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			applog.Error("http server stopped", err)
			os.Exit(1)
		}
	}
	applog.Info("daygrid exiting")
}

// runCapture screenshots the /day page into previewPath. The viewport
// height follows the configured day window so the whole grid fits.
func runCapture(ctx context.Context, conf *config.Config, previewPath, date string) error {
	window := conf.DayWindowFor()
	axis := layout.NewTimeAxis(window, conf.LayoutStyle())

	url := "http://" + conf.Listen + "/day"
	if conf.BasicAuth != nil && conf.BasicAuth.Username != "" {
		url = "http://" + conf.BasicAuth.Username + ":" + conf.BasicAuth.Password +
			"@" + conf.Listen + "/day"
	}
	if date != "" {
		url += "?date=" + date
	}

	return capture.DayPNG(ctx, capture.Options{
		URL:        url,
		OutputPath: previewPath,
		Width:      int(conf.Width),
		Height:     int(axis.RowHeight()),
	})
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/daygrid/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.date, "date", "", "Day to capture in YYYY-MM-DD (with -once; default today)")
	flag.BoolVar(&cfg.once, "once", false, "Run one render+capture cycle and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug logging and local ./cache state dir")

	flag.Parse()

	return cfg
}
