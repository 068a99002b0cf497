// Command spacelinkd is the demo harness for the priority scheduler and
// LDPC error-correction core: it loads configuration, wires logging,
// metrics, health monitoring and the adaptation controller into a
// Scheduler, optionally announces itself over mDNS, and runs until an
// interrupt or terminate signal triggers a graceful shutdown. Grounded on
// cmd/direwolf/main.go's pflag flag-group layout and pflag.Usage override.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/spacelinkd/corecomm/internal/adapt"
	"github.com/spacelinkd/corecomm/internal/buildinfo"
	"github.com/spacelinkd/corecomm/internal/clock"
	"github.com/spacelinkd/corecomm/internal/config"
	"github.com/spacelinkd/corecomm/internal/discovery"
	"github.com/spacelinkd/corecomm/internal/health"
	"github.com/spacelinkd/corecomm/internal/ldpccode"
	"github.com/spacelinkd/corecomm/internal/logging"
	"github.com/spacelinkd/corecomm/internal/metrics"
	"github.com/spacelinkd/corecomm/internal/scheduler"
)

func main() {
	var (
		configFile       = pflag.StringP("config-file", "c", "spacelinkd.yaml", "Configuration file name.")
		logLevel         = pflag.StringP("log-level", "d", "", "Log level (debug, info, warn, error). Overrides config.")
		timestampFormat  = pflag.StringP("timestamp-format", "T", "", "Precede log lines with a 'strftime' format time stamp.")
		enableDiscovery  = pflag.Bool("announce", false, "Announce this instance via mDNS/DNS-SD. Overrides config.")
		showVersion      = pflag.BoolP("version", "v", false, "Print version information and exit.")
		help             = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "spacelinkd - space-to-ground priority dispatch and LDPC core demo harness\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  spacelinkd [flags]\n\nFlags:\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	if *showVersion {
		fmt.Println(buildinfo.Read().String())
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spacelinkd: %v\n", err)
		os.Exit(1)
	}

	levelStr := cfg.LogLevel
	if *logLevel != "" {
		levelStr = *logLevel
	}
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		level = log.InfoLevel
	}
	logger := logging.New(os.Stderr, level)

	if *timestampFormat != "" {
		// Mirrors the teacher's kissutil.go -T flag: a strftime-pattern
		// banner timestamp, independent of the logger's own time format.
		if stamp, err := strftime.Format(*timestampFormat, time.Now()); err != nil {
			logger.Warn("invalid --timestamp-format, ignoring", "err", err)
		} else {
			fmt.Printf("[%s] spacelinkd starting\n", stamp)
		}
	}

	logger.Info("starting spacelinkd", "version", buildinfo.Read().String())

	realClock := clock.Real{}

	agg := metrics.New(logger, realClock.Now())

	// sched is assigned below, after health.NewMonitor; the cleanup closure
	// only runs once the scheduler is dispatching, by which point sched is
	// set.
	var sched *scheduler.Scheduler

	var mon *health.Monitor
	if cfg.EnablePerformanceMonitoring {
		mon = health.NewMonitor(health.NewRealProbe(), func() {
			logger.Warn("memory pressure cleanup triggered")
			if sched != nil {
				sched.TrimHistory(health.TrimmedHistoryCap)
			}
		})
	}

	schedCfg := scheduler.Config{
		MaxQueueSize:             cfg.MaxQueueSize,
		EnableAdaptiveScheduling: cfg.EnableAdaptiveScheduling,
		ShutdownGraceTimeout:     cfg.ShutdownGrace(),
	}
	sched = scheduler.New(schedCfg, realClock, logger, agg, mon)

	cacheMemoryLimitBytes := int64(cfg.MemoryLimitMB) * 1024 * 1024
	cache := ldpccode.NewCache(realClock, rand.New(rand.NewSource(1)), cacheMemoryLimitBytes)
	var adaptCtl *adapt.Controller
	if cfg.EnableAdaptiveMode {
		adaptCtl = adapt.New(realClock, cache, cfg.CodeParameters())
		logger.Info("adaptive error-correction mode enabled", "initial_mode", adaptCtl.CurrentMode())
		sched.SetConditionProvider(adaptCtl.CurrentCondition)
	}

	sched.StartDispatchLoops()
	sched.StartMaintenanceLoop()

	var announcer *discovery.Announcer
	if *enableDiscovery || cfg.EnableDiscovery {
		ctx := context.Background()
		a, err := discovery.Announce(ctx, logger, cfg.ServiceName, cfg.ControlPlanePort)
		if err != nil {
			logger.Warn("dns-sd announce failed, continuing without it", "err", err)
		} else {
			announcer = a
		}
	}

	logger.Info("spacelinkd running", "max_queue_size", cfg.MaxQueueSize, "control_plane_port", cfg.ControlPlanePort)

	waitForSignal(logger)

	logger.Info("shutting down")
	if announcer != nil {
		announcer.Shutdown()
	}
	sched.Shutdown()

	snapshot := agg.Snapshot(realClock.Now())
	logger.Info("final metrics",
		"total_messages", snapshot.TotalMessages,
		"uptime_seconds", snapshot.UptimeSeconds,
		"channel_condition", snapshot.ChannelCondition.String(),
	)
}

func waitForSignal(logger *log.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal", "signal", sig.String())
}
