//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ja7ad/scout/pkg/config"
	"github.com/ja7ad/scout/pkg/monitor"
	"github.com/ja7ad/scout/pkg/system/cgroup"
	"github.com/ja7ad/scout/pkg/system/netif"
	"github.com/ja7ad/scout/pkg/system/proc"
	"github.com/ja7ad/scout/pkg/transport"
)

var debug bool

type runOpts struct {
	configPath  string
	id          string
	cgroupPath  string
	group       string
	iface       string
	interval    time.Duration
	blkio       bool
	listen      string
	metricsAddr string
}

func main() {
	root := &cobra.Command{
		Use:   "scout",
		Short: "Per-container resource telemetry agent",
		Long: `Scout samples the cgroup v1 accounting counters of one container (CPU,
memory, block I/O) together with a network interface, and pushes a
MetricReport to every peer that subscribed to it.

* GitHub: https://github.com/ja7ad/scout

Examples:
  scout run --group docker/3f1c2b --interface auto --listen 0.0.0.0:7070
  scout listen --target 10.0.0.5:7070`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "development logging with debug verbosity")

	root.AddCommand(newRunCmd(), newListenCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var o runOpts
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sample a cgroup and serve subscribers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, o)
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			return run(cmd.Context(), logger, cfg)
		},
	}

	def := config.Default()
	cmd.Flags().StringVarP(&o.configPath, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVar(&o.id, "id", def.ID, "id reported in every MetricReport")
	cmd.Flags().StringVar(&o.cgroupPath, "cgroup-path", def.CgroupPath, "cgroup v1 mount point")
	cmd.Flags().StringVarP(&o.group, "group", "g", def.Group, "cgroup group under each controller")
	cmd.Flags().StringVar(&o.iface, "interface", def.Interface,
		fmt.Sprintf("network interface to sample, %q picks the first %s* interface", config.AutoInterface, config.DefaultInterfacePrefix))
	cmd.Flags().DurationVarP(&o.interval, "interval", "i", def.Interval(), "sampling interval (e.g. 2s, 500ms)")
	cmd.Flags().BoolVar(&o.blkio, "blkio", def.Blkio, "sample blkio.io_service_bytes")
	cmd.Flags().StringVarP(&o.listen, "listen", "l", def.Listen, "UDP address subscribers send to")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", def.MetricsAddr, "serve Prometheus metrics on this address (empty disables)")
	return cmd
}

// resolveConfig loads the optional file and applies the flags the user set.
func resolveConfig(cmd *cobra.Command, o runOpts) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}

	set := cmd.Flags().Changed
	if set("id") {
		cfg.ID = o.id
	}
	if set("cgroup-path") {
		cfg.CgroupPath = o.cgroupPath
	}
	if set("group") {
		cfg.Group = o.group
	}
	if set("interface") {
		cfg.Interface = o.iface
	}
	if set("interval") {
		cfg.IntervalMS = o.interval.Milliseconds()
	}
	if set("blkio") {
		cfg.Blkio = o.blkio
	}
	if set("listen") {
		cfg.Listen = o.listen
	}
	if set("metrics-addr") {
		cfg.MetricsAddr = o.metricsAddr
	}
	return cfg, cfg.Validate()
}

func newLogger() (logr.Logger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if debug {
		zc := zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(-2)
		zl, err = zc.Build()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return logr.Discard(), fmt.Errorf("logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}

func run(ctx context.Context, logger logr.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticks, err := proc.ClockTicks()
	if err != nil {
		return fmt.Errorf("clock ticks: %w", err)
	}

	checkCgroups(logger, cfg)
	iface := resolveInterface(logger, cfg.Interface)
	printBanner(cfg, iface)

	tr, err := transport.ListenUDP(ctx, logger, cfg.Listen)
	if err != nil {
		return err
	}
	defer func() {
		_ = tr.Close()
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitor.NewMetrics(reg, cfg.ID)
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(logger, cfg.MetricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	mon := monitor.New(logger, cfg.Monitor(iface, ticks), tr, monitor.TickerScheduler{}, metrics)
	mon.Start()
	if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}

// checkCgroups only warns: the samplers fall back per counter, so a missing
// hierarchy degrades reports instead of stopping the agent.
func checkCgroups(logger logr.Logger, cfg config.Config) {
	version, detail, err := cgroup.Detect()
	if err != nil {
		logger.Info("cgroup detection failed", "err", err.Error())
		return
	}
	logger.V(1).Info("cgroup mounts", "version", version.String(), "detail", detail)
	if !version.HasV1Counters() {
		logger.Info("cgroup v1 controllers not mounted, cpu/memory/blkio will report zeros", "version", version.String())
		return
	}

	controllers := []string{cgroup.CPU, cgroup.Memory}
	if cfg.Blkio {
		controllers = append(controllers, cgroup.Blkio)
	}
	if err := cgroup.CheckGroup(cfg.CgroupPath, cfg.Group, controllers...); err != nil {
		logger.Info("cgroup group not found", "group", cfg.Group, "err", err.Error())
	}
}

// resolveInterface expands config.AutoInterface. An interface that is not up
// yet is not an error; network sampling is simply skipped.
func resolveInterface(logger logr.Logger, iface string) string {
	if iface != config.AutoInterface {
		return iface
	}
	name, err := netif.Find(config.DefaultInterfacePrefix)
	if err != nil {
		logger.Info("no interface found, network sampling disabled", "prefix", config.DefaultInterfacePrefix, "err", err.Error())
		return ""
	}
	logger.V(1).Info("interface selected", "interface", name)
	return name
}

func serveMetrics(logger logr.Logger, addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "metrics server stopped", "addr", addr)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func printBanner(cfg config.Config, iface string) {
	hostname, kernel := "unknown", "unknown"
	if h, err := host.Info(); err == nil {
		hostname = h.Hostname
		kernel = fmt.Sprintf("%s %s", h.KernelVersion, h.KernelArch)
	}
	if iface == "" {
		iface = "-"
	}
	fmt.Printf(_console, hostname, kernel, runtime.NumCPU(),
		cfg.ID, cfg.Group, iface, cfg.Interval(), cfg.Listen,
		time.Now().Format("2006-01-02 15:04:05"))
}

const _console = `Scout - Container Resource Telemetry Agent

* GitHub: https://github.com/ja7ad/scout

       Host: %s
       Kernel: %s
       CPUs: %d

       Monitor: %s
       Group: %s
       Interface: %s
       Interval: %s
       Listen: %s

Reporting since %s

`
