// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"iwlan.dev/epdgctl/internal/adminapi"
	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/clock"
	"iwlan.dev/epdgctl/internal/config"
	"iwlan.dev/epdgctl/internal/datasurface"
	"iwlan.dev/epdgctl/internal/epdgselector"
	"iwlan.dev/epdgctl/internal/errorpolicy"
	"iwlan.dev/epdgctl/internal/eventbus"
	"iwlan.dev/epdgctl/internal/ikedriver"
	"iwlan.dev/epdgctl/internal/logging"
	"iwlan.dev/epdgctl/internal/netregsurface"
	"iwlan.dev/epdgctl/internal/tunnelmgr"
)

// allEventKinds is every kind the Error Policy Engine might be configured
// to treat as an unthrottling event (spec §4.3); subscribing to all of
// them and letting Deliver consult each APN's policy table is simpler than
// tracking which kinds are actually referenced by the loaded carrier
// config.
var allEventKinds = []eventbus.Kind{
	eventbus.KindCarrierConfigChanged,
	eventbus.KindAirplaneModeEnabled,
	eventbus.KindAirplaneModeDisabled,
	eventbus.KindWifiDisabled,
	eventbus.KindWifiAPChanged,
	eventbus.KindWifiCallingEnabled,
	eventbus.KindWifiCallingDisabled,
}

// panicExitCode is the exit status a worker uses when it is exiting after a
// recovered panic, so the supervising parent can tell a panic apart from an
// ordinary nonzero exit.
const panicExitCode = 70

// slot bundles one SIM slot's complete set of collaborators.
type slot struct {
	index    int
	manager  *tunnelmgr.Manager
	policy   *errorpolicy.Engine
	selector *epdgselector.Selector
	surface  *datasurface.Surface
	netreg   *netregsurface.Surface
	bus      *eventbus.Bus
	registry *eventbus.Registry
}

func (s *slot) Close() {
	s.surface.Close()
	s.netreg.Close()
	s.bus.Unsubscribe(s.policy)
	s.registry.Release(s.index)
}

// runWorker loads config, wires every per-slot collaborator, optionally
// starts the admin HTTP/WS surface, and blocks until SIGTERM/SIGINT.
func runWorker(configPath string, logger *logging.Logger) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("epdgd: recovered panic, exiting", "panic", r)
			exitCode = panicExitCode
		}
	}()

	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		logger.Error("epdgd: config load failed", "error", err)
		return 1
	}

	if cfg.Syslog != nil && cfg.Syslog.Address != "" {
		logger = attachSyslog(logger, cfg.Syslog)
	}

	dnsTimeout, err := cfg.DNSTimeoutDuration()
	if err != nil {
		logger.Error("epdgd: invalid dns_timeout", "error", err)
		return 1
	}
	bundle := carrierconfig.DefaultBundle()
	bundle.DNSResolutionTimeout = dnsTimeout

	reg := prometheus.DefaultRegisterer
	registry := eventbus.NewRegistry(logger)
	slots := make([]*slot, 0, cfg.SlotCount)
	for i := 0; i < cfg.SlotCount; i++ {
		slots = append(slots, newSlot(i, bundle, reg, registry, cfg.ProbeReachability, logger))
	}
	defer func() {
		for _, s := range slots {
			s.Close()
		}
	}()

	var adminSrv *adminapi.Server
	if cfg.AdminAPI != nil && cfg.AdminAPI.Enabled {
		adminSrv = startAdminAPI(slots, cfg.AdminAPI, logger)
	}

	logger.Info("epdgd: started", "slotCount", cfg.SlotCount)
	waitForShutdown(logger)

	if adminSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := adminSrv.Shutdown(ctx); err != nil {
			logger.Warn("epdgd: admin API shutdown error", "error", err)
		}
	}
	logger.Info("epdgd: stopped cleanly")
	return 0
}

func loadConfig(path string, logger *logging.Logger) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("epdgd: config file not found, using defaults", "path", path)
		cfg = config.Default()
		err = nil
	}
	if err != nil {
		return nil, err
	}
	if errs := cfg.DeepValidate(); errs.HasErrors() {
		return nil, errs
	}
	return cfg, nil
}

func attachSyslog(logger *logging.Logger, sc *config.SyslogConfig) *logging.Logger {
	host, port, err := splitHostPortLoose(sc.Address)
	if err != nil {
		logger.Warn("epdgd: malformed syslog address, keeping stderr logger", "error", err)
		return logger
	}
	network := sc.Network
	if network == "" {
		network = "udp"
	}
	return logging.NewWithSyslog(logging.SyslogConfig{
		Enabled:  true,
		Host:     host,
		Port:     port,
		Protocol: network,
		Tag:      sc.Tag,
	}, logLevel(sc.Level))
}

func newSlot(index int, bundle *carrierconfig.Bundle, reg prometheus.Registerer, registry *eventbus.Registry, probeReachability bool, logger *logging.Logger) *slot {
	slotLogger := logger.With("slot", index)

	policy := errorpolicy.NewEngine(index, clock.New(), slotLogger, reg)
	policy.UpdateConfig(bundle)

	bus := registry.Get(index)
	bus.Subscribe(allEventKinds, policy)

	selector := epdgselector.NewSelector(index, slotLogger, reg)
	selector.UpdateConfig(bundle)

	driver := ikedriver.NewNullDriver(slotLogger)
	manager := tunnelmgr.NewManager(index, driver, policy, selector, slotLogger, reg)

	surface := datasurface.NewSurface(index, manager, selector, slotLogger)
	surface.SetProbeReachability(probeReachability)
	netreg := netregsurface.NewSurface(index, slotLogger)

	return &slot{
		index: index, manager: manager, policy: policy, selector: selector,
		surface: surface, netreg: netreg, bus: bus, registry: registry,
	}
}

func startAdminAPI(slots []*slot, cfg *config.AdminAPIConfig, logger *logging.Logger) *adminapi.Server {
	svcSlots := make([]*adminapi.SlotServices, 0, len(slots))
	for _, s := range slots {
		svcSlots = append(svcSlots, &adminapi.SlotServices{
			Slot:     s.index,
			Manager:  s.manager,
			Policy:   s.policy,
			Selector: s.selector,
			Surface:  s.surface,
			Bus:      s.bus,
		})
	}
	srv := adminapi.NewServer(svcSlots, logger)
	go func() {
		if err := srv.ListenAndServe(cfg.Listen, adminapi.DefaultServerConfig()); err != nil {
			logger.Error("epdgd: admin API exited", "error", err)
		}
	}()
	return srv
}

func waitForShutdown(logger *logging.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	logger.Info("epdgd: received shutdown signal", "signal", sig)
}
