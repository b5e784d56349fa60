// Package run implements the meshbeacon run subcommand: the long-lived
// beacon daemon.
package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"meshbeacon/internal/beacon"
	"meshbeacon/internal/mesh"
	"meshbeacon/internal/nodedb"
	"meshbeacon/internal/sensor"
	"meshbeacon/internal/transport"
	"meshbeacon/pkg/config"
	"meshbeacon/pkg/logger"
)

// Run starts the beacon and blocks until it stops or the process is
// interrupted. Interrupt-triggered shutdown is a success.
func Run(configPath string) error {
	cfg, cfgErr := config.Load(configPath)
	log := logger.Init(cfg.Beacon.LogLevel)
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("Config unavailable, falling back to defaults")
	}

	interval, err := cfg.Beacon.ParseInterval()
	if err != nil {
		return fmt.Errorf("invalid send interval: %w", err)
	}

	// Node registry is best effort: without it the session transport
	// just stops recording peers and name targets stop resolving.
	var db *nodedb.Store
	if err := os.MkdirAll(filepath.Dir(cfg.Beacon.DBPath), 0700); err != nil {
		log.Warn().Err(err).Msg("Node registry directory unavailable")
	} else if db, err = nodedb.Open(cfg.Beacon.DBPath, log); err != nil {
		log.Warn().Err(err).Msg("Node registry unavailable")
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	var resolve transport.Resolver
	if db != nil {
		resolve = db.ResolveName
	}
	dest, err := transport.ParseDestination(cfg.Beacon.Target, resolve)
	if err != nil {
		return fmt.Errorf("resolving target: %w", err)
	}

	tr, sess, err := buildTransport(cfg, dest, db, log)
	if err != nil {
		return err
	}

	battery := buildBattery(cfg, sess, log)
	climate := buildClimate(cfg, log)

	log.Info().
		Str("transport", cfg.Transport.Kind).
		Stringer("target", dest).
		Dur("interval", interval).
		Bool("battery", battery != nil).
		Bool("climate", climate != nil).
		Msg("Starting weather station beacon")

	loop := beacon.New(tr, battery, climate, interval, log)

	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(context.Background()) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("beacon: %w", err)
		}
		return nil
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		loop.Stop()
		<-errCh
		return nil
	}
}

// buildTransport selects the delivery strategy. The mesh session is
// returned separately because the node battery sensor reads through it.
func buildTransport(cfg *config.Config, dest transport.Destination, db *nodedb.Store, log zerolog.Logger) (transport.Transport, *mesh.Session, error) {
	switch cfg.Transport.Kind {
	case "session":
		sess := mesh.NewSession(cfg.Transport.Port, db, log)
		return transport.NewSessionTransport(sess, dest, log), sess, nil

	case "serial":
		settle, err := cfg.Transport.ParseSettle()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid settle delay: %w", err)
		}
		return transport.NewSerialTransport(cfg.Transport.Port, cfg.Transport.Baud, settle, dest, log), nil, nil

	case "cli":
		timeout, err := cfg.Transport.ParseTimeout()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cli timeout: %w", err)
		}
		return transport.NewCLITransport(cfg.Transport.Command, dest, timeout, log), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown transport kind %q (want session, serial or cli)", cfg.Transport.Kind)
	}
}

// buildBattery returns the configured battery source, or nil when the
// sensor is off or its backend cannot initialize. Init failure disables
// the source for the run, it never aborts the beacon.
func buildBattery(cfg *config.Config, sess *mesh.Session, log zerolog.Logger) sensor.Source {
	if !cfg.Sensors.Battery.IsEnabled() {
		return nil
	}

	var src sensor.Source
	switch cfg.Sensors.Battery.Backend {
	case "node":
		src = sensor.NewNodeBattery(sess, log)
	case "host":
		src = sensor.NewHostBattery(log)
	default:
		log.Warn().Str("backend", cfg.Sensors.Battery.Backend).Msg("Unknown battery backend, sensor disabled")
		return nil
	}

	return initOrDisable(src, log)
}

// buildClimate returns the configured climate source, or nil.
func buildClimate(cfg *config.Config, log zerolog.Logger) sensor.Source {
	if !cfg.Sensors.Climate.IsEnabled() {
		return nil
	}

	var src sensor.Source
	switch cfg.Sensors.Climate.Backend {
	case "dht22":
		src = sensor.NewDHT22(cfg.Sensors.Climate.GPIOPin, log)
	case "bme280":
		src = sensor.NewBME280(cfg.Sensors.Climate.I2CAddr, log)
	case "host":
		src = sensor.NewHostClimate(log)
	default:
		log.Warn().Str("backend", cfg.Sensors.Climate.Backend).Msg("Unknown climate backend, sensor disabled")
		return nil
	}

	return initOrDisable(src, log)
}

func initOrDisable(src sensor.Source, log zerolog.Logger) sensor.Source {
	if err := src.Init(); err != nil {
		log.Warn().Err(err).Str("sensor", string(src.Kind())).Msg("Sensor unavailable, disabled for this run")
		return nil
	}
	log.Info().Str("sensor", string(src.Kind())).Msg("Sensor initialized")
	return src
}
