// Package testconn implements the meshbeacon test subcommand: a one-shot
// radio connection check.
package testconn

import (
	"fmt"

	"meshbeacon/internal/mesh"
	"meshbeacon/internal/nodedb"
	"meshbeacon/pkg/config"
	"meshbeacon/pkg/logger"
)

// Run connects to the radio once, prints what it learned, and
// disconnects.
func Run(configPath string) error {
	cfg, cfgErr := config.Load(configPath)
	log := logger.Init(cfg.Beacon.LogLevel)
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("Config unavailable, falling back to defaults")
	}

	var db *nodedb.Store
	if s, err := nodedb.Open(cfg.Beacon.DBPath, log); err == nil {
		db = s
		defer db.Close()
	}

	sess := mesh.NewSession(cfg.Transport.Port, db, log)
	if err := sess.Connect(); err != nil {
		return fmt.Errorf("connecting to radio: %w", err)
	}
	defer sess.Close()

	fmt.Println("\nNode Information:")
	fmt.Printf("  My Node Number: %d\n", sess.LocalNode())
	if pct, ok := sess.BatteryLevel(); ok {
		fmt.Printf("  Battery Level: %d%%\n", pct)
	} else {
		fmt.Println("  Battery Level: Not available")
	}
	fmt.Printf("  Target: %s\n", cfg.Beacon.Target)

	return nil
}
