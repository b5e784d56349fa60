// Package nodes implements the meshbeacon nodes subcommand: a dump of
// the mesh nodes past sessions have recorded.
package nodes

import (
	"fmt"
	"strings"

	"meshbeacon/internal/nodedb"
	"meshbeacon/pkg/config"
	"meshbeacon/pkg/logger"
)

// Run lists the node registry.
func Run(configPath string) error {
	cfg, cfgErr := config.Load(configPath)
	log := logger.Init(cfg.Beacon.LogLevel)
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("Config unavailable, falling back to defaults")
	}

	db, err := nodedb.Open(cfg.Beacon.DBPath, log)
	if err != nil {
		log.Info().Msg("The registry is populated by 'meshbeacon run' with the session transport")
		return fmt.Errorf("opening node registry: %w", err)
	}
	defer db.Close()

	records, err := db.List()
	if err != nil {
		return fmt.Errorf("listing nodes: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No nodes recorded yet.")
		return nil
	}

	fmt.Printf("\n  Known Nodes (%d)\n\n", len(records))
	fmt.Printf("  %-12s %-10s %-20s %-6s %-8s %-10s\n",
		"Number", "ID", "Long Name", "Short", "Battery", "Last Seen")
	fmt.Printf("  %s %s %s %s %s %s\n",
		strings.Repeat("─", 12),
		strings.Repeat("─", 10),
		strings.Repeat("─", 20),
		strings.Repeat("─", 6),
		strings.Repeat("─", 8),
		strings.Repeat("─", 10))

	for _, rec := range records {
		batt := "n/a"
		if rec.Battery >= 0 {
			batt = fmt.Sprintf("%d%%", rec.Battery)
		}
		fmt.Printf("  %-12d %-10s %-20s %-6s %-8s %-10s\n",
			rec.Num,
			rec.ID,
			truncate(rec.LongName, 20),
			rec.ShortName,
			batt,
			rec.LastSeen.Format("15:04:05"),
		)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}
