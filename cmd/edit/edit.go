// Package edit implements the meshbeacon edit subcommand.
package edit

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const defaultConfigTemplate = `[beacon]
  target    = "2658499212"
  interval  = "60s"
  db_path   = "/var/lib/meshbeacon/nodes.db"
  log_level = "info"

[transport]
  kind    = "session"   # session, serial or cli
  port    = ""          # empty = auto-detect
  baud    = 115200
  settle  = "2s"
  command = "meshtastic"
  timeout = "10s"

[sensors.battery]
  enabled = true
  backend = "node"      # node or host

[sensors.climate]
  enabled  = true
  backend  = "dht22"    # dht22, bme280 or host
  gpio_pin = 4
  i2c_addr = 0x76
`

// Config opens the configuration file in the system editor, creating it
// with defaults first if it does not exist.
func Config(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("Creating new config file at %s...\n", path)
		if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		for _, e := range []string{"vi", "nano", "vim"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found ($EDITOR not set, and vi/nano/vim not in PATH)")
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
