// meshbeacon — Mesh Radio Telemetry Beacon
//
// Usage:
//
//	meshbeacon run    — read sensors and beacon status over the radio
//	meshbeacon test   — connect to the radio once and print node info
//	meshbeacon nodes  — list mesh nodes recorded by past sessions
package main

import (
	"fmt"
	"os"

	"meshbeacon/cmd/edit"
	"meshbeacon/cmd/nodes"
	"meshbeacon/cmd/run"
	"meshbeacon/cmd/testconn"
)

const (
	defaultSystemPath = "/etc/meshbeacon/config.toml"
	defaultLocalPath  = "config.toml"
	version           = "1.0.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := ""

	// Parse --config flag if present
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			args = append(args[:i], args[i+2:]...)
			i--
			continue
		}
		if len(arg) > 9 && arg[:9] == "--config=" {
			configPath = arg[9:]
			args = append(args[:i], args[i+1:]...)
			i--
			continue
		}
	}

	// Auto-discover config if not specified
	if configPath == "" {
		if _, err := os.Stat(defaultLocalPath); err == nil {
			configPath = defaultLocalPath
		} else {
			configPath = defaultSystemPath
		}
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	var err error

	switch subcommand {
	case "run":
		err = run.Run(configPath)
	case "test":
		err = testconn.Run(configPath)
	case "nodes":
		err = nodes.Run(configPath)
	case "edit":
		err = edit.Config(configPath)
	case "version":
		fmt.Printf("meshbeacon v%s\n", version)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`meshbeacon v%s — Mesh Radio Telemetry Beacon

Usage:
  meshbeacon <command> [--config <path>]

Commands:
  run      Start the beacon (sends sensor status until interrupted)
  test     Connect to the radio once and print node information
  nodes    List mesh nodes recorded by past sessions
  edit     Edit the configuration file in your system editor
  version  Print version information
  help     Show this help message

Options:
  --config <path>  Path to config file (default: looks for ./config.toml, then %s)

Examples:
  meshbeacon run                        # Beacon with default config
  meshbeacon run --config station.toml  # Beacon with a specific config
  meshbeacon test                       # Check the radio link
  meshbeacon edit                       # Edit configuration

`, version, defaultSystemPath)
}
