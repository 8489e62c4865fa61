package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/synthlab/launcher/internal/config"
	"github.com/synthlab/launcher/internal/launcher"
	"github.com/synthlab/launcher/internal/tui"
)

func main() {
	settings, err := config.Load(defaultSettingsPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	session, err := launcher.New(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(session); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultSettingsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".synthlab-launcher", "settings.json")
}
