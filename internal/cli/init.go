package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/kilupskalvis/sitestore/internal/config"
	"github.com/kilupskalvis/sitestore/internal/kv"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sitestore data directory",
	Long: `Initialize a sitestore data directory. Without --dir this creates
.sitestore in the current directory with the default configuration.`,
	Run: runInit,
}

var initBackend string

func init() {
	initCmd.Flags().StringVar(&initBackend, "backend", "", "Storage backend (bbolt, sqlite, memory)")
}

func runInit(cmd *cobra.Command, args []string) {
	root := dirFlag
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			exitError("%v", err)
		}
		root = filepath.Join(cwd, config.RootDir)
	}

	cfg, err := config.Initialize(root)
	if err != nil {
		exitError("failed to initialize config: %v", err)
	}

	if initBackend != "" {
		cfg.Backend = initBackend
		if err := cfg.Validate(); err != nil {
			exitError("%v", err)
		}
		if err := cfg.Save(); err != nil {
			exitError("failed to save config: %v", err)
		}
	}

	// Create the database file up front so the first write cannot fail on it.
	backend, err := kv.Open(cfg.Backend, cfg.Root())
	if err != nil {
		exitError("failed to create %s backend: %v", cfg.Backend, err)
	}
	backend.Close()

	color.Green("Initialized sitestore in %s", root)
	fmt.Printf("Backend: %s\n", cfg.Backend)
	fmt.Printf("Quota:   %s\n", formatBytes(cfg.QuotaBytes))
}
