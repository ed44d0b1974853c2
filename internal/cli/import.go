package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/kilupskalvis/sitestore/internal/backup"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file|backup-id>",
	Short: "Restore a backup",
	Long: `Restore a backup file, or a backup saved in the archive by id. The
backup is validated first.

  replace  overwrite every collection, including the activity log
  merge    keep local records; the backup wins where ids match`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

var importStrategy string

func init() {
	importCmd.Flags().StringVar(&importStrategy, "strategy", string(backup.StrategyMerge), "Import strategy (replace, merge)")
}

func runImport(cmd *cobra.Command, args []string) {
	strategy, err := backup.ParseStrategy(importStrategy)
	if err != nil {
		exitError("%v", err)
	}

	c := initContext()
	defer c.Close()

	data, err := readBackup(c, args[0])
	if err != nil {
		c.fail("%v", err)
	}

	res, err := backup.New(c.Store, c.Config.AppVersion).ImportJSON(data, strategy)
	for _, w := range res.Warnings {
		color.Yellow("warning: %s", w)
	}
	if err != nil {
		c.fail("import failed: %v", err)
	}

	color.Green("Imported %s using %s strategy", args[0], strategy)
	if res.Metadata != nil && res.Metadata.BackupID != "" {
		fmt.Printf("Backup: %s\n", res.Metadata.BackupID)
	}
}

// readBackup reads a backup from a file path, falling back to the archive.
func readBackup(c *cmdContext, ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}

	archive, aerr := openArchive(c)
	if aerr != nil {
		return nil, aerr
	}
	data, aerr = archive.Read(ref)
	if errors.Is(aerr, backup.ErrBackupNotFound) {
		return nil, fmt.Errorf("no such file or archived backup: %s", ref)
	}
	return data, aerr
}
