package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/kilupskalvis/sitestore/internal/backup"
	"github.com/spf13/cobra"
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backups saved in the archive",
	Run:   runBackups,
}

var backupsDeleteCmd = &cobra.Command{
	Use:   "delete <backup-id>",
	Short: "Remove a saved backup",
	Args:  cobra.ExactArgs(1),
	Run:   runBackupsDelete,
}

func init() {
	backupsCmd.AddCommand(backupsDeleteCmd)
}

func openArchive(c *cmdContext) (*backup.Archive, error) {
	return backup.NewArchive(filepath.Join(c.Config.Root(), backup.ArchiveDir))
}

func runBackups(cmd *cobra.Command, args []string) {
	c := initContextNoMigrate()
	defer c.Close()

	archive, err := openArchive(c)
	if err != nil {
		c.fail("%v", err)
	}
	entries, err := archive.List()
	if err != nil {
		c.fail("%v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No saved backups")
		return
	}

	t := newTable(os.Stdout)
	t.AppendHeader([]any{"ID", "Saved", "Size"})
	for _, e := range entries {
		t.AppendRow([]any{e.ID, formatTime(e.SavedAt), formatBytes(e.Size)})
	}
	t.Render()
}

func runBackupsDelete(cmd *cobra.Command, args []string) {
	c := initContextNoMigrate()
	defer c.Close()

	archive, err := openArchive(c)
	if err != nil {
		c.fail("%v", err)
	}
	if err := archive.Delete(args[0]); err != nil {
		c.fail("%v", err)
	}
	color.Green("Deleted backup %s", args[0])
}
