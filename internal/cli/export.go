package cli

import (
	"fmt"
	"os"

	"github.com/kilupskalvis/sitestore/internal/backup"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a backup of every collection",
	Long: `Export every collection and the activity log as a JSON backup.
Writes to stdout unless --output or --save is given. --save keeps the
backup in the data directory's archive (see sitestore backups).`,
	Run: runExport,
}

var (
	exportOutput      string
	exportDescription string
	exportSave        bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the backup to a file")
	exportCmd.Flags().StringVarP(&exportDescription, "description", "d", "", "Description stored in the backup")
	exportCmd.Flags().BoolVar(&exportSave, "save", false, "Save the backup in the archive")
}

func runExport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	snap := backup.New(c.Store, c.Config.AppVersion).Export(exportDescription)

	if exportSave {
		archive, err := openArchive(c)
		if err != nil {
			c.fail("%v", err)
		}
		path, err := archive.Save(snap)
		if err != nil {
			c.fail("failed to save backup: %v", err)
		}
		fmt.Printf("Saved backup %s to %s\n", snap.BackupID, path)
		return
	}

	if exportOutput == "" {
		if err := backup.WriteJSON(os.Stdout, snap); err != nil {
			c.fail("%v", err)
		}
		return
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		c.fail("failed to create %s: %v", exportOutput, err)
	}
	if err := backup.WriteJSON(f, snap); err != nil {
		f.Close()
		c.fail("%v", err)
	}
	if err := f.Close(); err != nil {
		c.fail("failed to write %s: %v", exportOutput, err)
	}

	total := 0
	for _, n := range snap.Counts() {
		total += n
	}
	fmt.Printf("Exported %d records to %s (backup %s)\n", total, exportOutput, snap.BackupID)
}
