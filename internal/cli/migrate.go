package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move data from legacy keys to the current layout",
	Long: `Copy values stored under the legacy keys listed in legacy_keys to
their current keys and remove the legacy keys. Keys whose target already
holds data are skipped. Every other command runs this automatically.`,
	Run: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) {
	c := initContextNoMigrate()
	defer c.Close()

	pairs := legacyPairs(c.Config.LegacyKeys, c.Logger)
	if len(pairs) == 0 {
		fmt.Println("No legacy keys configured")
		return
	}

	report := c.Store.MigrateLegacy(pairs)
	for _, old := range report.Migrated {
		color.Green("migrated  %s", old)
	}
	for _, old := range report.Skipped {
		fmt.Printf("skipped   %s\n", old)
	}

	failed := make([]string, 0, len(report.Failed))
	for old := range report.Failed {
		failed = append(failed, old)
	}
	sort.Strings(failed)
	for _, old := range failed {
		color.Red("failed    %s: %v", old, report.Failed[old])
	}

	if len(failed) > 0 {
		c.fail("%d legacy keys failed to migrate", len(failed))
	}
}
