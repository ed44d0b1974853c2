package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show storage usage against the quota",
	Run:   runUsage,
}

var usageJSON bool

func init() {
	usageCmd.Flags().BoolVar(&usageJSON, "json", false, "Print usage as JSON")
}

func runUsage(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	state := c.Store.Quota().State()
	if usageJSON {
		printJSON(state)
		return
	}

	pct := color.New(color.FgGreen)
	if state.NearCapacity {
		pct = color.New(color.FgRed, color.Bold)
	}

	fmt.Printf("Backend: %s\n", c.Config.Backend)
	fmt.Printf("Used:    %s of %s ", formatBytes(state.UsageBytes), formatBytes(state.QuotaBytes))
	pct.Printf("(%.1f%%)\n", state.UsagePercentage)
	fmt.Printf("Warn at: %.0f%%\n", c.Store.Quota().Config().WarnThreshold*100)
	if state.NearCapacity {
		color.Yellow("Storage is nearly full. Export a backup and remove old submissions.")
	}
}
