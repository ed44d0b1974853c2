package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the activity log",
	Long:  `Show the most recent activity log entries, newest first.`,
	Run:   runActivity,
}

var activityCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove activity entries older than the retention period",
	Run:   runActivityCleanup,
}

var activityClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every activity entry",
	Run:   runActivityClear,
}

var (
	activityLimit int
	cleanupDays   int
)

func init() {
	activityCmd.Flags().IntVarP(&activityLimit, "n", "n", 20, "Number of entries to show (0 for all)")
	activityCleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "Retention in days (default: activity_retention_days)")

	activityCmd.AddCommand(activityCleanupCmd)
	activityCmd.AddCommand(activityClearCmd)
}

func runActivity(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	logs := c.Store.ActivityLogs()
	if len(logs) == 0 {
		fmt.Println("No activity yet")
		return
	}

	t := newTable(os.Stdout)
	t.AppendHeader([]any{"Time", "User", "Action", "Type", "Name", "Details"})
	shown := 0
	for i := len(logs) - 1; i >= 0; i-- {
		if activityLimit > 0 && shown == activityLimit {
			break
		}
		e := logs[i]
		t.AppendRow([]any{formatTime(e.Timestamp), e.User, e.Action, e.EntityType, truncate(e.EntityName, 30), truncate(e.Details, 40)})
		shown++
	}
	t.Render()
	if shown < len(logs) {
		fmt.Printf("%d of %d entries\n", shown, len(logs))
	}
}

func runActivityCleanup(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	removed, err := c.Store.CleanupActivityLogs(cleanupDays)
	if err != nil {
		c.fail("cleanup failed: %v", err)
	}
	fmt.Printf("Removed %d entries\n", removed)
}

func runActivityClear(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if err := c.Store.ClearActivityLogs(); err != nil {
		c.fail("clear failed: %v", err)
	}
	color.Green("Activity log cleared")
}
