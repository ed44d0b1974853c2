package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <collection> <id>",
	Short: "Delete a record",
	Long:  `Delete a record by id. The deletion is recorded in the activity log.`,
	Args:  cobra.ExactArgs(2),
	Run:   runDelete,
}

func runDelete(cmd *cobra.Command, args []string) {
	view, err := lookupView(args[0])
	if err != nil {
		exitError("%v", err)
	}

	c := initContext()
	defer c.Close()

	removed, err := view.delete(c.Store, args[1])
	if err != nil {
		c.fail("failed to delete: %v", err)
	}
	if !removed {
		fmt.Printf("No record %s in %s\n", args[1], args[0])
		return
	}
	color.Green("Deleted %s from %s", args[1], args[0])
}
