package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "List the records of a collection",
	Long: `List the records of a collection: services, team, testimonials, jobs,
users, contacts, newsletter or applications.`,
	Args: cobra.ExactArgs(1),
	Run:  runList,
}

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print records as JSON")
}

func runList(cmd *cobra.Command, args []string) {
	view, err := lookupView(args[0])
	if err != nil {
		exitError("%v", err)
	}

	c := initContext()
	defer c.Close()

	if listJSON {
		printJSON(view.all(c.Store))
		return
	}

	rows := view.rows(c.Store)
	if len(rows) == 0 {
		fmt.Printf("No %s\n", strings.ToLower(args[0]))
		return
	}

	t := newTable(os.Stdout)
	t.AppendHeader(view.header)
	t.AppendRows(rows)
	t.AppendFooter(append(make([]any, len(view.header)-1), fmt.Sprintf("%d total", len(rows))))
	t.Render()
}
