package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/kilupskalvis/sitestore/internal/backup"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a backup file without importing it",
	Args:  cobra.ExactArgs(1),
	Run:   runValidate,
}

var validateJSON bool

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the validation result as JSON")
}

func runValidate(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitError("failed to read %s: %v", args[0], err)
	}

	res := backup.ValidateJSON(data)
	if validateJSON {
		out, err := backup.MarshalResult(res)
		if err != nil {
			exitError("%v", err)
		}
		fmt.Println(string(out))
	} else {
		printValidation(res)
	}

	if !res.IsValid {
		os.Exit(1)
	}
}

// printValidation renders errors, warnings and the backup summary.
func printValidation(res backup.ValidationResult) {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	for _, e := range res.Errors {
		red.Printf("error: %s\n", e)
	}
	for _, w := range res.Warnings {
		yellow.Printf("warning: %s\n", w)
	}
	if !res.IsValid {
		red.Println("Backup is not valid")
		return
	}

	m := res.Metadata
	color.Green("Backup is valid")
	fmt.Printf("Version:  %s\n", orDash(m.Version))
	fmt.Printf("App:      %s\n", orDash(m.AppVersion))
	fmt.Printf("Backup:   %s\n", orDash(m.BackupID))
	fmt.Printf("Exported: %s\n", orDash(m.ExportedAt))

	t := newTable(os.Stdout)
	t.AppendHeader([]any{"Collection", "Records"})
	for _, name := range backupFields {
		if n, ok := m.Counts[name]; ok {
			t.AppendRow([]any{name, n})
		}
	}
	t.Render()
}

var backupFields = []string{
	"services", "team", "testimonials", "jobs", "users",
	"contacts", "newsletter", "applications", "activityLogs",
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
