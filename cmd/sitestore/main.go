// Command sitestore manages the site's local data store.
package main

import (
	"os"

	"github.com/kilupskalvis/sitestore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
