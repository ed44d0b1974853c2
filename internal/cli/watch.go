package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/kilupskalvis/sitestore/internal/events"
	"github.com/kilupskalvis/sitestore/internal/kv"
	"github.com/kilupskalvis/sitestore/internal/store"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes made by other processes",
	Long: `Follow the shared storage and print a line for every collection another
process changes. Requires the sqlite backend.`,
	Run: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	w, ok := kv.AsWatcher(c.Backend)
	if !ok {
		c.fail("the %s backend does not support watch (use backend = \"sqlite\")", c.Config.Backend)
	}

	cyan := color.New(color.FgCyan)
	for _, topic := range events.AllTopics {
		c.Bus.Subscribe(topic, func(e events.Event) {
			cyan.Printf("%s ", time.Now().Format("15:04:05"))
			fmt.Printf("%s changed\n", e.Topic)
			if st, ok := e.Data.(store.QuotaState); ok {
				color.Yellow("  storage at %.1f%%", st.UsagePercentage)
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", c.Config.Root())
	if err := c.Store.Sync(ctx, w); err != nil && !errors.Is(err, context.Canceled) {
		c.fail("watch failed: %v", err)
	}
}
