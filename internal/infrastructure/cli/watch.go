package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/kanbn/internal/infrastructure/watch"
	"github.com/felixgeelhaar/kanbn/pkg/application"
)

func (a *app) newWatchCmd() *cobra.Command {
	var window time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render the board whenever its files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := a.load(cmd)
			if err != nil {
				return err
			}
			dir := services.Board.Path()
			if _, err := os.Stat(dir); err != nil {
				return NewCLIError(fmt.Sprintf("board directory %s does not exist", dir), "Run 'kanbn init' first", err)
			}
			w, err := watch.New(dir, watch.Options{Window: window, Logger: services.Logger})
			if err != nil {
				return err
			}
			return a.runWatch(cmd, w, services.Board)
		},
	}
	cmd.Flags().DurationVar(&window, "debounce", watch.DefaultWindow, "Quiet period before re-rendering")
	return cmd
}

// runWatch renders once, then again after every batch of changes. The
// watcher and the renderer run in one errgroup so either failing stops both.
func (a *app) runWatch(cmd *cobra.Command, w *watch.BoardWatcher, svc *application.BoardService) error {
	out := cmd.OutOrStdout()
	g, ctx := errgroup.WithContext(cmd.Context())
	batches := make(chan []watch.Change, 1)

	g.Go(func() error {
		defer close(batches)
		err := w.Run(ctx, func(batch []watch.Change) {
			select {
			case batches <- batch:
			case <-ctx.Done():
			}
		})
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	g.Go(func() error {
		render := func() {
			status, err := svc.Status(ctx)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", MapError(err))
				return
			}
			if a.jsonOut {
				_ = a.emit(cmd, status, nil)
				return
			}
			fmt.Fprintln(out, renderStatus(status, false))
		}

		render()
		for batch := range batches {
			printChanges(out, batch)
			render()
		}
		return nil
	})

	return g.Wait()
}

func printChanges(w io.Writer, batch []watch.Change) {
	fmt.Fprintf(w, "\n%s\n", mutedStyle.Render(fmt.Sprintf("Changed at %s:", time.Now().Format("15:04:05"))))
	for _, c := range batch {
		fmt.Fprintf(w, "  %s %s\n", c.Op, c.Path)
	}
}
