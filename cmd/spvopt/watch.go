package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 150 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <file.spv>...",
	Short: "Re-run the optimizer whenever an input changes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	registerRunFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	o, err := loadRunOptions(cmd)
	if err != nil {
		return err
	}
	if o.output == "-" {
		return fmt.Errorf("watch cannot write to stdout")
	}
	o.ui = false
	cleanup, err := setupTracing(cmd, o.settings)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// editors often replace files, so watch directories and filter by name
	inputs := make(map[string]bool, len(args))
	dirs := make(map[string]bool)
	for _, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return err
		}
		inputs[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	rerun := func() error {
		_, err := optimizeOnce(ctx, cmd, o, args)
		return err
	}
	if err := rerun(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %d file(s), press Ctrl+C to stop\n", len(args))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, inputs) {
				continue
			}
			pending = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
		case <-pending:
			pending = nil
			if err := rerun(); err != nil && ctx.Err() == nil {
				return err
			}
		}
	}
}

// relevant reports whether ev touches one of the watched inputs.
func relevant(ev fsnotify.Event, inputs map[string]bool) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return inputs[abs]
}
