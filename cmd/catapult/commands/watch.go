package commands

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Soumalya1857/catapult/pkg/browser"
)

func newBrowsersWatchCommand() *cobra.Command {
	var (
		dirs     []string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-resolve whenever a build output directory changes",
		Long: `Watch build output directories and re-resolve the browser whenever a
binary in them changes. Each pass runs against a fresh resolver so a
rebuilt binary is always picked up.

Intended as a development convenience while iterating on a local
Chromium build.`,
		Example: `  # Watch the build dirs from the configuration
  catapult browsers watch --config run.yaml

  # Watch an explicit output directory
  catapult browsers watch --config run.yaml --dir out/Release`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadFinderOptions()
			if err != nil {
				return err
			}

			watchDirs := dirs
			if len(watchDirs) == 0 {
				watchDirs = opts.Desktop.BuildDirs
			}
			if len(watchDirs) == 0 && opts.Desktop.ChromiumRoot != "" {
				watchDirs = []string{
					opts.Desktop.ChromiumRoot + "/out/Release",
					opts.Desktop.ChromiumRoot + "/out/Debug",
				}
			}
			if len(watchDirs) == 0 {
				log.Error().Msg("Nothing to watch: no --dir and no build dirs in the configuration")
				return errNoBrowser
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer func() { _ = watcher.Close() }()

			for _, dir := range watchDirs {
				if _, err := os.Stat(dir); err != nil {
					log.Warn().Err(err).Str("dir", dir).Msg("Failed to stat directory for watching")
					continue
				}
				if err := watcher.Add(dir); err != nil {
					log.Warn().Err(err).Str("dir", dir).Msg("Failed to watch directory")
				}
			}

			log.Info().
				Int("dirs", len(watchDirs)).
				Msg("Watching build output directories")

			// Resolve once up front so the current state is visible.
			resolveOnce(cmd.Context(), opts)

			return watchLoop(cmd.Context(), watcher, opts, debounce)
		},
	}

	cmd.Flags().StringSliceVar(&dirs, "dir", nil, "build output directory to watch (repeatable)")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "delay before re-resolving after a change")

	return cmd
}

// watchLoop re-resolves after binary changes, debounced so a build
// touching many files triggers one pass.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, opts browser.FinderOptions, debounce time.Duration) error {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !isBrowserBinary(event.Name) {
				continue
			}

			log.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Browser binary changed")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				resolveOnce(ctx, opts)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// resolveOnce runs one resolution pass on a fresh resolver, so no
// memoized result from a previous pass can mask a rebuilt binary.
func resolveOnce(ctx context.Context, opts browser.FinderOptions) {
	rt, err := newRuntime(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build resolver")
		return
	}
	defer rt.Close(ctx)

	chosen, err := rt.resolver.FindBrowser(ctx, opts)
	if err != nil {
		log.Error().Err(err).Msg("Resolution failed")
		return
	}
	if chosen == nil {
		log.Warn().Msg("No browser available")
		return
	}
	if err := printBrowser(chosen); err != nil {
		log.Error().Err(err).Msg("Failed to print browser")
	}
}

// isBrowserBinary reports whether a changed file looks like a browser
// executable rather than build intermediates.
func isBrowserBinary(path string) bool {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	switch base {
	case "chrome", "chrome.exe", "Chromium":
		return true
	}
	return false
}
