package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Soumalya1857/catapult/pkg/browser"
	"github.com/Soumalya1857/catapult/pkg/finders"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// errNoBrowser is returned by "browsers find" when resolution
// completed but nothing was available.
var errNoBrowser = errors.New("no browser found")

func newBrowsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browsers",
		Short: "Inspect and resolve available browsers",
		Long: `Inspect the browsers the discovery backends can provide and resolve
the one a test run should control.`,
	}

	cmd.AddCommand(newBrowsersTypesCommand())
	cmd.AddCommand(newBrowsersListCommand())
	cmd.AddCommand(newBrowsersFindCommand())
	cmd.AddCommand(newBrowsersWatchCommand())

	return cmd
}

func newBrowsersTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the browser types the backends declare",
		Long: `List every browser type the discovery backends declare for the given
configuration, in backend registration order. No device is probed.`,
		Example: `  # Types for the default configuration
  catapult browsers types

  # Types for a specific configuration
  catapult browsers types --config run.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadFinderOptions()
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			types := rt.resolver.FindAllBrowserTypes(opts)
			return printStrings(types)
		},
	}
}

func newBrowsersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the browser types actually available",
		Long: `Probe the matching devices and list the browser types that are
actually available for the given configuration, sorted.`,
		Example: `  # Available types for a Chromium checkout
  catapult browsers list --config run.yaml

  # Machine-readable output
  catapult browsers list --config run.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadFinderOptions()
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			types, err := rt.resolver.GetAllAvailableBrowserTypes(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printStrings(types)
		},
	}
}

func newBrowsersFindCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find",
		Short: "Resolve the browser a test run should control",
		Long: `Resolve the single browser the configuration asks for. Exits 0 and
prints the chosen browser on success, exits 1 when no browser is
available, and exits 2 when the configuration is inconsistent.`,
		Example: `  # Resolve with an explicit type
  catapult browsers find --config run.yaml

  # Record the decision in an audit database
  catapult browsers find --config run.yaml --audit-db ./audit.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadFinderOptions()
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())

			chosen, err := rt.resolver.FindBrowser(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if chosen == nil {
				log.Warn().
					Str("browser_type", opts.BrowserType).
					Msg("No browser available for this configuration")
				return errNoBrowser
			}

			return printBrowser(chosen)
		},
	}
}

// chosenBrowser is the JSON shape of a resolved browser.
type chosenBrowser struct {
	BrowserType string    `json:"browser_type"`
	TargetOS    string    `json:"target_os"`
	Executable  string    `json:"executable,omitempty"`
	BuildTime   time.Time `json:"build_time"`
}

func printBrowser(b browser.PossibleBrowser) error {
	out := chosenBrowser{
		BrowserType: b.BrowserType(),
		TargetOS:    b.TargetOS(),
		BuildTime:   b.LastModificationTime(),
	}
	if db, ok := b.(*finders.DesktopBrowser); ok {
		out.Executable = db.ExecutablePath()
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("browser type: %s\n", out.BrowserType)
	fmt.Printf("target OS:    %s\n", out.TargetOS)
	if out.Executable != "" {
		fmt.Printf("executable:   %s\n", out.Executable)
	}
	if !out.BuildTime.IsZero() {
		fmt.Printf("build time:   %s\n", out.BuildTime.Format(time.RFC3339))
	}
	return nil
}

func printStrings(values []string) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	}
	for _, v := range values {
		fmt.Println(v)
	}
	return nil
}
