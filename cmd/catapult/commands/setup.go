package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/Soumalya1857/catapult/pkg/browser"
	"github.com/Soumalya1857/catapult/pkg/devices"
	"github.com/Soumalya1857/catapult/pkg/finders"
	"github.com/Soumalya1857/catapult/pkg/stores"
	"github.com/Soumalya1857/catapult/pkg/telemetry"
	"gopkg.in/yaml.v3"
)

// loadFinderOptions parses the --config file into finder options. A
// missing --config yields the zero options (default resolution on the
// local host).
func loadFinderOptions() (browser.FinderOptions, error) {
	var opts browser.FinderOptions
	if configPath == "" {
		return opts, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return opts, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		return opts, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return opts, nil
}

// runtime bundles everything a browsers subcommand needs: telemetry,
// the resolver, and the optional audit store.
type runtime struct {
	tel      *telemetry.Telemetry
	resolver *browser.Resolver
	audit    stores.Store
}

// newRuntime wires telemetry, the default finder registry, the device
// enumerator and (when --audit-db is set) the SQLite audit store into
// a resolver.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg := telemetry.DefaultConfig()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if jsonOutput {
		// Keep stdout clean for the command's JSON payload.
		cfg.Logging.Format = "json"
		cfg.Logging.Output = "stderr"
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	var audit stores.Store
	if auditDB != "" {
		store, err := stores.NewSQLiteStore(stores.Config{Path: auditDB})
		if err != nil {
			return nil, fmt.Errorf("failed to create audit store: %w", err)
		}
		if err := store.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to migrate audit store: %w", err)
		}
		audit = store
	}

	registry := finders.DefaultRegistry(finders.RegistryConfig{
		Logger: tel.Logger,
	})

	resolver, err := browser.NewResolver(browser.ResolverConfig{
		Registry:  registry,
		Devices:   devices.NewEnumerator(nil, tel.Logger),
		Telemetry: tel,
		Audit:     audit,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{tel: tel, resolver: resolver, audit: audit}, nil
}

// Close flushes telemetry and releases the audit store.
func (r *runtime) Close(ctx context.Context) {
	if r.audit != nil {
		_ = r.audit.Close()
	}
	_ = r.tel.Shutdown(ctx)
}
