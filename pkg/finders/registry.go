package finders

import (
	"github.com/Soumalya1857/catapult/pkg/browser"
	"github.com/Soumalya1857/catapult/pkg/telemetry"
)

// RegistryConfig configures the default finder set.
type RegistryConfig struct {
	// Logger is optional; nil falls back to plain stderr logging.
	Logger *telemetry.Logger

	// Packages lists packages on Android devices; nil disables
	// Android discovery.
	Packages PackageLister

	// Prober checks remote ChromeOS devices; nil defaults to SSH.
	Prober RemoteProber
}

// DefaultRegistry returns the canonical finder registration order:
// desktop, android, cros.
//
// The order is a behavioral contract, not an implementation detail: it
// is reused as the preference order when resolving browser type "any",
// so changing it changes which browser "any" picks.
func DefaultRegistry(cfg RegistryConfig) *browser.Registry {
	return browser.NewRegistry(
		NewDesktopFinder(cfg.Logger),
		NewAndroidFinder(cfg.Packages, cfg.Logger),
		NewCrosFinder(cfg.Prober, cfg.Logger),
	)
}
