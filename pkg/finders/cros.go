package finders

import (
	"context"
	"fmt"
	"time"

	"github.com/Soumalya1857/catapult/pkg/browser"
	"github.com/Soumalya1857/catapult/pkg/telemetry"
)

// CrosBrowser is the Chrome binary on a remote ChromeOS device.
type CrosBrowser struct {
	browserType string
	host        string
	mtime       time.Time
}

// BrowserType implements browser.PossibleBrowser.
func (b *CrosBrowser) BrowserType() string { return b.browserType }

// TargetOS implements browser.PossibleBrowser.
func (b *CrosBrowser) TargetOS() string { return "chromeos" }

// LastModificationTime implements browser.PossibleBrowser.
func (b *CrosBrowser) LastModificationTime() time.Time { return b.mtime }

// Host returns the device the browser runs on.
func (b *CrosBrowser) Host() string { return b.host }

// SupportsOptions implements browser.PossibleBrowser. The guest
// variant runs without a profile.
func (b *CrosBrowser) SupportsOptions(opts browser.BrowserOptions) bool {
	if b.browserType == browser.BrowserTypeCrosGuest {
		return opts.Profile == ""
	}
	return true
}

// UpdateExecutableIfNeeded implements browser.PossibleBrowser. The
// binary lives on the device image and is never pushed from here.
func (b *CrosBrowser) UpdateExecutableIfNeeded() error { return nil }

func (b *CrosBrowser) String() string {
	return fmt.Sprintf("CrosBrowser(%s on %s)", b.browserType, b.host)
}

// RemoteProber checks a remote ChromeOS device for a controllable
// Chrome binary and reports its build timestamp.
type RemoteProber interface {
	StatChrome(ctx context.Context, remote *browser.CrosRemote) (time.Time, error)
}

// CrosFinder discovers Chrome on a remote ChromeOS device named by
// the options' CrosRemote.
type CrosFinder struct {
	prober RemoteProber
	logger *telemetry.Logger
}

// NewCrosFinder creates a ChromeOS finder using the given prober. A
// nil prober defaults to SSH probing.
func NewCrosFinder(prober RemoteProber, logger *telemetry.Logger) *CrosFinder {
	if prober == nil {
		prober = NewSSHProber()
	}
	return &CrosFinder{
		prober: prober,
		logger: logger.NewComponentLogger("cros-finder"),
	}
}

// Name implements browser.Finder.
func (f *CrosFinder) Name() string { return "cros" }

// ListSupportedTypes implements browser.Finder.
func (f *CrosFinder) ListSupportedTypes(browser.FinderOptions) []string {
	return []string{browser.BrowserTypeCros, browser.BrowserTypeCrosGuest}
}

// ListAvailable implements browser.Finder. An unreachable device is a
// legitimate "nothing available" result, not an error.
func (f *CrosFinder) ListAvailable(ctx context.Context, opts browser.FinderOptions, device browser.Device) ([]browser.PossibleBrowser, error) {
	if device.Kind != browser.DeviceKindCros || opts.CrosRemote == nil {
		return nil, nil
	}

	mtime, err := f.prober.StatChrome(ctx, opts.CrosRemote)
	if err != nil {
		f.logger.WithDevice(device.ID).WithError(err).
			Warn("chromeos device unreachable or has no chrome binary")
		return nil, nil
	}

	return []browser.PossibleBrowser{
		&CrosBrowser{browserType: browser.BrowserTypeCros, host: opts.CrosRemote.Host, mtime: mtime},
		&CrosBrowser{browserType: browser.BrowserTypeCrosGuest, host: opts.CrosRemote.Host, mtime: mtime},
	}, nil
}

// PickDefault implements browser.Finder. Remote browsers are never a
// default.
func (f *CrosFinder) PickDefault([]browser.PossibleBrowser) browser.PossibleBrowser {
	return nil
}
