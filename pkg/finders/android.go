package finders

import (
	"context"
	"fmt"
	"time"

	"github.com/Soumalya1857/catapult/pkg/browser"
	"github.com/Soumalya1857/catapult/pkg/telemetry"
)

// Android browser types.
const (
	TypeAndroidChrome   = "android-chrome"
	TypeAndroidChromium = "android-chromium"
	TypeAndroidWebview  = "android-webview"
)

// knownAndroidPackages maps installed package names onto browser
// types, in probe order.
var knownAndroidPackages = []struct {
	pkg         string
	browserType string
}{
	{"com.google.android.apps.chrome", TypeAndroidChromium},
	{"com.android.chrome", TypeAndroidChrome},
	{"com.google.android.webview", TypeAndroidWebview},
}

// Package is one installed package reported by an Android device.
type Package struct {
	// Name is the package name (e.g. "com.android.chrome").
	Name string

	// VersionName is the human-readable package version.
	VersionName string

	// LastUpdated is when the package was installed or last updated.
	LastUpdated time.Time
}

// PackageLister enumerates packages installed on an Android device.
// It abstracts the adb bridge so discovery stays testable without a
// device.
type PackageLister interface {
	ListPackages(ctx context.Context, serial string) ([]Package, error)
}

// AndroidBrowser is one controllable browser on an Android device.
type AndroidBrowser struct {
	browserType string
	packageName string
	serial      string
	mtime       time.Time
}

// BrowserType implements browser.PossibleBrowser.
func (b *AndroidBrowser) BrowserType() string { return b.browserType }

// TargetOS implements browser.PossibleBrowser.
func (b *AndroidBrowser) TargetOS() string { return "android" }

// LastModificationTime implements browser.PossibleBrowser.
func (b *AndroidBrowser) LastModificationTime() time.Time { return b.mtime }

// PackageName returns the Android package backing this browser.
func (b *AndroidBrowser) PackageName() string { return b.packageName }

// Serial returns the device serial the browser lives on.
func (b *AndroidBrowser) Serial() string { return b.serial }

// SupportsOptions implements browser.PossibleBrowser. Android
// browsers cannot run headless.
func (b *AndroidBrowser) SupportsOptions(opts browser.BrowserOptions) bool {
	return !opts.Headless
}

// UpdateExecutableIfNeeded implements browser.PossibleBrowser. The
// package is already installed on the device.
func (b *AndroidBrowser) UpdateExecutableIfNeeded() error { return nil }

func (b *AndroidBrowser) String() string {
	return fmt.Sprintf("AndroidBrowser(%s, %s on %s)", b.browserType, b.packageName, b.serial)
}

// AndroidFinder discovers browsers installed on Android devices
// through an injected package lister.
type AndroidFinder struct {
	lister PackageLister
	logger *telemetry.Logger
}

// NewAndroidFinder creates an Android finder backed by the given
// package lister. A nil lister yields no candidates.
func NewAndroidFinder(lister PackageLister, logger *telemetry.Logger) *AndroidFinder {
	return &AndroidFinder{
		lister: lister,
		logger: logger.NewComponentLogger("android-finder"),
	}
}

// Name implements browser.Finder.
func (f *AndroidFinder) Name() string { return "android" }

// ListSupportedTypes implements browser.Finder.
func (f *AndroidFinder) ListSupportedTypes(browser.FinderOptions) []string {
	return []string{TypeAndroidChromium, TypeAndroidChrome, TypeAndroidWebview}
}

// ListAvailable implements browser.Finder.
func (f *AndroidFinder) ListAvailable(ctx context.Context, opts browser.FinderOptions, device browser.Device) ([]browser.PossibleBrowser, error) {
	if device.Kind != browser.DeviceKindAndroid || f.lister == nil {
		return nil, nil
	}

	packages, err := f.lister.ListPackages(ctx, device.Serial)
	if err != nil {
		return nil, fmt.Errorf("listing packages on %s: %w", device.Serial, err)
	}

	installed := make(map[string]Package, len(packages))
	for _, p := range packages {
		installed[p.Name] = p
	}

	var found []browser.PossibleBrowser
	for _, known := range knownAndroidPackages {
		p, ok := installed[known.pkg]
		if !ok {
			continue
		}
		f.logger.WithDevice(device.ID).Debugf("found %s (%s)", known.browserType, p.Name)
		found = append(found, &AndroidBrowser{
			browserType: known.browserType,
			packageName: p.Name,
			serial:      device.Serial,
			mtime:       p.LastUpdated,
		})
	}

	return found, nil
}

// PickDefault implements browser.Finder. Android browsers are never a
// default; an explicit type is required to target a device.
func (f *AndroidFinder) PickDefault([]browser.PossibleBrowser) browser.PossibleBrowser {
	return nil
}
