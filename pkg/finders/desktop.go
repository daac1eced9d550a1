package finders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Soumalya1857/catapult/pkg/browser"
	"github.com/Soumalya1857/catapult/pkg/telemetry"
)

// Desktop browser types, most specific first.
const (
	TypeRelease = "release"
	TypeDebug   = "debug"
	TypeStable  = "stable"
	TypeCanary  = "canary"
	TypeSystem  = "system"
)

// DesktopBrowser is one discovered desktop browser binary.
type DesktopBrowser struct {
	browserType string
	path        string
	targetOS    string
	mtime       time.Time

	// localBuild marks binaries built from a Chromium checkout; only
	// those are candidates for the finder's default pick.
	localBuild bool
}

// BrowserType implements browser.PossibleBrowser.
func (b *DesktopBrowser) BrowserType() string { return b.browserType }

// TargetOS implements browser.PossibleBrowser.
func (b *DesktopBrowser) TargetOS() string { return b.targetOS }

// LastModificationTime implements browser.PossibleBrowser.
func (b *DesktopBrowser) LastModificationTime() time.Time { return b.mtime }

// ExecutablePath returns the path of the discovered binary.
func (b *DesktopBrowser) ExecutablePath() string { return b.path }

// SupportsOptions implements browser.PossibleBrowser. Desktop
// browsers honor every run setting.
func (b *DesktopBrowser) SupportsOptions(browser.BrowserOptions) bool { return true }

// UpdateExecutableIfNeeded implements browser.PossibleBrowser. The
// binary is already in place; this only re-verifies it still exists.
func (b *DesktopBrowser) UpdateExecutableIfNeeded() error {
	if _, err := os.Stat(b.path); err != nil {
		return fmt.Errorf("browser executable disappeared: %w", err)
	}
	return nil
}

func (b *DesktopBrowser) String() string {
	return fmt.Sprintf("DesktopBrowser(%s, %s)", b.browserType, b.path)
}

// DesktopFinder discovers browsers installed or built on the local
// host: locally built Chromium binaries under a checkout's build
// output directories and, optionally, well-known system installs.
type DesktopFinder struct {
	logger *telemetry.Logger

	// hostOS is the normalized local OS ("linux", "darwin", "win");
	// overridable in tests.
	hostOS string
}

// NewDesktopFinder creates a desktop finder for the local host.
func NewDesktopFinder(logger *telemetry.Logger) *DesktopFinder {
	return &DesktopFinder{
		logger: logger.NewComponentLogger("desktop-finder"),
		hostOS: normalizeHostOS(runtime.GOOS),
	}
}

// Name implements browser.Finder.
func (f *DesktopFinder) Name() string { return "desktop" }

// ListSupportedTypes implements browser.Finder.
func (f *DesktopFinder) ListSupportedTypes(browser.FinderOptions) []string {
	return []string{
		browser.BrowserTypeExact,
		TypeRelease,
		TypeDebug,
		TypeStable,
		TypeCanary,
		TypeSystem,
	}
}

// ListAvailable implements browser.Finder.
func (f *DesktopFinder) ListAvailable(ctx context.Context, opts browser.FinderOptions, device browser.Device) ([]browser.PossibleBrowser, error) {
	if device.Kind != browser.DeviceKindLocal {
		return nil, nil
	}

	var found []browser.PossibleBrowser

	if opts.BrowserExecutable != "" {
		fi, err := os.Stat(opts.BrowserExecutable)
		if err != nil {
			return nil, fmt.Errorf("browser executable not found at %s: %w", opts.BrowserExecutable, err)
		}
		found = append(found, &DesktopBrowser{
			browserType: browser.BrowserTypeExact,
			path:        opts.BrowserExecutable,
			targetOS:    f.hostOS,
			mtime:       fi.ModTime(),
			localBuild:  true,
		})
	}

	for _, bd := range f.buildDirs(opts) {
		path := filepath.Join(bd.dir, chromiumBinaryName(f.hostOS))
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		f.logger.Debugf("found local build: %s", path)
		found = append(found, &DesktopBrowser{
			browserType: bd.browserType,
			path:        path,
			targetOS:    f.hostOS,
			mtime:       fi.ModTime(),
			localBuild:  true,
		})
	}

	if opts.Desktop.FindSystem {
		for _, install := range systemInstallPaths(f.hostOS) {
			for _, path := range install.paths {
				fi, err := os.Stat(path)
				if err != nil {
					continue
				}
				found = append(found, &DesktopBrowser{
					browserType: install.browserType,
					path:        path,
					targetOS:    f.hostOS,
					mtime:       fi.ModTime(),
				})
				break
			}
		}
	}

	return found, ctx.Err()
}

// PickDefault implements browser.Finder: the most recently built
// local binary, or nil when only installed browsers were found.
func (f *DesktopFinder) PickDefault(candidates []browser.PossibleBrowser) browser.PossibleBrowser {
	var best *DesktopBrowser
	for _, c := range candidates {
		db, ok := c.(*DesktopBrowser)
		if !ok || !db.localBuild {
			continue
		}
		if best == nil || db.mtime.After(best.mtime) {
			best = db
		}
	}
	if best == nil {
		return nil
	}
	return best
}

// buildDir pairs a build output directory with the browser type its
// binary reports as.
type buildDir struct {
	dir         string
	browserType string
}

// buildDirs returns the build output directories to probe, in a fixed
// order so candidate ordering stays deterministic.
func (f *DesktopFinder) buildDirs(opts browser.FinderOptions) []buildDir {
	var dirs []buildDir
	if root := opts.Desktop.ChromiumRoot; root != "" {
		dirs = append(dirs,
			buildDir{filepath.Join(root, "out", "Release"), TypeRelease},
			buildDir{filepath.Join(root, "out", "Debug"), TypeDebug},
		)
	}
	for _, dir := range opts.Desktop.BuildDirs {
		browserType := TypeRelease
		if strings.Contains(strings.ToLower(filepath.Base(dir)), "debug") {
			browserType = TypeDebug
		}
		dirs = append(dirs, buildDir{dir, browserType})
	}
	return dirs
}

// chromiumBinaryName returns the binary name a Chromium build produces
// on the given OS.
func chromiumBinaryName(hostOS string) string {
	switch hostOS {
	case "darwin":
		return filepath.Join("Chromium.app", "Contents", "MacOS", "Chromium")
	case "win":
		return "chrome.exe"
	default:
		return "chrome"
	}
}

// systemInstall pairs a browser type with the locations it may be
// installed at; the first existing path wins.
type systemInstall struct {
	browserType string
	paths       []string
}

// systemInstallPaths returns the well-known install locations for the
// given OS, in a fixed probe order.
func systemInstallPaths(hostOS string) []systemInstall {
	switch hostOS {
	case "darwin":
		return []systemInstall{
			{TypeStable, []string{"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"}},
			{TypeCanary, []string{"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary"}},
		}
	case "win":
		return []systemInstall{
			{TypeStable, []string{
				filepath.Join(os.Getenv("PROGRAMFILES"), "Google", "Chrome", "Application", "chrome.exe"),
				filepath.Join(os.Getenv("LOCALAPPDATA"), "Google", "Chrome", "Application", "chrome.exe"),
			}},
			{TypeCanary, []string{
				filepath.Join(os.Getenv("LOCALAPPDATA"), "Google", "Chrome SxS", "Application", "chrome.exe"),
			}},
		}
	default:
		return []systemInstall{
			{TypeStable, []string{"/usr/bin/google-chrome", "/opt/google/chrome/chrome"}},
			{TypeSystem, []string{"/usr/bin/chromium", "/usr/bin/chromium-browser"}},
		}
	}
}

// normalizeHostOS maps GOOS values onto the target OS names candidates
// report.
func normalizeHostOS(goos string) string {
	switch goos {
	case "windows":
		return "win"
	default:
		return goos
	}
}
