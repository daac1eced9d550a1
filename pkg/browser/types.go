package browser

import (
	"context"
	"time"
)

// Well-known browser type values with special resolution semantics.
// Any other non-empty value names a concrete backend-declared type.
const (
	// BrowserTypeAny asks for the first available browser in finder
	// registration order.
	BrowserTypeAny = "any"

	// BrowserTypeExact asks for the browser at FinderOptions.BrowserExecutable.
	BrowserTypeExact = "exact"

	// BrowserTypeCros and BrowserTypeCrosGuest target a remote ChromeOS
	// device and require FinderOptions.CrosRemote.
	BrowserTypeCros      = "cros-chrome"
	BrowserTypeCrosGuest = "cros-chrome-guest"

	// BrowserTypeReference is a synthetic type injected into
	// GetAllAvailableBrowserTypes results for desktop target platforms.
	// No finder reports it directly.
	BrowserTypeReference = "reference"
)

// DeviceKind classifies the environment a Device lives in.
type DeviceKind string

const (
	DeviceKindLocal   DeviceKind = "local"
	DeviceKindAndroid DeviceKind = "android"
	DeviceKindCros    DeviceKind = "cros"
)

// Device identifies one target machine, emulator, or the local host.
// The zero value means "no device" and yields no discovery results.
//
// IDs must be stable for a given target across calls: they participate
// in memoization keys.
type Device struct {
	// ID is the stable identifier of the device (e.g. "local",
	// "android:<serial>", "cros:<host>").
	ID string `json:"id" yaml:"id"`

	// Kind is the device environment class.
	Kind DeviceKind `json:"kind" yaml:"kind"`

	// Serial is the Android device serial, for android devices.
	Serial string `json:"serial,omitempty" yaml:"serial,omitempty"`

	// Host is the remote hostname, for ChromeOS devices.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
}

// IsZero reports whether d is the "no device" sentinel.
func (d Device) IsZero() bool {
	return d.ID == ""
}

// LocalDevice returns the device handle for the local host.
func LocalDevice() Device {
	return Device{ID: "local", Kind: DeviceKindLocal}
}

// CrosRemote describes the remote ChromeOS device a cros-chrome browser
// runs on. Only legal when the browser type is a ChromeOS variant.
type CrosRemote struct {
	// Host is the hostname or IP address of the device.
	Host string `json:"host" yaml:"host" validate:"required"`

	// Port is the SSH port (default 22).
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// User is the SSH username (default "root").
	User string `json:"user,omitempty" yaml:"user,omitempty"`

	// PrivateKeyPath is the path to the SSH private key.
	PrivateKeyPath string `json:"private_key_path,omitempty" yaml:"private_key_path,omitempty"`
}

// BrowserOptions carries the per-run browser settings a candidate must
// support. Finders consult it from SupportsOptions.
type BrowserOptions struct {
	// Profile is the profile directory the browser should run with.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	// ExtraArgs are additional command-line arguments for the browser.
	ExtraArgs []string `json:"extra_args,omitempty" yaml:"extra_args,omitempty"`

	// Headless requests a headless-capable browser.
	Headless bool `json:"headless,omitempty" yaml:"headless,omitempty"`
}

// DesktopOptions configures desktop browser discovery.
type DesktopOptions struct {
	// ChromiumRoot is the root of a Chromium checkout. Build output
	// directories under it (out/Release, out/Debug) are probed for
	// locally built browsers.
	ChromiumRoot string `json:"chromium_root,omitempty" yaml:"chromium_root,omitempty"`

	// BuildDirs are extra build output directories to probe.
	BuildDirs []string `json:"build_dirs,omitempty" yaml:"build_dirs,omitempty"`

	// FindSystem enables probing well-known system install locations.
	FindSystem bool `json:"find_system,omitempty" yaml:"find_system,omitempty"`
}

// AndroidOptions configures Android browser discovery.
type AndroidOptions struct {
	// Serials restricts discovery to these device serials. Empty means
	// every attached device.
	Serials []string `json:"serials,omitempty" yaml:"serials,omitempty"`
}

// FinderOptions is the immutable configuration a resolution run is
// driven by. Construct it once, validate it, and treat it as a value:
// memoization keys are derived from its significant fields.
type FinderOptions struct {
	// BrowserType selects the resolution policy: empty for "pick a
	// sensible default", BrowserTypeAny for "first available", or a
	// concrete type name.
	BrowserType string `json:"browser_type,omitempty" yaml:"browser_type,omitempty"`

	// BrowserExecutable is the path to a browser binary. Only legal
	// when BrowserType is BrowserTypeExact.
	BrowserExecutable string `json:"browser_executable,omitempty" yaml:"browser_executable,omitempty"`

	// CrosRemote is the remote ChromeOS target. Only legal when
	// BrowserType is a ChromeOS variant.
	CrosRemote *CrosRemote `json:"cros_remote,omitempty" yaml:"cros_remote,omitempty"`

	// BrowserOptions are the settings the chosen browser must support.
	BrowserOptions BrowserOptions `json:"browser_options,omitempty" yaml:"browser_options,omitempty"`

	// Desktop and Android carry backend-specific discovery settings.
	Desktop DesktopOptions `json:"desktop,omitempty" yaml:"desktop,omitempty"`
	Android AndroidOptions `json:"android,omitempty" yaml:"android,omitempty"`

	// Prebuilt short-circuits resolution with a pre-built browser.
	// It is a test seam for harnesses that construct their own
	// PossibleBrowser; when set, no validation or discovery runs.
	Prebuilt PossibleBrowser `json:"-" yaml:"-"`
}

// PossibleBrowser is one discoverable, controllable browser reported by
// a finder. Implementations are created per discovery call and their
// identity is stable for the duration of one resolution.
type PossibleBrowser interface {
	// BrowserType returns the backend-declared type name.
	BrowserType() string

	// TargetOS returns the OS the browser runs on ("linux", "darwin",
	// "win", "android", "chromeos").
	TargetOS() string

	// LastModificationTime returns the build timestamp of the binary,
	// used for recency ranking.
	LastModificationTime() time.Time

	// SupportsOptions reports whether the browser can honor the given
	// run settings.
	SupportsOptions(opts BrowserOptions) bool

	// UpdateExecutableIfNeeded prepares the executable for use. It is
	// idempotent and is invoked exactly once on the chosen browser.
	UpdateExecutableIfNeeded() error
}

// Finder is one discovery backend for an environment class. The
// resolver consumes a fixed, ordered set of finders; it never probes
// environments itself.
type Finder interface {
	// Name identifies the finder in logs and metrics.
	Name() string

	// ListSupportedTypes returns the browser types this finder can
	// discover under the given options. It must be cheap and must not
	// touch devices.
	ListSupportedTypes(opts FinderOptions) []string

	// ListAvailable probes the device for available browsers.
	ListAvailable(ctx context.Context, opts FinderOptions, device Device) ([]PossibleBrowser, error)

	// PickDefault returns this finder's best guess among its own
	// candidates when no explicit type was requested, or nil.
	PickDefault(candidates []PossibleBrowser) PossibleBrowser
}

// DeviceEnumerator lists the devices a configuration targets.
type DeviceEnumerator interface {
	// DevicesMatching returns the devices discovery should run
	// against. An empty result is valid and resolves to "none found".
	DevicesMatching(ctx context.Context, opts FinderOptions) ([]Device, error)
}

// Registry holds the finders in registration order. The order is a
// behavioral contract: it is the tie-break for "any"-type resolution,
// so it must be stable (canonically desktop, android, cros).
type Registry struct {
	ordered []Finder
}

// NewRegistry creates a registry with the given finders, in order.
func NewRegistry(finders ...Finder) *Registry {
	return &Registry{ordered: append([]Finder(nil), finders...)}
}

// Register appends a finder. Later registrations rank lower in the
// "any" preference order.
func (r *Registry) Register(f Finder) {
	r.ordered = append(r.ordered, f)
}

// Finders returns the finders in registration order. The returned
// slice must not be mutated.
func (r *Registry) Finders() []Finder {
	return r.ordered
}
