package devices

import (
	"context"
	"strings"

	"github.com/Soumalya1857/catapult/pkg/browser"
	"github.com/Soumalya1857/catapult/pkg/telemetry"
)

// SerialLister enumerates attached Android device serials. It
// abstracts the adb bridge.
type SerialLister interface {
	ListSerials(ctx context.Context) ([]string, error)
}

// Enumerator is the default browser.DeviceEnumerator. It derives the
// device list from the options: the local host for desktop discovery,
// one device per configured (or attached) Android serial, and the
// remote ChromeOS device when a remote target is set.
//
// Device IDs are stable per target across calls; they participate in
// memoization keys.
type Enumerator struct {
	serials SerialLister
	logger  *telemetry.Logger
}

// NewEnumerator creates an enumerator. A nil serial lister limits
// Android discovery to the serials configured in the options.
func NewEnumerator(serials SerialLister, logger *telemetry.Logger) *Enumerator {
	return &Enumerator{
		serials: serials,
		logger:  logger.NewComponentLogger("device-enumerator"),
	}
}

// DevicesMatching implements browser.DeviceEnumerator.
func (e *Enumerator) DevicesMatching(ctx context.Context, opts browser.FinderOptions) ([]browser.Device, error) {
	var out []browser.Device

	if wantsLocal(opts.BrowserType) {
		out = append(out, browser.LocalDevice())
	}

	if wantsAndroid(opts.BrowserType) {
		serials := opts.Android.Serials
		if len(serials) == 0 && e.serials != nil {
			attached, err := e.serials.ListSerials(ctx)
			if err != nil {
				return nil, err
			}
			serials = attached
		}
		for _, serial := range serials {
			out = append(out, browser.Device{
				ID:     "android:" + serial,
				Kind:   browser.DeviceKindAndroid,
				Serial: serial,
			})
		}
	}

	if opts.CrosRemote != nil {
		out = append(out, browser.Device{
			ID:   "cros:" + opts.CrosRemote.Host,
			Kind: browser.DeviceKindCros,
			Host: opts.CrosRemote.Host,
		})
	}

	e.logger.Debugf("matched %d device(s)", len(out))
	return out, nil
}

// wantsLocal reports whether the requested type can live on the local
// host. Android and ChromeOS types never do.
func wantsLocal(browserType string) bool {
	if strings.HasPrefix(browserType, "android-") {
		return false
	}
	if browserType == browser.BrowserTypeCros || browserType == browser.BrowserTypeCrosGuest {
		return false
	}
	return true
}

// wantsAndroid reports whether Android devices are worth enumerating
// for the requested type.
func wantsAndroid(browserType string) bool {
	return browserType == "" ||
		browserType == browser.BrowserTypeAny ||
		strings.HasPrefix(browserType, "android-")
}
