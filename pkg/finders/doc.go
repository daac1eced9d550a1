// Package finders provides the backend browser finders for the three
// supported environment classes: desktop hosts, Android devices, and
// remote ChromeOS devices.
//
// Each finder implements browser.Finder. The resolver queries them in
// registration order; DefaultRegistry fixes the canonical order
// (desktop, android, cros), which doubles as the preference order for
// "any"-type resolution.
package finders
