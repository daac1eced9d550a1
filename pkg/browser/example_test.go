package browser_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Soumalya1857/catapult/pkg/browser"
)

// staticBrowser is a minimal PossibleBrowser for the examples.
type staticBrowser struct {
	browserType string
	mtime       time.Time
}

func (b *staticBrowser) BrowserType() string                         { return b.browserType }
func (b *staticBrowser) TargetOS() string                            { return "linux" }
func (b *staticBrowser) LastModificationTime() time.Time             { return b.mtime }
func (b *staticBrowser) SupportsOptions(browser.BrowserOptions) bool { return true }
func (b *staticBrowser) UpdateExecutableIfNeeded() error             { return nil }

// staticFinder reports a fixed browser set for the examples.
type staticFinder struct {
	browsers []browser.PossibleBrowser
}

func (f *staticFinder) Name() string { return "static" }

func (f *staticFinder) ListSupportedTypes(browser.FinderOptions) []string {
	return []string{"release", "debug"}
}

func (f *staticFinder) ListAvailable(ctx context.Context, opts browser.FinderOptions, device browser.Device) ([]browser.PossibleBrowser, error) {
	return f.browsers, nil
}

func (f *staticFinder) PickDefault(candidates []browser.PossibleBrowser) browser.PossibleBrowser {
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

// localOnly enumerates just the local host.
type localOnly struct{}

func (localOnly) DevicesMatching(ctx context.Context, opts browser.FinderOptions) ([]browser.Device, error) {
	return []browser.Device{browser.LocalDevice()}, nil
}

// ExampleNewResolver demonstrates wiring finders into a resolver.
func ExampleNewResolver() {
	finder := &staticFinder{
		browsers: []browser.PossibleBrowser{
			&staticBrowser{browserType: "release", mtime: time.Now()},
		},
	}

	resolver, err := browser.NewResolver(browser.ResolverConfig{
		Registry: browser.NewRegistry(finder),
		Devices:  localOnly{},
	})
	if err != nil {
		log.Fatal(err)
	}

	chosen, err := resolver.FindBrowser(context.Background(), browser.FinderOptions{
		BrowserType: "release",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(chosen.BrowserType())
	// Output: release
}

// ExampleResolver_FindAllBrowserTypes demonstrates listing declared
// types without probing any device.
func ExampleResolver_FindAllBrowserTypes() {
	resolver, err := browser.NewResolver(browser.ResolverConfig{
		Registry: browser.NewRegistry(&staticFinder{}),
		Devices:  localOnly{},
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, t := range resolver.FindAllBrowserTypes(browser.FinderOptions{}) {
		fmt.Println(t)
	}
	// Output:
	// release
	// debug
}
