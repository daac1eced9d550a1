// Package browser resolves the single concrete browser a
// test-automation run should control.
//
// A Resolver queries a fixed, ordered set of backend finders (desktop,
// android, cros) over the devices a configuration matches, merges
// their candidates, and applies the selection policy: an explicitly
// requested type is matched against candidate capabilities, "any"
// picks the first candidate in finder registration order, and an
// omitted type prefers the most recently built default, then a sole
// candidate, and otherwise fails with BrowserTypeRequiredError.
//
// Expensive discovery calls are memoized for the process lifetime,
// keyed structurally on the significant option fields, so repeated
// resolutions with equal options never re-probe a backend.
//
//	reg := browser.NewRegistry(desktopFinder, androidFinder, crosFinder)
//	resolver, err := browser.NewResolver(browser.ResolverConfig{
//	    Registry: reg,
//	    Devices:  enumerator,
//	})
//	if err != nil {
//	    return err
//	}
//	b, err := resolver.FindBrowser(ctx, opts)
package browser
