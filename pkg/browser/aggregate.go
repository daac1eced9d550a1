package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Soumalya1857/catapult/pkg/stores"
	"github.com/Soumalya1857/catapult/pkg/telemetry"
)

// aggregation is the merged result of querying every finder over every
// matching device.
type aggregation struct {
	candidates []PossibleBrowser
	defaults   []PossibleBrowser

	// events buffer the per-finder audit trail; they are flushed to
	// the audit store after the resolution record is written.
	events []*stores.DiscoveryEvent
}

// aggregate runs all registered finders over all devices, merging
// candidates and collecting each finder's default. Finders that cannot
// produce the explicitly requested type are skipped without probing.
// Finders are queried in registration order; that order is the "any"
// tie-break contract.
func (r *Resolver) aggregate(ctx context.Context, opts FinderOptions, devices []Device, resolutionID string) (*aggregation, error) {
	agg := &aggregation{}

	explicit := opts.BrowserType != "" && opts.BrowserType != BrowserTypeAny

	for _, device := range devices {
		for _, finder := range r.registry.Finders() {
			if explicit && !finderSupports(finder, opts, opts.BrowserType) {
				continue
			}

			found, err := r.listAvailable(ctx, finder, opts, device)
			if err != nil {
				return nil, fmt.Errorf("finder %s failed on device %s: %w", finder.Name(), device.ID, err)
			}

			for _, b := range found {
				r.tel.Metrics.RecordCandidate(finder.Name(), b.BrowserType())
			}
			agg.candidates = append(agg.candidates, found...)

			if def := finder.PickDefault(found); def != nil {
				agg.defaults = append(agg.defaults, def)
			}

			agg.events = append(agg.events, &stores.DiscoveryEvent{
				ID:           uuid.New().String(),
				ResolutionID: resolutionID,
				Finder:       finder.Name(),
				DeviceID:     device.ID,
				Level:        "info",
				Message:      fmt.Sprintf("listed %d candidate(s)", len(found)),
				CreatedAt:    time.Now(),
			})
		}
	}

	return agg, nil
}

// listAvailable calls one finder with tracing and metrics around it.
func (r *Resolver) listAvailable(ctx context.Context, finder Finder, opts FinderOptions, device Device) ([]PossibleBrowser, error) {
	ctx, span := r.tel.Tracer.StartFinderSpan(ctx, finder.Name(), "list_available", device.ID)
	defer span.End()

	start := time.Now()
	found, err := finder.ListAvailable(ctx, opts, device)
	r.tel.Metrics.RecordFinderCall(finder.Name(), "list_available", time.Since(start), err)

	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return found, nil
}

// finderSupports reports whether the finder declares browserType under
// the given options.
func finderSupports(finder Finder, opts FinderOptions, browserType string) bool {
	for _, t := range finder.ListSupportedTypes(opts) {
		if t == browserType {
			return true
		}
	}
	return false
}

// FindAllBrowserTypes returns the browser types every registered
// finder declares, in registration order then each finder's internal
// order. Duplicates are preserved. It performs no discovery and never
// fails.
func (r *Resolver) FindAllBrowserTypes(opts FinderOptions) []string {
	var types []string
	for _, finder := range r.registry.Finders() {
		types = append(types, finder.ListSupportedTypes(opts)...)
	}
	return types
}

// AggregateTypes returns the de-duplicated union of supported types
// across all registered finders, preserving first-declared order. The
// "any" resolution path ranks candidates by position in this list.
func (r *Resolver) AggregateTypes(opts FinderOptions) []string {
	seen := make(map[string]bool)
	var union []string
	for _, t := range r.FindAllBrowserTypes(opts) {
		if !seen[t] {
			seen[t] = true
			union = append(union, t)
		}
	}
	return union
}
