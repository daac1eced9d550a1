package browser

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Soumalya1857/catapult/pkg/stores"
	"github.com/Soumalya1857/catapult/pkg/telemetry"
)

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Registry holds the backend finders in registration order.
	Registry *Registry

	// Devices enumerates the devices a configuration targets.
	Devices DeviceEnumerator

	// Telemetry is optional; a logging-only instance is used when nil.
	Telemetry *telemetry.Telemetry

	// Audit is the optional resolution audit store. Audit failures are
	// logged, never propagated.
	Audit stores.Store

	// CacheStore overrides the default in-memory memoization store.
	CacheStore CacheStore
}

// Resolver turns finder options into at most one possible browser. It
// is safe for concurrent use: discovery itself is synchronous and
// blocking, and the memoization cache serializes same-key computations
// so concurrent callers with equal options trigger discovery once.
type Resolver struct {
	registry  *Registry
	devices   DeviceEnumerator
	tel       *telemetry.Telemetry
	logger    *telemetry.Logger
	audit     stores.Store
	validator *optionsValidator
	cache     *cache
}

// NewResolver creates a Resolver from the given configuration.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Registry == nil || len(cfg.Registry.Finders()) == 0 {
		return nil, fmt.Errorf("at least one finder must be registered")
	}
	if cfg.Devices == nil {
		return nil, fmt.Errorf("a device enumerator is required")
	}

	tel := cfg.Telemetry
	if tel == nil {
		tel = telemetry.Nop()
	}

	return &Resolver{
		registry:  cfg.Registry,
		devices:   cfg.Devices,
		tel:       tel,
		logger:    tel.Logger.NewComponentLogger("browser-finder"),
		audit:     cfg.Audit,
		validator: newOptionsValidator(),
		cache:     newCache(cfg.CacheStore),
	}, nil
}

// Memoized values must carry a possibly-nil interface, so they are
// wrapped in concrete result types.
type findResult struct{ browser PossibleBrowser }
type listResult struct{ browsers []PossibleBrowser }
type typesResult struct{ types []string }

// FindBrowser finds the best possible browser for the given options.
//
// It returns nil (with no error) when no browser is available, a
// *ConfigurationError when the options are inconsistent, and a
// *BrowserTypeRequiredError when several browsers are available and no
// default could be picked. The chosen browser's
// UpdateExecutableIfNeeded hook runs exactly once; repeated calls with
// structurally equal options are served from the memoization cache
// without touching any finder.
func (r *Resolver) FindBrowser(ctx context.Context, opts FinderOptions) (PossibleBrowser, error) {
	if opts.Prebuilt != nil {
		r.logger.Debug("using prebuilt browser, skipping discovery")
		return opts.Prebuilt, nil
	}

	if err := r.validator.checkOptions(opts); err != nil {
		return nil, err
	}

	key := "find_browser|" + optionsDigest(opts)
	v, hit, err := r.cache.do(key, func() (any, error) {
		chosen, err := r.findBrowserUncached(ctx, opts)
		if err != nil {
			return nil, err
		}
		return findResult{browser: chosen}, nil
	})
	r.recordCacheOutcome("find_browser", hit)
	if err != nil {
		return nil, err
	}
	return v.(findResult).browser, nil
}

func (r *Resolver) findBrowserUncached(ctx context.Context, opts FinderOptions) (PossibleBrowser, error) {
	resolutionID := uuid.New().String()
	logger := r.logger.WithResolutionID(resolutionID)

	ctx, span := r.tel.Tracer.StartResolutionSpan(ctx, resolutionID, opts.BrowserType)
	defer span.End()

	start := time.Now()

	devices, err := r.devices.DevicesMatching(ctx, opts)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("device enumeration failed: %w", err)
	}
	r.tel.Metrics.RecordDevicesMatched(len(devices))

	agg, err := r.aggregate(ctx, opts, devices, resolutionID)
	if err != nil {
		telemetry.RecordError(span, err)
		r.recordResolutionAudit(ctx, resolutionID, opts, nil, agg, "", start, err)
		return nil, err
	}

	chosen, reason, err := r.selectBrowser(opts, agg, logger)
	if err != nil {
		telemetry.RecordError(span, err)
		r.tel.Metrics.RecordResolution(string(stores.OutcomeError), time.Since(start))
		r.recordResolutionAudit(ctx, resolutionID, opts, nil, agg, "", start, err)
		return nil, err
	}

	if chosen == nil {
		logger.Info("no browser found")
		r.tel.Metrics.RecordResolution(string(stores.OutcomeNone), time.Since(start))
		r.recordResolutionAudit(ctx, resolutionID, opts, nil, agg, "", start, nil)
		r.tel.Events.PublishResolutionCompleted(resolutionID, "", "no browser found")
		return nil, nil
	}

	logger.WithBrowserType(chosen.BrowserType()).
		Infof("chose browser: %s on %s", chosen.BrowserType(), chosen.TargetOS())

	if err := chosen.UpdateExecutableIfNeeded(); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to update executable for %s: %w", chosen.BrowserType(), err)
	}

	span.SetAttributes(
		telemetry.AttrBrowserType.String(chosen.BrowserType()),
		telemetry.AttrTargetOS.String(chosen.TargetOS()),
		telemetry.AttrOutcome.String(string(stores.OutcomeChosen)),
	)
	telemetry.RecordSuccess(span)

	r.tel.Metrics.RecordResolution(string(stores.OutcomeChosen), time.Since(start))
	r.recordResolutionAudit(ctx, resolutionID, opts, chosen, agg, reason, start, nil)
	r.tel.Events.PublishBrowserChosen(resolutionID, chosen.BrowserType(), reason)
	if reason == stores.ReasonDefaultMostRecent || reason == stores.ReasonOnlyAvailable {
		r.tel.Events.PublishDefaultUsed(resolutionID, chosen.BrowserType(), reason)
	}

	return chosen, nil
}

// selectBrowser applies the selection policy over the aggregated
// candidate set. It returns the chosen candidate (nil means "none
// found", which is not an error) and the reason it was picked.
func (r *Resolver) selectBrowser(opts FinderOptions, agg *aggregation, logger *telemetry.Logger) (PossibleBrowser, string, error) {
	if len(agg.candidates) == 0 {
		return nil, "", nil
	}

	switch {
	case opts.BrowserType == "":
		// No type requested: prefer the most recently built default,
		// then a sole candidate; otherwise the caller must pick.
		if len(agg.defaults) > 0 {
			def := mostRecent(agg.defaults)
			logger.WithBrowserType(def.BrowserType()).
				Warnf("browser type omitted, using most recent local build: %s", def.BrowserType())
			return def, stores.ReasonDefaultMostRecent, nil
		}
		if len(agg.candidates) == 1 {
			only := agg.candidates[0]
			logger.WithBrowserType(only.BrowserType()).
				Warnf("browser type omitted, using only available browser: %s", only.BrowserType())
			return only, stores.ReasonOnlyAvailable, nil
		}
		return nil, "", newBrowserTypeRequiredError(browserTypes(agg.candidates))

	case opts.BrowserType == BrowserTypeAny:
		// Deterministic preference order, not recency: the earliest
		// registered finder's earliest declared type wins.
		order := r.AggregateTypes(opts)
		chosen := firstInTypeOrder(agg.candidates, order)
		logger.WithBrowserType(chosen.BrowserType()).
			Warnf("browser type \"any\" requested, using first in preference order: %s", chosen.BrowserType())
		return chosen, stores.ReasonAnyFirstInOrder, nil

	default:
		var matching []PossibleBrowser
		for _, b := range agg.candidates {
			if b.BrowserType() == opts.BrowserType && b.SupportsOptions(opts.BrowserOptions) {
				matching = append(matching, b)
			}
		}
		if len(matching) == 0 {
			logger.Warnf("cannot find any browser matching type %q", opts.BrowserType)
			return nil, "", nil
		}
		if len(matching) > 1 {
			logger.Warnf("multiple browsers of type %q found, using most recent", opts.BrowserType)
		}
		return mostRecent(matching), stores.ReasonExplicitMatch, nil
	}
}

// GetAllAvailableBrowsers returns every browser each finder reports on
// the device. A zero device yields an empty result. Results are
// memoized per (options, device).
func (r *Resolver) GetAllAvailableBrowsers(ctx context.Context, opts FinderOptions, device Device) ([]PossibleBrowser, error) {
	if device.IsZero() {
		return nil, nil
	}

	key := "available_browsers|" + optionsDigest(opts) + "|" + device.ID
	v, hit, err := r.cache.do(key, func() (any, error) {
		var all []PossibleBrowser
		for _, finder := range r.registry.Finders() {
			found, err := r.listAvailable(ctx, finder, opts, device)
			if err != nil {
				return nil, fmt.Errorf("finder %s failed on device %s: %w", finder.Name(), device.ID, err)
			}
			all = append(all, found...)
		}
		return listResult{browsers: all}, nil
	})
	r.recordCacheOutcome("available_browsers", hit)
	if err != nil {
		return nil, err
	}
	return v.(listResult).browsers, nil
}

// GetAllAvailableBrowserTypes returns the sorted, de-duplicated set of
// browser types available across all matching devices. A synthetic
// "reference" type is injected once whenever any candidate targets a
// desktop OS, even though no finder reports a reference browser
// directly.
func (r *Resolver) GetAllAvailableBrowserTypes(ctx context.Context, opts FinderOptions) ([]string, error) {
	key := "available_types|" + optionsDigest(opts)
	v, hit, err := r.cache.do(key, func() (any, error) {
		devices, err := r.devices.DevicesMatching(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("device enumeration failed: %w", err)
		}

		var all []PossibleBrowser
		for _, device := range devices {
			found, err := r.GetAllAvailableBrowsers(ctx, opts, device)
			if err != nil {
				return nil, err
			}
			all = append(all, found...)
		}

		typeSet := make(map[string]bool)
		for _, b := range all {
			typeSet[b.BrowserType()] = true
		}
		for _, b := range all {
			if isDesktopOS(b.TargetOS()) {
				typeSet[BrowserTypeReference] = true
				break
			}
		}

		types := make([]string, 0, len(typeSet))
		for t := range typeSet {
			types = append(types, t)
		}
		sort.Strings(types)
		return typesResult{types: types}, nil
	})
	r.recordCacheOutcome("available_types", hit)
	if err != nil {
		return nil, err
	}
	return v.(typesResult).types, nil
}

// recordCacheOutcome bumps the hit/miss counter for an entry point.
func (r *Resolver) recordCacheOutcome(entryPoint string, hit bool) {
	if hit {
		r.tel.Metrics.RecordCacheHit(entryPoint)
	} else {
		r.tel.Metrics.RecordCacheMiss(entryPoint)
	}
}

// recordResolutionAudit writes the resolution record and its buffered
// discovery events. Audit failures are logged, never propagated.
func (r *Resolver) recordResolutionAudit(ctx context.Context, resolutionID string, opts FinderOptions, chosen PossibleBrowser, agg *aggregation, reason string, start time.Time, resErr error) {
	if r.audit == nil {
		return
	}

	rec := &stores.Resolution{
		ID:            resolutionID,
		OptionsDigest: optionsDigest(opts),
		RequestedType: opts.BrowserType,
		Outcome:       stores.OutcomeNone,
		Reason:        reason,
		Duration:      time.Since(start),
		CreatedAt:     time.Now(),
	}
	if agg != nil {
		rec.CandidateCnt = len(agg.candidates)
	}
	if chosen != nil {
		rec.Outcome = stores.OutcomeChosen
		rec.BrowserType = chosen.BrowserType()
		rec.TargetOS = chosen.TargetOS()
	}
	if resErr != nil {
		rec.Outcome = stores.OutcomeError
		msg := resErr.Error()
		rec.Error = &msg
	}

	if err := r.audit.RecordResolution(ctx, rec); err != nil {
		r.logger.WithError(err).Warn("failed to record resolution audit")
		return
	}
	if agg == nil {
		return
	}
	for _, e := range agg.events {
		if err := r.audit.RecordDiscoveryEvent(ctx, e); err != nil {
			r.logger.WithError(err).Warn("failed to record discovery event")
			return
		}
	}
}

// mostRecent returns the candidate with the maximum last modification
// time. Ties break first-seen-wins, which is deterministic because
// finder registration order and device order are fixed.
func mostRecent(candidates []PossibleBrowser) PossibleBrowser {
	best := candidates[0]
	for _, b := range candidates[1:] {
		if b.LastModificationTime().After(best.LastModificationTime()) {
			best = b
		}
	}
	return best
}

// firstInTypeOrder returns the candidate whose type appears earliest
// in the given preference order. Ties break first-seen-wins.
func firstInTypeOrder(candidates []PossibleBrowser, order []string) PossibleBrowser {
	index := make(map[string]int, len(order))
	for i, t := range order {
		index[t] = i
	}

	best := candidates[0]
	bestIdx := typeIndex(index, best.BrowserType(), len(order))
	for _, b := range candidates[1:] {
		if i := typeIndex(index, b.BrowserType(), len(order)); i < bestIdx {
			best, bestIdx = b, i
		}
	}
	return best
}

func typeIndex(index map[string]int, browserType string, unknown int) int {
	if i, ok := index[browserType]; ok {
		return i
	}
	return unknown
}

func browserTypes(candidates []PossibleBrowser) []string {
	types := make([]string, 0, len(candidates))
	for _, b := range candidates {
		types = append(types, b.BrowserType())
	}
	return types
}

// isDesktopOS reports whether the target OS is one the reference build
// is published for.
func isDesktopOS(targetOS string) bool {
	return targetOS == "darwin" ||
		strings.HasPrefix(targetOS, "linux") ||
		strings.HasPrefix(targetOS, "win")
}
