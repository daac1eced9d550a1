package browser

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Soumalya1857/catapult/pkg/telemetry"
)

// Mock browser for testing
type mockBrowser struct {
	mu          sync.Mutex
	browserType string
	targetOS    string
	mtime       time.Time
	unsupported bool
	updateCalls int
	updateErr   error
}

func (b *mockBrowser) BrowserType() string { return b.browserType }

func (b *mockBrowser) TargetOS() string {
	if b.targetOS == "" {
		return "linux"
	}
	return b.targetOS
}

func (b *mockBrowser) LastModificationTime() time.Time { return b.mtime }

func (b *mockBrowser) SupportsOptions(BrowserOptions) bool { return !b.unsupported }

func (b *mockBrowser) UpdateExecutableIfNeeded() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateCalls++
	return b.updateErr
}

func (b *mockBrowser) getUpdateCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updateCalls
}

// Mock finder for testing
type mockFinder struct {
	mu        sync.Mutex
	name      string
	types     []string
	browsers  []PossibleBrowser
	def       PossibleBrowser
	listErr   error
	listCalls int
}

func (f *mockFinder) Name() string { return f.name }

func (f *mockFinder) ListSupportedTypes(FinderOptions) []string { return f.types }

func (f *mockFinder) ListAvailable(ctx context.Context, opts FinderOptions, device Device) ([]PossibleBrowser, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.browsers, nil
}

func (f *mockFinder) PickDefault(candidates []PossibleBrowser) PossibleBrowser {
	if f.def == nil {
		return nil
	}
	for _, c := range candidates {
		if c == f.def {
			return f.def
		}
	}
	return nil
}

func (f *mockFinder) getListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// Mock device enumerator for testing
type mockEnumerator struct {
	mu      sync.Mutex
	devices []Device
	err     error
	calls   int
}

func (e *mockEnumerator) DevicesMatching(ctx context.Context, opts FinderOptions) ([]Device, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.devices, nil
}

func (e *mockEnumerator) getCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// quietTelemetry returns a logging-only telemetry instance that stays
// silent below the error level.
func quietTelemetry(t *testing.T) *telemetry.Telemetry {
	t.Helper()

	cfg := telemetry.DefaultConfig()
	cfg.Logging.Level = "error"
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("failed to create telemetry: %v", err)
	}
	return tel
}

// newTestResolver builds a resolver over the given finders with a
// single local device.
func newTestResolver(t *testing.T, enum DeviceEnumerator, finders ...Finder) *Resolver {
	t.Helper()

	if enum == nil {
		enum = &mockEnumerator{devices: []Device{LocalDevice()}}
	}

	r, err := NewResolver(ResolverConfig{
		Registry:  NewRegistry(finders...),
		Devices:   enum,
		Telemetry: quietTelemetry(t),
	})
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}
	return r
}

func TestNewResolverRequiresFinders(t *testing.T) {
	_, err := NewResolver(ResolverConfig{
		Registry: NewRegistry(),
		Devices:  &mockEnumerator{},
	})
	if err == nil {
		t.Fatal("expected error for empty registry")
	}

	_, err = NewResolver(ResolverConfig{
		Registry: NewRegistry(&mockFinder{name: "desktop"}),
	})
	if err == nil {
		t.Fatal("expected error for missing device enumerator")
	}
}

func TestFindBrowserValidatesBeforeDiscovery(t *testing.T) {
	enum := &mockEnumerator{devices: []Device{LocalDevice()}}
	finder := &mockFinder{name: "desktop", types: []string{"exact", "release"}}
	r := newTestResolver(t, enum, finder)

	_, err := r.FindBrowser(context.Background(), FinderOptions{BrowserType: BrowserTypeExact})
	if err == nil {
		t.Fatal("expected configuration error for exact without executable")
	}

	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected *ConfigurationError, got %T: %v", err, err)
	}
	if confErr.Field != "browser_executable" {
		t.Errorf("expected field browser_executable, got %q", confErr.Field)
	}

	// Validation gates discovery: nothing was probed.
	if enum.getCalls() != 0 {
		t.Errorf("expected no device enumeration, got %d calls", enum.getCalls())
	}
	if finder.getListCalls() != 0 {
		t.Errorf("expected no finder calls, got %d", finder.getListCalls())
	}
}

func TestFindBrowserRejectsInconsistentOptions(t *testing.T) {
	r := newTestResolver(t, nil, &mockFinder{name: "desktop", types: []string{"release"}})

	tests := []struct {
		name  string
		opts  FinderOptions
		field string
	}{
		{
			name:  "executable without exact type",
			opts:  FinderOptions{BrowserType: "release", BrowserExecutable: "/opt/chrome"},
			field: "browser_executable",
		},
		{
			name:  "cros type without remote",
			opts:  FinderOptions{BrowserType: BrowserTypeCros},
			field: "cros_remote",
		},
		{
			name:  "remote without cros type",
			opts:  FinderOptions{BrowserType: "release", CrosRemote: &CrosRemote{Host: "dut-1"}},
			field: "cros_remote",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.FindBrowser(context.Background(), tt.opts)
			var confErr *ConfigurationError
			if !errors.As(err, &confErr) {
				t.Fatalf("expected *ConfigurationError, got %T: %v", err, err)
			}
			if confErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, confErr.Field)
			}
		})
	}
}

func TestFindBrowserNoCandidates(t *testing.T) {
	r := newTestResolver(t, nil, &mockFinder{name: "desktop", types: []string{"release"}})

	chosen, err := r.FindBrowser(context.Background(), FinderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen != nil {
		t.Errorf("expected nil browser, got %v", chosen)
	}
}

func TestFindBrowserDefaultPicksMostRecent(t *testing.T) {
	older := &mockBrowser{browserType: "release", mtime: time.Unix(100, 0)}
	newer := &mockBrowser{browserType: "debug", mtime: time.Unix(200, 0)}

	f1 := &mockFinder{name: "f1", types: []string{"release"}, browsers: []PossibleBrowser{older}, def: older}
	f2 := &mockFinder{name: "f2", types: []string{"debug"}, browsers: []PossibleBrowser{newer}, def: newer}
	r := newTestResolver(t, nil, f1, f2)

	chosen, err := r.FindBrowser(context.Background(), FinderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen != newer {
		t.Errorf("expected the more recent default %q, got %v", newer.browserType, chosen)
	}
}

func TestFindBrowserDefaultTieBreaksFirstSeen(t *testing.T) {
	same := time.Unix(100, 0)
	first := &mockBrowser{browserType: "release", mtime: same}
	second := &mockBrowser{browserType: "debug", mtime: same}

	f1 := &mockFinder{name: "f1", types: []string{"release"}, browsers: []PossibleBrowser{first}, def: first}
	f2 := &mockFinder{name: "f2", types: []string{"debug"}, browsers: []PossibleBrowser{second}, def: second}
	r := newTestResolver(t, nil, f1, f2)

	chosen, err := r.FindBrowser(context.Background(), FinderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen != first {
		t.Errorf("expected the first-seen default on a timestamp tie, got %v", chosen)
	}
}

func TestFindBrowserSoleCandidate(t *testing.T) {
	only := &mockBrowser{browserType: "stable", mtime: time.Unix(50, 0)}
	finder := &mockFinder{name: "desktop", types: []string{"stable"}, browsers: []PossibleBrowser{only}}
	r := newTestResolver(t, nil, finder)

	chosen, err := r.FindBrowser(context.Background(), FinderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen != only {
		t.Errorf("expected the only candidate, got %v", chosen)
	}
}

func TestFindBrowserTypeRequired(t *testing.T) {
	a := &mockBrowser{browserType: "stable"}
	b := &mockBrowser{browserType: "canary"}
	c := &mockBrowser{browserType: "stable"} // duplicate type

	finder := &mockFinder{
		name:     "desktop",
		types:    []string{"stable", "canary"},
		browsers: []PossibleBrowser{a, b, c},
	}
	r := newTestResolver(t, nil, finder)

	_, err := r.FindBrowser(context.Background(), FinderOptions{})
	var typeErr *BrowserTypeRequiredError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *BrowserTypeRequiredError, got %T: %v", err, err)
	}

	// Available types are sorted and de-duplicated.
	want := []string{"canary", "stable"}
	if !reflect.DeepEqual(typeErr.Available, want) {
		t.Errorf("expected available types %v, got %v", want, typeErr.Available)
	}
}

func TestFindBrowserAnyUsesRegistrationOrder(t *testing.T) {
	// The android browser is newer, but "any" ranks by finder
	// registration order, not recency.
	desktop := &mockBrowser{browserType: "release", mtime: time.Unix(100, 0)}
	android := &mockBrowser{browserType: "android-chromium", mtime: time.Unix(900, 0)}

	f1 := &mockFinder{name: "desktop", types: []string{"release"}, browsers: []PossibleBrowser{desktop}}
	f2 := &mockFinder{name: "android", types: []string{"android-chromium"}, browsers: []PossibleBrowser{android}}
	r := newTestResolver(t, nil, f1, f2)

	chosen, err := r.FindBrowser(context.Background(), FinderOptions{BrowserType: BrowserTypeAny})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen != desktop {
		t.Errorf("expected the earliest-registered finder's browser, got %v", chosen)
	}
}

func TestFindBrowserExplicitTypeFilters(t *testing.T) {
	stable := &mockBrowser{browserType: "stable", mtime: time.Unix(100, 0)}
	canary := &mockBrowser{browserType: "canary", mtime: time.Unix(900, 0)}

	finder := &mockFinder{
		name:     "desktop",
		types:    []string{"stable", "canary"},
		browsers: []PossibleBrowser{stable, canary},
	}
	r := newTestResolver(t, nil, finder)

	chosen, err := r.FindBrowser(context.Background(), FinderOptions{BrowserType: "stable"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen != stable {
		t.Errorf("expected the stable browser, got %v", chosen)
	}
}

func TestFindBrowserExplicitTypeHonorsSupportsOptions(t *testing.T) {
	// The only browser of the requested type rejects the run settings,
	// so resolution finds nothing rather than forcing it.
	picky := &mockBrowser{browserType: "stable", unsupported: true}
	finder := &mockFinder{name: "desktop", types: []string{"stable"}, browsers: []PossibleBrowser{picky}}
	r := newTestResolver(t, nil, finder)

	chosen, err := r.FindBrowser(context.Background(), FinderOptions{BrowserType: "stable"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen != nil {
		t.Errorf("expected no browser for unsupported options, got %v", chosen)
	}
}

func TestFindBrowserExplicitMultipleMatchesUsesMostRecent(t *testing.T) {
	older := &mockBrowser{browserType: "release", mtime: time.Unix(100, 0)}
	newer := &mockBrowser{browserType: "release", mtime: time.Unix(200, 0)}

	finder := &mockFinder{name: "desktop", types: []string{"release"}, browsers: []PossibleBrowser{older, newer}}
	r := newTestResolver(t, nil, finder)

	chosen, err := r.FindBrowser(context.Background(), FinderOptions{BrowserType: "release"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen != newer {
		t.Errorf("expected the most recent release build, got %v", chosen)
	}
}

func TestFindBrowserExplicitTypeSkipsNonDeclaringFinders(t *testing.T) {
	declaring := &mockFinder{
		name:     "desktop",
		types:    []string{"release"},
		browsers: []PossibleBrowser{&mockBrowser{browserType: "release"}},
	}
	other := &mockFinder{name: "android", types: []string{"android-chromium"}}
	r := newTestResolver(t, nil, declaring, other)

	if _, err := r.FindBrowser(context.Background(), FinderOptions{BrowserType: "release"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if declaring.getListCalls() != 1 {
		t.Errorf("expected the declaring finder to be probed once, got %d", declaring.getListCalls())
	}
	if other.getListCalls() != 0 {
		t.Errorf("expected the non-declaring finder to be skipped, got %d calls", other.getListCalls())
	}
}

func TestFindBrowserUpdateHookRunsExactlyOnce(t *testing.T) {
	b := &mockBrowser{browserType: "release", mtime: time.Unix(100, 0)}
	finder := &mockFinder{name: "desktop", types: []string{"release"}, browsers: []PossibleBrowser{b}, def: b}
	r := newTestResolver(t, nil, finder)

	opts := FinderOptions{BrowserType: "release"}
	for i := 0; i < 3; i++ {
		chosen, err := r.FindBrowser(context.Background(), opts)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if chosen != b {
			t.Fatalf("call %d: expected the same browser, got %v", i, chosen)
		}
	}

	if got := b.getUpdateCalls(); got != 1 {
		t.Errorf("expected UpdateExecutableIfNeeded to run once, got %d", got)
	}
	if got := finder.getListCalls(); got != 1 {
		t.Errorf("expected discovery to run once across repeated calls, got %d", got)
	}
}

func TestFindBrowserUpdateFailureNotMemoized(t *testing.T) {
	b := &mockBrowser{browserType: "release", updateErr: fmt.Errorf("download failed")}
	finder := &mockFinder{name: "desktop", types: []string{"release"}, browsers: []PossibleBrowser{b}}
	r := newTestResolver(t, nil, finder)

	opts := FinderOptions{BrowserType: "release"}
	if _, err := r.FindBrowser(context.Background(), opts); err == nil {
		t.Fatal("expected update failure to propagate")
	}

	// The failed resolution is not memoized: the next call retries.
	if _, err := r.FindBrowser(context.Background(), opts); err == nil {
		t.Fatal("expected update failure on retry")
	}
	if got := finder.getListCalls(); got != 2 {
		t.Errorf("expected discovery to rerun after a failure, got %d calls", got)
	}
}

func TestFindBrowserDistinctOptionsNotShared(t *testing.T) {
	stable := &mockBrowser{browserType: "stable"}
	canary := &mockBrowser{browserType: "canary"}
	finder := &mockFinder{
		name:     "desktop",
		types:    []string{"stable", "canary"},
		browsers: []PossibleBrowser{stable, canary},
	}
	r := newTestResolver(t, nil, finder)

	got1, err := r.FindBrowser(context.Background(), FinderOptions{BrowserType: "stable"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got2, err := r.FindBrowser(context.Background(), FinderOptions{BrowserType: "canary"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got1 != stable || got2 != canary {
		t.Errorf("expected per-options results, got %v and %v", got1, got2)
	}
	if got := finder.getListCalls(); got != 2 {
		t.Errorf("expected one discovery pass per distinct options, got %d", got)
	}
}

func TestFindBrowserPrebuiltShortCircuits(t *testing.T) {
	enum := &mockEnumerator{devices: []Device{LocalDevice()}}
	finder := &mockFinder{name: "desktop", types: []string{"release"}}
	r := newTestResolver(t, enum, finder)

	prebuilt := &mockBrowser{browserType: "harness"}

	// The other fields are inconsistent; a prebuilt browser skips
	// validation and discovery entirely.
	chosen, err := r.FindBrowser(context.Background(), FinderOptions{
		BrowserType: BrowserTypeExact,
		Prebuilt:    prebuilt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen != prebuilt {
		t.Errorf("expected the prebuilt browser, got %v", chosen)
	}
	if enum.getCalls() != 0 || finder.getListCalls() != 0 {
		t.Error("expected no discovery for a prebuilt browser")
	}
}

func TestFindBrowserDeviceEnumerationError(t *testing.T) {
	enum := &mockEnumerator{err: fmt.Errorf("adb unavailable")}
	r := newTestResolver(t, enum, &mockFinder{name: "desktop", types: []string{"release"}})

	_, err := r.FindBrowser(context.Background(), FinderOptions{})
	if err == nil {
		t.Fatal("expected device enumeration error to propagate")
	}
}

func TestFindBrowserFinderErrorPropagates(t *testing.T) {
	finder := &mockFinder{name: "desktop", types: []string{"release"}, listErr: fmt.Errorf("probe failed")}
	r := newTestResolver(t, nil, finder)

	_, err := r.FindBrowser(context.Background(), FinderOptions{})
	if err == nil {
		t.Fatal("expected finder error to propagate")
	}
}

func TestFindAllBrowserTypesNeverProbes(t *testing.T) {
	enum := &mockEnumerator{devices: []Device{LocalDevice()}}
	f1 := &mockFinder{name: "desktop", types: []string{"exact", "release", "stable"}}
	f2 := &mockFinder{name: "android", types: []string{"android-chromium", "stable"}}
	r := newTestResolver(t, enum, f1, f2)

	types := r.FindAllBrowserTypes(FinderOptions{})

	// Registration order, duplicates preserved.
	want := []string{"exact", "release", "stable", "android-chromium", "stable"}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("expected %v, got %v", want, types)
	}

	if enum.getCalls() != 0 || f1.getListCalls() != 0 || f2.getListCalls() != 0 {
		t.Error("expected type listing to touch no devices")
	}
}

func TestAggregateTypesDeduplicates(t *testing.T) {
	f1 := &mockFinder{name: "desktop", types: []string{"release", "stable"}}
	f2 := &mockFinder{name: "android", types: []string{"stable", "android-chromium"}}
	r := newTestResolver(t, nil, f1, f2)

	want := []string{"release", "stable", "android-chromium"}
	if got := r.AggregateTypes(FinderOptions{}); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGetAllAvailableBrowsersZeroDevice(t *testing.T) {
	finder := &mockFinder{name: "desktop", types: []string{"release"}}
	r := newTestResolver(t, nil, finder)

	found, err := r.GetAllAvailableBrowsers(context.Background(), FinderOptions{}, Device{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != nil {
		t.Errorf("expected no browsers for the zero device, got %v", found)
	}
	if finder.getListCalls() != 0 {
		t.Error("expected no finder calls for the zero device")
	}
}

func TestGetAllAvailableBrowserTypesInjectsReference(t *testing.T) {
	desktop := &mockBrowser{browserType: "release", targetOS: "linux"}
	finder := &mockFinder{name: "desktop", types: []string{"release"}, browsers: []PossibleBrowser{desktop}}
	r := newTestResolver(t, nil, finder)

	types, err := r.GetAllAvailableBrowserTypes(context.Background(), FinderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Sorted, with the synthetic reference type for desktop targets.
	want := []string{"reference", "release"}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("expected %v, got %v", want, types)
	}
}

func TestGetAllAvailableBrowserTypesNoReferenceForAndroid(t *testing.T) {
	android := &mockBrowser{browserType: "android-chromium", targetOS: "android"}
	finder := &mockFinder{name: "android", types: []string{"android-chromium"}, browsers: []PossibleBrowser{android}}
	r := newTestResolver(t, nil, finder)

	types, err := r.GetAllAvailableBrowserTypes(context.Background(), FinderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"android-chromium"}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("expected %v, got %v", want, types)
	}
}

func TestGetAllAvailableBrowserTypesMemoized(t *testing.T) {
	finder := &mockFinder{
		name:     "desktop",
		types:    []string{"release"},
		browsers: []PossibleBrowser{&mockBrowser{browserType: "release"}},
	}
	r := newTestResolver(t, nil, finder)

	for i := 0; i < 3; i++ {
		if _, err := r.GetAllAvailableBrowserTypes(context.Background(), FinderOptions{}); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	if got := finder.getListCalls(); got != 1 {
		t.Errorf("expected one discovery pass across repeated calls, got %d", got)
	}
}
