package devices

import (
	"context"
	"fmt"
	"testing"

	"github.com/Soumalya1857/catapult/pkg/browser"
)

// Mock serial lister for testing
type mockSerialLister struct {
	serials []string
	err     error
	calls   int
}

func (m *mockSerialLister) ListSerials(ctx context.Context) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.serials, nil
}

func deviceIDs(devices []browser.Device) []string {
	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestEnumeratorDefaultsToLocalHost(t *testing.T) {
	e := NewEnumerator(nil, nil)

	devices, err := e.DevicesMatching(context.Background(), browser.FinderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(devices) != 1 || devices[0].ID != "local" {
		t.Errorf("expected [local], got %v", deviceIDs(devices))
	}
	if devices[0].Kind != browser.DeviceKindLocal {
		t.Errorf("expected local kind, got %s", devices[0].Kind)
	}
}

func TestEnumeratorConfiguredSerials(t *testing.T) {
	lister := &mockSerialLister{serials: []string{"attached-1"}}
	e := NewEnumerator(lister, nil)

	devices, err := e.DevicesMatching(context.Background(), browser.FinderOptions{
		Android: browser.AndroidOptions{Serials: []string{"s1", "s2"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"local", "android:s1", "android:s2"}
	got := deviceIDs(devices)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	// Configured serials win over attached enumeration.
	if lister.calls != 0 {
		t.Errorf("expected no serial listing, got %d calls", lister.calls)
	}
}

func TestEnumeratorAttachedSerials(t *testing.T) {
	lister := &mockSerialLister{serials: []string{"attached-1", "attached-2"}}
	e := NewEnumerator(lister, nil)

	devices, err := e.DevicesMatching(context.Background(), browser.FinderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"local", "android:attached-1", "android:attached-2"}
	if got := deviceIDs(devices); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEnumeratorSerialListerError(t *testing.T) {
	lister := &mockSerialLister{err: fmt.Errorf("adb not running")}
	e := NewEnumerator(lister, nil)

	_, err := e.DevicesMatching(context.Background(), browser.FinderOptions{})
	if err == nil {
		t.Fatal("expected the serial listing error to propagate")
	}
}

func TestEnumeratorAndroidTypeExcludesLocalHost(t *testing.T) {
	e := NewEnumerator(nil, nil)

	devices, err := e.DevicesMatching(context.Background(), browser.FinderOptions{
		BrowserType: "android-chromium",
		Android:     browser.AndroidOptions{Serials: []string{"s1"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"android:s1"}
	if got := deviceIDs(devices); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEnumeratorCrosRemote(t *testing.T) {
	e := NewEnumerator(nil, nil)

	devices, err := e.DevicesMatching(context.Background(), browser.FinderOptions{
		BrowserType: browser.BrowserTypeCros,
		CrosRemote:  &browser.CrosRemote{Host: "dut-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A ChromeOS type never targets the local host.
	want := []string{"cros:dut-1"}
	if got := deviceIDs(devices); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if devices[0].Host != "dut-1" {
		t.Errorf("expected host dut-1, got %s", devices[0].Host)
	}
}

func TestEnumeratorDesktopTypeSkipsAndroid(t *testing.T) {
	lister := &mockSerialLister{serials: []string{"attached-1"}}
	e := NewEnumerator(lister, nil)

	devices, err := e.DevicesMatching(context.Background(), browser.FinderOptions{
		BrowserType: "release",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"local"}
	if got := deviceIDs(devices); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if lister.calls != 0 {
		t.Errorf("expected no serial listing for a desktop type, got %d calls", lister.calls)
	}
}
