package stores

import (
	"context"
	"time"
)

// ResolutionOutcome classifies how a resolution call ended.
type ResolutionOutcome string

const (
	// OutcomeChosen means exactly one browser was selected.
	OutcomeChosen ResolutionOutcome = "chosen"

	// OutcomeNone means no browser matched; a valid negative result.
	OutcomeNone ResolutionOutcome = "none"

	// OutcomeError means resolution failed (bad configuration or
	// ambiguous result).
	OutcomeError ResolutionOutcome = "error"
)

// Selection reasons recorded for chosen browsers, so operators can
// audit automatic choices.
const (
	ReasonDefaultMostRecent = "default_most_recent"
	ReasonOnlyAvailable     = "only_available"
	ReasonAnyFirstInOrder   = "any_first_in_order"
	ReasonExplicitMatch     = "explicit_match"
	ReasonPrebuilt          = "prebuilt"
)

// Resolution is one audit record per browser resolution call.
type Resolution struct {
	ID            string            `json:"id"`
	OptionsDigest string            `json:"options_digest"`
	RequestedType string            `json:"requested_type"`
	BrowserType   string            `json:"browser_type,omitempty"`
	TargetOS      string            `json:"target_os,omitempty"`
	Outcome       ResolutionOutcome `json:"outcome"`
	Reason        string            `json:"reason,omitempty"`
	Error         *string           `json:"error,omitempty"`
	CandidateCnt  int               `json:"candidate_count"`
	Duration      time.Duration     `json:"duration"`
	CreatedAt     time.Time         `json:"created_at"`
}

// DiscoveryEvent is one backend finder observation tied to a
// resolution.
type DiscoveryEvent struct {
	ID           string    `json:"id"`
	ResolutionID string    `json:"resolution_id"`
	Finder       string    `json:"finder"`
	DeviceID     string    `json:"device_id,omitempty"`
	Level        string    `json:"level"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the persistence contract for the resolution audit trail.
type Store interface {
	// Init opens the underlying database.
	Init(ctx context.Context) error

	// Migrate brings the schema up to date.
	Migrate(ctx context.Context) error

	// Close releases the database.
	Close() error

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// RecordResolution persists one resolution audit record.
	RecordResolution(ctx context.Context, r *Resolution) error

	// GetResolution retrieves a resolution by ID.
	GetResolution(ctx context.Context, id string) (*Resolution, error)

	// ListResolutions returns the most recent resolutions, newest
	// first, up to limit.
	ListResolutions(ctx context.Context, limit int) ([]*Resolution, error)

	// RecordDiscoveryEvent persists one discovery event.
	RecordDiscoveryEvent(ctx context.Context, e *DiscoveryEvent) error

	// ListDiscoveryEvents returns the events recorded for a
	// resolution, oldest first.
	ListDiscoveryEvents(ctx context.Context, resolutionID string) ([]*DiscoveryEvent, error)
}
