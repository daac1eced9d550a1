package browser

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigurationError reports malformed finder options. It is fatal for
// the resolution call: the caller must correct the configuration and
// re-invoke, nothing is retried.
type ConfigurationError struct {
	// Message describes the inconsistency.
	Message string

	// Field is the offending option field, if one can be named.
	Field string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid finder options (%s): %s", e.Field, e.Message)
	}
	return "invalid finder options: " + e.Message
}

// Is reports equality by error kind so errors.Is works against the
// zero value.
func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)
	return ok
}

// NewConfigurationError creates a ConfigurationError for a field.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// BrowserTypeRequiredError reports that resolution terminated
// ambiguously: more than one browser is available and no default could
// be picked. It is recoverable; the caller supplies an explicit
// browser type and retries.
type BrowserTypeRequiredError struct {
	// Available are the distinct browser types present, sorted and
	// de-duplicated.
	Available []string
}

// Error implements the error interface.
func (e *BrowserTypeRequiredError) Error() string {
	return "browser type must be specified, available browsers:\n" +
		strings.Join(e.Available, "\n")
}

// Is reports equality by error kind so errors.Is works against the
// zero value.
func (e *BrowserTypeRequiredError) Is(target error) bool {
	_, ok := target.(*BrowserTypeRequiredError)
	return ok
}

// newBrowserTypeRequiredError builds the error from the raw candidate
// type names, sorting and de-duplicating them.
func newBrowserTypeRequiredError(types []string) *BrowserTypeRequiredError {
	seen := make(map[string]bool, len(types))
	distinct := make([]string, 0, len(types))
	for _, t := range types {
		if !seen[t] {
			seen[t] = true
			distinct = append(distinct, t)
		}
	}
	sort.Strings(distinct)
	return &BrowserTypeRequiredError{Available: distinct}
}
