package browser

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// optionsValidator validates FinderOptions before any discovery work
// begins. Validation is purely gating: it produces no output beyond
// accept or reject.
type optionsValidator struct {
	validate *validator.Validate
}

func newOptionsValidator() *optionsValidator {
	v := validator.New()
	v.RegisterStructValidation(finderOptionsStructLevel, FinderOptions{})
	return &optionsValidator{validate: v}
}

// finderOptionsStructLevel enforces the cross-field invariants:
// BrowserExecutable set iff BrowserType is "exact", CrosRemote set iff
// BrowserType is a ChromeOS variant.
func finderOptionsStructLevel(sl validator.StructLevel) {
	opts := sl.Current().Interface().(FinderOptions)

	if opts.BrowserType == BrowserTypeExact && opts.BrowserExecutable == "" {
		sl.ReportError(opts.BrowserExecutable, "BrowserExecutable",
			"browser_executable", "required_for_exact", "")
	}
	if opts.BrowserType != BrowserTypeExact && opts.BrowserExecutable != "" {
		sl.ReportError(opts.BrowserExecutable, "BrowserExecutable",
			"browser_executable", "exact_only", "")
	}

	isCros := opts.BrowserType == BrowserTypeCros || opts.BrowserType == BrowserTypeCrosGuest
	if opts.BrowserType == BrowserTypeCros && opts.CrosRemote == nil {
		sl.ReportError(opts.CrosRemote, "CrosRemote",
			"cros_remote", "required_for_cros", "")
	}
	if !isCros && opts.CrosRemote != nil {
		sl.ReportError(opts.CrosRemote, "CrosRemote",
			"cros_remote", "cros_only", "")
	}
}

// checkOptions runs structural and cross-field validation and
// translates failures into a ConfigurationError.
func (ov *optionsValidator) checkOptions(opts FinderOptions) error {
	err := ov.validate.Struct(opts)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) || len(invalid) == 0 {
		return &ConfigurationError{Message: err.Error()}
	}

	// Report the first violation; one actionable message at a time.
	fe := invalid[0]
	switch fe.Tag() {
	case "required_for_exact":
		return NewConfigurationError("browser_executable",
			fmt.Sprintf("browser type %q requires browser_executable to be set", BrowserTypeExact))
	case "exact_only":
		return NewConfigurationError("browser_executable",
			fmt.Sprintf("browser_executable requires browser type %q", BrowserTypeExact))
	case "required_for_cros":
		return NewConfigurationError("cros_remote",
			fmt.Sprintf("browser type %q requires cros_remote to be set", BrowserTypeCros))
	case "cros_only":
		return NewConfigurationError("cros_remote",
			fmt.Sprintf("cros_remote requires browser type %q or %q", BrowserTypeCros, BrowserTypeCrosGuest))
	default:
		return NewConfigurationError(fe.Field(), fe.Error())
	}
}
