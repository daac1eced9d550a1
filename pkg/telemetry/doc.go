// Package telemetry provides observability instrumentation for the
// catapult browser finder.
//
// It integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus), and audit event publishing
// into one unified component.
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "catapult"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// # Structured Logging
//
// The logger provides component-specific logging with finder-domain
// field helpers:
//
//	logger := tel.Logger.NewComponentLogger("resolver")
//	logger = logger.WithResolutionID(id).WithBrowserType("stable")
//	logger.Warn("browser type omitted, using most recent local build")
//
// # Metrics
//
// Prometheus metrics track finder calls, cache behavior, and
// resolution outcomes; they are exposed at /metrics when the server is
// started:
//
//	tel.Metrics.RecordFinderCall("desktop", "list_available", d, nil)
//	tel.Metrics.RecordCacheHit("find_browser")
//	tel.Metrics.RecordResolution("chosen", d)
//
// # Events
//
// The event publisher delivers audit events (which browser was picked
// and why) to subscribers asynchronously:
//
//	tel.Events.Subscribe(func(e telemetry.Event) {
//	    fmt.Println(e.Type, e.Message)
//	}, telemetry.FilterByLevel("warning"))
package telemetry
