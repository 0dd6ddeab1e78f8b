// Package middleware provides HTTP observability middleware for the
// navhist bridge.
//
// # OpenTelemetry
//
// OpenTelemetry starts a server span for every request, named after the
// matched chi route pattern. A WebSocket session's span lasts as long as
// the connection.
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	))
//
// The tracer comes from the global provider. Configure it in main()
// before starting the server:
//
//	otel.SetTracerProvider(tp)
//
// # Prometheus
//
// Prometheus counts requests by route and status and observes their
// duration:
//   - navhist_http_requests_total{route,code}
//   - navhist_http_request_duration_seconds{route}
//
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
package middleware
