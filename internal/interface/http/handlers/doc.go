// Package handlers contains the health checks and the reusable middleware of
// the HTTP API.
//
// # Health Checks
//
// Checks run in parallel, each under its own timeout. Critical checks decide
// readiness; optional ones only mark the service as degraded:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("postgres", handlers.NewPingCheck(conn))
//	checker.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
//
//	status := checker.Check(ctx)
//	if !status.Ready {
//	    log.Printf("not ready: %s", status.Message)
//	}
//
// # Middleware
//
//	handler := handlers.ChainHandler(
//	    router,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.NoCacheMiddleware,
//	    handlers.RequestSizeLimitMiddleware(1<<20),
//	)
package handlers
