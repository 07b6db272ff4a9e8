// Package health exposes liveness and readiness endpoints for the worker.
//
//	r := chi.NewRouter()
//	r.Mount("/health", health.Router(health.Checks{
//	    "postgres": db.Check(pool),
//	    "jobs":     manager.Ping,
//	}, health.WithLogger(log)))
//
// Readiness runs all checks concurrently under one timeout and answers 503
// if any fails. Both endpoints answer plain text unless the client asks for
// JSON with ?format=json or an Accept header.
package health
