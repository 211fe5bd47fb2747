// Package internal documents the contest tracker internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: contest model, normalization, status lifecycle, and service
// - scraper: platform adapters, the shared fetcher, and the aggregator
// - solutions: playlist enrichment
// - storage: Postgres and in-memory repositories
// - jobs: River workers and the periodic schedule
// - config, email, metrics, sanitize, telemetry, validation: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
