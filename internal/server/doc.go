// Package server hosts the Fiber diagnostics service: a request-ID middleware,
// structured JSON errors, and a table endpoint that serves canonical tables
// through the same loader the CLI uses. Diagnostics live under /-/ and are
// registered by the routes subpackage so the router keeps explicit
// dependencies only.
package server
