// Package api is the gin HTTP surface: the interactive form, the JSON and
// upload prediction endpoints, report downloads, the history view, and the
// health, readiness and metrics probes.
package api
