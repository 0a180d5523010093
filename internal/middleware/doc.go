// Package middleware provides HTTP middleware for the ops server: request
// logging through the leveled logger and per-route Prometheus metrics.
package middleware
