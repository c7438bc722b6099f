// Package api provides the HTTP handlers for the operator surface: pipeline
// status, scheduler control, and pending-review resolution.
package api
