// Package api contains the HTTP handlers for the helpdesk administrative
// surface: recurring template management (including the manual generation
// trigger and audit trail) and the ticket workflow endpoints. Handlers decode
// and validate requests, delegate to the stores and the schedule package, and
// translate internal errors into sanitized JSON responses.
package api
