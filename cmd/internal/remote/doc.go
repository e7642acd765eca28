// Package remote is the client for the hosted auth/database backend.
//
// The backend owns session issuance, password verification, OAuth token
// exchange, and user-record storage. This package only forwards credential
// operations and observes session state; it never authors sessions.
package remote
