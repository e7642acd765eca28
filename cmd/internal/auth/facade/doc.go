// Package facade exposes the credential operations the site offers:
// sign-up, sign-in, sign-out, and OAuth initiation.
//
// Every operation forwards to the hosted backend and normalizes failures into
// a closed set of user-facing messages. Successful sign-in does NOT populate
// the local user projection; that arrives through the change-notification
// stream (see the mirror package), so callers must treat post-call state as
// eventually consistent.
package facade
