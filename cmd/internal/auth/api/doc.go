// Package authapi exposes the credential operations over HTTP.
//
// Each browser visitor gets an isolated scope (backend client, session
// mirror, operations facade) keyed by a visitor cookie. The handlers are
// thin: decode, forward to the facade, map error kinds to status codes.
package authapi
