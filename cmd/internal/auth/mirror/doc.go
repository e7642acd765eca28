// Package mirror keeps the local projection of backend session state.
//
// A Mirror never authors sessions. It seeds from one initial session fetch,
// then follows the backend change-notification stream for the lifetime of its
// scope. The only locally owned state is the current user projection and a
// loading flag that turns false exactly once.
package mirror
