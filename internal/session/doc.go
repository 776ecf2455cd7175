// Package session owns the server-side lifecycle of one accepted
// connection: reading frames in arrival order, handing each to the
// dispatcher, and guaranteeing registry cleanup on every exit path.
package session
