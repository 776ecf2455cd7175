// Package server accepts WebSocket connections and starts one session
// per connection. It runs until the listener fails or the context is
// cancelled; no single connection's failure terminates the process.
package server
