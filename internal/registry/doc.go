// Package registry implements the client registry: the single shared
// mapping from client identifier to the live connection currently
// authorized to receive frames for it.
//
// The registry is mutated concurrently by every session. Each
// operation is atomic on its own; a Lookup followed by a send is
// deliberately not atomic, and the relay path treats a send to a
// since-departed holder as a send-time failure rather than a
// consistency violation.
package registry
