// Package journal records relay outcomes to Postgres for auditing.
//
// The journal is strictly an audit trail of server activity: which
// identifiers registered, which relays succeeded, which were dropped.
// Frame payloads are never stored and the journal never affects relay
// behavior: a full buffer drops events and a failed insert is only
// logged.
//
// Expected schema:
//
//	CREATE TABLE relay_events (
//	    id          UUID PRIMARY KEY,
//	    at          TIMESTAMPTZ NOT NULL,
//	    kind        TEXT NOT NULL,
//	    session_id  TEXT NOT NULL,
//	    client_id   TEXT NOT NULL,
//	    target      TEXT NOT NULL DEFAULT '',
//	    frame_bytes INTEGER NOT NULL DEFAULT 0
//	);
package journal
