// Package database builds the pgx connection pool backing the relay
// audit journal. relayd keeps no other persistent state.
package database
