// Package relay implements the wire format and dispatch logic of the
// message relay.
//
// Every inbound frame is a self-describing JSON object. A frame with
// type "register" claims an identifier for the sending connection; any
// later frame carrying a "to" field is forwarded, byte for byte, to
// the connection currently registered under that identifier. The
// frame's own type is irrelevant on the relay path.
package relay
