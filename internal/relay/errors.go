package relay

import (
	"errors"
	"fmt"
)

// Protocol violations. Each is fatal to the offending session only:
// the connection is torn down, other sessions and the registry are
// unaffected, and no error frame is sent back: the protocol has no
// error-response channel.
var (
	ErrMalformedFrame = errors.New("relay: malformed frame")
	ErrMissingType    = errors.New("relay: frame missing type field")
	ErrMissingID      = errors.New("relay: register frame missing id field")
)

// IsProtocolViolation reports whether err is a wire-protocol violation
// by the peer, as opposed to a transport failure.
func IsProtocolViolation(err error) bool {
	return errors.Is(err, ErrMalformedFrame) ||
		errors.Is(err, ErrMissingType) ||
		errors.Is(err, ErrMissingID)
}

// StaleRecipientError reports that a recipient was found in the
// registry but its connection failed on send. It is fatal to the
// sending session, not the recipient's.
type StaleRecipientError struct {
	Recipient string
	Err       error
}

func (e *StaleRecipientError) Error() string {
	return fmt.Sprintf("relay: send to %q failed: %v", e.Recipient, e.Err)
}

func (e *StaleRecipientError) Unwrap() error {
	return e.Err
}
