package registry

import "fmt"

// Policy decides what happens when a client registers an identifier
// that already has a live holder.
type Policy int

const (
	// PolicyOverwrite installs the new connection and leaves the old
	// one open but unreachable by relay. This is the default.
	PolicyOverwrite Policy = iota

	// PolicyReject refuses the new registration with ErrIDClaimed.
	PolicyReject

	// PolicyEvict closes the old connection and installs the new one.
	PolicyEvict
)

// ParsePolicy converts a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "overwrite":
		return PolicyOverwrite, nil
	case "reject":
		return PolicyReject, nil
	case "evict":
		return PolicyEvict, nil
	default:
		return PolicyOverwrite, fmt.Errorf("unknown conflict policy %q", s)
	}
}

// String returns the config spelling of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicyEvict:
		return "evict"
	default:
		return "overwrite"
	}
}
