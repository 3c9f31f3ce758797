package enrich

import (
	"fmt"
	"strings"
)

// Policy selects how requests are paced once the API has told the client its
// rate limit.
type Policy int

const (
	// Smooth spaces requests evenly at the discovered rate.
	Smooth Policy = iota
	// Burst lets up to BurstSeconds worth of requests through at once and
	// throttles sustained load to the discovered rate.
	Burst
	// Disabled never waits. The check is compiled out of the request path
	// rather than toggled at runtime.
	Disabled
)

// String returns the lower-case policy name.
func (p Policy) String() string {
	switch p {
	case Smooth:
		return "smooth"
	case Burst:
		return "burst"
	case Disabled:
		return "disabled"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts the names produced by String, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "smooth", "":
		return Smooth, nil
	case "burst":
		return Burst, nil
	case "disabled", "off", "none":
		return Disabled, nil
	}
	return 0, fmt.Errorf("enrich: unknown rate limiter policy %q", s)
}

// UnmarshalText lets a Policy be read from YAML or other text config.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText writes the policy name.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
