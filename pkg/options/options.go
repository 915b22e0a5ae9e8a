// Package options defines the per-concern configuration blocks of the
// trailwatch agent. Every block knows how to default itself, validate
// itself, and bind itself to a pflag set.
package options

import (
	"fmt"
	"net"

	"github.com/spf13/pflag"
)

// IOptions is the contract every options block satisfies.
type IOptions interface {
	// Validate checks the user-supplied values and returns every problem
	// found, not just the first.
	Validate() []error

	// AddFlags binds the block's fields to the given flag set.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress checks that addr is a host:port pair.
func ValidateAddress(addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return nil
}
