// Package xdr implements the Cortex XDR alert retrieval client: request
// signing, page payload construction, single-page fetching and offset-based
// pagination.
package xdr

import "fmt"

// KeyType selects the authentication scheme for a tenant API key.
type KeyType string

const (
	// KeyTypeStandard sends the key verbatim in the Authorization header.
	KeyTypeStandard KeyType = "standard"
	// KeyTypeAdvanced signs each request with a single-use nonce and
	// millisecond timestamp.
	KeyTypeAdvanced KeyType = "advanced"
)

// ParseKeyType converts a configuration string to a KeyType.
func ParseKeyType(s string) (KeyType, error) {
	switch KeyType(s) {
	case KeyTypeStandard, KeyTypeAdvanced:
		return KeyType(s), nil
	default:
		return "", fmt.Errorf("unknown key type %q", s)
	}
}

// Credentials holds the resolved API key material and endpoint for one
// retrieval run. Immutable once resolved; never persisted.
type Credentials struct {
	KeyID   int
	Key     string
	KeyType KeyType
	Host    string // tenant FQDN, no scheme
	Path    string // API endpoint path, leading slash included
}

// Validate checks that all fields required to reach the tenant are set.
func (c Credentials) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("api key is empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host is empty")
	}
	if c.Path == "" {
		return fmt.Errorf("endpoint path is empty")
	}
	if _, err := ParseKeyType(string(c.KeyType)); err != nil {
		return err
	}
	return nil
}
