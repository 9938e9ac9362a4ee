// Package secrets resolves API key material and endpoint configuration
// from AWS Systems Manager Parameter Store.
package secrets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/xdrpull/xdrpull/internal/xdr"
)

// ConfigUnavailableError indicates the backing store was unreachable or the
// parameter is absent. Fatal before any network call to the alert source.
type ConfigUnavailableError struct {
	Name string
	Err  error
}

// Error implements the error interface
func (e *ConfigUnavailableError) Error() string {
	return fmt.Sprintf("config parameter %s unavailable: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error
func (e *ConfigUnavailableError) Unwrap() error {
	return e.Err
}

// ParameterAPI is the slice of the SSM client the store uses.
type ParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Store reads opaque scalar values from Parameter Store. Each retrieval run
// resolves once at startup; no caching.
type Store struct {
	client ParameterAPI
}

// NewStore creates a Store from an AWS config.
func NewStore(cfg aws.Config) *Store {
	return &Store{client: ssm.NewFromConfig(cfg)}
}

// NewStoreWithClient creates a Store with an explicit client, mainly for tests.
func NewStoreWithClient(client ParameterAPI) *Store {
	return &Store{client: client}
}

// Value resolves a single parameter with decryption enabled.
func (s *Store) Value(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", &ConfigUnavailableError{Name: name, Err: err}
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", &ConfigUnavailableError{Name: name, Err: fmt.Errorf("parameter has no value")}
	}
	return *out.Parameter.Value, nil
}

// IntValue resolves a parameter and coerces it to an integer.
func (s *Store) IntValue(ctx context.Context, name string) (int, error) {
	v, err := s.Value(ctx, name)
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &ConfigUnavailableError{Name: name, Err: fmt.Errorf("not an integer: %w", err)}
	}
	return i, nil
}

// Credentials resolves the five credential parameters under the given path
// prefix: key_id, api_key, key_type, fqdn and endpoint.
func (s *Store) Credentials(ctx context.Context, prefix string) (xdr.Credentials, error) {
	prefix = strings.TrimSuffix(prefix, "/")

	keyID, err := s.IntValue(ctx, prefix+"/key_id")
	if err != nil {
		return xdr.Credentials{}, err
	}
	key, err := s.Value(ctx, prefix+"/api_key")
	if err != nil {
		return xdr.Credentials{}, err
	}
	keyTypeRaw, err := s.Value(ctx, prefix+"/key_type")
	if err != nil {
		return xdr.Credentials{}, err
	}
	keyType, err := xdr.ParseKeyType(keyTypeRaw)
	if err != nil {
		return xdr.Credentials{}, &ConfigUnavailableError{Name: prefix + "/key_type", Err: err}
	}
	host, err := s.Value(ctx, prefix+"/fqdn")
	if err != nil {
		return xdr.Credentials{}, err
	}
	path, err := s.Value(ctx, prefix+"/endpoint")
	if err != nil {
		return xdr.Credentials{}, err
	}

	creds := xdr.Credentials{
		KeyID:   keyID,
		Key:     key,
		KeyType: keyType,
		Host:    host,
		Path:    path,
	}
	if err := creds.Validate(); err != nil {
		return xdr.Credentials{}, &ConfigUnavailableError{Name: prefix, Err: err}
	}
	return creds, nil
}
