package xdr

import "fmt"

// APIRequestError represents a non-200 response from the alert source
type APIRequestError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *APIRequestError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// IsUnauthorized returns true if the tenant rejected the credentials
func (e *APIRequestError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIRequestError) IsServerError() bool {
	return e.StatusCode >= 500
}

// TLSError represents a TLS handshake or verification failure
type TLSError struct {
	Err error
}

// Error implements the error interface
func (e *TLSError) Error() string {
	return fmt.Sprintf("TLS error: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *TLSError) Unwrap() error {
	return e.Err
}

// MalformedResponseError represents a 200 response whose body could not be
// decoded as the expected JSON envelope
type MalformedResponseError struct {
	Err error
}

// Error implements the error interface
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
