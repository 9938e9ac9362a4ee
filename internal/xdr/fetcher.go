package xdr

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xdrpull/xdrpull/internal/pkg/logger"
)

// AlertRecord is an opaque alert payload as returned by the tenant. The
// client never interprets its fields; it is carried through to storage
// verbatim.
type AlertRecord = json.RawMessage

// envelope models the response body. reply and reply.alerts are both
// optional; the API legitimately returns "reply": {} at end of data.
type envelope struct {
	Reply struct {
		Alerts []AlertRecord `json:"alerts"`
	} `json:"reply"`
}

// FetcherConfig configures the transport for page fetches.
type FetcherConfig struct {
	// Timeout bounds the whole request; defaults to 30s.
	Timeout time.Duration
	// TLSVerify restores standard certificate and hostname verification.
	// Off by default to accommodate self-signed tenant endpoints. See the
	// security note in the README before relying on the default.
	TLSVerify bool
	// HTTPClient overrides the constructed client, mainly for tests.
	HTTPClient *http.Client
}

// Fetcher issues one HTTPS POST per page against a single tenant.
type Fetcher struct {
	creds      Credentials
	signer     *Signer
	httpClient *http.Client
	extra      []Filter
	log        *logger.Logger
}

// NewFetcher creates a Fetcher bound to one set of credentials. Extra
// filters are appended after the default severity filter on every page.
func NewFetcher(creds Credentials, signer *Signer, cfg FetcherConfig, log *logger.Logger, extra ...Filter) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerify,
				},
			},
		}
	}

	return &Fetcher{
		creds:      creds,
		signer:     signer,
		httpClient: httpClient,
		extra:      extra,
		log:        log,
	}
}

// FetchPage performs exactly one network round trip for the given window
// and returns the alerts found at reply.alerts. A response without that
// path yields an empty page, not an error. The response body is closed on
// every exit path.
func (f *Fetcher) FetchPage(ctx context.Context, window PageWindow) ([]AlertRecord, error) {
	payload := BuildPayload(window.Start, window.End, f.extra...)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	headers, err := f.signer.Sign(f.creds.KeyID, f.creds.Key, f.creds.KeyType)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	url := "https://" + f.creds.Host + f.creds.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	f.log.WithFields(map[string]interface{}{
		"host":        f.creds.Host,
		"search_from": window.Start,
		"search_to":   window.End,
	}).Debug("Fetching alert page")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if isTLSFailure(err) {
			return nil, &TLSError{Err: err}
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIRequestError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}

	if env.Reply.Alerts == nil {
		return []AlertRecord{}, nil
	}
	return env.Reply.Alerts, nil
}

// isTLSFailure reports whether a transport error came from the TLS
// handshake or certificate verification rather than the network itself.
func isTLSFailure(err error) bool {
	var certVerify *tls.CertificateVerificationError
	if errors.As(err, &certVerify) {
		return true
	}
	var recordHeader tls.RecordHeaderError
	if errors.As(err, &recordHeader) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostname x509.HostnameError
	if errors.As(err, &hostname) {
		return true
	}
	var certInvalid x509.CertificateInvalidError
	return errors.As(err, &certInvalid)
}
