package xdr

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"testing"
	"time"
)

// zeroReader makes crypto/rand.Int deterministic: every draw resolves to 0.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestSigner_Standard(t *testing.T) {
	s := NewSigner()

	headers, err := s.Sign(7, "my-api-key", KeyTypeStandard)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if len(headers) != 2 {
		t.Errorf("standard headers = %v, want exactly Authorization and x-xdr-auth-id", headers)
	}
	if headers["Authorization"] != "my-api-key" {
		t.Errorf("Authorization = %q, want literal key", headers["Authorization"])
	}
	if headers["x-xdr-auth-id"] != "7" {
		t.Errorf("x-xdr-auth-id = %q, want %q", headers["x-xdr-auth-id"], "7")
	}
}

func TestSigner_Advanced(t *testing.T) {
	at := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	s := NewSigner(
		WithClock(func() time.Time { return at }),
		WithRandom(zeroReader{}),
	)

	headers, err := s.Sign(42, "secret", KeyTypeAdvanced)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	wantNonce := strings.Repeat(nonceAlphabet[:1], nonceLength)
	if headers["x-xdr-nonce"] != wantNonce {
		t.Errorf("nonce = %q, want %q", headers["x-xdr-nonce"], wantNonce)
	}

	wantTS := "1710504000000"
	if headers["x-xdr-timestamp"] != wantTS {
		t.Errorf("timestamp = %q, want %q", headers["x-xdr-timestamp"], wantTS)
	}
	if headers["x-xdr-auth-id"] != "42" {
		t.Errorf("x-xdr-auth-id = %q, want %q", headers["x-xdr-auth-id"], "42")
	}

	sum := sha256.Sum256([]byte("secret" + wantNonce + wantTS))
	if headers["Authorization"] != hex.EncodeToString(sum[:]) {
		t.Errorf("Authorization = %q, want sha256(key+nonce+timestamp)", headers["Authorization"])
	}
}

func TestSigner_AdvancedNonceUnique(t *testing.T) {
	s := NewSigner()
	alphanumeric := regexp.MustCompile(`^[A-Za-z0-9]{64}$`)

	first, err := s.Sign(1, "k", KeyTypeAdvanced)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	second, err := s.Sign(1, "k", KeyTypeAdvanced)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	for _, h := range []map[string]string{first, second} {
		if !alphanumeric.MatchString(h["x-xdr-nonce"]) {
			t.Errorf("nonce %q not 64 alphanumeric chars", h["x-xdr-nonce"])
		}
	}
	if first["x-xdr-nonce"] == second["x-xdr-nonce"] {
		t.Error("two signings produced the same nonce")
	}
}

func TestParseKeyType(t *testing.T) {
	tests := []struct {
		in      string
		want    KeyType
		wantErr bool
	}{
		{in: "standard", want: KeyTypeStandard},
		{in: "advanced", want: KeyTypeAdvanced},
		{in: "Advanced", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKeyType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKeyType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseKeyType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
