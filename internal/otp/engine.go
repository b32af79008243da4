package otp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/netdash/authcore/params"
)

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// GenerateSecret returns a new TOTP secret: 16 characters drawn uniformly
// from the RFC 4648 base32 alphabet.
func GenerateSecret() (string, error) {
	raw := make([]byte, params.TOTPSecretLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(params.TOTPSecretLength)
	for _, v := range raw {
		// 256 is a multiple of 32, so the modulo keeps the draw uniform
		b.WriteByte(base32Alphabet[int(v)%len(base32Alphabet)])
	}
	return b.String(), nil
}

func decodeSecret(secret string) ([]byte, error) {
	normalized := strings.ToUpper(strings.TrimSpace(secret))
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(normalized)
}

// ComputeCode derives the 6-digit code for the time step containing now,
// shifted by counterOffset steps. RFC 6238: HMAC-SHA1 over the 8-byte
// big-endian step counter, then dynamic truncation.
func ComputeCode(secret string, stepSeconds int64, counterOffset int64, now time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", fmt.Errorf("malformed secret: %w", err)
	}

	counter := now.Unix()/stepSeconds + counterOffset
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	truncated := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff
	return fmt.Sprintf("%06d", truncated%1000000), nil
}

// VerifyCode reports whether candidate matches the secret's code in any time
// step within the drift tolerance. A malformed secret or candidate verifies
// as false rather than returning an error.
func VerifyCode(secret string, candidate string, now time.Time) bool {
	if len(candidate) != params.TOTPDigits {
		return false
	}
	for _, c := range candidate {
		if c < '0' || c > '9' {
			return false
		}
	}
	matched := false
	for off := int64(-params.TOTPDriftSteps); off <= params.TOTPDriftSteps; off++ {
		code, err := ComputeCode(secret, params.TOTPStepSeconds, off, now)
		if err != nil {
			return false
		}
		if subtle.ConstantTimeCompare([]byte(code), []byte(candidate)) == 1 {
			matched = true
		}
	}
	return matched
}

// ProvisioningURL builds the otpauth:// URL an authenticator app consumes
// during enrollment, via QR code or manual entry.
func ProvisioningURL(issuer, account, secret string) string {
	query := url.Values{
		"secret": {secret},
		"issuer": {issuer},
		"period": {fmt.Sprintf("%d", params.TOTPStepSeconds)},
		"digits": {fmt.Sprintf("%d", params.TOTPDigits)},
	}
	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + account,
		RawQuery: query.Encode(),
	}
	return u.String()
}
