package otp

import (
	"strings"
	"testing"
	"time"

	pqotp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// rfcSecret is the RFC 6238 appendix B test secret ("12345678901234567890")
// in base32.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestGenerateSecret(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		secret, err := GenerateSecret()
		if err != nil {
			t.Fatalf("GenerateSecret failed: %v", err)
		}
		if len(secret) != 16 {
			t.Fatalf("expected 16-character secret, got %d: %q", len(secret), secret)
		}
		for _, c := range secret {
			if !strings.ContainsRune(base32Alphabet, c) {
				t.Fatalf("secret %q contains non-base32 character %q", secret, c)
			}
		}
		seen[secret] = true
	}
	if len(seen) < 2 {
		t.Fatalf("20 generated secrets were all identical")
	}
}

// TestComputeCode_RFC6238Vectors checks the SHA-1 test vectors from RFC 6238
// appendix B. The published vectors are 8 digits; a 6-digit code is the same
// truncated value mod 10^6, i.e. the last six digits.
func TestComputeCode_RFC6238Vectors(t *testing.T) {
	cases := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}
	for _, c := range cases {
		code, err := ComputeCode(rfcSecret, 30, 0, time.Unix(c.unix, 0))
		if err != nil {
			t.Fatalf("ComputeCode at t=%d failed: %v", c.unix, err)
		}
		if code != c.want {
			t.Errorf("ComputeCode at t=%d = %q, want %q", c.unix, code, c.want)
		}
	}
}

// TestComputeCode_MatchesReferenceLibrary cross-checks our implementation
// against pquerna/otp with matching parameters.
func TestComputeCode_MatchesReferenceLibrary(t *testing.T) {
	secret, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	opts := totp.ValidateOpts{
		Period:    30,
		Digits:    pqotp.DigitsSix,
		Algorithm: pqotp.AlgorithmSHA1,
	}
	for _, unix := range []int64{59, 1111111111, 1700000000, 2000000000} {
		at := time.Unix(unix, 0)
		want, err := totp.GenerateCodeCustom(secret, at, opts)
		if err != nil {
			t.Fatalf("reference GenerateCodeCustom failed: %v", err)
		}
		got, err := ComputeCode(secret, 30, 0, at)
		if err != nil {
			t.Fatalf("ComputeCode failed: %v", err)
		}
		if got != want {
			t.Errorf("ComputeCode at t=%d = %q, reference says %q", unix, got, want)
		}
	}
}

func TestVerifyCode_AcceptsCurrentCode(t *testing.T) {
	now := time.Unix(1700000000, 0)
	code, err := ComputeCode(rfcSecret, 30, 0, now)
	if err != nil {
		t.Fatalf("ComputeCode failed: %v", err)
	}
	if !VerifyCode(rfcSecret, code, now) {
		t.Fatalf("current code %q rejected", code)
	}
}

// TestVerifyCode_DriftWindow verifies the tolerance of two steps either
// side: a code from 45 seconds ago still passes, one from 120 seconds ago
// does not.
func TestVerifyCode_DriftWindow(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	code, err := ComputeCode(rfcSecret, 30, 0, issued)
	if err != nil {
		t.Fatalf("ComputeCode failed: %v", err)
	}
	if !VerifyCode(rfcSecret, code, issued.Add(45*time.Second)) {
		t.Errorf("code rejected 45s after issue, expected within drift window")
	}
	if VerifyCode(rfcSecret, code, issued.Add(120*time.Second)) {
		t.Errorf("code accepted 120s after issue, expected outside drift window")
	}
}

func TestVerifyCode_RejectsBadCandidates(t *testing.T) {
	now := time.Unix(1700000000, 0)
	for _, candidate := range []string{"", "12345", "1234567", "12345a", "abcdef"} {
		if VerifyCode(rfcSecret, candidate, now) {
			t.Errorf("candidate %q accepted, want rejected", candidate)
		}
	}
}

// TestVerifyCode_MalformedSecret covers the defined failure mode: a secret
// that is not valid base32 verifies as false and never errors.
func TestVerifyCode_MalformedSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)
	if VerifyCode("not base32 !!", "123456", now) {
		t.Fatalf("malformed secret verified a code")
	}
	if _, err := ComputeCode("not base32 !!", 30, 0, now); err == nil {
		t.Fatalf("ComputeCode accepted a malformed secret")
	}
}

func TestProvisioningURL(t *testing.T) {
	u := ProvisioningURL("NetDash", "admin", rfcSecret)
	if !strings.HasPrefix(u, "otpauth://totp/") {
		t.Fatalf("unexpected URL scheme: %q", u)
	}
	for _, part := range []string{"secret=" + rfcSecret, "issuer=NetDash", "period=30", "digits=6", "NetDash:admin"} {
		if !strings.Contains(u, part) {
			t.Errorf("provisioning URL %q missing %q", u, part)
		}
	}
}
