package totpx_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/arkrose/doorman/pkg/totpx"
	"github.com/stretchr/testify/require"
)

// Base32 encoding of the RFC 6238 appendix B seed "12345678901234567890".
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestCodeMatchesReferenceVectors(t *testing.T) {
	t.Parallel()

	// RFC 6238 appendix B vectors (SHA1), truncated to 6 digits.
	vectors := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"}, // leading zero must be preserved
		{2000000000, "279037"},
		{20000000000, "353130"},
	}

	for _, v := range vectors {
		code, err := totpx.Code(rfcSecret, time.Unix(v.unix, 0).UTC())
		require.NoError(t, err)
		require.Equal(t, v.want, code)
		require.Len(t, code, 6)
	}
}

func TestCodeIsDeterministic(t *testing.T) {
	t.Parallel()

	at := time.Unix(1700000010, 0).UTC()
	first, err := totpx.Code(rfcSecret, at)
	require.NoError(t, err)

	second, err := totpx.Code(rfcSecret, at)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Any instant within the same 30s step yields the same code.
	later, err := totpx.Code(rfcSecret, at.Add(29*time.Second))
	require.NoError(t, err)
	require.Equal(t, first, later)
}

func TestVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	secret, err := totpx.GenerateSecret()
	require.NoError(t, err)

	at := time.Unix(1700000010, 0).UTC()
	code, err := totpx.Code(secret, at)
	require.NoError(t, err)

	require.True(t, totpx.Verify(secret, code, at, totpx.DefaultWindow))
}

func TestVerifyWindowBoundaries(t *testing.T) {
	t.Parallel()

	at := time.Unix(1700000010, 0).UTC()
	code, err := totpx.Code(rfcSecret, at)
	require.NoError(t, err)

	// Accepted one step either side of the generation step.
	require.True(t, totpx.Verify(rfcSecret, code, at.Add(totpx.StepSeconds*time.Second), 1))
	require.True(t, totpx.Verify(rfcSecret, code, at.Add(-totpx.StepSeconds*time.Second), 1))

	// Rejected once the generation step falls outside the tolerance.
	require.False(t, totpx.Verify(rfcSecret, code, at.Add(2*totpx.StepSeconds*time.Second), 1))
	require.False(t, totpx.Verify(rfcSecret, code, at.Add(-2*totpx.StepSeconds*time.Second), 1))

	// A wider window accepts the same drift.
	require.True(t, totpx.Verify(rfcSecret, code, at.Add(2*totpx.StepSeconds*time.Second), 2))
}

func TestVerifyRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	at := time.Unix(1700000010, 0).UTC()

	require.False(t, totpx.Verify(rfcSecret, "", at, 1))
	require.False(t, totpx.Verify(rfcSecret, "12345", at, 1))
	require.False(t, totpx.Verify(rfcSecret, "1234567", at, 1))
	require.False(t, totpx.Verify(rfcSecret, "12345a", at, 1))
	require.False(t, totpx.Verify(rfcSecret, "abcdef", at, 1))
}

func TestVerifyRejectsEmptySecret(t *testing.T) {
	t.Parallel()

	require.False(t, totpx.Verify("", "123456", time.Now(), 1))
}

func TestGenerateSecretFormat(t *testing.T) {
	t.Parallel()

	a, err := totpx.GenerateSecret()
	require.NoError(t, err)
	b, err := totpx.GenerateSecret()
	require.NoError(t, err)

	// 20 bytes encode to 32 base32 characters without padding.
	require.Len(t, a, 32)
	require.NotEqual(t, a, b)
	require.NotContains(t, a, "=")
}

func TestProvisioningURI(t *testing.T) {
	t.Parallel()

	uri := totpx.ProvisioningURI(rfcSecret, "alice@example.com", "Doorman Auth")

	parsed, err := url.Parse(uri)
	require.NoError(t, err)
	require.Equal(t, "otpauth", parsed.Scheme)
	require.Equal(t, "totp", parsed.Host)

	q := parsed.Query()
	require.Equal(t, rfcSecret, q.Get("secret"))
	require.Equal(t, "Doorman Auth", q.Get("issuer"))
	require.Equal(t, "SHA1", q.Get("algorithm"))
	require.Equal(t, "6", q.Get("digits"))
	require.Equal(t, "30", q.Get("period"))

	// Labels with spaces must be percent-encoded in the path.
	require.Contains(t, uri, "Doorman%20Auth:alice@example.com")
}
