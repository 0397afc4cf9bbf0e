package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ClareAI/astra-lead-service/pkg/logger"
)

// DefaultSignatureTolerance is the replay window for webhook timestamps.
const DefaultSignatureTolerance = 300 * time.Second

// SignatureVerifier checks that an inbound notification genuinely originated
// from the voice provider and is not a replay. The provider signs
// "<timestamp>.<raw body>" with HMAC-SHA256 and sends the result as
// "t=<unix-seconds>,v0=<hex-digest>".
type SignatureVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewSignatureVerifier creates a verifier for the given shared secret. An
// empty secret puts the verifier in permissive development mode: every
// request passes, loudly.
func NewSignatureVerifier(secret string, tolerance time.Duration) *SignatureVerifier {
	if tolerance <= 0 {
		tolerance = DefaultSignatureTolerance
	}
	return &SignatureVerifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify checks the signature header against the raw request body. It never
// panics; every failure branch returns false with a reason usable for
// logging.
func (v *SignatureVerifier) Verify(rawBody []byte, signatureHeader string) (bool, string) {
	if len(v.secret) == 0 {
		// Deliberate security downgrade for development setups; this must
		// never be silent.
		logger.Base().Warn("webhook secret not configured, SKIPPING signature verification - do not run this in production")
		return true, "verification skipped: no secret configured"
	}

	parts := strings.Split(signatureHeader, ",")
	if len(parts) != 2 {
		return false, fmt.Sprintf("malformed signature header: expected 2 parts, got %d", len(parts))
	}
	if !strings.HasPrefix(parts[0], "t=") {
		return false, "malformed signature header: missing t= prefix"
	}
	if !strings.HasPrefix(parts[1], "v0=") {
		return false, "malformed signature header: missing v0= prefix"
	}

	timestampStr := strings.TrimPrefix(parts[0], "t=")
	providedDigest := strings.TrimPrefix(parts[1], "v0=")

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return false, fmt.Sprintf("invalid timestamp %q", timestampStr)
	}

	drift := v.now().Sub(time.Unix(timestamp, 0))
	if drift > v.tolerance || drift < -v.tolerance {
		return false, fmt.Sprintf("timestamp outside replay window: drift %s, tolerance %s", drift, v.tolerance)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(timestampStr))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	expectedDigest := hex.EncodeToString(mac.Sum(nil))

	if len(providedDigest) != len(expectedDigest) {
		return false, "signature length mismatch"
	}
	// Constant time comparison; never compare digests with ==.
	if !hmac.Equal([]byte(providedDigest), []byte(expectedDigest)) {
		return false, "signature mismatch"
	}
	return true, ""
}

// Enforcing reports whether a secret is configured and signatures are
// actually checked.
func (v *SignatureVerifier) Enforcing() bool {
	return len(v.secret) > 0
}
