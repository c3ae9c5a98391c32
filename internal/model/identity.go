package model

// UnknownFingerprint is the sentinel used when no device characteristic is
// available. Every unfingerprintable client collides into this bucket; callers
// must not treat it as uniquely identifying.
const UnknownFingerprint = "Unknown"

// Identity is the (origin address, device fingerprint) pair used to rate-limit
// claims. Neither signal is individually trusted; the eligibility check tests
// both independently so that defeating one alone does not bypass the cooldown.
type Identity struct {
	OriginAddress     string
	DeviceFingerprint string
}
