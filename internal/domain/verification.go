package domain

import "time"

// VerificationTypeLogin is the verification type issued by the send-code flow.
const VerificationTypeLogin = "login"

// Verification holds the verifier material for one outstanding one-time code.
// At most one row exists per (Type, Target); the code itself is never stored.
// ExpiresAt is the DynamoDB TTL attribute (unix seconds).
type Verification struct {
	Type      string    `json:"type" dynamodbav:"type"`
	Target    string    `json:"target" dynamodbav:"target"`
	Secret    string    `json:"-" dynamodbav:"secret"`
	Algorithm string    `json:"algorithm" dynamodbav:"algorithm"`
	Digits    int       `json:"digits" dynamodbav:"digits"`
	Period    int       `json:"period" dynamodbav:"period"`
	CharSet   string    `json:"char_set" dynamodbav:"char_set"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

// IsExpired reports whether at is not after now. Equal timestamps count as expired.
func IsExpired(at, now time.Time) bool {
	return !at.After(now)
}

// ExpiryFrom returns now shifted by d.
func ExpiryFrom(now time.Time, d time.Duration) time.Time {
	return now.Add(d)
}
