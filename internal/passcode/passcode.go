// Package passcode issues and verifies time-stepped one-time codes (TOTP family)
// rendered over a configurable alphabet.
package passcode

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-magic-auth/internal/pkg/clock"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const (
	DefaultDigits    = 6
	DefaultPeriod    = 600 // seconds; one code stays current for ten minutes
	DefaultAlgorithm = "SHA1"
	// DefaultCharSet excludes the visually ambiguous 0, 1, I and O.
	DefaultCharSet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	decimalCharSet = "0123456789"
	secretSize     = 10
	skew           = 1
)

var (
	// ErrUnsupportedAlgorithm means stored or configured parameters name an unknown HMAC algorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrInvalidParams means stored or configured parameters cannot produce a code.
	ErrInvalidParams = errors.New("invalid passcode parameters")
)

// Params is the verifier material persisted alongside a verification.
// The same values must be used at issuance and at verification.
type Params struct {
	Secret    string
	Algorithm string
	Digits    int
	Period    int
	CharSet   string
}

// Issued is a freshly generated code plus the material needed to verify it later.
type Issued struct {
	Code string
	Params
}

// Engine generates and checks codes against an injected clock.
type Engine struct {
	clock     clock.Clock
	algorithm string
	digits    int
	period    int
	charSet   string
}

// Option customises an Engine.
type Option func(*Engine)

// WithCharSet overrides the code alphabet.
func WithCharSet(charSet string) Option {
	return func(e *Engine) { e.charSet = charSet }
}

// WithDigits overrides the code length.
func WithDigits(digits int) Option {
	return func(e *Engine) { e.digits = digits }
}

// WithPeriod overrides the step window.
func WithPeriod(period time.Duration) Option {
	return func(e *Engine) { e.period = int(period / time.Second) }
}

// WithAlgorithm overrides the HMAC algorithm.
func WithAlgorithm(name string) Option {
	return func(e *Engine) { e.algorithm = name }
}

// NewEngine returns an Engine with the package defaults. A bad option is a
// configuration error and is reported here rather than on every request.
func NewEngine(c clock.Clock, opts ...Option) (*Engine, error) {
	if c == nil {
		c = clock.System
	}
	e := &Engine{
		clock:     c,
		algorithm: DefaultAlgorithm,
		digits:    DefaultDigits,
		period:    DefaultPeriod,
		charSet:   DefaultCharSet,
	}
	for _, opt := range opts {
		opt(e)
	}
	alg, err := parseAlgorithm(e.algorithm)
	if err != nil {
		return nil, err
	}
	e.algorithm = algorithmName(alg)
	if err := checkShape(e.digits, e.period, e.charSet); err != nil {
		return nil, err
	}
	return e, nil
}

// Issue produces a fresh secret and the code for the current time step.
// Nothing is persisted.
func (e *Engine) Issue() (*Issued, error) {
	secret, err := newSecret()
	if err != nil {
		return nil, err
	}
	p := Params{
		Secret:    secret,
		Algorithm: e.algorithm,
		Digits:    e.digits,
		Period:    e.period,
		CharSet:   e.charSet,
	}
	code, err := Generate(p, e.clock.Now())
	if err != nil {
		return nil, err
	}
	return &Issued{Code: code, Params: p}, nil
}

// Verify reports whether code matches p at the current step or one step either side.
// A wrong code is (false, nil); an error means p itself is unusable.
func (e *Engine) Verify(p Params, code string) (bool, error) {
	return Validate(p, code, e.clock.Now())
}

// Validate is Verify against an explicit instant.
func Validate(p Params, code string, at time.Time) (bool, error) {
	alg, key, err := resolve(p)
	if err != nil {
		return false, err
	}
	code = normalize(code, p.CharSet)
	if len(code) != p.Digits {
		return false, nil
	}
	current := at.Unix() / int64(p.Period)
	matched := false
	for step := -skew; step <= skew; step++ {
		counter := current + int64(step)
		if counter < 0 {
			continue
		}
		want, err := generate(p, alg, key, uint64(counter))
		if err != nil {
			return false, err
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			matched = true
		}
	}
	return matched, nil
}

// Generate returns the code for the step containing at.
func Generate(p Params, at time.Time) (string, error) {
	alg, key, err := resolve(p)
	if err != nil {
		return "", err
	}
	return generate(p, alg, key, uint64(at.Unix()/int64(p.Period)))
}

func generate(p Params, alg otp.Algorithm, key []byte, counter uint64) (string, error) {
	if p.CharSet == decimalCharSet {
		return hotp.GenerateCodeCustom(p.Secret, counter, hotp.ValidateOpts{
			Digits:    otp.Digits(p.Digits),
			Algorithm: alg,
		})
	}
	return render(truncate(alg, key, counter), p.Digits, p.CharSet), nil
}

// truncate is the RFC 4226 dynamic truncation: a 31-bit value taken from the HMAC.
func truncate(alg otp.Algorithm, key []byte, counter uint64) uint32 {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)
	mac := hmac.New(alg.Hash, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)
	offset := sum[len(sum)-1] & 0x0f
	return binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff
}

// render writes value as digits symbols of charSet, most significant first.
func render(value uint32, digits int, charSet string) string {
	base := uint32(len(charSet))
	out := make([]byte, digits)
	for i := digits - 1; i >= 0; i-- {
		out[i] = charSet[value%base]
		value /= base
	}
	return string(out)
}

func resolve(p Params) (otp.Algorithm, []byte, error) {
	alg, err := parseAlgorithm(p.Algorithm)
	if err != nil {
		return 0, nil, err
	}
	if err := checkShape(p.Digits, p.Period, p.CharSet); err != nil {
		return 0, nil, err
	}
	key, err := decodeSecret(p.Secret)
	if err != nil {
		return 0, nil, err
	}
	return alg, key, nil
}

func checkShape(digits, period int, charSet string) error {
	if digits <= 0 || digits > 10 {
		return fmt.Errorf("digits %d out of range: %w", digits, ErrInvalidParams)
	}
	if period <= 0 {
		return fmt.Errorf("period %d must be positive: %w", period, ErrInvalidParams)
	}
	if len(charSet) < 2 {
		return fmt.Errorf("charset needs at least two symbols: %w", ErrInvalidParams)
	}
	seen := make(map[byte]struct{}, len(charSet))
	for i := 0; i < len(charSet); i++ {
		c := charSet[i]
		if c > 0x7e || c <= 0x20 {
			return fmt.Errorf("charset must be printable ASCII: %w", ErrInvalidParams)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("charset repeats %q: %w", c, ErrInvalidParams)
		}
		seen[c] = struct{}{}
	}
	return nil
}

func parseAlgorithm(name string) (otp.Algorithm, error) {
	switch strings.ToUpper(strings.ReplaceAll(name, "-", "")) {
	case "SHA1":
		return otp.AlgorithmSHA1, nil
	case "SHA256":
		return otp.AlgorithmSHA256, nil
	case "SHA512":
		return otp.AlgorithmSHA512, nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnsupportedAlgorithm)
}

func algorithmName(alg otp.Algorithm) string {
	switch alg {
	case otp.AlgorithmSHA256:
		return "SHA256"
	case otp.AlgorithmSHA512:
		return "SHA512"
	}
	return "SHA1"
}

func newSecret() (string, error) {
	b := make([]byte, secretSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}

// decodeSecret accepts the same spellings as pquerna/otp: any case, padding optional.
func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimSpace(secret))
	if s == "" {
		return nil, fmt.Errorf("empty secret: %w", ErrInvalidParams)
	}
	if n := len(s) % 8; n != 0 {
		s += strings.Repeat("=", 8-n)
	}
	key, err := base32.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", ErrInvalidParams)
	}
	return key, nil
}

func normalize(code, charSet string) string {
	code = strings.TrimSpace(code)
	if charSet == strings.ToUpper(charSet) {
		code = strings.ToUpper(code)
	}
	return code
}
