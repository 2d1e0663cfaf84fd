// Package secret derives and checks the integrity token that guards score
// submissions.
//
// A token is the lowercase hex SHA-256 digest of
//
//	table + "\n" + name + "\n" + decimal(score) + "\n" + salt
//
// Any client that knows the salt can reproduce it byte for byte. Tokens carry
// no nonce or timestamp, so a captured (table, name, score, token) tuple stays
// valid for as long as the salt does.
package secret

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/okian/highscore/internal/domain/model"
)

const separator = "\n"

// ComputeToken returns the integrity token for a submission.
func ComputeToken(table, name string, score int64, salt string) string {
	msg := table + separator + name + separator + strconv.FormatInt(score, 10) + separator + salt
	sum := sha256.Sum256([]byte(msg))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether claimed is the token for entry in table.
// Hex case is ignored; the comparison runs in constant time.
func Verify(table string, entry model.Entry, claimed, salt string) bool {
	want := ComputeToken(table, entry.Name, entry.Score, salt)
	got := strings.ToLower(strings.TrimSpace(claimed))
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// Verifier applies the process-wide verification policy.
type Verifier struct {
	required bool
	salt     string
}

// Option applies a configuration option to the Verifier.
type Option func(*Verifier)

// WithRequired toggles mandatory verification.
func WithRequired(required bool) Option {
	return func(v *Verifier) {
		v.required = required
	}
}

// WithSalt sets the salt mixed into every token.
func WithSalt(salt string) Option {
	return func(v *Verifier) {
		v.salt = salt
	}
}

// NewVerifier constructs a Verifier. Verification is disabled by default.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Required reports whether submissions must carry a valid token.
func (v *Verifier) Required() bool { return v.required }

// Check validates sub against table. It returns nil when verification is
// disabled, whatever token the submission carries.
func (v *Verifier) Check(table string, sub model.Submission) error {
	if !v.required {
		return nil
	}
	if strings.TrimSpace(sub.Token) == "" {
		return ErrMissingToken
	}
	if !Verify(table, sub.Entry(), sub.Token, v.salt) {
		return ErrVerificationFailed
	}
	return nil
}
