package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrCodeMalformed = errors.New("confirmation code is malformed")
	ErrCodeMismatch  = errors.New("confirmation code does not match")
	ErrCodeExpired   = errors.New("confirmation code has expired")
)

// length of the hex HMAC part of a code
const codeMACLen = 20

// CodeGenerator mints confirmation codes of the form "<ts base36>-<mac>", where
// mac is HMAC-SHA256 over the user state and the timestamp. A code is only
// valid for the state it was minted for, so changing the state revokes it.
type CodeGenerator struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewCodeGenerator(key []byte, ttl time.Duration) *CodeGenerator {
	return &CodeGenerator{key: key, ttl: ttl, now: time.Now}
}

// Generate returns a fresh code for state.
func (g *CodeGenerator) Generate(state string) string {
	ts := strconv.FormatInt(g.now().Unix(), 36)
	return ts + "-" + g.mac(state, ts)
}

// Check verifies the MAC in constant time and then the age of the code.
func (g *CodeGenerator) Check(code, state string) error {
	ts, mac, ok := strings.Cut(code, "-")
	if !ok || ts == "" || len(mac) != codeMACLen {
		return ErrCodeMalformed
	}
	issued, err := strconv.ParseInt(ts, 36, 64)
	if err != nil {
		return ErrCodeMalformed
	}
	if !hmac.Equal([]byte(mac), []byte(g.mac(state, ts))) {
		return ErrCodeMismatch
	}
	if g.ttl > 0 && g.now().Sub(time.Unix(issued, 0)) > g.ttl {
		return ErrCodeExpired
	}
	return nil
}

func (g *CodeGenerator) mac(state, ts string) string {
	h := hmac.New(sha256.New, g.key)
	h.Write([]byte(state))
	h.Write([]byte{0})
	h.Write([]byte(ts))
	return hex.EncodeToString(h.Sum(nil))[:codeMACLen]
}

// HashCode creates a bcrypt hash of a confirmation code for storage.
func HashCode(code string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyCode checks if the provided code matches the stored bcrypt hash.
func VerifyCode(hashedCode, providedCode string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedCode), []byte(providedCode))
}
