package auth

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	signingKeyInfo = "reviewhub/jwt-signing"
	codeKeyInfo    = "reviewhub/confirmation-code"
	derivedKeySize = 32
)

// Keys holds the subkeys derived from JWT_SECRET. The JWT signing key and the
// confirmation code key never share bytes.
type Keys struct {
	Signing []byte
	Code    []byte
}

func DeriveKeys(secret string) (Keys, error) {
	if secret == "" {
		return Keys{}, fmt.Errorf("derive keys: empty secret")
	}
	signing, err := deriveKey(secret, signingKeyInfo)
	if err != nil {
		return Keys{}, err
	}
	code, err := deriveKey(secret, codeKeyInfo)
	if err != nil {
		return Keys{}, err
	}
	return Keys{Signing: signing, Code: code}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, derivedKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}
