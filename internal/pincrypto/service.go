package pincrypto

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/moba-pay/moba_wallet/internal/bankkey"
)

const (
	pbkdf2Iterations = 65536
	derivedKeyLen    = 32
	nonceLen         = 12
)

// Service encrypts PIN payloads for the legacy banking switch using
// per-institution key material. The output format is fixed by the receiving
// system: hex(nonce || ciphertext || GCM tag).
type Service struct {
	keys *bankkey.Cache
}

// NewService builds a credential crypto service over the bank key cache.
func NewService(keys *bankkey.Cache) *Service {
	return &Service{keys: keys}
}

// EncryptPin encrypts a PIN under the bank's derived AES key. The nonce is
// the bank's configured IV string taken as raw bytes; it must decode to
// exactly 12 bytes. Any failure is fatal to the caller, never retried here.
func (s *Service) EncryptPin(ctx context.Context, pin, bankCode string) (string, error) {
	mat, err := s.keys.Get(ctx, bankCode)
	if err != nil {
		return "", fmt.Errorf("%w: %v", bankkey.ErrCryptoFailure, err)
	}

	gcm, nonce, err := buildCipher(mat)
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(pin), nil)
	payload := append(append([]byte{}, nonce...), sealed...)
	return hex.EncodeToString(payload), nil
}

// DecryptPin is the structural inverse of EncryptPin. PIN material normally
// flows one-way into the legacy system; this exists for collaborators that
// need to recover a payload they produced, and for the round-trip property.
func (s *Service) DecryptPin(ctx context.Context, payloadHex, bankCode string) (string, error) {
	mat, err := s.keys.Get(ctx, bankCode)
	if err != nil {
		return "", fmt.Errorf("%w: %v", bankkey.ErrCryptoFailure, err)
	}

	gcm, nonce, err := buildCipher(mat)
	if err != nil {
		return "", err
	}

	raw, err := hex.DecodeString(payloadHex)
	if err != nil {
		return "", fmt.Errorf("%w: decode payload: %v", bankkey.ErrCryptoFailure, err)
	}
	if len(raw) <= nonceLen {
		return "", fmt.Errorf("%w: payload too short", bankkey.ErrCryptoFailure)
	}

	// The payload is opaque: the embedded nonce must match the bank's
	// configured one and the tag must verify, or the whole unit is rejected.
	if !bytes.Equal(raw[:nonceLen], nonce) {
		return "", fmt.Errorf("%w: payload nonce does not match bank %s", bankkey.ErrCryptoFailure, bankCode)
	}
	plain, err := gcm.Open(nil, nonce, raw[nonceLen:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: open payload: %v", bankkey.ErrCryptoFailure, err)
	}
	return string(plain), nil
}

func buildCipher(mat bankkey.Material) (cipher.AEAD, []byte, error) {
	nonce := []byte(mat.IV)
	if len(nonce) != nonceLen {
		return nil, nil, fmt.Errorf("%w: bank %s iv is %d bytes, need %d",
			bankkey.ErrCryptoFailure, mat.BankCode, len(nonce), nonceLen)
	}

	key := pbkdf2.Key([]byte(mat.SecretKey), nonce, pbkdf2Iterations, derivedKeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: build aes cipher: %v", bankkey.ErrCryptoFailure, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: build gcm: %v", bankkey.ErrCryptoFailure, err)
	}
	return gcm, nonce, nil
}
