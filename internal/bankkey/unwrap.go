package bankkey

import (
	"bytes"
	"crypto/des"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrCryptoFailure marks a key unwrap or cipher failure. It signals a
// configuration or data-integrity problem and is never retried.
var ErrCryptoFailure = errors.New("crypto failure")

// legacyKey derives the 24-byte triple-DES key the legacy system uses:
// MD5 of the master key bytes, with the first 8 digest bytes appended to
// reach triple length. The duplication makes K3 == K1; this must not be
// changed, the stored ciphertext depends on it.
func legacyKey(master []byte) []byte {
	digest := md5.Sum(master)
	key := make([]byte, 24)
	copy(key, digest[:])
	copy(key[16:], digest[:8])
	return key
}

// Unwrap decrypts base64 ciphertext produced by the legacy key-wrapping
// scheme (3DES in ECB mode with PKCS#5 padding) under the process master key.
func Unwrap(ciphertextB64 string, master []byte) (string, error) {
	if len(master) == 0 {
		return "", fmt.Errorf("%w: empty master key", ErrCryptoFailure)
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("%w: decode ciphertext: %v", ErrCryptoFailure, err)
	}

	block, err := des.NewTripleDESCipher(legacyKey(master))
	if err != nil {
		return "", fmt.Errorf("%w: build cipher: %v", ErrCryptoFailure, err)
	}

	bs := block.BlockSize()
	if len(raw) == 0 || len(raw)%bs != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d not a multiple of block size", ErrCryptoFailure, len(raw))
	}

	plain := make([]byte, len(raw))
	for i := 0; i < len(raw); i += bs {
		block.Decrypt(plain[i:i+bs], raw[i:i+bs])
	}

	unpadded, err := pkcs5Unpad(plain, bs)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

// Wrap is the inverse of Unwrap. The service only ever unwraps at runtime;
// Wrap exists for key provisioning tooling and tests.
func Wrap(plaintext string, master []byte) (string, error) {
	if len(master) == 0 {
		return "", fmt.Errorf("%w: empty master key", ErrCryptoFailure)
	}

	block, err := des.NewTripleDESCipher(legacyKey(master))
	if err != nil {
		return "", fmt.Errorf("%w: build cipher: %v", ErrCryptoFailure, err)
	}

	bs := block.BlockSize()
	padded := pkcs5Pad([]byte(plaintext), bs)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += bs {
		block.Encrypt(out[i:i+bs], padded[i:i+bs])
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

func pkcs5Pad(data []byte, bs int) []byte {
	n := bs - len(data)%bs
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs5Unpad(data []byte, bs int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrCryptoFailure)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > bs || n > len(data) {
		return nil, fmt.Errorf("%w: invalid padding", ErrCryptoFailure)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrCryptoFailure)
		}
	}
	return data[:len(data)-n], nil
}
