package easyboss

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

// cipherKey is the fixed AES-128 key the platform's web client embeds.
// The IV is all zeros; both sides derive identical ciphertext for a
// given plaintext, which the login endpoint depends on.
var cipherKey = []byte("@3438jj;siduf832")

// EncryptCredential encrypts plaintext the way the platform's login form
// does: AES-128-CBC with a zero IV, PKCS#7 padding, base64 output.
// Deterministic for any given input.
func EncryptCredential(plaintext string) (string, error) {
	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return "", fmt.Errorf("easyboss: cipher init: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))

	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}
