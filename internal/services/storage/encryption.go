package storage

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"
)

// key holds both halves of a passphrase-derived age key
type key struct {
	recipient *age.ScryptRecipient
	identity  *age.ScryptIdentity
}

func deriveKey(password string) (*key, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipient: %w", err)
	}
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	return &key{recipient: recipient, identity: identity}, nil
}

// seal encrypts plaintext into the age binary format
func (k *key) seal(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, k.recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// open decrypts data produced by seal. Plaintext input is returned unchanged.
func (k *key) open(data []byte) ([]byte, error) {
	if !isAgeEncrypted(data) {
		return data, nil
	}
	r, err := age.Decrypt(bytes.NewReader(data), k.identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
