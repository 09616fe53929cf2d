package cryptox

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// MinSecretSize is the smallest secret LoadOrCreateSecret will accept from an
// existing file.
const MinSecretSize = 32

// ErrSecretTooShort reports a secret file holding fewer than MinSecretSize bytes.
var ErrSecretTooShort = errors.New("cryptox: secret too short")

// LoadOrCreateSecret returns the contents of path with surrounding whitespace
// trimmed. When the file does not exist it is created (mode 0600, parents
// 0750) holding size random bytes encoded as base64url, and that encoded text
// is returned. The encoded form is what both the signer and later reads see,
// so a restart yields the same secret.
//
// The file only appears at path once fully written, so processes racing on
// first start all end up with the winner's secret. A zero-length file is
// treated as missing and replaced.
func LoadOrCreateSecret(path string, size int) ([]byte, error) {
	if size < MinSecretSize {
		size = MinSecretSize
	}
	path = filepath.Clean(path)

	secret, err := readSecret(path)
	if errors.Is(err, errEmptySecret) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove empty secret %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return secret, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create secret dir: %w", err)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	secret = []byte(base64.RawURLEncoding.EncodeToString(buf))

	if err := linkSecret(path, secret); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return readSecret(path)
		}
		return nil, fmt.Errorf("create secret %s: %w", path, err)
	}
	return secret, nil
}

var errEmptySecret = fmt.Errorf("%w: empty file", ErrSecretTooShort)

func readSecret(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", errEmptySecret, path)
	}

	secret := bytes.TrimSpace(raw)
	if len(secret) < MinSecretSize {
		return nil, fmt.Errorf("%w: %s holds %d bytes", ErrSecretTooShort, path, len(secret))
	}
	return secret, nil
}

// linkSecret writes secret to a synced temp file beside path and hard links
// it into place. The link fails with fs.ErrExist when path already exists.
func linkSecret(path string, secret []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := f.Chmod(0o600); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(secret); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Link(tmp, path)
}
