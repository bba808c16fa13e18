package credentials

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/fpl-companion/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/viant/afs"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

var _ Persister = (*SessionFile)(nil)

// SessionFile persists a Session sealed with NaCl secretbox under a key
// derived from a passphrase. Layout: salt | nonce | box.
type SessionFile struct {
	url        string
	passphrase []byte
	fs         afs.Service
}

// NewSessionFile returns a persister writing to path. An empty passphrase is
// rejected: the file holds a refresh token.
func NewSessionFile(path, passphrase string) (*SessionFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[credentials NewSessionFile] path is required")
	}
	if passphrase == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[credentials NewSessionFile] passphrase is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to resolve session file path")
	}
	return &SessionFile{
		url:        "file://" + abs,
		passphrase: []byte(passphrase),
		fs:         afs.New(),
	}, nil
}

// Load returns nil, nil when no session has been saved.
func (f *SessionFile) Load(ctx context.Context) (*Session, error) {
	exists, err := f.fs.Exists(ctx, f.url)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to stat session file")
	}
	if !exists {
		return nil, nil
	}
	blob, err := f.fs.DownloadWithURL(ctx, f.url)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read session file")
	}
	plain, err := f.open(blob)
	if err != nil {
		return nil, err
	}
	session := &Session{}
	if err := json.Unmarshal(plain, session); err != nil {
		return nil, pkgerrors.Wrap(errors.ErrInvalidSessionPayload, err.Error())
	}
	return session, nil
}

func (f *SessionFile) Save(ctx context.Context, session *Session) error {
	if session == nil {
		return f.Clear(ctx)
	}
	plain, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to marshal session")
	}
	blob, err := f.seal(plain)
	if err != nil {
		return err
	}
	if err := f.fs.Upload(ctx, f.url, os.FileMode(0o600), bytes.NewReader(blob)); err != nil {
		return pkgerrors.Wrap(err, "failed to write session file")
	}
	return nil
}

func (f *SessionFile) Clear(ctx context.Context) error {
	exists, err := f.fs.Exists(ctx, f.url)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to stat session file")
	}
	if !exists {
		return nil
	}
	if err := f.fs.Delete(ctx, f.url); err != nil {
		return pkgerrors.Wrap(err, "failed to delete session file")
	}
	return nil
}

func (f *SessionFile) deriveKey(salt []byte) *[keySize]byte {
	var key [keySize]byte
	copy(key[:], argon2.IDKey(f.passphrase, salt, 2, 19*1024, 1, keySize))
	return &key
}

func (f *SessionFile) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to generate salt")
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to generate nonce")
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, f.deriveKey(salt)), nil
}

func (f *SessionFile) open(blob []byte) ([]byte, error) {
	if len(blob) < saltSize+nonceSize+secretbox.Overhead {
		return nil, errors.ErrInvalidSessionPayload
	}
	salt := blob[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], blob[saltSize:saltSize+nonceSize])

	plain, ok := secretbox.Open(nil, blob[saltSize+nonceSize:], &nonce, f.deriveKey(salt))
	if !ok {
		return nil, errors.ErrInvalidSessionPayload
	}
	return plain, nil
}
