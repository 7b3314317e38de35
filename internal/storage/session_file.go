package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hoverpad/hoverpad/internal/crypto"
)

// SessionFileMode is read/write for the owner only.
const SessionFileMode = 0600

// KeySource supplies the key that seals the session file.
type KeySource interface {
	SealingKey(ctx context.Context) ([]byte, error)
}

// sessionFile is the on-disk layout of the session file.
type sessionFile struct {
	Data      string    `json:"data"` // base64 of nonce || sealed JSON object
	CreatedAt time.Time `json:"created_at"`
}

// SessionFileStorage is the temporary Provider holding the session
// passphrase. Values are sealed at rest and the file is removed as soon as
// it holds no keys. This keeps the passphrase out of durable storage; it is
// not a hardened credential store.
type SessionFileStorage struct {
	path string
	keys KeySource

	mu  sync.Mutex
	key []byte
}

// NewSessionFileStorage creates a session file provider at path.
func NewSessionFileStorage(path string, keys KeySource) *SessionFileStorage {
	return &SessionFileStorage{
		path: path,
		keys: keys,
	}
}

// Path returns the session file path
func (ss *SessionFileStorage) Path() string {
	return ss.path
}

// Get implements Provider.
func (ss *SessionFileStorage) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	values, err := ss.load(ctx)
	if err != nil {
		return nil, err
	}
	return pick(values, keys), nil
}

// Set implements Provider.
func (ss *SessionFileStorage) Set(ctx context.Context, items map[string]*string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	values, err := ss.load(ctx)
	if err != nil {
		return err
	}
	apply(values, items)

	if len(values) == 0 {
		return ss.clear()
	}
	return ss.save(ctx, values)
}

// Clear removes the session file.
func (ss *SessionFileStorage) Clear() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.clear()
}

func (ss *SessionFileStorage) clear() error {
	if err := os.Remove(ss.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: failed to remove session file: %v", ErrStorageFailure, err)
	}
	return nil
}

func (ss *SessionFileStorage) sealingKey(ctx context.Context) ([]byte, error) {
	if ss.key != nil {
		return ss.key, nil
	}

	key, err := ss.keys.SealingKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get sealing key: %v", ErrStorageFailure, err)
	}
	ss.key = key
	return key, nil
}

func (ss *SessionFileStorage) load(ctx context.Context) (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(ss.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("%w: failed to read session file: %v", ErrStorageFailure, err)
	}

	var file sessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		// An unreadable session is an expired session.
		return values, nil
	}

	sealed, err := crypto.DecodeBase64(file.Data)
	if err != nil {
		return values, nil
	}

	key, err := ss.sealingKey(ctx)
	if err != nil {
		return nil, err
	}

	plaintext, err := crypto.Open(sealed, key)
	if err != nil {
		// Sealed under another key, e.g. after a key rotation.
		return values, nil
	}
	defer crypto.Zeroize(plaintext)

	if err := json.Unmarshal(plaintext, &values); err != nil {
		return make(map[string]string), nil
	}
	return values, nil
}

func (ss *SessionFileStorage) save(ctx context.Context, values map[string]string) error {
	key, err := ss.sealingKey(ctx)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal session data: %v", ErrStorageFailure, err)
	}
	defer crypto.Zeroize(plaintext)

	sealed, err := crypto.Seal(plaintext, key)
	if err != nil {
		return fmt.Errorf("%w: failed to seal session data: %v", ErrStorageFailure, err)
	}

	data, err := json.Marshal(sessionFile{
		Data:      crypto.EncodeBase64(sealed),
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to marshal session file: %v", ErrStorageFailure, err)
	}

	if err := os.MkdirAll(filepath.Dir(ss.path), 0700); err != nil {
		return fmt.Errorf("%w: failed to create session directory: %v", ErrStorageFailure, err)
	}

	if err := os.WriteFile(ss.path, data, SessionFileMode); err != nil {
		return fmt.Errorf("%w: failed to write session file: %v", ErrStorageFailure, err)
	}

	return nil
}

// MachineKeySource derives the sealing key from the user's home directory
// and login name. It only binds the session file to the account that wrote
// it.
type MachineKeySource struct {
	Params crypto.SealParams
}

// NewMachineKeySource creates a MachineKeySource with default parameters.
func NewMachineKeySource() *MachineKeySource {
	return &MachineKeySource{Params: crypto.DefaultSealParams()}
}

// SealingKey implements KeySource.
func (m *MachineKeySource) SealingKey(ctx context.Context) ([]byte, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}

	salt := []byte(fmt.Sprintf("%s:%s:hoverpad", homeDir, username))
	return crypto.DeriveSealingKey([]byte(homeDir+username), salt, m.Params), nil
}

// StaticKeySource returns a fixed key.
type StaticKeySource []byte

// SealingKey implements KeySource.
func (s StaticKeySource) SealingKey(context.Context) ([]byte, error) {
	return s, nil
}
