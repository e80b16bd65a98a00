package account

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
	"crypto/sha256"
)

// saltSize and the PBKDF2 parameters below are sized conservatively; this
// store is not a password manager, it only keeps refresh tokens off disk in
// plaintext for the common "laptop with a synced dotfiles directory" threat
// model spec §3 describes as "encrypted-at-rest".
const (
	saltSize        = 16
	pbkdf2Iterations = 100_000
)

// Store persists one pool's accounts to a single encrypted JSON file with a
// salt stored alongside it, and guarantees atomic read-all/write-all
// semantics (spec §3, §4.1).
type Store struct {
	mu       sync.Mutex
	path     string
	saltPath string
	passphrase string
}

// NewStore opens (without yet reading) the account file at path, using
// passphrase to derive the AEAD key. The salt file lives next to path with a
// ".salt" suffix and is created on first Save if absent.
func NewStore(path, passphrase string) *Store {
	return &Store{
		path:       path,
		saltPath:   path + ".salt",
		passphrase: passphrase,
	}
}

// Path returns the store's backing file path, for the watcher to key its
// per-file reload map on.
func (s *Store) Path() string { return s.path }

// Load reads and decrypts all accounts from disk. A missing file is treated
// as an empty store, matching the teacher's tolerant startup behavior.
func (s *Store) Load() ([]*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ciphertext, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("account store: read: %w", err)
	}
	salt, err := os.ReadFile(s.saltPath)
	if err != nil {
		return nil, fmt.Errorf("account store: read salt: %w", err)
	}

	plaintext, err := decrypt(ciphertext, s.key(salt))
	if err != nil {
		return nil, fmt.Errorf("account store: decrypt: %w", err)
	}

	var accounts []*Account
	if err = json.Unmarshal(plaintext, &accounts); err != nil {
		return nil, fmt.Errorf("account store: unmarshal: %w", err)
	}
	return accounts, nil
}

// Save atomically overwrites the store with the given accounts: it encrypts
// to a temp file in the same directory and renames over the target, so a
// crash mid-write never leaves a truncated or partially-encrypted file.
func (s *Store) Save(accounts []*Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("account store: mkdir: %w", err)
	}

	salt, err := s.ensureSalt()
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("account store: marshal: %w", err)
	}
	ciphertext, err := encrypt(plaintext, s.key(salt))
	if err != nil {
		return fmt.Errorf("account store: encrypt: %w", err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, ciphertext, 0o600); err != nil {
		return fmt.Errorf("account store: write temp: %w", err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("account store: rename: %w", err)
	}
	return nil
}

func (s *Store) ensureSalt() ([]byte, error) {
	if existing, err := os.ReadFile(s.saltPath); err == nil {
		return existing, nil
	}
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("account store: generate salt: %w", err)
	}
	if err := os.WriteFile(s.saltPath, salt, 0o600); err != nil {
		return nil, fmt.Errorf("account store: write salt: %w", err)
	}
	return salt, nil
}

func (s *Store) key(salt []byte) []byte {
	return pbkdf2.Key([]byte(s.passphrase), salt, pbkdf2Iterations, chacha20poly1305.KeySize, sha256.New)
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	return aead.Open(nil, nonce, sealed, nil)
}
