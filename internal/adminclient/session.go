package adminclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/crestline/estatesite/internal/auth"

	log "github.com/sirupsen/logrus"
)

const (
	keyToken = "adminToken"
	keyUser  = "adminUser"
)

// Session is the persisted login: the bearer token and the profile returned with it.
type Session struct {
	Token string
	User  *auth.Account
}

type SessionStore interface {
	// Get reports ok only when both the token and the profile are present.
	Get() (Session, bool)
	Set(Session) error
	Clear() error
}

func encodeSession(s Session) (map[string]string, error) {
	if s.Token == "" || s.User == nil {
		return nil, errors.New("session needs both a token and a user")
	}
	user, err := json.Marshal(s.User)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}
	return map[string]string{
		keyToken: s.Token,
		keyUser:  string(user),
	}, nil
}

func decodeSession(values map[string]string) (Session, bool) {
	token, user := values[keyToken], values[keyUser]
	if token == "" || user == "" {
		return Session{}, false
	}

	account := &auth.Account{}
	if err := json.Unmarshal([]byte(user), account); err != nil {
		log.Warnf("stored admin user is not valid json: %s", err)
		return Session{}, false
	}
	return Session{Token: token, User: account}, true
}

type MemorySessionStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{values: map[string]string{}}
}

func (m *MemorySessionStore) Get() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decodeSession(m.values)
}

func (m *MemorySessionStore) Set(s Session) error {
	values, err := encodeSession(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = values
	return nil
}

func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}

// FileSessionStore keeps the session as a small JSON object on disk.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// DefaultSessionPath is ~/.config/estatesite/session.json, or the working dir when there is no config dir.
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "estatesite-session.json"
	}
	return filepath.Join(dir, "estatesite", "session.json")
}

func (f *FileSessionStore) Get() (Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warnf("read session file %s: %s", f.path, err)
		}
		return Session{}, false
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		log.Warnf("session file %s is corrupt: %s", f.path, err)
		return Session{}, false
	}
	return decodeSession(values)
}

func (f *FileSessionStore) Set(s Session) error {
	values, err := encodeSession(s)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (f *FileSessionStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
