package client

import (
	"encoding/json"
	"os"
	"sync"
)

// MemoryCredentials keeps the session in process memory only.
type MemoryCredentials struct {
	mu    sync.RWMutex
	token string
	user  *User
}

// NewMemoryCredentials returns an empty in-memory store.
func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{}
}

func (s *MemoryCredentials) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the stored account, if any.
func (s *MemoryCredentials) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *MemoryCredentials) Save(token string, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	return nil
}

func (s *MemoryCredentials) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}

// FileCredentials persists the session as JSON at a fixed path so it
// survives restarts.
type FileCredentials struct {
	mu   sync.Mutex
	path string
}

type storedSession struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// NewFileCredentials returns a store backed by the given file.
func NewFileCredentials(path string) *FileCredentials {
	return &FileCredentials{path: path}
}

func (s *FileCredentials) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.load()
	if err != nil {
		return ""
	}
	return session.Token
}

// User returns the stored account, if any.
func (s *FileCredentials) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.load()
	if err != nil {
		return nil
	}
	return session.User
}

func (s *FileCredentials) Save(token string, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(storedSession{Token: token, User: user})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileCredentials) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileCredentials) load() (*storedSession, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &storedSession{}, err
	}
	var session storedSession
	if err := json.Unmarshal(data, &session); err != nil {
		return &storedSession{}, err
	}
	return &session, nil
}
