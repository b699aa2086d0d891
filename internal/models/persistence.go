package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveKey is the single key under which the whole session blob is stored.
const SaveKey = "session"

// Store is the persistence capability the session depends on: a string blob
// per key. The second Get result reports presence.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// FileStore keeps each key as a JSON file under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (fs *FileStore) path(key string) string {
	return filepath.Join(fs.Dir, key+".json")
}

func (fs *FileStore) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(fs.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

func (fs *FileStore) Set(key, value string) error {
	if err := os.MkdirAll(fs.Dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(fs.path(key), []byte(value), 0644)
}

// Encode serializes the session as the persisted JSON blob.
func (s *Session) Encode() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeSession parses and validates a persisted session blob. The player
// and world fields must be structurally present; anything else is rejected
// so a corrupt save never replaces a live session.
func DecodeSession(blob string) (*Session, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("unreadable save data: %v", err)
	}
	for _, field := range []string{"player", "world"} {
		msg, ok := raw[field]
		if !ok || string(msg) == "null" {
			return nil, fmt.Errorf("save data is missing %q", field)
		}
	}

	var session Session
	if err := json.Unmarshal([]byte(blob), &session); err != nil {
		return nil, fmt.Errorf("save data does not match the expected shape: %v", err)
	}
	if session.Player == nil {
		return nil, fmt.Errorf("save data is missing %q", "player")
	}
	if session.World == nil {
		session.World = make(map[string]*Tile)
	}
	if session.Logs == nil {
		session.Logs = []LogEntry{}
	}
	session.Generating = false
	return &session, nil
}
