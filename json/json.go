// Package json persists chatter snapshots as versioned JSON documents.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/chatter"
)

const version = 1

// envelope is the v1 wire format for a persisted snapshot.
type envelope struct {
	Version  int          `json:"version"`
	ActiveID string       `json:"active_id"`
	Sessions []sessionDTO `json:"sessions"`
}

type sessionDTO struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Messages  []messageDTO `json:"messages"`
}

type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MarshalSnapshot serializes a Snapshot to JSON in v1 envelope format.
func MarshalSnapshot(s chatter.Snapshot) ([]byte, error) {
	env := envelope{
		Version:  version,
		ActiveID: s.ActiveID,
		Sessions: make([]sessionDTO, len(s.Sessions)),
	}
	for i, sess := range s.Sessions {
		dto := sessionDTO{
			ID:        sess.ID,
			Title:     sess.Title,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
			Messages:  make([]messageDTO, len(sess.Messages)),
		}
		for j, m := range sess.Messages {
			if !m.Role.Valid() {
				return nil, fmt.Errorf("session %d: message %d: unknown role %q", i, j, m.Role)
			}
			dto.Messages[j] = messageDTO{
				ID:        m.ID,
				Role:      string(m.Role),
				Content:   m.Content,
				CreatedAt: m.CreatedAt,
			}
		}
		env.Sessions[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalSnapshot deserializes a Snapshot from JSON in v1 envelope format.
func UnmarshalSnapshot(data []byte) (chatter.Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return chatter.Snapshot{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != version {
		return chatter.Snapshot{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	snap := chatter.Snapshot{
		ActiveID: env.ActiveID,
		Sessions: make([]chatter.Session, len(env.Sessions)),
	}
	for i, dto := range env.Sessions {
		var msgs []chatter.Message
		if len(dto.Messages) > 0 {
			msgs = make([]chatter.Message, len(dto.Messages))
		}
		for j, m := range dto.Messages {
			role := chatter.Role(m.Role)
			if !role.Valid() {
				return chatter.Snapshot{}, fmt.Errorf("session %d: message %d: unknown role %q", i, j, m.Role)
			}
			msgs[j] = chatter.Message{
				ID:        m.ID,
				Role:      role,
				Content:   m.Content,
				CreatedAt: m.CreatedAt,
			}
		}
		snap.Sessions[i] = chatter.Session{
			ID:        dto.ID,
			Title:     dto.Title,
			CreatedAt: dto.CreatedAt,
			UpdatedAt: dto.UpdatedAt,
			Messages:  msgs,
		}
	}
	return snap, nil
}

// File is a Persister that keeps the snapshot in a single JSON file.
type File struct {
	Path string
}

var _ chatter.Persister = (*File)(nil)

// Save writes the snapshot, creating parent directories as needed. The file
// is replaced atomically so a crash never leaves a partial document.
func (f *File) Save(s chatter.Snapshot) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads the snapshot. A missing file yields chatter.ErrNoSnapshot.
func (f *File) Load() (chatter.Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return chatter.Snapshot{}, fmt.Errorf("%s: %w", f.Path, chatter.ErrNoSnapshot)
	}
	if err != nil {
		return chatter.Snapshot{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalSnapshot(data)
}
