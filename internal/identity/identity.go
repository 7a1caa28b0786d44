// Package identity persists the client's (id, nickname) pair and its
// signed token between chatctl runs.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"openchat/internal/transcript"
)

var ErrNoIdentity = errors.New("no identity saved; run register or login first")

type Record struct {
	ID        string    `yaml:"id"`
	Nickname  string    `yaml:"nickname"`
	Token     string    `yaml:"token,omitempty"`
	ExpiresAt time.Time `yaml:"expires_at,omitempty"`
}

func (r Record) Identity() transcript.Identity {
	return transcript.Identity{ID: r.ID, Nickname: r.Nickname}
}

// Expired reports whether the token is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return r.Token != "" && !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, err
	}

	var r Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if !r.Identity().Valid() {
		return nil, ErrNoIdentity
	}
	return &r, nil
}

// Save writes the record with owner-only permissions.
func (s *Store) Save(r Record) error {
	if !r.Identity().Valid() {
		return errors.New("identity needs both id and nickname")
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// DisplayHandle is the two-letter badge shown next to a nickname.
func DisplayHandle(nickname string) string {
	var out []rune
	for _, r := range strings.TrimSpace(nickname) {
		if unicode.IsSpace(r) {
			continue
		}
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// ShortCode is the first segment of the id, upper-cased, for sharing a
// login with another device.
func ShortCode(id string) string {
	code, _, _ := strings.Cut(id, "-")
	return strings.ToUpper(code)
}
