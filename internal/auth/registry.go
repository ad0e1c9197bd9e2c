// Package auth covers the users.json registry, browser sessions and API tokens.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/shrimpsizemoose/trekker/logger"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulverlogic/newsboard/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownUser        = errors.New("unknown user")
)

// Registry holds the users.json mapping {username: {password, role}}.
type Registry struct {
	path string

	mu    sync.RWMutex
	users map[string]models.User
}

func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRegistry builds an in-memory registry, used when no file is configured.
func NewRegistry(users map[string]models.User) (*Registry, error) {
	r := &Registry{}
	normalized, err := normalize(users)
	if err != nil {
		return nil, err
	}
	r.users = normalized
	return r, nil
}

func (r *Registry) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("error reading user registry: %w", err)
	}

	var users map[string]models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("error parsing user registry %s: %w", r.path, err)
	}
	normalized, err := normalize(users)
	if err != nil {
		return fmt.Errorf("user registry %s: %w", r.path, err)
	}

	r.mu.Lock()
	r.users = normalized
	r.mu.Unlock()

	logger.Info.Printf("Loaded %d users from %s", len(normalized), r.path)
	return nil
}

func normalize(users map[string]models.User) (map[string]models.User, error) {
	out := make(map[string]models.User, len(users))
	for name, u := range users {
		u.Username = name
		if err := u.Validate(); err != nil {
			return nil, fmt.Errorf("user %s: %w", name, err)
		}
		out[name] = u
	}
	return out, nil
}

// Authenticate accepts either the plaintext password stored in the
// registry or a password matching a stored bcrypt hash.
func (r *Registry) Authenticate(username, password string) (models.User, error) {
	u, ok := r.Lookup(username)
	if !ok || !passwordMatches(u.Password, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func passwordMatches(stored, given string) bool {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (r *Registry) Lookup(username string) (models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	return u, ok
}

// Scholars lists student usernames in alphabetical order.
func (r *Registry) Scholars() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, u := range r.users {
		if u.Role == models.RoleStudent {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Watch reloads the registry whenever the file is written or replaced,
// until ctx is done. A bad edit is logged and the previous users stay.
func (r *Registry) Watch(ctx context.Context) error {
	if r.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// watch the directory: editors replace the file rather than write it in place
	if err := w.Add(filepath.Dir(r.path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", r.path, err)
	}

	target := filepath.Clean(r.path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				if err := r.Reload(); err != nil {
					logger.Error.Printf("Keeping previous users: %v", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error.Printf("User registry watcher: %v", err)
			}
		}
	}()
	return nil
}
