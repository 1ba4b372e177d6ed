package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL      = "http://localhost:8080"
	sessionFileName    = ".todo_session"
	sessionFileEnvName = "TODO_SESSION_FILE"
)

// ErrNotLoggedIn is returned when no session cookie has been saved.
var ErrNotLoggedIn = errors.New("not logged in; run `todo login` first")

// APIURL returns the base URL for the todo API.
// It can be overridden with the TODO_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("TODO_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

// SessionPath is ~/.todo_session unless TODO_SESSION_FILE is set.
func SessionPath() string {
	if v := os.Getenv(sessionFileEnvName); v != "" {
		return v
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, sessionFileName)
}

// SaveSession stores the session cookie as "name=value".
func SaveSession(cookie string) error {
	return os.WriteFile(SessionPath(), []byte(cookie), 0600)
}

func LoadSession() (string, error) {
	data, err := os.ReadFile(SessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	cookie := strings.TrimSpace(string(data))
	if cookie == "" {
		return "", ErrNotLoggedIn
	}
	return cookie, nil
}

// ClearSession removes the saved cookie. It reports whether one existed.
func ClearSession() (bool, error) {
	err := os.Remove(SessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
