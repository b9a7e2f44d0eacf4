// Package dotdir locates the .advisor/ directory that holds config.toml and
// credentials.toml.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the name of the advisor directory.
const DirName = ".advisor"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Find returns the directory that would be used without creating it.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.advisor/ dir, when it exists
//  3. Home ~/.advisor/ dir
func (m *Manager) Find(overrideDir string) (string, error) {
	if overrideDir != "" {
		return filepath.Abs(overrideDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if info, err := os.Stat(filepath.Join(cwd, DirName)); err == nil && info.IsDir() {
		return filepath.Join(cwd, DirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Target resolves the directory like Find and creates it when missing.
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.Find(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating advisor directory %s: %w", dir, err)
	}
	return dir, nil
}

// File returns the path of name inside the target directory.
func (m *Manager) File(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
