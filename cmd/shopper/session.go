package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/vastra/storefront/internal/apiclient"
)

// sessionFile persists the token pair between invocations
type sessionFile struct {
	path string
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "vastra", "session.json")
}

// load returns the stored tokens. A missing file yields an empty pair.
func (f sessionFile) load() (apiclient.TokenPair, error) {
	var pair apiclient.TokenPair
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return pair, nil
	}
	if err != nil {
		return pair, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, &pair); err != nil {
		return pair, fmt.Errorf("decode session: %w", err)
	}
	return pair, nil
}

// save writes pair, or removes the file when pair holds no refresh token
func (f sessionFile) save(pair apiclient.TokenPair) error {
	if pair.RefreshToken == "" {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// attach loads stored tokens into holder and persists every later change
func (f sessionFile) attach(holder *apiclient.TokenHolder) error {
	pair, err := f.load()
	if err != nil {
		return err
	}
	if pair.RefreshToken != "" {
		holder.Set(pair)
	}
	holder.OnChange(func(pair apiclient.TokenPair) {
		if err := f.save(pair); err != nil {
			log.Warn().Err(err).Str("path", f.path).Msg("Failed to persist session")
		}
	})
	return nil
}
