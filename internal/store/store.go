// Package store persists launcher data between runs: signed-in accounts
// and registered Java runtimes.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/synthlab/launcher/internal/auth"
	"github.com/synthlab/launcher/internal/jvm"
)

// Data is everything the launcher remembers between runs. It is loaded
// once at startup and committed after every mutation so a crash never
// loses more than the in-flight change.
type Data struct {
	Accounts []auth.Account `json:"accounts"`
	JVMs     []jvm.JVM      `json:"jvms"`
}

// DefaultData returns a fresh store with the system JVM preregistered.
func DefaultData() *Data {
	return &Data{JVMs: []jvm.JVM{jvm.System()}}
}

// Load reads launcher data from a JSON file.
//
// A missing file is not an error; default data is returned so first
// runs work without any state. A store written before the system JVM
// was preregistered gets it restored at index 0.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultData(), nil
		}
		return nil, err
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if len(data.JVMs) == 0 {
		data.JVMs = []jvm.JVM{jvm.System()}
	}

	return &data, nil
}

// Save writes launcher data to a JSON file.
func (d *Data) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, raw, 0644)
}
