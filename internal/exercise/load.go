package exercise

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Load resolves the definition of kind from <dir>/<kind>.json, decoded over
// the built-in defaults. A missing file, a malformed one or one that does not
// validate falls back to the defaults; only an unknown kind is an error.
// An empty dir always yields the defaults.
func Load(dir string, kind Kind) (*Definition, error) {
	defaults, err := Default(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, kind)
	}

	builtin := func() (*Definition, error) {
		// a failed decode may have written into defaults
		fresh, _ := Default(kind)
		def, err := Resolve(kind, fresh)
		if err != nil {
			// the defaults are expected to always resolve
			return nil, fmt.Errorf("resolve builtin %s: %w", kind, err)
		}
		return def, nil
	}

	if dir == "" {
		return builtin()
	}

	path := filepath.Join(dir, string(kind)+".json")
	cfg, err := readConfig(path, defaults)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debugf("exercise %s: no config at %s, using defaults", kind, path)
		} else {
			log.Errorf("exercise %s: read config %s: %s, using defaults", kind, path, err)
		}
		return builtin()
	}

	def, err := Resolve(kind, cfg)
	if err != nil {
		log.Errorf("exercise %s: invalid config %s: %s, using defaults", kind, path, err)
		return builtin()
	}
	def.Source = path

	log.Infof("exercise %s: loaded config %s (%d rules, fsm: %t)", kind, path, len(def.Rules), def.FSM != nil)
	return def, nil
}

// LoadAll loads every known exercise.
func LoadAll(dir string) (map[Kind]*Definition, error) {
	defs := make(map[Kind]*Definition, len(Kinds()))
	for _, k := range Kinds() {
		def, err := Load(dir, k)
		if err != nil {
			return nil, err
		}
		defs[k] = def
	}
	return defs, nil
}

func readConfig(path string, defaults Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults
	// rules are replaced as a whole, decoding into the default slice would
	// mix fields of unrelated rules
	cfg.Rules = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	if cfg.Rules == nil {
		cfg.Rules = defaults.Rules
	}
	return cfg, nil
}
