// Package settings is a key/value configuration store fed from ini-style or
// YAML files.
//
// Ini-style files hold `key = value` lines parsed by godotenv; `[section]`
// headers prefix the keys below them with "section.", and lines starting
// with ';' are comments. YAML files are flattened into dotted keys.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store is a concurrency-safe string key/value store.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{values: map[string]string{}}
}

// Source merges the settings in path into the store; later sources win.
// A missing file leaves the store untouched and returns fs.ErrNotExist.
func (s *Store) Source(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("settings source %s: %w", path, fs.ErrNotExist)
		}
		return fmt.Errorf("read settings %s: %w", path, err)
	}

	var parsed map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parsed, err = parseYAML(raw)
	default:
		parsed, err = parseINI(raw)
	}
	if err != nil {
		return fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.SetMany(parsed)
	return nil
}

// Get returns the value for key, or def when unset.
func (s *Store) Get(key, def string) string {
	if v, ok := s.Lookup(key); ok {
		return v
	}
	return def
}

// Lookup returns the value for key and whether it is set.
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// SetMany merges values into the store.
func (s *Store) SetMany(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
}

// Reset drops every setting.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Int returns key parsed as an integer, or def when unset or malformed.
func (s *Store) Int(key string, def int) int {
	if v, ok := s.Lookup(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

// Bool returns key parsed as a boolean. Besides strconv forms it accepts
// the ini spellings on/off and yes/no.
func (s *Store) Bool(key string, def bool) bool {
	v, ok := s.Lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes":
		return true
	case "off", "no", "none", "":
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// Duration returns key as a duration. Bare integers are seconds.
func (s *Store) Duration(key string, def time.Duration) time.Duration {
	v, ok := s.Lookup(key)
	if !ok {
		return def
	}
	return ParseDuration(v, def)
}

const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

// ParseDuration parses v as a Go duration or a whole number of seconds.
// A number of seconds too large for a time.Duration yields def.
func ParseDuration(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		if secs > maxDurationSeconds || secs < -maxDurationSeconds {
			return def
		}
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func parseINI(raw []byte) (map[string]string, error) {
	out := map[string]string{}
	section := ""
	var chunk bytes.Buffer

	flush := func() error {
		if chunk.Len() == 0 {
			return nil
		}
		values, err := godotenv.Unmarshal(chunk.String())
		if err != nil {
			return err
		}
		for k, v := range values {
			if section != "" {
				k = section + "." + k
			}
			out[k] = v
		}
		chunk.Reset()
		return nil
	}

	for _, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, ";"):
			continue
		case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
			if err := flush(); err != nil {
				return nil, err
			}
			section = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			continue
		}
		chunk.WriteString(strings.TrimRight(line, "\r"))
		chunk.WriteByte('\n')
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseYAML(raw []byte) (map[string]string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := map[string]string{}
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
