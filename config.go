package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
)

// configSection identifies one [section] or [section "subsection"] block.
type configSection struct {
	name       string
	subsection string
}

// Config is a small in-memory model of an INI-like format. Git's quoted-
// subsection syntax ([remote "origin"]) has no counterpart in
// general-purpose Go INI libraries, so this is hand-rolled — see
// DESIGN.md for the justification entry.
type Config struct {
	order    []configSection
	sections map[configSection]map[string]string
}

func newConfig() *Config {
	return &Config{sections: make(map[configSection]map[string]string)}
}

func (c *Config) section(name, subsection string) map[string]string {
	key := configSection{name, subsection}
	sec, ok := c.sections[key]
	if !ok {
		sec = make(map[string]string)
		c.sections[key] = sec
		c.order = append(c.order, key)
	}
	return sec
}

// Set stores key = value under [name] or [name "subsection"].
func (c *Config) Set(name, subsection, key, value string) {
	c.section(name, subsection)[key] = value
}

// SetBool stores a boolean value using git's literal "true"/"false" spelling.
func (c *Config) SetBool(name, subsection, key string, value bool) {
	c.Set(name, subsection, key, strconv.FormatBool(value))
}

// Get returns the raw string value and whether it was present.
func (c *Config) Get(name, subsection, key string) (string, bool) {
	sec, ok := c.sections[configSection{name, subsection}]
	if !ok {
		return "", false
	}
	v, ok := sec[key]
	return v, ok
}

// GetBool returns the boolean value of key, defaulting to false if absent
// or unparsable.
func (c *Config) GetBool(name, subsection, key string) bool {
	v, ok := c.Get(name, subsection, key)
	if !ok {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// Subsections returns the subsection names that exist for the given
// section name, e.g. Subsections("remote") -> ["origin", "upstream"].
func (c *Config) Subsections(name string) []string {
	var out []string
	for _, key := range c.order {
		if key.name == name && key.subsection != "" {
			out = append(out, key.subsection)
		}
	}
	return out
}

// parseConfig parses the INI-like text format.
func parseConfig(data []byte) (*Config, error) {
	cfg := newConfig()
	cur := configSection{}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inner := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			name, sub := splitSectionHeader(inner)
			cur = configSection{name, sub}
			cfg.section(cur.name, cur.subsection)
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line: %q", line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		cfg.Set(cur.name, cur.subsection, key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitSectionHeader splits `remote "origin"` into ("remote", "origin") or
// `core` into ("core", "").
func splitSectionHeader(inner string) (name, subsection string) {
	quote := strings.IndexByte(inner, '"')
	if quote == -1 {
		return strings.TrimSpace(inner), ""
	}
	name = strings.TrimSpace(inner[:quote])
	rest := inner[quote+1:]
	end := strings.LastIndexByte(rest, '"')
	if end == -1 {
		return name, strings.TrimSpace(rest)
	}
	return name, rest[:end]
}

// readConfigFile reads and parses the config file at path. A missing file
// is treated as an empty config, matching readIndex's tolerance of a
// missing index file.
func readConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newConfig(), nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return parseConfig(data)
}

// writeConfigFile serializes cfg back to path in section order.
func writeConfigFile(path string, cfg *Config) error {
	var sb strings.Builder
	for _, key := range cfg.order {
		if key.subsection == "" {
			fmt.Fprintf(&sb, "[%s]\n", key.name)
		} else {
			fmt.Fprintf(&sb, "[%s %q]\n", key.name, key.subsection)
		}
		sec := cfg.sections[key]
		for k, v := range sec {
			fmt.Fprintf(&sb, "  %s = %s\n", k, v)
		}
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// readConfig reads the repository's config file.
func (r *Repository) readConfig() (*Config, error) {
	return readConfigFile(r.configPath())
}

// writeConfig rewrites the repository's config file as a whole, matching
// the index's "read, mutate in memory, rewrite whole" discipline.
func (r *Repository) writeConfig(cfg *Config) error {
	return writeConfigFile(r.configPath(), cfg)
}

// ConfigBare reports core.bare, defaulting to the Repository's own in-memory
// bareness if the key is absent (e.g. a config file predating this field).
func (r *Repository) ConfigBare() (bool, error) {
	cfg, err := r.readConfig()
	if err != nil {
		return false, err
	}
	if v, ok := cfg.Get("core", "", "bare"); ok {
		b, _ := strconv.ParseBool(v)
		return b, nil
	}
	return r.bare, nil
}

// AddRemote records a remote's URL under [remote "name"], expanding a
// leading "~" the way a shell would for any other local path argument.
func (r *Repository) AddRemote(name, url string) error {
	expanded, err := homedir.Expand(url)
	if err != nil {
		expanded = url
	}

	cfg, err := r.readConfig()
	if err != nil {
		return err
	}
	cfg.Set("remote", name, "url", expanded)
	return r.writeConfig(cfg)
}

// RemoteURL returns the configured URL for remote name.
func (r *Repository) RemoteURL(name string) (string, error) {
	cfg, err := r.readConfig()
	if err != nil {
		return "", err
	}
	url, ok := cfg.Get("remote", name, "url")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRemoteUnknown, name)
	}
	return url, nil
}
