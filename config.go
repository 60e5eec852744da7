package dax

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Config stores configuration values keyed by hierarchical property names
// like "database.dsn". It is safe for concurrent reads.
type Config struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfig constructs an empty property store.
func NewConfig() *Config {
	return &Config{values: make(map[string]any)}
}

// Set persists a value under the provided property path.
func (p *Config) Set(path string, value any) {
	p.mu.Lock()
	p.values[normalise(path)] = value
	p.mu.Unlock()
}

// MergeFlat stores a batch of already flattened properties.
func (p *Config) MergeFlat(values map[string]any) {
	if len(values) == 0 {
		return
	}
	p.mu.Lock()
	for k, v := range values {
		p.values[normalise(k)] = v
	}
	p.mu.Unlock()
}

// MergeNested accepts nested maps (like those decoded from YAML) and flattens
// them into property paths.
func (p *Config) MergeNested(values map[string]any) {
	flattenInto(p, "", values)
}

// MergeYAML unmarshals the provided YAML payload and merges it in.
func (p *Config) MergeYAML(data []byte) error {
	var raw map[string]any
	if err := yamlv3.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.MergeNested(raw)
	return nil
}

// MergeYAMLFile reads a YAML file from disk and merges it in.
func (p *Config) MergeYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return p.MergeYAML(data)
}

// Get retrieves a raw value by property path.
func (p *Config) Get(path string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[normalise(path)]
	return v, ok
}

// GetString retrieves the value as a string.
func (p *Config) GetString(path string) (string, bool) {
	raw, ok := p.Get(path)
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	case []byte:
		return string(v), true
	default:
		return fmt.Sprintf("%v", raw), true
	}
}

// GetInt retrieves the value as an int.
func (p *Config) GetInt(path string) (int, bool, error) {
	raw, ok := p.Get(path)
	if !ok {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case uint64:
		return int(v), true, nil
	case float64:
		return int(v), true, nil
	case string:
		parsed, err := strconv.Atoi(v)
		return parsed, true, err
	default:
		return 0, true, fmt.Errorf("config: cannot convert %T to int", raw)
	}
}

// GetBool retrieves the value as a bool.
func (p *Config) GetBool(path string) (bool, bool, error) {
	raw, ok := p.Get(path)
	if !ok {
		return false, false, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, true, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return parsed, true, err
	case int:
		return v != 0, true, nil
	case int64:
		return v != 0, true, nil
	case float64:
		return v != 0, true, nil
	default:
		return false, true, fmt.Errorf("config: cannot convert %T to bool", raw)
	}
}

// GetFloat64 retrieves the value as a float64.
func (p *Config) GetFloat64(path string) (float64, bool, error) {
	raw, ok := p.Get(path)
	if !ok {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, true, nil
	case float32:
		return float64(v), true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case uint64:
		return float64(v), true, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return parsed, true, err
	default:
		return 0, true, fmt.Errorf("config: cannot convert %T to float64", raw)
	}
}

// GetStringSlice retrieves the value as a slice of strings. String values are
// split on commas.
func (p *Config) GetStringSlice(path string) ([]string, bool) {
	raw, ok := p.Get(path)
	if !ok {
		return nil, false
	}
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = fmt.Sprintf("%v", item)
		}
		return out, true
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, true
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			out = append(out, strings.TrimSpace(part))
		}
		return out, true
	default:
		return []string{fmt.Sprintf("%v", raw)}, true
	}
}

// GetDuration retrieves the value as a time.Duration.
func (p *Config) GetDuration(path string) (time.Duration, bool, error) {
	raw, ok := p.Get(path)
	if !ok {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case time.Duration:
		return v, true, nil
	case string:
		d, err := time.ParseDuration(v)
		return d, true, err
	case int64:
		return time.Duration(v), true, nil
	default:
		return 0, true, fmt.Errorf("config: cannot convert %T to duration", raw)
	}
}

// GetStringOrDef retrieves the value as a string or returns def when not found.
func (p *Config) GetStringOrDef(path string, def string) string {
	if v, ok := p.GetString(path); ok {
		return v
	}
	return def
}

// GetIntOrDef retrieves the value as an int or returns def when not found or
// on conversion error.
func (p *Config) GetIntOrDef(path string, def int) int {
	if v, ok, err := p.GetInt(path); ok && err == nil {
		return v
	}
	return def
}

// GetBoolOrDef retrieves the value as a bool or returns def when not found or
// on conversion error.
func (p *Config) GetBoolOrDef(path string, def bool) bool {
	if v, ok, err := p.GetBool(path); ok && err == nil {
		return v
	}
	return def
}

// GetDurationOrDef retrieves the value as a time.Duration or returns def when
// not found or on conversion error.
func (p *Config) GetDurationOrDef(path string, def time.Duration) time.Duration {
	if v, ok, err := p.GetDuration(path); ok && err == nil {
		return v
	}
	return def
}

// GetFloat64OrDef retrieves the value as a float64 or returns def when not
// found or on conversion error.
func (p *Config) GetFloat64OrDef(path string, def float64) float64 {
	if v, ok, err := p.GetFloat64(path); ok && err == nil {
		return v
	}
	return def
}

// GetStringSliceOrDef retrieves the value as a string slice or returns def
// when not found.
func (p *Config) GetStringSliceOrDef(path string, def []string) []string {
	if v, ok := p.GetStringSlice(path); ok {
		return v
	}
	return def
}

// GetBoolOrTrue retrieves the value as a bool, defaulting to true.
func (p *Config) GetBoolOrTrue(path string) bool {
	return p.GetBoolOrDef(path, true)
}

// GetBoolOrFalse retrieves the value as a bool, defaulting to false.
func (p *Config) GetBoolOrFalse(path string) bool {
	return p.GetBoolOrDef(path, false)
}

// Clone returns an independent copy of the store.
func (p *Config) Clone() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	clone := NewConfig()
	for k, v := range p.values {
		clone.values[k] = v
	}
	return clone
}

// GetPort retrieves a port configuration and normalizes it, applying a
// default when not found. The default may be ":8080" or "8080".
func (p *Config) GetPort(path string, defaultPort string) string {
	port, _ := p.GetString(path)
	return NormalizePort(port, defaultPort)
}

// Unmarshal decodes the stored properties into the provided target struct
// using the "koanf" tag for field mapping. When path is non-empty, only that
// subtree is decoded.
func (p *Config) Unmarshal(path string, target any) error {
	if target == nil {
		return fmt.Errorf("config: nil target")
	}
	nested := p.snapshot()
	if path != "" {
		var ok bool
		nested, ok = walkNested(nested, path)
		if !ok {
			nested = map[string]any{}
		}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "koanf",
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("config: decoder: %w", err)
	}
	if err := decoder.Decode(nested); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}

func (p *Config) snapshot() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	root := make(map[string]any)
	for key, value := range p.values {
		assignNested(root, strings.Split(key, "."), value)
	}
	return root
}

func assignNested(root map[string]any, parts []string, value any) {
	if len(parts) == 0 {
		return
	}
	head := parts[0]
	if len(parts) == 1 {
		root[head] = value
		return
	}
	next, ok := root[head].(map[string]any)
	if !ok {
		next = make(map[string]any)
		root[head] = next
	}
	assignNested(next, parts[1:], value)
}

func walkNested(root map[string]any, path string) (map[string]any, bool) {
	current := root
	for _, segment := range strings.Split(strings.Trim(path, "."), ".") {
		next, ok := current[segment]
		if !ok {
			return map[string]any{}, false
		}
		asMap, ok := next.(map[string]any)
		if !ok {
			return map[string]any{}, false
		}
		current = asMap
	}
	return current, true
}

func flattenInto(p *Config, prefix string, values map[string]any) {
	for k, v := range values {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch nested := v.(type) {
		case map[string]any:
			flattenInto(p, path, nested)
		default:
			p.Set(path, nested)
		}
	}
}

func normalise(path string) string {
	segments := strings.Split(path, ".")
	for i := range segments {
		segments[i] = strings.ToLower(strings.TrimSpace(segments[i]))
	}
	return strings.Join(segments, ".")
}
