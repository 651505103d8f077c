// Package featureflags evaluates the FEATURE_FLAGS setting.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Known flags.
const (
	// RealtimeNotifications gates publishing notification events to the
	// websocket stream. Stored notifications are unaffected.
	RealtimeNotifications = "realtime_notifications"
	// ImageWebPVariants gates the WebP copy written next to each uploaded JPEG.
	ImageWebPVariants = "image_webp_variants"
)

// Known lists the flags the application reads, with the value used when
// FEATURE_FLAGS does not mention them.
var Known = map[string]string{
	RealtimeNotifications: "on",
	ImageWebPVariants:     "on",
}

// Manager evaluates feature flags defined in a key=value list such as
// "realtime_notifications=on,image_webp_variants=25%". Values can be
// changed at runtime with Set.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]string
}

// NewManager parses raw on top of the Known defaults. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	out := make(map[string]string, len(Known))
	for k, v := range Known {
		out[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || !validValue(value) {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Set changes a flag value. The value must be on/off/true/false/1/0 or N%.
func (m *Manager) Set(name, value string) error {
	value = normalize(value)
	if !validValue(value) {
		return fmt.Errorf("invalid value %q for flag %q", value, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[normalize(name)] = value
	return nil
}

// Enabled reports whether name is on for userID. A percentage value is a
// deterministic per-user rollout and is off for anonymous callers. A nil
// Manager or an unknown flag is off.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	m.mu.RLock()
	value, ok := m.flags[normalize(name)]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, ok := parsePercent(value)
	switch {
	case !ok || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Names returns the configured flag names, sorted.
func (m *Manager) Names() []string {
	raw := m.Raw()
	names := make([]string, 0, len(raw))
	for k := range raw {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	names := m.Names()
	out := make(map[string]bool, len(names))
	for _, name := range names {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func validValue(v string) bool {
	switch v {
	case "on", "off", "true", "false", "1", "0":
		return true
	}
	_, ok := parsePercent(v)
	return ok
}

func parsePercent(v string) (int, bool) {
	raw, ok := strings.CutSuffix(v, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return pct, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
