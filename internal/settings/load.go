package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. UIROBOT_IDLE_TIMEOUT.
const EnvPrefix = "UIROBOT"

// Load builds Settings from defaults, an optional config file and UIROBOT_*
// environment variables, in increasing order of precedence. An empty path or a
// missing file skips the file. Out-of-range values are clamped, not rejected.
func Load(path string) (*Settings, error) {
	v := viper.New()

	setDefaults(v, New().Snapshot())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" && fileExists(path) {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
	}

	var snap Snapshot
	if err := v.Unmarshal(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	s := New()
	s.Apply(snap)

	return s, nil
}

// AutomaticEnv only resolves keys viper already knows about, so every key gets a default.
func setDefaults(v *viper.Viper, snap Snapshot) {
	v.SetDefault("delay_between_events", snap.DelayBetweenEvents)
	v.SetDefault("event_posting_delay", snap.EventPostingDelay)
	v.SetDefault("idle_timeout", snap.IdleTimeout)
	v.SetDefault("timeout_to_be_visible", snap.TimeoutToBeVisible)
	v.SetDefault("timeout_to_find_popup", snap.TimeoutToFindPopup)
	v.SetDefault("timeout_to_find_sub_menu", snap.TimeoutToFindSubMenu)
	v.SetDefault("drag_delay", snap.DragDelay)
	v.SetDefault("drop_delay", snap.DropDelay)
	v.SetDefault("component_lookup_scope", string(snap.ComponentLookupScope))
	v.SetDefault("simple_wait_for_idle", snap.SimpleWaitForIdle)
	v.SetDefault("click_on_disabled_components_allowed", snap.ClickOnDisabledComponentsAllowed)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
