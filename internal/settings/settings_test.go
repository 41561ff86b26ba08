package settings_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/uirobot/internal/settings"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	s := settings.New()

	assert.Equal(t, 60*time.Millisecond, s.DelayBetweenEvents())
	assert.Equal(t, 100*time.Millisecond, s.EventPostingDelay())
	assert.Equal(t, 10*time.Second, s.IdleTimeout())
	assert.Equal(t, 30*time.Second, s.TimeoutToBeVisible())
	assert.Equal(t, 30*time.Second, s.TimeoutToFindPopup())
	assert.Equal(t, 100*time.Millisecond, s.TimeoutToFindSubMenu())
	assert.Equal(t, settings.ScopeDefault, s.ComponentLookupScope())
	assert.False(t, s.SimpleWaitForIdle())
	assert.True(t, s.ClickOnDisabledComponentsAllowed())
}

func TestSetters_Clamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		set  func(*settings.Settings, int)
		get  func(*settings.Settings) time.Duration
		in   int
		want time.Duration
	}{
		{
			name: "delay between events above max",
			set:  (*settings.Settings).SetDelayBetweenEvents,
			get:  (*settings.Settings).DelayBetweenEvents,
			in:   70000,
			want: 60 * time.Second,
		},
		{
			name: "delay between events negative",
			set:  (*settings.Settings).SetDelayBetweenEvents,
			get:  (*settings.Settings).DelayBetweenEvents,
			in:   -5,
			want: 0,
		},
		{
			name: "event posting delay above max",
			set:  (*settings.Settings).SetEventPostingDelay,
			get:  (*settings.Settings).EventPostingDelay,
			in:   5000,
			want: time.Second,
		},
		{
			name: "event posting delay in range",
			set:  (*settings.Settings).SetEventPostingDelay,
			get:  (*settings.Settings).EventPostingDelay,
			in:   250,
			want: 250 * time.Millisecond,
		},
		{
			name: "idle timeout above max",
			set:  (*settings.Settings).SetIdleTimeout,
			get:  (*settings.Settings).IdleTimeout,
			in:   999999,
			want: 60 * time.Second,
		},
		{
			name: "timeout to find popup negative",
			set:  (*settings.Settings).SetTimeoutToFindPopup,
			get:  (*settings.Settings).TimeoutToFindPopup,
			in:   -1,
			want: 0,
		},
		{
			name: "drag delay in range",
			set:  (*settings.Settings).SetDragDelay,
			get:  (*settings.Settings).DragDelay,
			in:   15,
			want: 15 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := settings.New()
			tt.set(s, tt.in)
			assert.Equal(t, tt.want, tt.get(s))
		})
	}
}

func TestParseLookupScope(t *testing.T) {
	t.Parallel()

	assert.Equal(t, settings.ScopeAll, settings.ParseLookupScope(" ALL "))
	assert.Equal(t, settings.ScopeShowingOnly, settings.ParseLookupScope("showing_only"))
	assert.Equal(t, settings.ScopeDefault, settings.ParseLookupScope("bogus"))
}

func TestSettings_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := settings.New()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)

		go func() {
			defer wg.Done()
			s.SetDelayBetweenEvents(i)
		}()

		go func() {
			defer wg.Done()
			_ = s.DelayBetweenEvents()
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, s.DelayBetweenEvents(), 19*time.Millisecond)
}

func TestLoad_NoFileReturnsDefaults(t *testing.T) {
	s, err := settings.Load("")
	require.NoError(t, err)

	if diff := cmp.Diff(settings.New().Snapshot(), s.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uirobot.yaml")

	content := []byte(`delay_between_events: 0
event_posting_delay: 5000
component_lookup_scope: all
simple_wait_for_idle: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("UIROBOT_IDLE_TIMEOUT", "1500")

	s, err := settings.Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), s.DelayBetweenEvents())
	assert.Equal(t, time.Second, s.EventPostingDelay(), "file values are clamped")
	assert.Equal(t, 1500*time.Millisecond, s.IdleTimeout(), "env overrides defaults")
	assert.Equal(t, settings.ScopeAll, s.ComponentLookupScope())
	assert.True(t, s.SimpleWaitForIdle())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := settings.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, settings.New().Snapshot(), s.Snapshot())
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("idle_timeout: [unterminated"), 0o600))

	_, err := settings.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read settings file")
}
