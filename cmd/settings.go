package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/uirobot/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the effective settings after file, environment and clamping",
	Args:  cobra.NoArgs,
	RunE:  runSettings,
}

func runSettings(cmd *cobra.Command, _ []string) error {
	cfg := NewConfigFromFlags(cmd)

	s, err := settings.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}

	return printSettings(cmd.OutOrStdout(), s.Snapshot())
}

// printSettings writes snap as aligned key/value lines using the same keys a
// settings file uses.
func printSettings(w io.Writer, snap settings.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	rows := []struct {
		key   string
		value any
	}{
		{"delay_between_events", snap.DelayBetweenEvents},
		{"event_posting_delay", snap.EventPostingDelay},
		{"idle_timeout", snap.IdleTimeout},
		{"timeout_to_be_visible", snap.TimeoutToBeVisible},
		{"timeout_to_find_popup", snap.TimeoutToFindPopup},
		{"timeout_to_find_sub_menu", snap.TimeoutToFindSubMenu},
		{"drag_delay", snap.DragDelay},
		{"drop_delay", snap.DropDelay},
		{"component_lookup_scope", snap.ComponentLookupScope},
		{"simple_wait_for_idle", snap.SimpleWaitForIdle},
		{"click_on_disabled_components_allowed", snap.ClickOnDisabledComponentsAllowed},
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%v\n", row.key, row.value); err != nil {
			return err
		}
	}

	return tw.Flush()
}
