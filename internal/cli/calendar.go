package cli

import (
	"fmt"
	"time"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
	"github.com/spf13/cobra"
)

var calCmd = &cobra.Command{
	Use:     "cal",
	Aliases: []string{"calendar"},
	Short:   "Manage calendar events and milestones",
}

var calAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Schedule an event or milestone",
	Long: `Schedule a calendar item. Times accept RFC3339, "2006-01-02 15:04" in
local time, or a bare date, which makes the item all-day.

Examples:
  vault cal add "Review" --start "2025-07-04 14:00" --end "2025-07-04 15:00"
  vault cal add "Beta" --start 2025-08-01 --kind milestone`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalAdd,
}

var calListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List calendar items, optionally within a range",
	RunE:    runCalList,
}

var calDeleteCmd = &cobra.Command{
	Use:     "delete [item-id]",
	Aliases: []string{"rm"},
	Short:   "Remove a calendar item",
	Args:    cobra.ExactArgs(1),
	RunE:    runCalDelete,
}

var (
	calStart       string
	calEnd         string
	calAllDay      bool
	calKind        string
	calTask        string
	calDescription string
	calFrom        string
	calTo          string
)

func init() {
	calAddCmd.Flags().StringVar(&calStart, "start", "", "Start time (defaults to now)")
	calAddCmd.Flags().StringVar(&calEnd, "end", "", "End time (defaults to the start)")
	calAddCmd.Flags().BoolVar(&calAllDay, "all-day", false, "All-day item")
	calAddCmd.Flags().StringVar(&calKind, "kind", "", "Kind (event, milestone, task_due)")
	calAddCmd.Flags().StringVar(&calTask, "task", "", "Task id the item belongs to")
	calAddCmd.Flags().StringVarP(&calDescription, "description", "d", "", "Description")
	calListCmd.Flags().StringVar(&calFrom, "from", "", "Only items ending at or after this time")
	calListCmd.Flags().StringVar(&calTo, "to", "", "Only items starting before this time")

	calCmd.AddCommand(calAddCmd)
	calCmd.AddCommand(calListCmd)
	calCmd.AddCommand(calDeleteCmd)
}

// parseWhen reads s as RFC3339, a local minute, or a local date. The
// bool reports a bare date.
func parseWhen(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid time %q", s)
}

func runCalAdd(cmd *cobra.Command, args []string) error {
	c := model.CalendarItem{
		Title:       argOrEmpty(args),
		Description: calDescription,
		AllDay:      calAllDay,
		Kind:        model.CalendarKind(calKind),
	}
	if calStart != "" {
		t, dateOnly, err := parseWhen(calStart)
		if err != nil {
			return err
		}
		c.Start = t
		c.AllDay = c.AllDay || dateOnly
	}
	if calEnd != "" {
		t, _, err := parseWhen(calEnd)
		if err != nil {
			return err
		}
		c.End = t
	} else {
		c.End = c.Start
	}

	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.project(cmd.Context(), "")
	if err != nil {
		return err
	}
	c.ProjectID = p.ID
	if calTask != "" {
		t, err := v.task(cmd.Context(), calTask)
		if err != nil {
			return err
		}
		c.TaskID = t.ID
	}

	created, err := v.store.CreateCalendarItem(cmd.Context(), c)
	if err != nil {
		return fmt.Errorf("failed to schedule item: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "📅 Scheduled %s: %s on %s (%s)\n",
		created.Kind, created.Title, created.Start.Local().Format("2006-01-02 15:04"), shortID(created.ID))
	return nil
}

func runCalList(cmd *cobra.Command, args []string) error {
	var f store.CalendarFilter
	if calFrom != "" {
		t, _, err := parseWhen(calFrom)
		if err != nil {
			return err
		}
		f.From = t
	}
	if calTo != "" {
		t, _, err := parseWhen(calTo)
		if err != nil {
			return err
		}
		f.To = t
	}

	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.optionalProject(cmd.Context())
	if err != nil {
		return err
	}
	f.ProjectID = p.ID
	items, err := v.store.ListCalendarItems(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("failed to list calendar: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "📭 Nothing scheduled")
		return nil
	}
	for _, c := range items {
		when := c.Start.Local().Format("2006-01-02 15:04")
		if c.AllDay {
			when = c.Start.Local().Format("2006-01-02") + " all day"
		}
		fmt.Fprintf(out, "%-10s  %-20s  %-9s  %s\n", shortID(c.ID), when, c.Kind, c.Title)
	}
	return nil
}

func runCalDelete(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	items, err := v.store.ListCalendarItems(cmd.Context(), store.CalendarFilter{})
	if err != nil {
		return err
	}
	i, err := matchID(args[0], len(items), func(i int) string { return items[i].ID })
	if err != nil {
		return fmt.Errorf("calendar item %q: %w", args[0], err)
	}
	if err := v.store.DeleteCalendarItem(cmd.Context(), items[i].ID); err != nil {
		return fmt.Errorf("failed to delete calendar item: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removed: %s\n", items[i].Title)
	return nil
}
