package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"vitalis/internal/model"
	"vitalis/internal/schedule"
	"vitalis/internal/session"
	"vitalis/internal/state"
	"vitalis/internal/ui"
)

// printView writes the status line and the active view.
func printView(w io.Writer, e *env) {
	st := e.sess.State()
	slots := e.sess.Slots()
	fmt.Fprintln(w, ui.Status(st, schedule.CountSeminars(slots)))
	switch st.View {
	case state.ViewCalendar:
		layout := schedule.LayoutCalendar(e.catalog.Seminars(), st.ActiveDay(), st.Filters, st.Query)
		fmt.Fprintln(w, ui.Calendar(layout, st.Selections))
	case state.ViewMySchedule:
		fmt.Fprintln(w, ui.Agenda(schedule.BuildAgenda(st.Selections, e.catalog)))
	default:
		fmt.Fprintln(w, ui.Slots(slots, st.Selections, e.catalog))
	}
}

func daysCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "days",
		Short: "List the conference days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()
			fmt.Fprintln(cmd.OutOrStdout(), ui.Days(schedule.Days(e.catalog.Seminars()), e.sess.State().ActiveDay()))
			return nil
		},
	}
}

func slotsCmd(flags *globalFlags) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List the active day's seminars by time slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			st := e.sess.State()
			key := st.ActiveDay()
			if day != "" {
				if key, err = resolveDay(e.catalog, day); err != nil {
					return err
				}
			}
			slots := schedule.GroupByTimeSlot(e.catalog.Seminars(), key, st.Filters, st.Query)
			fmt.Fprintln(cmd.OutOrStdout(), ui.Status(st.WithDay(key), schedule.CountSeminars(slots)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.Slots(slots, st.Selections, e.catalog))
			return nil
		},
	}
	cmd.Flags().StringVarP(&day, "day", "d", "", "Show this day instead of the active one")
	return cmd
}

func selectCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Select a seminar, or deselect it if already chosen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			id := model.ID(strings.TrimPrefix(args[0], "#"))
			sem, ok := e.catalog.Lookup(id)
			if !ok {
				return fmt.Errorf("unknown seminar %q", args[0])
			}
			slot, ok := schedule.OwnSlot(sem)
			if !ok {
				return fmt.Errorf("seminar %s has no time slot", id)
			}

			v, err := e.sess.TryToggle(cmd.Context(), slot, id, force)
			if errors.Is(err, session.ErrConflict) || errors.Is(err, session.ErrDisplaced) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Verdict(sem, v, false))
				return fmt.Errorf("%w (use --force to select anyway)", err)
			}
			if err != nil {
				return err
			}
			selected := e.sess.State().Selections[slot] == id
			if !selected {
				// Overlaps do not matter once it is gone.
				v = schedule.Verdict{}
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Verdict(sem, v, selected))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Select even if it overlaps another selection")
	return cmd
}

func filterCmd(flags *globalFlags) *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "filter [facet value]",
		Short: "Toggle a facet filter, or list the facets",
		Long: "With no arguments, lists every facet with its values. With a facet\n" +
			"(name, metadata key or one-letter code: s, a, m, k) and a value, toggles\n" +
			"that value.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errors.New("expected no arguments or <facet> <value>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			switch {
			case clearAll:
				e.sess.ClearFilters(cmd.Context())
			case len(args) == 2:
				facet, ok := resolveFacet(args[0])
				if !ok {
					return fmt.Errorf("unknown facet %q", args[0])
				}
				e.sess.ToggleFilter(cmd.Context(), facet, args[1])
			default:
				opts := schedule.BuildFacetOptions(e.catalog.Seminars())
				fmt.Fprintln(out, ui.Facets(opts, e.sess.State().Filters))
				return nil
			}
			printView(out, e)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Clear every filter")
	return cmd
}

func searchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query...]",
		Short: "Set the free-text search; no query clears it",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()
			e.sess.SetQuery(cmd.Context(), strings.Join(args, " "))
			printView(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func viewCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "view [list|calendar|mySchedule]",
		Short:     "Show the active view, or switch to another",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(state.ViewList), string(state.ViewCalendar), string(state.ViewMySchedule)},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()
			if len(args) == 1 {
				if err := e.sess.SetView(cmd.Context(), state.View(args[0])); err != nil {
					return err
				}
			}
			printView(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func dayCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "day <day>",
		Short: `Make a day active, by key ("Tisdag 13") or weekday ("tisdag")`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()
			key, err := resolveDay(e.catalog, args[0])
			if err != nil {
				return err
			}
			e.sess.SetDay(cmd.Context(), key)
			printView(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func clearCmd(flags *globalFlags) *cobra.Command {
	var filters bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every selection (or, with --filters, every filter)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()
			if filters {
				e.sess.ClearFilters(cmd.Context())
			} else {
				e.sess.ClearSelections(cmd.Context())
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Status(e.sess.State(), schedule.CountSeminars(e.sess.Slots())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&filters, "filters", false, "Clear filters instead of selections")
	return cmd
}

// resolveDay matches a day key or a weekday name, ignoring case.
func resolveDay(cat *model.Catalog, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	for _, d := range schedule.Days(cat.Seminars()) {
		if strings.EqualFold(d.Key, arg) || strings.EqualFold(d.Name, arg) {
			return d.Key, nil
		}
	}
	return "", fmt.Errorf("unknown day %q (see 'vitalis days')", arg)
}

// resolveFacet accepts a facet name, its metadata key or its state code.
func resolveFacet(arg string) (model.Facet, bool) {
	for _, f := range model.Facets {
		if strings.EqualFold(string(f), arg) || strings.EqualFold(f.MetadataKey(), arg) || f.Code() == arg {
			return f, true
		}
	}
	return "", false
}
