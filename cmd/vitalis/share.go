package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"vitalis/internal/capture"
	"vitalis/internal/ics"
	"vitalis/internal/model"
	"vitalis/internal/schedule"
	"vitalis/internal/state"
	"vitalis/internal/ui"
	"vitalis/internal/ui/theme"
)

func scheduleCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Show the selected seminars by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			sel := e.sess.State().Selections
			fmt.Fprintln(out, ui.Agenda(schedule.BuildAgenda(sel, e.catalog)))
			if pairs := schedule.Conflicts(sel, e.catalog); len(pairs) > 0 {
				fmt.Fprintln(out, theme.Danger.Render(fmt.Sprintf("%d overlapping pair(s)", len(pairs))))
				for _, p := range pairs {
					fmt.Fprintf(out, "  #%s (%s) and #%s (%s)\n", p.A, p.SlotA, p.B, p.SlotB)
				}
			}
			return nil
		},
	}
}

func shareCmd(flags *globalFlags) *cobra.Command {
	var tokenOnly bool

	cmd := &cobra.Command{
		Use:   "share",
		Short: "Print a link that opens the current state in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			token, err := e.sess.Token()
			if err != nil {
				return err
			}
			if tokenOnly {
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), state.ShareURL(e.cfg.BaseURL, token))
			return nil
		},
	}
	cmd.Flags().BoolVar(&tokenOnly, "token", false, "Print only the encoded state")
	return cmd
}

func openCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "open <link|token>",
		Short: "Load the state carried by a share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			st, ok := state.Decode(state.TokenFromLink(args[0]))
			if !ok {
				return errors.New("not a valid share link or token")
			}
			if st.Day == nil {
				if days := schedule.Days(e.catalog.Seminars()); len(days) > 0 {
					st = st.WithDay(days[0].Key)
				}
			}
			e.sess.Adopt(cmd.Context(), st)
			printView(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var output, name string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the selected seminars as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			token, err := e.sess.Token()
			if err != nil {
				return err
			}
			data, err := ics.ExportSchedule(e.sess.State().Selections, e.catalog, ics.ExportOptions{
				Name:     name,
				ShareURL: state.ShareURL(e.cfg.BaseURL, token),
			})
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := writeFile(output, data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), theme.Muted.Render("wrote "+output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&name, "name", "Vitalis", "Calendar name")
	return cmd
}

func importCmd(flags *globalFlags) *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <file.ics>",
		Short: "Replace the selections with those of an exported calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			imported, err := ics.ReadSchedule(data, e.catalog)
			if err != nil {
				return err
			}

			next := model.Selections{}
			if merge {
				next = e.sess.State().Selections
			}
			skipped := 0
			for slot, id := range imported {
				if _, ok := e.catalog.Lookup(id); !ok {
					skipped++
					continue
				}
				next[slot] = id
			}
			e.sess.ReplaceSelections(cmd.Context(), next)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d seminar(s)", len(imported)-skipped)
			if skipped > 0 {
				fmt.Fprintf(out, ", %d not in catalog", skipped)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, ui.Agenda(schedule.BuildAgenda(next, e.catalog)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "Keep current selections for slots the file does not cover")
	return cmd
}

func snapshotCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture the current state as a PNG via headless Chromium",
		Long: "Renders the state through a running 'vitalis serve' at base_url and\n" +
			"writes a full-page screenshot. Requires a Chromium or Chrome binary.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close()

			token, err := e.sess.Token()
			if err != nil {
				return err
			}
			if output == "" {
				output = filepath.Join("var", "snapshot-"+time.Now().Format("20060102-150405")+".png")
			}
			opts := capture.CaptureOptions{
				BaseURL:    e.cfg.BaseURL,
				Token:      token,
				OutputPath: output,
				Width:      e.cfg.Capture.Width,
				Height:     e.cfg.Capture.Height,
				Timeout:    time.Duration(e.cfg.Capture.TimeoutSec) * time.Second,
			}
			if e.cfg.BasicAuth != nil {
				opts.Username = e.cfg.BasicAuth.Username
				opts.Password = e.cfg.BasicAuth.Password
			}
			if err := capture.CapturePNG(cmd.Context(), opts); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG path (default var/snapshot-<time>.png)")
	return cmd
}

// writeFile writes data next to path and renames it into place.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".vitalis-export-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
