package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/client/client"
	"github.com/dmitrijs2005/facelock/internal/client/repositories/cursors"
	"github.com/spf13/cobra"
)

var errNoStateDB = errors.New("no local state database configured (use --state-db)")

// openState returns nil when no state database is configured.
func (a *App) openState(ctx context.Context) (*client.LocalState, error) {
	if a.config.StateDB == "" {
		return nil, nil
	}
	return client.OpenLocalState(ctx, a.config.StateDB)
}

func (a *App) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream item state changes and intrusion alerts until interrupted",
		Long: `Stream item state changes and intrusion alerts until interrupted.

With --state-db the last sequence number seen per item is remembered, and a
notice is printed when updates were missed between runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openState(ctx)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			c, err := a.connect()
			if err != nil {
				return err
			}

			return c.Watch(ctx, func(ev *api.Event) error {
				if st != nil && ev.ItemStateChanged != nil {
					if err := trackSeq(ctx, cmd.ErrOrStderr(), st.Cursors, ev.ItemStateChanged); err != nil {
						return err
					}
				}
				return a.output(cmd, ev, func() { printEvent(cmd.OutOrStdout(), ev) })
			})
		},
	}
}

// trackSeq compares e against the stored cursor of its item, reports gaps
// and sequence restarts to w, and stores e as the new cursor.
func trackSeq(ctx context.Context, w io.Writer, repo cursors.Repository, e *api.ItemStateChanged) error {
	prev, err := repo.Get(ctx, e.ItemID)
	if err != nil {
		return err
	}

	if prev != nil {
		switch {
		case e.Seq > prev.Seq+1:
			fmt.Fprintf(w, "notice: missed %d update(s) of item %s (last seen %q)\n", e.Seq-prev.Seq-1, e.ItemID, prev.State)
		case e.Seq <= prev.Seq:
			fmt.Fprintf(w, "notice: sequence of item %s restarted at %d\n", e.ItemID, e.Seq)
		}
	}

	at := time.Now()
	if e.OccurredAt != nil {
		at = e.OccurredAt.AsTime()
	}
	return repo.Save(ctx, cursors.Cursor{ItemID: e.ItemID, Seq: e.Seq, State: e.NewState, UpdatedAt: at})
}

func (a *App) newSeenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seen",
		Short: "List items observed by watch and their last known state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openState(cmd.Context())
			if err != nil {
				return err
			}
			if st == nil {
				return errNoStateDB
			}
			defer st.Close()

			list, err := st.Cursors.List(cmd.Context())
			if err != nil {
				return err
			}

			return a.output(cmd, list, func() {
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No items seen yet")
					return
				}
				for _, c := range list {
					fmt.Fprintf(out, "%s  %-10s seq %-4d %s\n", c.ItemID, c.State, c.Seq, stamp(c.UpdatedAt))
				}
			})
		},
	}
}

func printEvent(out io.Writer, ev *api.Event) {
	switch {
	case ev.ItemStateChanged != nil:
		e := ev.ItemStateChanged
		fmt.Fprintf(out, "[%s] item %s: %s -> %s (attempts used %d, seq %d)\n",
			stamp(e.OccurredAt.AsTime()), e.ItemID, e.Outcome, e.NewState, e.AttemptCount, e.Seq)
	case ev.IntrusionAlert != nil:
		e := ev.IntrusionAlert
		fmt.Fprintf(out, "[%s] ALERT: %s tried to open item %s\n", stamp(e.CreatedAt.AsTime()), e.RequesterID, e.ItemID)
		if e.EvidenceURL != "" {
			fmt.Fprintf(out, "  Evidence: %s\n", e.EvidenceURL)
		}
	}
}

func stamp(t time.Time) string {
	return t.Local().Format(time.DateTime)
}
