package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/tracker"
	"github.com/felixgeelhaar/pokerlog/internal/units"
	"github.com/spf13/cobra"
)

func (c *cli) sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "s"},
		Short:   "List, record and delete sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.listSessions(cmd)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.listSessions(cmd)
		},
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Record a session",
		Long: `Record a session.

--started is a local date-time in the form 2006-01-02T15:04. When --minutes
is given the session end is the start plus the played minutes; otherwise the
session is left in progress. --profit is in dollars and may be negative.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var draft domain.SessionDraft
			draft.Title, _ = cmd.Flags().GetString("title")
			draft.Location, _ = cmd.Flags().GetString("location")
			draft.Stakes, _ = cmd.Flags().GetString("stakes")
			draft.StartedAt, _ = cmd.Flags().GetString("started")
			draft.TimePlayedMinutes, _ = cmd.Flags().GetString("minutes")
			draft.ProfitDollars, _ = cmd.Flags().GetString("profit")
			return c.addSession(cmd, draft)
		},
	}
	add.Flags().String("title", "", "session title")
	add.Flags().String("location", "", "casino or venue")
	add.Flags().String("stakes", "", "stakes, e.g. 1/2")
	add.Flags().String("started", "", "start time as 2006-01-02T15:04 (local)")
	add.Flags().String("minutes", "", "minutes played")
	add.Flags().String("profit", "", "profit in dollars")

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a session",
		Long:    "Delete a session. Hands recorded against it are kept.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.deleteSession(cmd, id)
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

func (c *cli) sessionManager(s *session) *tracker.SessionManager {
	return tracker.NewSessionManager(s.client, s.client,
		tracker.WithLocation(c.loc),
		tracker.WithLogger(slog.Default()),
	)
}

func (c *cli) listSessions(cmd *cobra.Command) error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	m := c.sessionManager(s)
	if err := m.Load(cmd.Context()); err != nil {
		return c.authFailure(s, err)
	}

	p := c.printer(cmd)
	if c.jsonOut {
		return p.json(sessionsJSON{Sessions: m.Sessions(), TotalProfit: units.FormatCents(m.TotalProfit())})
	}
	c.printSessions(p, m.Sessions())
	p.printf("Total profit: %s\n", p.money(m.TotalProfit()))
	return nil
}

func (c *cli) addSession(cmd *cobra.Command, draft domain.SessionDraft) error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	m := c.sessionManager(s)
	created, err := m.Create(cmd.Context(), draft)
	if err != nil {
		return c.authFailure(s, err)
	}

	p := c.printer(cmd)
	if c.jsonOut {
		return p.json(created)
	}
	p.printf("Recorded session %d: %s at %s, %s\n",
		created.ID, p.bold(created.Title), created.Location, p.money(created.ProfitCents))
	p.printf("Total profit: %s\n", p.money(m.TotalProfit()))
	return nil
}

func (c *cli) deleteSession(cmd *cobra.Command, id int64) error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	m := c.sessionManager(s)
	if err := m.Delete(cmd.Context(), id); err != nil {
		return c.authFailure(s, err)
	}

	p := c.printer(cmd)
	if c.jsonOut {
		return p.json(deletedJSON{ID: id, Remaining: len(m.Sessions())})
	}
	p.printf("Deleted session %d (%d remaining)\n", id, len(m.Sessions()))
	return nil
}

func (c *cli) printSessions(p *printer, sessions []domain.Session) {
	if len(sessions) == 0 {
		p.println(p.dim("No sessions recorded yet."))
		return
	}

	rows := make([][]string, 0, len(sessions))
	for _, sess := range sessions {
		stakes := ""
		if sess.Stakes != nil {
			stakes = *sess.Stakes
		}
		rows = append(rows, []string{
			strconv.FormatInt(sess.ID, 10),
			units.FormatLocalDateTime(sess.StartedAt, c.loc),
			sess.Title,
			sess.Location,
			stakes,
			units.ElapsedLabel(sess.StartedAt, sess.EndedAt),
			p.money(sess.ProfitCents),
		})
	}
	p.printf("%s", p.table([]string{"ID", "STARTED", "TITLE", "LOCATION", "STAKES", "PLAYED", "PROFIT"}, rows))
}

type sessionsJSON struct {
	Sessions    []domain.Session `json:"sessions"`
	TotalProfit string           `json:"total_profit"`
}

type deletedJSON struct {
	ID        int64 `json:"id"`
	Remaining int   `json:"remaining"`
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
