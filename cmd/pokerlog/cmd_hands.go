package main

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/tracker"
	"github.com/felixgeelhaar/pokerlog/internal/units"
	"github.com/spf13/cobra"
)

func (c *cli) handsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hands",
		Aliases: []string{"hand", "h"},
		Short:   "List, record and delete hands",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.listHands(cmd)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your hands, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.listHands(cmd)
		},
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Record a hand",
		Long: `Record a hand played now.

Omitted flags take the form defaults: NLH at 1/2 on the button, a win of $0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := domain.NewHandDraft()
			draft.SessionID, _ = cmd.Flags().GetString("session")
			draft.Notes, _ = cmd.Flags().GetString("notes")
			if v, _ := cmd.Flags().GetString("game"); v != "" {
				draft.Game = v
			}
			if v, _ := cmd.Flags().GetString("stakes"); v != "" {
				draft.Stakes = v
			}
			if v, _ := cmd.Flags().GetString("position"); v != "" {
				draft.Position = v
			}
			if v, _ := cmd.Flags().GetString("result"); v != "" {
				draft.Result = domain.HandResult(strings.ToLower(v))
			}
			if cmd.Flags().Changed("profit") {
				draft.ProfitDollars, _ = cmd.Flags().GetString("profit")
			}
			return c.addHand(cmd, draft)
		},
	}
	add.Flags().String("session", "", "id of the session the hand belongs to")
	add.Flags().String("game", "", "game, default "+domain.DefaultGame)
	add.Flags().String("stakes", "", "stakes, default "+domain.DefaultStakes)
	add.Flags().String("position", "", "seat position, default "+domain.DefaultPosition)
	add.Flags().String("result", "", "win, loss or chop")
	add.Flags().String("profit", "", "profit in dollars")
	add.Flags().String("notes", "", "free-form notes")

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a hand",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.deleteHand(cmd, id)
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

func (c *cli) handManager(s *session) *tracker.HandManager {
	return tracker.NewHandManager(s.client, s.client, s.client,
		tracker.WithLocation(c.loc),
		tracker.WithLogger(slog.Default()),
	)
}

func (c *cli) listHands(cmd *cobra.Command) error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	m := c.handManager(s)
	if err := m.Load(cmd.Context()); err != nil {
		return c.authFailure(s, err)
	}

	p := c.printer(cmd)
	if c.jsonOut {
		return p.json(handsJSON{Hands: m.Hands(), TotalProfit: units.FormatCents(m.TotalProfit())})
	}
	c.printHands(p, m.Hands(), m.Sessions())
	p.printf("Total: $%d\n", m.TotalWholeDollars())
	return nil
}

func (c *cli) addHand(cmd *cobra.Command, draft domain.HandDraft) error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	m := c.handManager(s)
	created, err := m.Create(cmd.Context(), draft)
	if err != nil {
		return c.authFailure(s, err)
	}

	p := c.printer(cmd)
	if c.jsonOut {
		return p.json(created)
	}
	p.printf("Recorded hand %d: %s %s %s, %s\n",
		created.ID, created.Game, created.Stakes, created.Position, p.money(created.ProfitCents))
	p.printf("Total: $%d\n", m.TotalWholeDollars())
	return nil
}

func (c *cli) deleteHand(cmd *cobra.Command, id int64) error {
	s, err := c.connect()
	if err != nil {
		return err
	}
	m := c.handManager(s)
	if err := m.Delete(cmd.Context(), id); err != nil {
		return c.authFailure(s, err)
	}

	p := c.printer(cmd)
	if c.jsonOut {
		return p.json(deletedJSON{ID: id, Remaining: len(m.Hands())})
	}
	p.printf("Deleted hand %d (%d remaining)\n", id, len(m.Hands()))
	return nil
}

// printHands renders hands with the title of their session when it still exists.
func (c *cli) printHands(p *printer, hands []domain.Hand, sessions []domain.Session) {
	if len(hands) == 0 {
		p.println(p.dim("No hands recorded yet."))
		return
	}

	titles := make(map[int64]string, len(sessions))
	for _, s := range sessions {
		titles[s.ID] = s.Title
	}

	rows := make([][]string, 0, len(hands))
	for _, h := range hands {
		sessionLabel := ""
		if h.SessionID != nil {
			sessionLabel = strconv.FormatInt(*h.SessionID, 10)
			if title, ok := titles[*h.SessionID]; ok {
				sessionLabel += " " + title
			} else {
				sessionLabel = p.dim(sessionLabel + " (deleted)")
			}
		}
		notes := ""
		if h.Notes != nil {
			notes = *h.Notes
		}
		rows = append(rows, []string{
			strconv.FormatInt(h.ID, 10),
			units.FormatLocalDateTime(h.PlayedAt, c.loc),
			h.Game,
			h.Stakes,
			h.Position,
			string(h.Result),
			p.money(h.ProfitCents),
			sessionLabel,
			notes,
		})
	}
	p.printf("%s", p.table([]string{"ID", "PLAYED", "GAME", "STAKES", "POS", "RESULT", "PROFIT", "SESSION", "NOTES"}, rows))
}

type handsJSON struct {
	Hands       []domain.Hand `json:"hands"`
	TotalProfit string        `json:"total_profit"`
}
