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

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show recent sessions and profit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect()
			if err != nil {
				return err
			}

			d := tracker.NewDashboard(s.client, s.client, s.client)
			if err := d.Load(cmd.Context()); err != nil {
				slog.Debug("dashboard load failed", "error", err)
				return c.authFailure(s, err)
			}

			p := c.printer(cmd)
			if c.jsonOut {
				return p.json(dashboardJSON{
					RecentSessions: d.RecentSessions(),
					RecentProfit:   units.FormatCents(d.RecentProfit()),
					HandCount:      len(d.Hands()),
					Summary:        d.Summary(),
				})
			}

			var summary strings.Builder
			summary.WriteString(p.bold("Recent profit ") + p.money(d.RecentProfit()) + "\n")
			summary.WriteString(p.dim(d.Summary()))
			summary.WriteString(p.dim(", ") + p.dim(handCountLabel(len(d.Hands()))))

			p.println(p.header("Dashboard"))
			p.println(p.box(summary.String()))
			p.println()
			c.printSessions(p, d.RecentSessions())
			return nil
		},
	}
}

func handCountLabel(n int) string {
	if n == 1 {
		return "1 hand recorded"
	}
	return strconv.Itoa(n) + " hands recorded"
}

type dashboardJSON struct {
	RecentSessions []domain.Session `json:"recent_sessions"`
	RecentProfit   string           `json:"recent_profit"`
	HandCount      int              `json:"hand_count"`
	Summary        string           `json:"summary"`
}
