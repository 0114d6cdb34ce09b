package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/config"
	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/events"
	"github.com/spf13/cobra"
)

func (c *cli) eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow record events from the broker",
		Long: `Print session and hand write events as the daemon publishes them.

Requires the daemon to run with a RabbitMQ URL (events.amqp_url in
~/.pokerlog/config.yaml or RABBITMQ_URL).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("amqp-url")
			if url == "" {
				local, err := config.LoadLocalConfig()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				url = local.Events.AMQPURL
			}
			if url == "" {
				url = os.Getenv("RABBITMQ_URL")
			}
			if url == "" {
				return errors.New("no broker configured: pass --amqp-url or set events.amqp_url")
			}

			conn, err := events.NewConnection(url)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			consumer := events.NewConsumer(conn, eventPrinter(cmd.OutOrStdout(), c.jsonOut, c.loc), events.DefaultConsumerConfig())
			if err := consumer.Start(ctx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Waiting for record events, press Ctrl+C to stop")
			select {
			case <-ctx.Done():
			case <-consumer.Done():
			}
			consumer.Stop()
			if err := consumer.Err(); err != nil {
				return fmt.Errorf("event feed stopped: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("amqp-url", "", "RabbitMQ URL (default from config)")
	return cmd
}

// eventPrinter writes one line per record event.
func eventPrinter(w io.Writer, asJSON bool, loc *time.Location) events.Handler {
	p := &printer{w: w}
	return func(_ context.Context, event domain.RecordEvent) error {
		if asJSON {
			return p.json(event)
		}
		p.printf("%s  %-15s  #%d  user %s\n",
			event.OccurredAt.In(loc).Format(time.DateTime),
			event.Type,
			event.RecordID,
			event.UserID,
		)
		return nil
	}
}
