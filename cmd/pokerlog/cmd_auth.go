package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/pokerlog/internal/config"
	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/spf13/cobra"
)

func (c *cli) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			pwFlag, _ := cmd.Flags().GetString("password")

			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			password, err := c.password(cmd, pwFlag)
			if err != nil {
				return err
			}

			s, err := c.connect()
			if err != nil {
				return err
			}
			user, err := s.client.Register(cmd.Context(), email, name, password)
			if err != nil {
				return err
			}

			p := c.printer(cmd)
			if c.jsonOut {
				return p.json(userView(user))
			}
			p.printf("Registered %s. Run 'pokerlog login' to sign in.\n", p.bold(user.Email))
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("password", "", "password (prompted when omitted)")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			pwFlag, _ := cmd.Flags().GetString("password")

			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			password, err := c.password(cmd, pwFlag)
			if err != nil {
				return err
			}

			s, err := c.connect()
			if err != nil {
				return err
			}
			user, token, err := s.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			if err := config.SaveCredentials(&config.Credentials{
				ServerURL: s.server,
				Email:     user.Email,
				Token:     token,
			}); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}

			p := c.printer(cmd)
			if c.jsonOut {
				return p.json(userView(user))
			}
			p.printf("Logged in as %s\n", p.bold(user.Email))
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "password (prompted when omitted)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")

			s, err := c.connect()
			if err != nil {
				return err
			}

			logout := s.client.Logout
			if all {
				logout = s.client.LogoutAll
			}
			// An expired token is already logged out server side
			if err := logout(cmd.Context()); err != nil && !domain.IsAuth(err) {
				if all {
					return fmt.Errorf("logout everywhere: %w", err)
				}
				slog.Warn("logout request failed", "error", err)
			}
			if err := config.ClearCredentials(); err != nil {
				return err
			}

			p := c.printer(cmd)
			if all {
				p.println("Logged out on every device")
			} else {
				p.println("Logged out")
			}
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "end every login of this account, not just this one")
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect()
			if err != nil {
				return err
			}
			user, err := s.client.Me(cmd.Context())
			if err != nil {
				return c.authFailure(s, err)
			}

			p := c.printer(cmd)
			if c.jsonOut {
				return p.json(userView(user))
			}
			if user.Name != "" {
				p.printf("%s %s\n", p.bold(user.Email), p.dim("("+user.Name+")"))
			} else {
				p.println(p.bold(user.Email))
			}
			p.println(p.dim("server: " + s.server))
			return nil
		},
	}
}

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func userView(u *domain.User) userJSON {
	return userJSON{ID: u.ID.String(), Email: u.Email, Name: u.Name}
}
