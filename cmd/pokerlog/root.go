package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/config"
	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/felixgeelhaar/pokerlog/internal/remote"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// cli holds the global flags and the terminal hooks shared by all commands.
type cli struct {
	jsonOut   bool
	serverURL string
	verbose   bool

	loc          *time.Location
	stdin        io.Reader
	isTerminal   func(fd uintptr) bool
	readPassword func(prompt string) (string, error)
}

func newCLI() *cli {
	c := &cli{
		loc:   time.Local,
		stdin: os.Stdin,
		isTerminal: func(fd uintptr) bool {
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
	}
	c.readPassword = c.promptPassword
	return c
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "pokerlog",
		Short: "Track poker sessions and hands",
		Long: `pokerlog records poker sessions and individual hands against a pokerlog
daemon and reports your profit.

Start a local daemon with 'pokerlog daemon start', create an account with
'pokerlog register' and log in with 'pokerlog login'.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print machine-readable JSON")
	root.PersistentFlags().StringVar(&c.serverURL, "server", "", "daemon URL (default from config or stored login)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.sessionsCmd(),
		c.handsCmd(),
		c.dashboardCmd(),
		c.daemonCmd(),
		c.mcpCmd(),
		c.eventsCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pokerlog %s\n", Version)
		},
	}
}

// printer renders output for cmd, with colour only on a terminal.
func (c *cli) printer(cmd *cobra.Command) *printer {
	out := cmd.OutOrStdout()
	color := false
	if f, ok := out.(*os.File); ok {
		color = c.isTerminal(f.Fd())
	}
	return &printer{w: out, color: color}
}

// serverFor picks the daemon URL: flag, then stored login, then config.
func (c *cli) serverFor(local *config.LocalConfig, creds *config.Credentials) string {
	if c.serverURL != "" {
		return strings.TrimRight(c.serverURL, "/")
	}
	if creds != nil && creds.ServerURL != "" {
		return creds.ServerURL
	}
	return strings.TrimRight(local.Client.ServerURL, "/")
}

// session is a remote client together with the login it was built from.
type session struct {
	client *remote.Client
	creds  *config.Credentials
	server string
}

func (c *cli) connect() (*session, error) {
	local, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	creds, err := config.LoadCredentials()
	if err != nil && !errors.Is(err, config.ErrNoCredentials) {
		return nil, err
	}

	server := c.serverFor(local, creds)
	token := ""
	if creds != nil && (creds.ServerURL == "" || creds.ServerURL == server) {
		token = creds.Token
	}

	client := remote.New(remote.Config{
		BaseURL: server,
		Token:   token,
		Timeout: time.Duration(local.Client.TimeoutSeconds) * time.Second,
		Logger:  slog.Default(),
	})
	return &session{client: client, creds: creds, server: server}, nil
}

// authFailure turns an auth error into a hint to log in. A rejected stored
// token is removed so the next command starts logged out.
func (c *cli) authFailure(s *session, err error) error {
	if !domain.IsAuth(err) {
		return err
	}
	if s != nil && s.creds != nil {
		if cerr := config.ClearCredentials(); cerr != nil {
			slog.Warn("failed to clear credentials", "error", cerr)
		}
		return fmt.Errorf("%v: stored login cleared, run 'pokerlog login'", err)
	}
	return fmt.Errorf("not logged in, run 'pokerlog login'")
}

// password returns the flag value or prompts for it without echo.
func (c *cli) password(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return c.readPassword("Password: ")
}

func (c *cli) promptPassword(prompt string) (string, error) {
	if f, ok := c.stdin.(*os.File); ok && c.isTerminal(f.Fd()) {
		fmt.Fprint(os.Stderr, prompt)
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}

	// Piped input: first line is the password
	line, err := bufio.NewReader(c.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
