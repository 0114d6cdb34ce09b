package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/config"
	"github.com/spf13/cobra"
)

const (
	daemonBinary = "pokerlogd"
	pidFileName  = "pokerlogd.pid"
	logFileName  = "pokerlogd.log"

	// logTailBytes is how much of the log file 'daemon logs' shows
	logTailBytes = 4096
)

func (c *cli) daemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the local pokerlogd daemon",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start the daemon in the background",
			Args:  cobra.NoArgs,
			RunE:  c.daemonStart,
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the running daemon",
			Args:  cobra.NoArgs,
			RunE:  c.daemonStop,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show daemon status",
			Args:  cobra.NoArgs,
			RunE:  c.daemonStatus,
		},
		&cobra.Command{
			Use:   "logs",
			Short: "Show recent daemon logs",
			Args:  cobra.NoArgs,
			RunE:  c.daemonLogs,
		},
	)
	return cmd
}

// daemonURL is where the local daemon answers health checks.
func (c *cli) daemonURL() (string, error) {
	if c.serverURL != "" {
		return strings.TrimRight(c.serverURL, "/"), nil
	}
	local, err := config.LoadLocalConfig()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return "http://" + net.JoinHostPort(local.Daemon.Bind, strconv.Itoa(local.Daemon.Port)), nil
}

func (c *cli) daemonStart(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	addr, err := c.daemonURL()
	if err != nil {
		return err
	}

	if isRunning(addr) {
		fmt.Fprintln(out, "✓ Daemon is already running")
		return nil
	}

	dir, err := config.EnsurePokerlogDir()
	if err != nil {
		return fmt.Errorf("setup pokerlog directory: %w", err)
	}

	binary, err := findDaemonBinary()
	if err != nil {
		return fmt.Errorf("find daemon binary: %w", err)
	}

	proc := exec.Command(binary)
	proc.Dir = dir
	configureDaemonProcess(proc)

	if err := proc.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	// The daemon outlives us; don't leave a zombie handle
	_ = proc.Process.Release()

	fmt.Fprint(out, "Starting daemon...")
	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if isRunning(addr) {
			fmt.Fprintln(out, " ✓")
			fmt.Fprintf(out, "Daemon running at %s\n", addr)
			return nil
		}
		fmt.Fprint(out, ".")
	}

	fmt.Fprintln(out, " ✗")
	return fmt.Errorf("daemon failed to start (check logs with 'pokerlog daemon logs')")
}

func (c *cli) daemonStop(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	addr, err := c.daemonURL()
	if err != nil {
		return err
	}

	if !isRunning(addr) {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	pid, err := readPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	fmt.Fprint(out, "Stopping daemon...")
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !isRunning(addr) {
			fmt.Fprintln(out, " ✓")
			return nil
		}
		fmt.Fprint(out, ".")
	}

	fmt.Fprintln(out, " ✗")
	return fmt.Errorf("daemon did not stop gracefully")
}

func (c *cli) daemonStatus(cmd *cobra.Command, args []string) error {
	addr, err := c.daemonURL()
	if err != nil {
		return err
	}

	p := c.printer(cmd)
	status := daemonStatus{Address: addr, Status: "stopped"}
	if isRunning(addr) {
		status.Status = "running"
		status.Database = readiness(addr)
		if pid, err := readPID(); err == nil {
			status.PID = pid
		}
	}

	if c.jsonOut {
		return p.json(status)
	}

	p.printf("Status:    %s\n", status.Status)
	if status.Status == "running" {
		p.printf("Database:  %s\n", status.Database)
		if status.PID > 0 {
			p.printf("PID:       %d\n", status.PID)
		}
	}
	p.printf("Address:   %s\n", status.Address)
	return nil
}

func (c *cli) daemonLogs(cmd *cobra.Command, args []string) error {
	dir, err := config.PokerlogDir()
	if err != nil {
		return err
	}

	logPath := filepath.Join(dir, "logs", logFileName)
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No log file found. Start the daemon first.")
		return nil
	}
	return tailFile(cmd.OutOrStdout(), logPath, logTailBytes)
}

type daemonStatus struct {
	Status   string `json:"status"`
	Address  string `json:"address"`
	Database string `json:"database,omitempty"`
	PID      int    `json:"pid,omitempty"`
}

// tailFile prints the complete lines within the last maxBytes of path.
func tailFile(w io.Writer, path string, maxBytes int64) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}

	offset := info.Size() - maxBytes
	if offset < 0 {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	if offset > 0 {
		// Skip the partial first line
		_, _ = reader.ReadString('\n')
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}
	return scanner.Err()
}

func readPID() (int, error) {
	dir, err := config.PokerlogDir()
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(filepath.Join(dir, pidFileName))
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID: %w", err)
	}
	return pid, nil
}

var healthClient = &http.Client{Timeout: 2 * time.Second}

// isRunning checks if the daemon answers its health endpoint
func isRunning(addr string) bool {
	resp, err := healthClient.Get(addr + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// readiness reports the database check of the ready endpoint.
func readiness(addr string) string {
	resp, err := healthClient.Get(addr + "/ready")
	if err != nil {
		return "unknown"
	}
	defer resp.Body.Close()

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "unknown"
	}
	if v, ok := body.Checks["database"]; ok {
		return v
	}
	return "unknown"
}

// findDaemonBinary locates the pokerlogd binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath(daemonBinary); err == nil {
		return path, nil
	}

	// Next to this binary
	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), daemonBinary)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, path := range []string{
		"/usr/local/bin/" + daemonBinary,
		"./" + daemonBinary,
		"./cmd/pokerlogd/" + daemonBinary,
	} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%s binary not found (build with 'go build ./cmd/pokerlogd')", daemonBinary)
}
