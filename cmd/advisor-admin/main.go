// ABOUTME: Admin CLI for advisor-bot user management and maintenance
// ABOUTME: Operates directly on the SQLite user store, no bot restart needed

package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/ai4business/advisor-bot/internal/store"
)

const banner = `
           _       _                           _           _
  __ _  __| |_   _(_)___  ___  _ __        __ _ __| |_ __ ___ (_)_ __
 / _' |/ _' \ \ / / / __|/ _ \| '__|_____ / _' / _' | '_ ' _ \| | '_ \
| (_| | (_| |\ V /| \__ \ (_) | | |_____| (_| \__,_| | | | | | | | | |
 \__,_|\__,_| \_/ |_|___/\___/|_|        \__,_|\__,_|_| |_| |_|_|_| |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	dbPath := os.Getenv("ADVISOR_DB")
	if dbPath == "" {
		dbPath = "data/advisor.db"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "migrate":
		err = cmdMigrate(ctx, dbPath)
	case "status":
		err = cmdStatus(ctx, dbPath)
	case "stats":
		err = cmdStats(ctx, dbPath)
	case "users":
		err = cmdUsers(ctx, dbPath, args)
	case "set-status":
		err = cmdSetStatus(ctx, dbPath, args)
	case "export":
		err = cmdExport(ctx, dbPath, args)
	case "cleanup":
		err = cmdCleanup(ctx, dbPath, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: advisor-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  migrate                     Apply pending schema migrations")
	fmt.Println("  status                      Show schema version and migration state")
	fmt.Println("  stats                       Show user statistics")
	fmt.Println("  users [status]              List users, optionally by status")
	fmt.Println("  set-status <id> <status>    Change a user's status")
	fmt.Println("  export [json|csv] [file]    Export users (default json to stdout)")
	fmt.Println("  cleanup <days> [--apply]    Remove users inactive for N days (dry-run by default)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  ADVISOR_DB    Path to the SQLite database (default: data/advisor.db)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  advisor-admin stats")
	fmt.Println("  advisor-admin users blocked")
	fmt.Println("  advisor-admin set-status 123456789 premium")
	fmt.Println("  advisor-admin export csv users.csv")
	fmt.Println("  advisor-admin cleanup 180 --apply")
	fmt.Println()
}

func openStore(dbPath string) (*store.UserStore, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s (set ADVISOR_DB)", dbPath)
	}
	return store.NewUserStore(dbPath)
}

func cmdMigrate(ctx context.Context, dbPath string) error {
	// NewUserStore applies migrations on open; report what happened
	s, err := store.NewUserStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	version, err := s.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	color.Green("Database migrated to version %s\n", version)
	return nil
}

func cmdStatus(ctx context.Context, dbPath string) error {
	s, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	version, err := s.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Database")
	cyan.Println("  --------")
	fmt.Printf("  Path:    %s\n", dbPath)
	fmt.Printf("  Schema:  version %s\n", version)
	fmt.Println()
	return nil
}

func cmdStats(ctx context.Context, dbPath string) error {
	s, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.GetStats(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  User statistics")
	cyan.Println("  ---------------")
	fmt.Printf("  Total:         %d\n", stats.Total)
	fmt.Printf("  Registered:    %d\n", stats.Registered)
	fmt.Printf("  Active (7d):   %d\n", stats.ActiveWeek)
	fmt.Println()

	statuses := make([]string, 0, len(stats.ByStatus))
	for status := range stats.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Printf("  %-12s %d\n", status+":", stats.ByStatus[status])
	}
	fmt.Println()
	return nil
}

func cmdUsers(ctx context.Context, dbPath string, args []string) error {
	s, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	status := ""
	if len(args) > 0 {
		status = args[0]
	}

	users, err := s.List(ctx, status)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tSTATUS\tREGISTERED\tLAST ACTIVE")
	fmt.Fprintln(w, "  --\t----\t------\t----------\t-----------")
	for _, u := range users {
		registered := "-"
		if u.RegisteredAt != nil {
			registered = u.RegisteredAt.Format("Jan 02 2006")
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\n",
			u.TelegramID, u.DisplayName(), u.Status, registered,
			u.LastActivity.Format("Jan 02 15:04"))
	}
	return w.Flush()
}

func cmdSetStatus(ctx context.Context, dbPath string, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set-status <telegram-id> <status>")
	}

	telegramID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram id %q", args[0])
	}
	status := args[1]
	switch status {
	case store.StatusNew, store.StatusUser, store.StatusRegistered, store.StatusPremium, store.StatusBlocked:
	default:
		return fmt.Errorf("unknown status %q", status)
	}

	s, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SetStatus(ctx, telegramID, status); err != nil {
		return err
	}
	color.Green("User %d is now %s\n", telegramID, status)
	return nil
}

// exportedUser is the stable export shape for both JSON and CSV.
type exportedUser struct {
	TelegramID   int64  `json:"telegram_id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Status       string `json:"status"`
	RegisteredAt string `json:"registered_at,omitempty"`
	LastActivity string `json:"last_activity"`
}

func cmdExport(ctx context.Context, dbPath string, args []string) error {
	format := "json"
	if len(args) > 0 {
		format = args[0]
	}
	if format != "json" && format != "csv" {
		return fmt.Errorf("unknown export format %q (want json or csv)", format)
	}

	out := os.Stdout
	if len(args) > 1 {
		f, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		out = f
	}

	s, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	users, err := s.List(ctx, "")
	if err != nil {
		return err
	}

	exported := make([]exportedUser, 0, len(users))
	for _, u := range users {
		e := exportedUser{
			TelegramID:   u.TelegramID,
			Username:     u.Username,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			Status:       u.Status,
			LastActivity: u.LastActivity.Format(time.RFC3339),
		}
		if u.RegisteredAt != nil {
			e.RegisteredAt = u.RegisteredAt.Format(time.RFC3339)
		}
		exported = append(exported, e)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(exported); err != nil {
			return fmt.Errorf("writing json export: %w", err)
		}
	case "csv":
		w := csv.NewWriter(out)
		header := []string{"telegram_id", "username", "first_name", "last_name", "status", "registered_at", "last_activity"}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("writing csv header: %w", err)
		}
		for _, e := range exported {
			row := []string{
				strconv.FormatInt(e.TelegramID, 10),
				e.Username, e.FirstName, e.LastName, e.Status,
				e.RegisteredAt, e.LastActivity,
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("flushing csv export: %w", err)
		}
	}

	if out != os.Stdout {
		color.Green("Exported %d users\n", len(exported))
	}
	return nil
}

func cmdCleanup(ctx context.Context, dbPath string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: cleanup <days> [--apply]")
	}
	days, err := strconv.Atoi(args[0])
	if err != nil || days < 1 {
		return fmt.Errorf("invalid day count %q", args[0])
	}
	apply := len(args) > 1 && args[1] == "--apply"

	s, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	inactive, err := s.Inactive(ctx, days)
	if err != nil {
		return err
	}
	if len(inactive) == 0 {
		fmt.Printf("No users inactive for more than %d days.\n", days)
		return nil
	}

	if !apply {
		yellow := color.New(color.FgYellow)
		yellow.Printf("Dry run: %d users inactive for more than %d days:\n", len(inactive), days)
		for _, u := range inactive {
			fmt.Printf("  %d  %s  (last active %s)\n",
				u.TelegramID, u.DisplayName(), u.LastActivity.Format("Jan 02 2006"))
		}
		fmt.Println("\nRerun with --apply to delete them.")
		return nil
	}

	deleted := 0
	for _, u := range inactive {
		if err := s.Delete(ctx, u.TelegramID); err != nil {
			return fmt.Errorf("deleting user %d: %w", u.TelegramID, err)
		}
		deleted++
	}
	color.Green("Deleted %d inactive users\n", deleted)
	return nil
}
