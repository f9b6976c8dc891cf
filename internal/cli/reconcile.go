// Package cli implements the maintenance subcommands that run outside the
// HTTP server.
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/katsura919/book-master-server/internal/config"
	"github.com/katsura919/book-master-server/internal/database"
	"github.com/katsura919/book-master-server/internal/database/requests"
	"github.com/katsura919/book-master-server/internal/reconcile"
)

// ReconcileCommand runs one reconciliation sweep and exits, for operators
// who want to force a run outside the hourly schedule.
type ReconcileCommand struct {
	DatabasePath   string
	PenaltyPerHour int
}

// NewReconcileCommand creates a new ReconcileCommand
func NewReconcileCommand() *ReconcileCommand {
	return &ReconcileCommand{}
}

// ParseFlags parses command line flags
func (cmd *ReconcileCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.IntVar(&cmd.PenaltyPerHour, "penalty-per-hour", config.DefaultPenaltyPerHour, "Penalty accrued per overdue hour")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reconcile [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run one overdue reconciliation sweep: recompute overdue hours and\n")
		fmt.Fprintf(os.Stderr, "penalties and promote line/request statuses, then exit.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the sweep
func (cmd *ReconcileCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	engine := reconcile.NewEngine(requests.NewRepository(db.DB), cmd.PenaltyPerHour)
	stats := engine.Run()

	fmt.Printf("Reconciled %d lines (%d promoted), promoted %d requests, %d errors\n",
		stats.LinesAccrued, stats.LinesPromoted, stats.RequestsPromoted, stats.Errors)
	if stats.Errors > 0 {
		return fmt.Errorf("sweep finished with %d errors", stats.Errors)
	}
	return nil
}
