package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/katsura919/book-master-server/internal/auth"
	"github.com/katsura919/book-master-server/internal/config"
	"github.com/katsura919/book-master-server/internal/database"
)

// CreateAdminCommand registers an admin account from the command line, for
// bootstrapping a deployment before the API is exposed.
type CreateAdminCommand struct {
	DatabasePath string
	FirstName    string
	LastName     string
	Username     string
	Password     string
}

// NewCreateAdminCommand creates a new CreateAdminCommand
func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

// ParseFlags parses command line flags
func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.FirstName, "first-name", "", "Admin first name")
	fs.StringVar(&cmd.LastName, "last-name", "", "Admin last name")
	fs.StringVar(&cmd.Username, "username", "", "Admin username (required)")
	fs.StringVar(&cmd.Password, "password", "", "Admin password (required, min 8 characters)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an admin account for the staff API.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Password == "" {
		return fmt.Errorf("both -username and -password are required")
	}
	return nil
}

// Run creates the admin account
func (cmd *CreateAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	service, err := auth.NewService(db.DB, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}

	admin, err := service.Register(cmd.FirstName, cmd.LastName, cmd.Username, cmd.Password)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("Created admin %q (id %d)\n", admin.Username, admin.ID)
	return nil
}
