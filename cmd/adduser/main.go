// Command adduser creates an account directly in the database.  It is how
// the first admin is bootstrapped, since signup only ever creates regular
// users.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/iliyamo/finance-tracker/internal/database"
	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/service"
	"github.com/iliyamo/finance-tracker/internal/utils"
)

const (
	defaultDBPath = "finance.db"
	// must pass the same address shape check as signup
	defaultEmailDomain = "localhost.localdomain"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	email := fs.String("email", "", "Email address (defaults to <user>@localhost.localdomain)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	role := fs.String("role", model.RoleAdmin, "Role: admin or user")
	driver := fs.String("driver", database.DriverSQLite, "Database driver: sqlite or mysql (mysql reads DB_* from the environment)")
	dbPath := fs.String("db", defaultDBPath, "Path to the sqlite database file")
	maxUsers := fs.Int("max-users", 5, "Active user cap to enforce")
	cost := fs.Int("cost", 12, "bcrypt cost")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-email <email>] [-password <password>] [-role admin|user] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}
	if *email == "" {
		*email = *username + "@" + defaultEmailDomain
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	// DB_PATH wins over the flag default, never over an explicit -db
	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == defaultDBPath {
		*dbPath = path
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, *driver,
		os.Getenv("DB_USER"), os.Getenv("DB_PASS"), os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"),
		*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// the issuer is required by the service but never signs anything here
	tokens, err := utils.NewTokenIssuer(uuid.NewString())
	if err != nil {
		return err
	}
	users := repository.NewCachedUserRepo(repository.NewUserRepo(db), nil, 0, nil)
	auth, err := service.NewAuthService(users, tokens, service.AuthOptions{BcryptCost: *cost, MaxUsers: *maxUsers})
	if err != nil {
		return err
	}

	user, err := auth.CreateUserWithRole(ctx, *username, *email, password, *role)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d (role %s)\n", user.Username, user.ID, user.Role)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
