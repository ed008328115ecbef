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

	"golang.org/x/term"

	"carlog/internal/auth"
	"carlog/internal/store"
)

// useradmin manages accounts out of band: creating users, resetting
// passwords and confirming emails without going through the web UI.
func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("useradmin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Account email")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "./data/carlog.db", "Path to database file")
	reset := fs.Bool("reset", false, "Reset the password of an existing account")
	confirm := fs.Bool("confirm", false, "Mark an existing account as confirmed")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: useradmin -email <email> [-password <password>] [-reset|-confirm] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	if path := os.Getenv("SQLITE_DB_PATH"); path != "" && *dbPath == "./data/carlog.db" {
		*dbPath = path
	}

	st, err := store.New(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	if *confirm {
		user, err := st.GetUserByEmail(ctx, *email)
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		if err := st.ConfirmUser(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to confirm user: %w", err)
		}
		fmt.Fprintf(stdout, "User %s confirmed\n", *email)
		return nil
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if len(password) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if *reset {
		user, err := st.GetUserByEmail(ctx, *email)
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		if err := st.SetPasswordHash(ctx, user.ID, hash); err != nil {
			return fmt.Errorf("failed to reset password: %w", err)
		}
		fmt.Fprintf(stdout, "Password for %s reset\n", *email)
		return nil
	}

	if _, err := st.GetUserByEmail(ctx, *email); err == nil {
		return fmt.Errorf("user %s already exists", *email)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to check for existing user: %w", err)
	}

	user, err := st.CreateUser(ctx, *email, hash, true)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Fprintf(stdout, "User %s created with ID %s\n", user.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
