// Command planetarium-admin runs maintenance tasks against the configured
// database:
//
//	planetarium-admin migrate [--down]
//	planetarium-admin version
//	planetarium-admin create-admin --email a@b.c --password secret
//	planetarium-admin promote --email a@b.c
//	planetarium-admin purge-tokens [--older-than 720h]
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/database"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
)

func main() {
	_ = godotenv.Load()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "planetarium-admin:", err)
		os.Exit(1)
	}
}

const usage = `usage: planetarium-admin <command> [flags]

commands:
  migrate        apply pending migrations (--down rolls everything back)
  version        print the schema version
  create-admin   create an ADMIN account (--email, --password)
  promote        grant ADMIN to an existing account (--email)
  purge-tokens   delete expired and revoked refresh tokens (--older-than)
`

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate":
		return runMigrate(rest, out)
	case "version":
		return runVersion(rest, out)
	case "create-admin":
		return runCreateAdmin(rest, out)
	case "promote":
		return runPromote(rest, out)
	case "purge-tokens":
		return runPurgeTokens(rest, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func loadConfig() (config.Config, error) {
	// The server port and token secret are irrelevant here.
	for k, v := range map[string]string{"APP_PORT": "0", "JWT_SECRET": "unused"} {
		if os.Getenv(k) == "" {
			_ = os.Setenv(k, v)
		}
	}
	return config.FromEnv()
}

func runMigrate(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	down := fs.Bool("down", false, "roll back every migration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := database.OptionsFrom(cfg)
	if *down {
		if err := database.MigrateDown(opts); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations rolled back")
		return nil
	}
	if err := database.Migrate(opts); err != nil {
		return err
	}
	return printVersion(opts, out)
}

func runVersion(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("version", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return printVersion(database.OptionsFrom(cfg), out)
}

func printVersion(opts database.Options, out io.Writer) error {
	v, dirty, err := database.SchemaVersion(opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version %d (dirty=%t)\n", v, dirty)
	return nil
}

func openDB(ctx context.Context) (*sql.DB, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	db, err := database.Open(ctx, database.OptionsFrom(cfg))
	return db, cfg, err
}

func openUsers(ctx context.Context) (*repository.UserRepo, config.Config, func(), error) {
	db, cfg, err := openDB(ctx)
	if err != nil {
		return nil, cfg, nil, err
	}
	return repository.NewUserRepo(db), cfg, func() { _ = db.Close() }, nil
}

func runCreateAdmin(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("create-admin", pflag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (min 8 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	*email = strings.ToLower(strings.TrimSpace(*email))
	if *email == "" || !strings.Contains(*email, "@") {
		return errors.New("--email is required")
	}
	if len(*password) < 8 {
		return errors.New("--password must have at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	users, cfg, closeDB, err := openUsers(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	id, err := users.Create(ctx, *email, *password, model.RoleAdmin, cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return fmt.Errorf("%s already exists, use promote", *email)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created admin %s (id %d)\n", *email, id)
	return nil
}

func runPromote(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("promote", pflag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	users, _, closeDB, err := openUsers(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	u, err := users.GetByEmail(ctx, *email)
	if err != nil {
		return fmt.Errorf("find %s: %w", *email, err)
	}
	if err := users.SetRole(ctx, u.ID, model.RoleAdmin); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is now %s\n", u.Email, model.RoleAdmin)
	return nil
}

func runPurgeTokens(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("purge-tokens", pflag.ContinueOnError)
	olderThan := fs.Duration("older-than", 0, "keep tokens that expired or were revoked more recently than this")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *olderThan < 0 {
		return errors.New("--older-than must not be negative")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, _, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := repository.NewTokenRepo(db).PurgeExpired(ctx, time.Now().Add(-*olderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "purged %d refresh tokens\n", n)
	return nil
}
