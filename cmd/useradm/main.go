package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/marketdesk/marketdesk/internal/auth"
	"github.com/marketdesk/marketdesk/internal/users"
	"github.com/marketdesk/marketdesk/pkg/config"
	"github.com/marketdesk/marketdesk/pkg/db"
	"github.com/marketdesk/marketdesk/pkg/db/models"
	"github.com/marketdesk/marketdesk/pkg/enums"
	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
	"github.com/marketdesk/marketdesk/pkg/logger"
	"github.com/marketdesk/marketdesk/pkg/migrate"
	"github.com/marketdesk/marketdesk/pkg/security"
)

const tempPasswordLength = 16

func usage() {
	fmt.Fprintln(os.Stderr, "usage: useradm <command> [flags]")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  create-user   create an account with any role")
	fmt.Fprintln(os.Stderr, "  list          list accounts with a role")
	fmt.Fprintln(os.Stderr, "  set-active    enable or disable an account")
	fmt.Fprintln(os.Stderr, "  role-counts   print the number of accounts per role")
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "useradm"})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "useradm",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	requireResource(ctx, logg, "migrations", migrate.MaybeRunAtBoot(ctx, cfg, logg, dbClient))

	switch os.Args[1] {
	case "create-user":
		svc, err := auth.NewService(auth.ServiceParams{
			DB:     dbClient,
			Hasher: security.NewHasher(cfg.Password, logg),
			Logger: logg,
		})
		requireResource(ctx, logg, "auth service", err)
		if err := createUser(ctx, svc, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "create-user failed: %s\n", describe(err))
			os.Exit(1)
		}

	case "list":
		if err := listUsers(ctx, users.NewRepository(dbClient.DB()), os.Stdout, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "list failed: %s\n", describe(err))
			os.Exit(1)
		}

	case "set-active":
		if err := setActive(ctx, users.NewRepository(dbClient.DB()), logg, os.Stdout, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "set-active failed: %s\n", describe(err))
			os.Exit(1)
		}

	case "role-counts":
		counts, err := users.NewRepository(dbClient.DB()).CountByRole(ctx)
		requireResource(ctx, logg, "role counts", err)
		for _, row := range counts {
			fmt.Printf("%-10s %d\n", row.Role, row.Count)
		}

	default:
		usage()
		os.Exit(2)
	}
}

type accountCreator interface {
	CreateAccount(ctx context.Context, input auth.CreateAccountInput) (*users.UserDTO, error)
}

func createUser(ctx context.Context, svc accountCreator, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "login email")
	phone := fs.String("phone", "", "optional phone number")
	role := fs.String("role", string(enums.RoleSeller), "admin|seller|customer")
	password := fs.String("password", "", "password (generated when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	generated := false
	if *password == "" {
		temp, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return err
		}
		*password = temp
		generated = true
	}

	input := auth.CreateAccountInput{
		FullName: *name,
		Email:    *email,
		Password: *password,
		Role:     enums.Role(*role),
	}
	if p := strings.TrimSpace(*phone); p != "" {
		input.Phone = &p
	}

	user, err := svc.CreateAccount(ctx, input)
	if err != nil {
		return err
	}

	fmt.Printf("created %s account %d for %s\n", user.Role, user.ID, user.Email)
	if generated {
		fmt.Println("temporary password:", *password)
	}
	return nil
}

type accountDirectory interface {
	ListByRole(ctx context.Context, role enums.Role) ([]models.User, error)
	SetActive(ctx context.Context, id uint, active bool) error
}

func listUsers(ctx context.Context, dir accountDirectory, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	rawRole := fs.String("role", string(enums.RoleSeller), "admin|seller|customer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	role, err := enums.ParseRole(*rawRole)
	if err != nil {
		return pkgerrors.Invalid("role", "Role must be one of: admin, seller, customer")
	}

	accounts, err := dir.ListByRole(ctx, role)
	if err != nil {
		return err
	}
	for _, u := range accounts {
		status := "active"
		if !u.IsActive {
			status = "disabled"
		}
		fmt.Fprintf(out, "%-6d %-8s %-8s %s <%s>\n", u.ID, u.Role, status, u.FullName, u.Email)
	}
	return nil
}

// setActive soft-disables or re-enables an account. Disabled accounts cannot
// log in and their items drop out of the public listing.
func setActive(ctx context.Context, dir accountDirectory, logg *logger.Logger, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("set-active", flag.ContinueOnError)
	id := fs.Uint("id", 0, "account id")
	active := fs.Bool("active", false, "true to enable, false to disable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return pkgerrors.Invalid("id", "Account id is required")
	}

	if err := dir.SetActive(ctx, *id, *active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("account %d not found", *id))
		}
		return err
	}

	if logg != nil {
		logg.Info(logg.WithField(logg.WithUserID(ctx, *id), "active", *active), "account activation changed")
	}
	state := "disabled"
	if *active {
		state = "enabled"
	}
	fmt.Fprintf(out, "account %d %s\n", *id, state)
	return nil
}

// describe prefers the user-facing message of typed errors.
func describe(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err.Error()
	}
	if field := typed.Field(); field != "" {
		return fmt.Sprintf("%s (%s)", typed.Message(), field)
	}
	return typed.Message()
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
