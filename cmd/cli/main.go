package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goliatone/go-print"

	auth "github.com/goliatone/go-auth-starter"
	"github.com/goliatone/go-auth-starter/app"
	"github.com/goliatone/go-auth-starter/config"
	"github.com/goliatone/go-auth-starter/database"
)

const usage = `usage: cli [-config path] <command> [args]

commands:
  migrate [-down]                          apply pending migrations (or roll back the last group)
  seed                                     create the configured admin and member accounts
  fixtures [-truncate]                     load the demo accounts and billing records
  create-user [-role r] [-name n] <email> <password>
                                           create an active account
  mark-expiring-cards                      flag cards expiring within two months
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("cli", flag.ContinueOnError)
	configPath := global.String("config", "", "path to a config file")
	global.Usage = func() { fmt.Fprint(out, usage) }
	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "migrate":
		return migrate(ctx, a, cmdArgs, out)
	case "seed":
		n, err := a.Seed(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "seeded %d account(s)\n", n)
		return nil
	case "fixtures":
		return fixtures(ctx, a, cmdArgs, out)
	case "create-user":
		return createUser(ctx, a, cmdArgs, out)
	case "mark-expiring-cards":
		n, err := a.Billing.MarkExpiringCards(ctx, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "flagged %d card(s)\n", n)
		return nil
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func migrate(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	down := fs.Bool("down", false, "roll back the most recent migration group")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *down {
		n, err := database.Rollback(ctx, a.DB)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "rolled back %d migration(s)\n", n)
		return nil
	}

	n, err := a.Migrate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "applied %d migration(s)\n", n)
	return nil
}

func fixtures(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fixtures", flag.ContinueOnError)
	truncate := fs.Bool("truncate", false, "empty the fixture tables before loading")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := database.LoadDemoFixtures(ctx, a.DB, database.FixtureOptions{Truncate: *truncate}); err != nil {
		return err
	}
	fmt.Fprintln(out, "loaded demo fixtures")
	return nil
}

func createUser(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	role := fs.String("role", string(auth.RoleMember), "account role")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 2 {
		return fmt.Errorf("create-user requires <email> <password>")
	}

	parsed, ok := auth.ParseRole(*role)
	if !ok {
		return fmt.Errorf("unknown role %q", *role)
	}

	user, err := a.CreateUser.Create(ctx, auth.CreateUserMessage{
		Email:    fs.Arg(0),
		Password: fs.Arg(1),
		Name:     *name,
		Role:     parsed,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, print.MaybePrettyJSON(user))
	return nil
}
