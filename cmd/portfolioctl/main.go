package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	"github.com/mmynk/portfolio/internal/app"
	"github.com/mmynk/portfolio/internal/auth"
	"github.com/mmynk/portfolio/internal/config"
	"github.com/mmynk/portfolio/internal/middleware"
	"github.com/mmynk/portfolio/internal/portfolio"
	"github.com/mmynk/portfolio/internal/session"
	"github.com/mmynk/portfolio/pkg/logging"
)

const version = "0.1.0"

const usage = `Portfolio control.

Browses clients, albums and photos from the terminal. Title edits and the
sign-in state are kept in the same local store the server uses.

Usage:
    portfolioctl clients [--filter=<text>]
    portfolioctl client <id>
    portfolioctl album <id>
    portfolioctl photo <id>
    portfolioctl rename <id> <title>
    portfolioctl register --email=<email> --name=<name> [--password=<password>]
    portfolioctl login --email=<email> [--password=<password>]
    portfolioctl logout
    portfolioctl whoami
    portfolioctl banner [toggle]
    portfolioctl -h | --help
    portfolioctl --version

Options:
    -h --help              Show this screen.
    --version              Show version.
    --filter=<text>        Case-insensitive match on name, username or email.
    --email=<email>        Account email.
    --name=<name>          Display name.
    --password=<password>  Read from the terminal when omitted.`

var errSignInRequired = errors.New("sign in first: portfolioctl login --email=<email>")

type cli struct {
	app  *app.App
	opts docopt.Opts
}

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.Setup()
	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireSecret()
	}
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	<-a.Sessions.Ready()

	c := &cli{app: a, opts: opts}
	runErr := c.run(ctx)
	if err := a.Close(); err != nil {
		slog.Warn("Close failed", "error", err)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(1)
	}
}

func (c *cli) run(ctx context.Context) error {
	switch {
	case c.flag("clients"):
		return c.clients(ctx)
	case c.flag("client"):
		return c.client(ctx)
	case c.flag("album"):
		return c.album(ctx)
	case c.flag("photo"):
		return c.photo(ctx)
	case c.flag("rename"):
		return c.rename(ctx)
	case c.flag("register"):
		return c.register(ctx)
	case c.flag("login"):
		return c.login(ctx)
	case c.flag("logout"):
		c.app.Sessions.SignOut(ctx)
		fmt.Println("signed out")
		return nil
	case c.flag("whoami"):
		return printJSON(c.app.Sessions.Current())
	case c.flag("banner"):
		return c.banner(ctx)
	}
	return nil
}

func (c *cli) flag(name string) bool {
	v, _ := c.opts.Bool(name)
	return v
}

// guard applies the same rule as the page routes.
func (c *cli) guard() error {
	switch middleware.Decide(c.app.Sessions.State()) {
	case middleware.Render:
		return nil
	case middleware.Redirect:
		return errSignInRequired
	default:
		return errors.New("session still loading, try again")
	}
}

func (c *cli) id() (int, error) {
	id, err := c.opts.Int("<id>")
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", c.opts["<id>"])
	}
	return id, nil
}

func (c *cli) clients(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	filter, _ := c.opts.String("--filter")
	clients, err := c.app.Portfolio.Clients(ctx, filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUSERNAME\tEMAIL\tALBUMS")
	for _, cl := range clients {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", cl.User.ID, cl.User.Name, cl.User.Username, cl.User.Email, cl.AlbumCount)
	}
	return w.Flush()
}

func (c *cli) client(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	id, err := c.id()
	if err != nil {
		return err
	}
	detail, err := c.app.Portfolio.ClientDetail(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(detail)
}

func (c *cli) album(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	id, err := c.id()
	if err != nil {
		return err
	}
	detail, err := c.app.Portfolio.AlbumDetail(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(detail)
}

func (c *cli) photo(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	id, err := c.id()
	if err != nil {
		return err
	}
	photo, err := c.app.Portfolio.GetPhoto(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(photo)
}

func (c *cli) rename(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	id, err := c.id()
	if err != nil {
		return err
	}
	raw, _ := c.opts.String("<title>")
	title, err := portfolio.ValidateTitle(raw)
	if err != nil {
		return err
	}
	photo, err := c.app.Portfolio.UpdatePhoto(ctx, id, title)
	if err != nil {
		return err
	}
	return printJSON(photo)
}

func (c *cli) register(ctx context.Context) error {
	email, _ := c.opts.String("--email")
	name, _ := c.opts.String("--name")
	password, err := c.password()
	if err != nil {
		return err
	}
	id, err := c.app.Provider.Register(ctx, email, name, password)
	if err != nil {
		return err
	}
	return printJSON(id)
}

func (c *cli) login(ctx context.Context) error {
	email, _ := c.opts.String("--email")
	password, err := c.password()
	if err != nil {
		return err
	}

	outcome, err := c.app.Sessions.SignIn(ctx, auth.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	// there is no browser to come back from; finish the redirect here
	if outcome == session.OutcomeRedirect {
		if _, err := c.app.Sessions.CompleteRedirect(ctx); err != nil {
			return err
		}
	}
	return printJSON(c.app.Sessions.Current())
}

func (c *cli) banner(ctx context.Context) error {
	var (
		show bool
		err  error
	)
	if c.flag("toggle") {
		show, err = c.app.Preferences.ToggleBanner(ctx)
	} else {
		show, err = c.app.Preferences.Banner(ctx)
	}
	if err != nil {
		return err
	}
	return printJSON(map[string]bool{"showBanner": show})
}

func (c *cli) password() (string, error) {
	if password, err := c.opts.String("--password"); err == nil && password != "" {
		return password, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Enter password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(passwordBytes), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
