package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/crestline/estatesite/internal/adminclient"
	"github.com/crestline/estatesite/internal/appointments"
	"github.com/crestline/estatesite/internal/logging"

	log "github.com/sirupsen/logrus"
)

const usage = `usage: adminctl [-server URL] [-session FILE] <command> [flags]

commands:
  login -username NAME          log in, password from ESTATE_ADMIN_PASSWORD
  logout                        log out and forget the stored session
  whoami                        verify the stored session
  sections                      list the sections available to the current role
  users                         list admin users
  appointments [-status S]      list appointments
  appointment-status -id N -status S
  units -building ID [-set UNIT.field=value]... [-add N] [-remove UNIT]... [-dry-run]
`

type app struct {
	shell  *adminclient.Shell
	client *adminclient.Client
	out    io.Writer
}

func main() {
	server := flag.String("server", envOr("ESTATE_API_URL", "http://localhost:9000"), "back-office api base url")
	sessionPath := flag.String("session", adminclient.DefaultSessionPath(), "session file")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
	}
	flag.Parse()

	logging.Setup(logging.LoggerSetupParams{LogLevel: *logLevel})
	// command output owns stdout
	log.SetOutput(os.Stderr)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, 2*time.Minute)
	defer timeoutCancel()

	client := adminclient.NewClient(*server, nil)
	a := &app{
		shell:  adminclient.NewShell(client, adminclient.NewFileSessionStore(*sessionPath)),
		client: client,
		out:    os.Stdout,
	}

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "adminctl: %s\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	if command == "login" {
		return a.login(ctx, args)
	}

	if err := a.shell.Bootstrap(ctx); err != nil {
		log.Warnf("could not verify session: %s", err)
	}
	if !a.shell.Authenticated() {
		return errors.New("not logged in, run adminctl login")
	}

	switch command {
	case "logout":
		return a.shell.Logout(ctx)
	case "whoami":
		user := a.shell.User()
		fmt.Fprintf(a.out, "%s <%s> role=%s verified=%t\n", user.Username, user.Email, user.Role, a.shell.Verified())
		return nil
	case "sections":
		for _, s := range a.shell.Sections() {
			fmt.Fprintln(a.out, s)
		}
		return nil
	case "users":
		return a.users(ctx)
	case "appointments":
		return a.appointments(ctx, args)
	case "appointment-status":
		return a.appointmentStatus(ctx, args)
	case "units":
		return a.units(ctx, args)
	}
	return fmt.Errorf("unknown command %q", command)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "admin username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password := os.Getenv("ESTATE_ADMIN_PASSWORD")
	if *username == "" || password == "" {
		return errors.New("username flag and ESTATE_ADMIN_PASSWORD are required")
	}

	user, err := a.shell.Login(ctx, *username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *app) users(ctx context.Context) error {
	if _, err := a.shell.Navigate(ctx, adminclient.SectionUsers); err != nil {
		return err
	}
	users, err := a.client.AdminUsers(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, u.Role, u.IsActive)
	}
	return tw.Flush()
}

func (a *app) appointments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("appointments", flag.ContinueOnError)
	status := fs.String("status", "", "filter by status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.shell.Navigate(ctx, adminclient.SectionAppointments); err != nil {
		return err
	}
	list, err := a.client.Appointments(ctx, appointments.Status(*status))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tEMAIL\tDATE\tSTATUS")
	for _, ap := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s %s\t%s\n", ap.ID, ap.CompanyName, ap.Email, ap.PreferredDate, ap.PreferredTime, ap.Status)
	}
	return tw.Flush()
}

func (a *app) appointmentStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("appointment-status", flag.ContinueOnError)
	id := fs.Int("id", 0, "appointment id")
	status := fs.String("status", "", strings.Join(statusNames(), " | "))
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 || *status == "" {
		return errors.New("id and status are required")
	}

	if _, err := a.shell.Navigate(ctx, adminclient.SectionAppointments); err != nil {
		return err
	}
	updated, err := a.client.UpdateAppointmentStatus(ctx, *id, appointments.Status(*status))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "appointment %d is now %s\n", updated.ID, updated.Status)
	return nil
}

func statusNames() []string {
	names := make([]string, 0, len(appointments.Statuses))
	for _, s := range appointments.Statuses {
		names = append(names, string(s))
	}
	return names
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
