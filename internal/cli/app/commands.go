package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/kantorkita/backoffice/pkg/backofficesdk"
	"github.com/kantorkita/backoffice/pkg/slogx"
)

const usage = `usage: backoffice <command> [args]

commands:
  login <username>       authenticate and persist the session
  logout                 revoke the session and clear local state
  whoami                 show the logged-in user
  vendors [status]       list vendors, optionally filtered by status
  vehicles               list fleet vehicles
  reservations           list car reservations
  attendance [from] [to] list attendance records (dates YYYY-MM-DD)
  permissions [status]   list permission requests
  telegram               show notification bot status
  agents                 list monitored agents
  watch-agents           follow live agent status events (Ctrl-C to stop)
  docs [days]            list documents expiring within N days (default 30)
`

// Run dispatches one CLI command.
func (app *Application) Run(ctx context.Context, args []string) error {
	ctx = slogx.WithContext(ctx, app.logger)

	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return app.cmdLogin(ctx, rest)
	case "logout":
		return app.cmdLogout(ctx)
	case "whoami":
		return app.cmdWhoami(ctx)
	case "vendors":
		return app.cmdVendors(ctx, rest)
	case "vehicles":
		return app.cmdVehicles(ctx)
	case "reservations":
		return app.cmdReservations(ctx)
	case "attendance":
		return app.cmdAttendance(ctx, rest)
	case "permissions":
		return app.cmdPermissions(ctx, rest)
	case "telegram":
		return app.cmdTelegram(ctx)
	case "agents":
		return app.cmdAgents(ctx)
	case "watch-agents":
		return app.cmdWatchAgents(ctx)
	case "docs":
		return app.cmdDocs(ctx, rest)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (app *Application) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: backoffice login <username>")
	}
	username := args[0]

	fmt.Fprint(os.Stderr, "password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	session, err := app.client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	user := session.User()
	fmt.Printf("logged in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (app *Application) cmdLogout(ctx context.Context) error {
	session, err := app.client.Restore(ctx)
	if err != nil {
		fmt.Println("not logged in")
		return nil
	}
	if err := session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func (app *Application) cmdWhoami(ctx context.Context) error {
	session, err := app.session(ctx)
	if err != nil {
		return err
	}

	user := session.User()
	fmt.Printf("user:          %s\n", user.Username)
	fmt.Printf("role:          %s\n", user.Role)
	if last := session.LastActivity(); !last.IsZero() {
		fmt.Printf("last activity: %s\n", last.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (app *Application) cmdVendors(ctx context.Context, args []string) error {
	session, err := app.session(ctx)
	if err != nil {
		return err
	}

	params := backofficesdk.VendorListParams{}
	if len(args) > 0 {
		params.Status = args[0]
	}

	vendors, page, err := session.ListVendors(ctx, params)
	if err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tCONTACT\tSTATUS")
	for _, v := range vendors {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", v.ID, v.Name, v.ContactName, v.Status)
	}
	flushTable(w, page)
	return nil
}

func (app *Application) cmdVehicles(ctx context.Context) error {
	session, err := app.session(ctx)
	if err != nil {
		return err
	}

	vehicles, page, err := session.ListVehicles(ctx)
	if err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tPLATE\tMODEL\tCAPACITY\tSTATUS")
	for _, v := range vehicles {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", v.ID, v.PlateNumber, v.Model, v.Capacity, v.Status)
	}
	flushTable(w, page)
	return nil
}

func (app *Application) cmdReservations(ctx context.Context) error {
	session, err := app.session(ctx)
	if err != nil {
		return err
	}

	reservations, page, err := session.ListReservations(ctx, backofficesdk.ReservationListParams{})
	if err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tVEHICLE\tUSER\tSTART\tEND\tSTATUS")
	for _, r := range reservations {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n", r.ID, r.VehicleID, r.UserID, r.StartAt, r.EndAt, r.Status)
	}
	flushTable(w, page)
	return nil
}

func (app *Application) cmdAttendance(ctx context.Context, args []string) error {
	session, err := app.session(ctx)
	if err != nil {
		return err
	}

	params := backofficesdk.AttendanceListParams{}
	if len(args) > 0 {
		params.From = args[0]
	}
	if len(args) > 1 {
		params.To = args[1]
	}

	records, page, err := session.ListAttendance(ctx, params)
	if err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "EMPLOYEE\tDATE\tIN\tOUT\tSTATUS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.EmployeeName, r.Date, r.CheckIn, r.CheckOut, r.Status)
	}
	flushTable(w, page)
	return nil
}

func (app *Application) cmdPermissions(ctx context.Context, args []string) error {
	session, err := app.session(ctx)
	if err != nil {
		return err
	}

	params := backofficesdk.PermissionListParams{}
	if len(args) > 0 {
		params.Status = args[0]
	}

	requests, page, err := session.ListPermissionRequests(ctx, params)
	if err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tEMPLOYEE\tTYPE\tFROM\tTO\tSTATUS")
	for _, r := range requests {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.EmployeeName, r.Type, r.StartDate, r.EndDate, r.Status)
	}
	flushTable(w, page)
	return nil
}

func (app *Application) cmdTelegram(ctx context.Context) error {
	session, err := app.session(ctx)
	if err != nil {
		return err
	}

	status, err := session.TelegramStatus(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("bot:       %s\n", status.BotUsername)
	fmt.Printf("connected: %t\n", status.Connected)
	fmt.Printf("pending:   %d\n", status.PendingUpdates)
	return nil
}

func (app *Application) cmdAgents(ctx context.Context) error {
	session, err := app.session(ctx)
	if err != nil {
		return err
	}

	agents, _, err := session.ListAgents(ctx)
	if err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tHOST\tSTATUS\tLAST HEARTBEAT")
	for _, a := range agents {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Host, a.Status, a.LastHeartbeat)
	}
	flushTable(w, nil)
	return nil
}

func (app *Application) cmdWatchAgents(ctx context.Context) error {
	session, err := app.session(ctx)
	if err != nil {
		return err
	}

	stream, err := session.StreamAgentEvents(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Fprintln(os.Stderr, "watching agent events, Ctrl-C to stop")
	for ev := range stream.Events() {
		fmt.Printf("%s\tagent=%s\tstatus=%s\n", ev.Type, ev.AgentID, ev.Status)
	}
	return stream.Err()
}

func (app *Application) cmdDocs(ctx context.Context, args []string) error {
	session, err := app.session(ctx)
	if err != nil {
		return err
	}

	withinDays := 30
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid day count %q", args[0])
		}
		withinDays = d
	}

	docs, page, err := session.ListExpiringDocuments(ctx, withinDays)
	if err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tDOCUMENT\tOWNER\tEXPIRES\tDAYS LEFT")
	for _, d := range docs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", d.ID, d.Name, d.OwnerName, d.ExpiresAt, d.DaysRemaining)
	}
	flushTable(w, page)
	return nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func flushTable(w *tabwriter.Writer, page *backofficesdk.Pagination) {
	_ = w.Flush()
	if page != nil && page.TotalPages > 1 {
		fmt.Printf("page %d of %d (%d items)\n", page.Page, page.TotalPages, page.TotalItems)
	}
}
