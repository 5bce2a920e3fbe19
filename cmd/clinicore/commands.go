package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/clinicore/clinicore-go/auth"
	"github.com/clinicore/clinicore-go/gateway"
	"github.com/clinicore/clinicore-go/internal/config"
	"github.com/clinicore/clinicore-go/routeguard"
	"github.com/clinicore/clinicore-go/session"
)

// app holds the wired-up client pieces for one CLI invocation.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	client     *gateway.Client
	controller *auth.Controller
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx)
	case "register":
		return a.cmdRegister(ctx)
	case "logout":
		a.controller.Logout()
		fmt.Println("Signed out.")
		return nil
	case "whoami":
		return a.cmdWhoami(ctx)
	case "status":
		return a.cmdStatus()
	case "open":
		return a.cmdOpen(args)
	case "doctors":
		return a.cmdDoctors(ctx)
	case "appointments":
		return a.cmdAppointments(ctx)
	case "export-history":
		return a.cmdExportHistory(ctx)
	default:
		usage()
		return errors.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdLogin(ctx context.Context) error {
	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	user, err := a.controller.Login(ctx, gateway.Credentials{Email: email, Password: password})
	if err != nil {
		return errors.New(gateway.ServerMessage(err, "Login failed"))
	}

	fmt.Printf("Signed in as %s (%s).\n", user.Email, user.Role)
	fmt.Printf("Your dashboard: %s\n", routeguard.HomeFor(user.Role))
	return nil
}

func (a *app) cmdRegister(ctx context.Context) error {
	reg := gateway.Registration{}
	var err error
	if reg.Email, err = promptLine("Email: "); err != nil {
		return err
	}
	if reg.Password, err = promptPassword("Password: "); err != nil {
		return err
	}
	if reg.Name, err = promptLine("Full name: "); err != nil {
		return err
	}
	ageStr, err := promptLine("Age: ")
	if err != nil {
		return err
	}
	if reg.Age, err = strconv.Atoi(strings.TrimSpace(ageStr)); err != nil {
		return errors.New("age must be a number")
	}
	if reg.Gender, err = promptLine("Gender: "); err != nil {
		return err
	}
	if reg.Phone, err = promptLine("Phone: "); err != nil {
		return err
	}

	result, err := a.controller.Register(ctx, reg)
	if err != nil {
		return errors.New(gateway.ServerMessage(err, "Registration failed"))
	}
	fmt.Println(result.Message)
	fmt.Println("You can now sign in with `clinicore login`.")
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	user, err := a.controller.FetchCurrentUser(ctx)
	if err != nil {
		if errors.Is(err, gateway.ErrSessionExpired) {
			return errors.New("session expired, please log in again")
		}
		return errors.New(gateway.ServerMessage(err, "Failed to fetch user"))
	}

	fmt.Printf("ID:    %d\n", user.ID)
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Role:  %s\n", user.Role)
	if len(user.Profile) > 0 {
		fmt.Printf("Profile: %s\n", user.Profile)
	}
	return nil
}

// cmdStatus reports local session state only; it never calls the API. The
// expiry shown is decoded from the token without verification, purely for
// display — the client itself treats tokens as opaque.
func (a *app) cmdStatus() error {
	sess := a.controller.Current()
	if !sess.Authenticated() {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Println("Signed in.")
	if sess.User != nil {
		fmt.Printf("User:  %s (%s)\n", sess.User.Email, sess.User.Role)
	}
	fmt.Printf("Store: %s\n", a.cfg.SessionStore)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			remaining := time.Until(exp.Time).Round(time.Second)
			if remaining > 0 {
				fmt.Printf("Access token expires in %s\n", remaining)
			} else {
				fmt.Println("Access token expired (will refresh on next call)")
			}
		}
	}
	return nil
}

// routes mirrors the web application's route table.
var routes = map[string]routeguard.Route{
	"home":    {},
	"login":   {},
	"admin":   {RequiresAuth: true, Role: session.RoleAdmin},
	"doctor":  {RequiresAuth: true, Role: session.RoleDoctor},
	"patient": {RequiresAuth: true, Role: session.RolePatient},
}

func (a *app) cmdOpen(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: clinicore open <home|login|admin|doctor|patient>")
	}
	route, ok := routes[args[0]]
	if !ok {
		return errors.Errorf("unknown route %q", args[0])
	}

	decision := routeguard.Decide(route, a.controller.Current())
	if decision.Allow {
		fmt.Printf("Opening %s.\n", args[0])
		return nil
	}
	fmt.Printf("Redirected to %s.\n", decision.Redirect)
	return nil
}

func (a *app) cmdDoctors(ctx context.Context) error {
	sess := a.controller.Current()

	var doctors []gateway.Doctor
	var err error
	if sess.IsAdmin() {
		doctors, err = a.client.Admin().Doctors(ctx)
	} else {
		doctors, err = a.client.Patient().Doctors(ctx, gateway.DoctorFilter{})
	}
	if err != nil {
		return errors.New(gateway.ServerMessage(err, "Failed to list doctors"))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSPECIALIZATION\tEXPERIENCE")
	for _, d := range doctors {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d years\n", d.ID, d.Name, d.Specialization, d.Experience)
	}
	return w.Flush()
}

func (a *app) cmdAppointments(ctx context.Context) error {
	sess := a.controller.Current()

	var appointments []gateway.Appointment
	var err error
	switch {
	case sess.IsAdmin():
		appointments, err = a.client.Admin().Appointments(ctx)
	case sess.IsDoctor():
		appointments, err = a.client.Doctor().Appointments(ctx, gateway.AppointmentFilter{})
	default:
		appointments, err = a.client.Patient().Appointments(ctx, gateway.AppointmentFilter{})
	}
	if err != nil {
		return errors.New(gateway.ServerMessage(err, "Failed to list appointments"))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTIME\tDOCTOR\tPATIENT\tSTATUS")
	for _, ap := range appointments {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			ap.ID, ap.AppointmentDate, ap.AppointmentTime, ap.DoctorName, ap.PatientName, ap.Status)
	}
	return w.Flush()
}

func (a *app) cmdExportHistory(ctx context.Context) error {
	task, err := a.client.Patient().StartHistoryExport(ctx)
	if err != nil {
		return errors.New(gateway.ServerMessage(err, "Failed to start export"))
	}
	fmt.Printf("Export started (task %s), waiting...\n", task.TaskID)

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		status, err := a.client.Patient().HistoryExportStatus(ctx, task.TaskID)
		if err != nil {
			return errors.New(gateway.ServerMessage(err, "Failed to poll export"))
		}
		switch status.State {
		case "SUCCESS":
			fmt.Println("Export complete.")
			return nil
		case "FAILURE":
			return errors.New("export failed")
		}
		time.Sleep(time.Second)
	}
	return errors.New("timed out waiting for export")
}

func promptLine(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal, and falls
// back to a plain line read otherwise (pipes, tests).
func promptPassword(label string) (string, error) {
	fmt.Print(label)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLineRaw()
	}
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	return string(raw), nil
}

func promptLineRaw() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "read input")
	}
	return strings.TrimSpace(line), nil
}
