// Package shell implements the interactive TaskKeeper command loop.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/atinyakov/TaskKeeper/internal/client/api"
	"github.com/atinyakov/TaskKeeper/internal/client/session"
	"github.com/atinyakov/TaskKeeper/internal/models"
)

const helpText = `Available commands:
  register            create an account and log in
  login               log in with email and password
  logout              forget the saved session
  whoami              show the saved session
  profile [edit]      show or edit your profile
  tasks               list your tasks
  add                 create a task
  get <id>            show a task
  update <id>         edit a task (blank input keeps a field)
  delete <id>         delete a task
  all                 list every task (admin)
  users               list users (admin)
  deluser <id>        delete a user and their tasks (admin)
  help, exit`

// Shell reads commands line by line and calls the API.
type Shell struct {
	API   *api.Client
	Store session.Store

	in      *bufio.Scanner
	out     io.Writer
	session *api.Session
}

// New returns a Shell reading from in and writing to out.
func New(client *api.Client, store session.Store, in io.Reader, out io.Writer) *Shell {
	return &Shell{API: client, Store: store, in: bufio.NewScanner(in), out: out}
}

// Run restores the saved session and processes commands until "exit" or
// end of input.
func (s *Shell) Run(ctx context.Context) error {
	sess, err := s.Store.Load()
	if err != nil {
		fmt.Fprintln(s.out, "ignoring unreadable session:", err)
	}
	if sess != nil {
		s.session = sess
		s.API.Token = sess.Token
		fmt.Fprintf(s.out, "Logged in as %s <%s>\n", sess.Name, sess.Email)
	}

	for {
		fmt.Fprint(s.out, "taskkeeper> ")
		if !s.in.Scan() {
			return s.in.Err()
		}
		args := strings.Fields(s.in.Text())
		if len(args) == 0 {
			continue
		}
		if s.Exec(ctx, args) {
			return nil
		}
	}
}

// Exec runs a single command and reports whether the shell should stop.
func (s *Shell) Exec(ctx context.Context, args []string) bool {
	var err error
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "exit", "quit":
		fmt.Fprintln(s.out, "Bye")
		return true
	case "register":
		err = s.register(ctx)
	case "login":
		err = s.login(ctx)
	case "logout":
		err = s.logout()
	case "whoami":
		s.whoami()
	case "profile":
		if len(args) > 1 && args[1] == "edit" {
			err = s.editProfile(ctx)
		} else {
			err = s.profile(ctx)
		}
	case "tasks":
		err = s.listTasks(ctx)
	case "add":
		err = s.addTask(ctx)
	case "all":
		err = s.listAllTasks(ctx)
	case "users":
		err = s.listUsers(ctx)
	case "get", "update", "delete", "deluser":
		if len(args) < 2 {
			fmt.Fprintf(s.out, "Usage: %s <id>\n", args[0])
			return false
		}
		err = s.withID(ctx, args[0], args[1])
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	if err != nil {
		fmt.Fprintln(s.out, "Error:", err)
	}
	return false
}

func (s *Shell) withID(ctx context.Context, cmd, id string) error {
	switch cmd {
	case "get":
		t, err := s.API.GetTask(ctx, id)
		if err != nil {
			return err
		}
		s.printTask(t)
	case "update":
		t, err := s.API.UpdateTask(ctx, id, s.promptTaskUpdate())
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Task updated")
		s.printTask(t)
	case "delete":
		if err := s.API.DeleteTask(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Task removed")
	case "deluser":
		n, err := s.API.DeleteUser(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "User removed (%d tasks deleted)\n", n)
	}
	return nil
}

// ask prints label and returns the trimmed next line.
func (s *Shell) ask(label string) string {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return ""
	}
	return strings.TrimSpace(s.in.Text())
}

func (s *Shell) remember(sess *api.Session) error {
	s.session = sess
	return s.Store.Save(sess)
}

func (s *Shell) register(ctx context.Context) error {
	name := s.ask("Name: ")
	email := s.ask("Email: ")
	password := s.ask("Password: ")
	admin := strings.EqualFold(s.ask("Administrator? [y/N]: "), "y")

	sess, err := s.API.Register(ctx, name, email, password, admin)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Registered %s <%s>\n", sess.Name, sess.Email)
	return s.remember(sess)
}

func (s *Shell) login(ctx context.Context) error {
	email := s.ask("Email: ")
	password := s.ask("Password: ")

	sess, err := s.API.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Welcome, %s\n", sess.Name)
	return s.remember(sess)
}

func (s *Shell) logout() error {
	s.session = nil
	s.API.Token = ""
	if err := s.Store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Logged out")
	return nil
}

func (s *Shell) whoami() {
	if s.session == nil {
		fmt.Fprintln(s.out, "Not logged in")
		return
	}
	role := "user"
	if s.session.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(s.out, "%s <%s> (%s) id=%s\n", s.session.Name, s.session.Email, role, s.session.ID)
}

func (s *Shell) profile(ctx context.Context) error {
	p, err := s.API.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "ID:    %s\nName:  %s\nEmail: %s\nAdmin: %t\n", p.ID, p.Name, p.Email, p.IsAdmin)
	return nil
}

func (s *Shell) editProfile(ctx context.Context) error {
	fields := map[string]any{}
	if v := s.ask("New name (blank to keep): "); v != "" {
		fields["name"] = v
	}
	if v := s.ask("New email (blank to keep): "); v != "" {
		fields["email"] = v
	}
	if v := s.ask("New password (blank to keep): "); v != "" {
		fields["password"] = v
	}

	sess, err := s.API.UpdateProfile(ctx, fields)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Profile updated")
	return s.remember(sess)
}

func (s *Shell) addTask(ctx context.Context) error {
	fields := map[string]any{
		"title":       s.ask("Title: "),
		"description": s.ask("Description: "),
	}
	if v := s.ask("Priority (low/medium/high, blank for medium): "); v != "" {
		fields["priority"] = v
	}
	if v := s.ask("Due date (YYYY-MM-DD, blank for none): "); v != "" {
		fields["dueDate"] = v
	}

	t, err := s.API.CreateTask(ctx, fields)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Task created")
	s.printTask(t)
	return nil
}

// promptTaskUpdate collects only the fields the user typed something for.
// "-" as the due date clears it.
func (s *Shell) promptTaskUpdate() map[string]any {
	fields := map[string]any{}
	for _, f := range []struct{ key, label string }{
		{"title", "Title"},
		{"description", "Description"},
		{"status", "Status (pending/in-progress/completed)"},
		{"priority", "Priority (low/medium/high)"},
	} {
		if v := s.ask(f.label + ": "); v != "" {
			fields[f.key] = v
		}
	}
	switch v := s.ask("Due date (YYYY-MM-DD, - to clear): "); v {
	case "":
	case "-":
		fields["dueDate"] = nil
	default:
		fields["dueDate"] = v
	}
	return fields
}

func (s *Shell) listTasks(ctx context.Context) error {
	tasks, err := s.API.ListTasks(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(s.out, "No tasks")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, due(t.DueDate), t.Title)
	}
	return tw.Flush()
}

func (s *Shell) listAllTasks(ctx context.Context) error {
	tasks, err := s.API.ListAllTasks(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOWNER\tSTATUS\tPRIORITY\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.OwnerInfo.Name, t.Status, t.Priority, t.Title)
	}
	return tw.Flush()
}

func (s *Shell) listUsers(ctx context.Context) error {
	users, err := s.API.ListUsers(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tADMIN")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.IsAdmin)
	}
	return tw.Flush()
}

func (s *Shell) printTask(t *models.Task) {
	fmt.Fprintf(s.out, "ID:          %s\nTitle:       %s\nDescription: %s\nStatus:      %s\nPriority:    %s\nDue:         %s\n",
		t.ID, t.Title, t.Description, t.Status, t.Priority, due(t.DueDate))
}

func due(d *models.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
