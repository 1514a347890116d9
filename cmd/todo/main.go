package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	apiclient "github.com/vinayak200306/primetrade-assignment/pkg/api/client"
)

const defaultAPIBaseURL = "http://localhost:5000"

type cliConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AccessToken string `json:"access_token"`
	Email       string `json:"email,omitempty"`
}

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "signup":
		err = commandSignup(args)
	case "login":
		err = commandLogin(args)
	case "logout":
		err = commandLogout()
	case "whoami":
		err = commandWhoami()
	case "task":
		err = commandTask(args)
	case "team":
		err = commandTeam(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func commandSignup(args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default "+defaultAPIBaseURL+")")
	fs.Parse(args)

	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*email) == "" {
		return errors.New("--name and --email are required")
	}
	secret, err := readSecret(*password)
	if err != nil {
		return err
	}
	cfg, client, err := connect(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	resp, err := client.Signup(ctx, *name, *email, secret)
	if err != nil {
		return err
	}
	return storeSession(cfg, resp, "account created")
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default "+defaultAPIBaseURL+")")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readSecret(*password)
	if err != nil {
		return err
	}
	cfg, client, err := connect(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	resp, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	return storeSession(cfg, resp, "login successful")
}

func commandLogout() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.AccessToken = ""
	cfg.Email = ""
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func commandWhoami() error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	me, err := s.client.Profile(ctx, s.token)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\t%s\n", me.Name, me.Email, me.ID)
	return nil
}

func commandTask(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: todo task [list|add|done|reopen|edit|rm]")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list", "ls":
		return taskList(rest)
	case "add":
		return taskAdd(rest)
	case "done":
		return taskSetStatus(rest, "completed")
	case "reopen":
		return taskSetStatus(rest, "pending")
	case "edit":
		return taskEdit(rest)
	case "rm", "delete":
		return taskDelete(rest)
	default:
		return fmt.Errorf("unknown task command: %s", sub)
	}
}

func taskList(args []string) error {
	fs := flag.NewFlagSet("task list", flag.ExitOnError)
	search := fs.String("search", "", "Case-insensitive title filter")
	status := fs.String("status", "", "pending or completed")
	from := fs.String("from", "", "Due on or after (YYYY-MM-DD), requires --to")
	to := fs.String("to", "", "Due on or before (YYYY-MM-DD), requires --from")
	fs.Parse(args)

	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	tasks, err := s.client.ListTasks(ctx, s.token, apiclient.TaskQuery{Search: *search, Status: *status, From: *from, To: *to})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tDUE\tTEAM\tTITLE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		team := "-"
		if t.Team != nil {
			team = *t.Team
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, due, team, t.Title)
	}
	return w.Flush()
}

func taskAdd(args []string) error {
	fs := flag.NewFlagSet("task add", flag.ExitOnError)
	description := fs.String("description", "", "Longer description")
	team := fs.String("team", "", "Team identifier for a shared task")
	due := fs.String("due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	fs.Parse(args)

	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		return errors.New("usage: todo task add [--team id] [--due date] <title>")
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	created, err := s.client.CreateTask(ctx, s.token, apiclient.CreateTaskInput{
		Title:       title,
		Description: *description,
		Team:        *team,
		DueDate:     *due,
	})
	if err != nil {
		return err
	}
	fmt.Printf("task created: %s\n", created.ID)
	return nil
}

func taskSetStatus(args []string, status string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: todo task %s <task-id>", map[string]string{"completed": "done", "pending": "reopen"}[status])
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	updated, err := s.client.UpdateTask(ctx, s.token, args[0], apiclient.TaskPatch{Status: &status})
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\n", updated.ID, updated.Status)
	return nil
}

func taskEdit(args []string) error {
	fs := flag.NewFlagSet("task edit", flag.ExitOnError)
	title := fs.String("title", "", "New title")
	description := fs.String("description", "", "New description")
	due := fs.String("due", "", "New due date (YYYY-MM-DD or RFC 3339)")
	clearDue := fs.Bool("clear-due", false, "Remove the due date")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: todo task edit [--title t] [--description d] [--due date|--clear-due] <task-id>")
	}
	patch := apiclient.TaskPatch{ClearDueDate: *clearDue}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "description":
			patch.Description = description
		case "due":
			patch.DueDate = due
		}
	})
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	updated, err := s.client.UpdateTask(ctx, s.token, fs.Arg(0), patch)
	if err != nil {
		return err
	}
	fmt.Printf("task updated: %s\n", updated.ID)
	return nil
}

func taskDelete(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: todo task rm <task-id>")
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	if err := s.client.DeleteTask(ctx, s.token, args[0]); err != nil {
		return err
	}
	fmt.Println("task deleted")
	return nil
}

func commandTeam(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: todo team [list|create|add-member]")
	}
	sub, rest := args[0], args[1:]
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()

	switch sub {
	case "list", "ls":
		teams, err := s.client.ListTeams(ctx, s.token)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMEMBERS")
		for _, t := range teams {
			emails := make([]string, 0, len(t.Members))
			for _, m := range t.Members {
				emails = append(emails, m.Email)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, strings.Join(emails, ", "))
		}
		return w.Flush()
	case "create":
		name := strings.TrimSpace(strings.Join(rest, " "))
		if name == "" {
			return errors.New("usage: todo team create <name>")
		}
		created, err := s.client.CreateTeam(ctx, s.token, name)
		if err != nil {
			return err
		}
		fmt.Printf("team created: %s\n", created.ID)
		return nil
	case "add-member":
		if len(rest) != 2 {
			return errors.New("usage: todo team add-member <team-id> <email>")
		}
		if err := s.client.AddMember(ctx, s.token, rest[0], rest[1]); err != nil {
			return err
		}
		fmt.Println("member added")
		return nil
	default:
		return fmt.Errorf("unknown team command: %s", sub)
	}
}

type session struct {
	client *apiclient.Client
	token  string
}

func newSession() (session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return session{}, err
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return session{}, errors.New("please login first using 'todo login'")
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return session{}, err
	}
	return session{client: client, token: token}, nil
}

func connect(apiBase string) (cliConfig, *apiclient.Client, error) {
	cfg, _ := loadConfig()
	if strings.TrimSpace(apiBase) != "" {
		cfg.APIBaseURL = strings.TrimSpace(apiBase)
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return cliConfig{}, nil, err
	}
	return cfg, client, nil
}

func storeSession(cfg cliConfig, resp *apiclient.AuthResponse, msg string) error {
	cfg.AccessToken = resp.Token
	cfg.Email = resp.User.Email
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("%s as %s\n", msg, resp.User.Email)
	return nil
}

func readSecret(flagValue string) (string, error) {
	if secret := strings.TrimSpace(flagValue); secret != "" {
		return secret, nil
	}
	fmt.Print("Password: ")
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(bytes), nil
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: defaultAPIBaseURL}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "todo", "config.json"), nil
}

func printUsage() {
	fmt.Printf("todo CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	todo signup --name Ada --email ada@example.com [--password secret] [--api http://localhost:5000]
	todo login --email ada@example.com [--password secret] [--api http://localhost:5000]
	todo logout
	todo whoami
	todo task list [--search text] [--status pending|completed] [--from YYYY-MM-DD --to YYYY-MM-DD]
	todo task add [--description d] [--team <team-id>] [--due YYYY-MM-DD] <title>
	todo task done|reopen <task-id>
	todo task edit [--title t] [--description d] [--due date|--clear-due] <task-id>
	todo task rm <task-id>
	todo team list
	todo team create <name>
	todo team add-member <team-id> <email>
	todo version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
