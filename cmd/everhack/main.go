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

	apiclient "github.com/Chakshu098/Everhack-final/pkg/api/client"
	"github.com/Chakshu098/Everhack-final/pkg/config"
)

type cliConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AccessToken string `json:"access_token"`
	Email       string `json:"email,omitempty"`
}

var buildVersion = "dev"

const requestTimeout = 15 * time.Second

var errNotLoggedIn = errors.New("please login first using 'everhack login'")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "login":
		err = commandLogin(args)
	case "signup":
		err = commandSignup(args)
	case "logout":
		err = commandLogout(args)
	case "whoami":
		err = commandWhoami(args)
	case "events":
		err = commandEvents(args)
	case "register":
		err = commandRegister(args)
	case "cancel":
		err = commandCancel(args)
	case "registrations":
		err = commandRegistrations(args)
	case "teams":
		err = commandTeams(args)
	case "leaderboard":
		err = commandLeaderboard(args)
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

func readPassword(given string) (string, error) {
	if secret := strings.TrimSpace(given); secret != "" {
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

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readPassword(*password)
	if err != nil {
		return err
	}

	cfg, client, err := openClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccessToken = resp.Tokens.AccessToken
	cfg.Email = resp.User.Email
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", resp.User.Email, resp.User.Role)
	return nil
}

func commandSignup(args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Full name")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readPassword(*password)
	if err != nil {
		return err
	}

	cfg, client, err := openClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Signup(ctx, *email, secret, *name)
	if err != nil {
		return err
	}
	cfg.AccessToken = resp.Tokens.AccessToken
	cfg.Email = resp.User.Email
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("account created for %s\n", resp.User.Email)
	return nil
}

func commandLogout(args []string) error {
	cfg, client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := client.Logout(ctx, token); err != nil {
		var apiErr apiclient.APIError
		if !errors.As(err, &apiErr) {
			return err
		}
	}
	cfg.AccessToken = ""
	cfg.Email = ""
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func commandWhoami(args []string) error {
	_, client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, err := client.Me(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\t%s\t%d pts\n", user.ID, user.Email, user.Role, user.Points)
	return nil
}

func commandEvents(args []string) error {
	if len(args) > 0 && args[0] == "show" {
		return eventShow(args[1:])
	}
	if len(args) > 0 && args[0] == "list" {
		args = args[1:]
	}
	fs := flag.NewFlagSet("events list", flag.ExitOnError)
	kind := fs.String("type", "", "Filter by type (Hackathon|CTF|Workshop)")
	status := fs.String("status", "", "Filter by status (upcoming|ongoing|completed|cancelled)")
	query := fs.String("q", "", "Search title and description")
	fs.Parse(args)

	_, client, err := openClient("")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	events, err := client.ListEvents(ctx, apiclient.EventFilter{Type: *kind, Status: *status, Query: *query})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tSTATUS\tSEATS")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\n", e.ID, e.Title, e.EventType, e.Status, e.Participants, e.MaxParticipants)
	}
	return tw.Flush()
}

func eventShow(args []string) error {
	fs := flag.NewFlagSet("events show", flag.ExitOnError)
	eventID := fs.String("event", "", "Event identifier")
	fs.Parse(args)
	if strings.TrimSpace(*eventID) == "" {
		return errors.New("--event is required")
	}

	_, client, err := openClient("")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	evt, err := client.GetEvent(ctx, *eventID)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", evt.Title, evt.EventType)
	fmt.Printf("  %s\n", evt.Description)
	fmt.Printf("  when:     %s to %s\n", evt.StartDate, evt.EndDate)
	fmt.Printf("  where:    %s\n", evt.Location)
	fmt.Printf("  seats:    %d/%d\n", evt.Participants, evt.MaxParticipants)
	fmt.Printf("  prize:    %s\n", evt.PrizePool)
	fmt.Printf("  status:   %s\n", evt.Status)
	return nil
}

func commandRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	eventID := fs.String("event", "", "Event identifier")
	fs.Parse(args)
	if strings.TrimSpace(*eventID) == "" {
		return errors.New("--event is required")
	}

	_, client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	reg, err := client.Register(ctx, token, *eventID)
	if err != nil {
		return err
	}
	fmt.Printf("registered for %s (registration %s)\n", reg.EventID, reg.ID)
	return nil
}

func commandCancel(args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	eventID := fs.String("event", "", "Event identifier")
	fs.Parse(args)
	if strings.TrimSpace(*eventID) == "" {
		return errors.New("--event is required")
	}

	_, client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	removed, err := client.CancelRegistration(ctx, token, *eventID)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Println("not registered for that event")
		return nil
	}
	fmt.Println("registration cancelled")
	return nil
}

func commandRegistrations(args []string) error {
	_, client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	regs, err := client.ListRegistrations(ctx, token)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT\tTITLE\tSTATUS\tREGISTERED")
	for _, r := range regs {
		title := "(deleted)"
		if r.Event != nil {
			title = r.Event.Title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.EventID, title, r.Status, r.RegistrationDate.Format(time.RFC3339))
	}
	return tw.Flush()
}

func commandTeams(args []string) error {
	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list":
		return teamList(args)
	case "create":
		return teamCreate(args)
	case "join":
		return teamJoin(args)
	default:
		return fmt.Errorf("unknown teams command: %s", sub)
	}
}

func teamList(args []string) error {
	fs := flag.NewFlagSet("teams list", flag.ExitOnError)
	eventID := fs.String("event", "", "Only show teams for this event")
	fs.Parse(args)

	_, client, err := openClient("")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	teams, err := client.ListTeams(ctx, *eventID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEVENT\tMEMBERS\tLOOKING FOR")
	for _, t := range teams {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n", t.ID, t.Name, t.EventID, len(t.Members), t.Capacity(), strings.Join(t.LookingFor, ", "))
	}
	return tw.Flush()
}

func teamCreate(args []string) error {
	fs := flag.NewFlagSet("teams create", flag.ExitOnError)
	eventID := fs.String("event", "", "Event identifier")
	name := fs.String("name", "", "Team name")
	desc := fs.String("description", "", "Short pitch")
	looking := fs.String("looking-for", "", "Comma separated roles wanted")
	size := fs.Int("max", 0, "Maximum members (default 4)")
	fs.Parse(args)

	if strings.TrimSpace(*eventID) == "" {
		return errors.New("--event is required")
	}
	if strings.TrimSpace(*name) == "" {
		return errors.New("--name is required")
	}

	_, client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	team, err := client.CreateTeam(ctx, token, apiclient.CreateTeamInput{
		Name:        *name,
		EventID:     *eventID,
		Description: *desc,
		LookingFor:  splitList(*looking),
		MaxMembers:  *size,
	})
	if err != nil {
		return err
	}
	fmt.Printf("team created: %s (%s)\n", team.ID, team.Name)
	return nil
}

func teamJoin(args []string) error {
	fs := flag.NewFlagSet("teams join", flag.ExitOnError)
	teamID := fs.String("team", "", "Team identifier")
	fs.Parse(args)
	if strings.TrimSpace(*teamID) == "" {
		return errors.New("--team is required")
	}

	_, client, token, err := authedClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	team, err := client.JoinTeam(ctx, token, *teamID)
	if err != nil {
		return err
	}
	fmt.Printf("joined %s (%d/%d members)\n", team.Name, len(team.Members), team.Capacity())
	return nil
}

func commandLeaderboard(args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	limit := fs.Int("limit", 0, "Number of entries (server default when 0)")
	fs.Parse(args)

	_, client, err := openClient("")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	entries, err := client.Leaderboard(ctx, *limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tPOINTS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", e.Rank, e.Name, e.Points)
	}
	return tw.Flush()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// openClient loads the saved config and builds a client, letting apiBase
// override the stored URL.
func openClient(apiBase string) (cliConfig, *apiclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cliConfig{}, nil, err
	}
	if strings.TrimSpace(apiBase) != "" {
		cfg.APIBaseURL = strings.TrimSpace(apiBase)
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return cliConfig{}, nil, err
	}
	return cfg, client, nil
}

func authedClient() (cliConfig, *apiclient.Client, string, error) {
	cfg, client, err := openClient("")
	if err != nil {
		return cliConfig{}, nil, "", err
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return cliConfig{}, nil, "", errNotLoggedIn
	}
	return cfg, client, token, nil
}

func loadConfig() (cliConfig, error) {
	defaults := config.LoadCLIConfig()
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: defaults.APIBaseURL}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaults.APIBaseURL
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
	return filepath.Join(base, "everhack", "config.json"), nil
}

func printUsage() {
	fmt.Printf("everhack CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	everhack login --email user@example.com [--password secret] [--api http://localhost:4000]
	everhack signup --email user@example.com --name "Full Name" [--password secret]
	everhack logout
	everhack whoami
	everhack events [list] [--type CTF] [--status upcoming] [--q text]
	everhack events show --event <event-id>
	everhack register --event <event-id>
	everhack cancel --event <event-id>
	everhack registrations
	everhack teams [list] [--event <event-id>]
	everhack teams create --event <event-id> --name <name> [--description text] [--looking-for a,b] [--max N]
	everhack teams join --team <team-id>
	everhack leaderboard [--limit N]
	everhack version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
