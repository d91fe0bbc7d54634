package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Chakshu098/Everhack-final/internal/domain"
)

// Client provides typed access to the EverHack API for interactive tools.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:4000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg := extractError(resp.Body)
		return APIError{Status: resp.StatusCode, Message: msg}
	}

	if v == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// LoginResponse captures the token payload emitted by the API.
type LoginResponse struct {
	User   domain.User `json:"user"`
	Tokens TokenPair   `json:"tokens"`
}

// TokenPair carries the bearer token bound to a server-side session.
type TokenPair struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   time.Duration `json:"expires_in"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, "", &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// Signup creates an account and returns its first token.
func (c *Client) Signup(ctx context.Context, email, password, fullName string) (LoginResponse, error) {
	body := map[string]string{
		"email":     email,
		"password":  password,
		"full_name": fullName,
	}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, "", &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// Logout ends the session behind token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, token, nil)
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context, token string) (domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, token, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// EventFilter narrows ListEvents. Empty fields match everything.
type EventFilter struct {
	Type   string
	Status string
	Query  string
}

func (f EventFilter) encode() string {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListEvents returns the event catalogue.
func (c *Client) ListEvents(ctx context.Context, filter EventFilter) ([]domain.Event, error) {
	var events []domain.Event
	if err := c.do(ctx, http.MethodGet, "/events"+filter.encode(), nil, "", &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent fetches one event.
func (c *Client) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	path := fmt.Sprintf("/events/%s", url.PathEscape(eventID))
	var evt domain.Event
	if err := c.do(ctx, http.MethodGet, path, nil, "", &evt); err != nil {
		return domain.Event{}, err
	}
	return evt, nil
}

// Register signs the caller up for an event.
func (c *Client) Register(ctx context.Context, token, eventID string) (domain.Registration, error) {
	path := fmt.Sprintf("/events/%s/registration", url.PathEscape(eventID))
	var reg domain.Registration
	if err := c.do(ctx, http.MethodPost, path, nil, token, &reg); err != nil {
		return domain.Registration{}, err
	}
	return reg, nil
}

// CancelRegistration withdraws the caller from an event. It reports whether
// a registration existed.
func (c *Client) CancelRegistration(ctx context.Context, token, eventID string) (bool, error) {
	path := fmt.Sprintf("/events/%s/registration", url.PathEscape(eventID))
	var resp struct {
		Removed bool `json:"removed"`
	}
	if err := c.do(ctx, http.MethodDelete, path, nil, token, &resp); err != nil {
		return false, err
	}
	return resp.Removed, nil
}

// MyRegistration is a registration joined with its event.
type MyRegistration struct {
	domain.Registration
	Event *domain.Event `json:"event,omitempty"`
}

// ListRegistrations returns the caller's registrations.
func (c *Client) ListRegistrations(ctx context.Context, token string) ([]MyRegistration, error) {
	var regs []MyRegistration
	if err := c.do(ctx, http.MethodGet, "/registrations", nil, token, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// ListTeams returns teams, optionally restricted to one event.
func (c *Client) ListTeams(ctx context.Context, eventID string) ([]domain.Team, error) {
	path := "/teams"
	if strings.TrimSpace(eventID) != "" {
		path += "?event_id=" + url.QueryEscape(eventID)
	}
	var teams []domain.Team
	if err := c.do(ctx, http.MethodGet, path, nil, "", &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// CreateTeamInput captures the payload for team creation.
type CreateTeamInput struct {
	Name        string   `json:"name"`
	EventID     string   `json:"event_id"`
	Description string   `json:"description,omitempty"`
	LookingFor  []string `json:"looking_for,omitempty"`
	MaxMembers  int      `json:"max_members,omitempty"`
}

// CreateTeam forms a team led by the caller.
func (c *Client) CreateTeam(ctx context.Context, token string, input CreateTeamInput) (domain.Team, error) {
	var team domain.Team
	if err := c.do(ctx, http.MethodPost, "/teams", input, token, &team); err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

// JoinTeam adds the caller to a team.
func (c *Client) JoinTeam(ctx context.Context, token, teamID string) (domain.Team, error) {
	path := fmt.Sprintf("/teams/%s/join", url.PathEscape(teamID))
	var team domain.Team
	if err := c.do(ctx, http.MethodPost, path, nil, token, &team); err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

// Leaderboard returns the top entries of the points table.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	path := "/leaderboard"
	if limit > 0 {
		path = fmt.Sprintf("/leaderboard?limit=%d", limit)
	}
	var entries []domain.LeaderboardEntry
	if err := c.do(ctx, http.MethodGet, path, nil, "", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
