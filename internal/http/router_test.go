package httpx

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository/kv"
	"github.com/Chakshu098/Everhack-final/internal/service/auth"
	"github.com/Chakshu098/Everhack-final/internal/service/event"
	"github.com/Chakshu098/Everhack-final/internal/service/leaderboard"
	"github.com/Chakshu098/Everhack-final/internal/service/registration"
	"github.com/Chakshu098/Everhack-final/internal/service/team"
	"github.com/Chakshu098/Everhack-final/internal/service/user"
	"github.com/Chakshu098/Everhack-final/internal/store"
	"github.com/Chakshu098/Everhack-final/internal/ws"
	"github.com/Chakshu098/Everhack-final/pkg/config"
	"github.com/Chakshu098/Everhack-final/pkg/crypto"
)

const (
	adminPassword = "EverHack@123"
	demoPassword  = "demo1234"
)

type testEnv struct {
	server *httptest.Server
	hub    *ws.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.APIConfig{
		JWTSecret:      "router-secret",
		AccessTokenTTL: time.Minute,
		AdminEmail:     "admin@everhack.com",
		AdminPassword:  adminPassword,
	}
	demoHash, err := crypto.HashPassword(demoPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	seed := kv.DefaultSeed(kv.SeedCredentials{AdminEmail: cfg.AdminEmail, DemoHash: demoHash}, time.Now().UTC())
	repo := kv.New(store.NewAdapter(store.NewMemory(), log), log, kv.Options{Seed: seed})
	hub := ws.NewHub(log)

	authSvc := auth.New(repo, repo, log, cfg)
	if admin, ok := repo.SeedAdmin(); ok {
		authSvc = authSvc.WithAdmin(admin)
	}
	router := NewRouter(log, Services{
		Auth:          authSvc,
		Events:        event.New(repo, hub, log),
		Registrations: registration.New(repo, repo, hub, log),
		Teams:         team.New(repo, repo, hub, log),
		Users:         user.New(repo, log),
		Leaderboard:   leaderboard.New(repo, log, 10),
	}, hub, NewMemoryRateLimiter(), Options{
		AllowAnyOrigin: true,
		StoreHealth:    func(context.Context) error { return nil },
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		router.Close()
		hub.Close()
	})
	return &testEnv{server: srv, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, status, body)
	}
	var payload struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return payload.Tokens.AccessToken
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK || !strings.Contains(string(body), `"status":"ok"`) {
		t.Fatalf("unexpected healthz: %d %s", status, body)
	}
}

func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t)
	if status, _ := env.do(t, http.MethodGet, "/auth/me", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	if status, _ := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "demo@user.com", "password": "nope"}); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", status)
	}
	token := env.login(t, "demo@user.com", demoPassword)

	status, body := env.do(t, http.MethodGet, "/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me: %d %s", status, body)
	}
	me := decode[domain.User](t, body)
	if me.ID != kv.SeedDemoID || me.PasswordHash != nil {
		t.Fatalf("unexpected me payload: %+v", me)
	}

	status, body = env.do(t, http.MethodPatch, "/auth/profile", token, map[string]any{"bio": "hello", "skills": []string{"go"}})
	if status != http.StatusOK {
		t.Fatalf("profile: %d %s", status, body)
	}
	if updated := decode[domain.User](t, body); updated.Bio != "hello" {
		t.Fatalf("profile not updated: %+v", updated)
	}

	if status, _ := env.do(t, http.MethodPost, "/auth/logout", token, nil); status != http.StatusNoContent {
		t.Fatalf("logout: %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/auth/me", token, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected token revoked after logout, got %d", status)
	}
}

func TestSignupConflicts(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": "new@user.com", "password": "pw", "full_name": "New"})
	if status != http.StatusCreated {
		t.Fatalf("signup: %d %s", status, body)
	}
	if status, _ := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": "new@user.com", "password": "pw"}); status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", status)
	}
	if status, _ := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": "x@user.com"}); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty password, got %d", status)
	}
	long := map[string]string{"email": "long@user.com", "password": strings.Repeat("p", 80)}
	status, body = env.do(t, http.MethodPost, "/auth/signup", "", long)
	if status != http.StatusBadRequest || !strings.Contains(string(body), "72 bytes") {
		t.Fatalf("expected 400 for overlong password, got %d %s", status, body)
	}
}

func TestSignupRateLimited(t *testing.T) {
	env := newTestEnv(t)
	var last int
	for i := 0; i <= rateLimitSignup; i++ {
		last, _ = env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": "bad"})
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after %d signups, got %d", rateLimitSignup, last)
	}
}

func TestEventAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.login(t, "demo@user.com", demoPassword)
	adminToken := env.login(t, "admin@everhack.com", adminPassword)

	input := map[string]any{
		"title":            "Go Night",
		"description":      "Gophers unite",
		"event_type":       "Workshop",
		"start_date":       "2026-05-01",
		"end_date":         "2026-05-01",
		"location":         "Online",
		"max_participants": 20,
		"prize_pool":       "Free",
	}
	if status, _ := env.do(t, http.MethodPost, "/events", "", input); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 anonymous, got %d", status)
	}
	if status, _ := env.do(t, http.MethodPost, "/events", userToken, input); status != http.StatusForbidden {
		t.Fatalf("expected 403 for regular user, got %d", status)
	}
	status, body := env.do(t, http.MethodPost, "/events", adminToken, input)
	if status != http.StatusCreated {
		t.Fatalf("create: %d %s", status, body)
	}
	created := decode[domain.Event](t, body)

	bad := map[string]any{"title": "", "event_type": "Party"}
	status, body = env.do(t, http.MethodPost, "/events", adminToken, bad)
	if status != http.StatusBadRequest || !strings.Contains(string(body), "title") {
		t.Fatalf("expected 400 with field errors, got %d %s", status, body)
	}

	status, body = env.do(t, http.MethodPost, "/events/"+created.ID+"/results", adminToken, nil)
	if status != http.StatusOK || !decode[domain.Event](t, body).ResultsPublished {
		t.Fatalf("toggle results: %d %s", status, body)
	}
	status, body = env.do(t, http.MethodPost, "/events/"+created.ID+"/complete", adminToken, nil)
	if status != http.StatusOK || decode[domain.Event](t, body).Status != domain.EventStatusCompleted {
		t.Fatalf("complete: %d %s", status, body)
	}
	if status, _ := env.do(t, http.MethodDelete, "/events/"+created.ID, adminToken, nil); status != http.StatusNoContent {
		t.Fatalf("delete: %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/events/"+created.ID, "", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}

	status, body = env.do(t, http.MethodGet, "/events?type=ctf", "", nil)
	if status != http.StatusOK {
		t.Fatalf("list: %d", status)
	}
	if events := decode[[]domain.Event](t, body); len(events) != 1 || events[0].ID != "cyber-siege-2026" {
		t.Fatalf("unexpected filtered events: %+v", events)
	}
}

func TestRegistrationRoutes(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "demo@user.com", demoPassword)
	const path = "/events/buildverse-hackathon/registration"

	if status, body := env.do(t, http.MethodPost, path, token, nil); status != http.StatusCreated {
		t.Fatalf("register: %d %s", status, body)
	}
	if status, _ := env.do(t, http.MethodPost, path, token, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", status)
	}
	if status, _ := env.do(t, http.MethodPost, "/events/web3-masterclass/registration", token, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 for completed event, got %d", status)
	}
	status, body := env.do(t, http.MethodGet, "/registrations", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list registrations: %d", status)
	}
	if entries := decode[[]registration.Entry](t, body); len(entries) != 1 || entries[0].Event == nil || entries[0].Event.Participants != 1801 {
		t.Fatalf("unexpected registrations: %s", body)
	}
	status, body = env.do(t, http.MethodDelete, path, token, nil)
	if status != http.StatusOK || !strings.Contains(string(body), `"removed":true`) {
		t.Fatalf("cancel: %d %s", status, body)
	}
	status, body = env.do(t, http.MethodGet, "/events/buildverse-hackathon", "", nil)
	if status != http.StatusOK || decode[domain.Event](t, body).Participants != 1800 {
		t.Fatalf("participants not restored: %s", body)
	}
}

func TestTeamRoutes(t *testing.T) {
	env := newTestEnv(t)
	leader := env.login(t, "demo@user.com", demoPassword)
	admin := env.login(t, "admin@everhack.com", adminPassword)

	status, body := env.do(t, http.MethodPost, "/teams", leader, map[string]any{"name": "Duo", "event_id": "cyber-siege-2026", "max_members": 2})
	if status != http.StatusCreated {
		t.Fatalf("create team: %d %s", status, body)
	}
	created := decode[domain.Team](t, body)
	if status, _ := env.do(t, http.MethodPost, "/teams/"+created.ID+"/join", leader, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 for existing member, got %d", status)
	}
	if status, _ := env.do(t, http.MethodPost, "/teams/"+created.ID+"/join", admin, nil); status != http.StatusOK {
		t.Fatalf("join: %d", status)
	}
	signupStatus, signupBody := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": "third@user.com", "password": "pw"})
	if signupStatus != http.StatusCreated {
		t.Fatalf("signup third: %d %s", signupStatus, signupBody)
	}
	third := decode[struct {
		Tokens auth.TokenPair `json:"tokens"`
	}](t, signupBody).Tokens.AccessToken
	status, body = env.do(t, http.MethodPost, "/teams/"+created.ID+"/join", third, nil)
	if status != http.StatusConflict || !strings.Contains(string(body), "team is full") {
		t.Fatalf("expected team full conflict, got %d %s", status, body)
	}
	if status, _ := env.do(t, http.MethodPost, "/teams/missing/join", third, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown team, got %d", status)
	}
	status, body = env.do(t, http.MethodGet, "/teams?event_id=cyber-siege-2026", "", nil)
	if teams := decode[[]domain.Team](t, body); status != http.StatusOK || len(teams) != 1 || len(teams[0].Members) != 2 {
		t.Fatalf("unexpected teams: %d %s", status, body)
	}
}

func TestUserAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, "admin@everhack.com", adminPassword)
	demo := env.login(t, "demo@user.com", demoPassword)

	if status, _ := env.do(t, http.MethodGet, "/users", demo, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for regular user, got %d", status)
	}
	status, body := env.do(t, http.MethodGet, "/users", admin, nil)
	if status != http.StatusOK || strings.Contains(string(body), "password_hash") {
		t.Fatalf("list users: %d %s", status, body)
	}
	if status, _ := env.do(t, http.MethodDelete, "/users/"+kv.SeedAdminID, admin, nil); status != http.StatusForbidden {
		t.Fatalf("expected 403 for self ban, got %d", status)
	}
	if status, _ := env.do(t, http.MethodDelete, "/users/"+kv.SeedDemoID, admin, nil); status != http.StatusNoContent {
		t.Fatalf("ban: %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/auth/me", demo, nil); status != http.StatusUnauthorized {
		t.Fatalf("expected banned user's token rejected, got %d", status)
	}
}

func TestLeaderboardRoute(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, http.MethodGet, "/leaderboard?limit=1", "", nil)
	if status != http.StatusOK {
		t.Fatalf("leaderboard: %d", status)
	}
	entries := decode[[]domain.LeaderboardEntry](t, body)
	if len(entries) != 1 || entries[0].UserID != kv.SeedAdminID || entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}
}

func TestEventsWebsocketReceivesParticipantUpdates(t *testing.T) {
	env := newTestEnv(t)
	if status, _ := env.do(t, http.MethodGet, "/ws/events", "", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 without event_id, got %d", status)
	}
	if status, _ := env.do(t, http.MethodGet, "/ws/events?event_id=missing", "", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown event, got %d", status)
	}

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/events?event_id=cyber-siege-2026"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("websocket subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	token := env.login(t, "demo@user.com", demoPassword)
	if status, body := env.do(t, http.MethodPost, "/events/cyber-siege-2026/registration", token, nil); status != http.StatusCreated {
		t.Fatalf("register: %d %s", status, body)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var note struct {
		Type    string                    `json:"type"`
		EventID string                    `json:"event_id"`
		Data    registration.Participants `json:"data"`
	}
	if err := json.Unmarshal(msg, &note); err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	if note.Type != ws.TypeParticipants || note.EventID != "cyber-siege-2026" || note.Data.Participants != 2501 {
		t.Fatalf("unexpected notification: %s", msg)
	}
}

func TestEventsSSEReceivesParticipantUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/sse/events?event_id=cyber-siege-2026", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := env.server.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sse subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	token := env.login(t, "demo@user.com", demoPassword)
	if status, body := env.do(t, http.MethodPost, "/events/cyber-siege-2026/registration", token, nil); status != http.StatusCreated {
		t.Fatalf("register: %d %s", status, body)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		payload, ok := strings.CutPrefix(strings.TrimSpace(line), "data: ")
		if !ok {
			continue
		}
		var note struct {
			Type string                    `json:"type"`
			Data registration.Participants `json:"data"`
		}
		if err := json.Unmarshal([]byte(payload), &note); err != nil {
			t.Fatalf("decode notification: %v", err)
		}
		if note.Type != ws.TypeParticipants || note.Data.Participants != 2501 {
			t.Fatalf("unexpected notification: %s", payload)
		}
		return
	}
}

func TestStatusRecorderExposesWriteDeadline(t *testing.T) {
	inner := &deadlineRecorder{ResponseRecorder: httptest.NewRecorder()}
	rec := &statusRecorder{ResponseWriter: inner}
	want := time.Now().Add(time.Second)
	if err := http.NewResponseController(rec).SetWriteDeadline(want); err != nil {
		t.Fatalf("set write deadline: %v", err)
	}
	if !inner.deadline.Equal(want) {
		t.Fatalf("deadline not forwarded: %v", inner.deadline)
	}
}

type deadlineRecorder struct {
	*httptest.ResponseRecorder
	deadline time.Time
}

func (d *deadlineRecorder) SetWriteDeadline(t time.Time) error {
	d.deadline = t
	return nil
}

func TestStatusForMapsErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.New("boom"), http.StatusInternalServerError},
		{auth.ErrNotLoggedIn, http.StatusUnauthorized},
		{registration.ErrRegistrationClosed, http.StatusConflict},
		{crypto.ErrPasswordTooLong, http.StatusBadRequest},
		{&event.ValidationError{Fields: map[string]string{"title": "required"}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
