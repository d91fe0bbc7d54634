package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/service/auth"
	"github.com/Chakshu098/Everhack-final/internal/service/event"
	"github.com/Chakshu098/Everhack-final/internal/service/leaderboard"
	"github.com/Chakshu098/Everhack-final/internal/service/registration"
	"github.com/Chakshu098/Everhack-final/internal/service/team"
	"github.com/Chakshu098/Everhack-final/internal/service/user"
	"github.com/Chakshu098/Everhack-final/internal/ws"
)

// Services groups the domain services served by the router.
type Services struct {
	Auth          auth.Service
	Events        event.Service
	Registrations registration.Service
	Teams         team.Service
	Users         user.Service
	Leaderboard   leaderboard.Service
}

// Options tunes optional router behaviour.
type Options struct {
	AllowAnyOrigin bool
	StoreHealth    func(context.Context) error
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	auth        auth.Service
	events      event.Service
	regs        registration.Service
	teams       team.Service
	users       user.Service
	board       leaderboard.Service
	hub         *ws.Hub
	upgrader    websocket.Upgrader
	limiter     RateLimiter
	storeHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitSignup    = 5
	rateLimitLogin     = 12
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	rateLimitWebsocket = 30
	healthCheckTimeout = 2 * time.Second
	sseHeartbeat       = 15 * time.Second
	maxBodyBytes       = 1 << 20
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, svcs Services, hub *ws.Hub, limiter RateLimiter, opts Options) *Router {
	r := &Router{
		mux:         http.NewServeMux(),
		logger:      logger,
		auth:        svcs.Auth,
		events:      svcs.Events,
		regs:        svcs.Registrations,
		teams:       svcs.Teams,
		users:       svcs.Users,
		board:       svcs.Leaderboard,
		hub:         hub,
		limiter:     limiter,
		storeHealth: opts.StoreHealth,
	}
	if opts.AllowAnyOrigin {
		r.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("GET /healthz", r.audit(r.handleHealthz))
	r.mux.Handle("GET /metrics", promhttp.Handler())

	r.mux.HandleFunc("POST /auth/signup", r.audit(r.withRateLimit("/auth/signup", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleSignup)))
	r.mux.HandleFunc("POST /auth/login", r.audit(r.withRateLimit("/auth/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("POST /auth/logout", r.audit(r.requireAuth(r.handleLogout)))
	r.mux.HandleFunc("GET /auth/me", r.audit(r.requireAuth(r.handleMe)))
	r.mux.HandleFunc("PATCH /auth/profile", r.audit(r.handlerAuthRate("/auth/profile", rateLimitUserWrite, rateWindowDefault, r.handleProfile)))

	r.mux.HandleFunc("GET /events", r.audit(r.handleListEvents))
	r.mux.HandleFunc("GET /events/{id}", r.audit(r.handleGetEvent))
	r.mux.HandleFunc("POST /events", r.audit(r.requireAdmin(r.handleCreateEvent)))
	r.mux.HandleFunc("PUT /events/{id}", r.audit(r.requireAdmin(r.handleUpdateEvent)))
	r.mux.HandleFunc("DELETE /events/{id}", r.audit(r.requireAdmin(r.handleDeleteEvent)))
	r.mux.HandleFunc("POST /events/{id}/results", r.audit(r.requireAdmin(r.handleToggleResults)))
	r.mux.HandleFunc("POST /events/{id}/complete", r.audit(r.requireAdmin(r.handleCompleteEvent)))
	r.mux.HandleFunc("POST /events/{id}/registration", r.audit(r.handlerAuthRate("/events/{id}/registration", rateLimitUserWrite, rateWindowDefault, r.handleRegister)))
	r.mux.HandleFunc("DELETE /events/{id}/registration", r.audit(r.handlerAuthRate("/events/{id}/registration", rateLimitUserWrite, rateWindowDefault, r.handleCancelRegistration)))
	r.mux.HandleFunc("GET /registrations", r.audit(r.handlerAuthRate("/registrations", rateLimitUserRead, rateWindowDefault, r.handleMyRegistrations)))

	r.mux.HandleFunc("GET /teams", r.audit(r.handleListTeams))
	r.mux.HandleFunc("POST /teams", r.audit(r.handlerAuthRate("/teams", rateLimitUserWrite, rateWindowDefault, r.handleCreateTeam)))
	r.mux.HandleFunc("POST /teams/{id}/join", r.audit(r.handlerAuthRate("/teams/{id}/join", rateLimitUserWrite, rateWindowDefault, r.handleJoinTeam)))

	r.mux.HandleFunc("GET /users", r.audit(r.requireAdmin(r.handleListUsers)))
	r.mux.HandleFunc("DELETE /users/{id}", r.audit(r.requireAdmin(r.handleBanUser)))
	r.mux.HandleFunc("GET /leaderboard", r.audit(r.handleLeaderboard))

	r.mux.HandleFunc("GET /ws/events", r.audit(r.withRateLimit("/ws/events", rateLimitWebsocket, rateWindowRealtime, rateLimitKeyIP, r.handleEventsWS)))
	r.mux.HandleFunc("GET /sse/events", r.audit(r.withRateLimit("/sse/events", rateLimitWebsocket, rateWindowRealtime, rateLimitKeyIP, r.handleEventsSSE)))
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	var payload credentials
	if !r.decode(w, req, &payload) {
		return
	}
	user, tokens, err := r.auth.Signup(req.Context(), payload.Email, payload.Password, payload.FullName)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "tokens": tokens})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload credentials
	if !r.decode(w, req, &payload) {
		return
	}
	user, tokens, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "tokens": tokens})
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	info, ok := r.authInfo(w, req)
	if !ok {
		return
	}
	if err := r.auth.SignOut(req.Context(), info.SessionID); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	info, ok := r.authInfo(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, info.User)
}

func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) {
	info, ok := r.authInfo(w, req)
	if !ok {
		return
	}
	var payload domain.ProfileUpdate
	if !r.decode(w, req, &payload) {
		return
	}
	updated, err := r.auth.UpdateProfile(req.Context(), info.SessionID, payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (r *Router) handleListEvents(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	events, err := r.events.List(req.Context(), event.Filter{
		Type:   domain.EventType(q.Get("type")),
		Status: domain.EventStatus(q.Get("status")),
		Query:  q.Get("q"),
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (r *Router) handleGetEvent(w http.ResponseWriter, req *http.Request) {
	evt, err := r.events.Get(req.Context(), req.PathValue("id"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, evt)
}

func (r *Router) handleCreateEvent(w http.ResponseWriter, req *http.Request) {
	var payload event.Input
	if !r.decode(w, req, &payload) {
		return
	}
	evt, err := r.events.Create(req.Context(), payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, evt)
}

func (r *Router) handleUpdateEvent(w http.ResponseWriter, req *http.Request) {
	var payload event.Input
	if !r.decode(w, req, &payload) {
		return
	}
	evt, err := r.events.Update(req.Context(), req.PathValue("id"), payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, evt)
}

func (r *Router) handleDeleteEvent(w http.ResponseWriter, req *http.Request) {
	if err := r.events.Delete(req.Context(), req.PathValue("id")); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleToggleResults(w http.ResponseWriter, req *http.Request) {
	evt, err := r.events.ToggleResults(req.Context(), req.PathValue("id"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, evt)
}

func (r *Router) handleCompleteEvent(w http.ResponseWriter, req *http.Request) {
	evt, err := r.events.Complete(req.Context(), req.PathValue("id"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, evt)
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	info, ok := r.authInfo(w, req)
	if !ok {
		return
	}
	reg, err := r.regs.Register(req.Context(), info.UserID, req.PathValue("id"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func (r *Router) handleCancelRegistration(w http.ResponseWriter, req *http.Request) {
	info, ok := r.authInfo(w, req)
	if !ok {
		return
	}
	removed, err := r.regs.Cancel(req.Context(), info.UserID, req.PathValue("id"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (r *Router) handleMyRegistrations(w http.ResponseWriter, req *http.Request) {
	info, ok := r.authInfo(w, req)
	if !ok {
		return
	}
	entries, err := r.regs.ListMine(req.Context(), info.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (r *Router) handleListTeams(w http.ResponseWriter, req *http.Request) {
	teams, err := r.teams.List(req.Context(), req.URL.Query().Get("event_id"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (r *Router) handleCreateTeam(w http.ResponseWriter, req *http.Request) {
	info, ok := r.authInfo(w, req)
	if !ok {
		return
	}
	var payload team.CreateInput
	if !r.decode(w, req, &payload) {
		return
	}
	created, err := r.teams.Create(req.Context(), info.UserID, payload)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (r *Router) handleJoinTeam(w http.ResponseWriter, req *http.Request) {
	info, ok := r.authInfo(w, req)
	if !ok {
		return
	}
	joined, err := r.teams.Join(req.Context(), req.PathValue("id"), info.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, joined)
}

func (r *Router) handleListUsers(w http.ResponseWriter, req *http.Request) {
	users, err := r.users.List(req.Context())
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (r *Router) handleBanUser(w http.ResponseWriter, req *http.Request) {
	info, ok := r.authInfo(w, req)
	if !ok {
		return
	}
	if err := r.users.Ban(req.Context(), info.UserID, req.PathValue("id")); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleLeaderboard(w http.ResponseWriter, req *http.Request) {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	entries, err := r.board.Top(req.Context(), limit)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// streamEventID validates the event_id query parameter of stream endpoints.
func (r *Router) streamEventID(w http.ResponseWriter, req *http.Request) (string, bool) {
	eventID := strings.TrimSpace(req.URL.Query().Get("event_id"))
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "event_id query parameter required")
		return "", false
	}
	if _, err := r.events.Get(req.Context(), eventID); err != nil {
		r.writeServiceError(w, req, err)
		return "", false
	}
	if r.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "live updates unavailable")
		return "", false
	}
	return eventID, true
}

func (r *Router) handleEventsWS(w http.ResponseWriter, req *http.Request) {
	eventID, ok := r.streamEventID(w, req)
	if !ok {
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(eventID, client)
	go func() {
		defer func() {
			r.hub.Unregister(eventID, client)
			client.Close()
		}()
		client.Drain()
	}()
}

func (r *Router) handleEventsSSE(w http.ResponseWriter, req *http.Request) {
	eventID, ok := r.streamEventID(w, req)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := ws.NewSSEClient(w, r.logger)
	r.hub.Register(eventID, client)
	defer func() {
		r.hub.Unregister(eventID, client)
		client.Close()
	}()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-client.Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	components := make(map[string]any)
	status := "ok"
	if r.storeHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.storeHealth(ctx); err != nil {
			status = "degraded"
			components["store"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["store"] = map[string]any{"status": "up"}
		}
	}
	if r.hub != nil {
		components["live"] = map[string]any{"subscribers": r.hub.Subscribers()}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) decode(w http.ResponseWriter, req *http.Request, dst any) bool {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (r *Router) authInfo(w http.ResponseWriter, req *http.Request) (authInfo, bool) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
	}
	return info, ok
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		route := req.Pattern
		if route == "" {
			route = req.URL.Path
		}
		r.recordRequestMetrics(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = string(info.Role)
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the connection's deadlines.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		if sr.status == 0 {
			sr.status = http.StatusSwitchingProtocols
		}
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision RateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.Count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.WindowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.WindowEnd.Unix(), 10))
	}
}
