package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Chakshu098/Everhack-final/internal/domain"
	"github.com/Chakshu098/Everhack-final/internal/repository"
	"github.com/Chakshu098/Everhack-final/internal/store"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestRepository(t *testing.T, s store.Store) *Repository {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	seed := DefaultSeed(SeedCredentials{AdminHash: []byte("admin-hash"), DemoHash: []byte("demo-hash")}, testNow)
	return New(store.NewAdapter(s, log), log, Options{
		Seed: seed,
		Now:  func() time.Time { return testNow },
	})
}

func participants(t *testing.T, repo *Repository, eventID string) int {
	t.Helper()
	evt, err := repo.GetEvent(context.Background(), eventID)
	if err != nil {
		t.Fatalf("get event %s: %v", eventID, err)
	}
	return evt.Participants
}

func TestSessionKey(t *testing.T) {
	if got := SessionKey(""); got != "everhack_current_user" {
		t.Fatalf("unexpected default key %q", got)
	}
	if got := SessionKey("abc"); got != "everhack_current_user:abc" {
		t.Fatalf("unexpected session key %q", got)
	}
}

func TestEventsSeededOnFirstAccess(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	events, err := repo.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 seeded events, got %d", len(events))
	}
	if events[0].ID != "cyber-siege-2026" || events[0].Participants != 2500 {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if _, err := repo.GetEvent(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateThenGetEventMatchesInput(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	input := domain.Event{
		Title:           "Go Night",
		Description:     "An evening of Go",
		EventType:       domain.EventTypeWorkshop,
		StartDate:       "2026-05-01",
		EndDate:         "2026-05-01",
		Location:        "Berlin",
		MaxParticipants: 40,
		PrizePool:       "Free",
		Status:          domain.EventStatusUpcoming,
		Rules:           []string{"be kind"},
		Timeline:        []domain.TimelineItem{{Time: "18:00", Event: "Doors"}},
		Partners:        []domain.Partner{{Name: "Gopher Inc", LogoURL: "https://example.com/logo.svg"}},
	}
	created, err := repo.CreateEvent(ctx, input)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	got, err := repo.GetEvent(ctx, created.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	want := input
	want.ID = created.ID
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("stored event differs\n got: %+v\nwant: %+v", *got, want)
	}
}

func TestCreateThenGetEventKeepsEmptyCollections(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	input := domain.Event{
		Title:           "Empty Lists",
		EventType:       domain.EventTypeCTF,
		StartDate:       "2026-06-01",
		EndDate:         "2026-06-02",
		MaxParticipants: 10,
		Status:          domain.EventStatusUpcoming,
		Rules:           []string{},
		Timeline:        []domain.TimelineItem{},
	}
	created, err := repo.CreateEvent(ctx, input)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	got, err := repo.GetEvent(ctx, created.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	want := input
	want.ID = created.ID
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("stored event differs\n got: %#v\nwant: %#v", *got, want)
	}
	if got.Rules == nil || got.Partners != nil {
		t.Fatalf("expected empty rules and nil partners, got %#v %#v", got.Rules, got.Partners)
	}
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	evt, err := repo.GetEvent(ctx, "buildverse-hackathon")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	evt.Title = "BuildVerse 2"
	if _, err := repo.UpdateEvent(ctx, *evt); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.GetEvent(ctx, "buildverse-hackathon")
	if got.Title != "BuildVerse 2" {
		t.Fatalf("update not persisted: %+v", got)
	}
	if _, err := repo.UpdateEvent(ctx, domain.Event{ID: "nope"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
	if err := repo.DeleteEvent(ctx, "buildverse-hackathon"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	events, _ := repo.ListEvents(ctx)
	if len(events) != 2 {
		t.Fatalf("expected 2 events after delete, got %d", len(events))
	}
}

func TestRegisterAndCancelAdjustParticipants(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	const eventID = "cyber-siege-2026"
	initial := participants(t, repo, eventID)

	users := []string{"u1", "u2", "u3", "u4"}
	for _, u := range users {
		if _, err := repo.RegisterForEvent(ctx, u, eventID); err != nil {
			t.Fatalf("register %s: %v", u, err)
		}
	}
	for _, u := range users[:2] {
		removed, err := repo.CancelRegistration(ctx, u, eventID)
		if err != nil || !removed {
			t.Fatalf("cancel %s: removed=%v err=%v", u, removed, err)
		}
	}
	if got := participants(t, repo, eventID); got != initial+len(users)-2 {
		t.Fatalf("expected %d participants, got %d", initial+len(users)-2, got)
	}
	regs, err := repo.ListRegistrationsByUser(ctx, "u3")
	if err != nil || len(regs) != 1 {
		t.Fatalf("expected one registration for u3, got %v err=%v", regs, err)
	}
	if regs[0].Status != domain.RegistrationStatusRegistered || !regs[0].RegistrationDate.Equal(testNow) {
		t.Fatalf("unexpected registration: %+v", regs[0])
	}
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	const eventID = "buildverse-hackathon"
	initial := participants(t, repo, eventID)

	if _, err := repo.RegisterForEvent(ctx, "u1", eventID); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := repo.RegisterForEvent(ctx, "u1", eventID); !errors.Is(err, repository.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	regs, _ := repo.ListRegistrationsByUser(ctx, "u1")
	if len(regs) != 1 {
		t.Fatalf("expected exactly one registration, got %d", len(regs))
	}
	if got := participants(t, repo, eventID); got != initial+1 {
		t.Fatalf("expected %d participants, got %d", initial+1, got)
	}
}

func TestCancelWithoutRegistrationIsNoop(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	const eventID = "web3-masterclass"
	initial := participants(t, repo, eventID)

	removed, err := repo.CancelRegistration(ctx, "ghost", eventID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if removed {
		t.Fatalf("expected nothing removed")
	}
	if got := participants(t, repo, eventID); got != initial {
		t.Fatalf("participants changed: %d -> %d", initial, got)
	}
}

func TestCancelClampsAtZero(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	created, err := repo.CreateEvent(ctx, domain.Event{Title: "Empty", MaxParticipants: 10})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.RegisterForEvent(ctx, "u1", created.ID); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := repo.ModifyEvent(ctx, created.ID, func(e *domain.Event) error {
		e.Participants = 0
		return nil
	}); err != nil {
		t.Fatalf("modify: %v", err)
	}
	if _, err := repo.CancelRegistration(ctx, "u1", created.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := participants(t, repo, created.ID); got != 0 {
		t.Fatalf("expected participants clamped at 0, got %d", got)
	}
}

func TestRegisterRejectsFullEvent(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	created, err := repo.CreateEvent(ctx, domain.Event{Title: "Tiny", MaxParticipants: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.RegisterForEvent(ctx, "u1", created.ID); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := repo.RegisterForEvent(ctx, "u2", created.ID); !errors.Is(err, repository.ErrEventFull) {
		t.Fatalf("expected ErrEventFull, got %v", err)
	}
}

func TestConcurrentRegistrationsDoNotLoseUpdates(t *testing.T) {
	backends := map[string]store.Store{"memory": store.NewMemory()}
	sqlite, err := store.NewSQLite(context.Background(), "file:"+filepath.Join(t.TempDir(), "kv.db")+"?mode=rwc")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })
	backends["sqlite"] = sqlite

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			repo := newTestRepository(t, backend)
			const eventID = "cyber-siege-2026"
			initial := participants(t, repo, eventID)

			const workers = 100
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					if _, err := repo.RegisterForEvent(context.Background(), fmt.Sprintf("user-%d", n), eventID); err != nil {
						errs <- err
					}
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("register: %v", err)
			}
			if got := participants(t, repo, eventID); got != initial+workers {
				t.Fatalf("expected %d participants, got %d", initial+workers, got)
			}
		})
	}
}

func TestMalformedCollectionReadsAsDefault(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	if err := mem.Set(ctx, KeyEvents, []byte("{not json")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mem.Set(ctx, KeyTeams, []byte("[[[")); err != nil {
		t.Fatalf("set: %v", err)
	}
	repo := newTestRepository(t, mem)
	events, err := repo.ListEvents(ctx)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected seeded events, got %d", len(events))
	}
	teams, err := repo.ListTeams(ctx)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 0 {
		t.Fatalf("expected empty teams, got %d", len(teams))
	}
}

func TestTeamLifecycle(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	team, err := repo.CreateTeam(ctx, domain.Team{Name: "Gophers", EventID: "cyber-siege-2026", LeaderID: "lead", MaxMembers: 2})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if !reflect.DeepEqual(team.Members, []string{"lead"}) {
		t.Fatalf("expected leader as first member, got %v", team.Members)
	}
	if _, err := repo.JoinTeam(ctx, team.ID, "lead"); !errors.Is(err, repository.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
	if _, err := repo.JoinTeam(ctx, team.ID, "second"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := repo.JoinTeam(ctx, team.ID, "third"); !errors.Is(err, repository.ErrTeamFull) {
		t.Fatalf("expected ErrTeamFull, got %v", err)
	}
	teams, _ := repo.ListTeams(ctx)
	if len(teams) != 1 || !reflect.DeepEqual(teams[0].Members, []string{"lead", "second"}) {
		t.Fatalf("members changed after rejected join: %+v", teams)
	}
	if _, err := repo.JoinTeam(ctx, "missing", "x"); !errors.Is(err, repository.ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestCreateTeamDefaultsMaxMembers(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	team, err := repo.CreateTeam(context.Background(), domain.Team{Name: "Solo", LeaderID: "lead"})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if team.MaxMembers != domain.DefaultTeamSize {
		t.Fatalf("expected default max members, got %d", team.MaxMembers)
	}
}

func TestUsersSeededAndUnique(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 seeded users, got %d", len(users))
	}
	if _, err := repo.CreateUser(ctx, domain.User{Email: "DEMO@user.com"}); !errors.Is(err, repository.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	users, _ = repo.ListUsers(ctx)
	if len(users) != 2 {
		t.Fatalf("user count changed: %d", len(users))
	}
	u, err := repo.GetUserByEmail(ctx, "admin@everhack.com")
	if err != nil || u.ID != SeedAdminID {
		t.Fatalf("expected seeded admin, got %+v err=%v", u, err)
	}
	if err := repo.DeleteUser(ctx, SeedDemoID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := repo.GetUserByID(ctx, SeedDemoID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestRepository(t, store.NewMemory())
	ctx := context.Background()
	got, err := repo.GetSession(ctx, "sid")
	if err != nil || got != nil {
		t.Fatalf("expected anonymous session, got %+v err=%v", got, err)
	}
	if err := repo.SaveSession(ctx, "sid", domain.User{ID: "u1", Email: "a@b.c"}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	got, err = repo.GetSession(ctx, "sid")
	if err != nil || got == nil || got.ID != "u1" {
		t.Fatalf("unexpected session: %+v err=%v", got, err)
	}
	if other, _ := repo.GetSession(ctx, ""); other != nil {
		t.Fatalf("default session should remain anonymous")
	}
	if err := repo.DeleteSession(ctx, "sid"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if got, _ := repo.GetSession(ctx, "sid"); got != nil {
		t.Fatalf("expected anonymous after delete")
	}
}

func TestLatencyHonoursCancellation(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := New(store.NewAdapter(store.NewMemory(), log), log, Options{
		Latency: Latency{Min: time.Second, Max: 2 * time.Second},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.ListEvents(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
