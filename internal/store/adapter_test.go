package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type failingStore struct {
	*Memory
	err error
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, f.err
}

func newTestAdapter(s Store) *Adapter {
	return NewAdapter(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestReadReturnsFallbackWhenAbsent(t *testing.T) {
	a := newTestAdapter(NewMemory())
	fallback := []record{{ID: "seed"}}
	got, err := Read(context.Background(), a, "records", fallback)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0].ID != "seed" {
		t.Fatalf("expected fallback, got %+v", got)
	}
}

func TestReadSwallowsMalformedJSON(t *testing.T) {
	mem := NewMemory()
	if err := mem.Set(context.Background(), "records", []byte("{not json")); err != nil {
		t.Fatalf("seed malformed value: %v", err)
	}
	a := newTestAdapter(mem)
	got, err := Read(context.Background(), a, "records", []record{})
	if err != nil {
		t.Fatalf("malformed payload must not surface as error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty fallback, got %+v", got)
	}
}

func TestWriteThenRead(t *testing.T) {
	a := newTestAdapter(NewMemory())
	ctx := context.Background()
	want := []record{{ID: "1", Name: "one"}, {ID: "2", Name: "two"}}
	if err := a.Write(ctx, "records", want); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(ctx, a, "records", []record(nil))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[1] != want[1] {
		t.Fatalf("unexpected round trip: %+v", got)
	}
}

func TestReadSurfacesBackendErrors(t *testing.T) {
	boom := errors.New("connection reset")
	a := newTestAdapter(&failingStore{Memory: NewMemory(), err: boom})
	if _, err := Read(context.Background(), a, "records", 0); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestRemoveDeletesKey(t *testing.T) {
	a := newTestAdapter(NewMemory())
	ctx := context.Background()
	if err := a.Write(ctx, "session", record{ID: "u"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := a.Remove(ctx, "session"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, err := Read[*record](ctx, a, "session", nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after remove, got %+v", got)
	}
}
