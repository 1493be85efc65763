package service

import (
	"context"
	"errors"
	"testing"
)

func TestCatch_IdempotentCatalog(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	a, err := f.caught.Catch(ctx, "user-a", "pikachu")
	if err != nil {
		t.Fatalf("Catch: %v", err)
	}
	b, err := f.caught.Catch(ctx, "user-b", " Pikachu ")
	if err != nil {
		t.Fatalf("Catch: %v", err)
	}

	if a.ID == b.ID {
		t.Error("records should have distinct ids")
	}
	if a.PokemonID != b.PokemonID {
		t.Errorf("catalog ids differ: %s vs %s", a.PokemonID, b.PokemonID)
	}
	if n, _ := f.store.CountPokemonByName(ctx, "pikachu"); n != 1 {
		t.Errorf("catalog rows = %d, want 1", n)
	}
	if f.metrics.Snapshot().PokemonCaught != 2 {
		t.Error("catches not recorded")
	}
}

func TestCatch_SameUserTwice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	first, _ := f.caught.Catch(ctx, "user-a", "eevee")
	second, _ := f.caught.Catch(ctx, "user-a", "eevee")

	list, err := f.caught.List(ctx, "user-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("records = %d, want 2", len(list))
	}
	ids := map[string]bool{list[0].ID: true, list[1].ID: true}
	if !ids[first.ID] || !ids[second.ID] {
		t.Errorf("listed ids %v do not match caught ids", ids)
	}
}

func TestCatch_InvalidName(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, name := range []string{"", "   ", "pika chu", "<script>", "-dash"} {
		if _, err := f.caught.Catch(context.Background(), "user-a", name); !errors.Is(err, ErrValidation) {
			t.Errorf("Catch(%q): expected ErrValidation, got %v", name, err)
		}
	}
}

func TestRelease_OwnershipIsolation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.caught.Catch(ctx, "user-a", "bulbasaur")
	if err != nil {
		t.Fatal(err)
	}

	// Another user's release is a silent no-op.
	if err := f.caught.Release(ctx, "user-b", rec.ID); err != nil {
		t.Fatalf("foreign release returned error: %v", err)
	}
	if list, _ := f.caught.List(ctx, "user-a"); len(list) != 1 {
		t.Fatalf("owner lost record after foreign release")
	}
	if f.metrics.Snapshot().PokemonReleased != 0 {
		t.Error("no-op release should not be counted")
	}

	if err := f.caught.Release(ctx, "user-a", rec.ID); err != nil {
		t.Fatalf("owner release: %v", err)
	}
	if list, _ := f.caught.List(ctx, "user-a"); len(list) != 0 {
		t.Errorf("record still listed after release")
	}

	// Releasing again, or an id that never existed, is also a no-op.
	if err := f.caught.Release(ctx, "user-a", rec.ID); err != nil {
		t.Errorf("second release: %v", err)
	}
	if err := f.caught.Release(ctx, "user-a", "does-not-exist"); err != nil {
		t.Errorf("unknown id: %v", err)
	}
}

func TestList_ScopedToCaller(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.caught.Catch(ctx, "user-a", "squirtle")
	_, _ = f.caught.Catch(ctx, "user-b", "charmander")

	list, err := f.caught.List(ctx, "user-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].UserID != "user-a" {
		t.Fatalf("list leaked other users' records: %+v", list)
	}
	if list[0].Pokemon == nil || list[0].Pokemon.Name != "squirtle" {
		t.Errorf("joined pokemon = %+v", list[0].Pokemon)
	}

	empty, err := f.caught.List(ctx, "user-c")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty list, got %v (%v)", empty, err)
	}
}
