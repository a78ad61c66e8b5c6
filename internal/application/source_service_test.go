package application

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mlhkhariom/streamgate/internal/playersource"
	"github.com/mlhkhariom/streamgate/metrics"
)

type mockSourceRepository struct {
	FindAllFunc    func(ctx context.Context) ([]playersource.Source, error)
	ReplaceAllFunc func(ctx context.Context, sources []playersource.Source) error
	PingFunc       func(ctx context.Context) error
}

func (m *mockSourceRepository) FindAll(ctx context.Context) ([]playersource.Source, error) {
	return m.FindAllFunc(ctx)
}

func (m *mockSourceRepository) ReplaceAll(ctx context.Context, sources []playersource.Source) error {
	return m.ReplaceAllFunc(ctx, sources)
}

func (m *mockSourceRepository) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func serviceSource(t *testing.T, id string, priority int, active bool) playersource.Source {
	t.Helper()
	src, err := playersource.NewSource(id, "Source "+id, "https://example.com/"+id+"/{id}", priority, active,
		playersource.Capabilities{Movies: true, TVShows: true, TMDB: true}, playersource.Options{})
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}
	return src
}

func TestSourceService_CreateSource(t *testing.T) {
	t.Run("appends after the lowest-priority source when priority is omitted", func(t *testing.T) {
		var saved []playersource.Source
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{
					serviceSource(t, "a", 1, true),
					serviceSource(t, "b", 5, true),
				}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				saved = sources
				return nil
			},
		}
		service := NewSourceService(repo)

		created, err := service.CreateSource(context.Background(), CreateSourceInput{
			Name:        "New Source",
			URLTemplate: "https://new.example.com/{id}",
			Active:      true,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if created.Priority() != 6 {
			t.Errorf("expected priority 6, got %d", created.Priority())
		}
		if created.ID() == "" {
			t.Error("expected a generated id")
		}
		if len(saved) != 3 {
			t.Errorf("expected 3 persisted sources, got %d", len(saved))
		}
	})

	t.Run("assigns priority 1 to an empty collection", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				return nil
			},
		}
		service := NewSourceService(repo)

		created, err := service.CreateSource(context.Background(), CreateSourceInput{
			Name:        "First",
			URLTemplate: "https://example.com/{id}",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if created.Priority() != 1 {
			t.Errorf("expected priority 1, got %d", created.Priority())
		}
	})

	t.Run("keeps an explicit priority as-is", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{serviceSource(t, "a", 1, true)}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				return nil
			},
		}
		service := NewSourceService(repo)

		created, err := service.CreateSource(context.Background(), CreateSourceInput{
			Name:        "Pinned",
			URLTemplate: "https://example.com/{id}",
			Priority:    1,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if created.Priority() != 1 {
			t.Errorf("expected priority 1, got %d", created.Priority())
		}
	})

	t.Run("rejects a source without a name", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return nil, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				t.Error("ReplaceAll should not be called")
				return nil
			},
		}
		service := NewSourceService(repo)

		_, err := service.CreateSource(context.Background(), CreateSourceInput{
			URLTemplate: "https://example.com/{id}",
		})
		if !errors.Is(err, playersource.ErrEmptyName) {
			t.Errorf("expected ErrEmptyName, got %v", err)
		}
	})
}

func TestSourceService_UpdateSource(t *testing.T) {
	t.Run("merges patched fields over the current source", func(t *testing.T) {
		var saved []playersource.Source
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{serviceSource(t, "a", 1, true)}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				saved = sources
				return nil
			},
		}
		service := NewSourceService(repo)

		name := "Renamed"
		adFree := true
		movies := false
		updated, err := service.UpdateSource(context.Background(), "a", SourcePatch{
			Name:           &name,
			AdFree:         &adFree,
			SupportsMovies: &movies,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if updated.Name() != "Renamed" {
			t.Errorf("expected name Renamed, got %q", updated.Name())
		}
		if !updated.Options().AdFree {
			t.Error("expected ad free option set")
		}
		if updated.Capabilities().Movies {
			t.Error("expected movies capability cleared")
		}
		if updated.URLTemplate() != "https://example.com/a/{id}" {
			t.Errorf("expected url template untouched, got %q", updated.URLTemplate())
		}
		if len(saved) != 1 || saved[0].Name() != "Renamed" {
			t.Errorf("unexpected persisted snapshot %+v", saved)
		}
	})

	t.Run("returns ErrSourceNotFound for unknown id", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{serviceSource(t, "a", 1, true)}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				t.Error("ReplaceAll should not be called")
				return nil
			},
		}
		service := NewSourceService(repo)

		name := "Renamed"
		_, err := service.UpdateSource(context.Background(), "missing", SourcePatch{Name: &name})
		if !errors.Is(err, playersource.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})
}

func TestSourceService_RemoveSource(t *testing.T) {
	t.Run("removes the source without renumbering the rest", func(t *testing.T) {
		var saved []playersource.Source
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{
					serviceSource(t, "a", 1, true),
					serviceSource(t, "b", 2, true),
					serviceSource(t, "c", 3, true),
				}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				saved = sources
				return nil
			},
		}
		service := NewSourceService(repo)

		if err := service.RemoveSource(context.Background(), "b"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(saved) != 2 {
			t.Fatalf("expected 2 persisted sources, got %d", len(saved))
		}
		if saved[0].Priority() != 1 || saved[1].Priority() != 3 {
			t.Errorf("expected priorities untouched, got %d and %d", saved[0].Priority(), saved[1].Priority())
		}
	})

	t.Run("removing an unknown id is a no-op", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{serviceSource(t, "a", 1, true)}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				t.Error("ReplaceAll should not be called")
				return nil
			},
		}
		service := NewSourceService(repo)

		if err := service.RemoveSource(context.Background(), "missing"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestSourceService_SetActive(t *testing.T) {
	t.Run("flips the active flag", func(t *testing.T) {
		var saved []playersource.Source
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{serviceSource(t, "a", 1, true)}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				saved = sources
				return nil
			},
		}
		service := NewSourceService(repo)

		updated, err := service.SetActive(context.Background(), "a", false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if updated.IsActive() {
			t.Error("expected source deactivated")
		}
		if len(saved) != 1 || saved[0].IsActive() {
			t.Error("expected persisted snapshot with source deactivated")
		}
	})

	t.Run("returns ErrSourceNotFound for unknown id", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return nil, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				return nil
			},
		}
		service := NewSourceService(repo)

		_, err := service.SetActive(context.Background(), "missing", true)
		if !errors.Is(err, playersource.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})
}

func TestSourceService_ReorderSource(t *testing.T) {
	t.Run("persists a dense renumbered snapshot after a move", func(t *testing.T) {
		var saved []playersource.Source
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{
					serviceSource(t, "a", 1, true),
					serviceSource(t, "b", 5, true),
					serviceSource(t, "c", 9, true),
				}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				saved = sources
				return nil
			},
		}
		service := NewSourceService(repo)

		reordered, err := service.ReorderSource(context.Background(), "b", playersource.DirectionUp)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		ordered := playersource.SortByPriority(reordered)
		wantIDs := []string{"b", "a", "c"}
		for i, want := range wantIDs {
			if ordered[i].ID() != want {
				t.Errorf("position %d: expected %q, got %q", i, want, ordered[i].ID())
			}
			if ordered[i].Priority() != i+1 {
				t.Errorf("position %d: expected priority %d, got %d", i, i+1, ordered[i].Priority())
			}
		}
		if len(saved) != 3 {
			t.Errorf("expected persisted snapshot, got %d sources", len(saved))
		}
	})

	t.Run("moving past the top does not persist", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{
					serviceSource(t, "a", 1, true),
					serviceSource(t, "b", 2, true),
				}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				t.Error("ReplaceAll should not be called")
				return nil
			},
		}
		service := NewSourceService(repo)

		if _, err := service.ReorderSource(context.Background(), "a", playersource.DirectionUp); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("returns ErrSourceNotFound for unknown id", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{serviceSource(t, "a", 1, true)}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				return nil
			},
		}
		service := NewSourceService(repo)

		_, err := service.ReorderSource(context.Background(), "missing", playersource.DirectionDown)
		if !errors.Is(err, playersource.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})
}

func TestSourceService_ListSources(t *testing.T) {
	t.Run("refreshes the configured-sources gauge from the store", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{
					serviceSource(t, "a", 1, true),
					serviceSource(t, "b", 2, true),
				}, nil
			},
		}
		service := NewSourceService(repo)

		metrics.SourcesConfigured.Set(0)

		if _, err := service.ListSources(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := testutil.ToFloat64(metrics.SourcesConfigured); got != 2 {
			t.Errorf("expected gauge value 2, got %v", got)
		}
	})

	t.Run("returns sources ordered by ascending priority", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{
					serviceSource(t, "b", 2, true),
					serviceSource(t, "a", 1, true),
					serviceSource(t, "c", 3, false),
				}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				return nil
			},
		}
		service := NewSourceService(repo)

		sources, err := service.ListSources(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		wantIDs := []string{"a", "b", "c"}
		for i, want := range wantIDs {
			if sources[i].ID() != want {
				t.Errorf("position %d: expected %q, got %q", i, want, sources[i].ID())
			}
		}
	})
}

func TestSourceService_Resolve(t *testing.T) {
	t.Run("resolves through the highest-priority eligible source", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{
					serviceSource(t, "backup", 2, true),
					serviceSource(t, "primary", 1, true),
				}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				return nil
			},
		}
		service := NewSourceService(repo)

		url, err := service.Resolve(context.Background(), playersource.Request{
			ContentID:   "tt0133093",
			ContentType: playersource.ContentTypeMovie,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url != "https://example.com/primary/tt0133093" {
			t.Errorf("unexpected url %q", url)
		}
	})

	t.Run("returns ErrNoActiveSource when nothing is eligible", func(t *testing.T) {
		repo := &mockSourceRepository{
			FindAllFunc: func(ctx context.Context) ([]playersource.Source, error) {
				return []playersource.Source{serviceSource(t, "a", 1, false)}, nil
			},
			ReplaceAllFunc: func(ctx context.Context, sources []playersource.Source) error {
				return nil
			},
		}
		service := NewSourceService(repo)

		_, err := service.Resolve(context.Background(), playersource.Request{
			ContentID:   "tt0133093",
			ContentType: playersource.ContentTypeMovie,
		})
		if !errors.Is(err, playersource.ErrNoActiveSource) {
			t.Errorf("expected ErrNoActiveSource, got %v", err)
		}
	})
}
