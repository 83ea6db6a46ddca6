//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/emotion-recognizer/internal/config"
	"github.com/kozaktomas/emotion-recognizer/internal/database"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := Initialize(ctx, cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to initialize database: %v", err)
	}

	cleanup := func() {
		database.RegisterPostgresBackend(nil)
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	versions, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("MigrationsApplied failed: %v", err)
	}
	if len(versions) == 0 || versions[0] != "001_predictions.sql" {
		t.Errorf("expected 001_predictions.sql to be applied, got %v", versions)
	}

	// Running again must be a no-op.
	if err := pool.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	again, _ := pool.MigrationsApplied(ctx)
	if len(again) != len(versions) {
		t.Errorf("expected %d migrations after rerun, got %d", len(versions), len(again))
	}
}

func TestPredictionRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	if !database.IsInitialized() {
		t.Fatal("Initialize must register the backend")
	}
	repo, err := database.GetPredictionWriter(ctx)
	if err != nil {
		t.Fatalf("GetPredictionWriter failed: %v", err)
	}

	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	inputs := []database.PredictionRecord{
		{Source: database.SourceAPI, Label: "happy", Confidence: 0.9, Backend: "remote:emo"},
		{Source: database.SourceWebcam, StreamID: "track-1", Label: "sad", Stabilized: "happy", Confidence: 0.6},
		{Source: database.SourceAPI, StreamID: "session-1", Label: "happy", Stabilized: "happy"},
	}

	t.Run("SaveAndRecent", func(t *testing.T) {
		for i := range inputs {
			inputs[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
			if err := repo.SavePrediction(ctx, &inputs[i]); err != nil {
				t.Fatalf("SavePrediction %d failed: %v", i, err)
			}
		}

		recent, err := repo.RecentPredictions(ctx, 2)
		if err != nil {
			t.Fatalf("RecentPredictions failed: %v", err)
		}
		if len(recent) != 2 {
			t.Fatalf("expected 2 records, got %d", len(recent))
		}
		if recent[0].ID != inputs[2].ID || recent[1].ID != inputs[1].ID {
			t.Errorf("expected newest first, got %v then %v", recent[0].ID, recent[1].ID)
		}
		if recent[1].StreamID != "track-1" || recent[1].Stabilized != "happy" || recent[1].Source != database.SourceWebcam {
			t.Errorf("unexpected round trip: %+v", recent[1])
		}
	})

	t.Run("NullableColumns", func(t *testing.T) {
		recent, err := repo.RecentPredictions(ctx, 10)
		if err != nil {
			t.Fatalf("RecentPredictions failed: %v", err)
		}
		oldest := recent[len(recent)-1]
		if oldest.StreamID != "" || oldest.Stabilized != "" {
			t.Errorf("expected empty nullable fields, got %+v", oldest)
		}
		if oldest.Backend != "remote:emo" || oldest.Confidence != 0.9 {
			t.Errorf("unexpected record: %+v", oldest)
		}
	})

	t.Run("CountByLabel", func(t *testing.T) {
		counts, err := repo.CountByLabel(ctx)
		if err != nil {
			t.Fatalf("CountByLabel failed: %v", err)
		}
		want := []database.LabelCount{{Label: "happy", Count: 2}, {Label: "sad", Count: 1}}
		if len(counts) != len(want) {
			t.Fatalf("expected %v, got %v", want, counts)
		}
		for i := range want {
			if counts[i] != want[i] {
				t.Errorf("count %d: expected %+v, got %+v", i, want[i], counts[i])
			}
		}
	})

	t.Run("RejectsInvalid", func(t *testing.T) {
		if err := repo.SavePrediction(ctx, &database.PredictionRecord{Source: "other", Label: "happy"}); err == nil {
			t.Error("expected validation error")
		}
	})
}
