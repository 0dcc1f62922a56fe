package service_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/afl-stats-service/internal/config"
	"github.com/maxviazov/afl-stats-service/internal/metrics"
	"github.com/maxviazov/afl-stats-service/internal/model"
	"github.com/maxviazov/afl-stats-service/internal/repository"
	"github.com/maxviazov/afl-stats-service/internal/service"
	"github.com/maxviazov/afl-stats-service/internal/storage"
)

func openSQLite(t *testing.T) (*storage.Writer, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverSQLite},
		SQLite:  config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "afl.db"), BusyTimeoutMS: 1000},
	}
	w, err := storage.OpenWriter(context.Background(), cfg, zerolog.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w, cfg
}

func writerRepos(w *storage.Writer) service.IngestionRepos {
	return service.IngestionRepos{
		Tx: w.Tx, Teams: w.Teams, Venues: w.Venues, Players: w.Players,
		Games: w.Games, Stats: w.Stats, History: w.History, Integrity: w.Integrity,
	}
}

func TestIngestGame_SQLiteRollsBackWholeGame(t *testing.T) {
	ctx := context.Background()
	w, _ := openSQLite(t)
	svc := service.NewIngestionService(writerRepos(w), metrics.New(), zerolog.New(io.Discard))

	b := sampleBundle()
	b.Lines[1].Side = "neutral"
	_, err := svc.IngestGame(ctx, b)
	require.True(t, serviceErrIsInvalid(err), "got %v", err)

	_, err = w.Teams.FindByName(ctx, "Collingwood")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = w.Venues.FindByName(ctx, "MCG")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = w.Players.FindByExternalID(ctx, 100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = w.Games.FindByExternalID(ctx, 9001)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIngestThenSearch_SQLite(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	w, cfg := openSQLite(t)
	m := metrics.New()
	ingest := service.NewIngestionService(writerRepos(w), m, logger)

	first := sampleBundle()
	_, err := ingest.IngestGame(ctx, first)
	require.NoError(t, err)

	second := sampleBundle()
	second.ExternalID = int64p(9002)
	second.RoundNumber = intp(4)
	second.Date = date(2024, 4, 4)
	second.Lines[0].Disposals = intp(25)
	second.Lines[1].Disposals = nil
	_, err = ingest.IngestGame(ctx, second)
	require.NoError(t, err)

	n, err := ingest.RecomputeDaysSinceLastGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	r, err := storage.OpenReader(ctx, cfg, logger)
	require.NoError(t, err)
	defer r.Close()
	search := service.NewOverUnderService(r.Query, m, logger)

	out, err := search.Search(ctx, service.OverUnderQuery{PlayerName: strp("Scott Pendlebury"), Stat: "disposals", Threshold: f64p(25)})
	require.NoError(t, err)
	assert.Equal(t, model.OverUnder{Over: 2, Under: 0}, out)

	out, err = search.Search(ctx, service.OverUnderQuery{PlayerName: strp("Scott Pendlebury"), Stat: "disposals", Threshold: f64p(25), StrictOver: true})
	require.NoError(t, err)
	assert.Equal(t, model.OverUnder{Over: 1, Under: 1}, out)

	// null disposals are not counted
	out, err = search.Search(ctx, service.OverUnderQuery{PlayerName: strp("Patrick Cripps"), Stat: "disposals", Threshold: f64p(10)})
	require.NoError(t, err)
	assert.Equal(t, model.OverUnder{Over: 1, Under: 0}, out)
}
