package sync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"sellersync/internal/config"
	"sellersync/internal/database"
	"sellersync/internal/fetch"
	"sellersync/internal/logger"
	"sellersync/internal/models"
	"sellersync/internal/normalize"
	"sellersync/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upsertCall struct {
	rec       *normalize.Seller
	stateCode string
	stateName string
	stateSlug string
}

type fakeStore struct {
	calls []upsertCall
	err   error
}

func (f *fakeStore) Upsert(ctx context.Context, rec *normalize.Seller, stateCode, stateName, stateSlug string) (string, error) {
	f.calls = append(f.calls, upsertCall{rec: rec, stateCode: stateCode, stateName: stateName, stateSlug: stateSlug})
	if f.err != nil {
		return "", f.err
	}
	return "seller-id", nil
}

func testLogger() *logger.Logger {
	return logger.New("error", "test")
}

func upstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/states", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CO", r.URL.Query().Get("state"))
		w.Write([]byte(`{"data":[
			{"name":"Acme","slug":"acme","city":"Boulder"},
			{"name":"Acme Farms","slug":"acme","website":"https://acme.example"},
			{"city":"Nameless"}
		]}`))
	})
	mux.HandleFunc("/single", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme", r.URL.Query().Get("slug"))
		w.Write([]byte(`[{"description":"Fine flower.","state":"TX"}]`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newOrchestrator(srv *httptest.Server, store SellerStore, withDetail bool) *Orchestrator {
	cfg := &config.Config{
		StateSourceURL: srv.URL + "/states?state=",
	}
	if withDetail {
		cfg.SellerSourceURL = srv.URL + "/single?slug="
	}

	fetcher := fetch.New(testLogger()).WithBackoff(time.Millisecond)
	return NewOrchestrator(cfg, fetcher, store, testLogger())
}

func TestSyncStateMergesAndPersists(t *testing.T) {
	store := &fakeStore{}
	orch := newOrchestrator(upstream(t), store, true)

	require.NoError(t, orch.SyncState(context.Background(), "co"))

	// Two rows share the slug, the third has no name: one upsert
	require.Len(t, store.calls, 1)
	call := store.calls[0]

	assert.Equal(t, "CO", call.stateCode)
	assert.Equal(t, "Colorado", call.stateName)
	assert.Equal(t, "colorado", call.stateSlug)

	rec := call.rec
	assert.Equal(t, "acme", rec.Slug)
	assert.Equal(t, "Acme Farms", rec.Name)
	assert.Equal(t, "Boulder", rec.City)
	assert.Equal(t, "https://acme.example", rec.Website)
	assert.Equal(t, "Fine flower.", rec.Description)

	// The detail payload claimed TX; the job context wins
	assert.Equal(t, "CO", rec.StateCode)
	assert.Equal(t, "Colorado", rec.StateName)
}

func TestSyncStateWithoutDetailSource(t *testing.T) {
	store := &fakeStore{}
	orch := newOrchestrator(upstream(t), store, false)

	require.NoError(t, orch.SyncState(context.Background(), "CO"))

	require.Len(t, store.calls, 1)
	assert.Empty(t, store.calls[0].rec.Description)
}

func TestSyncStateRequiresStateCode(t *testing.T) {
	store := &fakeStore{}
	orch := newOrchestrator(upstream(t), store, true)

	assert.Error(t, orch.SyncState(context.Background(), "  "))
	assert.Empty(t, store.calls)
}

func TestSyncStateRequiresListSource(t *testing.T) {
	store := &fakeStore{}
	fetcher := fetch.New(testLogger())
	orch := NewOrchestrator(&config.Config{}, fetcher, store, testLogger())

	assert.Error(t, orch.SyncState(context.Background(), "CO"))
	assert.Empty(t, store.calls)
}

func TestSyncStateToleratesEmptyListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := &fakeStore{}
	orch := newOrchestrator(srv, store, false)

	// An exhausted fetch yields no data, not a failed job
	require.NoError(t, orch.SyncState(context.Background(), "CO"))
	assert.Empty(t, store.calls)
}

func TestSyncStateContinuesPastUpsertFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("store down")}
	orch := newOrchestrator(upstream(t), store, false)

	require.NoError(t, orch.SyncState(context.Background(), "CO"))
	assert.Len(t, store.calls, 1)
}

func TestSyncStateTwiceIsIdempotent(t *testing.T) {
	srv := upstream(t)

	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := testLogger()
	fetcher := fetch.New(log).WithBackoff(time.Millisecond)
	reconciler := store.NewReconciler(db.DB, fetcher, log, t.TempDir())
	cfg := &config.Config{
		StateSourceURL:  srv.URL + "/states?state=",
		SellerSourceURL: srv.URL + "/single?slug=",
	}
	orch := NewOrchestrator(cfg, fetcher, reconciler, log)

	require.NoError(t, orch.SyncState(context.Background(), "CO"))

	var firstSeller models.Seller
	require.NoError(t, db.DB.First(&firstSeller, "slug = ?", "acme").Error)

	require.NoError(t, orch.SyncState(context.Background(), "CO"))

	var sellers, terms int64
	db.DB.Model(&models.Seller{}).Count(&sellers)
	db.DB.Model(&models.StateTerm{}).Count(&terms)
	assert.EqualValues(t, 1, sellers)
	assert.EqualValues(t, 1, terms)

	var secondSeller models.Seller
	require.NoError(t, db.DB.First(&secondSeller, "slug = ?", "acme").Error)
	assert.Equal(t, firstSeller.ID, secondSeller.ID)
	assert.Equal(t, firstSeller.Name, secondSeller.Name)
	assert.Equal(t, firstSeller.Excerpt, secondSeller.Excerpt)
	assert.Equal(t, firstSeller.StateTermID, secondSeller.StateTermID)
}

func TestSyncStateAppliesHooks(t *testing.T) {
	store := &fakeStore{}
	srv := upstream(t)

	cfg := &config.Config{StateSourceURL: srv.URL + "/states?state="}
	fetcher := fetch.New(testLogger()).WithBackoff(time.Millisecond)
	hook := func(s *normalize.Seller, raw map[string]interface{}) {
		s.ProfileURL = "https://directory.example/" + s.Slug
	}
	orch := NewOrchestrator(cfg, fetcher, store, testLogger(), hook)

	require.NoError(t, orch.SyncState(context.Background(), "CO"))
	require.Len(t, store.calls, 1)
	assert.Equal(t, "https://directory.example/acme", store.calls[0].rec.ProfileURL)
}
