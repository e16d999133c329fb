package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabf05/lotworker/internal/scraper"
	"cabf05/lotworker/services/storage"
)

type mockCollector struct {
	records []scraper.Listing
	report  *scraper.RunReport
	err     error

	calls      int
	lastOffset int64
}

func (m *mockCollector) Collect(_ context.Context, runStartOffset int64) ([]scraper.Listing, *scraper.RunReport, error) {
	m.calls++
	m.lastOffset = runStartOffset
	return m.records, m.report, m.err
}

type mockStore struct {
	highestID       int64
	highestIDErr    error
	collectedToday  bool
	collectedErr    error
	insertedCount   int
	insertErr       error
	insertedRecords []scraper.Listing
	insertCalls     int
	historyCalls    int
}

func (m *mockStore) HighestExistingID(_ context.Context) (int64, error) {
	return m.highestID, m.highestIDErr
}

func (m *mockStore) InsertBatch(_ context.Context, records []scraper.Listing) (int, error) {
	m.insertCalls++
	m.insertedRecords = records
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	if m.insertedCount > 0 {
		return m.insertedCount, nil
	}
	return len(records), nil
}

func (m *mockStore) AlreadyCollectedToday(_ context.Context) (bool, error) {
	return m.collectedToday, m.collectedErr
}

func (m *mockStore) History(_ context.Context) ([]storage.CollectionDay, error) {
	m.historyCalls++
	return []storage.CollectionDay{{Date: "2025-03-09", Count: 5}}, nil
}

func (m *mockStore) Close() {}

type mockNotifier struct {
	calls     int
	lastTotal int
	err       error
}

func (m *mockNotifier) Notify(totalRecords int) error {
	m.calls++
	m.lastTotal = totalRecords
	return m.err
}

func (m *mockNotifier) Close() error { return nil }

type mockGuard struct {
	entries map[string][]byte
	setErr  error
}

func newMockGuard() *mockGuard {
	return &mockGuard{entries: map[string][]byte{}}
}

func (m *mockGuard) Get(key string) ([]byte, error) {
	if v, ok := m.entries[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (m *mockGuard) Set(key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = value
	return nil
}

func (m *mockGuard) Delete(key string) error {
	delete(m.entries, key)
	return nil
}

type mockLogger struct {
	errors []string
	infos  []string
}

func (m *mockLogger) LogError(component string, err error) {
	m.errors = append(m.errors, component+": "+err.Error())
}

func (m *mockLogger) LogInfo(format string, _ ...interface{}) {
	m.infos = append(m.infos, format)
}

func listings(startID int64, n int) []scraper.Listing {
	out := make([]scraper.Listing, n)
	for i := range out {
		out[i] = scraper.Listing{ID: startID + int64(i), Title: "Lote/Terreno"}
	}
	return out
}

func newTestWorker(c *mockCollector, s *mockStore, n *mockNotifier, g *mockGuard) (*Worker, *mockLogger) {
	logger := &mockLogger{}
	w := NewWorker(context.Background(), c, s, n, g, logger, time.Hour, true)
	return w, logger
}

func TestRunCollectionHappyPath(t *testing.T) {
	collector := &mockCollector{
		records: listings(101, 5),
		report:  scraper.NewRunReport(),
	}
	store := &mockStore{highestID: 100}
	ntf := &mockNotifier{}
	guard := newMockGuard()

	w, _ := newTestWorker(collector, store, ntf, guard)
	require.NoError(t, w.Start())

	assert.Equal(t, 1, collector.calls)
	assert.Equal(t, int64(100), collector.lastOffset)
	assert.Equal(t, 1, store.insertCalls)
	assert.Len(t, store.insertedRecords, 5)
	assert.Equal(t, 1, ntf.calls)
	assert.Equal(t, 5, ntf.lastTotal)
	assert.Equal(t, 1, store.historyCalls)

	// A clean run marks today's guard entry
	_, err := guard.Get(guardKey(time.Now()))
	assert.NoError(t, err)
}

func TestRunCollectionSkipsWhenGuardHit(t *testing.T) {
	collector := &mockCollector{}
	store := &mockStore{}
	guard := newMockGuard()
	require.NoError(t, guard.Set(guardKey(time.Now()), []byte("1"), time.Hour))

	w, _ := newTestWorker(collector, store, &mockNotifier{}, guard)
	require.NoError(t, w.Start())

	assert.Zero(t, collector.calls)
	assert.Zero(t, store.insertCalls)
}

func TestRunCollectionSkipsWhenStoreSaysCollected(t *testing.T) {
	collector := &mockCollector{}
	store := &mockStore{collectedToday: true}
	guard := newMockGuard()

	w, _ := newTestWorker(collector, store, &mockNotifier{}, guard)
	require.NoError(t, w.Start())

	assert.Zero(t, collector.calls)

	// The store answer is cached for the rest of the day
	_, err := guard.Get(guardKey(time.Now()))
	assert.NoError(t, err)
}

func TestRunCollectionSkipsWhenCollectedCheckFails(t *testing.T) {
	collector := &mockCollector{}
	store := &mockStore{collectedErr: errors.New("connection refused")}

	w, logger := newTestWorker(collector, store, &mockNotifier{}, newMockGuard())
	require.NoError(t, w.Start())

	assert.Zero(t, collector.calls)
	assert.NotEmpty(t, logger.errors)
}

func TestRunCollectionInsertsPartialBatchOnAbortedRun(t *testing.T) {
	report := scraper.NewRunReport()
	report.Fatal = "container: resultados não localizados"
	collector := &mockCollector{
		records: listings(1, 3),
		report:  report,
		err:     errors.New("página de resultados não ficou pronta"),
	}
	store := &mockStore{}
	ntf := &mockNotifier{}
	guard := newMockGuard()

	w, logger := newTestWorker(collector, store, ntf, guard)
	require.NoError(t, w.Start())

	assert.Equal(t, 1, store.insertCalls)
	assert.Len(t, store.insertedRecords, 3)
	assert.Equal(t, 1, ntf.calls)
	assert.NotEmpty(t, logger.errors)

	// An aborted run may be retried later the same day
	_, err := guard.Get(guardKey(time.Now()))
	assert.Error(t, err)
}

func TestRunCollectionNothingToInsert(t *testing.T) {
	collector := &mockCollector{report: scraper.NewRunReport()}
	store := &mockStore{}
	ntf := &mockNotifier{}

	w, _ := newTestWorker(collector, store, ntf, newMockGuard())
	require.NoError(t, w.Start())

	assert.Zero(t, store.insertCalls)
	assert.Zero(t, ntf.calls)
}

func TestRunCollectionInsertErrorBlocksNotifyAndGuard(t *testing.T) {
	collector := &mockCollector{
		records: listings(1, 2),
		report:  scraper.NewRunReport(),
	}
	store := &mockStore{insertErr: errors.New("deadlock detected")}
	ntf := &mockNotifier{}
	guard := newMockGuard()

	w, logger := newTestWorker(collector, store, ntf, guard)
	require.NoError(t, w.Start())

	assert.Zero(t, ntf.calls)
	assert.NotEmpty(t, logger.errors)
	_, err := guard.Get(guardKey(time.Now()))
	assert.Error(t, err)
}

func TestRunCollectionNotifyErrorIsNotFatal(t *testing.T) {
	collector := &mockCollector{
		records: listings(1, 1),
		report:  scraper.NewRunReport(),
	}
	store := &mockStore{}
	ntf := &mockNotifier{err: errors.New("smtp: connection reset")}

	w, logger := newTestWorker(collector, store, ntf, newMockGuard())
	require.NoError(t, w.Start())

	assert.Equal(t, 1, store.insertCalls)
	assert.NotEmpty(t, logger.errors)
}

func TestRunCollectionHighestIDErrorStopsRun(t *testing.T) {
	collector := &mockCollector{records: listings(1, 1)}
	store := &mockStore{highestIDErr: errors.New("relation does not exist")}

	w, logger := newTestWorker(collector, store, &mockNotifier{}, newMockGuard())
	require.NoError(t, w.Start())

	assert.Zero(t, collector.calls)
	assert.NotEmpty(t, logger.errors)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	collector := &mockCollector{report: scraper.NewRunReport()}
	store := &mockStore{collectedToday: true}

	w := NewWorker(ctx, collector, store, &mockNotifier{}, newMockGuard(), &mockLogger{}, time.Hour, false)
	cancel()

	err := w.Start()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGuardKeyFormat(t *testing.T) {
	ts := time.Date(2025, time.March, 9, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "collect:2025-03-09", guardKey(ts))
}
