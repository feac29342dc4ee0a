package telemetry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"codeberg.org/mutker/duckovhaptics/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	return Config{
		DBPath:       filepath.Join(t.TempDir(), "data", "telemetry.db"),
		BatchSize:    2,
		BatchTimeout: time.Hour,
		Enabled:      true,
	}
}

func countPulses(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM pulses").Scan(&n))

	return n
}

func TestServiceDisabledIsNoop(t *testing.T) {
	c, err := NewService(DefaultConfig())
	require.NoError(t, err)

	assert.False(t, c.Enabled())
	assert.NoError(t, c.Record(context.Background(), &Pulse{}))
	assert.NoError(t, c.Close())
	assert.False(t, Noop().Enabled())
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Validate())

	cfg.DBPath = ""
	assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidDBPath))

	cfg = testConfig(t)
	cfg.BatchSize = 0
	assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidConfig))

	_, err := NewService(cfg)
	assert.Error(t, err)
}

func TestServiceWritesPulses(t *testing.T) {
	cfg := testConfig(t)
	c, err := NewService(cfg)
	require.NoError(t, err)
	require.True(t, c.Enabled())

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Record(context.Background(), &Pulse{
			Timestamp: ts.Add(time.Duration(i) * time.Millisecond),
			Event:     "fire",
			Device:    "pad0",
			Low:       0.42,
			High:      0.6,
			Duration:  100 * time.Millisecond,
			Issued:    true,
			Reason:    "issued",
		}))
	}

	// Close flushes whatever is still buffered
	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "closing twice is harmless")
	assert.Equal(t, 3, countPulses(t, cfg.DBPath))

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	var (
		stamp    int64
		event    string
		low      float64
		duration int
		issued   int
	)
	require.NoError(t, db.QueryRow(
		"SELECT timestamp, event, low, duration_ms, issued FROM pulses ORDER BY id LIMIT 1",
	).Scan(&stamp, &event, &low, &duration, &issued))

	assert.Equal(t, ts.UnixMilli(), stamp)
	assert.Equal(t, "fire", event)
	assert.InDelta(t, 0.42, low, 1e-9)
	assert.Equal(t, 100, duration)
	assert.Equal(t, 1, issued)
}

func TestServiceRejectsNilPulse(t *testing.T) {
	c, err := NewService(testConfig(t))
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, errors.HasCode(c.Record(context.Background(), nil), ErrInvalidPulse))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.HasCode(c.Record(ctx, &Pulse{}), ErrOperationTimeout))
}

func TestSchemaReopen(t *testing.T) {
	cfg := testConfig(t)
	log := logger.Component("test")

	repo, err := NewRepository(cfg, log)
	require.NoError(t, err)
	require.NoError(t, repo.Record(&Pulse{Event: "kill", Reason: "issued"}))
	require.NoError(t, repo.Close())

	// Same version: data is kept
	repo, err = NewRepository(cfg, log)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	assert.Equal(t, 1, countPulses(t, cfg.DBPath))
}

func TestSchemaMismatchBacksUp(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755))

	db, err := sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
		INSERT INTO schema_versions VALUES (7, datetime('now'));
		CREATE TABLE pulses (timestamp INTEGER);`)
	require.NoError(t, err)

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, 7, version)
	require.NoError(t, db.Close())

	repo, err := NewRepository(cfg, logger.Component("test"))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	backups, err := os.ReadDir(filepath.Join(filepath.Dir(cfg.DBPath), "backups"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	db, err = sql.Open("sqlite3", cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()
	version, err = GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestRecordBufferIsBounded(t *testing.T) {
	r := &repository{
		cfg:    Config{BatchSize: 1},
		logger: logger.Component("test"),
		kick:   make(chan struct{}, 1),
	}

	for i := 0; i < maxBufferFactor; i++ {
		require.NoError(t, r.Record(&Pulse{}))
	}

	err := r.Record(&Pulse{})
	assert.True(t, errors.HasCode(err, ErrBufferFull))
	assert.Len(t, r.take(), maxBufferFactor)
	assert.Zero(t, r.dropped)
}

func TestRecordAfterCloseFails(t *testing.T) {
	cfg := testConfig(t)
	repo, err := NewRepository(cfg, logger.Component("test"))
	require.NoError(t, err)

	require.NoError(t, repo.Record(&Pulse{Timestamp: time.Now(), Event: "fire", Device: "pad0", Low: 0.42, High: 0.6, Issued: true, Reason: "issued"}))
	require.NoError(t, repo.Close())

	err = repo.Record(&Pulse{Event: "kill"})
	assert.True(t, errors.HasCode(err, ErrStorageClose))
	assert.Equal(t, 1, countPulses(t, cfg.DBPath), "pending pulses are flushed on close")
}
