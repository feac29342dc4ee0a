package telemetry

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"codeberg.org/mutker/duckovhaptics/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

// repository buffers pulses in memory and writes them in batches from a
// background goroutine. Record never touches the database.
type repository struct {
	db           *sql.DB
	logger       logger.Logger
	cfg          Config
	mu           sync.Mutex
	buffer       []*Pulse
	dropped      int
	closed       bool
	kick         chan struct{}
	shutdownChan chan struct{}
	flushDone    chan struct{}
	closeOnce    sync.Once
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	backupDir := filepath.Join(filepath.Dir(cfg.DBPath), "backups")
	if err := ValidateAndUpdateSchema(db, backupDir, log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Dur("batch_timeout", cfg.BatchTimeout).
		Msg("Telemetry repository initialized")

	repo := &repository{
		db:           db,
		logger:       log,
		cfg:          cfg,
		buffer:       make([]*Pulse, 0, cfg.BatchSize),
		kick:         make(chan struct{}, 1),
		shutdownChan: make(chan struct{}),
		flushDone:    make(chan struct{}),
	}

	go repo.flusher(time.NewTicker(cfg.BatchTimeout))

	return repo, nil
}

func (r *repository) Record(pulse *Pulse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New().WithMessage(ErrStorageClose, "telemetry repository is closed")
	}

	if len(r.buffer) >= r.cfg.BatchSize*maxBufferFactor {
		r.dropped++
		return errors.New().WithData(ErrBufferFull, r.dropped)
	}

	r.buffer = append(r.buffer, pulse)

	if len(r.buffer) >= r.cfg.BatchSize {
		select {
		case r.kick <- struct{}{}:
		default:
		}
	}

	return nil
}

func (r *repository) Close() error {
	var closeErr error

	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		// Signal the flusher goroutine to stop and wait for its final flush
		close(r.shutdownChan)
		<-r.flushDone

		// Checkpoint WAL and cleanup on close
		if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to checkpoint WAL")
		}

		if err := r.db.Close(); err != nil {
			closeErr = errors.New().WithData(ErrStorageClose, struct {
				Phase string
				Error string
			}{
				Phase: "close_database",
				Error: err.Error(),
			})
			return
		}

		r.logger.Info().Msg("Telemetry repository closed gracefully")
	})

	return closeErr
}

func (r *repository) flusher(ticker *time.Ticker) {
	defer close(r.flushDone)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.flush()
		case <-r.kick:
			r.flush()
		case <-r.shutdownChan:
			r.flush()
			return
		}
	}
}

// take swaps out the pending buffer
func (r *repository) take() []*Pulse {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.buffer) == 0 {
		return nil
	}

	pending := r.buffer
	r.buffer = make([]*Pulse, 0, r.cfg.BatchSize)
	if r.dropped > 0 {
		r.logger.Warn().Int("dropped", r.dropped).Msg("Telemetry buffer overflowed")
		r.dropped = 0
	}

	return pending
}

func (r *repository) flush() error {
	pending := r.take()
	if len(pending) == 0 {
		return nil
	}

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to begin transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.Prepare(insertPulseSQL)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to prepare statement")
		if err := tx.Rollback(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for _, p := range pending {
		values := []any{
			p.Timestamp.UnixMilli(),
			p.Event,
			p.Device,
			p.Low,
			p.High,
			p.Duration.Milliseconds(),
			boolToInt(p.Issued),
			p.Reason,
		}

		if _, err := stmt.Exec(values...); err != nil {
			r.logger.Error().Err(err).Msg("Failed to execute insert")
			if err := tx.Rollback(); err != nil {
				r.logger.Error().Err(err).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to commit transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	r.logger.Debug().Int("records", len(pending)).Msg("Flushed pulses to database")

	return nil
}
