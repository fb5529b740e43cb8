package metrics

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/dronecore/internal/errors"
	"codeberg.org/mutker/dronecore/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

// repository buffers reports in memory and writes them to sqlite in
// batches: when BatchSize reports are pending, every BatchTimeout seconds,
// and once more on Close.
type repository struct {
	db  *sql.DB
	log logger.Logger
	cfg Config

	mu      sync.Mutex
	pending []*Report

	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewRepository(cfg Config, log logger.Logger) (HistoryRepository, error) {
	if cfg.DBPath == "" {
		return nil, errors.New().New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, stepError(ErrStorageInit, "create_directory", cfg.DBPath, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal=WAL&_auto_vacuum=2")
	if err != nil {
		return nil, stepError(ErrStorageInit, "open_database", cfg.DBPath, err)
	}

	if err := ensureSchema(db, cfg.DBPath, log); err != nil {
		db.Close()
		return nil, errors.New().Wrap(ErrStorageInit, err)
	}

	r := &repository{
		db:      db,
		log:     log,
		cfg:     cfg,
		pending: make([]*Report, 0, cfg.BatchSize),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	if cfg.BatchSize > 0 && cfg.BatchTimeout > 0 {
		go r.flushEvery(time.Duration(cfg.BatchTimeout) * time.Second)
	} else {
		close(r.stopped)
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Int("batch_timeout", cfg.BatchTimeout).
		Msg("History repository initialized")

	return r, nil
}

func (r *repository) Record(report *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, report)
	if len(r.pending) < r.cfg.BatchSize {
		return nil
	}

	return r.flushLocked()
}

// Close stops the periodic flusher, writes what is still pending and
// checkpoints the WAL before closing the database.
func (r *repository) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.stopped

	r.mu.Lock()
	if err := r.flushLocked(); err != nil {
		r.log.Error().Err(err).Int("pending", len(r.pending)).Msg("Final history flush failed")
	}
	r.mu.Unlock()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.db.Close()
		return stepError(ErrStorageClose, "checkpoint_wal", r.cfg.DBPath, err)
	}
	if err := r.db.Close(); err != nil {
		return stepError(ErrStorageClose, "close_database", r.cfg.DBPath, err)
	}

	r.log.Info().Msg("History repository closed")
	return nil
}

func (r *repository) flushEvery(interval time.Duration) {
	defer close(r.stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			if err := r.flushLocked(); err != nil {
				r.log.Warn().Err(err).Msg("Periodic history flush failed")
			}
			r.mu.Unlock()
		}
	}
}

// flushLocked writes every pending report in one transaction. The buffer
// is kept on failure so the next flush retries it.
func (r *repository) flushLocked() error {
	if len(r.pending) == 0 {
		return nil
	}

	err := inTx(r.db, ErrTransactionFailed, r.log, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(insertReportSQL)
		if err != nil {
			return stepError(ErrTransactionFailed, "prepare", "reports", err)
		}
		defer stmt.Close()

		for _, report := range r.pending {
			if _, err := stmt.Exec(reportRow(report)...); err != nil {
				return stepError(ErrTransactionFailed, "insert", "reports", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().Int("reports", len(r.pending)).Msg("History flushed")
	r.pending = r.pending[:0]
	return nil
}
