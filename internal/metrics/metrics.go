package metrics

import (
	"context"

	"codeberg.org/mutker/dronecore/internal/errors"
	"codeberg.org/mutker/dronecore/internal/logger"
)

// NewHistory returns the recorder for cfg. A disabled config yields a
// recorder that drops every report.
func NewHistory(cfg Config, log logger.Logger) (HistoryRecorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.New().Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Report history disabled")
		return discardHistory{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &history{repo: repo}, nil
}

type history struct {
	repo HistoryRepository
}

func (h *history) Record(ctx context.Context, report *Report) error {
	if report == nil {
		return errors.New().New(ErrInvalidReport)
	}
	if err := ctx.Err(); err != nil {
		return errors.New().Wrap(ErrOperationTimeout, err)
	}

	if err := h.repo.Record(report); err != nil {
		return errors.New().Wrap(ErrRecordFailed, err)
	}

	return nil
}

func (h *history) Close() error {
	if err := h.repo.Close(); err != nil {
		return errors.New().Wrap(ErrServiceShutdown, err)
	}

	return nil
}

type discardHistory struct{}

func (discardHistory) Record(context.Context, *Report) error { return nil }
func (discardHistory) Close() error                          { return nil }
