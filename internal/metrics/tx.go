package metrics

import (
	"database/sql"

	"codeberg.org/mutker/dronecore/internal/errors"
	"codeberg.org/mutker/dronecore/internal/logger"
)

// stepFailure is the data attached to history errors: the lifecycle step
// that failed, the file or table it touched, and the driver error.
type stepFailure struct {
	Phase  string
	Target string `json:",omitempty"`
	Error  string
}

func stepError(code errors.ErrorCode, phase, target string, err error) errors.Error {
	return errors.New().WithData(code, stepFailure{Phase: phase, Target: target, Error: err.Error()})
}

// inTx runs fn in one transaction. Any failure, including the commit,
// rolls back and is reported under code.
func inTx(db *sql.DB, code errors.ErrorCode, log logger.Logger, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return stepError(code, "begin", "", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Debug().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return stepError(code, "commit", "", err)
	}

	return nil
}
