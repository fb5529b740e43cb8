package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/dronecore/internal/logger"
)

// ensureSchema leaves db on SchemaVersion. A database written by another
// version is copied into the backups directory next to dbPath, then its
// tables are dropped and recreated. History is diagnostic, so old rows are
// not converted.
func ensureSchema(db *sql.DB, dbPath string, log logger.Logger) error {
	version, err := GetSchemaVersion(db)
	if err != nil {
		return err
	}

	switch version {
	case SchemaVersion:
		log.Debug().Int("version", version).Msg("History schema is current")
		return nil
	case 0:
		return createSchema(db, log)
	}

	log.Warn().
		Int("found", version).
		Int("expected", SchemaVersion).
		Msg("History schema mismatch, rebuilding")

	if _, err := backup(db, dbPath, version, log); err != nil {
		return err
	}
	if err := dropSchema(db, log); err != nil {
		return err
	}

	return createSchema(db, log)
}

func backup(db *sql.DB, dbPath string, version int, log logger.Logger) (string, error) {
	dir := filepath.Join(filepath.Dir(dbPath), backupDirName)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return "", stepError(ErrSchemaMigrationFailed, "create_backup_dir", dir, err)
	}

	name := fmt.Sprintf("history_v%d_%s.db", version, time.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(dir, name)

	// VACUUM INTO must run outside a transaction.
	if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", path)); err != nil {
		return "", stepError(ErrSchemaMigrationFailed, "backup", path, err)
	}

	log.Info().Str("path", path).Int("version", version).Msg("History backup written")
	return path, nil
}

func dropSchema(db *sql.DB, log logger.Logger) error {
	return inTx(db, ErrSchemaMigrationFailed, log, func(tx *sql.Tx) error {
		for _, table := range schemaTables {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return stepError(ErrSchemaMigrationFailed, "drop_table", table, err)
			}
		}
		return nil
	})
}
