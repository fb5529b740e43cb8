package metrics

import (
	"database/sql"

	"codeberg.org/mutker/dronecore/internal/logger"
)

// SchemaVersion is bumped on every incompatible change to the reports table.
const SchemaVersion = 1

var schemaTables = []string{"reports", "schema_versions"}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS schema_versions (
    version     INTEGER PRIMARY KEY,
    applied_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS reports (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp_ms           INTEGER NOT NULL,
    flight_loops           INTEGER NOT NULL CHECK (flight_loops >= 0),
    flight_exec_avg_us     INTEGER NOT NULL,
    flight_deadline_misses INTEGER NOT NULL CHECK (flight_deadline_misses >= 0),
    flight_preempts        INTEGER NOT NULL,
    net_packets            INTEGER NOT NULL,
    net_preempts           INTEGER NOT NULL,
    vision_fps             INTEGER NOT NULL,
    vision_preempts        INTEGER NOT NULL,
    vision_active          INTEGER NOT NULL CHECK (vision_active IN (0, 1)),
    emergency_status       TEXT NOT NULL,
    altitude               REAL NOT NULL,
    throttle               REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON reports (timestamp_ms);`

const insertReportSQL = `
INSERT INTO reports (
    timestamp_ms,
    flight_loops, flight_exec_avg_us, flight_deadline_misses, flight_preempts,
    net_packets, net_preempts,
    vision_fps, vision_preempts, vision_active,
    emergency_status, altitude, throttle
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// reportRow flattens a report into insertReportSQL argument order.
func reportRow(r *Report) []any {
	m := r.Metrics
	return []any{
		r.Timestamp.UnixMilli(),
		m.FlightLoops, m.FlightExecAvgUs, m.FlightDeadlineMisses, m.FlightPreempts,
		m.NetPackets, m.NetPreempts,
		m.VisionFPS, m.VisionPreempts, boolToInt(m.VisionActive),
		m.EmergencyStatus.String(), r.Altitude, r.Throttle,
	}
}

func createSchema(db *sql.DB, log logger.Logger) error {
	err := inTx(db, ErrSchemaInitFailed, log, func(tx *sql.Tx) error {
		if _, err := tx.Exec(createTablesSQL); err != nil {
			return stepError(ErrSchemaInitFailed, "create_tables", "reports", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_versions (version, applied_at) VALUES (?, datetime('now'))`,
			SchemaVersion,
		); err != nil {
			return stepError(ErrSchemaInitFailed, "record_version", "schema_versions", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("version", SchemaVersion).Msg("History schema created")
	return nil
}

// GetSchemaVersion returns the newest recorded schema version, or 0 for a
// database that has never been initialized.
func GetSchemaVersion(db *sql.DB) (int, error) {
	var exists bool
	if err := db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'schema_versions')`,
	).Scan(&exists); err != nil {
		return 0, stepError(ErrSchemaValidationFailed, "check_table", "schema_versions", err)
	}
	if !exists {
		return 0, nil
	}

	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_versions`).Scan(&version); err != nil {
		return 0, stepError(ErrSchemaValidationFailed, "read_version", "schema_versions", err)
	}

	return int(version.Int64), nil
}
