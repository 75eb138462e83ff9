package db

import (
	"database/sql"
	"fmt"
)

// PassRecord represents a row in the pass_records table.
type PassRecord struct {
	ID            int    `json:"id"`
	RunID         string `json:"run_id"`
	Pass          int    `json:"pass"`
	Workflow      string `json:"workflow"`
	Target        string `json:"target"`
	Outcome       string `json:"outcome"`
	Detail        string `json:"detail,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// ProbeMetrics represents a row in the probe_metrics table.
type ProbeMetrics struct {
	ID            int     `json:"id"`
	RunID         string  `json:"run_id"`
	Pass          int     `json:"pass"`
	BuildOK       bool    `json:"build_ok"`
	CompileError  bool    `json:"compile_error"`
	Tests         int     `json:"tests"`
	Failures      int     `json:"failures"`
	Errors        int     `json:"errors"`
	Skipped       int     `json:"skipped"`
	LinePercent   float64 `json:"line_percent"`
	BranchPercent float64 `json:"branch_percent"`
	MethodPercent float64 `json:"method_percent"`
	Timestamp     string  `json:"timestamp"`
}

// LoopEvent represents a row in the loop_events table.
type LoopEvent struct {
	ID        int    `json:"id"`
	RunID     string `json:"run_id"`
	Event     string `json:"event"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp"`
}

// LogPass inserts a pass record.
func (d *DB) LogPass(runID string, pass int, workflow, target, outcome, detail, commitMessage string) error {
	_, err := d.conn.Exec(
		`INSERT INTO pass_records (run_id, pass, workflow, target, outcome, detail, commit_message) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, pass, workflow, target, outcome, detail, commitMessage,
	)
	if err != nil {
		return fmt.Errorf("log pass: %w", err)
	}
	return nil
}

// LogProbe inserts a probe metrics row.
func (d *DB) LogProbe(runID string, pass int, m ProbeMetrics) error {
	_, err := d.conn.Exec(
		`INSERT INTO probe_metrics (run_id, pass, build_ok, compile_error, tests, failures, errors, skipped, line_percent, branch_percent, method_percent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, pass, m.BuildOK, m.CompileError, m.Tests, m.Failures, m.Errors, m.Skipped,
		m.LinePercent, m.BranchPercent, m.MethodPercent,
	)
	if err != nil {
		return fmt.Errorf("log probe: %w", err)
	}
	return nil
}

// LogEvent inserts a loop event.
func (d *DB) LogEvent(runID, event, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO loop_events (run_id, event, detail) VALUES (?, ?, ?)`,
		runID, event, detail,
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// ListPasses returns pass records for a run in pass order. An empty runID
// returns records for all runs.
func (d *DB) ListPasses(runID string, limit int) ([]PassRecord, error) {
	rows, err := d.query(
		`SELECT id, run_id, pass, workflow, target, outcome, detail, commit_message, timestamp FROM pass_records`,
		`ORDER BY id ASC`, runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	defer rows.Close()

	var records []PassRecord
	for rows.Next() {
		var r PassRecord
		var target, detail, commitMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.RunID, &r.Pass, &r.Workflow, &target, &r.Outcome, &detail, &commitMsg, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		r.Target = target.String
		r.Detail = detail.String
		r.CommitMessage = commitMsg.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListMetrics returns probe metrics for a run in pass order.
func (d *DB) ListMetrics(runID string, limit int) ([]ProbeMetrics, error) {
	rows, err := d.query(
		`SELECT id, run_id, pass, build_ok, compile_error, tests, failures, errors, skipped, line_percent, branch_percent, method_percent, timestamp FROM probe_metrics`,
		`ORDER BY id ASC`, runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	var metrics []ProbeMetrics
	for rows.Next() {
		var m ProbeMetrics
		if err := rows.Scan(&m.ID, &m.RunID, &m.Pass, &m.BuildOK, &m.CompileError, &m.Tests, &m.Failures, &m.Errors, &m.Skipped, &m.LinePercent, &m.BranchPercent, &m.MethodPercent, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// ListEvents returns loop events for a run in insertion order.
func (d *DB) ListEvents(runID string, limit int) ([]LoopEvent, error) {
	rows, err := d.query(
		`SELECT id, run_id, event, detail, timestamp FROM loop_events`,
		`ORDER BY id ASC`, runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []LoopEvent
	for rows.Next() {
		var e LoopEvent
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Event, &detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// EventsSince returns loop events with id greater than afterID, for polling.
func (d *DB) EventsSince(runID string, afterID int) ([]LoopEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, event, detail, timestamp FROM loop_events
		 WHERE run_id = ? AND id > ? ORDER BY id ASC`,
		runID, afterID,
	)
	if err != nil {
		return nil, fmt.Errorf("events since: %w", err)
	}
	defer rows.Close()

	var events []LoopEvent
	for rows.Next() {
		var e LoopEvent
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Event, &detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// LatestRunID returns the run_id of the most recently started run, or "".
func (d *DB) LatestRunID() (string, error) {
	var runID string
	err := d.conn.QueryRow(
		`SELECT run_id FROM loop_events ORDER BY id DESC LIMIT 1`,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return runID, nil
}

// query builds a filtered, ordered, limited query for the List helpers.
func (d *DB) query(selectClause, orderClause, runID string, limit int) (*sql.Rows, error) {
	q := selectClause
	var args []interface{}
	if runID != "" {
		q += " WHERE run_id = ?"
		args = append(args, runID)
	}
	q += " " + orderClause
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return d.conn.Query(q, args...)
}
