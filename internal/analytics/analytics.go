package analytics

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"
)

// DB is the interface for database queries used by analytics.
type DB interface {
	Conn() *sql.DB
}

// timestamp formats to try when parsing timestamps from the database
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, f := range timestampFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// RunSummary aggregates one remediation run.
type RunSummary struct {
	RunID    string  `json:"run_id"`
	Passes   int     `json:"passes"`
	Applied  int     `json:"applied"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	Final    string  `json:"final_event"`
	Minutes  float64 `json:"minutes"`
	Started  string  `json:"started"`
	Finished string  `json:"finished"`
}

// QueryRunSummaries returns per-run aggregates, most recent first. since
// filters on the run start timestamp when non-empty.
func QueryRunSummaries(database DB, since string) ([]RunSummary, error) {
	query := `
		SELECT run_id,
			MIN(timestamp) as started,
			MAX(timestamp) as finished,
			(SELECT event FROM loop_events le2
			 WHERE le2.run_id = le1.run_id
			 ORDER BY le2.id DESC LIMIT 1) as final
		FROM loop_events le1`

	args := []interface{}{}
	if since != "" {
		query += ` WHERE timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY run_id ORDER BY started DESC`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(&rs.RunID, &rs.Started, &rs.Finished, &rs.Final); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		if start, err := parseTimestamp(rs.Started); err == nil {
			if end, err := parseTimestamp(rs.Finished); err == nil {
				rs.Minutes = math.Round(end.Sub(start).Minutes()*10) / 10
			}
		}
		results = append(results, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		err := database.Conn().QueryRow(`
			SELECT COUNT(*),
				COALESCE(SUM(CASE WHEN outcome = 'applied' THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN outcome = 'skipped' THEN 1 ELSE 0 END), 0)
			FROM pass_records WHERE run_id = ?`, results[i].RunID,
		).Scan(&results[i].Passes, &results[i].Applied, &results[i].Failed, &results[i].Skipped)
		if err != nil {
			return nil, fmt.Errorf("count passes for %s: %w", results[i].RunID, err)
		}
	}
	return results, nil
}

// WorkflowStats holds outcome rates for one workflow kind across runs.
type WorkflowStats struct {
	Workflow   string  `json:"workflow"`
	Total      int     `json:"total"`
	AppliedPct float64 `json:"applied_pct"`
	FailedPct  float64 `json:"failed_pct"`
}

// QueryWorkflowStats returns how often each workflow kind ran and how it
// fared, across all runs.
func QueryWorkflowStats(database DB, since string) ([]WorkflowStats, error) {
	query := `
		SELECT workflow,
			COUNT(*) as total,
			SUM(CASE WHEN outcome = 'applied' THEN 1 ELSE 0 END) as applied,
			SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END) as failed
		FROM pass_records
		WHERE workflow != 'none'`

	args := []interface{}{}
	if since != "" {
		query += ` AND timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY workflow`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query workflow stats: %w", err)
	}
	defer rows.Close()

	var results []WorkflowStats
	for rows.Next() {
		var ws WorkflowStats
		var applied, failed int
		if err := rows.Scan(&ws.Workflow, &ws.Total, &applied, &failed); err != nil {
			return nil, fmt.Errorf("scan workflow stats: %w", err)
		}
		ws.AppliedPct = pct(applied, ws.Total)
		ws.FailedPct = pct(failed, ws.Total)
		results = append(results, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Workflow < results[j].Workflow
	})
	return results, nil
}

// MetricPoint is one probe observation in a run's convergence trajectory.
type MetricPoint struct {
	Pass        int     `json:"pass"`
	Failures    int     `json:"failures"`
	Errors      int     `json:"errors"`
	LinePercent float64 `json:"line_percent"`
}

// QueryConvergence returns the metric trajectory for one run, pass by pass.
func QueryConvergence(database DB, runID string) ([]MetricPoint, error) {
	rows, err := database.Conn().Query(`
		SELECT pass, failures, errors, line_percent
		FROM probe_metrics WHERE run_id = ? ORDER BY pass ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query convergence: %w", err)
	}
	defer rows.Close()

	var points []MetricPoint
	for rows.Next() {
		var p MetricPoint
		var failures, errCount sql.NullInt64
		var line sql.NullFloat64
		if err := rows.Scan(&p.Pass, &failures, &errCount, &line); err != nil {
			return nil, fmt.Errorf("scan metric point: %w", err)
		}
		p.Failures = int(failures.Int64)
		p.Errors = int(errCount.Int64)
		p.LinePercent = line.Float64
		points = append(points, p)
	}
	return points, rows.Err()
}

// PassDuration holds pass-to-pass interval stats for a run.
type PassDuration struct {
	RunID string  `json:"run_id"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg_minutes"`
	P50   float64 `json:"p50_minutes"`
	P95   float64 `json:"p95_minutes"`
}

// QueryPassDurations returns how long passes take, per run, computed from
// consecutive pass record timestamps.
func QueryPassDurations(database DB, since string) ([]PassDuration, error) {
	query := `SELECT run_id, timestamp FROM pass_records`
	args := []interface{}{}
	if since != "" {
		query += ` WHERE timestamp >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY run_id, id`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pass durations: %w", err)
	}
	defer rows.Close()

	intervals := make(map[string][]float64)
	var prevRun string
	var prevTS time.Time
	for rows.Next() {
		var runID, ts string
		if err := rows.Scan(&runID, &ts); err != nil {
			return nil, fmt.Errorf("scan pass duration: %w", err)
		}
		t, err := parseTimestamp(ts)
		if err != nil {
			continue
		}
		if runID == prevRun {
			if minutes := t.Sub(prevTS).Minutes(); minutes >= 0 {
				intervals[runID] = append(intervals[runID], minutes)
			}
		}
		prevRun, prevTS = runID, t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var results []PassDuration
	for runID, durations := range intervals {
		sort.Float64s(durations)
		results = append(results, PassDuration{
			RunID: runID,
			Count: len(durations),
			Avg:   avg(durations),
			P50:   percentile(durations, 50),
			P95:   percentile(durations, 95),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].RunID < results[j].RunID
	})
	return results, nil
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
