package db

import (
	"fmt"
	"time"
)

// ReportArtifact represents a generated figure or report file
type ReportArtifact struct {
	ID        int       `json:"id"`
	RunID     string    `json:"run_id"`   // UUID identifying the analysis run
	Kind      string    `json:"kind"`     // e.g. telemetry_comparison or speed_analysis
	Event     string    `json:"event"`    // grand prix name as configured
	Year      int       `json:"year"`
	Session   string    `json:"session"`  // session name like "Qualifying"
	Drivers   string    `json:"drivers"`  // comma-separated driver codes
	Filepath  string    `json:"filepath"` // directory the artifact was written to
	Filename  string    `json:"filename"`
	Units     string    `json:"units"` // speed units used in the artifact
	CreatedAt time.Time `json:"created_at"`
}

// CreateReportArtifact creates a new artifact record in the database
func (db *DB) CreateReportArtifact(artifact *ReportArtifact) error {
	query := `
		INSERT INTO report_artifacts (
			run_id, kind, event, year, session, drivers, filepath, filename, units
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.DB.Exec(
		query,
		artifact.RunID,
		artifact.Kind,
		artifact.Event,
		artifact.Year,
		artifact.Session,
		artifact.Drivers,
		artifact.Filepath,
		artifact.Filename,
		artifact.Units,
	)
	if err != nil {
		return fmt.Errorf("failed to create report artifact: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	artifact.ID = int(id)
	return nil
}

// GetRecentArtifacts retrieves the most recent N artifact records
func (db *DB) GetRecentArtifacts(limit int) ([]ReportArtifact, error) {
	query := `
		SELECT id, run_id, kind, event, year, session, drivers, filepath, filename, units, created_at
		FROM report_artifacts
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := db.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query report artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []ReportArtifact
	for rows.Next() {
		var artifact ReportArtifact
		err := rows.Scan(
			&artifact.ID,
			&artifact.RunID,
			&artifact.Kind,
			&artifact.Event,
			&artifact.Year,
			&artifact.Session,
			&artifact.Drivers,
			&artifact.Filepath,
			&artifact.Filename,
			&artifact.Units,
			&artifact.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report artifacts: %w", err)
	}

	return artifacts, nil
}

// GetArtifactsForRun retrieves all artifact records for a specific run
func (db *DB) GetArtifactsForRun(runID string) ([]ReportArtifact, error) {
	query := `
		SELECT id, run_id, kind, event, year, session, drivers, filepath, filename, units, created_at
		FROM report_artifacts
		WHERE run_id = ?
		ORDER BY id ASC
	`

	rows, err := db.DB.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query report artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []ReportArtifact
	for rows.Next() {
		var artifact ReportArtifact
		err := rows.Scan(
			&artifact.ID,
			&artifact.RunID,
			&artifact.Kind,
			&artifact.Event,
			&artifact.Year,
			&artifact.Session,
			&artifact.Drivers,
			&artifact.Filepath,
			&artifact.Filename,
			&artifact.Units,
			&artifact.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report artifacts: %w", err)
	}

	return artifacts, nil
}
