package store

import "database/sql"

// IndexJob is one row of the index_jobs table.
type IndexJob struct {
	JobID             string
	ProjectID         string
	Ref               string
	Mode              string
	Status            string
	FilesScanned      int
	FilesIndexed      int
	SymbolsExtracted  int
	ChangedFiles      int
	CreatedAt         string
	UpdatedAt         string
	DurationMS        *int64
	ProgressToken     string
	PID               int
}

// InsertJob records a new job row before the worker is spawned, per C8's
// "manager records the job row before spawning" rule. A pre-existing row
// for the same job_id (the job manager inserts one before spawning the
// worker process) is left untouched rather than erroring.
func (s *Store) InsertJob(j *IndexJob) error {
	now := Now()
	_, err := s.q.Exec(`
		INSERT OR IGNORE INTO index_jobs (job_id, project_id, ref, mode, status, created_at, updated_at, progress_token, pid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.JobID, j.ProjectID, j.Ref, j.Mode, j.Status, now, now, nullableString(j.ProgressToken), j.PID)
	return err
}

// MarkJobRunning transitions a job row to "running" and records its
// resolved ref and worker PID. Called by the worker once it has resolved
// the effective ref, which the job manager does not know at spawn time.
func (s *Store) MarkJobRunning(jobID, ref string, pid int) error {
	_, err := s.q.Exec(`UPDATE index_jobs SET status='running', ref=?, pid=?, updated_at=? WHERE job_id=?`,
		ref, pid, Now(), jobID)
	return err
}

// UpdateJobCounters atomically refreshes the progress counters.
func (s *Store) UpdateJobCounters(jobID string, filesScanned, filesIndexed, symbolsExtracted, changedFiles int) error {
	_, err := s.q.Exec(`
		UPDATE index_jobs SET files_scanned=?, files_indexed=?, symbols_extracted=?, changed_files=?, updated_at=?
		WHERE job_id=?`,
		filesScanned, filesIndexed, symbolsExtracted, changedFiles, Now(), jobID)
	return err
}

// FinishJob marks a job terminal (published or failed) and records its
// duration.
func (s *Store) FinishJob(jobID, status string, durationMS int64) error {
	_, err := s.q.Exec(`
		UPDATE index_jobs SET status=?, duration_ms=?, updated_at=? WHERE job_id=?`,
		status, durationMS, Now(), jobID)
	return err
}

func scanJob(row scanner) (*IndexJob, error) {
	var j IndexJob
	var progressToken sql.NullString
	var duration sql.NullInt64
	var pid sql.NullInt64
	err := row.Scan(&j.JobID, &j.ProjectID, &j.Ref, &j.Mode, &j.Status, &j.FilesScanned, &j.FilesIndexed,
		&j.SymbolsExtracted, &j.ChangedFiles, &j.CreatedAt, &j.UpdatedAt, &duration, &progressToken, &pid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	j.ProgressToken = progressToken.String
	j.PID = int(pid.Int64)
	if duration.Valid {
		d := duration.Int64
		j.DurationMS = &d
	}
	return &j, nil
}

const jobCols = `job_id, project_id, ref, mode, status, files_scanned, files_indexed, symbols_extracted, changed_files, created_at, updated_at, duration_ms, progress_token, pid`

// GetJob returns a job by id.
func (s *Store) GetJob(jobID string) (*IndexJob, error) {
	return scanJob(s.q.QueryRow(`SELECT `+jobCols+` FROM index_jobs WHERE job_id=?`, jobID))
}

// ActiveJobForProject returns the at-most-one non-terminal job for a
// project (queued or running), or nil if none.
func (s *Store) ActiveJobForProject(projectID string) (*IndexJob, error) {
	return scanJob(s.q.QueryRow(
		`SELECT `+jobCols+` FROM index_jobs WHERE project_id=? AND status IN ('queued','running') ORDER BY created_at DESC LIMIT 1`,
		projectID))
}

// RunningJobs returns every job still marked "running"; the
// caller (C8 interrupted-recovery at server start) checks each PID and
// marks the ones that died "failed".
func (s *Store) RunningJobs() ([]*IndexJob, error) {
	rows, err := s.q.Query(`SELECT ` + jobCols + ` FROM index_jobs WHERE status='running'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*IndexJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	return result, rows.Err()
}
