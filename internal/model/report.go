package model

import "time"

type EngineState string

const (
	StateIdle      EngineState = "IDLE"
	StateSyncing   EngineState = "SYNCING"
	StateConnected EngineState = "CONNECTED"
	StateError     EngineState = "ERROR"
)

// PassReport accumulates the outcome of one upload-then-download pass.
// Per-file failures are collected here instead of aborting the batch.
type PassReport struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	Results     []SyncResult
	Uploaded    int
	Downloaded  int
	Skipped     int
	Failed      int
	FailedPaths []string
	Err         error
}

func NewPassReport() *PassReport {
	return &PassReport{StartedAt: time.Now()}
}

func (r *PassReport) Add(results ...SyncResult) {
	for _, res := range results {
		r.Results = append(r.Results, res)

		if res.Err != nil {
			r.Failed++
			r.FailedPaths = append(r.FailedPaths, res.LocalPath)
			continue
		}

		switch {
		case !res.Written:
			r.Skipped++
		case res.Op == OpUpload:
			r.Uploaded++
		default:
			r.Downloaded++
		}
	}
}

type PassSummary struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Uploaded    int       `json:"uploaded"`
	Downloaded  int       `json:"downloaded"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	FailedPaths []string  `json:"failed_paths,omitempty"`
	ErrMsg      string    `json:"error,omitempty"`
}

func (r *PassReport) Summary() PassSummary {
	s := PassSummary{
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Uploaded:    r.Uploaded,
		Downloaded:  r.Downloaded,
		Skipped:     r.Skipped,
		Failed:      r.Failed,
		FailedPaths: r.FailedPaths,
	}
	if r.Err != nil {
		s.ErrMsg = r.Err.Error()
	}

	return s
}

type EngineSnapshot struct {
	State     EngineState  `json:"state"`
	StartedAt time.Time    `json:"started_at"`
	LastError string       `json:"last_error,omitempty"`
	LastPass  *PassSummary `json:"last_pass,omitempty"`
}
