// Package db records simulator runs, episodes and steps to a local
// sqlite database for the monitoring API and offline reports.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/plateworks/moab-session/internal/brain"
	"github.com/plateworks/moab-session/internal/sim"
)

// Store wraps the sqlite handle plus the id of the run being recorded.
type Store struct {
	*sql.DB
	runID string
}

// Open opens (creating if needed) the database at path and applies any
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{DB: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// BeginRun inserts a new run row and makes it the target of subsequent
// episode/step records. The run id is a fresh uuid.
func (s *Store) BeginRun(simulatorName string) (string, error) {
	id := uuid.NewString()
	_, err := s.Exec(
		"INSERT INTO runs (run_id, simulator_name, started_at) VALUES (?, ?, ?)",
		id, simulatorName, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	s.runID = id
	return id, nil
}

// RunID returns the current run id, empty before BeginRun.
func (s *Store) RunID() string { return s.runID }

// BeginEpisode records the start of an episode in the current run.
func (s *Store) BeginEpisode(episode int) error {
	_, err := s.Exec(
		"INSERT INTO episodes (run_id, episode, started_at) VALUES (?, ?, ?)",
		s.runID, episode, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record episode: %w", err)
	}
	return nil
}

func optional(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// RecordStep appends one step observation plus the resolved action.
func (s *Store) RecordStep(episode, iteration int, obs sim.Observation, concept int, act brain.Action) error {
	_, err := s.Exec(`
		INSERT INTO steps (
			run_id, episode, iteration, concept,
			ball_x, ball_y, ball_vel_x, ball_vel_y,
			plate_theta_x, plate_theta_y,
			input_roll, input_pitch, input_height_z
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, episode, iteration, concept,
		obs.BallX, obs.BallY, obs.BallVelX, obs.BallVelY,
		obs.PlateThetaX, obs.PlateThetaY,
		optional(act.InputRoll), optional(act.InputPitch), optional(act.InputHeightZ),
	)
	if err != nil {
		return fmt.Errorf("failed to record step: %w", err)
	}
	return nil
}

// EpisodeSummary is one row of the episode listing.
type EpisodeSummary struct {
	RunID     string    `json:"run_id"`
	Episode   int       `json:"episode"`
	StartedAt time.Time `json:"started_at"`
	Steps     int       `json:"steps"`
}

// Episodes lists recorded episodes, newest first.
func (s *Store) Episodes() ([]EpisodeSummary, error) {
	rows, err := s.Query(`
		SELECT e.run_id, e.episode, e.started_at, COUNT(st.iteration)
		FROM episodes e
		LEFT JOIN steps st ON st.run_id = e.run_id AND st.episode = e.episode
		GROUP BY e.run_id, e.episode
		ORDER BY e.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var out []EpisodeSummary
	for rows.Next() {
		var e EpisodeSummary
		if err := rows.Scan(&e.RunID, &e.Episode, &e.StartedAt, &e.Steps); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// StepRow is one recorded step.
type StepRow struct {
	Episode      int      `json:"episode"`
	Iteration    int      `json:"iteration"`
	Concept      int      `json:"concept"`
	BallX        float64  `json:"ball_x"`
	BallY        float64  `json:"ball_y"`
	BallVelX     float64  `json:"ball_vel_x"`
	BallVelY     float64  `json:"ball_vel_y"`
	PlateThetaX  float64  `json:"plate_theta_x"`
	PlateThetaY  float64  `json:"plate_theta_y"`
	InputRoll    *float64 `json:"input_roll,omitempty"`
	InputPitch   *float64 `json:"input_pitch,omitempty"`
	InputHeightZ *float64 `json:"input_height_z,omitempty"`
}

// Steps returns the recorded steps of one episode in a run, in
// iteration order.
func (s *Store) Steps(runID string, episode int) ([]StepRow, error) {
	rows, err := s.Query(`
		SELECT episode, iteration, concept,
			ball_x, ball_y, ball_vel_x, ball_vel_y,
			plate_theta_x, plate_theta_y,
			input_roll, input_pitch, input_height_z
		FROM steps
		WHERE run_id = ? AND episode = ?
		ORDER BY iteration`, runID, episode)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var out []StepRow
	for rows.Next() {
		var r StepRow
		var roll, pitch, height sql.NullFloat64
		if err := rows.Scan(&r.Episode, &r.Iteration, &r.Concept,
			&r.BallX, &r.BallY, &r.BallVelX, &r.BallVelY,
			&r.PlateThetaX, &r.PlateThetaY,
			&roll, &pitch, &height); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		if roll.Valid {
			r.InputRoll = &roll.Float64
		}
		if pitch.Valid {
			r.InputPitch = &pitch.Float64
		}
		if height.Valid {
			r.InputHeightZ = &height.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
