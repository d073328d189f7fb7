package main

import (
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	recorderBufSize   = 256
	recorderBatchMax  = 32
	recorderFlushTick = 5 * time.Second
)

// Recorder persists completed-match summaries with batched background
// writes so the tick loop never blocks on the database.
type Recorder struct {
	db        *DB
	summaries chan MatchSummary
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewRecorder creates and starts the background writer.
func NewRecorder(db *DB) *Recorder {
	r := &Recorder{
		db:        db,
		summaries: make(chan MatchSummary, recorderBufSize),
		stop:      make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// RecordSummary enqueues a summary for async persistence (non-blocking).
func (r *Recorder) RecordSummary(s MatchSummary) {
	select {
	case r.summaries <- s:
	default:
		// Channel full, drop rather than blocking match teardown
		log.Printf("recorder: queue full, dropping summary for match %s", s.MatchID)
	}
}

// Stop gracefully shuts down the writer, flushing queued summaries.
func (r *Recorder) Stop() {
	close(r.stop)
	r.wg.Wait()
}

// writer batches and writes summaries to the database.
func (r *Recorder) writer() {
	defer r.wg.Done()

	batch := make([]MatchSummary, 0, recorderBatchMax)
	ticker := time.NewTicker(recorderFlushTick)
	defer ticker.Stop()

	for {
		select {
		case s := <-r.summaries:
			batch = append(batch, s)
			if len(batch) >= recorderBatchMax {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-r.stop:
			// Drain without closing; a racing RecordSummary must not panic
			for {
				select {
				case s := <-r.summaries:
					batch = append(batch, s)
				default:
					if len(batch) > 0 {
						r.flush(batch)
					}
					return
				}
			}
		}
	}
}

// flush writes a batch of summaries and folds results into account stats.
func (r *Recorder) flush(batch []MatchSummary) {
	if r.db == nil || len(batch) == 0 {
		return
	}
	for _, s := range batch {
		if err := r.db.InsertMatchSummary(s); err != nil {
			log.Printf("recorder: insert error for match %s: %v", s.MatchID, err)
			continue
		}
		r.foldStats(s, s.P1, s.Score1, s.Score2, s.Kills1, s.Damage1)
		r.foldStats(s, s.P2, s.Score2, s.Score1, s.Kills2, s.Damage2)
	}
}

// foldStats updates the lifetime record for one participant. Only
// account-backed player IDs ("u<id>") are persisted; guests have no row.
func (r *Recorder) foldStats(s MatchSummary, playerID string, roundsWon, roundsLost, kills, damage int) {
	accountID, ok := accountIDFromPlayerID(playerID)
	if !ok {
		return
	}
	won := s.WinnerID == playerID
	if err := r.db.UpdateStatsAfterMatch(accountID, won, roundsWon, roundsLost, kills, damage, s.Duration); err != nil {
		log.Printf("recorder: stats update error for %s: %v", playerID, err)
	}
}

// accountIDFromPlayerID maps a sim-facing player ID back to its account.
func accountIDFromPlayerID(playerID string) (int64, bool) {
	if !strings.HasPrefix(playerID, "u") {
		return 0, false
	}
	id, err := strconv.ParseInt(playerID[1:], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
