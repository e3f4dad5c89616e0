// Package schedule exposes schedule generation and run history over HTTP.
package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/prodsched/core/model"
	"github.com/kilianp07/prodsched/core/runlog"
	"github.com/kilianp07/prodsched/pkg/export"
)

// Generator produces the schedule of one production day.
type Generator interface {
	GenerateSchedule(ctx context.Context, date time.Time) model.ScheduleResult
}

func authorized(w http.ResponseWriter, r *http.Request, token string) bool {
	if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// NewScheduleHandler returns an HTTP handler running the scheduler via
// GET /api/schedule?date=YYYY-MM-DD. format=csv returns the tasks as CSV.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewScheduleHandler(gen Generator, token string, loc *time.Location) http.Handler {
	if loc == nil {
		loc = time.UTC
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(w, r, token) {
			return
		}
		raw := r.URL.Query().Get("date")
		if raw == "" {
			http.Error(w, "date is required", http.StatusBadRequest)
			return
		}
		date, err := time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		res := gen.GenerateSchedule(r.Context(), date)
		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			if err := export.WriteCSV(w, res.Tasks); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewRunsHandler returns an HTTP handler exposing the run history via
// GET /api/runs. start and end filter on the scheduled date (YYYY-MM-DD),
// feasible on the outcome and worker_id on the assigned worker.
func NewRunsHandler(store runlog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r, token) {
			return
		}
		q := runlog.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.DateOnly, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.DateOnly, s); err == nil {
				q.End = t
			}
		}
		if s := r.URL.Query().Get("feasible"); s != "" {
			if b, err := strconv.ParseBool(s); err == nil {
				q.Feasible = &b
			}
		}
		q.WorkerID = r.URL.Query().Get("worker_id")
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []runlog.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
