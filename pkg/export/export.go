// Package export writes schedule results for downstream tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/prodsched/core/model"
)

// CSVHeader lists the columns written by WriteCSV.
var CSVHeader = []string{"assignment_id", "order_id", "order_step_id", "process_step_id", "area_id", "worker_id", "start", "end", "duration_minutes", "status"}

// WriteJSON writes the schedule result to w in JSON format.
func WriteJSON(w io.Writer, res model.ScheduleResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteCSV writes one row per assignment to w.
func WriteCSV(w io.Writer, tasks []model.Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		rec := []string{
			t.ID,
			t.OrderID,
			t.OrderStepID,
			t.ProcessStepID,
			t.AreaID,
			t.WorkerID,
			t.Start.Format(time.RFC3339),
			t.End.Format(time.RFC3339),
			strconv.FormatFloat(t.DurationMinutes, 'f', -1, 64),
			string(t.Status),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
