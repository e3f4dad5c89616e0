package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/prodsched/core/metrics"
	"github.com/kilianp07/prodsched/infra/logger"
)

// InfluxSink writes run summaries to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.RunSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one schedule_run point.
func (s *InfluxSink) RecordRun(r coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("schedule_run").
		AddTag("run_id", r.RunID).
		AddTag("date", r.Date.Format(time.DateOnly)).
		AddTag("state", r.State).
		AddTag("feasible", strconv.FormatBool(r.Feasible)).
		AddTag("component", "scheduler").
		AddField("orders", r.Orders).
		AddField("workers", r.Workers).
		AddField("tasks", r.Tasks).
		AddField("issues", r.Issues).
		AddField("recommendations", r.Recommendations).
		AddField("utilization", round3(r.Utilization)).
		AddField("duration_ms", round3(float64(r.Duration)/float64(time.Millisecond)))
	if r.Error != "" {
		p = p.AddField("error", r.Error)
	}
	p = p.SetTime(r.StartedAt)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordWorkerLoad writes one worker_load point per worker.
func (s *InfluxSink) RecordWorkerLoad(loads []coremetrics.WorkerLoad) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, l := range loads {
		p := write.NewPointWithMeasurement("worker_load").
			AddTag("worker_id", l.WorkerID).
			AddField("hours", round3(l.Hours)).
			AddField("tasks", l.Tasks).
			SetTime(l.Date)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
