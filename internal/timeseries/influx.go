package timeseries

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	client "github.com/influxdata/influxdb/client/v2"

	"github.com/vesselware/voyagelog/internal/config"
)

// InfluxSampler reads minute-bucketed signals from an InfluxDB instance
// where each signal path is stored as its own measurement.
type InfluxSampler struct {
	conn     client.Client
	database string
	vessel   string
}

// NewInfluxSampler connects to InfluxDB over HTTP. A non-empty vessel
// context narrows every query to that vessel's series.
func NewInfluxSampler(cfg *config.InfluxDBConfig, vessel string) (*InfluxSampler, error) {
	conn, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     fmt.Sprintf("%v://%v:%v", cfg.Scheme, cfg.Host, cfg.Port),
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create InfluxDB client: %w", err)
	}

	return &InfluxSampler{
		conn:     conn,
		database: cfg.Database,
		vessel:   vessel,
	}, nil
}

// QueryNumeric returns the per-minute mean of a numeric signal
func (s *InfluxSampler) QueryNumeric(ctx context.Context, path string, start, end time.Time) ([]Point, error) {
	return s.query(ctx, "mean(value)", path, start, end)
}

// QueryText returns the first string value observed in each minute
func (s *InfluxSampler) QueryText(ctx context.Context, path string, start, end time.Time) ([]Point, error) {
	return s.query(ctx, "first(stringValue)", path, start, end)
}

// QueryJSON returns the first JSON value observed in each minute
func (s *InfluxSampler) QueryJSON(ctx context.Context, path string, start, end time.Time) ([]Point, error) {
	return s.query(ctx, "first(jsonValue)", path, start, end)
}

// Close releases the HTTP client
func (s *InfluxSampler) Close() error {
	return s.conn.Close()
}

func (s *InfluxSampler) query(ctx context.Context, selector, path string, start, end time.Time) ([]Point, error) {
	stmt := influxStatement(selector, path, s.vessel, start, end)

	resp, err := s.conn.Query(client.NewQuery(stmt, s.database, ""))
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", path, err)
	}
	if resp.Error() != nil {
		return nil, fmt.Errorf("error querying %s: %w", path, resp.Error())
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Series) == 0 {
		return nil, nil
	}

	var points []Point
	for _, row := range resp.Results[0].Series[0].Values {
		point, err := parseRow(path, row)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}

	return points, nil
}

// influxStatement builds the minute-bucketed InfluxQL query for one
// signal path, filtered by vessel context when one is configured
func influxStatement(selector, path, vessel string, start, end time.Time) string {
	stmt := fmt.Sprintf(`SELECT %s AS value FROM %q WHERE time >= '%s' AND time <= '%s'`,
		selector, path, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if vessel != "" {
		stmt += fmt.Sprintf(` AND "context" = '%s'`, vessel)
	}
	return stmt + ` GROUP BY time(1m)`
}

// parseRow converts an InfluxDB result row into a Point. A row that does
// not match the expected [time, value] shape is fatal for the run.
func parseRow(path string, row []interface{}) (Point, error) {
	if len(row) != 2 {
		return Point{}, fmt.Errorf("unexpected result shape for %s: %d columns, want 2", path, len(row))
	}

	ts, ok := row[0].(string)
	if !ok {
		return Point{}, fmt.Errorf("unexpected timestamp type %T for %s", row[0], path)
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return Point{}, fmt.Errorf("malformed timestamp %q for %s: %w", ts, path, err)
	}

	point := Point{Time: t}
	switch v := row[1].(type) {
	case nil:
		// Empty bucket
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Point{}, fmt.Errorf("malformed value %q for %s: %w", v, path, err)
		}
		point.Value = &f
	case float64:
		f := v
		point.Value = &f
	case string:
		point.Text = v
	default:
		return Point{}, fmt.Errorf("unexpected value type %T for %s", row[1], path)
	}

	return point, nil
}
