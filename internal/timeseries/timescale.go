package timeseries

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vesselware/voyagelog/internal/config"
	"github.com/vesselware/voyagelog/internal/log"
	"go.uber.org/zap"
)

// TimescaleSampler reads raw telemetry rows from a TimescaleDB table and
// buckets them into one-minute points client-side.
type TimescaleSampler struct {
	db     *gorm.DB
	table  string
	vessel string
}

type telemetryRow struct {
	Time        time.Time
	Path        string
	Value       *float64
	StringValue string `gorm:"column:string_value"`
	JSONValue   string `gorm:"column:json_value"`
}

// NewTimescaleSampler connects to the TimescaleDB database. A non-empty
// vessel context narrows every query to that vessel's rows.
func NewTimescaleSampler(cfg *config.TimescaleDBConfig, vessel string) (*TimescaleSampler, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(cfg.ConnectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to create a TimescaleDB connection: %w", err)
	}
	log.Info("TimescaleDB connection successful")

	return &TimescaleSampler{
		db:     db,
		table:  cfg.Table,
		vessel: vessel,
	}, nil
}

// QueryNumeric returns the per-minute mean of a numeric signal
func (s *TimescaleSampler) QueryNumeric(ctx context.Context, path string, start, end time.Time) ([]Point, error) {
	rows, err := s.fetch(ctx, path, start, end)
	if err != nil {
		return nil, err
	}
	return bucketNumeric(rows), nil
}

// QueryText returns the first string value observed in each minute
func (s *TimescaleSampler) QueryText(ctx context.Context, path string, start, end time.Time) ([]Point, error) {
	rows, err := s.fetch(ctx, path, start, end)
	if err != nil {
		return nil, err
	}
	return bucketText(rows, func(r telemetryRow) string { return r.StringValue }), nil
}

// QueryJSON returns the first JSON value observed in each minute
func (s *TimescaleSampler) QueryJSON(ctx context.Context, path string, start, end time.Time) ([]Point, error) {
	rows, err := s.fetch(ctx, path, start, end)
	if err != nil {
		return nil, err
	}
	return bucketText(rows, func(r telemetryRow) string { return r.JSONValue }), nil
}

// Close closes the underlying database connection
func (s *TimescaleSampler) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *TimescaleSampler) fetch(ctx context.Context, path string, start, end time.Time) ([]telemetryRow, error) {
	var rows []telemetryRow
	query := s.db.WithContext(ctx).
		Table(s.table).
		Where("path = ? AND time >= ? AND time <= ?", path, start.UTC(), end.UTC())
	if s.vessel != "" {
		query = query.Where("context = ?", s.vessel)
	}
	err := query.Order("time").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", path, err)
	}
	return rows, nil
}

// bucketNumeric averages numeric values per minute
func bucketNumeric(rows []telemetryRow) []Point {
	var points []Point
	var bucket time.Time
	var values []float64

	flush := func() {
		if len(values) == 0 {
			return
		}
		mean := stat.Mean(values, nil)
		points = append(points, Point{Time: bucket, Value: &mean})
		values = nil
	}

	for _, row := range rows {
		if row.Value == nil {
			continue
		}
		minute := row.Time.UTC().Truncate(time.Minute)
		if !minute.Equal(bucket) {
			flush()
			bucket = minute
		}
		values = append(values, *row.Value)
	}
	flush()

	return points
}

// bucketText keeps the first non-empty value per minute
func bucketText(rows []telemetryRow, value func(telemetryRow) string) []Point {
	var points []Point
	var bucket time.Time

	for _, row := range rows {
		text := value(row)
		if text == "" {
			continue
		}
		minute := row.Time.UTC().Truncate(time.Minute)
		if minute.Equal(bucket) && len(points) > 0 {
			continue
		}
		bucket = minute
		points = append(points, Point{Time: minute, Text: text})
	}

	return points
}
