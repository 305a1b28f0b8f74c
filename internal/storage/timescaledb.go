package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/swot-confluence/metroman/internal/log"
)

// ResultRow is the gorm model for one reach-set record. Per-reach and
// per-time-step arrays are stored JSON-encoded; the table is append-only and
// queried by set key and run time.
type ResultRow struct {
	ID      uint      `gorm:"primaryKey"`
	SetID   string    `gorm:"index;not null"`
	RunID   string    `gorm:"not null"`
	RunTime time.Time `gorm:"index;not null"`

	Valid int
	Tier  string

	ReachIDs string `gorm:"type:text"`
	A0       string `gorm:"type:text"`
	Na       string `gorm:"type:text"`
	X1       string `gorm:"type:text"`
	Q        string `gorm:"type:text"`
	QUnc     string `gorm:"type:text"`
	Time     string `gorm:"type:text"`
}

// TableName keeps the table name stable across gorm naming-strategy changes.
func (ResultRow) TableName() string { return "metroman_results" }

// TimescaleDBSink appends result records to a TimescaleDB (or plain
// Postgres) table.
type TimescaleDBSink struct {
	db *gorm.DB
}

// NewTimescaleDBSink connects and migrates the results table.
func NewTimescaleDBSink(dsn string) (*TimescaleDBSink, error) {
	dbLogger := gormlogger.New(
		zap.NewStdLog(log.GetSugaredLogger().Desugar()),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Warn,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("connecting to results database: %w", err)
	}
	if err := db.AutoMigrate(&ResultRow{}); err != nil {
		return nil, fmt.Errorf("migrating results table: %w", err)
	}
	return &TimescaleDBSink{db: db}, nil
}

func (s *TimescaleDBSink) WriteRecord(ctx context.Context, rec *Record) error {
	row := ResultRow{
		SetID:    rec.SetID,
		RunID:    rec.RunID,
		RunTime:  rec.RunTime,
		Valid:    rec.Valid,
		Tier:     rec.Tier,
		ReachIDs: mustJSON(rec.ReachIDs),
		A0:       mustJSON(rec.A0),
		Na:       mustJSON(rec.Na),
		X1:       mustJSON(rec.X1),
		Q:        mustJSON(rec.Q),
		QUnc:     mustJSON(rec.QUnc),
		Time:     mustJSON(rec.Time),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting record %s: %w", rec.SetID, err)
	}
	return nil
}

func (s *TimescaleDBSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func mustJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		// all record fields are plain slices; this cannot fail
		return "null"
	}
	return string(raw)
}
