package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type auditLogModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TraceID   string `gorm:"index;size:64"`
	Stage     string `gorm:"size:32"`
	Status    string `gorm:"size:16"`
	Detail    string
	CreatedAt time.Time
}

func (auditLogModel) TableName() string { return "audit_log" }

type decisionModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TraceID   string `gorm:"index;size:64"`
	UserID    string `gorm:"index;size:64"`
	Symbol    string `gorm:"index;size:32"`
	Action    string `gorm:"size:16"`
	Rationale string
	Urgency   int
	RiskScore float64
	CreatedAt time.Time
}

func (decisionModel) TableName() string { return "decisions" }

type alternativeModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TraceID   string `gorm:"index;size:64"`
	Symbol    string `gorm:"size:32"`
	Reason    string
	RiskScore float64
	Sentiment float64
	Score     float64
	Sector    string `gorm:"size:32"`
	Price     float64
	CreatedAt time.Time
}

func (alternativeModel) TableName() string { return "alternatives" }

// SQLite persists the audit trail with Gorm over SQLite in WAL mode.
type SQLite struct {
	db *gorm.DB
}

func NewSQLite(path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite sink: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&auditLogModel{}, &decisionModel{}, &alternativeModel{}); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)

	return &SQLite{db: db}, nil
}

func (s *SQLite) Record(ctx context.Context, e Entry) error {
	row := auditLogModel{
		TraceID:   e.TraceID,
		Stage:     e.Stage,
		Status:    e.Status,
		Detail:    e.Detail,
		CreatedAt: e.Timestamp,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *SQLite) RecordDecision(ctx context.Context, d DecisionRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := decisionModel{
			TraceID:   d.TraceID,
			UserID:    d.UserID,
			Symbol:    d.Symbol,
			Action:    d.Action,
			Rationale: d.Rationale,
			Urgency:   d.Urgency,
			RiskScore: d.RiskScore,
			CreatedAt: d.Timestamp,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		for _, alt := range d.Alternatives {
			altRow := alternativeModel{
				TraceID:   d.TraceID,
				Symbol:    alt.Symbol,
				Reason:    alt.Reason,
				RiskScore: alt.RiskScore,
				Sentiment: alt.Sentiment,
				Score:     alt.Score,
				Sector:    alt.Sector,
				Price:     alt.CurrentPrice,
				CreatedAt: d.Timestamp,
			}
			if err := tx.Create(&altRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
