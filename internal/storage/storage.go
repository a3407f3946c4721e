// Package storage persists the canonical trade ledger in PostgreSQL. It is
// the system's idempotency boundary: the unique trade_hash index plus
// insert-if-absent semantics guarantee that concurrent or repeated uploads of
// overlapping exports never duplicate ledger entries, so nothing above this
// layer takes locks.
package storage

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"growdash/internal/interfaces"
	"growdash/internal/types"
)

// JSONMap stores a raw-payload map in a jsonb column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported raw_payload column type %T", src)
}

type tradeModel struct {
	ID         uint       `gorm:"primaryKey"`
	TradeHash  string     `gorm:"size:64;not null;uniqueIndex"`
	OrderID    *string    `gorm:"size:64;index"`
	Symbol     string     `gorm:"size:128;not null;index"`
	Exchange   *string    `gorm:"size:32"`
	Segment    *string    `gorm:"size:32"`
	Side       string     `gorm:"size:8;not null;index"`
	Quantity   int        `gorm:"not null"`
	Price      float64    `gorm:"not null"`
	TradedAt   time.Time  `gorm:"not null;index"`
	Strike     *float64   `gorm:"index"`
	OptionType *string    `gorm:"size:8;index"`
	Expiry     *time.Time `gorm:"type:date;index"`
	RawPayload JSONMap    `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

func (tradeModel) TableName() string { return "trades" }

// TradeRepository implements interfaces.TradeStore on gorm.
type TradeRepository struct {
	db *gorm.DB
}

var _ interfaces.TradeStore = (*TradeRepository)(nil)

// Open connects to PostgreSQL and migrates the trades table.
func Open(dsn string) (*TradeRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := db.AutoMigrate(&tradeModel{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return &TradeRepository{db: db}, nil
}

// NewTradeRepository wraps an existing gorm handle (used by tests and by
// callers that manage the connection themselves).
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// SaveTrades inserts records with ON CONFLICT (trade_hash) DO NOTHING and
// reports how many rows were actually inserted; the remainder were already
// present.
func (r *TradeRepository) SaveTrades(ctx context.Context, trades []types.Trade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	models := make([]tradeModel, 0, len(trades))
	for _, t := range trades {
		models = append(models, toModel(t))
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "trade_hash"}},
			DoNothing: true,
		}).
		Create(&models)
	if res.Error != nil {
		return 0, fmt.Errorf("insert trades: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r *TradeRepository) ListTrades(ctx context.Context, limit, offset int) ([]types.Trade, error) {
	var models []tradeModel
	err := r.db.WithContext(ctx).
		Order("traded_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

func (r *TradeRepository) AllTrades(ctx context.Context) ([]types.Trade, error) {
	var models []tradeModel
	err := r.db.WithContext(ctx).
		Order("traded_at asc, id asc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromModels(models), nil
}

func toModel(t types.Trade) tradeModel {
	m := tradeModel{
		TradeHash:  t.TradeHash,
		OrderID:    optString(t.OrderID),
		Symbol:     t.Symbol,
		Exchange:   optString(t.Exchange),
		Segment:    optString(t.Segment),
		Side:       t.Side,
		Quantity:   t.Quantity,
		Price:      t.Price,
		TradedAt:   t.TradedAt,
		Strike:     t.Strike,
		OptionType: optString(t.OptionType),
		Expiry:     t.Expiry,
	}
	if len(t.RawPayload) > 0 {
		m.RawPayload = JSONMap(t.RawPayload)
	}
	return m
}

func fromModels(models []tradeModel) []types.Trade {
	trades := make([]types.Trade, 0, len(models))
	for _, m := range models {
		trades = append(trades, types.Trade{
			TradeHash:  m.TradeHash,
			OrderID:    deref(m.OrderID),
			Symbol:     m.Symbol,
			Exchange:   deref(m.Exchange),
			Segment:    deref(m.Segment),
			Side:       m.Side,
			Quantity:   m.Quantity,
			Price:      m.Price,
			TradedAt:   m.TradedAt,
			Strike:     m.Strike,
			OptionType: deref(m.OptionType),
			Expiry:     m.Expiry,
			RawPayload: map[string]any(m.RawPayload),
		})
	}
	return trades
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
