package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tick is one persisted top-of-book quote.
type Tick struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Symbol    string          `gorm:"index:idx_ticks_symbol_ts;size:32;not null" json:"symbol"`
	Source    string          `gorm:"size:32;not null" json:"source"`
	BidPrice  decimal.Decimal `gorm:"type:numeric" json:"bid_price"`
	BidSize   decimal.Decimal `gorm:"type:numeric" json:"bid_size"`
	AskPrice  decimal.Decimal `gorm:"type:numeric" json:"ask_price"`
	AskSize   decimal.Decimal `gorm:"type:numeric" json:"ask_size"`
	Timestamp time.Time       `gorm:"index:idx_ticks_symbol_ts" json:"timestamp"`
	CreatedAt time.Time       `json:"created_at"`
}
