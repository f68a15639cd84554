package common

import (
	"fmt"
	"time"
)

// Cache TTLs per scan type. A row also goes stale at the trading-day
// boundary regardless of TTL.
const (
	IntradayScanTTL = 15 * time.Minute
	MultidayScanTTL = 3 * time.Hour
)

// Regular session bounds, minutes from midnight exchange-local.
const (
	sessionOpenMinute  = 9*60 + 30 // 09:30
	sessionCloseMinute = 16 * 60   // 16:00
)

// MarketClock answers exchange-local calendar questions: trading-day
// identity, session hours, and the fixed multiday refresh windows.
type MarketClock struct {
	loc *time.Location
}

// NewMarketClock loads the exchange time zone. tz defaults to
// America/New_York when empty.
func NewMarketClock(tz string) (*MarketClock, error) {
	if tz == "" {
		tz = "America/New_York"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load market timezone %q: %w", tz, err)
	}
	return &MarketClock{loc: loc}, nil
}

// Location returns the exchange time zone.
func (c *MarketClock) Location() *time.Location {
	return c.loc
}

// SameTradingDay reports whether a and b fall on the same exchange-local
// calendar date. The calendar date is the refresh epoch: a row scanned
// yesterday is stale today even if its TTL has not elapsed.
func (c *MarketClock) SameTradingDay(a, b time.Time) bool {
	ay, am, ad := a.In(c.loc).Date()
	by, bm, bd := b.In(c.loc).Date()
	return ay == by && am == bm && ad == bd
}

// IsMarketHours reports whether t falls inside the regular weekday session.
func (c *MarketClock) IsMarketHours(t time.Time) bool {
	lt := t.In(c.loc)
	switch lt.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	m := lt.Hour()*60 + lt.Minute()
	return m >= sessionOpenMinute && m < sessionCloseMinute
}

// InMultidayWindow reports whether t falls inside one of the two fixed
// multiday refresh windows: the first hour after the open or the last hour
// before the close.
func (c *MarketClock) InMultidayWindow(t time.Time) bool {
	if !c.IsMarketHours(t) {
		return false
	}
	lt := t.In(c.loc)
	m := lt.Hour()*60 + lt.Minute()
	return m < sessionOpenMinute+60 || m >= sessionCloseMinute-60
}
