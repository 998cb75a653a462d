// Package sink is the persistence layer (C7): it receives decoded typed
// measurements and appends them to four durable, append-only tables. Every
// operation is independent — a failure writing one property is logged and
// does not abort the others — except AppendHistorical, which writes its
// whole batch in a single transaction.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/ak1211/uchinoepower/internal/acqerr"
	"github.com/ak1211/uchinoepower/internal/profile"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	_ "github.com/lib/pq"
)

// Sink is the relational persistence layer. It wraps a connection pool;
// individual operations borrow a connection for their duration.
type Sink struct {
	db *sqlx.DB
}

// Open opens a connection pool against databaseURL (a postgres:// DSN).
func Open(databaseURL string) (*Sink, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, acqerr.New(acqerr.Sink, fmt.Errorf("open database: %w", err))
	}
	return &Sink{db: db}, nil
}

// Close releases the connection pool.
func (s *Sink) Close() error {
	return s.db.Close()
}

// InstantPower is one instantaneous-power measurement.
type InstantPower struct {
	RecordedAt time.Time `db:"recorded_at"`
	Watt       int32     `db:"watt"`
}

// InstantCurrent is one instantaneous-current measurement. T is nil on a
// single-phase-two-wire installation.
type InstantCurrent struct {
	RecordedAt time.Time       `db:"recorded_at"`
	R          decimal.Decimal `db:"r"`
	T          *decimal.Decimal `db:"t"`
}

// CumulativeAtFixedTime is one fixed-time cumulative-amount reading.
type CumulativeAtFixedTime struct {
	RecordedAt time.Time       `db:"recorded_at"`
	KWh        decimal.Decimal `db:"kwh"`
}

// HistoricalReading is one entry of a historical-cumulative-amount batch.
type HistoricalReading struct {
	RecordedAt time.Time
	KWh        decimal.Decimal
}

// ReadSettings reads the most recently written connection profile. Only
// the most recent settings row is consulted, per the persistence contract.
func (s *Sink) ReadSettings(ctx context.Context) (profile.Profile, error) {
	type row struct {
		ID   int64  `db:"id"`
		Note []byte `db:"note"`
	}
	var r row
	err := s.db.GetContext(ctx, &r, `SELECT id, note FROM settings ORDER BY id DESC LIMIT 1`)
	if err != nil {
		return profile.Profile{}, acqerr.New(acqerr.Sink, fmt.Errorf("read settings: %w", err))
	}
	var p profile.Profile
	if err := p.UnmarshalJSON(r.Note); err != nil {
		return profile.Profile{}, acqerr.New(acqerr.Sink, fmt.Errorf("decode settings note: %w", err))
	}
	return p, nil
}

// WriteSettings appends a new settings row carrying p as its note. The
// daemon never calls this; it is the pairing procedure's write path.
func (s *Sink) WriteSettings(ctx context.Context, p profile.Profile) error {
	note, err := p.MarshalJSON()
	if err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("encode settings note: %w", err))
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO settings (note) VALUES ($1)`, note)
	if err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("write settings: %w", err))
	}
	return nil
}

// AppendInstantPower appends one instantaneous-power reading.
func (s *Sink) AppendInstantPower(ctx context.Context, rec InstantPower) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO instant_epower (recorded_at, watt) VALUES ($1, $2)`,
		rec.RecordedAt, rec.Watt)
	if err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("append instant power: %w", err))
	}
	return nil
}

// AppendInstantCurrent appends one instantaneous-current reading.
func (s *Sink) AppendInstantCurrent(ctx context.Context, rec InstantCurrent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO instant_current (recorded_at, r, t) VALUES ($1, $2, $3)`,
		rec.RecordedAt, rec.R, rec.T)
	if err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("append instant current: %w", err))
	}
	return nil
}

// AppendCumulativeFixed appends one fixed-time cumulative-amount reading.
// It shares the cumulative_amount_epower table with historical readings.
func (s *Sink) AppendCumulativeFixed(ctx context.Context, rec CumulativeAtFixedTime) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cumulative_amount_epower (recorded_at, kwh) VALUES ($1, $2)`,
		rec.RecordedAt, rec.KWh)
	if err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("append cumulative fixed: %w", err))
	}
	return nil
}

// recentRowLimit bounds how many rows the read-only reporting queries
// return, newest first.
const recentRowLimit = 100

// RecentInstantPower returns the most recent instantaneous-power readings,
// newest first.
func (s *Sink) RecentInstantPower(ctx context.Context) ([]InstantPower, error) {
	var recs []InstantPower
	err := s.db.SelectContext(ctx, &recs,
		`SELECT recorded_at, watt FROM instant_epower ORDER BY recorded_at DESC LIMIT $1`, recentRowLimit)
	if err != nil {
		return nil, acqerr.New(acqerr.Sink, fmt.Errorf("read instant power: %w", err))
	}
	return recs, nil
}

// RecentInstantCurrent returns the most recent instantaneous-current
// readings, newest first.
func (s *Sink) RecentInstantCurrent(ctx context.Context) ([]InstantCurrent, error) {
	var recs []InstantCurrent
	err := s.db.SelectContext(ctx, &recs,
		`SELECT recorded_at, r, t FROM instant_current ORDER BY recorded_at DESC LIMIT $1`, recentRowLimit)
	if err != nil {
		return nil, acqerr.New(acqerr.Sink, fmt.Errorf("read instant current: %w", err))
	}
	return recs, nil
}

// RecentCumulativeAmount returns the most recent cumulative-amount
// readings (fixed-time and historical share this table), newest first.
func (s *Sink) RecentCumulativeAmount(ctx context.Context) ([]CumulativeAtFixedTime, error) {
	var recs []CumulativeAtFixedTime
	err := s.db.SelectContext(ctx, &recs,
		`SELECT recorded_at, kwh FROM cumulative_amount_epower ORDER BY recorded_at DESC LIMIT $1`, recentRowLimit)
	if err != nil {
		return nil, acqerr.New(acqerr.Sink, fmt.Errorf("read cumulative amount: %w", err))
	}
	return recs, nil
}

// DuplicateCumulativeAmountGroup is one run of consecutive
// cumulative_amount_epower rows sharing the same (recorded_at, kwh) pair.
// KeepID is the oldest row's id; DropIDs are the rest.
type DuplicateCumulativeAmountGroup struct {
	KeepID  int64
	DropIDs []int64
}

// FindDuplicateCumulativeAmounts scans cumulative_amount_epower ordered by
// recorded_at and groups consecutive rows with an identical (recorded_at,
// kwh) pair.
func (s *Sink) FindDuplicateCumulativeAmounts(ctx context.Context) ([]DuplicateCumulativeAmountGroup, error) {
	type row struct {
		ID         int64           `db:"id"`
		RecordedAt time.Time       `db:"recorded_at"`
		KWh        decimal.Decimal `db:"kwh"`
	}
	var rows []row
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, recorded_at, kwh FROM cumulative_amount_epower ORDER BY recorded_at ASC, id ASC`)
	if err != nil {
		return nil, acqerr.New(acqerr.Sink, fmt.Errorf("scan cumulative amount: %w", err))
	}

	var groups []DuplicateCumulativeAmountGroup
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if !prev.RecordedAt.Equal(cur.RecordedAt) || !prev.KWh.Equal(cur.KWh) {
			continue
		}
		if len(groups) > 0 {
			last := &groups[len(groups)-1]
			if last.DropIDs[len(last.DropIDs)-1] == prev.ID {
				last.DropIDs = append(last.DropIDs, cur.ID)
				continue
			}
		}
		groups = append(groups, DuplicateCumulativeAmountGroup{KeepID: prev.ID, DropIDs: []int64{cur.ID}})
	}
	return groups, nil
}

// DeleteCumulativeAmounts deletes the given row ids inside a single
// transaction.
func (s *Sink) DeleteCumulativeAmounts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("begin delete transaction: %w", err))
	}
	defer tx.Rollback()

	query, args, err := sqlx.In(`DELETE FROM cumulative_amount_epower WHERE id IN (?)`, ids)
	if err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("build delete query: %w", err))
	}
	query = tx.Rebind(query)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("delete duplicate rows: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("commit delete transaction: %w", err))
	}
	return nil
}

// AppendHistorical writes a whole historical-cumulative-amount batch as a
// single multi-row insert inside one transaction — the only sink
// operation with that guarantee.
func (s *Sink) AppendHistorical(ctx context.Context, records []HistoricalReading) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("begin historical transaction: %w", err))
	}
	defer tx.Rollback()

	query := `INSERT INTO cumulative_amount_epower (recorded_at, kwh) VALUES `
	args := make([]interface{}, 0, len(records)*2)
	for i, rec := range records {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
		args = append(args, rec.RecordedAt, rec.KWh)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("insert historical batch: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return acqerr.New(acqerr.Sink, fmt.Errorf("commit historical transaction: %w", err))
	}
	return nil
}
