package records

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"callrecord-intelligence/pkg/utils"
)

// PostgresRepo stores call records in Postgres via database/sql (pgx stdlib
// driver). It assumes the following table exists:
//
//	CREATE TABLE call_records (
//	  id            UUID PRIMARY KEY,
//	  caller_id     VARCHAR(20) NOT NULL,
//	  recipient     VARCHAR(20) NOT NULL,
//	  start_time    TIMESTAMPTZ NOT NULL,
//	  end_time      TIMESTAMPTZ NOT NULL,
//	  cost          NUMERIC(10,3) NOT NULL,
//	  reference     VARCHAR NOT NULL,
//	  currency      VARCHAR(3) NOT NULL,
//	  inserted      TIMESTAMPTZ NOT NULL,
//	  last_updated  TIMESTAMPTZ NOT NULL
//	);
//
// Filtering is pushed into SQL; the WHERE clauses here must stay behaviorally
// equivalent to Filter.Predicate, which MemoryRepo evaluates directly.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const recordColumns = "id, caller_id, recipient, start_time, end_time, cost, reference, currency, inserted, last_updated"

// whereClause renders the filter as a WHERE fragment with positional args.
func whereClause(f Filter) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ID != nil {
		conds = append(conds, "id = "+arg(*f.ID))
	}
	if f.Reference != nil {
		conds = append(conds, "reference = "+arg(*f.Reference))
	}
	if f.StartDate != nil {
		conds = append(conds, "start_time >= "+arg(f.StartDate.UTC()))
	}
	if f.EndDate != nil {
		conds = append(conds, "end_time <= "+arg(f.EndDate.UTC()))
	}
	if phone := strings.ToLower(strings.TrimSpace(f.PhoneNumber)); phone != "" {
		p := arg(phone)
		conds = append(conds, fmt.Sprintf(
			"(POSITION(%s IN LOWER(TRIM(caller_id))) > 0 OR POSITION(%s IN LOWER(TRIM(recipient))) > 0)", p, p))
	}
	if currency := strings.ToLower(strings.TrimSpace(f.Currency)); currency != "" {
		conds = append(conds, "LOWER(TRIM(currency)) = "+arg(currency))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func fieldExpr(field Field) string {
	if field == FieldCost {
		return "cost"
	}
	return "EXTRACT(EPOCH FROM (end_time - start_time))"
}

func (p *PostgresRepo) Count(ctx context.Context, f Filter) (int, error) {
	where, args := whereClause(f)
	var n int
	err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM call_records"+where, args...).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (p *PostgresRepo) Sum(ctx context.Context, f Filter, field Field) (decimal.Decimal, error) {
	where, args := whereClause(f)
	q := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) FROM call_records%s", fieldExpr(field), where)
	var total decimal.Decimal
	if err := p.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (p *PostgresRepo) Average(ctx context.Context, f Filter, field Field) (decimal.Decimal, error) {
	where, args := whereClause(f)
	q := fmt.Sprintf("SELECT COALESCE(AVG(%s), 0) FROM call_records%s", fieldExpr(field), where)
	var avg decimal.Decimal
	if err := p.db.QueryRowContext(ctx, q, args...).Scan(&avg); err != nil {
		return decimal.Zero, err
	}
	return avg, nil
}

func (p *PostgresRepo) List(ctx context.Context, f Filter, opts ListOptions) ([]CallRecord, error) {
	where, args := whereClause(f)

	order := " ORDER BY start_time, id"
	if opts.Order == OrderDurationDesc {
		order = " ORDER BY (end_time - start_time) DESC"
	}

	q := "SELECT " + recordColumns + " FROM call_records" + where + order
	if opts.Take > 0 {
		args = append(args, opts.Take)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Skip > 0 {
		args = append(args, opts.Skip)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		var r CallRecord
		if err := rows.Scan(
			&r.ID,
			&r.CallerID,
			&r.Recipient,
			&r.StartTime,
			&r.EndTime,
			&r.Cost,
			&r.Reference,
			&r.Currency,
			&r.Inserted,
			&r.LastUpdated,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const insertRecordSQL = `
INSERT INTO call_records (` + recordColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`

func (p *PostgresRepo) Add(ctx context.Context, rec CallRecord) (CallRecord, error) {
	rec = stampNew(rec)
	_, err := p.db.ExecContext(ctx, insertRecordSQL,
		rec.ID, rec.CallerID, rec.Recipient, rec.StartTime, rec.EndTime,
		rec.Cost, rec.Reference, rec.Currency, rec.Inserted, rec.LastUpdated)
	if err != nil {
		return CallRecord{}, err
	}
	return rec, nil
}

// AddRange inserts the whole batch inside one transaction so a bulk upload
// is all-or-nothing.
func (p *PostgresRepo) AddRange(ctx context.Context, recs []CallRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, rec := range recs {
			rec = stampNew(rec)
			if _, err := tx.ExecContext(ctx, insertRecordSQL,
				rec.ID, rec.CallerID, rec.Recipient, rec.StartTime, rec.EndTime,
				rec.Cost, rec.Reference, rec.Currency, rec.Inserted, rec.LastUpdated); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *PostgresRepo) Update(ctx context.Context, rec CallRecord) (CallRecord, error) {
	rec.LastUpdated = time.Now().UTC()
	res, err := p.db.ExecContext(ctx, `
UPDATE call_records
SET caller_id = $2, recipient = $3, start_time = $4, end_time = $5,
    cost = $6, reference = $7, currency = $8, last_updated = $9
WHERE id = $1
`,
		rec.ID, rec.CallerID, rec.Recipient, rec.StartTime, rec.EndTime,
		rec.Cost, rec.Reference, rec.Currency, rec.LastUpdated)
	if err != nil {
		return CallRecord{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return CallRecord{}, err
	} else if n == 0 {
		return CallRecord{}, ErrNotFound
	}
	return rec, nil
}

func (p *PostgresRepo) Remove(ctx context.Context, rec CallRecord) (CallRecord, error) {
	res, err := p.db.ExecContext(ctx, "DELETE FROM call_records WHERE id = $1", rec.ID)
	if err != nil {
		return CallRecord{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return CallRecord{}, err
	} else if n == 0 {
		return CallRecord{}, ErrNotFound
	}
	return rec, nil
}

func stampNew(rec CallRecord) CallRecord {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	rec.Inserted = now
	rec.LastUpdated = now
	return rec
}
