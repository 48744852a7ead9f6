package twaporder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database/repository"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/twap"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"
)

const orderColumns = `id, base, quote, side, total_size, num_slices, duration_ns, price_type,
	limit_price, status, created_at, updated_at, finished_at`

// New returns a store using the connected database instance
func New(db *database.Instance) (*Store, error) {
	if db == nil {
		return nil, errInstanceIsNil
	}
	return &Store{db: db}, nil
}

func (s *Store) conn() (*sql.DB, string, error) {
	db, err := s.db.GetSQL()
	if err != nil {
		return nil, "", err
	}
	return db, s.db.Dialect(), nil
}

// Create inserts a new order, an identifier is generated when the order has
// none
func (s *Store) Create(ctx context.Context, o *twap.Order) (string, error) {
	if o == nil {
		return "", errOrderIsNil
	}
	if o.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return "", err
		}
		o.ID = id.String()
	}
	err := s.withTx(ctx, func(tx *sql.Tx, dialect string) error {
		var exists int
		err := tx.QueryRowContext(ctx, repository.Rebind(dialect,
			`SELECT COUNT(*) FROM twap_orders WHERE id = ?`), o.ID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists > 0 {
			return fmt.Errorf("TWAP order %s already exists", o.ID)
		}
		return writeOrder(ctx, tx, dialect, o)
	})
	if err != nil {
		return "", fmt.Errorf("create TWAP order: %w", err)
	}
	return o.ID, nil
}

// Save overwrites the stored order and its slices in one transaction
func (s *Store) Save(ctx context.Context, o *twap.Order) error {
	if o == nil {
		return errOrderIsNil
	}
	err := s.withTx(ctx, func(tx *sql.Tx, dialect string) error {
		return writeOrder(ctx, tx, dialect, o)
	})
	if err != nil {
		return fmt.Errorf("save TWAP order %s: %w", o.ID, err)
	}
	return nil
}

// Get returns the stored order or twap.ErrOrderNotFound
func (s *Store) Get(ctx context.Context, id string) (*twap.Order, error) {
	db, dialect, err := s.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, repository.Rebind(dialect,
		`SELECT `+orderColumns+` FROM twap_orders WHERE id = ?`), id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", twap.ErrOrderNotFound, id)
		}
		return nil, err
	}
	if err := loadSlices(ctx, db, dialect, o); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns every stored order, newest first
func (s *Store) List(ctx context.Context) ([]*twap.Order, error) {
	db, dialect, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT `+orderColumns+` FROM twap_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	var resp []*twap.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		resp = append(resp, o)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range resp {
		if err := loadSlices(ctx, db, dialect, resp[i]); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Delete removes an order along with its slices and fills
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx, dialect string) error {
		for _, table := range []string{"twap_fills", "twap_failed_slices", "twap_placed_slices"} {
			if _, err := tx.ExecContext(ctx, repository.Rebind(dialect,
				`DELETE FROM `+table+` WHERE twap_id = ?`), id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, repository.Rebind(dialect, `DELETE FROM twap_orders WHERE id = ?`), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", twap.ErrOrderNotFound, id)
		}
		return nil
	})
}

// SaveFills replaces the fills stored against an order
func (s *Store) SaveFills(ctx context.Context, id string, fills []exchange.Fill) error {
	return s.withTx(ctx, func(tx *sql.Tx, dialect string) error {
		if err := orderExists(ctx, tx, dialect, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, repository.Rebind(dialect,
			`DELETE FROM twap_fills WHERE twap_id = ?`), id); err != nil {
			return err
		}
		stmt := repository.Rebind(dialect, `INSERT INTO twap_fills
			(twap_id, trade_id, order_id, product_id, size, price, fee, liquidity, trade_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		for i := range fills {
			liquidity := null.NewString(string(fills[i].Liquidity), fills[i].Liquidity != "")
			if _, err := tx.ExecContext(ctx, stmt,
				id,
				fills[i].TradeID,
				fills[i].OrderID,
				fills[i].ProductID,
				fills[i].Size.String(),
				fills[i].Price.String(),
				fills[i].Fee.String(),
				liquidity,
				formatTime(fills[i].TradeTime)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetFills returns the fills stored against an order ordered by trade time
func (s *Store) GetFills(ctx context.Context, id string) ([]exchange.Fill, error) {
	db, dialect, err := s.conn()
	if err != nil {
		return nil, err
	}
	if err = orderExists(ctx, db, dialect, id); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, repository.Rebind(dialect, `SELECT
		trade_id, order_id, product_id, size, price, fee, liquidity, trade_time
		FROM twap_fills WHERE twap_id = ? ORDER BY trade_time, trade_id`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	fills := make([]exchange.Fill, 0)
	for rows.Next() {
		var (
			f                    exchange.Fill
			size, price, fee, ts string
			liquidity            null.String
		)
		if err := rows.Scan(&f.TradeID, &f.OrderID, &f.ProductID, &size, &price, &fee, &liquidity, &ts); err != nil {
			return nil, err
		}
		if f.Size, err = decimal.NewFromString(size); err != nil {
			return nil, err
		}
		if f.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if f.Fee, err = decimal.NewFromString(fee); err != nil {
			return nil, err
		}
		if f.TradeTime, err = parseTime(ts); err != nil {
			return nil, err
		}
		if liquidity.Valid {
			f.Liquidity = exchange.Liquidity(liquidity.String)
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx, dialect string) error) (err error) {
	db, dialect, err := s.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginTx %w", err)
	}
	defer func() {
		if err != nil {
			if errRB := tx.Rollback(); errRB != nil {
				log.Errorf(log.DatabaseMgr, "TWAP order store tx.Rollback %v", errRB)
			}
		}
	}()
	if err = fn(tx, dialect); err != nil {
		return err
	}
	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func orderExists(ctx context.Context, q queryer, dialect, id string) error {
	var n int
	if err := q.QueryRowContext(ctx, repository.Rebind(dialect,
		`SELECT COUNT(*) FROM twap_orders WHERE id = ?`), id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", twap.ErrOrderNotFound, id)
	}
	return nil
}

func writeOrder(ctx context.Context, tx *sql.Tx, dialect string, o *twap.Order) error {
	var limit null.String
	if o.LimitPrice.Valid {
		limit = null.StringFrom(o.LimitPrice.Decimal.String())
	}
	var finished null.String
	if !o.FinishedAt.IsZero() {
		finished = null.StringFrom(formatTime(o.FinishedAt))
	}
	_, err := tx.ExecContext(ctx, repository.Rebind(dialect, `INSERT INTO twap_orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			base = excluded.base,
			quote = excluded.quote,
			side = excluded.side,
			total_size = excluded.total_size,
			num_slices = excluded.num_slices,
			duration_ns = excluded.duration_ns,
			price_type = excluded.price_type,
			limit_price = excluded.limit_price,
			status = excluded.status,
			updated_at = excluded.updated_at,
			finished_at = excluded.finished_at`),
		o.ID,
		o.Pair.Base.String(),
		o.Pair.Quote.String(),
		o.Side.String(),
		o.TotalSize.String(),
		o.NumSlices,
		int64(o.Duration),
		string(o.PriceType),
		limit,
		string(o.Status),
		formatTime(o.CreatedAt),
		formatTime(o.UpdatedAt),
		finished)
	if err != nil {
		return err
	}

	for _, table := range []string{"twap_placed_slices", "twap_failed_slices"} {
		if _, err = tx.ExecContext(ctx, repository.Rebind(dialect,
			`DELETE FROM `+table+` WHERE twap_id = ?`), o.ID); err != nil {
			return err
		}
	}
	placed := repository.Rebind(dialect, `INSERT INTO twap_placed_slices
		(twap_id, slice_index, order_id, size, price, placed_at) VALUES (?, ?, ?, ?, ?, ?)`)
	for i := range o.Orders {
		if _, err = tx.ExecContext(ctx, placed,
			o.ID,
			o.Orders[i].SliceIndex,
			o.Orders[i].OrderID,
			o.Orders[i].Size.String(),
			o.Orders[i].Price.String(),
			formatTime(o.Orders[i].Time)); err != nil {
			return err
		}
	}
	failed := repository.Rebind(dialect, `INSERT INTO twap_failed_slices
		(twap_id, slice_index, reason, detail, size, failed_at) VALUES (?, ?, ?, ?, ?, ?)`)
	for i := range o.FailedSlices {
		detail := null.NewString(o.FailedSlices[i].Detail, o.FailedSlices[i].Detail != "")
		if _, err = tx.ExecContext(ctx, failed,
			o.ID,
			o.FailedSlices[i].SliceIndex,
			string(o.FailedSlices[i].Reason),
			detail,
			o.FailedSlices[i].Size.String(),
			formatTime(o.FailedSlices[i].Time)); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scanner) (*twap.Order, error) {
	var r orderRow
	if err := row.Scan(
		&r.ID,
		&r.Base,
		&r.Quote,
		&r.Side,
		&r.TotalSize,
		&r.NumSlices,
		&r.DurationNS,
		&r.PriceType,
		&r.LimitPrice,
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.FinishedAt); err != nil {
		return nil, err
	}
	return r.toOrder()
}

func (r *orderRow) toOrder() (*twap.Order, error) {
	total, err := decimal.NewFromString(r.TotalSize)
	if err != nil {
		return nil, fmt.Errorf("order %s total size: %w", r.ID, err)
	}
	o := &twap.Order{
		ID: r.ID,
		Params: twap.Params{
			Pair:      currency.NewPair(currency.NewCode(r.Base), currency.NewCode(r.Quote)),
			Side:      order.Side(r.Side),
			TotalSize: total,
			NumSlices: r.NumSlices,
			Duration:  time.Duration(r.DurationNS),
			PriceType: twap.PriceType(r.PriceType),
		},
		Orders:       []twap.PlacedSlice{},
		FailedSlices: []twap.FailedSlice{},
		Status:       twap.Status(r.Status),
	}
	if r.LimitPrice.Valid {
		limit, err := decimal.NewFromString(r.LimitPrice.String)
		if err != nil {
			return nil, fmt.Errorf("order %s limit price: %w", r.ID, err)
		}
		o.LimitPrice = decimal.NewNullDecimal(limit)
	}
	if o.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	if r.FinishedAt.Valid {
		if o.FinishedAt, err = parseTime(r.FinishedAt.String); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func loadSlices(ctx context.Context, db *sql.DB, dialect string, o *twap.Order) error {
	rows, err := db.QueryContext(ctx, repository.Rebind(dialect, `SELECT slice_index, order_id, size, price, placed_at
		FROM twap_placed_slices WHERE twap_id = ? ORDER BY slice_index`), o.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			p               twap.PlacedSlice
			size, price, at string
		)
		if err = rows.Scan(&p.SliceIndex, &p.OrderID, &size, &price, &at); err != nil {
			break
		}
		if p.Size, err = decimal.NewFromString(size); err != nil {
			break
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			break
		}
		if p.Time, err = parseTime(at); err != nil {
			break
		}
		o.Orders = append(o.Orders, p)
	}
	if err == nil {
		err = rows.Err()
	}
	if errClose := rows.Close(); err == nil {
		err = errClose
	}
	if err != nil {
		return err
	}

	rows, err = db.QueryContext(ctx, repository.Rebind(dialect, `SELECT slice_index, reason, detail, size, failed_at
		FROM twap_failed_slices WHERE twap_id = ? ORDER BY slice_index`), o.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			f        twap.FailedSlice
			reason   string
			detail   null.String
			size, at string
		)
		if err = rows.Scan(&f.SliceIndex, &reason, &detail, &size, &at); err != nil {
			break
		}
		f.Reason = twap.FailureReason(reason)
		if detail.Valid {
			f.Detail = detail.String
		}
		if f.Size, err = decimal.NewFromString(size); err != nil {
			break
		}
		if f.Time, err = parseTime(at); err != nil {
			break
		}
		o.FailedSlices = append(o.FailedSlices, f)
	}
	if err == nil {
		err = rows.Err()
	}
	if errClose := rows.Close(); err == nil {
		err = errClose
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
