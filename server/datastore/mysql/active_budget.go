package mysql

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// SetActiveBudget marks fileName as the budget the dashboards read from.
//
// The active_budget table is meant to hold at most one row. An empty table
// gets an insert, a single row gets updated in place, and if multiple rows
// have snuck in the table is cleared before inserting.
func (d *Datastore) SetActiveBudget(ctx context.Context, fileName string) error {
	return d.withRetryTxx(ctx, func(tx sqlx.ExtContext) error {
		var ids []uint
		if err := sqlx.SelectContext(ctx, tx, &ids, `SELECT id FROM active_budget LIMIT 2`); err != nil {
			return errors.Wrap(err, "load active budget rows")
		}

		switch len(ids) {
		case 0:
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO active_budget (file_name, updated_at) VALUES (?, ?)`,
				fileName, d.clock.Now(),
			); err != nil {
				return errors.Wrap(err, "insert active budget")
			}
		case 1:
			if _, err := tx.ExecContext(ctx,
				`UPDATE active_budget SET file_name = ?, updated_at = ? WHERE id = ?`,
				fileName, d.clock.Now(), ids[0],
			); err != nil {
				return errors.Wrap(err, "update active budget")
			}
		default:
			// safety cleanup, the table should never have more than one row
			if _, err := tx.ExecContext(ctx, `DELETE FROM active_budget`); err != nil {
				return errors.Wrap(err, "clear active budget rows")
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO active_budget (file_name, updated_at) VALUES (?, ?)`,
				fileName, d.clock.Now(),
			); err != nil {
				return errors.Wrap(err, "insert active budget after cleanup")
			}
		}
		return nil
	})
}

// ClearActiveBudget removes the active budget selection.
func (d *Datastore) ClearActiveBudget(ctx context.Context) error {
	if _, err := d.writer.ExecContext(ctx, `DELETE FROM active_budget`); err != nil {
		return errors.Wrap(err, "clear active budget")
	}
	return nil
}

// ActiveBudget returns the active budget file name, or "" if none is set.
func (d *Datastore) ActiveBudget(ctx context.Context) (string, error) {
	var fileName string
	err := sqlx.GetContext(ctx, d.reader, &fileName, `SELECT file_name FROM active_budget LIMIT 1`)
	if err == sql.ErrNoRows {
		return "", nil
	} else if err != nil {
		return "", errors.Wrap(err, "get active budget")
	}
	return fileName, nil
}
