package mysql

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/zmcdonald6/bta2.0/server/bta"
)

// ListBudgetLines returns the saved classification state for a budget file.
func (d *Datastore) ListBudgetLines(ctx context.Context, fileName string) ([]*bta.BudgetLine, error) {
	sqlStatement := `
      SELECT id, file_name, category, subcategory, month, amount,
             allocated_amount, status_category, updated_by, updated_at
      FROM budget_state
      WHERE file_name = ?
      ORDER BY category, subcategory, month
      `
	lines := []*bta.BudgetLine{}
	if err := sqlx.SelectContext(ctx, d.reader, &lines, sqlStatement, fileName); err != nil {
		return nil, errors.Wrap(err, "list budget lines")
	}
	return lines, nil
}

// ApplyBudgetLines upserts the given classification lines. A line that hits
// the unique allocation key updates in place instead of inserting. Lines with
// a non-empty status category record the amount they were classified at in
// allocated_amount.
func (d *Datastore) ApplyBudgetLines(ctx context.Context, lines []*bta.BudgetLine, updatedBy string) error {
	if len(lines) == 0 {
		return nil
	}
	now := d.clock.Now()
	return d.withRetryTxx(ctx, func(tx sqlx.ExtContext) error {
		sqlStatement := `
      INSERT INTO budget_state
      (file_name, category, subcategory, month, amount, allocated_amount, status_category, updated_by, updated_at)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
      ON DUPLICATE KEY UPDATE
          amount = VALUES(amount),
          allocated_amount = VALUES(allocated_amount),
          status_category = VALUES(status_category),
          updated_by = VALUES(updated_by),
          updated_at = VALUES(updated_at)
      `
		for _, line := range lines {
			allocated := line.AllocatedAmount
			if allocated == nil && line.StatusCategory != nil && *line.StatusCategory != "" {
				amount := line.Amount
				allocated = &amount
			}
			_, err := tx.ExecContext(ctx, sqlStatement,
				line.FileName, line.Category, line.Subcategory, line.Month,
				line.Amount, allocated, line.StatusCategory, updatedBy, now)
			if err != nil {
				return errors.Wrap(err, "upsert budget line")
			}
		}
		return nil
	})
}
