package mysql

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/zmcdonald6/bta2.0/server/bta"
)

// ListStatusCategories returns the builtin classification buckets in display
// order.
func (d *Datastore) ListStatusCategories(ctx context.Context) ([]*bta.StatusCategory, error) {
	categories := []*bta.StatusCategory{}
	err := sqlx.SelectContext(ctx, d.reader, &categories,
		`SELECT id, name, sort_order FROM budget_status_categories ORDER BY sort_order ASC`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list status categories")
	}
	return categories, nil
}
