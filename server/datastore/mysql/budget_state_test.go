package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/zmcdonald6/bta2.0/server/bta"
	"github.com/zmcdonald6/bta2.0/server/ptr"
)

func TestApplyBudgetLinesDerivesAllocation(t *testing.T) {
	mock, ds := mockDatastore(t)
	defer ds.Close()

	now := ds.clock.Now()

	mock.ExpectBegin()
	// Classified with no explicit allocation: the amount is recorded.
	mock.ExpectExec("INSERT INTO budget_state").
		WithArgs("budget_2026.xlsx", "Operations", "Travel", "January", 250.50, 250.50, "Spent", "admin@example.com", now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// Empty status means the line was never classified, no allocation.
	mock.ExpectExec("INSERT INTO budget_state").
		WithArgs("budget_2026.xlsx", "Operations", "Software", "January", 99.99, nil, "", "admin@example.com", now).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("INSERT INTO budget_state").
		WithArgs("budget_2026.xlsx", "Operations", "Hardware", "January", 1200.0, nil, nil, "admin@example.com", now).
		WillReturnResult(sqlmock.NewResult(3, 1))
	// An explicit allocation wins over the derived one.
	mock.ExpectExec("INSERT INTO budget_state").
		WithArgs("budget_2026.xlsx", "Operations", "Events", "January", 80.0, 75.0, "To be spent", "admin@example.com", now).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	lines := []*bta.BudgetLine{
		{FileName: "budget_2026.xlsx", Category: "Operations", Subcategory: "Travel", Month: "January", Amount: 250.50, StatusCategory: ptr.String("Spent")},
		{FileName: "budget_2026.xlsx", Category: "Operations", Subcategory: "Software", Month: "January", Amount: 99.99, StatusCategory: ptr.String("")},
		{FileName: "budget_2026.xlsx", Category: "Operations", Subcategory: "Hardware", Month: "January", Amount: 1200},
		{FileName: "budget_2026.xlsx", Category: "Operations", Subcategory: "Events", Month: "January", Amount: 80, AllocatedAmount: ptr.Float64(75), StatusCategory: ptr.String("To be spent")},
	}
	require.NoError(t, ds.ApplyBudgetLines(context.Background(), lines, "admin@example.com"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBudgetLinesNoLines(t *testing.T) {
	mock, ds := mockDatastore(t)
	defer ds.Close()

	// No transaction is opened when there is nothing to write.
	require.NoError(t, ds.ApplyBudgetLines(context.Background(), nil, "admin@example.com"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBudgetLines(t *testing.T) {
	mock, ds := mockDatastore(t)
	defer ds.Close()

	mock.ExpectQuery("FROM budget_state").
		WithArgs("budget_2026.xlsx").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "file_name", "category", "subcategory", "month", "amount", "allocated_amount", "status_category"}).
			AddRow(1, "budget_2026.xlsx", "Operations", "Travel", "January", 250.50, 250.50, "Spent").
			AddRow(2, "budget_2026.xlsx", "Operations", "Software", "January", 99.99, nil, nil))

	lines, err := ds.ListBudgetLines(context.Background(), "budget_2026.xlsx")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.NotNil(t, lines[0].AllocatedAmount)
	require.Equal(t, 250.50, *lines[0].AllocatedAmount)
	require.Nil(t, lines[1].AllocatedAmount)
	require.Nil(t, lines[1].StatusCategory)
	require.NoError(t, mock.ExpectationsWereMet())
}
