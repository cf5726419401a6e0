package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/zmcdonald6/bta2.0/server/bta"
)

func TestActiveBudgetMetadataNoneSet(t *testing.T) {
	mock, ds := mockDatastore(t)
	defer ds.Close()

	mock.ExpectQuery("JOIN active_budget").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "file_name", "file_type", "uploader_email", "upload_date", "file_url"}))

	_, err := ds.ActiveBudgetMetadata(context.Background())
	require.True(t, bta.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUploadedFileUnknownName(t *testing.T) {
	mock, ds := mockDatastore(t)
	defer ds.Close()

	mock.ExpectExec("DELETE FROM uploadedfiles").
		WithArgs("missing.xlsx").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := ds.DeleteUploadedFile(context.Background(), "missing.xlsx")
	require.True(t, bta.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
