package mysql

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/zmcdonald6/bta2.0/server/bta"
)

var dialect = goqu.Dialect("mysql")

// NewUploadedFile records the metadata for an uploaded budget spreadsheet.
func (d *Datastore) NewUploadedFile(ctx context.Context, file *bta.UploadedFile) (*bta.UploadedFile, error) {
	sqlStatement := `
      INSERT INTO uploadedfiles (file_name, file_type, uploader_email, upload_date, file_url)
      VALUES (?, ?, ?, ?, ?)
      `
	result, err := d.writer.ExecContext(ctx, sqlStatement,
		file.FileName, file.FileType, file.UploaderEmail, d.clock.Now(), file.FileURL)
	if err != nil {
		if isDuplicate(err) {
			return nil, alreadyExists("UploadedFile", file.FileName)
		}
		return nil, errors.Wrap(err, "insert uploaded file")
	}

	id, _ := result.LastInsertId()
	file.ID = uint(id)
	return file, nil
}

// DeleteUploadedFile removes the metadata record for fileName. The budget
// lines loaded from the file stay around so the classification history
// survives a re-upload.
func (d *Datastore) DeleteUploadedFile(ctx context.Context, fileName string) error {
	result, err := d.writer.ExecContext(ctx, `DELETE FROM uploadedfiles WHERE file_name = ?`, fileName)
	if err != nil {
		return errors.Wrap(err, "delete uploaded file")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFound("UploadedFile").WithName(fileName)
	}
	return nil
}

// ListUploadedFiles returns the uploaded file records, newest first unless
// the list options say otherwise.
func (d *Datastore) ListUploadedFiles(ctx context.Context, opt bta.ListOptions) ([]*bta.UploadedFile, error) {
	if opt.OrderKey == "" {
		opt.OrderKey = "upload_date"
		opt.OrderDirection = bta.OrderDescending
	}
	ds := dialect.From(goqu.I("uploadedfiles")).Select(
		"id", "file_name", "file_type", "uploader_email", "upload_date", "file_url",
	)
	if opt.MatchQuery != "" {
		pattern := likePattern(opt.MatchQuery)
		ds = ds.Where(goqu.Or(
			goqu.I("file_name").Like(pattern),
			goqu.I("uploader_email").Like(pattern),
		))
	}
	ds = appendListOptionsToSelect(ds, opt)

	sqlStatement, args, err := ds.ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build uploaded files query")
	}

	files := []*bta.UploadedFile{}
	if err := sqlx.SelectContext(ctx, d.reader, &files, sqlStatement, args...); err != nil {
		return nil, errors.Wrap(err, "list uploaded files")
	}
	return files, nil
}

// ActiveBudgetMetadata returns the uploadedfiles record for the active
// budget.
func (d *Datastore) ActiveBudgetMetadata(ctx context.Context) (*bta.UploadedFile, error) {
	sqlStatement := `
      SELECT f.id, f.file_name, f.file_type, f.uploader_email, f.upload_date, f.file_url
      FROM uploadedfiles f
      JOIN active_budget ab ON ab.file_name = f.file_name
      LIMIT 1
      `
	file := &bta.UploadedFile{}
	err := sqlx.GetContext(ctx, d.reader, file, sqlStatement)
	if err == sql.ErrNoRows {
		return nil, notFound("ActiveBudget")
	} else if err != nil {
		return nil, errors.Wrap(err, "get active budget metadata")
	}
	return file, nil
}
