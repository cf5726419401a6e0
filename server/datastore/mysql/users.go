package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/zmcdonald6/bta2.0/server/bta"
)

// NewUser creates a new user
func (d *Datastore) NewUser(ctx context.Context, user *bta.User) (*bta.User, error) {
	sqlStatement := `
      INSERT INTO users (
      	name,
      	username,
      	email,
      	hashed_password,
      	role,
      	first_login
      ) VALUES (?,?,?,?,?,?)
      `
	result, err := d.writer.ExecContext(ctx, sqlStatement, user.Name, user.Username,
		user.Email, user.HashedPassword, user.Role, user.FirstLogin)
	if err != nil {
		if isDuplicate(err) {
			return nil, alreadyExists("User", user.Email)
		}
		return nil, errors.Wrap(err, "create new user")
	}

	id, _ := result.LastInsertId()
	user.ID = uint(id)
	return user, nil
}

// UserByEmail looks a user up by email. The email column carries a
// case-insensitive collation so the match is case-insensitive too.
func (d *Datastore) UserByEmail(ctx context.Context, email string) (*bta.User, error) {
	sqlStatement := `
      SELECT * FROM users WHERE email = ? LIMIT 1
      `
	user := &bta.User{}

	err := sqlx.GetContext(ctx, d.reader, user, sqlStatement, email)
	if err != nil && err == sql.ErrNoRows {
		return nil, notFound("User").
			WithMessage(fmt.Sprintf("with email=%s", email))
	} else if err != nil {
		return nil, errors.Wrap(err, "find user")
	}

	return user, nil
}

// ListUsers lists all users with limit, sort and offset passed in with
// bta.ListOptions
func (d *Datastore) ListUsers(ctx context.Context, opt bta.ListOptions) ([]*bta.User, error) {
	sqlStatement := `
		SELECT * FROM users WHERE TRUE
	`
	var params []interface{}
	sqlStatement, params = searchLike(sqlStatement, params, opt.MatchQuery, "name", "username", "email")
	sqlStatement = appendListOptionsToSQL(sqlStatement, opt)
	users := []*bta.User{}

	if err := sqlx.SelectContext(ctx, d.reader, &users, sqlStatement, params...); err != nil {
		return nil, errors.Wrap(err, "list users")
	}

	return users, nil
}

// SavePassword stores a new password hash for the user with the given email.
func (d *Datastore) SavePassword(ctx context.Context, email, hashedPassword string, firstLogin bool) error {
	sqlStatement := `
      UPDATE users SET
      	hashed_password = ?,
      	first_login = ?
      WHERE email = ?
      `
	result, err := d.writer.ExecContext(ctx, sqlStatement, hashedPassword, firstLogin, email)
	if err != nil {
		return errors.Wrap(err, "save password")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected save password")
	}
	if rows == 0 {
		return notFound("User").WithName(email)
	}

	return nil
}

// DeleteUser removes the user with the given email.
func (d *Datastore) DeleteUser(ctx context.Context, email string) error {
	result, err := d.writer.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFound("User").WithName(email)
	}
	return nil
}

// SeedAdminUser creates the initial admin account. It does nothing when the
// users table already has any row, so re-running setup is safe.
func (d *Datastore) SeedAdminUser(ctx context.Context, name, username, email, hashedPassword string) error {
	return d.withTx(ctx, func(tx sqlx.ExtContext) error {
		var count int
		if err := sqlx.GetContext(ctx, tx, &count, `SELECT COUNT(*) FROM users`); err != nil {
			return errors.Wrap(err, "count users")
		}
		if count > 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx, `
      INSERT INTO users (name, username, email, hashed_password, role, first_login)
      VALUES (?, ?, ?, ?, ?, TRUE)
      `, name, username, email, hashedPassword, bta.RoleAdmin)
		if err != nil {
			return errors.Wrap(err, "insert admin user")
		}
		return nil
	})
}

// NewLoginActivity records a login related event.
func (d *Datastore) NewLoginActivity(ctx context.Context, activity *bta.LoginActivity) error {
	sqlStatement := `
      INSERT INTO loginlogs (email, activity_type, ip_address, created_at)
      VALUES (?, ?, ?, ?)
      `
	_, err := d.writer.ExecContext(ctx, sqlStatement,
		activity.Email, activity.ActivityType, activity.IPAddress, d.clock.Now())
	if err != nil {
		return errors.Wrap(err, "insert login activity")
	}
	return nil
}

// ListLoginActivity returns login events, most recent first unless the list
// options say otherwise.
func (d *Datastore) ListLoginActivity(ctx context.Context, opt bta.ListOptions) ([]*bta.LoginActivity, error) {
	if opt.OrderKey == "" {
		opt.OrderKey = "created_at"
		opt.OrderDirection = bta.OrderDescending
	}
	sqlStatement := `
		SELECT * FROM loginlogs WHERE TRUE
	`
	var params []interface{}
	sqlStatement, params = searchLike(sqlStatement, params, opt.MatchQuery, "email", "activity_type")
	sqlStatement = appendListOptionsToSQL(sqlStatement, opt)

	activities := []*bta.LoginActivity{}
	if err := sqlx.SelectContext(ctx, d.reader, &activities, sqlStatement, params...); err != nil {
		return nil, errors.Wrap(err, "list login activity")
	}
	return activities, nil
}
