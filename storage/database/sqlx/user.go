package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

const userColumns = `id, name, email, role, is_active, password_hash, last_login, created_at, updated_at`

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	IsActive     null.Bool `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	LastLogin    null.Time `db:"last_login"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         user.Role(r.Role),
		IsActive:     r.IsActive.Ptr(),
		PasswordHash: r.PasswordHash,
		LastLogin:    r.LastLogin.Time,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	wb := new(whereBuilder)
	wb.add(`LOWER(email) = LOWER($%d)`, email)
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		wb.notIn("id", ids)
	}

	found, err := exists(ctx, repo.getExec(exec), `SELECT 1 FROM "user"`+wb.clause(), wb.args...)
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if found {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO "user" (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		usr.ID, usr.Name, usr.Email, usr.Role, null.BoolFromPtr(usr.IsActive), usr.PasswordHash,
		null.NewTime(usr.LastLogin, !usr.LastLogin.IsZero()), usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) getUser(ctx context.Context, exec core.DBExecutor, cond string, arg interface{}) (user.User, error) {
	var rows []userRow
	err := queryAll(ctx, exec, &rows, `SELECT `+userColumns+` FROM "user" WHERE `+cond, arg)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	if len(rows) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return rows[0].toUser(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, repo.getExec(exec), `id = $1`, id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, repo.getExec(exec), `LOWER(email) = LOWER($1)`, email)
}

func (repo userRepository) filterWhere(filter *user.QueryFilter) *whereBuilder {
	wb := new(whereBuilder)
	if filter == nil || filter.IsEmpty() {
		return wb
	}
	if filter.Search != "" {
		pat := "%" + filter.Search + "%"
		wb.add(`(name ILIKE $%d OR email ILIKE $%[1]d)`, pat)
	}
	if filter.Role != "" {
		wb.add(`role = $%d`, filter.Role)
	}
	if filter.IsActive != nil {
		wb.add(`is_active = $%d`, *filter.IsActive)
	}
	return wb
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	wb := repo.filterWhere(filter)
	q := `SELECT ` + userColumns + ` FROM "user"` + wb.clause() + orderClause(ordering, "created_at DESC")
	if filter != nil {
		q += limitClause(wb, filter.Offset, filter.Limit)
	}

	var rows []userRow
	if err := queryAll(ctx, repo.getExec(exec), &rows, q, wb.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo userRepository) CountUsers(ctx context.Context, filter *user.QueryFilter, exec ...core.DBExecutor) (int, error) {
	wb := repo.filterWhere(filter)
	n, err := count(ctx, repo.getExec(exec), `SELECT COUNT(*) FROM "user"`+wb.clause(), wb.args...)
	return n, errors.Wrap(err, "counting users")
}

// UpdateUser applies usr's non-zero fields. isActive is set only when
// non-nil so an update cannot silently deactivate an account.
func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	wb := new(whereBuilder)
	sets := make([]string, 0, 7)
	if usr.Name != "" {
		sets = append(sets, "name = "+wb.next(usr.Name))
	}
	if usr.Email != "" {
		sets = append(sets, "email = "+wb.next(usr.Email))
	}
	if usr.Role != "" {
		sets = append(sets, "role = "+wb.next(usr.Role))
	}
	if len(usr.PasswordHash) > 0 {
		sets = append(sets, "password_hash = "+wb.next(usr.PasswordHash))
	}
	if !usr.LastLogin.IsZero() {
		sets = append(sets, "last_login = "+wb.next(usr.LastLogin))
	}
	if isActive != nil {
		sets = append(sets, "is_active = "+wb.next(*isActive))
	}
	sets = append(sets, "updated_at = "+wb.next(usr.UpdatedAt))

	q := `UPDATE "user" SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + wb.next(usr.ID)
	if _, err := repo.getExec(exec).ExecContext(ctx, q, wb.args...); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return repo.GetUserByID(ctx, usr.ID, exec...)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	wb := new(whereBuilder)
	wb.in("id", ids)
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM "user"`+wb.clause(), wb.args...)
	return errors.Wrap(err, "deleting users")
}
