package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/classroom"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

const classColumns = `id, title, code, description, teacher_id, created_by, created_at, updated_at`

type classRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Code        string    `db:"code"`
	Description string    `db:"description"`
	TeacherID   string    `db:"teacher_id"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type memberRow struct {
	ClassID     string `db:"class_id"`
	UserID      string `db:"user_id"`
	RoleInClass string `db:"role_in_class"`
}

func (r classRow) toClass(members []classroom.Member) classroom.Class {
	return classroom.Class{
		ID:          r.ID,
		Title:       r.Title,
		Code:        r.Code,
		Description: r.Description,
		TeacherID:   r.TeacherID,
		CreatedBy:   r.CreatedBy,
		Members:     members,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type classRepository struct {
	exec core.DBExecutor
}

var _ classroom.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(exec core.DBExecutor) *classRepository {
	return &classRepository{exec: exec}
}

func (repo classRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// loadMembers fetches the member lists of every class in classIDs, keyed by
// class ID.
func (repo classRepository) loadMembers(ctx context.Context, exec core.DBExecutor, classIDs []string) (map[string][]classroom.Member, error) {
	wb := new(whereBuilder)
	wb.in("class_id", classIDs)

	var rows []memberRow
	err := queryAll(ctx, exec, &rows, `SELECT class_id, user_id, role_in_class FROM class_member`+wb.clause()+` ORDER BY created_at`, wb.args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying class members")
	}
	members := make(map[string][]classroom.Member, len(classIDs))
	for _, r := range rows {
		members[r.ClassID] = append(members[r.ClassID], classroom.Member{UserID: r.UserID, RoleInClass: user.Role(r.RoleInClass)})
	}
	return members, nil
}

func (repo classRepository) CheckCodeUniqueness(ctx context.Context, code string, excludedClasses []classroom.Class, exec ...core.DBExecutor) error {
	wb := new(whereBuilder)
	wb.add(`code = $%d`, code)
	if len(excludedClasses) > 0 {
		ids := make([]string, 0, len(excludedClasses))
		for _, c := range excludedClasses {
			ids = append(ids, c.ID)
		}
		wb.notIn("id", ids)
	}

	found, err := exists(ctx, repo.getExec(exec), `SELECT 1 FROM class`+wb.clause(), wb.args...)
	if err != nil {
		return errors.Wrap(err, "checking class code uniqueness")
	}
	if found {
		return classroom.ErrCodeExists
	}
	return nil
}

func (repo classRepository) CreateClass(ctx context.Context, cls classroom.Class, exec ...core.DBExecutor) (classroom.Class, error) {
	cls.ID = uuid.New().String()
	ex := repo.getExec(exec)
	_, err := ex.ExecContext(ctx,
		`INSERT INTO class (`+classColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cls.ID, cls.Title, cls.Code, cls.Description, cls.TeacherID, cls.CreatedBy, cls.CreatedAt, cls.UpdatedAt,
	)
	if err != nil {
		return classroom.Class{}, errors.Wrap(err, "inserting class")
	}
	for _, m := range cls.Members {
		if err = repo.AddMember(ctx, cls.ID, m, ex); err != nil {
			return classroom.Class{}, err
		}
	}
	return cls, nil
}

func (repo classRepository) getClass(ctx context.Context, exec core.DBExecutor, cond string, arg interface{}) (classroom.Class, error) {
	var rows []classRow
	err := queryAll(ctx, exec, &rows, `SELECT `+classColumns+` FROM class WHERE `+cond, arg)
	if err != nil {
		return classroom.Class{}, errors.Wrap(err, "getting class")
	}
	if len(rows) == 0 {
		return classroom.Class{}, classroom.ErrNotFound
	}
	members, err := repo.loadMembers(ctx, exec, []string{rows[0].ID})
	if err != nil {
		return classroom.Class{}, err
	}
	return rows[0].toClass(members[rows[0].ID]), nil
}

func (repo classRepository) GetClassByID(ctx context.Context, id string, exec ...core.DBExecutor) (classroom.Class, error) {
	return repo.getClass(ctx, repo.getExec(exec), `id = $1`, id)
}

func (repo classRepository) GetClassByCode(ctx context.Context, code string, exec ...core.DBExecutor) (classroom.Class, error) {
	return repo.getClass(ctx, repo.getExec(exec), `code = $1`, code)
}

func (repo classRepository) filterWhere(filter *classroom.QueryFilter) *whereBuilder {
	wb := new(whereBuilder)
	if filter == nil {
		return wb
	}
	if filter.Search != "" {
		pat := "%" + filter.Search + "%"
		wb.add(`(title ILIKE $%d OR description ILIKE $%[1]d OR code ILIKE $%[1]d)`, pat)
	}
	if filter.MemberID != "" {
		wb.add(`(id IN (SELECT class_id FROM class_member WHERE user_id = $%d) OR teacher_id = $%[1]d)`, filter.MemberID)
	}
	return wb
}

func (repo classRepository) QueryClasses(ctx context.Context, filter *classroom.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]classroom.Class, error) {
	ex := repo.getExec(exec)
	wb := repo.filterWhere(filter)
	q := `SELECT ` + classColumns + ` FROM class` + wb.clause() + orderClause(ordering, "created_at DESC")
	if filter != nil {
		q += limitClause(wb, filter.Offset, filter.Limit)
	}

	var rows []classRow
	if err := queryAll(ctx, ex, &rows, q, wb.args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	if len(rows) == 0 {
		return []classroom.Class{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	members, err := repo.loadMembers(ctx, ex, ids)
	if err != nil {
		return nil, err
	}

	classes := make([]classroom.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.toClass(members[r.ID]))
	}
	return classes, nil
}

func (repo classRepository) CountClasses(ctx context.Context, filter *classroom.QueryFilter, exec ...core.DBExecutor) (int, error) {
	wb := repo.filterWhere(filter)
	n, err := count(ctx, repo.getExec(exec), `SELECT COUNT(*) FROM class`+wb.clause(), wb.args...)
	return n, errors.Wrap(err, "counting classes")
}

func (repo classRepository) QueryClassIDsByTeacher(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]string, error) {
	rows, err := repo.getExec(exec).QueryContext(ctx, `SELECT id FROM class WHERE teacher_id = $1`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying teacher class IDs")
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning class ID")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "querying teacher class IDs")
}

func (repo classRepository) UpdateClass(ctx context.Context, cls classroom.Class, exec ...core.DBExecutor) (classroom.Class, error) {
	wb := new(whereBuilder)
	sets := make([]string, 0, 5)
	if cls.Title != "" {
		sets = append(sets, "title = "+wb.next(cls.Title))
	}
	if cls.Code != "" {
		sets = append(sets, "code = "+wb.next(cls.Code))
	}
	if cls.Description != "" {
		sets = append(sets, "description = "+wb.next(cls.Description))
	}
	if cls.TeacherID != "" {
		sets = append(sets, "teacher_id = "+wb.next(cls.TeacherID))
	}
	sets = append(sets, "updated_at = "+wb.next(cls.UpdatedAt))

	q := `UPDATE class SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + wb.next(cls.ID)
	if _, err := repo.getExec(exec).ExecContext(ctx, q, wb.args...); err != nil {
		return classroom.Class{}, errors.Wrap(err, "updating class")
	}
	return repo.GetClassByID(ctx, cls.ID, exec...)
}

func (repo classRepository) AddMember(ctx context.Context, classID string, m classroom.Member, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO class_member (class_id, user_id, role_in_class, created_at) VALUES ($1, $2, $3, $4)`,
		classID, m.UserID, m.RoleInClass, time.Now().UTC(),
	)
	return errors.Wrap(err, "adding class member")
}

func (repo classRepository) RemoveMember(ctx context.Context, classID, userID string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`DELETE FROM class_member WHERE class_id = $1 AND user_id = $2`, classID, userID)
	return errors.Wrap(err, "removing class member")
}

func (repo classRepository) DeleteClass(ctx context.Context, id string, exec ...core.DBExecutor) error {
	// dependent assignments, submissions and comments go with it (FK cascade)
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM class WHERE id = $1`, id)
	return errors.Wrap(err, "deleting class")
}
