package sqlxrepos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/assignment"
)

const assignmentColumns = `id, class_id, title, description, due_at, max_score, visibility, attachments, created_by, created_at, updated_at`

type assignmentRow struct {
	ID          string    `db:"id"`
	ClassID     string    `db:"class_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	DueAt       time.Time `db:"due_at"`
	MaxScore    float64   `db:"max_score"`
	Visibility  string    `db:"visibility"`
	Attachments []byte    `db:"attachments"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r assignmentRow) toAssignment() (assignment.Assignment, error) {
	var atts []assignment.Attachment
	if len(r.Attachments) > 0 {
		if err := json.Unmarshal(r.Attachments, &atts); err != nil {
			return assignment.Assignment{}, errors.Wrap(err, "decoding attachments")
		}
	}
	return assignment.Assignment{
		ID:          r.ID,
		ClassID:     r.ClassID,
		Title:       r.Title,
		Description: r.Description,
		DueAt:       r.DueAt,
		MaxScore:    r.MaxScore,
		Visibility:  r.Visibility,
		Attachments: atts,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func encodeAttachments(atts []assignment.Attachment) ([]byte, error) {
	if atts == nil {
		atts = []assignment.Attachment{}
	}
	return json.Marshal(atts)
}

type assignmentRepository struct {
	exec core.DBExecutor
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{exec: exec}
}

func (repo assignmentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	asg.ID = uuid.New().String()
	atts, err := encodeAttachments(asg.Attachments)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "encoding attachments")
	}
	_, err = repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO assignment (`+assignmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		asg.ID, asg.ClassID, asg.Title, asg.Description, asg.DueAt, asg.MaxScore, asg.Visibility, atts,
		asg.CreatedBy, asg.CreatedAt, asg.UpdatedAt,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	var rows []assignmentRow
	err := queryAll(ctx, repo.getExec(exec), &rows, `SELECT `+assignmentColumns+` FROM assignment WHERE id = $1`, id)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	if len(rows) == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return rows[0].toAssignment()
}

func (repo assignmentRepository) filterWhere(filter *assignment.QueryFilter) *whereBuilder {
	wb := new(whereBuilder)
	if filter == nil {
		return wb
	}
	if filter.Search != "" {
		pat := "%" + filter.Search + "%"
		wb.add(`(title ILIKE $%d OR description ILIKE $%[1]d)`, pat)
	}
	if filter.ClassID != "" {
		wb.add(`class_id = $%d`, filter.ClassID)
	}
	if len(filter.ClassIDs) > 0 {
		wb.in("class_id", filter.ClassIDs)
	}
	if filter.CreatedBy != "" {
		wb.add(`created_by = $%d`, filter.CreatedBy)
	}
	switch filter.Status {
	case assignment.StatusUpcoming:
		wb.add(`due_at > $%d`, time.Now().UTC())
	case assignment.StatusOverdue:
		wb.add(`due_at <= $%d`, time.Now().UTC())
	}
	return wb
}

func (repo assignmentRepository) QueryAssignments(ctx context.Context, filter *assignment.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	wb := repo.filterWhere(filter)
	q := `SELECT ` + assignmentColumns + ` FROM assignment` + wb.clause() + orderClause(ordering, "due_at ASC")
	if filter != nil {
		q += limitClause(wb, filter.Offset, filter.Limit)
	}

	var rows []assignmentRow
	if err := queryAll(ctx, repo.getExec(exec), &rows, q, wb.args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		asg, err := r.toAssignment()
		if err != nil {
			return nil, err
		}
		asgs = append(asgs, asg)
	}
	return asgs, nil
}

func (repo assignmentRepository) CountAssignments(ctx context.Context, filter *assignment.QueryFilter, exec ...core.DBExecutor) (int, error) {
	wb := repo.filterWhere(filter)
	n, err := count(ctx, repo.getExec(exec), `SELECT COUNT(*) FROM assignment`+wb.clause(), wb.args...)
	return n, errors.Wrap(err, "counting assignments")
}

func (repo assignmentRepository) QueryAssignmentIDsByClassIDs(ctx context.Context, classIDs []string, exec ...core.DBExecutor) ([]string, error) {
	wb := new(whereBuilder)
	wb.in("class_id", classIDs)

	rows, err := repo.getExec(exec).QueryContext(ctx, `SELECT id FROM assignment`+wb.clause(), wb.args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignment IDs")
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning assignment ID")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "querying assignment IDs")
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	atts, err := encodeAttachments(asg.Attachments)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "encoding attachments")
	}

	wb := new(whereBuilder)
	sets := []string{
		"title = " + wb.next(asg.Title),
		"description = " + wb.next(asg.Description),
		"due_at = " + wb.next(asg.DueAt),
		"max_score = " + wb.next(asg.MaxScore),
		"visibility = " + wb.next(asg.Visibility),
		"attachments = " + wb.next(atts),
		"updated_at = " + wb.next(asg.UpdatedAt),
	}

	q := `UPDATE assignment SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + wb.next(asg.ID)
	if _, err = repo.getExec(exec).ExecContext(ctx, q, wb.args...); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return repo.GetAssignmentByID(ctx, asg.ID, exec...)
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM assignment WHERE id = $1`, id)
	return errors.Wrap(err, "deleting assignment")
}
