package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/comment"
)

const commentColumns = `id, submission_id, author_id, body, parent_id, created_at, updated_at`

type commentRow struct {
	ID           string      `db:"id"`
	SubmissionID string      `db:"submission_id"`
	AuthorID     string      `db:"author_id"`
	Body         string      `db:"body"`
	ParentID     null.String `db:"parent_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r commentRow) toComment() comment.Comment {
	return comment.Comment{
		ID:           r.ID,
		SubmissionID: r.SubmissionID,
		AuthorID:     r.AuthorID,
		Text:         r.Body,
		ParentID:     r.ParentID.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type commentRepository struct {
	exec core.DBExecutor
}

var _ comment.Repository = (*commentRepository)(nil) // interface compliance check

func NewCommentRepository(exec core.DBExecutor) *commentRepository {
	return &commentRepository{exec: exec}
}

func (repo commentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo commentRepository) CreateComment(ctx context.Context, cmt comment.Comment, exec ...core.DBExecutor) (comment.Comment, error) {
	cmt.ID = uuid.New().String()
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO comment (`+commentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cmt.ID, cmt.SubmissionID, cmt.AuthorID, cmt.Text,
		null.NewString(cmt.ParentID, cmt.ParentID != ""), cmt.CreatedAt, cmt.UpdatedAt,
	)
	if err != nil {
		return comment.Comment{}, errors.Wrap(err, "inserting comment")
	}
	return cmt, nil
}

func (repo commentRepository) GetCommentByID(ctx context.Context, id string, exec ...core.DBExecutor) (comment.Comment, error) {
	var rows []commentRow
	err := queryAll(ctx, repo.getExec(exec), &rows, `SELECT `+commentColumns+` FROM comment WHERE id = $1`, id)
	if err != nil {
		return comment.Comment{}, errors.Wrap(err, "getting comment")
	}
	if len(rows) == 0 {
		return comment.Comment{}, comment.ErrNotFound
	}
	return rows[0].toComment(), nil
}

func (repo commentRepository) filterWhere(filter *comment.QueryFilter) *whereBuilder {
	wb := new(whereBuilder)
	if filter == nil {
		return wb
	}
	if filter.SubmissionID != "" {
		wb.add(`submission_id = $%d`, filter.SubmissionID)
	}
	if filter.AuthorID != "" {
		wb.add(`author_id = $%d`, filter.AuthorID)
	}
	return wb
}

func (repo commentRepository) QueryComments(ctx context.Context, filter *comment.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]comment.Comment, error) {
	wb := repo.filterWhere(filter)
	q := `SELECT ` + commentColumns + ` FROM comment` + wb.clause() + orderClause(ordering, "created_at ASC")
	if filter != nil {
		q += limitClause(wb, filter.Offset, filter.Limit)
	}

	var rows []commentRow
	if err := queryAll(ctx, repo.getExec(exec), &rows, q, wb.args...); err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	cmts := make([]comment.Comment, 0, len(rows))
	for _, r := range rows {
		cmts = append(cmts, r.toComment())
	}
	return cmts, nil
}

func (repo commentRepository) CountComments(ctx context.Context, filter *comment.QueryFilter, exec ...core.DBExecutor) (int, error) {
	wb := repo.filterWhere(filter)
	n, err := count(ctx, repo.getExec(exec), `SELECT COUNT(*) FROM comment`+wb.clause(), wb.args...)
	return n, errors.Wrap(err, "counting comments")
}
