package sqlxrepos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/submission"
)

const submissionColumns = `id, assignment_id, student_id, link_or_files, submitted_at, status, late,
grade_score, grade_feedback, graded_by, graded_at, updated_by, created_at, updated_at`

type submissionRow struct {
	ID            string       `db:"id"`
	AssignmentID  string       `db:"assignment_id"`
	StudentID     string       `db:"student_id"`
	LinkOrFiles   []byte       `db:"link_or_files"`
	SubmittedAt   time.Time    `db:"submitted_at"`
	Status        string       `db:"status"`
	Late          bool         `db:"late"`
	GradeScore    null.Float64 `db:"grade_score"`
	GradeFeedback null.String  `db:"grade_feedback"`
	GradedBy      null.String  `db:"graded_by"`
	GradedAt      null.Time    `db:"graded_at"`
	UpdatedBy     null.String  `db:"updated_by"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

func (r submissionRow) toSubmission() (submission.Submission, error) {
	var lofs []string
	if len(r.LinkOrFiles) > 0 {
		if err := json.Unmarshal(r.LinkOrFiles, &lofs); err != nil {
			return submission.Submission{}, errors.Wrap(err, "decoding link_or_files")
		}
	}
	sub := submission.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		LinkOrFiles:  lofs,
		SubmittedAt:  r.SubmittedAt,
		Status:       r.Status,
		Late:         r.Late,
		UpdatedBy:    r.UpdatedBy.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.GradeScore.Valid {
		sub.Grade = &submission.Grade{
			Score:    r.GradeScore.Float64,
			Feedback: r.GradeFeedback.String,
			GradedBy: r.GradedBy.String,
			GradedAt: r.GradedAt.Time,
		}
	}
	return sub, nil
}

type submissionRepository struct {
	exec core.DBExecutor
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{exec: exec}
}

func (repo submissionRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func encodeLinkOrFiles(lofs []string) ([]byte, error) {
	if lofs == nil {
		lofs = []string{}
	}
	return json.Marshal(lofs)
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	sub.ID = uuid.New().String()
	lofs, err := encodeLinkOrFiles(sub.LinkOrFiles)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "encoding link_or_files")
	}
	_, err = repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO submission (id, assignment_id, student_id, link_or_files, submitted_at, status, late, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.AssignmentID, sub.StudentID, lofs, sub.SubmittedAt, sub.Status, sub.Late,
		null.NewString(sub.UpdatedBy, sub.UpdatedBy != ""), sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo submissionRepository) getSubmission(ctx context.Context, exec core.DBExecutor, cond string, args ...interface{}) (submission.Submission, error) {
	var rows []submissionRow
	err := queryAll(ctx, exec, &rows, `SELECT `+submissionColumns+` FROM submission WHERE `+cond, args...)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "getting submission")
	}
	if len(rows) == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return rows[0].toSubmission()
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id string, exec ...core.DBExecutor) (submission.Submission, error) {
	return repo.getSubmission(ctx, repo.getExec(exec), `id = $1`, id)
}

func (repo submissionRepository) GetSubmissionByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string, exec ...core.DBExecutor) (submission.Submission, error) {
	return repo.getSubmission(ctx, repo.getExec(exec), `assignment_id = $1 AND student_id = $2`, assignmentID, studentID)
}

func (repo submissionRepository) filterWhere(filter *submission.QueryFilter) *whereBuilder {
	wb := new(whereBuilder)
	if filter == nil {
		return wb
	}
	if filter.AssignmentID != "" {
		wb.add(`assignment_id = $%d`, filter.AssignmentID)
	}
	if len(filter.AssignmentIDs) > 0 {
		wb.in("assignment_id", filter.AssignmentIDs)
	}
	if filter.StudentID != "" {
		wb.add(`student_id = $%d`, filter.StudentID)
	}
	if filter.Status != "" {
		wb.add(`status = $%d`, filter.Status)
	}
	return wb
}

func (repo submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]submission.Submission, error) {
	wb := repo.filterWhere(filter)
	q := `SELECT ` + submissionColumns + ` FROM submission` + wb.clause() + orderClause(ordering, "submitted_at DESC")
	if filter != nil {
		q += limitClause(wb, filter.Offset, filter.Limit)
	}

	var rows []submissionRow
	if err := queryAll(ctx, repo.getExec(exec), &rows, q, wb.args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, r := range rows {
		sub, err := r.toSubmission()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (repo submissionRepository) CountSubmissions(ctx context.Context, filter *submission.QueryFilter, exec ...core.DBExecutor) (int, error) {
	wb := repo.filterWhere(filter)
	n, err := count(ctx, repo.getExec(exec), `SELECT COUNT(*) FROM submission`+wb.clause(), wb.args...)
	return n, errors.Wrap(err, "counting submissions")
}

func (repo submissionRepository) QueryScoresByAssignment(ctx context.Context, assignmentID string, exec ...core.DBExecutor) ([]float64, error) {
	rows, err := repo.getExec(exec).QueryContext(ctx,
		`SELECT grade_score FROM submission WHERE assignment_id = $1 AND grade_score IS NOT NULL`, assignmentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying scores")
	}
	defer func() { _ = rows.Close() }()

	var scores []float64
	for rows.Next() {
		var score float64
		if err = rows.Scan(&score); err != nil {
			return nil, errors.Wrap(err, "scanning score")
		}
		scores = append(scores, score)
	}
	return scores, errors.Wrap(rows.Err(), "querying scores")
}

func (repo submissionRepository) AggregateMetrics(ctx context.Context, assignmentIDs []string, exec ...core.DBExecutor) (submission.Metrics, error) {
	wb := new(whereBuilder)
	wb.in("assignment_id", assignmentIDs)

	var m submission.Metrics
	var avg null.Float64
	err := repo.getExec(exec).QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE grade_score IS NULL),
			COUNT(*) FILTER (WHERE grade_score IS NOT NULL),
			AVG(grade_score)
		FROM submission`+wb.clause(), wb.args...,
	).Scan(&m.PendingGradeCount, &m.GradedCount, &avg)
	if err != nil {
		return submission.Metrics{}, errors.Wrap(err, "aggregating submission metrics")
	}
	m.AverageScore = avg.Float64
	return m, nil
}

func (repo submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	lofs, err := encodeLinkOrFiles(sub.LinkOrFiles)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "encoding link_or_files")
	}

	var gradeScore null.Float64
	var gradeFeedback, gradedBy null.String
	var gradedAt null.Time
	if sub.Grade != nil {
		gradeScore = null.Float64From(sub.Grade.Score)
		gradeFeedback = null.NewString(sub.Grade.Feedback, sub.Grade.Feedback != "")
		gradedBy = null.StringFrom(sub.Grade.GradedBy)
		gradedAt = null.TimeFrom(sub.Grade.GradedAt)
	}

	wb := new(whereBuilder)
	sets := []string{
		"link_or_files = " + wb.next(lofs),
		"submitted_at = " + wb.next(sub.SubmittedAt),
		"status = " + wb.next(sub.Status),
		"late = " + wb.next(sub.Late),
		"grade_score = " + wb.next(gradeScore),
		"grade_feedback = " + wb.next(gradeFeedback),
		"graded_by = " + wb.next(gradedBy),
		"graded_at = " + wb.next(gradedAt),
		"updated_by = " + wb.next(null.NewString(sub.UpdatedBy, sub.UpdatedBy != "")),
		"updated_at = " + wb.next(sub.UpdatedAt),
	}

	q := `UPDATE submission SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + wb.next(sub.ID)
	if _, err = repo.getExec(exec).ExecContext(ctx, q, wb.args...); err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	return repo.GetSubmissionByID(ctx, sub.ID, exec...)
}
