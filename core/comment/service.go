package comment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("comment not found")
	ErrParentNotFound = errors.New("parent comment not found in this thread")
)

type (
	Repository interface {
		CreateComment(ctx context.Context, cmt Comment, exec ...core.DBExecutor) (Comment, error)
		GetCommentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Comment, error)
		QueryComments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Comment, error)
		CountComments(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, author user.User, submissionID string, nc NewComment) (Comment, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Comment, int, error)
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil) // interface compliance check

func NewService(db core.DB, repo Repository) *service {
	return &service{
		db:   db,
		repo: repo,
	}
}

// Create appends a comment to submissionID's thread. The caller is
// responsible for the submission access check. A reply's parent must exist
// and belong to the same thread.
func (svc *service) Create(ctx context.Context, author user.User, submissionID string, nc NewComment) (Comment, error) {
	if nc.ParentID != "" {
		parent, err := svc.repo.GetCommentByID(ctx, nc.ParentID)
		if err != nil || parent.SubmissionID != submissionID {
			return Comment{}, core.NewValidationError(ErrParentNotFound, core.FieldError{Field: "parent_id", Error: ErrParentNotFound.Error()})
		}
	}

	now := time.Now().UTC()
	cmt := Comment{
		SubmissionID: submissionID,
		AuthorID:     author.ID,
		Text:         nc.Text,
		ParentID:     nc.ParentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateComment(ctx, cmt)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Comment, int, error) {
	cmts, err := svc.repo.QueryComments(ctx, filter, ordering)
	if err != nil {
		return nil, 0, err
	}
	total, err := svc.repo.CountComments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return cmts, total, nil
}
