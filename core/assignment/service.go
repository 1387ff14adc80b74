package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

var (
	// errors
	ErrNotFound    = errors.New("assignment not found")
	ErrPastDueDate = errors.New("due date must be in the future")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Assignment, error)
		// QueryAssignments applies AND operation on available QueryFilter
		// fields. QueryFilter.Search does a case-insensitive match on
		// Assignment.Title or Assignment.Description.
		QueryAssignments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Assignment, error)
		CountAssignments(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int, error)
		QueryAssignmentIDsByClassIDs(ctx context.Context, classIDs []string, exec ...core.DBExecutor) ([]string, error)
		UpdateAssignment(ctx context.Context, asg Assignment, exec ...core.DBExecutor) (Assignment, error)
		DeleteAssignment(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, actor user.User, classID string, na NewAssignment) (Assignment, error)
		GetByID(ctx context.Context, id string) (Assignment, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Assignment, int, error)
		AssignmentIDsByClassIDs(ctx context.Context, classIDs []string) ([]string, error)
		Update(ctx context.Context, origAsg Assignment, ua UpdateAssignment) (Assignment, error)
		Delete(ctx context.Context, id string) error
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

// Create records a new assignment in classID authored by actor. The caller
// is responsible for the class-teacher check.
func (svc *service) Create(ctx context.Context, actor user.User, classID string, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	asg := Assignment{
		ClassID:     classID,
		Title:       na.Title,
		Description: na.Description,
		DueAt:       na.DueAt,
		MaxScore:    na.MaxScore,
		Visibility:  na.Visibility,
		Attachments: na.Attachments,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Assignment, int, error) {
	if filter != nil {
		filter.Clean()
	}
	asgs, err := svc.repo.QueryAssignments(ctx, filter, ordering)
	if err != nil {
		return nil, 0, err
	}
	total, err := svc.repo.CountAssignments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return asgs, total, nil
}

func (svc *service) AssignmentIDsByClassIDs(ctx context.Context, classIDs []string) ([]string, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}
	return svc.repo.QueryAssignmentIDsByClassIDs(ctx, classIDs)
}

func (svc *service) Update(ctx context.Context, origAsg Assignment, ua UpdateAssignment) (Assignment, error) {
	asg := origAsg
	asg.Title = ua.Title
	asg.Description = ua.Description
	asg.DueAt = ua.DueAt
	asg.MaxScore = ua.MaxScore
	asg.Visibility = ua.Visibility
	asg.Attachments = ua.Attachments
	asg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteAssignment(ctx, id)
}
