package inmem

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) all() []assignment.Assignment {
	asgs := make([]assignment.Assignment, 0, len(repo.db.assignments))
	for _, a := range repo.db.assignments {
		asgs = append(asgs, *a)
	}
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].DueAt.Before(asgs[j].DueAt) })
	return asgs
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	asg.ID = uuid.New().String()
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) match(asg assignment.Assignment, filter *assignment.QueryFilter) bool {
	if filter == nil || filter.IsEmpty() {
		return true
	}
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(asg.Title), s) && !strings.Contains(strings.ToLower(asg.Description), s) {
			return false
		}
	}
	if filter.ClassID != "" && asg.ClassID != filter.ClassID {
		return false
	}
	if len(filter.ClassIDs) > 0 {
		var found bool
		for _, id := range filter.ClassIDs {
			if asg.ClassID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.CreatedBy != "" && asg.CreatedBy != filter.CreatedBy {
		return false
	}
	switch filter.Status {
	case assignment.StatusUpcoming:
		if asg.IsOverdue(time.Now()) {
			return false
		}
	case assignment.StatusOverdue:
		if !asg.IsOverdue(time.Now()) {
			return false
		}
	}
	return true
}

func (repo *assignmentRepository) filtered(filter *assignment.QueryFilter) []assignment.Assignment {
	var asgs []assignment.Assignment
	for _, asg := range repo.all() {
		if repo.match(asg, filter) {
			asgs = append(asgs, asg)
		}
	}
	return asgs
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter *assignment.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	asgs := repo.filtered(filter)
	if filter != nil {
		lo, hi := pageBounds(len(asgs), filter.Offset, filter.Limit)
		asgs = asgs[lo:hi]
	}
	return asgs, nil
}

func (repo *assignmentRepository) CountAssignments(ctx context.Context, filter *assignment.QueryFilter, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.filtered(filter)), nil
}

func (repo *assignmentRepository) QueryAssignmentIDsByClassIDs(ctx context.Context, classIDs []string, exec ...core.DBExecutor) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ids []string
	for _, asg := range repo.db.assignments {
		for _, classID := range classIDs {
			if asg.ClassID == classID {
				ids = append(ids, asg.ID)
				break
			}
		}
	}
	return ids, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment, exec ...core.DBExecutor) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.assignments[asg.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.assignments, id)
	for subID, sub := range repo.db.submissions {
		if sub.AssignmentID != id {
			continue
		}
		for cmtID, cmt := range repo.db.comments {
			if cmt.SubmissionID == subID {
				delete(repo.db.comments, cmtID)
			}
		}
		delete(repo.db.submissions, subID)
	}
	return nil
}
