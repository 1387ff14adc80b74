package inmem

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/submission"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) all() []submission.Submission {
	subs := make([]submission.Submission, 0, len(repo.db.submissions))
	for _, s := range repo.db.submissions {
		subs = append(subs, *s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sub.ID = uuid.New().String()
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *submissionRepository) GetSubmissionByID(ctx context.Context, id string, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return *sub, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) GetSubmissionByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return *sub, nil
		}
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) match(sub submission.Submission, filter *submission.QueryFilter) bool {
	if filter == nil || filter.IsEmpty() {
		return true
	}
	if filter.AssignmentID != "" && sub.AssignmentID != filter.AssignmentID {
		return false
	}
	if len(filter.AssignmentIDs) > 0 {
		var found bool
		for _, id := range filter.AssignmentIDs {
			if sub.AssignmentID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.StudentID != "" && sub.StudentID != filter.StudentID {
		return false
	}
	if filter.Status != "" && sub.Status != filter.Status {
		return false
	}
	return true
}

func (repo *submissionRepository) filtered(filter *submission.QueryFilter) []submission.Submission {
	var subs []submission.Submission
	for _, sub := range repo.all() {
		if repo.match(sub, filter) {
			subs = append(subs, sub)
		}
	}
	return subs
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]submission.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subs := repo.filtered(filter)
	if filter != nil {
		lo, hi := pageBounds(len(subs), filter.Offset, filter.Limit)
		subs = subs[lo:hi]
	}
	return subs, nil
}

func (repo *submissionRepository) CountSubmissions(ctx context.Context, filter *submission.QueryFilter, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.filtered(filter)), nil
}

func (repo *submissionRepository) QueryScoresByAssignment(ctx context.Context, assignmentID string, exec ...core.DBExecutor) ([]float64, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var scores []float64
	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID && sub.Grade != nil {
			scores = append(scores, sub.Grade.Score)
		}
	}
	return scores, nil
}

func (repo *submissionRepository) AggregateMetrics(ctx context.Context, assignmentIDs []string, exec ...core.DBExecutor) (submission.Metrics, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var m submission.Metrics
	var sum float64
	for _, sub := range repo.db.submissions {
		var inScope bool
		for _, id := range assignmentIDs {
			if sub.AssignmentID == id {
				inScope = true
				break
			}
		}
		if !inScope {
			continue
		}
		if sub.Grade == nil {
			m.PendingGradeCount++
		} else {
			m.GradedCount++
			sum += sub.Grade.Score
		}
	}
	if m.GradedCount > 0 {
		m.AverageScore = sum / float64(m.GradedCount)
	}
	return m, nil
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.submissions[sub.ID]; !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}
