package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/assignment"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("submission not found")
	ErrScoreTooHigh = errors.New("score exceeds the assignment's maximum score")
	// ErrResubmitLocked signals a late resubmission attempt on a submission
	// that is already graded. Mapped to Forbidden at the transport.
	ErrResubmitLocked = errors.New("a graded late submission cannot be replaced")
)

// distributionBounds are the half-open score bucket boundaries, expressed
// as percentages of the assignment's max score. The last bound is 101 so
// a perfect score lands in the top bucket.
var distributionBounds = []struct {
	label    string
	min, max float64
}{
	{"F", 0, 60},
	{"D", 60, 70},
	{"C", 70, 80},
	{"B", 80, 90},
	{"A", 90, 101},
}

type (
	Repository interface {
		CreateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string, exec ...core.DBExecutor) (Submission, error)
		GetSubmissionByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string, exec ...core.DBExecutor) (Submission, error)
		// QuerySubmissions applies AND operation on available QueryFilter fields.
		QuerySubmissions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Submission, error)
		CountSubmissions(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int, error)
		QueryScoresByAssignment(ctx context.Context, assignmentID string, exec ...core.DBExecutor) ([]float64, error)
		AggregateMetrics(ctx context.Context, assignmentIDs []string, exec ...core.DBExecutor) (Metrics, error)
		UpdateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (Submission, error)
	}

	// ClassDirectory resolves which classes a teacher owns.
	ClassDirectory interface {
		ClassIDsByTeacher(ctx context.Context, teacherID string) ([]string, error)
	}

	// AssignmentDirectory resolves assignments for aggregation and grading.
	AssignmentDirectory interface {
		AssignmentIDsByClassIDs(ctx context.Context, classIDs []string) ([]string, error)
	}

	ServiceInterface interface {
		Submit(ctx context.Context, student user.User, asg assignment.Assignment, ns NewSubmission) (Submission, error)
		GetByID(ctx context.Context, id string) (Submission, error)
		GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (Submission, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Submission, int, error)
		Grade(ctx context.Context, grader user.User, origSub Submission, asg assignment.Assignment, gs GradeSubmission) (Submission, error)
		Distribution(ctx context.Context, asg assignment.Assignment) ([]DistributionBucket, error)
		TeacherMetrics(ctx context.Context, teacherID string) (Metrics, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		classes ClassDirectory
		asgs    AssignmentDirectory
	}
)

var _ ServiceInterface = (*service)(nil) // interface compliance check

func NewService(db core.DB, repo Repository, classes ClassDirectory, asgs AssignmentDirectory) *service {
	return &service{
		db:      db,
		repo:    repo,
		classes: classes,
		asgs:    asgs,
	}
}

// Submit records student's work for asg. A prior submission is replaced in
// place, unless it is already graded and the replacement would be late, in
// which case the attempt is rejected with ErrResubmitLocked. Lateness is
// computed here, once, against the due date.
func (svc *service) Submit(ctx context.Context, student user.User, asg assignment.Assignment, ns NewSubmission) (Submission, error) {
	now := time.Now().UTC()
	late := now.After(asg.DueAt)

	existing, err := svc.repo.GetSubmissionByAssignmentAndStudent(ctx, asg.ID, student.ID)
	switch errors.Cause(err) {
	case nil:
		if late && existing.IsGraded() {
			return Submission{}, ErrResubmitLocked
		}
		existing.LinkOrFiles = ns.LinkOrFiles
		existing.SubmittedAt = now
		existing.Status = StatusSubmitted
		existing.Late = late
		existing.Grade = nil
		existing.UpdatedBy = student.ID
		existing.UpdatedAt = now
		return svc.repo.UpdateSubmission(ctx, existing)
	case ErrNotFound:
		sub := Submission{
			AssignmentID: asg.ID,
			StudentID:    student.ID,
			LinkOrFiles:  ns.LinkOrFiles,
			SubmittedAt:  now,
			Status:       StatusSubmitted,
			Late:         late,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return svc.repo.CreateSubmission(ctx, sub)
	default:
		return Submission{}, errors.Wrap(err, "finding prior submission")
	}
}

func (svc *service) GetByID(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *service) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (Submission, error) {
	return svc.repo.GetSubmissionByAssignmentAndStudent(ctx, assignmentID, studentID)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Submission, int, error) {
	if filter != nil {
		filter.Clean()
	}
	subs, err := svc.repo.QuerySubmissions(ctx, filter, ordering)
	if err != nil {
		return nil, 0, err
	}
	total, err := svc.repo.CountSubmissions(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// Grade attaches a grade sub-record to origSub and marks it graded. The
// caller is responsible for the transitive class-teacher check.
func (svc *service) Grade(ctx context.Context, grader user.User, origSub Submission, asg assignment.Assignment, gs GradeSubmission) (Submission, error) {
	now := time.Now().UTC()
	sub := origSub
	sub.Status = StatusGraded
	sub.Grade = &Grade{
		Score:    gs.Score,
		Feedback: gs.Feedback,
		GradedBy: grader.ID,
		GradedAt: now,
	}
	if gs.Late != nil {
		sub.Late = *gs.Late
	}
	sub.UpdatedBy = grader.ID
	sub.UpdatedAt = now
	return svc.repo.UpdateSubmission(ctx, sub)
}

// Distribution buckets asg's graded scores into letter-grade bands. Scores
// are normalized to percentages of the assignment's max score.
func (svc *service) Distribution(ctx context.Context, asg assignment.Assignment) ([]DistributionBucket, error) {
	scores, err := svc.repo.QueryScoresByAssignment(ctx, asg.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying scores")
	}

	buckets := make([]DistributionBucket, len(distributionBounds))
	for i, b := range distributionBounds {
		buckets[i] = DistributionBucket{
			Label: b.label,
			Range: fmt.Sprintf("%.0f-%.0f", b.min, b.max-1),
		}
	}
	for _, score := range scores {
		pct := score
		if asg.MaxScore > 0 {
			pct = score / asg.MaxScore * 100
		}
		for i, b := range distributionBounds {
			if pct >= b.min && pct < b.max {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets, nil
}

// TeacherMetrics aggregates pending-grade and average-score figures over
// every assignment in the classes teacherID currently teaches.
func (svc *service) TeacherMetrics(ctx context.Context, teacherID string) (Metrics, error) {
	classIDs, err := svc.classes.ClassIDsByTeacher(ctx, teacherID)
	if err != nil {
		return Metrics{}, errors.Wrap(err, "resolving teacher classes")
	}
	if len(classIDs) == 0 {
		return Metrics{}, nil
	}
	asgIDs, err := svc.asgs.AssignmentIDsByClassIDs(ctx, classIDs)
	if err != nil {
		return Metrics{}, errors.Wrap(err, "resolving class assignments")
	}
	if len(asgIDs) == 0 {
		return Metrics{}, nil
	}
	return svc.repo.AggregateMetrics(ctx, asgIDs)
}
