package submission

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/assignment"
)

const (
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
	StatusMissing   = "missing"
	StatusLate      = "late"
)

type (
	// Grade is embedded in a Submission once a teacher has graded it.
	Grade struct {
		Score    float64   `json:"score"`
		Feedback string    `json:"feedback,omitempty"`
		GradedBy string    `json:"graded_by"`
		GradedAt time.Time `json:"graded_at"`
	}

	Submission struct {
		ID           string    `json:"id"`
		AssignmentID string    `json:"assignment_id"`
		StudentID    string    `json:"student_id"`
		LinkOrFiles  []string  `json:"link_or_files"`
		SubmittedAt  time.Time `json:"submitted_at"`
		Status       string    `json:"status"`
		// Late is computed once at submission time against the assignment's
		// due date; never recomputed on read. A teacher may override it
		// when grading.
		Late      bool      `json:"late"`
		Grade     *Grade    `json:"grade,omitempty"`
		UpdatedBy string    `json:"updated_by,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	NewSubmission struct {
		LinkOrFiles []string `json:"link_or_files" validate:"required,min=1,dive,url"`
	}

	GradeSubmission struct {
		Score    float64 `json:"score" validate:"gte=0"`
		Feedback string  `json:"feedback" validate:"omitempty,max=2000"`
		// Late overrides the stored lateness flag when provided.
		Late *bool `json:"late"`
	}

	QueryFilter struct {
		AssignmentID  string
		AssignmentIDs []string
		StudentID     string
		Status        string `query:"status"`
		Offset        int
		Limit         int
	}

	// Metrics is the teacher dashboard read model, aggregated over all
	// submissions in the teacher's classes.
	Metrics struct {
		PendingGradeCount int     `json:"pending_grade_count"`
		GradedCount       int     `json:"graded_count"`
		AverageScore      float64 `json:"average_score"`
	}

	// DistributionBucket is one histogram bar of an assignment's scores.
	DistributionBucket struct {
		Label string `json:"label"`
		Range string `json:"range"`
		Count int    `json:"count"`
	}
)

var _ core.Owned = (*Submission)(nil)

func (s Submission) OwnedBy(userID string) bool { return s.StudentID == userID }

func (s Submission) IsGraded() bool { return s.Grade != nil }

func (ns *NewSubmission) Validate(ctx context.Context, validate *validator.Validate) error {
	for i, lof := range ns.LinkOrFiles {
		ns.LinkOrFiles[i] = core.CleanString(lof)
	}
	return validate.StructCtx(ctx, ns)
}

func (gs *GradeSubmission) Validate(ctx context.Context, validate *validator.Validate, asg assignment.Assignment) error {
	gs.Feedback = core.CleanString(gs.Feedback)
	if err := validate.StructCtx(ctx, gs); err != nil {
		return err
	}
	if gs.Score > asg.MaxScore {
		return core.NewValidationError(ErrScoreTooHigh, core.FieldError{Field: "score", Error: ErrScoreTooHigh.Error()})
	}
	return nil
}

func (f *QueryFilter) IsEmpty() bool {
	return f == nil || (f.AssignmentID == "" && len(f.AssignmentIDs) == 0 && f.StudentID == "" && f.Status == "")
}

func (f *QueryFilter) Clean() {
	f.Status = core.CleanString(f.Status, true)
}
