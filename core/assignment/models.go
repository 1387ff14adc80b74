package assignment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Nareshb78/Assignment-Portal/core"
)

const (
	VisibilityPublished = "published"
	VisibilityDraft     = "draft"

	StatusUpcoming = "upcoming"
	StatusOverdue  = "overdue"
)

type (
	// Attachment is reference metadata only. Files live elsewhere.
	Attachment struct {
		Name string `json:"name" validate:"required"`
		URL  string `json:"url" validate:"required,url"`
	}

	Assignment struct {
		ID          string       `json:"id"`
		ClassID     string       `json:"class_id"`
		Title       string       `json:"title"`
		Description string       `json:"description,omitempty"`
		DueAt       time.Time    `json:"due_at"`
		MaxScore    float64      `json:"max_score"`
		Visibility  string       `json:"visibility"`
		Attachments []Attachment `json:"attachments,omitempty"`
		CreatedBy   string       `json:"created_by"`
		CreatedAt   time.Time    `json:"created_at"`
		UpdatedAt   time.Time    `json:"updated_at"`
	}

	NewAssignment struct {
		Title       string       `json:"title" validate:"required"`
		Description string       `json:"description" validate:"omitempty,max=2000"`
		DueAt       time.Time    `json:"due_at" validate:"required"`
		MaxScore    float64      `json:"max_score" validate:"omitempty,gt=0"`
		Visibility  string       `json:"visibility" validate:"omitempty,oneof=published draft"`
		Attachments []Attachment `json:"attachments" validate:"omitempty,dive"`
	}

	UpdateAssignment struct {
		Title       string       `json:"title" validate:"omitempty"`
		Description string       `json:"description" validate:"omitempty,max=2000"`
		DueAt       time.Time    `json:"due_at"`
		MaxScore    float64      `json:"max_score" validate:"omitempty,gt=0"`
		Visibility  string       `json:"visibility" validate:"omitempty,oneof=published draft"`
		Attachments []Attachment `json:"attachments" validate:"omitempty,dive"`
	}

	QueryFilter struct {
		Search    string `query:"q"`
		ClassID   string `query:"-"`
		ClassIDs  []string
		CreatedBy string
		// Status is "upcoming" or "overdue", relative to now.
		Status string `query:"status"`
		Offset int
		Limit  int
	}
)

var _ core.Owned = (*Assignment)(nil)

// OwnedBy reports whether userID is the assignment's creator. Creation
// rights track the class teacher, but update/delete rights stay with the
// original author even after the class is reassigned.
func (a Assignment) OwnedBy(userID string) bool { return a.CreatedBy == userID }

func (a Assignment) IsOverdue(now time.Time) bool { return now.After(a.DueAt) }

func (na *NewAssignment) Validate(ctx context.Context, validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	if na.MaxScore == 0 {
		na.MaxScore = 100
	}
	if na.Visibility == "" {
		na.Visibility = VisibilityPublished
	}
	if err := validate.StructCtx(ctx, na); err != nil {
		return err
	}
	if !na.DueAt.After(time.Now()) {
		return core.NewValidationError(ErrPastDueDate, core.FieldError{Field: "due_at", Error: ErrPastDueDate.Error()})
	}
	return nil
}

// Validate falls back to orig's values for omitted fields. The future-due
// check only applies when the due date actually changes.
func (ua *UpdateAssignment) Validate(ctx context.Context, validate *validator.Validate, orig Assignment) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Description = core.CleanString(ua.Description)
	if ua.Title == "" {
		ua.Title = orig.Title
	}
	if ua.Description == "" {
		ua.Description = orig.Description
	}
	if ua.DueAt.IsZero() {
		ua.DueAt = orig.DueAt
	}
	if ua.MaxScore == 0 {
		ua.MaxScore = orig.MaxScore
	}
	if ua.Visibility == "" {
		ua.Visibility = orig.Visibility
	}
	if ua.Attachments == nil {
		ua.Attachments = orig.Attachments
	}
	if err := validate.StructCtx(ctx, ua); err != nil {
		return err
	}
	if !ua.DueAt.Equal(orig.DueAt) && !ua.DueAt.After(time.Now()) {
		return core.NewValidationError(ErrPastDueDate, core.FieldError{Field: "due_at", Error: ErrPastDueDate.Error()})
	}
	return nil
}

func (f *QueryFilter) IsEmpty() bool {
	return f == nil || (f.Search == "" && f.ClassID == "" && len(f.ClassIDs) == 0 && f.CreatedBy == "" && f.Status == "")
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search, true)
	f.Status = core.CleanString(f.Status, true)
}
