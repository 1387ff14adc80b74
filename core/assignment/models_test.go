package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Nareshb78/Assignment-Portal/core"
)

func assertPastDueErr(t *testing.T, err error) {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("Validate() error = %v, want *core.ValidationError", err)
	}
	if vErr.Err != ErrPastDueDate {
		t.Errorf("Validate() error = %v, want %v", vErr.Err, ErrPastDueDate)
	}
}

func TestNewAssignment_Validate(t *testing.T) {
	validate := validator.New()
	ctx := context.Background()

	t.Run("defaults applied", func(t *testing.T) {
		na := NewAssignment{
			Title: "  Week 1 Essay  ",
			DueAt: time.Now().Add(24 * time.Hour),
		}
		if err := na.Validate(ctx, validate); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		if na.Title != "Week 1 Essay" {
			t.Errorf("Title = %q, want cleaned", na.Title)
		}
		if na.MaxScore != 100 {
			t.Errorf("MaxScore = %v, want 100", na.MaxScore)
		}
		if na.Visibility != VisibilityPublished {
			t.Errorf("Visibility = %q, want %q", na.Visibility, VisibilityPublished)
		}
	})

	t.Run("past due date rejected", func(t *testing.T) {
		na := NewAssignment{
			Title: "Late one",
			DueAt: time.Now().Add(-time.Minute),
		}
		assertPastDueErr(t, na.Validate(ctx, validate))
	})
}

func TestUpdateAssignment_Validate(t *testing.T) {
	validate := validator.New()
	ctx := context.Background()

	orig := Assignment{
		Title:      "Week 1 Essay",
		DueAt:      time.Now().Add(-24 * time.Hour), // already overdue
		MaxScore:   50,
		Visibility: VisibilityPublished,
	}

	t.Run("omitted fields fall back to the original", func(t *testing.T) {
		ua := UpdateAssignment{Description: "Now with a rubric"}
		if err := ua.Validate(ctx, validate, orig); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		if ua.Title != orig.Title {
			t.Errorf("Title = %q, want %q", ua.Title, orig.Title)
		}
		if !ua.DueAt.Equal(orig.DueAt) {
			t.Errorf("DueAt = %v, want %v", ua.DueAt, orig.DueAt)
		}
		if ua.MaxScore != 50 {
			t.Errorf("MaxScore = %v, want 50", ua.MaxScore)
		}
	})

	t.Run("unchanged overdue due date passes", func(t *testing.T) {
		ua := UpdateAssignment{DueAt: orig.DueAt}
		if err := ua.Validate(ctx, validate, orig); err != nil {
			t.Errorf("Validate() failed: %v", err)
		}
	})

	t.Run("changed due date must be in the future", func(t *testing.T) {
		ua := UpdateAssignment{DueAt: time.Now().Add(-time.Hour)}
		assertPastDueErr(t, ua.Validate(ctx, validate, orig))
	})
}

func TestAssignment_OwnedBy(t *testing.T) {
	a := Assignment{CreatedBy: "author", ClassID: "c1"}
	if !a.OwnedBy("author") {
		t.Error("creator should own the assignment")
	}
	if a.OwnedBy("someone-else") {
		t.Error("non-creator should not own the assignment")
	}
}
