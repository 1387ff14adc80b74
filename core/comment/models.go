package comment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Nareshb78/Assignment-Portal/core"
)

type (
	// Comment is one entry of a submission's discussion thread. A non-empty
	// ParentID makes it a reply.
	Comment struct {
		ID           string    `json:"id"`
		SubmissionID string    `json:"submission_id"`
		AuthorID     string    `json:"author_id"`
		Text         string    `json:"text"`
		ParentID     string    `json:"parent_id,omitempty"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	NewComment struct {
		Text     string `json:"text" validate:"required,max=500"`
		ParentID string `json:"parent_id" validate:"omitempty,uuid4"`
	}

	QueryFilter struct {
		SubmissionID string
		AuthorID     string
		Offset       int
		Limit        int
	}
)

func (nc *NewComment) Validate(ctx context.Context, validate *validator.Validate) error {
	nc.Text = core.CleanString(nc.Text)
	nc.ParentID = core.CleanString(nc.ParentID)
	return validate.StructCtx(ctx, nc)
}

func (f *QueryFilter) IsEmpty() bool {
	return f == nil || (f.SubmissionID == "" && f.AuthorID == "")
}
