package classroom

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

// Member records a user's membership in a class along with their
// class-scoped role.
type Member struct {
	UserID      string    `json:"user_id"`
	RoleInClass user.Role `json:"role_in_class"` // student or teacher
}

type Class struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Code        string    `json:"code"` // unique join code
	Description string    `json:"description"`
	TeacherID   string    `json:"teacher_id"`
	CreatedBy   string    `json:"created_by"` // audit field
	Members     []Member  `json:"members"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// IsTaughtBy reports whether the given user owns this class.
// TeacherID is always stored as a canonical user ID so the comparison
// never depends on how the reference was loaded.
func (c Class) IsTaughtBy(userID string) bool {
	return c.TeacherID != "" && c.TeacherID == userID
}

// HasMember reports whether the given user appears in the member list.
func (c Class) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// CanManage is the teacher-or-admin predicate: class mutations are open
// to the assigned teacher and to admins only.
func (c Class) CanManage(usr user.User) bool {
	return usr.IsAdmin() || c.IsTaughtBy(usr.ID)
}

// CanView is the membership predicate: reads are open to members,
// the assigned teacher and admins.
func (c Class) CanView(usr user.User) bool {
	return usr.IsAdmin() || c.IsTaughtBy(usr.ID) || c.HasMember(usr.ID)
}

// NewClass contains information needed to create a new Class.
// TeacherID may only be supplied by an admin; a teacher always becomes
// the teacher of the classes they create.
type NewClass struct {
	Title       string `json:"title" validate:"required"`
	Code        string `json:"code" validate:"required,classcode"`
	Description string `json:"description" validate:"omitempty,max=500"`
	TeacherID   string `json:"teacher_id"`
}

func (nc *NewClass) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
	nc.Description = core.CleanString(nc.Description)
	nc.TeacherID = core.CleanString(nc.TeacherID)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, nc.Code)
}

// UpdateClass defines what information may be provided to modify an
// existing Class. A non-empty TeacherID reassigns the class teacher
// (admin only, enforced at the call site).
type UpdateClass struct {
	Title       string `json:"title"`
	Code        string `json:"code" validate:"omitempty,classcode"`
	Description string `json:"description" validate:"omitempty,max=500"`
	TeacherID   string `json:"teacher_id"`
}

func (uc *UpdateClass) Validate(ctx context.Context, validate *validator.Validate, origCls Class, svc ServiceInterface) error {
	title := core.CleanString(uc.Title)
	if title != "" {
		uc.Title = title
	} else {
		uc.Title = origCls.Title
	}

	code := strings.ToUpper(core.CleanString(uc.Code))
	if code != "" {
		uc.Code = code
	} else {
		uc.Code = origCls.Code
	}

	desc := core.CleanString(uc.Description)
	if desc != "" {
		uc.Description = desc
	} else {
		uc.Description = origCls.Description
	}

	uc.TeacherID = core.CleanString(uc.TeacherID)

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, uc.Code, origCls)
}

// EnrollRequest is the single enrollment payload: students supply a join
// code for themselves, teachers/admins supply the email of the user to
// enroll.
type EnrollRequest struct {
	Code  string `json:"code" validate:"omitempty,classcode"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (er *EnrollRequest) Validate(validate *validator.Validate) error {
	er.Code = strings.ToUpper(core.CleanString(er.Code))
	er.Email = core.CleanString(er.Email, true /* lower */)
	return validate.Struct(er)
}

type QueryFilter struct {
	Search   string `query:"q"`
	MemberID string `query:"-"` // restrict to classes the user belongs to or teaches
	Offset   int    `query:"-"`
	Limit    int    `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
