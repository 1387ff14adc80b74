package classroom

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("class not found")
	ErrCodeExists      = errors.New("this class code is already in use")
	ErrAlreadyMember   = errors.New("user is already a member of this class")
	ErrMemberNotFound  = errors.New("user not found in class members")
	ErrTeacherRemoval  = errors.New("cannot remove the assigned class teacher; reassign the teacher first")
	ErrInvalidTeacher  = errors.New("assigned teacher not found or does not have a valid role")
	ErrTeacherRequired = errors.New("a teacher must be assigned to the class")
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, excludedClasses []Class, exec ...core.DBExecutor) error
		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		GetClassByID(ctx context.Context, id string, exec ...core.DBExecutor) (Class, error)
		GetClassByCode(ctx context.Context, code string, exec ...core.DBExecutor) (Class, error)
		// QueryClasses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// Class.Title, Class.Description or Class.Code.
		QueryClasses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Class, error)
		CountClasses(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int, error)
		QueryClassIDsByTeacher(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]string, error)
		UpdateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		AddMember(ctx context.Context, classID string, m Member, exec ...core.DBExecutor) error
		RemoveMember(ctx context.Context, classID, userID string, exec ...core.DBExecutor) error
		// DeleteClass removes the class and all dependent assignments,
		// submissions and comments.
		DeleteClass(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// UserDirectory is the slice of the user service this package needs
	// to resolve teacher/enrollee references to canonical user records.
	UserDirectory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		GetByEmail(ctx context.Context, email string) (user.User, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, actor user.User, nc NewClass) (Class, error)
		GetByID(ctx context.Context, id string) (Class, error)
		GetByCode(ctx context.Context, code string) (Class, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Class, int, error)
		ClassIDsByTeacher(ctx context.Context, teacherID string) ([]string, error)
		Update(ctx context.Context, origCls Class, uc UpdateClass) (Class, error)
		Delete(ctx context.Context, id string) error
		EnrollByCode(ctx context.Context, student user.User, code string) (Class, error)
		EnrollByEmail(ctx context.Context, cls Class, email string) (Class, user.User, error)
		RemoveMember(ctx context.Context, cls Class, userID string) (Class, error)
		CheckCodeUniqueness(ctx context.Context, code string, exclClasses ...Class) error
	}

	service struct {
		db      core.DB
		repo    Repository
		users   UserDirectory
		mailSvc core.EmailService
	}
)

var _ ServiceInterface = (*service)(nil) // interface compliance check

func NewService(db core.DB, repo Repository, users UserDirectory, mailSvc core.EmailService) *service {
	return &service{
		db:      db,
		repo:    repo,
		users:   users,
		mailSvc: mailSvc,
	}
}

func (svc *service) CheckCodeUniqueness(ctx context.Context, code string, exclClasses ...Class) error {
	if err := svc.repo.CheckCodeUniqueness(ctx, code, exclClasses); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create creates a new Class. A teacher always becomes the class teacher;
// an admin must designate an existing teacher (or admin) explicitly.
// The teacher is seeded into the member list.
func (svc *service) Create(ctx context.Context, actor user.User, nc NewClass) (Class, error) {
	teacherID := nc.TeacherID
	if actor.IsTeacher() {
		teacherID = actor.ID
	}
	if teacherID == "" {
		return Class{}, core.NewValidationError(ErrTeacherRequired, core.FieldError{Field: "teacher_id", Error: ErrTeacherRequired.Error()})
	}

	teacher, err := svc.users.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Class{}, core.NewValidationError(ErrInvalidTeacher, core.FieldError{Field: "teacher_id", Error: ErrInvalidTeacher.Error()})
		}
		return Class{}, errors.Wrap(err, "finding teacher user")
	}
	if !(teacher.IsTeacher() || teacher.IsAdmin()) {
		return Class{}, core.NewValidationError(ErrInvalidTeacher, core.FieldError{Field: "teacher_id", Error: ErrInvalidTeacher.Error()})
	}

	now := time.Now().UTC()
	cls := Class{
		Title:       nc.Title,
		Code:        nc.Code,
		Description: nc.Description,
		TeacherID:   teacher.ID,
		CreatedBy:   actor.ID,
		Members:     []Member{{UserID: teacher.ID, RoleInClass: user.RoleTeacher}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *service) GetByCode(ctx context.Context, code string) (Class, error) {
	return svc.repo.GetClassByCode(ctx, code)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Class, int, error) {
	if filter != nil {
		filter.Clean()
	}
	classes, err := svc.repo.QueryClasses(ctx, filter, ordering)
	if err != nil {
		return nil, 0, err
	}
	total, err := svc.repo.CountClasses(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return classes, total, nil
}

func (svc *service) ClassIDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	return svc.repo.QueryClassIDsByTeacher(ctx, teacherID)
}

// Update applies UpdateClass to origCls. A teacher reassignment swaps the
// member entries atomically: the old teacher leaves the member list, the
// new one joins it.
func (svc *service) Update(ctx context.Context, origCls Class, uc UpdateClass) (Class, error) {
	cls := origCls
	cls.Title = uc.Title
	cls.Code = uc.Code
	cls.Description = uc.Description
	cls.UpdatedAt = time.Now().UTC()

	if uc.TeacherID == "" || uc.TeacherID == origCls.TeacherID {
		return svc.repo.UpdateClass(ctx, cls)
	}

	// teacher reassignment
	newTeacher, err := svc.users.GetByID(ctx, uc.TeacherID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Class{}, core.NewValidationError(ErrInvalidTeacher, core.FieldError{Field: "teacher_id", Error: ErrInvalidTeacher.Error()})
		}
		return Class{}, errors.Wrap(err, "finding new teacher user")
	}
	if !newTeacher.IsTeacher() {
		return Class{}, core.NewValidationError(ErrInvalidTeacher, core.FieldError{Field: "teacher_id", Error: ErrInvalidTeacher.Error()})
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Class{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if origCls.HasMember(origCls.TeacherID) {
		if err = svc.repo.RemoveMember(ctx, cls.ID, origCls.TeacherID, tx); err != nil {
			return Class{}, errors.Wrap(err, "removing old teacher membership")
		}
	}
	if !origCls.HasMember(newTeacher.ID) {
		if err = svc.repo.AddMember(ctx, cls.ID, Member{UserID: newTeacher.ID, RoleInClass: user.RoleTeacher}, tx); err != nil {
			return Class{}, errors.Wrap(err, "adding new teacher membership")
		}
	}

	cls.TeacherID = newTeacher.ID
	if cls, err = svc.repo.UpdateClass(ctx, cls, tx); err != nil {
		return Class{}, errors.Wrap(err, "updating class")
	}
	if err = tx.Commit(); err != nil {
		return Class{}, errors.Wrap(err, "committing transaction")
	}
	return svc.repo.GetClassByID(ctx, cls.ID)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteClass(ctx, id)
}

// EnrollByCode enrolls a student into the class matching the given join code.
func (svc *service) EnrollByCode(ctx context.Context, student user.User, code string) (Class, error) {
	cls, err := svc.repo.GetClassByCode(ctx, code)
	if err != nil {
		return Class{}, err
	}
	if cls.HasMember(student.ID) {
		return Class{}, core.NewValidationError(ErrAlreadyMember)
	}
	if err = svc.repo.AddMember(ctx, cls.ID, Member{UserID: student.ID, RoleInClass: user.RoleStudent}); err != nil {
		return Class{}, errors.Wrap(err, "adding member")
	}
	return svc.repo.GetClassByID(ctx, cls.ID)
}

// EnrollByEmail enrolls the user with the given email into cls and notifies
// them. The caller is responsible for the teacher-or-admin check.
func (svc *service) EnrollByEmail(ctx context.Context, cls Class, email string) (Class, user.User, error) {
	enrollee, err := svc.users.GetByEmail(ctx, email)
	if err != nil {
		return Class{}, user.User{}, err
	}
	if cls.HasMember(enrollee.ID) {
		return Class{}, user.User{}, core.NewValidationError(ErrAlreadyMember)
	}
	if err = svc.repo.AddMember(ctx, cls.ID, Member{UserID: enrollee.ID, RoleInClass: user.RoleStudent}); err != nil {
		return Class{}, user.User{}, errors.Wrap(err, "adding member")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: enrollee.Name, Address: enrollee.Email}},
		Subject: "Class Enrollment",
		BodyStr: fmt.Sprintf("You have been enrolled in %q. Visit %s/classes to get started.", cls.Title, core.Conf.FrontendBaseURL),
	})

	updated, err := svc.repo.GetClassByID(ctx, cls.ID)
	return updated, enrollee, err
}

// RemoveMember removes a member from cls. The assigned class teacher can
// never be removed, regardless of the caller's role.
func (svc *service) RemoveMember(ctx context.Context, cls Class, userID string) (Class, error) {
	if cls.IsTaughtBy(userID) {
		return Class{}, core.NewValidationError(ErrTeacherRemoval)
	}
	if !cls.HasMember(userID) {
		return Class{}, ErrMemberNotFound
	}
	if err := svc.repo.RemoveMember(ctx, cls.ID, userID); err != nil {
		return Class{}, errors.Wrap(err, "removing member")
	}
	return svc.repo.GetClassByID(ctx, cls.ID)
}
