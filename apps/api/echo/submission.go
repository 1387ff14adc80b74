package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Nareshb78/Assignment-Portal/core/assignment"
	"github.com/Nareshb78/Assignment-Portal/core/classroom"
	"github.com/Nareshb78/Assignment-Portal/core/submission"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

type submissionApi struct {
	svc      submission.ServiceInterface
	asgSvc   assignment.ServiceInterface
	classSvc classroom.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerSubmissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := submissionApi{
		svc:      deps.SubmissionSvc,
		asgSvc:   deps.AssignmentSvc,
		classSvc: deps.ClassSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/classes/:classId/assignments/:assignmentId/submissions", jwt)
	ag.POST("", api.submit, roleMiddleware(user.RoleStudent))
	ag.GET("", api.queryByAssignment, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
	ag.GET("/grades/distribution", api.distribution, roleMiddleware(user.RoleTeacher, user.RoleAdmin))

	g.GET("/assignments/metrics/teacher", api.teacherMetrics, jwt, roleMiddleware(user.RoleTeacher))

	sg := g.Group("/submissions", jwt)
	sg.GET("/me", api.mine, roleMiddleware(user.RoleStudent))
	sg.GET("/by-assignment/:assignmentId", api.mineByAssignment)
	sg.GET("/:submissionId", api.retrieve)
	sg.PATCH("/:submissionId/grade", api.grade, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
}

// loadClassAssignmentForSubmission resolves the class/assignment pair on a
// nested submission route, with the same NotFound semantics as the
// assignment routes.
func (api *submissionApi) loadClassAssignmentForSubmission(ctx echo.Context) (classroom.Class, assignment.Assignment, error) {
	cls, err := api.classSvc.GetByID(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return classroom.Class{}, assignment.Assignment{}, errors.Wrap(err, "getting class")
	}
	asg, err := api.asgSvc.GetByID(ctx.Request().Context(), ctx.Param("assignmentId"))
	if err != nil {
		return cls, assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	if asg.ClassID != cls.ID {
		return cls, assignment.Assignment{}, assignment.ErrNotFound
	}
	return cls, asg, nil
}

// loadSubmissionChain walks submission -> assignment -> class. Each hop
// that cannot be resolved surfaces as that hop's NotFound, so a caller can
// never learn about a submission through a broken chain.
func (api *submissionApi) loadSubmissionChain(ctx echo.Context) (submission.Submission, assignment.Assignment, classroom.Class, error) {
	sub, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("submissionId"))
	if err != nil {
		return submission.Submission{}, assignment.Assignment{}, classroom.Class{}, errors.Wrap(err, "getting submission")
	}
	asg, err := api.asgSvc.GetByID(ctx.Request().Context(), sub.AssignmentID)
	if err != nil {
		return sub, assignment.Assignment{}, classroom.Class{}, errors.Wrap(err, "getting submission assignment")
	}
	cls, err := api.classSvc.GetByID(ctx.Request().Context(), asg.ClassID)
	if err != nil {
		return sub, asg, classroom.Class{}, errors.Wrap(err, "getting submission class")
	}
	return sub, asg, cls, nil
}

// canViewSubmission is the submission read predicate: the owning student,
// the class teacher at the end of the chain, or an admin.
func canViewSubmission(usr user.User, sub submission.Submission, cls classroom.Class) bool {
	return usr.IsAdmin() || sub.OwnedBy(usr.ID) || cls.IsTaughtBy(usr.ID)
}

// Handlers

func (api *submissionApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cls, asg, err := api.loadClassAssignmentForSubmission(ctx)
	if err != nil {
		return err
	}
	if !cls.HasMember(usr.ID) {
		return errHttpForbidden
	}

	var data submission.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), usr, asg, data)
	if err != nil {
		return errors.Wrap(err, "submitting")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionApi) queryByAssignment(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cls, asg, err := api.loadClassAssignmentForSubmission(ctx)
	if err != nil {
		return err
	}
	if !(usr.IsAdmin() || cls.IsTaughtBy(usr.ID)) {
		return errHttpForbidden
	}

	filter := new(submission.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.AssignmentID = asg.ID

	var pg Pagination
	pg.Bind(ctx)
	filter.Offset = pg.Offset()
	filter.Limit = pg.Limit

	ordering := new(Ordering)
	ordering.Bind(ctx)

	subs, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, newPagedResponse(subs, total, pg))
}

func (api *submissionApi) distribution(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cls, asg, err := api.loadClassAssignmentForSubmission(ctx)
	if err != nil {
		return err
	}
	if !(usr.IsAdmin() || cls.IsTaughtBy(usr.ID)) {
		return errHttpForbidden
	}

	buckets, err := api.svc.Distribution(ctx.Request().Context(), asg)
	if err != nil {
		return errors.Wrap(err, "computing grade distribution")
	}
	return ctx.JSON(http.StatusOK, buckets)
}

func (api *submissionApi) teacherMetrics(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	metrics, err := api.svc.TeacherMetrics(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "computing teacher metrics")
	}
	return ctx.JSON(http.StatusOK, metrics)
}

func (api *submissionApi) mine(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(submission.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.StudentID = usr.ID

	var pg Pagination
	pg.Bind(ctx)
	filter.Offset = pg.Offset()
	filter.Limit = pg.Limit

	ordering := new(Ordering)
	ordering.Bind(ctx)

	subs, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, newPagedResponse(subs, total, pg))
}

// mineByAssignment returns the caller's own submission for an assignment,
// regardless of role. NotFound when they never submitted.
func (api *submissionApi) mineByAssignment(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sub, err := api.svc.GetByAssignmentAndStudent(ctx.Request().Context(), ctx.Param("assignmentId"), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting own submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, _, cls, err := api.loadSubmissionChain(ctx)
	if err != nil {
		return err
	}
	if !canViewSubmission(usr, sub, cls) {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) grade(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, asg, cls, err := api.loadSubmissionChain(ctx)
	if err != nil {
		return err
	}
	if !(usr.IsAdmin() || cls.IsTaughtBy(usr.ID)) {
		return errHttpForbidden
	}

	var data submission.GradeSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, asg); err != nil {
		return err
	}

	sub, err = api.svc.Grade(ctx.Request().Context(), usr, sub, asg, data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}
