package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/classroom"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

type classApi struct {
	svc      classroom.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := classApi{
		svc:      deps.ClassSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/classes", jwt)
	cg.POST("", api.create, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
	cg.GET("", api.query)
	cg.GET("/:classId", api.retrieve)
	cg.PATCH("/:classId", api.update, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
	cg.DELETE("/:classId", api.delete, adminMiddleware())
	cg.POST("/:classId/enroll", api.enroll)
	cg.DELETE("/:classId/members/:userId", api.removeMember, roleMiddleware(user.RoleTeacher, user.RoleAdmin))
}

// loadClass fetches the class on the path or returns a NotFound. Predicate
// checks happen after the load so a missing class is never reported as a
// permission problem.
func (api *classApi) loadClass(ctx echo.Context) (classroom.Class, error) {
	cls, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return classroom.Class{}, errors.Wrap(err, "getting class")
	}
	return cls, nil
}

// Handlers

func (api *classApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.NewClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(classroom.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	// listings are scoped to classes the caller teaches or belongs to;
	// admins can request the full catalog with ?mine=0.
	mine := ctx.QueryParam("mine")
	if !usr.IsAdmin() || !(mine == "0" || mine == "false") {
		filter.MemberID = usr.ID
	}

	var pg Pagination
	pg.Bind(ctx)
	filter.Offset = pg.Offset()
	filter.Limit = pg.Limit

	ordering := new(Ordering)
	ordering.Bind(ctx)

	classes, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []classroom.Class{}
	}
	return ctx.JSON(http.StatusOK, newPagedResponse(classes, total, pg))
}

func (api *classApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cls, err := api.loadClass(ctx)
	if err != nil {
		return err
	}
	if !cls.CanView(usr) {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cls, err := api.loadClass(ctx)
	if err != nil {
		return err
	}
	if !cls.CanManage(usr) {
		return errHttpForbidden
	}

	var data classroom.UpdateClass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	// handing the class to another teacher is an admin operation
	if data.TeacherID != "" && data.TeacherID != cls.TeacherID && !usr.IsAdmin() {
		return errHttpForbidden
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, cls, api.svc); err != nil {
		return err
	}

	cls, err = api.svc.Update(ctx.Request().Context(), cls, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) delete(ctx echo.Context) error {
	cls, err := api.loadClass(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), cls.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classApi) enroll(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cls, err := api.loadClass(ctx)
	if err != nil {
		return err
	}

	var data classroom.EnrollRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if usr.IsStudent() {
		// self-enrollment by join code
		if data.Code == "" || data.Code != cls.Code {
			return core.NewValidationError(nil, core.FieldError{Field: "code", Error: "invalid class code"})
		}
		cls, err = api.svc.EnrollByCode(ctx.Request().Context(), usr, data.Code)
		if err != nil {
			return errors.Wrap(err, "enrolling by code")
		}
		return ctx.JSON(http.StatusOK, cls)
	}

	// a teacher or admin enrolls someone else by email
	if !cls.CanManage(usr) {
		return errHttpForbidden
	}
	if data.Email == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "email is required"})
	}
	cls, _, err = api.svc.EnrollByEmail(ctx.Request().Context(), cls, data.Email)
	if err != nil {
		return errors.Wrap(err, "enrolling by email")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) removeMember(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cls, err := api.loadClass(ctx)
	if err != nil {
		return err
	}
	if !cls.CanManage(usr) {
		return errHttpForbidden
	}

	cls, err = api.svc.RemoveMember(ctx.Request().Context(), cls, ctx.Param("userId"))
	if err != nil {
		return errors.Wrap(err, "removing class member")
	}
	return ctx.JSON(http.StatusOK, cls)
}
