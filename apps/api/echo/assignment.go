package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Nareshb78/Assignment-Portal/core/assignment"
	"github.com/Nareshb78/Assignment-Portal/core/classroom"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

type assignmentApi struct {
	svc      assignment.ServiceInterface
	classSvc classroom.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := assignmentApi{
		svc:      deps.AssignmentSvc,
		classSvc: deps.ClassSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/classes/:classId/assignments", jwt)
	ag.POST("", api.create, roleMiddleware(user.RoleTeacher))
	ag.GET("", api.query)
	ag.GET("/:assignmentId", api.retrieve)
	ag.PATCH("/:assignmentId", api.update, roleMiddleware(user.RoleTeacher))
	ag.DELETE("/:assignmentId", api.delete)
}

// loadClassAssignment resolves the class and assignment on the path.
// Both hops are NotFound when missing, and an assignment reached through
// the wrong class path is treated as missing too.
func (api *assignmentApi) loadClassAssignment(ctx echo.Context) (classroom.Class, assignment.Assignment, error) {
	cls, err := api.classSvc.GetByID(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return classroom.Class{}, assignment.Assignment{}, errors.Wrap(err, "getting class")
	}
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("assignmentId"))
	if err != nil {
		return cls, assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	if asg.ClassID != cls.ID {
		return cls, assignment.Assignment{}, assignment.ErrNotFound
	}
	return cls, asg, nil
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cls, err := api.classSvc.GetByID(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	if !cls.IsTaughtBy(usr.ID) {
		return errHttpForbidden
	}

	var data assignment.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Create(ctx.Request().Context(), usr, cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cls, err := api.classSvc.GetByID(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	if !cls.CanView(usr) {
		return errHttpForbidden
	}

	filter := new(assignment.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.ClassID = cls.ID

	var pg Pagination
	pg.Bind(ctx)
	filter.Offset = pg.Offset()
	filter.Limit = pg.Limit

	ordering := new(Ordering)
	ordering.Bind(ctx)

	asgs, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, newPagedResponse(asgs, total, pg))
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cls, asg, err := api.loadClassAssignment(ctx)
	if err != nil {
		return err
	}
	if !cls.CanView(usr) {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, asg)
}

// update is restricted to the assignment's author. Reassigning the class
// to another teacher does not transfer authorship.
func (api *assignmentApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	_, asg, err := api.loadClassAssignment(ctx)
	if err != nil {
		return err
	}
	if !asg.OwnedBy(usr.ID) {
		return errHttpForbidden
	}

	var data assignment.UpdateAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, asg); err != nil {
		return err
	}

	asg, err = api.svc.Update(ctx.Request().Context(), asg, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) delete(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	_, asg, err := api.loadClassAssignment(ctx)
	if err != nil {
		return err
	}
	if !(usr.IsAdmin() || asg.OwnedBy(usr.ID)) {
		return errHttpForbidden
	}

	if err = api.svc.Delete(ctx.Request().Context(), asg.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
