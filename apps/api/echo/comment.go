package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Nareshb78/Assignment-Portal/core/assignment"
	"github.com/Nareshb78/Assignment-Portal/core/classroom"
	"github.com/Nareshb78/Assignment-Portal/core/comment"
	"github.com/Nareshb78/Assignment-Portal/core/submission"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

type commentApi struct {
	svc      comment.ServiceInterface
	subSvc   submission.ServiceInterface
	asgSvc   assignment.ServiceInterface
	classSvc classroom.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerCommentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := commentApi{
		svc:      deps.CommentSvc,
		subSvc:   deps.SubmissionSvc,
		asgSvc:   deps.AssignmentSvc,
		classSvc: deps.ClassSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/submissions/:submissionId/comments", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create)
}

// loadSubmission applies the submission read chain before exposing any of
// its thread. Same semantics as the single-submission endpoint.
func (api *commentApi) loadSubmission(ctx echo.Context, usr user.User) (submission.Submission, error) {
	sub, err := api.subSvc.GetByID(ctx.Request().Context(), ctx.Param("submissionId"))
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "getting submission")
	}
	asg, err := api.asgSvc.GetByID(ctx.Request().Context(), sub.AssignmentID)
	if err != nil {
		return sub, errors.Wrap(err, "getting submission assignment")
	}
	cls, err := api.classSvc.GetByID(ctx.Request().Context(), asg.ClassID)
	if err != nil {
		return sub, errors.Wrap(err, "getting submission class")
	}
	if !canViewSubmission(usr, sub, cls) {
		return sub, errHttpForbidden
	}
	return sub, nil
}

// Handlers

func (api *commentApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.loadSubmission(ctx, usr)
	if err != nil {
		return err
	}

	filter := &comment.QueryFilter{SubmissionID: sub.ID}

	var pg Pagination
	pg.Bind(ctx)
	filter.Offset = pg.Offset()
	filter.Limit = pg.Limit

	ordering := new(Ordering)
	ordering.Bind(ctx)

	cmts, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	if cmts == nil {
		cmts = []comment.Comment{}
	}
	return ctx.JSON(http.StatusOK, newPagedResponse(cmts, total, pg))
}

func (api *commentApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.loadSubmission(ctx, usr)
	if err != nil {
		return err
	}

	var data comment.NewComment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	cmt, err := api.svc.Create(ctx.Request().Context(), usr, sub.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating comment")
	}
	return ctx.JSON(http.StatusCreated, cmt)
}
