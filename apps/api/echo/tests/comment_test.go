package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nareshb78/Assignment-Portal/core/comment"
	"github.com/Nareshb78/Assignment-Portal/core/user"
	testutil "github.com/Nareshb78/Assignment-Portal/tests"
)

func Test_commentApi(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	owner := testutil.CreateUser(t, usrRepo, "Owner", "owner@test.cd", "", user.RoleStudent, true)
	classmate := testutil.CreateUser(t, usrRepo, "Classmate", "classmate@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, owner, classmate)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), teacher)
	sub := testutil.CreateSubmission(t, subRepo, asg, owner, false, nil)
	otherSub := testutil.CreateSubmission(t, subRepo, asg, classmate, false, nil)

	path := "/api/submissions/" + sub.ID + "/comments"

	var root comment.Comment

	t.Run("teacher starts the thread", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, teacher), []byte(`{"text":"Please revise the abstract."}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusCreated, rec)

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
		assert.Equal(t, teacher.ID, root.AuthorID)
		assert.Equal(t, sub.ID, root.SubmissionID)
		assert.Empty(t, root.ParentID)
	})

	t.Run("owner replies", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"text": "Done, thanks!", "parent_id": root.ID})
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, owner), body)
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusCreated, rec)

		var reply comment.Comment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
		assert.Equal(t, root.ID, reply.ParentID)
	})

	t.Run("parent must be in the same thread", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"text": "Crossing threads", "parent_id": root.ID})
		req, rec := newAuthRequest(http.MethodPost, "/api/submissions/"+otherSub.ID+"/comments", getToken(t, classmate), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"parent_id": "parent comment not found in this thread"}),
		}, rec)
	})

	t.Run("non-owner classmates shut out", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, classmate))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("thread in order", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, owner))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var resp struct {
			Items []comment.Comment `json:"items"`
			Pagination struct {
				Total int `json:"total"`
			} `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 2)
		assert.Equal(t, 2, resp.Pagination.Total)
		assert.Equal(t, root.ID, resp.Items[0].ID, "oldest first")
	})

	t.Run("missing submission", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/submissions/dead-beef/comments", getToken(t, owner))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "submission not found"})}, rec)
	})
}
