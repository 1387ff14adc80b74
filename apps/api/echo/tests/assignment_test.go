package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nareshb78/Assignment-Portal/core/assignment"
	"github.com/Nareshb78/Assignment-Portal/core/user"
	testutil "github.com/Nareshb78/Assignment-Portal/tests"
)

func Test_assignmentApi_create(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	otherTeacher := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, student)
	path := "/api/classes/" + cls.ID + "/assignments"

	due := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)

	t.Run("students cannot create", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"title":"Lab Report", "due_at":%q}`, due))
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, student), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("only the class teacher", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"title":"Lab Report", "due_at":%q}`, due))
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, otherTeacher), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("past due date", func(t *testing.T) {
		past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
		body := []byte(fmt.Sprintf(`{"title":"Lab Report", "due_at":%q}`, past))
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, teacher), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"due_at": "due date must be in the future"}),
		}, rec)
	})

	t.Run("success with defaults", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"title":"Lab Report", "due_at":%q}`, due))
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, teacher), body)
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusCreated, rec)

		var asg assignment.Assignment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asg))
		assert.Equal(t, cls.ID, asg.ClassID)
		assert.Equal(t, teacher.ID, asg.CreatedBy)
		assert.Equal(t, float64(100), asg.MaxScore)
		assert.Equal(t, assignment.VisibilityPublished, asg.Visibility)
	})
}

func Test_assignmentApi_query(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)
	outsider := testutil.CreateUser(t, usrRepo, "Outsider", "outsider@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, student)
	otherCls := testutil.CreateClass(t, classRepo, "Chemistry", "CHM101", teacher)

	testutil.CreateAssignment(t, asgRepo, cls, "Upcoming", time.Now().Add(48*time.Hour), teacher)
	testutil.CreateAssignment(t, asgRepo, cls, "Overdue", time.Now().Add(-48*time.Hour), teacher)
	testutil.CreateAssignment(t, asgRepo, otherCls, "Elsewhere", time.Now().Add(48*time.Hour), teacher)

	path := "/api/classes/" + cls.ID + "/assignments"

	t.Run("non-members shut out", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, outsider))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	list := func(t *testing.T, path string) []assignment.Assignment {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var resp struct {
			Items []assignment.Assignment `json:"items"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Items
	}

	t.Run("scoped to the class", func(t *testing.T) {
		assert.Len(t, list(t, path), 2)
	})

	t.Run("status filter", func(t *testing.T) {
		upcoming := list(t, path+"?status=upcoming")
		require.Len(t, upcoming, 1)
		assert.Equal(t, "Upcoming", upcoming[0].Title)

		overdue := list(t, path+"?status=overdue")
		require.Len(t, overdue, 1)
		assert.Equal(t, "Overdue", overdue[0].Title)
	})
}

func Test_assignmentApi_retrieve(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, student)
	otherCls := testutil.CreateClass(t, classRepo, "Chemistry", "CHM101", teacher, student)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), teacher)

	t.Run("member reads", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/classes/"+cls.ID+"/assignments/"+asg.ID, getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)
	})

	t.Run("wrong class path is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/classes/"+otherCls.ID+"/assignments/"+asg.ID, getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "assignment not found"})}, rec)
	})
}

func Test_assignmentApi_update(t *testing.T) {
	db.Reset()

	creator := testutil.CreateUser(t, usrRepo, "Creator", "creator@test.cd", "", user.RoleTeacher, true)
	newTeacher := testutil.CreateUser(t, usrRepo, "New Teacher", "new@test.cd", "", user.RoleTeacher, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", creator)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), creator)

	// hand the class to another teacher; authorship must not follow
	body := marchallObj(t, map[string]string{"teacher_id": newTeacher.ID})
	req, rec := newAuthRequest(http.MethodPatch, "/api/classes/"+cls.ID, getToken(t, admin), body)
	app.ServeHTTP(rec, req)
	checkCode(t, http.StatusOK, rec)

	path := "/api/classes/" + cls.ID + "/assignments/" + asg.ID

	t.Run("current class teacher is not the author", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, getToken(t, newTeacher), []byte(`{"title":"Hijacked"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("author edits after reassignment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, getToken(t, creator), []byte(`{"title":"Lab Report v2"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var got assignment.Assignment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Lab Report v2", got.Title)
	})

	t.Run("demoted author loses edit rights at the role gate", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"role": "student"})
		req, rec := newAuthRequest(http.MethodPatch, "/api/users/"+creator.ID+"/role", getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		demoted := creator
		demoted.Role = user.RoleStudent
		req, rec = newAuthRequest(http.MethodPatch, path, getToken(t, demoted), []byte(`{"title":"Back again"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})
}

func Test_assignmentApi_delete(t *testing.T) {
	db.Reset()

	creator := testutil.CreateUser(t, usrRepo, "Creator", "creator@test.cd", "", user.RoleTeacher, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", creator, other)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), creator)
	path := "/api/classes/" + cls.ID + "/assignments/" + asg.ID

	t.Run("non-author member cannot delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, other))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("admin deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusNoContent, rec)

		req, rec = newAuthRequest(http.MethodGet, path, getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusNotFound, rec)
	})
}
