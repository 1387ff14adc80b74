package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nareshb78/Assignment-Portal/core/classroom"
	"github.com/Nareshb78/Assignment-Portal/core/user"
	testutil "github.com/Nareshb78/Assignment-Portal/tests"
)

func Test_classApi_create(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	t.Run("students cannot create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes", getToken(t, student), []byte(`{"title":"Biology", "code":"BIO101"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("bad join code", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes", getToken(t, teacher), []byte(`{"title":"Biology", "code":"nope"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "must be 6 uppercase alphanumeric characters"}),
		}, rec)
	})

	t.Run("teacher becomes class teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes", getToken(t, teacher), []byte(`{"title":"Biology", "code":"BIO101"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusCreated, rec)

		var cls classroom.Class
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cls))
		assert.Equal(t, teacher.ID, cls.TeacherID)
		assert.Equal(t, teacher.ID, cls.CreatedBy)
		assert.True(t, cls.HasMember(teacher.ID), "the teacher is seeded as a member")
	})

	t.Run("duplicate code", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes", getToken(t, teacher), []byte(`{"title":"Biology II", "code":"BIO101"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusBadRequest, rec)
	})

	t.Run("admin must designate a teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes", getToken(t, admin), []byte(`{"title":"Chemistry", "code":"CHM101"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusBadRequest, rec)
	})

	t.Run("admin creates on behalf of a teacher", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"title": "Chemistry", "code": "CHM101", "teacher_id": teacher.ID})
		req, rec := newAuthRequest(http.MethodPost, "/api/classes", getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusCreated, rec)

		var cls classroom.Class
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cls))
		assert.Equal(t, teacher.ID, cls.TeacherID)
		assert.Equal(t, admin.ID, cls.CreatedBy)
	})
}

func Test_classApi_query(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher, true)
	member := testutil.CreateUser(t, usrRepo, "Member", "member@test.cd", "", user.RoleStudent, true)
	outsider := testutil.CreateUser(t, usrRepo, "Outsider", "outsider@test.cd", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, member)
	testutil.CreateClass(t, classRepo, "Chemistry", "CHM101", other)

	count := func(t *testing.T, token, path string) int {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var resp struct {
			Items []classroom.Class `json:"items"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return len(resp.Items)
	}

	assert.Equal(t, 1, count(t, getToken(t, teacher), "/api/classes"), "teachers see the classes they teach")
	assert.Equal(t, 1, count(t, getToken(t, member), "/api/classes"), "students see the classes they belong to")
	assert.Equal(t, 0, count(t, getToken(t, outsider), "/api/classes"))
	assert.Equal(t, 0, count(t, getToken(t, admin), "/api/classes"), "admins are membership-scoped by default")
	assert.Equal(t, 2, count(t, getToken(t, admin), "/api/classes?mine=0"), "admins opt into the full catalog")
	assert.Equal(t, 0, count(t, getToken(t, outsider), "/api/classes?mine=0"), "the bypass is admin-only")
}

func Test_classApi_retrieve(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	member := testutil.CreateUser(t, usrRepo, "Member", "member@test.cd", "", user.RoleStudent, true)
	outsider := testutil.CreateUser(t, usrRepo, "Outsider", "outsider@test.cd", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, member)

	tests := []httpTest{
		{name: "no token", path: "/api/classes/" + cls.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "member", path: "/api/classes/" + cls.ID, token: getToken(t, member), wantCode: http.StatusOK},
		{name: "teacher", path: "/api/classes/" + cls.ID, token: getToken(t, teacher), wantCode: http.StatusOK},
		{name: "admin short-circuit", path: "/api/classes/" + cls.ID, token: getToken(t, admin), wantCode: http.StatusOK},
		{
			name: "non-member", path: "/api/classes/" + cls.ID, token: getToken(t, outsider),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			// a missing class 404s before any permission check
			name: "missing class", path: "/api/classes/dead-beef", token: getToken(t, outsider),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			checkCode(t, tt.wantCode, rec)
		})
	}
}

func Test_classApi_update(t *testing.T) {
	db.Reset()

	creator := testutil.CreateUser(t, usrRepo, "Creator", "creator@test.cd", "", user.RoleTeacher, true)
	newTeacher := testutil.CreateUser(t, usrRepo, "New Teacher", "new@test.cd", "", user.RoleTeacher, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", creator)

	t.Run("teacher edits own class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/api/classes/"+cls.ID, getToken(t, creator), []byte(`{"title":"Biology I"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var got classroom.Class
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Biology I", got.Title)
		assert.Equal(t, "BIO101", got.Code, "omitted fields keep their value")
	})

	t.Run("teacher cannot reassign the class", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"teacher_id": newTeacher.ID})
		req, rec := newAuthRequest(http.MethodPatch, "/api/classes/"+cls.ID, getToken(t, creator), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("admin reassigns the class", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"teacher_id": newTeacher.ID})
		req, rec := newAuthRequest(http.MethodPatch, "/api/classes/"+cls.ID, getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var got classroom.Class
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, newTeacher.ID, got.TeacherID)
		assert.Equal(t, creator.ID, got.CreatedBy, "the audit field never changes")
		assert.True(t, got.HasMember(newTeacher.ID))
		assert.False(t, got.HasMember(creator.ID), "the old teacher leaves the member list")
	})

	t.Run("previous teacher loses management rights", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/api/classes/"+cls.ID, getToken(t, creator), []byte(`{"title":"Stolen"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("new teacher manages the class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/api/classes/"+cls.ID, getToken(t, newTeacher), []byte(`{"title":"Biology II"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)
	})
}

func Test_classApi_delete(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher)

	t.Run("even the class teacher cannot delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/classes/"+cls.ID, getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("admin deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/classes/"+cls.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusNoContent, rec)

		req, rec = newAuthRequest(http.MethodGet, "/api/classes/"+cls.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusNotFound, rec)
	})
}

func Test_classApi_enroll(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)
	invitee := testutil.CreateUser(t, usrRepo, "Invitee", "invitee@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher)

	t.Run("student with wrong code", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes/"+cls.ID+"/enroll", getToken(t, student), []byte(`{"code":"WRONG1"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "invalid class code"}),
		}, rec)
	})

	t.Run("student self-enrolls by code", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes/"+cls.ID+"/enroll", getToken(t, student), []byte(`{"code":"BIO101"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var got classroom.Class
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.True(t, got.HasMember(student.ID))
	})

	t.Run("duplicate enrollment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes/"+cls.ID+"/enroll", getToken(t, student), []byte(`{"code":"BIO101"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "user is already a member of this class"}),
		}, rec)
	})

	t.Run("teacher enrolls by email", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes/"+cls.ID+"/enroll", getToken(t, teacher), []byte(`{"email":"invitee@test.cd"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var got classroom.Class
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.True(t, got.HasMember(invitee.ID))
	})

	t.Run("missing class 404s first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/classes/dead-beef/enroll", getToken(t, student), []byte(`{"code":"BIO101"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"})}, rec)
	})
}

func Test_classApi_removeMember(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	member := testutil.CreateUser(t, usrRepo, "Member", "member@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, member)

	t.Run("teacher cannot be removed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/classes/"+cls.ID+"/members/"+teacher.ID, getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "cannot remove the assigned class teacher; reassign the teacher first"}),
		}, rec)
	})

	t.Run("unknown member", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/classes/"+cls.ID+"/members/dead-beef", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusNotFound, rec)
	})

	t.Run("removes a student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/classes/"+cls.ID+"/members/"+member.ID, getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var got classroom.Class
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.False(t, got.HasMember(member.ID))
	})
}
