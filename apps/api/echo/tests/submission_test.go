package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nareshb78/Assignment-Portal/core/submission"
	"github.com/Nareshb78/Assignment-Portal/core/user"
	testutil "github.com/Nareshb78/Assignment-Portal/tests"
)

func Test_submissionApi_submit(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)
	outsider := testutil.CreateUser(t, usrRepo, "Outsider", "outsider@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, student)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), teacher)
	path := "/api/classes/" + cls.ID + "/assignments/" + asg.ID + "/submissions"

	body := []byte(`{"link_or_files":["https://example.com/v1.pdf"]}`)

	t.Run("non-members shut out", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, outsider), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("teachers cannot submit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, teacher), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("links must be URLs", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, student), []byte(`{"link_or_files":["not a url"]}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusBadRequest, rec)
	})

	t.Run("on-time submission", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, student), body)
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusCreated, rec)

		var sub submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
		assert.Equal(t, student.ID, sub.StudentID)
		assert.Equal(t, submission.StatusSubmitted, sub.Status)
		assert.False(t, sub.Late)
	})

	t.Run("resubmission replaces in place", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, student), []byte(`{"link_or_files":["https://example.com/v2.pdf"]}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusCreated, rec)

		var sub submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
		assert.Equal(t, []string{"https://example.com/v2.pdf"}, sub.LinkOrFiles)

		count, err := subRepo.CountSubmissions(context.Background(), &submission.QueryFilter{AssignmentID: asg.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, count, "one submission per student per assignment")
	})
}

func Test_submissionApi_submit_late(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, student)
	overdue := testutil.CreateAssignment(t, asgRepo, cls, "Overdue", time.Now().Add(-time.Hour), teacher)
	path := "/api/classes/" + cls.ID + "/assignments/" + overdue.ID + "/submissions"

	t.Run("late flag computed at submit time", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, student), []byte(`{"link_or_files":["https://example.com/v1.pdf"]}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusCreated, rec)

		var sub submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
		assert.True(t, sub.Late)
	})

	t.Run("graded late submission is locked", func(t *testing.T) {
		// teacher grades the late submission
		sub, err := subRepo.GetSubmissionByAssignmentAndStudent(context.Background(), overdue.ID, student.ID)
		require.NoError(t, err)
		gradePath := "/api/submissions/" + sub.ID + "/grade"
		req, rec := newAuthRequest(http.MethodPatch, gradePath, getToken(t, teacher), []byte(`{"score":50}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		// the student can no longer replace it
		req, rec = newAuthRequest(http.MethodPost, path, getToken(t, student), []byte(`{"link_or_files":["https://example.com/v2.pdf"]}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "a graded late submission cannot be replaced"}),
		}, rec)
	})

	t.Run("graded on-time submission is locked once overdue", func(t *testing.T) {
		// submitted before the due date, graded, and the due date has since passed
		asg := testutil.CreateAssignment(t, asgRepo, cls, "Closed", time.Now().Add(-time.Hour), teacher)
		grade := &submission.Grade{Score: 80, GradedBy: teacher.ID, GradedAt: time.Now()}
		testutil.CreateSubmission(t, subRepo, asg, student, false, grade)

		closedPath := "/api/classes/" + cls.ID + "/assignments/" + asg.ID + "/submissions"
		req, rec := newAuthRequest(http.MethodPost, closedPath, getToken(t, student), []byte(`{"link_or_files":["https://example.com/v2.pdf"]}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "a graded late submission cannot be replaced"}),
		}, rec)
	})
}

func Test_submissionApi_resubmitClearsGrade(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, student)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), teacher)
	path := "/api/classes/" + cls.ID + "/assignments/" + asg.ID + "/submissions"

	// submit and grade, on time
	req, rec := newAuthRequest(http.MethodPost, path, getToken(t, student), []byte(`{"link_or_files":["https://example.com/v1.pdf"]}`))
	app.ServeHTTP(rec, req)
	checkCode(t, http.StatusCreated, rec)

	var sub submission.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))

	req, rec = newAuthRequest(http.MethodPatch, "/api/submissions/"+sub.ID+"/grade", getToken(t, teacher), []byte(`{"score":80}`))
	app.ServeHTTP(rec, req)
	checkCode(t, http.StatusOK, rec)

	// an on-time regrade stays open: resubmission clears the grade
	req, rec = newAuthRequest(http.MethodPost, path, getToken(t, student), []byte(`{"link_or_files":["https://example.com/v2.pdf"]}`))
	app.ServeHTTP(rec, req)
	checkCode(t, http.StatusCreated, rec)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Nil(t, sub.Grade)
	assert.Equal(t, submission.StatusSubmitted, sub.Status)
}

func Test_submissionApi_grade(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	otherTeacher := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, student)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), teacher)
	sub := testutil.CreateSubmission(t, subRepo, asg, student, false, nil)
	path := "/api/submissions/" + sub.ID + "/grade"

	t.Run("students cannot grade", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, getToken(t, student), []byte(`{"score":90}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("only the class teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, getToken(t, otherTeacher), []byte(`{"score":90}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("score capped by max score", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, getToken(t, teacher), []byte(`{"score":150}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"score": "score exceeds the assignment's maximum score"}),
		}, rec)
	})

	t.Run("class teacher grades", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, getToken(t, teacher), []byte(`{"score":90, "feedback":"Good work"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var got submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.NotNil(t, got.Grade)
		assert.Equal(t, float64(90), got.Grade.Score)
		assert.Equal(t, teacher.ID, got.Grade.GradedBy)
		assert.Equal(t, submission.StatusGraded, got.Status)
	})

	t.Run("admin short-circuit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, getToken(t, admin), []byte(`{"score":95}`))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)
	})
}

func Test_submissionApi_queue(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	otherTeacher := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher, true)
	s1 := testutil.CreateUser(t, usrRepo, "S1", "s1@test.cd", "", user.RoleStudent, true)
	s2 := testutil.CreateUser(t, usrRepo, "S2", "s2@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, s1, s2)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), teacher)
	testutil.CreateSubmission(t, subRepo, asg, s1, false, nil)
	testutil.CreateSubmission(t, subRepo, asg, s2, false, &submission.Grade{Score: 80, GradedBy: teacher.ID, GradedAt: time.Now().UTC()})

	path := "/api/classes/" + cls.ID + "/assignments/" + asg.ID + "/submissions"

	t.Run("only the class teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, otherTeacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("full queue", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var resp struct {
			Items []submission.Submission `json:"items"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Items, 2)
	})

	t.Run("status filter", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path+"?status=graded", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var resp struct {
			Items []submission.Submission `json:"items"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, s2.ID, resp.Items[0].StudentID)
	})
}

func Test_submissionApi_retrieve(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	owner := testutil.CreateUser(t, usrRepo, "Owner", "owner@test.cd", "", user.RoleStudent, true)
	classmate := testutil.CreateUser(t, usrRepo, "Classmate", "classmate@test.cd", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, owner, classmate)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), teacher)
	sub := testutil.CreateSubmission(t, subRepo, asg, owner, false, nil)
	path := "/api/submissions/" + sub.ID

	tests := []httpTest{
		{name: "owner", token: getToken(t, owner), wantCode: http.StatusOK},
		{name: "class teacher through the chain", token: getToken(t, teacher), wantCode: http.StatusOK},
		{name: "admin short-circuit", token: getToken(t, admin), wantCode: http.StatusOK},
		{
			name: "classmates shut out", token: getToken(t, classmate),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, path, tt.token)
			app.ServeHTTP(rec, req)
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			checkCode(t, tt.wantCode, rec)
		})
	}

	t.Run("missing submission", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/submissions/dead-beef", getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "submission not found"})}, rec)
	})
}

func Test_submissionApi_mine(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, student, other)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), teacher)
	testutil.CreateSubmission(t, subRepo, asg, student, false, nil)
	testutil.CreateSubmission(t, subRepo, asg, other, false, nil)

	t.Run("own history only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/submissions/me", getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var resp struct {
			Items []submission.Submission `json:"items"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, student.ID, resp.Items[0].StudentID)
	})

	t.Run("own record by assignment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/submissions/by-assignment/"+asg.ID, getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCode(t, http.StatusOK, rec)

		var got submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, student.ID, got.StudentID)
	})

	t.Run("never submitted", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/submissions/by-assignment/dead-beef", getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "submission not found"})}, rec)
	})
}

func Test_submissionApi_distribution(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	students := make([]user.User, 0, 5)
	emails := []string{"a@test.cd", "b@test.cd", "c@test.cd", "d@test.cd", "e@test.cd"}
	for i, email := range emails {
		students = append(students, testutil.CreateUser(t, usrRepo, "S"+emails[i], email, "", user.RoleStudent, true))
	}

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, students...)
	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), teacher)

	now := time.Now().UTC()
	scores := []float64{30, 65, 75, 85, 100} // one per bucket
	for i, score := range scores {
		testutil.CreateSubmission(t, subRepo, asg, students[i], false, &submission.Grade{Score: score, GradedBy: teacher.ID, GradedAt: now})
	}

	req, rec := newAuthRequest(http.MethodGet, "/api/classes/"+cls.ID+"/assignments/"+asg.ID+"/submissions/grades/distribution", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	checkCode(t, http.StatusOK, rec)

	var buckets []submission.DistributionBucket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &buckets))
	require.Len(t, buckets, 5)
	for _, b := range buckets {
		assert.Equal(t, 1, b.Count, "bucket %s", b.Label)
	}
}

func Test_submissionApi_teacherMetrics(t *testing.T) {
	db.Reset()

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, true)
	otherTeacher := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleTeacher, true)
	s1 := testutil.CreateUser(t, usrRepo, "S1", "s1@test.cd", "", user.RoleStudent, true)
	s2 := testutil.CreateUser(t, usrRepo, "S2", "s2@test.cd", "", user.RoleStudent, true)

	cls := testutil.CreateClass(t, classRepo, "Biology", "BIO101", teacher, s1, s2)
	otherCls := testutil.CreateClass(t, classRepo, "Chemistry", "CHM101", otherTeacher, s1)

	asg := testutil.CreateAssignment(t, asgRepo, cls, "Lab Report", time.Now().Add(48*time.Hour), teacher)
	otherAsg := testutil.CreateAssignment(t, asgRepo, otherCls, "Elsewhere", time.Now().Add(48*time.Hour), otherTeacher)

	now := time.Now().UTC()
	testutil.CreateSubmission(t, subRepo, asg, s1, false, nil)
	testutil.CreateSubmission(t, subRepo, asg, s2, false, &submission.Grade{Score: 80, GradedBy: teacher.ID, GradedAt: now})
	testutil.CreateSubmission(t, subRepo, otherAsg, s1, false, &submission.Grade{Score: 10, GradedBy: otherTeacher.ID, GradedAt: now})

	req, rec := newAuthRequest(http.MethodGet, "/api/assignments/metrics/teacher", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	checkCode(t, http.StatusOK, rec)

	var metrics submission.Metrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, 1, metrics.PendingGradeCount)
	assert.Equal(t, 1, metrics.GradedCount)
	assert.Equal(t, float64(80), metrics.AverageScore, "other teachers' classes never leak in")
}
