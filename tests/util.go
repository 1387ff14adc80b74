package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Nareshb78/Assignment-Portal/core/assignment"
	"github.com/Nareshb78/Assignment-Portal/core/classroom"
	"github.com/Nareshb78/Assignment-Portal/core/submission"
	"github.com/Nareshb78/Assignment-Portal/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	active := isActive
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  &active,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClass(
	t *testing.T,
	repo classroom.Repository,
	title, code string,
	teacher user.User,
	members ...user.User,
) classroom.Class {
	t.Helper()

	now := time.Now().UTC()
	cls := classroom.Class{
		Title:     title,
		Code:      code,
		TeacherID: teacher.ID,
		CreatedBy: teacher.ID,
		Members:   []classroom.Member{{UserID: teacher.ID, RoleInClass: user.RoleTeacher}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range members {
		cls.Members = append(cls.Members, classroom.Member{UserID: m.ID, RoleInClass: user.RoleStudent})
	}
	cls, err := repo.CreateClass(context.Background(), cls)
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	cls classroom.Class,
	title string,
	dueAt time.Time,
	createdBy user.User,
) assignment.Assignment {
	t.Helper()

	now := time.Now().UTC()
	asg := assignment.Assignment{
		ClassID:    cls.ID,
		Title:      title,
		DueAt:      dueAt.UTC(),
		MaxScore:   100,
		Visibility: assignment.VisibilityPublished,
		CreatedBy:  createdBy.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	asg, err := repo.CreateAssignment(context.Background(), asg)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	asg assignment.Assignment,
	student user.User,
	late bool,
	grade *submission.Grade,
) submission.Submission {
	t.Helper()

	now := time.Now().UTC()
	status := submission.StatusSubmitted
	if grade != nil {
		status = submission.StatusGraded
	}
	sub := submission.Submission{
		AssignmentID: asg.ID,
		StudentID:    student.ID,
		LinkOrFiles:  []string{"https://example.com/work.pdf"},
		SubmittedAt:  now,
		Status:       status,
		Late:         late,
		Grade:        grade,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sub, err := repo.CreateSubmission(context.Background(), sub)
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}
