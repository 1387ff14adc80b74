package inmem

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/classroom"
)

type classRepository struct {
	db *DB
}

var _ classroom.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) all() []classroom.Class {
	classes := make([]classroom.Class, 0, len(repo.db.classes))
	for _, c := range repo.db.classes {
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.After(classes[j].CreatedAt) })
	return classes
}

func (repo *classRepository) CheckCodeUniqueness(ctx context.Context, code string, excludedClasses []classroom.Class, exec ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excl := make(map[string]bool, len(excludedClasses))
	for _, c := range excludedClasses {
		excl[c.ID] = true
	}
	for _, cls := range repo.db.classes {
		if cls.Code == code && !excl[cls.ID] {
			return classroom.ErrCodeExists
		}
	}
	return nil
}

func (repo *classRepository) CreateClass(ctx context.Context, cls classroom.Class, exec ...core.DBExecutor) (classroom.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cls.ID = uuid.New().String()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) GetClassByID(ctx context.Context, id string, exec ...core.DBExecutor) (classroom.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return classroom.Class{}, classroom.ErrNotFound
}

func (repo *classRepository) GetClassByCode(ctx context.Context, code string, exec ...core.DBExecutor) (classroom.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, cls := range repo.db.classes {
		if cls.Code == code {
			return *cls, nil
		}
	}
	return classroom.Class{}, classroom.ErrNotFound
}

func (repo *classRepository) match(cls classroom.Class, filter *classroom.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(cls.Title), s) &&
			!strings.Contains(strings.ToLower(cls.Description), s) &&
			!strings.Contains(strings.ToLower(cls.Code), s) {
			return false
		}
	}
	if filter.MemberID != "" && !cls.HasMember(filter.MemberID) && !cls.IsTaughtBy(filter.MemberID) {
		return false
	}
	return true
}

func (repo *classRepository) filtered(filter *classroom.QueryFilter) []classroom.Class {
	var classes []classroom.Class
	for _, cls := range repo.all() {
		if repo.match(cls, filter) {
			classes = append(classes, cls)
		}
	}
	return classes
}

func (repo *classRepository) QueryClasses(ctx context.Context, filter *classroom.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]classroom.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := repo.filtered(filter)
	if filter != nil {
		lo, hi := pageBounds(len(classes), filter.Offset, filter.Limit)
		classes = classes[lo:hi]
	}
	return classes, nil
}

func (repo *classRepository) CountClasses(ctx context.Context, filter *classroom.QueryFilter, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.filtered(filter)), nil
}

func (repo *classRepository) QueryClassIDsByTeacher(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ids []string
	for _, cls := range repo.db.classes {
		if cls.TeacherID == teacherID {
			ids = append(ids, cls.ID)
		}
	}
	return ids, nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls classroom.Class, exec ...core.DBExecutor) (classroom.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.classes[cls.ID]
	if !ok {
		return classroom.Class{}, classroom.ErrNotFound
	}
	if cls.Title != "" {
		orig.Title = cls.Title
	}
	if cls.Code != "" {
		orig.Code = cls.Code
	}
	if cls.Description != "" {
		orig.Description = cls.Description
	}
	if cls.TeacherID != "" {
		orig.TeacherID = cls.TeacherID
	}
	orig.UpdatedAt = cls.UpdatedAt
	return *orig, nil
}

func (repo *classRepository) AddMember(ctx context.Context, classID string, m classroom.Member, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cls, ok := repo.db.classes[classID]
	if !ok {
		return classroom.ErrNotFound
	}
	cls.Members = append(cls.Members, m)
	return nil
}

func (repo *classRepository) RemoveMember(ctx context.Context, classID, userID string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cls, ok := repo.db.classes[classID]
	if !ok {
		return classroom.ErrNotFound
	}
	members := make([]classroom.Member, 0, len(cls.Members))
	for _, m := range cls.Members {
		if m.UserID != userID {
			members = append(members, m)
		}
	}
	cls.Members = members
	return nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.classes, id)

	// mimic the FK cascade: assignments, their submissions, their comments
	for asgID, asg := range repo.db.assignments {
		if asg.ClassID != id {
			continue
		}
		for subID, sub := range repo.db.submissions {
			if sub.AssignmentID != asgID {
				continue
			}
			for cmtID, cmt := range repo.db.comments {
				if cmt.SubmissionID == subID {
					delete(repo.db.comments, cmtID)
				}
			}
			delete(repo.db.submissions, subID)
		}
		delete(repo.db.assignments, asgID)
	}
	return nil
}
