package inmem

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Nareshb78/Assignment-Portal/core"
	"github.com/Nareshb78/Assignment-Portal/core/comment"
)

type commentRepository struct {
	db *DB
}

var _ comment.Repository = (*commentRepository)(nil) // interface compliance check

func NewCommentRepository(db *DB) *commentRepository {
	return &commentRepository{db: db}
}

func (repo *commentRepository) all() []comment.Comment {
	cmts := make([]comment.Comment, 0, len(repo.db.comments))
	for _, c := range repo.db.comments {
		cmts = append(cmts, *c)
	}
	sort.Slice(cmts, func(i, j int) bool { return cmts[i].CreatedAt.Before(cmts[j].CreatedAt) })
	return cmts
}

func (repo *commentRepository) CreateComment(ctx context.Context, cmt comment.Comment, exec ...core.DBExecutor) (comment.Comment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cmt.ID = uuid.New().String()
	repo.db.comments[cmt.ID] = &cmt
	return cmt, nil
}

func (repo *commentRepository) GetCommentByID(ctx context.Context, id string, exec ...core.DBExecutor) (comment.Comment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cmt, ok := repo.db.comments[id]; ok {
		return *cmt, nil
	}
	return comment.Comment{}, comment.ErrNotFound
}

func (repo *commentRepository) match(cmt comment.Comment, filter *comment.QueryFilter) bool {
	if filter == nil || filter.IsEmpty() {
		return true
	}
	if filter.SubmissionID != "" && cmt.SubmissionID != filter.SubmissionID {
		return false
	}
	if filter.AuthorID != "" && cmt.AuthorID != filter.AuthorID {
		return false
	}
	return true
}

func (repo *commentRepository) filtered(filter *comment.QueryFilter) []comment.Comment {
	var cmts []comment.Comment
	for _, cmt := range repo.all() {
		if repo.match(cmt, filter) {
			cmts = append(cmts, cmt)
		}
	}
	return cmts
}

func (repo *commentRepository) QueryComments(ctx context.Context, filter *comment.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]comment.Comment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	cmts := repo.filtered(filter)
	if filter != nil {
		lo, hi := pageBounds(len(cmts), filter.Offset, filter.Limit)
		cmts = cmts[lo:hi]
	}
	return cmts, nil
}

func (repo *commentRepository) CountComments(ctx context.Context, filter *comment.QueryFilter, exec ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.filtered(filter)), nil
}
