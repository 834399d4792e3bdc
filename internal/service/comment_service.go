package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"user-backend/internal/docstore"
	"user-backend/internal/domain"
)

const commentsCollection = "comments"

var accountPattern = regexp.MustCompile(`^\d{8}$`)

// CommentService owns the "at most one comment record per account" invariant.
// Upsert reports whether a new document was created.
type CommentService interface {
	Upsert(ctx context.Context, comment domain.Comment) (bool, error)
}

type commentService struct {
	store docstore.Store
}

func NewCommentService(store docstore.Store) CommentService {
	return &commentService{store: store}
}

// Upsert creates the comment document for the account or replaces name and
// comment on the existing one, keeping its id. The existence check and the
// following write are two store calls: two concurrent first submissions for
// the same account can both create a document. Callers relying on the
// at-most-one invariant must not issue concurrent first submissions.
func (s *commentService) Upsert(ctx context.Context, comment domain.Comment) (bool, error) {
	if !accountPattern.MatchString(comment.Account) {
		return false, domain.NewValidationError("account", "must be an 8-digit number string")
	}
	if strings.TrimSpace(comment.Name) == "" {
		return false, domain.NewValidationError("name", "required")
	}
	if strings.TrimSpace(comment.Comment) == "" {
		return false, domain.NewValidationError("comment", "required")
	}

	docs, err := s.store.Query(ctx, commentsCollection, "account", comment.Account)
	if err != nil {
		return false, fmt.Errorf("query comments: %w", err)
	}

	if len(docs) > 0 {
		if err := s.store.Merge(ctx, commentsCollection, docs[0].ID, map[string]any{
			"name":    comment.Name,
			"comment": comment.Comment,
		}); err != nil {
			return false, fmt.Errorf("update comment: %w", err)
		}
		return false, nil
	}

	if _, err := s.store.Create(ctx, commentsCollection, map[string]any{
		"account": comment.Account,
		"name":    comment.Name,
		"comment": comment.Comment,
	}); err != nil {
		return false, fmt.Errorf("create comment: %w", err)
	}
	return true, nil
}
