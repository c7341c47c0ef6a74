package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/storage"
)

type CommentService struct {
	store storage.Store
	log   *logrus.Entry
}

// Create adds a comment of userID to a published event.
func (s *CommentService) Create(ctx context.Context, userID, eventID int64, in domain.NewComment) (domain.CommentDTO, error) {
	if err := domain.Validate(in); err != nil {
		return domain.CommentDTO{}, err
	}
	var created domain.Comment
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireUser(ctx, s.store, userID); err != nil {
			return err
		}
		e, err := s.store.GetEvent(ctx, eventID)
		if err != nil {
			return notFound(err, "Event with id=%d was not found", eventID)
		}
		if e.State != domain.EventPublished {
			return apperr.Conflict("Only published events can be commented")
		}
		created, err = s.store.CreateComment(ctx, domain.Comment{Text: in.Text, EventID: eventID, AuthorID: userID})
		return notFound(err, "Event with id=%d was not found", eventID)
	})
	if err != nil {
		return domain.CommentDTO{}, err
	}
	return domain.ToCommentDTO(created), nil
}

func (s *CommentService) Update(ctx context.Context, userID, commentID int64, in domain.NewComment) (domain.CommentDTO, error) {
	if err := domain.Validate(in); err != nil {
		return domain.CommentDTO{}, err
	}
	var updated domain.Comment
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.authored(ctx, userID, commentID)
		if err != nil {
			return err
		}
		c.Text = in.Text
		updated, err = s.store.UpdateComment(ctx, c)
		return notFound(err, "Comment with id=%d was not found", commentID)
	})
	if err != nil {
		return domain.CommentDTO{}, err
	}
	return domain.ToCommentDTO(updated), nil
}

func (s *CommentService) DeleteByAuthor(ctx context.Context, userID, commentID int64) error {
	return s.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.authored(ctx, userID, commentID); err != nil {
			return err
		}
		return notFound(s.store.DeleteComment(ctx, commentID), "Comment with id=%d was not found", commentID)
	})
}

func (s *CommentService) DeleteByAdmin(ctx context.Context, commentID int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		return notFound(s.store.DeleteComment(ctx, commentID), "Comment with id=%d was not found", commentID)
	})
	if err == nil {
		s.log.WithField("comment_id", commentID).Info("comment removed by admin")
	}
	return err
}

func (s *CommentService) ListByEvent(ctx context.Context, eventID int64, page domain.Page) ([]domain.CommentDTO, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, notFound(err, "Event with id=%d was not found", eventID)
	}
	cs, err := s.store.ListCommentsByEvent(ctx, eventID, page)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CommentDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, domain.ToCommentDTO(c))
	}
	return out, nil
}

// authored loads a comment and checks that userID wrote it.
func (s *CommentService) authored(ctx context.Context, userID, commentID int64) (domain.Comment, error) {
	if err := requireUser(ctx, s.store, userID); err != nil {
		return domain.Comment{}, err
	}
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return domain.Comment{}, notFound(err, "Comment with id=%d was not found", commentID)
	}
	if c.AuthorID != userID {
		return domain.Comment{}, apperr.Conflict("User with id=%d is not the author of comment %d", userID, commentID)
	}
	return c, nil
}
