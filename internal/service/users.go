package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/storage"
)

type UserService struct {
	store storage.Store
	log   *logrus.Entry
}

func (s *UserService) Create(ctx context.Context, in domain.NewUser) (domain.UserDTO, error) {
	if err := domain.Validate(in); err != nil {
		return domain.UserDTO{}, err
	}
	var created domain.User
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.store.CreateUser(ctx, domain.User{Name: in.Name, Email: in.Email})
		if err != nil {
			return conflict(err, "User with email %s already exists", in.Email)
		}
		created = u
		return nil
	})
	if err != nil {
		return domain.UserDTO{}, err
	}
	s.log.WithField("user_id", created.ID).Info("user created")
	return domain.ToUserDTO(created), nil
}

// List returns the users with the given ids, or every user when ids is empty.
func (s *UserService) List(ctx context.Context, ids []int64, page domain.Page) ([]domain.UserDTO, error) {
	users, err := s.store.ListUsers(ctx, ids, page)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, domain.ToUserDTO(u))
	}
	return out, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		return notFound(s.store.DeleteUser(ctx, id), "User with id=%d was not found", id)
	})
	if err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}
