package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/domain"
	"example.com/ewm/internal/storage"
)

type CategoryService struct {
	store storage.Store
	log   *logrus.Entry
}

func (s *CategoryService) Create(ctx context.Context, in domain.NewCategory) (domain.CategoryDTO, error) {
	if err := domain.Validate(in); err != nil {
		return domain.CategoryDTO{}, err
	}
	var created domain.Category
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.store.CreateCategory(ctx, domain.Category{Name: in.Name})
		if err != nil {
			return conflict(err, "Category %q already exists", in.Name)
		}
		created = c
		return nil
	})
	if err != nil {
		return domain.CategoryDTO{}, err
	}
	return domain.ToCategoryDTO(created), nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, in domain.NewCategory) (domain.CategoryDTO, error) {
	if err := domain.Validate(in); err != nil {
		return domain.CategoryDTO{}, err
	}
	var updated domain.Category
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetCategory(ctx, id); err != nil {
			return notFound(err, "Category with id=%d was not found", id)
		}
		c, err := s.store.UpdateCategory(ctx, domain.Category{ID: id, Name: in.Name})
		if err != nil {
			return conflict(err, "Category %q already exists", in.Name)
		}
		updated = c
		return nil
	})
	if err != nil {
		return domain.CategoryDTO{}, err
	}
	return domain.ToCategoryDTO(updated), nil
}

// Delete removes a category that no event references.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.GetCategory(ctx, id); err != nil {
			return notFound(err, "Category with id=%d was not found", id)
		}
		used, err := s.store.CategoryInUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperr.Conflict("The category is not empty")
		}
		return conflict(s.store.DeleteCategory(ctx, id), "The category is not empty")
	})
}

func (s *CategoryService) Get(ctx context.Context, id int64) (domain.CategoryDTO, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return domain.CategoryDTO{}, notFound(err, "Category with id=%d was not found", id)
	}
	return domain.ToCategoryDTO(c), nil
}

func (s *CategoryService) List(ctx context.Context, page domain.Page) ([]domain.CategoryDTO, error) {
	cs, err := s.store.ListCategories(ctx, page)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CategoryDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, domain.ToCategoryDTO(c))
	}
	return out, nil
}
