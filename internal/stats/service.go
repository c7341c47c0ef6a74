package stats

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"example.com/ewm/internal/apperr"
	"example.com/ewm/internal/datetime"
	"example.com/ewm/internal/metrics"
)

type Service struct {
	store    Store
	log      *logrus.Entry
	validate *validator.Validate
}

func NewService(store Store, log *logrus.Entry) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &Service{store: store, log: log, validate: v}
}

func (s *Service) SaveHit(ctx context.Context, h Hit) (Hit, error) {
	if err := s.check(h); err != nil {
		return Hit{}, err
	}
	saved, err := s.store.SaveHit(ctx, h)
	if err != nil {
		return Hit{}, fmt.Errorf("save hit: %w", err)
	}
	metrics.RecordHit(saved.App)
	s.log.WithFields(logrus.Fields{"app": saved.App, "uri": saved.URI}).Debug("hit recorded")
	return saved, nil
}

func (s *Service) ViewStats(ctx context.Context, q Query) ([]ViewStats, error) {
	if q.End.Before(q.Start) {
		return nil, apperr.Validation("end %s must not be before start %s",
			datetime.Format(q.End), datetime.Format(q.Start))
	}
	out, err := s.store.Stats(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("view stats: %w", err)
	}
	return out, nil
}

func (s *Service) Ready(ctx context.Context) error { return s.store.Ready(ctx) }

func (s *Service) check(h Hit) error {
	err := s.validate.Struct(h)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("invalid hit: %v", err)
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fmt.Sprintf("Field: %s. Error: %s. Value: %v", fe.Field(), fe.Tag(), fe.Value()))
	}
	return apperr.WithDetails("Incorrectly made request.", details)
}
