package service

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/Elysion-Sphere/GestCare/internal/store"
)

// Greeting returns the time-of-day salutation shown on the dashboard.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Bom dia"
	case hour >= 12 && hour < 18:
		return "Boa tarde"
	default:
		return "Boa noite"
	}
}

// EaseOutCubic is the easing curve of the animated stat counters: the value
// shown at progress p in [0,1] between start and end.
func EaseOutCubic(start, end float64, progress float64) float64 {
	if progress <= 0 {
		return start
	}
	if progress >= 1 {
		return end
	}
	inv := 1 - progress
	eased := 1 - inv*inv*inv
	return start + (end-start)*eased
}

// Dashboard aggregates the counters behind the stat cards.
func (s *Service) Dashboard(ctx context.Context) (DashboardOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.Dashboard")
	defer span.End()

	byCategory := map[string]int{
		string(store.CategoryExam):         0,
		string(store.CategoryConsultation): 0,
		string(store.CategoryPrescription): 0,
		string(store.CategoryReport):       0,
	}
	docs := s.store.Documents.List()
	for _, d := range docs {
		byCategory[string(d.Category)]++
	}

	return DashboardOutput{
		Greeting:   Greeting(s.now().Hour()),
		Hospitals:  s.store.Hospitals.Len(),
		Documents:  len(docs),
		ByCategory: byCategory,
	}, nil
}
