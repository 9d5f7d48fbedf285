// Package service runs the record validation pipelines and mediates every
// mutation of the in-memory store. Each pipeline checks required fields,
// then formats, then cross-record uniqueness and semantic constraints, and
// halts on the first failing rule, leaving the store unmodified.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/Elysion-Sphere/GestCare/internal/store"
	"github.com/Elysion-Sphere/GestCare/internal/validation"
)

const serviceTracerName = "gestcare/internal/service"

const (
	maxNameLength        = 150
	maxAddressLength     = 255
	maxDescriptionLength = 500
)

type Service struct {
	store             *store.Store
	jwtSigningKey     []byte
	jwtIssuer         string
	jwtAccessTokenTTL time.Duration
	now               func() time.Time
}

type Option func(*Service)

func New(st *store.Store, options ...Option) *Service {
	svc := &Service{
		store:             st,
		jwtIssuer:         "gestcare-api",
		jwtAccessTokenTTL: 15 * time.Minute,
		now:               time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

func WithAuthConfig(signingKey string, issuer string, accessTokenTTL time.Duration) Option {
	return func(s *Service) {
		s.jwtSigningKey = []byte(strings.TrimSpace(signingKey))
		if strings.TrimSpace(issuer) != "" {
			s.jwtIssuer = strings.TrimSpace(issuer)
		}
		if accessTokenTTL > 0 {
			s.jwtAccessTokenTTL = accessTokenTTL
		}
	}
}

// WithClock pins the service clock, used by the date rules and the greeting.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// validateHospital runs the hospital pipeline: every required-presence rule
// first, then formats and lengths. Cross-record CNPJ uniqueness is enforced
// by the store write inside one critical section, not here.
func (s *Service) validateHospital(input HospitalInput) (store.Hospital, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Hospital{}, missingField("name")
	}
	if strings.TrimSpace(input.CNPJ) == "" {
		return store.Hospital{}, missingField("cnpj")
	}
	if len([]rune(name)) > maxNameLength {
		return store.Hospital{}, invalidFormat("name", "name is too long")
	}
	if !validation.ValidateCNPJ(input.CNPJ) {
		return store.Hospital{}, invalidFormat("cnpj", "invalid CNPJ check digits")
	}
	if len([]rune(strings.TrimSpace(input.Address))) > maxAddressLength {
		return store.Hospital{}, invalidFormat("address", "address is too long")
	}

	return store.Hospital{
		Name:    name,
		CNPJ:    validation.Normalize(input.CNPJ, validation.CNPJLength),
		Phone:   validation.Normalize(input.Phone, validation.PhoneLength),
		Address: strings.TrimSpace(input.Address),
	}, nil
}

func (s *Service) CreateHospital(ctx context.Context, input HospitalInput) (HospitalOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.CreateHospital")
	defer span.End()

	candidate, err := s.validateHospital(input)
	if err != nil {
		return HospitalOutput{}, err
	}
	inserted, ok := s.store.Hospitals.InsertIf(candidate, func(h store.Hospital) bool {
		return h.CNPJ == candidate.CNPJ
	})
	if !ok {
		return HospitalOutput{}, duplicateKey("cnpj", "a hospital with this CNPJ already exists: "+inserted.Name)
	}
	return mapHospital(inserted), nil
}

func (s *Service) UpdateHospital(ctx context.Context, id int64, input HospitalInput) (HospitalOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.UpdateHospital")
	defer span.End()

	candidate, err := s.validateHospital(input)
	if err != nil {
		return HospitalOutput{}, err
	}
	updated, found, conflicted := s.store.Hospitals.UpdateIf(id,
		func(store.Hospital) store.Hospital { return candidate },
		func(h store.Hospital) bool { return h.CNPJ == candidate.CNPJ },
	)
	if conflicted {
		return HospitalOutput{}, duplicateKey("cnpj", "a hospital with this CNPJ already exists: "+updated.Name)
	}
	if !found {
		return HospitalOutput{}, notFoundError("hospital not found")
	}
	return mapHospital(updated), nil
}

func (s *Service) GetHospital(ctx context.Context, id int64) (HospitalOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.GetHospital")
	defer span.End()

	h, ok := s.store.Hospitals.FindByID(id)
	if !ok {
		return HospitalOutput{}, notFoundError("hospital not found")
	}
	return mapHospital(h), nil
}

// ListHospitals returns every hospital, or those whose name or CNPJ contain
// the query (case-insensitive for the name, digit-wise for the CNPJ).
func (s *Service) ListHospitals(ctx context.Context, query string) ([]HospitalOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.ListHospitals")
	defer span.End()

	query = strings.ToLower(strings.TrimSpace(query))
	queryDigits := validation.Normalize(query, 0)
	hospitals := s.store.Hospitals.Filter(func(h store.Hospital) bool {
		if query == "" {
			return true
		}
		if strings.Contains(strings.ToLower(h.Name), query) {
			return true
		}
		return queryDigits != "" && strings.Contains(h.CNPJ, queryDigits)
	})

	out := make([]HospitalOutput, 0, len(hospitals))
	for _, h := range hospitals {
		out = append(out, mapHospital(h))
	}
	return out, nil
}

// DeleteHospital removes the hospital and reports how many documents still
// reference it. Documents are deliberately left in place.
func (s *Service) DeleteHospital(ctx context.Context, id int64) (DeleteHospitalOutput, error) {
	ctx, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.DeleteHospital")
	defer span.End()

	if !s.store.Hospitals.Delete(id) {
		return DeleteHospitalOutput{}, notFoundError("hospital not found")
	}
	orphans := s.store.Documents.Filter(func(d store.Document) bool {
		return d.HospitalID == id
	})
	if len(orphans) > 0 {
		slog.WarnContext(ctx, "hospital deleted with linked documents",
			"hospital_id", id,
			"orphaned_documents", len(orphans),
		)
	}
	return DeleteHospitalOutput{OrphanedDocuments: len(orphans)}, nil
}

func mapHospital(h store.Hospital) HospitalOutput {
	return HospitalOutput{
		ID:      h.ID,
		Name:    h.Name,
		CNPJ:    validation.FormatCNPJ(h.CNPJ),
		Phone:   validation.FormatPhone(h.Phone),
		Address: h.Address,
	}
}
