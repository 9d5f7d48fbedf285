package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/Elysion-Sphere/GestCare/internal/store"
	"github.com/Elysion-Sphere/GestCare/internal/validation"
)

const maxAttachmentSize = 10 << 20 // 10 MiB

// today is the service clock's calendar date at midnight UTC, the reference
// for every "not in the future" rule. A date equal to today passes.
func (s *Service) today() time.Time {
	year, month, day := s.now().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// allowedAttachmentTypes is the fixed allow-list of declared MIME kinds.
var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// validateAttachment enforces the attachment contract before the file
// metadata is accepted into a candidate document.
func validateAttachment(att AttachmentInput) (fileName string, fileExt string, err error) {
	name := strings.TrimSpace(att.FileName)
	if name == "" {
		return "", "", missingField("file")
	}
	mediaType := strings.TrimSpace(att.ContentType)
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if !allowedAttachmentTypes[strings.ToLower(mediaType)] {
		return "", "", sizeOrTypeRejected("file", "unsupported file type, accepted: PDF, JPG, PNG")
	}
	if att.Size > maxAttachmentSize {
		return "", "", sizeOrTypeRejected("file", "file too large, maximum 10MB")
	}
	ext := ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ext = strings.ToLower(name[i+1:])
	}
	return name, ext, nil
}

// validateDocument runs the document pipeline. The attachment is mandatory
// on create and optional on update, where nil keeps the current file.
func (s *Service) validateDocument(input DocumentInput, att *AttachmentInput, current *store.Document) (store.Document, error) {
	if strings.TrimSpace(input.HospitalID) == "" {
		return store.Document{}, missingField("hospital_id")
	}
	if strings.TrimSpace(input.Category) == "" {
		return store.Document{}, missingField("category")
	}
	if strings.TrimSpace(input.Date) == "" {
		return store.Document{}, missingField("date")
	}

	hospitalID, err := strconv.ParseInt(strings.TrimSpace(input.HospitalID), 10, 64)
	if err != nil || hospitalID <= 0 {
		return store.Document{}, invalidFormat("hospital_id", "hospital_id must be a positive integer")
	}
	category := store.DocumentCategory(strings.TrimSpace(input.Category))
	if !category.Valid() {
		return store.Document{}, invalidFormat("category", "unknown document category")
	}
	date, ok := validation.ParseDate(input.Date)
	if !ok {
		return store.Document{}, invalidFormat("date", "date must be a real YYYY-MM-DD calendar date")
	}
	if date.After(s.today()) {
		return store.Document{}, invalidFormat("date", "document date cannot be in the future")
	}
	description := strings.TrimSpace(input.Description)
	if len([]rune(description)) > maxDescriptionLength {
		return store.Document{}, invalidFormat("description", "description is too long")
	}

	// Keeps the referential rule in pipeline position; the hospital-guarded
	// store write is the authoritative check.
	if _, ok := s.store.Hospitals.FindByID(hospitalID); !ok {
		return store.Document{}, referentialMiss("hospital_id", "referenced hospital does not exist")
	}

	doc := store.Document{
		HospitalID:  hospitalID,
		Category:    category,
		Date:        date.Format("2006-01-02"),
		Description: description,
	}
	switch {
	case att != nil:
		fileName, fileExt, err := validateAttachment(*att)
		if err != nil {
			return store.Document{}, err
		}
		doc.FileName = fileName
		doc.FileExt = fileExt
	case current != nil:
		doc.FileName = current.FileName
		doc.FileExt = current.FileExt
	default:
		return store.Document{}, missingField("file")
	}
	return doc, nil
}

func (s *Service) CreateDocument(ctx context.Context, input DocumentInput, att *AttachmentInput) (DocumentOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.CreateDocument")
	defer span.End()

	candidate, err := s.validateDocument(input, att, nil)
	if err != nil {
		return DocumentOutput{}, err
	}
	inserted, ok := s.store.InsertDocumentIfHospital(candidate)
	if !ok {
		return DocumentOutput{}, referentialMiss("hospital_id", "referenced hospital does not exist")
	}
	return s.mapDocument(inserted), nil
}

func (s *Service) UpdateDocument(ctx context.Context, id int64, input DocumentInput, att *AttachmentInput) (DocumentOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.UpdateDocument")
	defer span.End()

	current, ok := s.store.Documents.FindByID(id)
	if !ok {
		return DocumentOutput{}, notFoundError("document not found")
	}
	candidate, err := s.validateDocument(input, att, &current)
	if err != nil {
		return DocumentOutput{}, err
	}
	updated, found, linked := s.store.UpdateDocumentIfHospital(id, candidate)
	if !linked {
		return DocumentOutput{}, referentialMiss("hospital_id", "referenced hospital does not exist")
	}
	if !found {
		return DocumentOutput{}, notFoundError("document not found")
	}
	return s.mapDocument(updated), nil
}

func (s *Service) GetDocument(ctx context.Context, id int64) (DocumentOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.GetDocument")
	defer span.End()

	d, ok := s.store.Documents.FindByID(id)
	if !ok {
		return DocumentOutput{}, notFoundError("document not found")
	}
	return s.mapDocument(d), nil
}

func (s *Service) DeleteDocument(ctx context.Context, id int64) error {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.DeleteDocument")
	defer span.End()

	if !s.store.Documents.Delete(id) {
		return notFoundError("document not found")
	}
	return nil
}

// ListDocuments applies the active filters as a logical AND: exact category,
// exact owning hospital and case-insensitive substring on the description.
// An unknown category is just a filter nothing matches, not an error.
func (s *Service) ListDocuments(ctx context.Context, filter DocumentFilter) ([]DocumentOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.ListDocuments")
	defer span.End()

	category := strings.TrimSpace(filter.Category)
	var hospitalID int64
	if raw := strings.TrimSpace(filter.HospitalID); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, invalidFormat("hospital_id", "hospital_id must be a positive integer")
		}
		hospitalID = parsed
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	docs := s.store.Documents.Filter(func(d store.Document) bool {
		if category != "" && string(d.Category) != category {
			return false
		}
		if hospitalID != 0 && d.HospitalID != hospitalID {
			return false
		}
		if query != "" && !strings.Contains(strings.ToLower(d.Description), query) {
			return false
		}
		return true
	})

	out := make([]DocumentOutput, 0, len(docs))
	for _, d := range docs {
		out = append(out, s.mapDocument(d))
	}
	return out, nil
}

func (s *Service) mapDocument(d store.Document) DocumentOutput {
	hospitalName := "Desconhecido"
	if h, ok := s.store.Hospitals.FindByID(d.HospitalID); ok {
		hospitalName = h.Name
	}
	return DocumentOutput{
		ID:           d.ID,
		HospitalID:   d.HospitalID,
		HospitalName: hospitalName,
		Category:     string(d.Category),
		Date:         d.Date,
		Description:  d.Description,
		FileName:     d.FileName,
		FileExt:      d.FileExt,
	}
}
