package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Elysion-Sphere/GestCare/internal/store"
)

var testNow = time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

func newTestService() *Service {
	return New(
		store.New(),
		WithAuthConfig("test-secret-key", "gestcare-test", 15*time.Minute),
		WithClock(func() time.Time { return testNow }),
	)
}

func validHospitalInput() HospitalInput {
	return HospitalInput{
		Name:    "Hospital X",
		CNPJ:    "11.222.333/0001-81",
		Phone:   "(11) 3456-7890",
		Address: "Av. Paulista, 1000",
	}
}

func TestCreateHospitalAssignsUniqueIDAndNormalizes(t *testing.T) {
	svc := newTestService()

	out, err := svc.CreateHospital(context.Background(), validHospitalInput())
	if err != nil {
		t.Fatalf("create hospital: %v", err)
	}
	if out.ID != 1 {
		t.Fatalf("expected id 1, got %d", out.ID)
	}
	if out.CNPJ != "11.222.333/0001-81" {
		t.Fatalf("expected re-masked CNPJ, got %q", out.CNPJ)
	}

	stored, ok := svc.store.Hospitals.FindByID(out.ID)
	if !ok || stored.CNPJ != "11222333000181" {
		t.Fatalf("expected normalized CNPJ in store, got %q", stored.CNPJ)
	}
}

func TestCreateHospitalDuplicateCNPJ(t *testing.T) {
	svc := newTestService()

	if _, err := svc.CreateHospital(context.Background(), validHospitalInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := validHospitalInput()
	second.Name = "Hospital Y"
	second.CNPJ = "11222333000181" // same normalized number, different masking
	_, err := svc.CreateHospital(context.Background(), second)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got: %v", err)
	}
	if svc.store.Hospitals.Len() != 1 {
		t.Fatalf("expected store unmodified after rejection")
	}
}

func TestUpdateHospitalKeepingOwnCNPJ(t *testing.T) {
	svc := newTestService()

	created, err := svc.CreateHospital(context.Background(), validHospitalInput())
	if err != nil {
		t.Fatalf("create hospital: %v", err)
	}

	input := validHospitalInput()
	input.Name = "Hospital X - Unidade 2"
	updated, err := svc.UpdateHospital(context.Background(), created.ID, input)
	if err != nil {
		t.Fatalf("expected self-exclusion from duplicate check, got: %v", err)
	}
	if updated.Name != "Hospital X - Unidade 2" {
		t.Fatalf("unexpected name: %q", updated.Name)
	}
}

func TestUpdateHospitalToAnotherHospitalsCNPJ(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	input := HospitalInput{Name: "Lab Central", CNPJ: "04.252.011/0001-10"}
	_, err := svc.UpdateHospital(context.Background(), 3, input)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got: %v", err)
	}
}

func TestCreateHospitalMissingName(t *testing.T) {
	svc := newTestService()

	input := validHospitalInput()
	input.Name = "   "
	_, err := svc.CreateHospital(context.Background(), input)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got: %v", err)
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "name" {
		t.Fatalf("expected field identifier name, got: %v", err)
	}
}

func TestCreateHospitalInvalidCNPJ(t *testing.T) {
	svc := newTestService()

	input := validHospitalInput()
	input.CNPJ = "11.222.333/0001-82"
	_, err := svc.CreateHospital(context.Background(), input)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got: %v", err)
	}
	if svc.store.Hospitals.Len() != 0 {
		t.Fatalf("expected no insert after rejection")
	}
}

func TestDeleteHospitalReportsOrphansWithoutCascading(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	before := svc.store.Documents.Len()
	out, err := svc.DeleteHospital(context.Background(), 1)
	if err != nil {
		t.Fatalf("delete hospital: %v", err)
	}
	if out.OrphanedDocuments != 3 {
		t.Fatalf("expected 3 orphaned documents, got %d", out.OrphanedDocuments)
	}
	if svc.store.Documents.Len() != before {
		t.Fatalf("expected documents to be kept, not cascaded")
	}
}

func TestListHospitalsSearch(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	byName, err := svc.ListHospitals(context.Background(), "SANTA")
	if err != nil {
		t.Fatalf("list hospitals: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Clínica Santa Maria" {
		t.Fatalf("unexpected search result: %+v", byName)
	}

	byCNPJ, err := svc.ListHospitals(context.Background(), "04.252")
	if err != nil {
		t.Fatalf("list hospitals: %v", err)
	}
	if len(byCNPJ) != 1 || byCNPJ[0].ID != 2 {
		t.Fatalf("unexpected CNPJ search result: %+v", byCNPJ)
	}
}

func validDocumentInput() DocumentInput {
	return DocumentInput{
		HospitalID:  "1",
		Category:    "exam",
		Date:        "2026-08-28",
		Description: "Hemograma de controle",
	}
}

func validAttachment() *AttachmentInput {
	return &AttachmentInput{FileName: "Hemograma.PDF", ContentType: "application/pdf", Size: 1 << 20}
}

func TestCreateDocumentFutureDateRejected(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	input := validDocumentInput()
	input.Date = "2026-08-30" // clock is pinned to 2026-08-29
	_, err := svc.CreateDocument(context.Background(), input, validAttachment())
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got: %v", err)
	}
}

func TestCreateDocumentTodayAccepted(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	input := validDocumentInput()
	input.Date = "2026-08-29"
	out, err := svc.CreateDocument(context.Background(), input, validAttachment())
	if err != nil {
		t.Fatalf("expected date equal to today to pass, got: %v", err)
	}
	if out.FileExt != "pdf" {
		t.Fatalf("expected lower-cased extension pdf, got %q", out.FileExt)
	}
}

func TestCreateDocumentUnknownHospital(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateDocument(context.Background(), validDocumentInput(), validAttachment())
	if !errors.Is(err, ErrReferentialMiss) {
		t.Fatalf("expected ErrReferentialMiss, got: %v", err)
	}
}

func TestCreateDocumentUnknownCategory(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	input := validDocumentInput()
	input.Category = "laudo"
	_, err := svc.CreateDocument(context.Background(), input, validAttachment())
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got: %v", err)
	}
}

func TestCreateDocumentRequiresAttachment(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	_, err := svc.CreateDocument(context.Background(), validDocumentInput(), nil)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got: %v", err)
	}
}

func TestCreateDocumentRejectsDisallowedType(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	att := &AttachmentInput{FileName: "virus.exe", ContentType: "application/octet-stream", Size: 100}
	_, err := svc.CreateDocument(context.Background(), validDocumentInput(), att)
	if !errors.Is(err, ErrSizeOrType) {
		t.Fatalf("expected ErrSizeOrType, got: %v", err)
	}
}

func TestCreateDocumentRejectsOversizedFile(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	att := validAttachment()
	att.Size = maxAttachmentSize + 1
	_, err := svc.CreateDocument(context.Background(), validDocumentInput(), att)
	if !errors.Is(err, ErrSizeOrType) {
		t.Fatalf("expected ErrSizeOrType, got: %v", err)
	}
}

func TestUpdateDocumentKeepsFileWhenNoneSent(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	input := DocumentInput{HospitalID: "2", Category: "report", Date: "2026-02-27", Description: "Atualizado"}
	out, err := svc.UpdateDocument(context.Background(), 1, input, nil)
	if err != nil {
		t.Fatalf("update document: %v", err)
	}
	if out.FileName != "hemograma.pdf" || out.FileExt != "pdf" {
		t.Fatalf("expected existing file kept, got %q/%q", out.FileName, out.FileExt)
	}
	if out.Category != "report" || out.HospitalID != 2 {
		t.Fatalf("unexpected document after update: %+v", out)
	}
}

func TestListDocumentsCombinedFilters(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	docs, err := svc.ListDocuments(context.Background(), DocumentFilter{
		Category: "exam",
		Query:    "GLICEMIA",
	})
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 1 || docs[0].Description != "Glicemia em jejum" {
		t.Fatalf("unexpected filter result: %+v", docs)
	}
	for _, d := range docs {
		if d.Category != "exam" {
			t.Fatalf("expected only exam documents, got %q", d.Category)
		}
	}
}

func TestListDocumentsFilterByHospital(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	docs, err := svc.ListDocuments(context.Background(), DocumentFilter{HospitalID: "3"})
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents for hospital 3, got %d", len(docs))
	}
	if docs[0].ID > docs[1].ID {
		t.Fatalf("expected insertion order preserved")
	}
}

func validSignupInput() SignupInput {
	return SignupInput{
		FullName:        "André Silva",
		CPF:             "529.982.247-25",
		BirthDate:       "1999-04-12",
		Email:           "andre.silva@gestcare.com.br",
		Password:        "abcdef",
		ConfirmPassword: "abcdef",
		Gender:          "1",
	}
}

func TestSignupShortPasswordNoStateChange(t *testing.T) {
	svc := newTestService()

	input := validSignupInput()
	input.Password = "abcde"
	input.ConfirmPassword = "abcde"
	_, err := svc.Signup(context.Background(), input)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got: %v", err)
	}
	if svc.store.Users.Len() != 0 {
		t.Fatalf("expected no user created after rejection")
	}
}

func TestSignupSucceedsWithMatchingConfirmation(t *testing.T) {
	svc := newTestService()

	out, err := svc.Signup(context.Background(), validSignupInput())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if out.UserID != 1 || out.Email != "andre.silva@gestcare.com.br" {
		t.Fatalf("unexpected signup output: %+v", out)
	}
}

func TestSignupPasswordMismatch(t *testing.T) {
	svc := newTestService()

	input := validSignupInput()
	input.ConfirmPassword = "abcdeg"
	_, err := svc.Signup(context.Background(), input)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got: %v", err)
	}
}

func TestSignupSingleNameToken(t *testing.T) {
	svc := newTestService()

	input := validSignupInput()
	input.FullName = "André"
	_, err := svc.Signup(context.Background(), input)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got: %v", err)
	}
}

func TestSignupRejectsAllIdenticalCPF(t *testing.T) {
	svc := newTestService()

	input := validSignupInput()
	input.CPF = "111.111.111-11"
	_, err := svc.Signup(context.Background(), input)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got: %v", err)
	}
}

func TestSignupFutureBirthDate(t *testing.T) {
	svc := newTestService()

	input := validSignupInput()
	input.BirthDate = "2027-01-01"
	_, err := svc.Signup(context.Background(), input)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got: %v", err)
	}
}

func TestSignupUnknownGenderCode(t *testing.T) {
	svc := newTestService()

	input := validSignupInput()
	input.Gender = "4"
	_, err := svc.Signup(context.Background(), input)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got: %v", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService()

	if _, err := svc.Signup(context.Background(), validSignupInput()); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	_, err := svc.Signup(context.Background(), validSignupInput())
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got: %v", err)
	}
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	if _, err := svc.Signup(context.Background(), validSignupInput()); err != nil {
		t.Fatalf("signup: %v", err)
	}

	out, err := svc.Login(context.Background(), LoginInput{
		Email:    "Andre.Silva@gestcare.com.br",
		Password: "abcdef",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if out.TokenType != "Bearer" || out.AccessToken == "" {
		t.Fatalf("unexpected login output: %+v", out)
	}
	if err := svc.ValidateAccessToken(out.AccessToken); err != nil {
		t.Fatalf("validate token: %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService()

	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@gestcare.com.br", Password: "abcdef"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService()

	if _, err := svc.Signup(context.Background(), validSignupInput()); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, err := svc.Login(context.Background(), LoginInput{Email: "andre.silva@gestcare.com.br", Password: "wrongpw"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	svc := newTestService()

	if err := svc.ValidateAccessToken("not.a.token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestDashboardCountersAndGreeting(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	out, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if out.Hospitals != 3 || out.Documents != 7 {
		t.Fatalf("unexpected counters: %+v", out)
	}
	if out.ByCategory["exam"] != 3 || out.ByCategory["consultation"] != 2 {
		t.Fatalf("unexpected category counters: %+v", out.ByCategory)
	}
	if out.Greeting != "Bom dia" { // clock pinned to 10:30
		t.Fatalf("expected Bom dia, got %q", out.Greeting)
	}
}

func TestGreetingBoundaries(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{4, "Boa noite"},
		{5, "Bom dia"},
		{11, "Bom dia"},
		{12, "Boa tarde"},
		{17, "Boa tarde"},
		{18, "Boa noite"},
		{23, "Boa noite"},
	}
	for _, tc := range tests {
		if got := Greeting(tc.hour); got != tc.want {
			t.Fatalf("Greeting(%d): expected %q, got %q", tc.hour, tc.want, got)
		}
	}
}

func TestEaseOutCubicEndpoints(t *testing.T) {
	if got := EaseOutCubic(0, 18, 0); got != 0 {
		t.Fatalf("expected start value at progress 0, got %f", got)
	}
	if got := EaseOutCubic(0, 18, 1); got != 18 {
		t.Fatalf("expected end value at progress 1, got %f", got)
	}
	mid := EaseOutCubic(0, 18, 0.5)
	if mid <= 9 || mid >= 18 {
		t.Fatalf("expected ease-out to be ahead of linear at midpoint, got %f", mid)
	}
}

func TestFieldErrorMessage(t *testing.T) {
	err := invalidFormat("cnpj", "invalid CNPJ check digits")
	if !strings.Contains(err.Error(), "cnpj") {
		t.Fatalf("expected field name in message, got %q", err.Error())
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Message != "invalid CNPJ check digits" {
		t.Fatalf("unexpected field error: %v", err)
	}
}

func TestConcurrentCreateHospitalSingleWinner(t *testing.T) {
	for round := 0; round < 50; round++ {
		svc := newTestService()
		const writers = 16

		var wg sync.WaitGroup
		var successes atomic.Int64
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				input := validHospitalInput()
				input.Name = fmt.Sprintf("Hospital %d", i)
				if _, err := svc.CreateHospital(context.Background(), input); err == nil {
					successes.Add(1)
				}
			}(i)
		}
		wg.Wait()

		if got := successes.Load(); got != 1 {
			t.Fatalf("round %d: expected exactly one create to win, got %d", round, got)
		}
		if got := svc.store.Hospitals.Len(); got != 1 {
			t.Fatalf("round %d: expected one stored hospital, got %d", round, got)
		}
	}
}

func TestConcurrentUpdateHospitalCannotShareCNPJ(t *testing.T) {
	for round := 0; round < 50; round++ {
		svc := newTestService()

		first := validHospitalInput()
		if _, err := svc.CreateHospital(context.Background(), first); err != nil {
			t.Fatalf("create first: %v", err)
		}
		second := validHospitalInput()
		second.Name = "Hospital Y"
		second.CNPJ = "04.252.011/0001-10"
		created, err := svc.CreateHospital(context.Background(), second)
		if err != nil {
			t.Fatalf("create second: %v", err)
		}

		// One goroutine moves the second hospital onto a fresh CNPJ while
		// another creates a third hospital with that same number.
		target := validHospitalInput()
		target.Name = "Hospital Y"
		target.CNPJ = "11222333000262"
		third := validHospitalInput()
		third.Name = "Hospital Z"
		third.CNPJ = "11.222.333/0002-62"

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.UpdateHospital(context.Background(), created.ID, target)
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.CreateHospital(context.Background(), third)
		}()
		wg.Wait()

		holders := svc.store.Hospitals.Filter(func(h store.Hospital) bool {
			return h.CNPJ == "11222333000262"
		})
		if len(holders) > 1 {
			t.Fatalf("round %d: %d hospitals share CNPJ 11222333000262", round, len(holders))
		}
	}
}

func TestConcurrentSignupSingleAccount(t *testing.T) {
	svc := newTestService()
	const writers = 8

	var wg sync.WaitGroup
	var successes atomic.Int64
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Signup(context.Background(), validSignupInput()); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := successes.Load(); got != 1 {
		t.Fatalf("expected exactly one signup to win, got %d", got)
	}
	accounts := svc.store.Users.Filter(func(u store.User) bool {
		return u.Email == "andre.silva@gestcare.com.br"
	})
	if len(accounts) != 1 {
		t.Fatalf("expected one stored account, got %d", len(accounts))
	}
}

func TestHospitalMissingCNPJReportedBeforeNameLength(t *testing.T) {
	svc := newTestService()

	input := validHospitalInput()
	input.Name = strings.Repeat("a", 200)
	input.CNPJ = "   "
	_, err := svc.CreateHospital(context.Background(), input)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got: %v", err)
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "cnpj" {
		t.Fatalf("expected cnpj reported first, got: %v", err)
	}
}

func TestListDocumentsUnknownCategoryMatchesNothing(t *testing.T) {
	svc := newTestService()
	svc.store.Seed()

	docs, err := svc.ListDocuments(context.Background(), DocumentFilter{Category: "nota"})
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty result for unknown category, got %d", len(docs))
	}
}
