package store

import "testing"

func newHospitalCollection() *Collection[Hospital] {
	return NewCollection(
		func(h Hospital) int64 { return h.ID },
		func(h Hospital, id int64) Hospital { h.ID = id; return h },
	)
}

func TestInsertAssignsMonotonicIDs(t *testing.T) {
	c := newHospitalCollection()
	a := c.Insert(Hospital{Name: "A"})
	b := c.Insert(Hospital{Name: "B"})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", a.ID, b.ID)
	}
}

func TestIDsAreNeverReusedAfterDelete(t *testing.T) {
	c := newHospitalCollection()
	c.Insert(Hospital{Name: "A"})
	b := c.Insert(Hospital{Name: "B"})
	if !c.Delete(b.ID) {
		t.Fatalf("expected delete to succeed")
	}
	next := c.Insert(Hospital{Name: "C"})
	if next.ID != 3 {
		t.Fatalf("expected id 3 after deleting id 2, got %d", next.ID)
	}
}

func TestUpdateAbsentIsNoOp(t *testing.T) {
	c := newHospitalCollection()
	c.Insert(Hospital{Name: "A"})
	_, ok := c.Update(99, func(h Hospital) Hospital { h.Name = "X"; return h })
	if ok {
		t.Fatalf("expected update of absent id to report false")
	}
	if got, _ := c.FindByID(1); got.Name != "A" {
		t.Fatalf("expected collection untouched, got %q", got.Name)
	}
}

func TestUpdateCannotChangeID(t *testing.T) {
	c := newHospitalCollection()
	c.Insert(Hospital{Name: "A"})
	updated, ok := c.Update(1, func(h Hospital) Hospital {
		h.ID = 42
		h.Name = "B"
		return h
	})
	if !ok || updated.ID != 1 || updated.Name != "B" {
		t.Fatalf("expected id pinned to 1, got %+v", updated)
	}
}

func TestDeleteAbsentIsNoOp(t *testing.T) {
	c := newHospitalCollection()
	c.Insert(Hospital{Name: "A"})
	if c.Delete(99) {
		t.Fatalf("expected delete of absent id to report false")
	}
	if c.Len() != 1 {
		t.Fatalf("expected collection untouched, len=%d", c.Len())
	}
}

func TestFilterPreservesInsertionOrder(t *testing.T) {
	c := newHospitalCollection()
	for _, name := range []string{"alpha", "beta", "alpine", "gamma"} {
		c.Insert(Hospital{Name: name})
	}
	got := c.Filter(func(h Hospital) bool { return h.Name[0] == 'a' })
	if len(got) != 2 || got[0].Name != "alpha" || got[1].Name != "alpine" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
}

func TestListReturnsCopy(t *testing.T) {
	c := newHospitalCollection()
	c.Insert(Hospital{Name: "A"})
	list := c.List()
	list[0].Name = "mutated"
	if got, _ := c.FindByID(1); got.Name != "A" {
		t.Fatalf("expected List to return a copy, got %q", got.Name)
	}
}

func TestSeedLoadsDemoData(t *testing.T) {
	s := New()
	s.Seed()
	if s.Hospitals.Len() != 3 {
		t.Fatalf("expected 3 hospitals, got %d", s.Hospitals.Len())
	}
	if s.Documents.Len() != 7 {
		t.Fatalf("expected 7 documents, got %d", s.Documents.Len())
	}
	for _, d := range s.Documents.List() {
		if _, ok := s.Hospitals.FindByID(d.HospitalID); !ok {
			t.Fatalf("document %d references missing hospital %d", d.ID, d.HospitalID)
		}
	}
}

func TestDocumentCategoryValid(t *testing.T) {
	for _, c := range []DocumentCategory{CategoryExam, CategoryConsultation, CategoryPrescription, CategoryReport} {
		if !c.Valid() {
			t.Fatalf("expected %q to be valid", c)
		}
	}
	if DocumentCategory("laudo").Valid() {
		t.Fatalf("expected unknown category to be invalid")
	}
}

func TestInsertIfRejectsConflict(t *testing.T) {
	c := newHospitalCollection()
	c.Insert(Hospital{Name: "A", CNPJ: "11222333000181"})

	existing, ok := c.InsertIf(Hospital{Name: "B", CNPJ: "11222333000181"}, func(h Hospital) bool {
		return h.CNPJ == "11222333000181"
	})
	if ok {
		t.Fatalf("expected conflict, record was inserted")
	}
	if existing.Name != "A" {
		t.Fatalf("expected conflicting record A, got %q", existing.Name)
	}
	if c.Len() != 1 {
		t.Fatalf("expected collection untouched, len=%d", c.Len())
	}

	inserted, ok := c.InsertIf(Hospital{Name: "B", CNPJ: "04252011000110"}, func(h Hospital) bool {
		return h.CNPJ == "04252011000110"
	})
	if !ok || inserted.ID != 2 {
		t.Fatalf("expected insert with id 2, got %+v ok=%v", inserted, ok)
	}
}

func TestUpdateIfSkipsOwnRecord(t *testing.T) {
	c := newHospitalCollection()
	a := c.Insert(Hospital{Name: "A", CNPJ: "11222333000181"})

	updated, found, conflicted := c.UpdateIf(a.ID,
		func(h Hospital) Hospital { h.Name = "A2"; return h },
		func(h Hospital) bool { return h.CNPJ == "11222333000181" },
	)
	if !found || conflicted {
		t.Fatalf("expected own record excluded from conflict, found=%v conflicted=%v", found, conflicted)
	}
	if updated.Name != "A2" {
		t.Fatalf("expected updated record, got %q", updated.Name)
	}
}

func TestUpdateIfReportsConflictWithOtherRecord(t *testing.T) {
	c := newHospitalCollection()
	a := c.Insert(Hospital{Name: "A", CNPJ: "11222333000181"})
	b := c.Insert(Hospital{Name: "B", CNPJ: "04252011000110"})

	conflictWith, found, conflicted := c.UpdateIf(b.ID,
		func(h Hospital) Hospital { h.CNPJ = "11222333000181"; return h },
		func(h Hospital) bool { return h.CNPJ == "11222333000181" },
	)
	if !found || !conflicted {
		t.Fatalf("expected conflict, found=%v conflicted=%v", found, conflicted)
	}
	if conflictWith.ID != a.ID {
		t.Fatalf("expected conflict with record %d, got %d", a.ID, conflictWith.ID)
	}
	current, _ := c.FindByID(b.ID)
	if current.CNPJ != "04252011000110" {
		t.Fatalf("expected record untouched on conflict, got %q", current.CNPJ)
	}
}

func TestUpdateIfAbsentIDIsNotFoundEvenWithConflict(t *testing.T) {
	c := newHospitalCollection()
	c.Insert(Hospital{Name: "A", CNPJ: "11222333000181"})

	_, found, conflicted := c.UpdateIf(99,
		func(h Hospital) Hospital { return h },
		func(h Hospital) bool { return h.CNPJ == "11222333000181" },
	)
	if found || conflicted {
		t.Fatalf("expected not found, found=%v conflicted=%v", found, conflicted)
	}
}

func TestInsertDocumentIfHospitalGuardsReference(t *testing.T) {
	s := New()
	h := s.Hospitals.Insert(Hospital{Name: "A", CNPJ: "11222333000181"})

	doc, ok := s.InsertDocumentIfHospital(Document{HospitalID: h.ID, Category: CategoryExam, Date: "2026-01-15"})
	if !ok || doc.ID == 0 {
		t.Fatalf("expected insert for linked hospital, got %+v ok=%v", doc, ok)
	}

	s.Hospitals.Delete(h.ID)
	if _, ok := s.InsertDocumentIfHospital(Document{HospitalID: h.ID, Category: CategoryExam, Date: "2026-01-15"}); ok {
		t.Fatalf("expected insert rejected after hospital delete")
	}
	if s.Documents.Len() != 1 {
		t.Fatalf("expected one document, got %d", s.Documents.Len())
	}
}

func TestUpdateDocumentIfHospitalReportsMissingLink(t *testing.T) {
	s := New()
	h := s.Hospitals.Insert(Hospital{Name: "A", CNPJ: "11222333000181"})
	doc := s.Documents.Insert(Document{HospitalID: h.ID, Category: CategoryExam, Date: "2026-01-15"})

	updated, found, linked := s.UpdateDocumentIfHospital(doc.ID, Document{HospitalID: h.ID, Category: CategoryReport, Date: "2026-01-16"})
	if !found || !linked || updated.Category != CategoryReport {
		t.Fatalf("expected update, got %+v found=%v linked=%v", updated, found, linked)
	}

	s.Hospitals.Delete(h.ID)
	if _, _, linked := s.UpdateDocumentIfHospital(doc.ID, Document{HospitalID: h.ID, Category: CategoryExam, Date: "2026-01-15"}); linked {
		t.Fatalf("expected link check to fail after hospital delete")
	}
}
