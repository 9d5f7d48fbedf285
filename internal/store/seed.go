package store

// Seed loads the demo dataset. CNPJs are normalized digit sequences with
// valid check digits.
func (s *Store) Seed() {
	s.Hospitals.Insert(Hospital{Name: "Hospital São Lucas", CNPJ: "11222333000181", Phone: "1134567890", Address: "Av. Paulista, 1000 - São Paulo"})
	s.Hospitals.Insert(Hospital{Name: "Clínica Santa Maria", CNPJ: "04252011000110", Phone: "1123456789", Address: "Rua Augusta, 500 - São Paulo"})
	s.Hospitals.Insert(Hospital{Name: "Lab Central", CNPJ: "11222333000262", Phone: "1198765432", Address: "Rua Oscar Freire, 200 - São Paulo"})

	s.Documents.Insert(Document{HospitalID: 1, Category: CategoryExam, Date: "2026-02-27", Description: "Hemograma completo", FileName: "hemograma.pdf", FileExt: "pdf"})
	s.Documents.Insert(Document{HospitalID: 2, Category: CategoryConsultation, Date: "2026-02-25", Description: "Consulta cardiológica - acompanhamento", FileName: "consulta_cardio.jpg", FileExt: "jpg"})
	s.Documents.Insert(Document{HospitalID: 1, Category: CategoryPrescription, Date: "2026-02-20", Description: "Receita - Losartana 50mg", FileName: "receita_losartana.pdf", FileExt: "pdf"})
	s.Documents.Insert(Document{HospitalID: 3, Category: CategoryReport, Date: "2026-02-15", Description: "Laudo de ressonância magnética", FileName: "laudo_rm.pdf", FileExt: "pdf"})
	s.Documents.Insert(Document{HospitalID: 2, Category: CategoryExam, Date: "2026-02-10", Description: "Eletrocardiograma", FileName: "ecg.png", FileExt: "png"})
	s.Documents.Insert(Document{HospitalID: 1, Category: CategoryConsultation, Date: "2026-01-28", Description: "Retorno clínico geral", FileName: "retorno_clinico.pdf", FileExt: "pdf"})
	s.Documents.Insert(Document{HospitalID: 3, Category: CategoryExam, Date: "2026-01-15", Description: "Glicemia em jejum", FileName: "glicemia.pdf", FileExt: "pdf"})
}
