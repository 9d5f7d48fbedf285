package store

// Hospital is an organization record (hospital, clinic or lab). CNPJ is
// stored as its normalized 14-digit form; formatting happens on output.
type Hospital struct {
	ID      int64
	Name    string
	CNPJ    string
	Phone   string
	Address string
}

// DocumentCategory is the fixed set of document kinds.
type DocumentCategory string

const (
	CategoryExam         DocumentCategory = "exam"
	CategoryConsultation DocumentCategory = "consultation"
	CategoryPrescription DocumentCategory = "prescription"
	CategoryReport       DocumentCategory = "report"
)

func (c DocumentCategory) Valid() bool {
	switch c {
	case CategoryExam, CategoryConsultation, CategoryPrescription, CategoryReport:
		return true
	}
	return false
}

// Document references its owning hospital by identifier. The reference is
// checked at save time only; deleting a hospital leaves its documents in
// place (the orphan count is surfaced to the caller instead).
type Document struct {
	ID          int64
	HospitalID  int64
	Category    DocumentCategory
	Date        string // YYYY-MM-DD
	Description string
	FileName    string
	FileExt     string
}

// User is an in-memory account created by signup or bootstrap.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
}
