package service

// Inputs are flat field-name to raw-string mappings as submitted by the
// caller; the validation pipeline owns every constraint so that each
// failure names the offending field.

type HospitalInput struct {
	Name    string `json:"name" form:"name"`
	CNPJ    string `json:"cnpj" form:"cnpj"`
	Phone   string `json:"phone" form:"phone"`
	Address string `json:"address" form:"address"`
}

type DocumentInput struct {
	HospitalID  string `form:"hospital_id"`
	Category    string `form:"category"`
	Date        string `form:"date"`
	Description string `form:"description"`
}

// AttachmentInput is the metadata of a selected file; the content itself is
// never stored.
type AttachmentInput struct {
	FileName    string
	ContentType string
	Size        int64
}

type DocumentFilter struct {
	Category   string
	HospitalID string
	Query      string
}

type SignupInput struct {
	FullName        string `json:"full_name"`
	CPF             string `json:"cpf"`
	BirthDate       string `json:"birth_date"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Gender          string `json:"gender"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Outputs carry CNPJ and phone re-masked for display; the store keeps the
// normalized digit sequences.

type HospitalOutput struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	CNPJ    string `json:"cnpj"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type DocumentOutput struct {
	ID           int64  `json:"id"`
	HospitalID   int64  `json:"hospital_id"`
	HospitalName string `json:"hospital_name"`
	Category     string `json:"category"`
	Date         string `json:"date"`
	Description  string `json:"description,omitempty"`
	FileName     string `json:"file_name"`
	FileExt      string `json:"file_ext"`
}

// DeleteHospitalOutput reports how many documents still reference the
// removed hospital. They are kept, not cascaded.
type DeleteHospitalOutput struct {
	OrphanedDocuments int `json:"orphaned_documents"`
}

type SignupOutput struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type LoginOutput struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Email       string `json:"email"`
}

type DashboardOutput struct {
	Greeting   string         `json:"greeting"`
	Hospitals  int            `json:"hospitals"`
	Documents  int            `json:"documents"`
	ByCategory map[string]int `json:"by_category"`
}
