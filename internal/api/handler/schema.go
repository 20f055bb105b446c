package handler

// --- Request types ---
//
// Field names mirror the public API contract (camelCase), while validation is
// split: structural checks live here, business rules (title list, license
// requirement, bio bounds) are enforced by the registration service.

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"  validate:"required,len=6"`
}

type makeAdminRequest struct {
	Role string `json:"role"`
}

type profileRequest struct {
	YearsOfExperience int      `json:"yearsOfExperience" validate:"min=0,max=70"`
	PreferredTitle    string   `json:"preferredTitle"    validate:"required"`
	LicenseNumber     string   `json:"licenseNumber"`
	Specialization    []string `json:"specialization"    validate:"required,min=1"`
	PortfolioLink     string   `json:"portfolioLink"`
	ProfilePicture    string   `json:"profilePicture"`
	PhoneNumber       string   `json:"phoneNumber"`
}

type bioRequest struct {
	Bio string `json:"bio" validate:"required,min=10,max=2000"`
}

type kycRequest struct {
	IDType              string `json:"idType"            validate:"required"`
	IDNumber            string `json:"idNumber"          validate:"required"`
	BankName            string `json:"bankName"          validate:"required"`
	AccountNumber       string `json:"accountNumber"     validate:"required"`
	AccountHolderName   string `json:"accountHolderName" validate:"required"`
	IDDocumentURL       string `json:"idDocumentUrl"`
	ProfessionalCertURL string `json:"professionalCertUrl"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type kycStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING VERIFIED REJECTED"`
}

type addKycDocumentRequest struct {
	Key  string `json:"key"  validate:"required"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// --- Response types ---

type messageResponse struct {
	Message string `json:"message"`
}
