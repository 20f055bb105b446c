package domain

import "time"

// RegistrationStatus represents the agent's position in the onboarding workflow.
type RegistrationStatus string

const (
	StatusProfilePending   RegistrationStatus = "profile_pending"
	StatusBioPending       RegistrationStatus = "bio_pending"
	StatusKycPending       RegistrationStatus = "kyc_pending"
	StatusAwaitingApproval RegistrationStatus = "awaiting_approval"
	StatusApproved         RegistrationStatus = "approved"
	StatusRejected         RegistrationStatus = "rejected"
)

// KycStatus is the agent-level aggregate verification outcome, mirroring the
// status of the latest KYC record.
type KycStatus string

const (
	KycPending  KycStatus = "PENDING"
	KycVerified KycStatus = "VERIFIED"
	KycRejected KycStatus = "REJECTED"
)

// DocumentRef points at an uploaded document in the object store.
type DocumentRef struct {
	Key  string `json:"key" bson:"key"`
	URL  string `json:"url" bson:"url"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`
}

// KycRecord holds one identity + banking submission. Records accumulate over
// time; the one with the most recent CreatedAt is the active ("latest") record.
type KycRecord struct {
	ID                string        `json:"id" bson:"id"`
	IDType            string        `json:"id_type,omitempty" bson:"id_type,omitempty"`
	IDNumber          string        `json:"id_number,omitempty" bson:"id_number,omitempty"`
	IDDocument        string        `json:"id_document,omitempty" bson:"id_document,omitempty"`
	ProfessionalCert  string        `json:"professional_cert,omitempty" bson:"professional_cert,omitempty"`
	BankName          string        `json:"bank_name,omitempty" bson:"bank_name,omitempty"`
	AccountNumber     string        `json:"account_number,omitempty" bson:"account_number,omitempty"`
	AccountHolderName string        `json:"account_holder_name,omitempty" bson:"account_holder_name,omitempty"`
	Documents         []DocumentRef `json:"documents,omitempty" bson:"documents,omitempty"`
	Status            KycStatus     `json:"status" bson:"status"`
	CreatedAt         time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" bson:"updated_at"`
}

// DocumentRefs builds the verification payload from the record's id document
// and professional certificate URLs plus any incrementally attached documents.
func (k *KycRecord) DocumentRefs() []DocumentRef {
	var refs []DocumentRef
	if k.IDDocument != "" {
		refs = append(refs, DocumentRef{Key: "idDocument", URL: k.IDDocument, Name: "ID Document"})
	}
	if k.ProfessionalCert != "" {
		refs = append(refs, DocumentRef{Key: "professionalCert", URL: k.ProfessionalCert, Name: "Professional Certificate"})
	}
	for _, d := range k.Documents {
		name := d.Name
		if name == "" {
			name = d.Key
		}
		refs = append(refs, DocumentRef{Key: d.Key, URL: d.URL, Name: name})
	}
	return refs
}

// Bio is the free-text biography submitted in step 2.
type Bio struct {
	Text      string    `json:"bio" bson:"bio"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Agent is the aggregate root for the registration workflow. Profile, Bio and
// KYC records are embedded so multi-entity writes commit atomically.
type Agent struct {
	ID                 string             `json:"id" bson:"_id,omitempty"`
	UserID             string             `json:"user_id" bson:"user_id"`
	RegistrationStatus RegistrationStatus `json:"registration_status" bson:"registration_status"`
	KycStatus          KycStatus          `json:"kyc_status" bson:"kyc_status"`
	IsApprovedByAdmin  bool               `json:"is_approved_by_admin" bson:"is_approved_by_admin"`
	ApprovedAt         *time.Time         `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	RejectionReason    string             `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	BusinessName       string             `json:"business_name,omitempty" bson:"business_name,omitempty"`
	Profile            *Profile           `json:"profile,omitempty" bson:"profile,omitempty"`
	Bio                *Bio               `json:"bio_record,omitempty" bson:"bio_record,omitempty"`
	KycRecords         []KycRecord        `json:"kyc_records,omitempty" bson:"kyc_records,omitempty"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
	DeletedAt          *time.Time         `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// LatestKyc returns a pointer into KycRecords for the record with the most
// recent CreatedAt, or nil when none exist. Ties on CreatedAt are broken by
// position: the later element wins (insertion order).
func (a *Agent) LatestKyc() *KycRecord {
	if len(a.KycRecords) == 0 {
		return nil
	}
	latest := 0
	for i := 1; i < len(a.KycRecords); i++ {
		if !a.KycRecords[i].CreatedAt.Before(a.KycRecords[latest].CreatedAt) {
			latest = i
		}
	}
	return &a.KycRecords[latest]
}
