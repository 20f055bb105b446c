package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
	"github.com/mejarc/agent-onboarding/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubAgentRepo struct {
	byID      map[string]*domain.Agent
	nextID    int
	createErr error
	updateErr error
	updates   int
	deleted   map[string]time.Time
}

func newStubAgentRepo() *stubAgentRepo {
	return &stubAgentRepo{
		byID:    make(map[string]*domain.Agent),
		deleted: make(map[string]time.Time),
	}
}

func (r *stubAgentRepo) Create(_ context.Context, a *domain.Agent) error {
	if r.createErr != nil {
		return r.createErr
	}
	// Enforce the unique user_id index the real Mongo repo relies on.
	for _, existing := range r.byID {
		if existing.UserID == a.UserID {
			return domain.ErrAgentExists
		}
	}
	r.nextID++
	a.ID = fmt.Sprintf("agent-%d", r.nextID)
	clone := *a
	r.byID[a.ID] = &clone
	return nil
}

func (r *stubAgentRepo) FindByID(_ context.Context, id string) (*domain.Agent, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	clone := *a
	clone.KycRecords = append([]domain.KycRecord(nil), a.KycRecords...)
	return &clone, nil
}

func (r *stubAgentRepo) FindByUserID(_ context.Context, userID string) (*domain.Agent, error) {
	for _, a := range r.byID {
		if a.UserID == userID {
			clone := *a
			clone.KycRecords = append([]domain.KycRecord(nil), a.KycRecords...)
			return &clone, nil
		}
	}
	return nil, domain.ErrAgentNotFound
}

func (r *stubAgentRepo) Update(_ context.Context, a *domain.Agent) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byID[a.ID]; !ok {
		return domain.ErrAgentNotFound
	}
	r.updates++
	clone := *a
	clone.KycRecords = append([]domain.KycRecord(nil), a.KycRecords...)
	r.byID[a.ID] = &clone
	return nil
}

func (r *stubAgentRepo) SoftDelete(_ context.Context, id string, at time.Time) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrAgentNotFound
	}
	r.deleted[id] = at
	return nil
}

func (r *stubAgentRepo) List(_ context.Context, f ports.ListAgentsFilter) ([]*domain.Agent, int64, error) {
	var matched []*domain.Agent
	for _, a := range r.byID {
		if f.Status != "" && string(a.RegistrationStatus) != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(a.UserID), strings.ToLower(f.Search)) {
			continue
		}
		clone := *a
		matched = append(matched, &clone)
	}
	return matched, int64(len(matched)), nil
}

type stubIdentity struct {
	users   map[string]*domain.User
	saved   []*domain.User
	saveErr error
}

func newStubIdentity(users ...*domain.User) *stubIdentity {
	s := &stubIdentity{users: make(map[string]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubIdentity) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	return s.users[id], nil
}

func (s *stubIdentity) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *stubIdentity) SaveUser(_ context.Context, u *domain.User) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	clone := *u
	s.saved = append(s.saved, &clone)
	s.users[u.ID] = u
	return nil
}

type stubAdmins struct {
	admins []*domain.Admin
}

func (s *stubAdmins) ListAdmins(_ context.Context) ([]*domain.Admin, error) {
	return s.admins, nil
}

func (s *stubAdmins) FindAdminByUserID(_ context.Context, userID string) (*domain.Admin, error) {
	for _, a := range s.admins {
		if a.UserID == userID {
			return a, nil
		}
	}
	return nil, nil
}

func (s *stubAdmins) CreateAdmin(_ context.Context, a *domain.Admin) error {
	s.admins = append(s.admins, a)
	return nil
}

type stubDocs struct {
	url     string
	err     error
	uploads []string // key prefixes, in call order
}

func (s *stubDocs) Upload(_ context.Context, keyPrefix string, _ ports.FileUpload) (string, error) {
	s.uploads = append(s.uploads, keyPrefix)
	if s.err != nil {
		return "", s.err
	}
	if s.url == "" {
		return "http://files.local/" + keyPrefix + "/doc", nil
	}
	return s.url, nil
}

type stubVerifier struct {
	result ports.VerificationResult
	err    error
	calls  int
	docs   []domain.DocumentRef
}

func (s *stubVerifier) VerifyDocuments(_ context.Context, docs []domain.DocumentRef) (ports.VerificationResult, error) {
	s.calls++
	s.docs = docs
	return s.result, s.err
}

type stubNotifier struct {
	submissions int
	kycUploads  int
	approvals   int
	rejections  int
	otps        int
	err         error
}

func (s *stubNotifier) SendKycUploadedNotification(context.Context, *domain.User, *domain.Agent) error {
	s.kycUploads++
	return s.err
}

func (s *stubNotifier) SendAgentRegistrationSubmittedNotification(context.Context, *domain.User, *domain.Agent) error {
	s.submissions++
	return s.err
}

func (s *stubNotifier) SendAgentApprovalNotification(context.Context, *domain.User, *domain.Agent, bool) error {
	s.approvals++
	return s.err
}

func (s *stubNotifier) SendAgentRejectionNotification(context.Context, *domain.User, *domain.Agent, string) error {
	s.rejections++
	return s.err
}

func (s *stubNotifier) SendLoginVerificationEmail(context.Context, string, string, string) error {
	s.otps++
	return s.err
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	svc      *RegistrationService
	agents   *stubAgentRepo
	identity *stubIdentity
	admins   *stubAdmins
	docs     *stubDocs
	verifier *stubVerifier
	notifier *stubNotifier
}

func newFixture() *fixture {
	f := &fixture{
		agents: newStubAgentRepo(),
		identity: newStubIdentity(
			&domain.User{ID: "user-1", Email: "agent@mejarc.dev", FirstName: "Ada"},
			&domain.User{ID: "user-admin", Email: "admin@mejarc.dev", FirstName: "Root"},
		),
		admins: &stubAdmins{admins: []*domain.Admin{{
			ID:       "admin-1",
			UserID:   "user-admin",
			IsAdmin:  true,
			IsActive: true,
			User:     &domain.User{ID: "user-admin", Email: "admin@mejarc.dev"},
		}}},
		docs:     &stubDocs{},
		verifier: &stubVerifier{result: ports.VerificationResult{Success: true, ProviderID: "prov-1"}},
		notifier: &stubNotifier{},
	}
	f.svc = NewRegistrationService(f.agents, f.identity, f.admins, f.docs, f.verifier, f.notifier, zerolog.Nop())
	return f
}

func validProfile() ports.ProfileInput {
	return ports.ProfileInput{
		YearsOfExperience: 5,
		PreferredTitle:    string(domain.TitleBIMModeller),
		Specialization:    []string{"residential"},
		PhoneNumber:       "+2348000000000",
	}
}

func validKyc() ports.KycInput {
	return ports.KycInput{
		IDType:              "nin",
		IDNumber:            "12345678901",
		BankName:            "GTB",
		AccountNumber:       "0123456789",
		AccountHolderName:   "Ada Lovelace",
		IDDocumentURL:       "http://files.local/id.pdf",
		ProfessionalCertURL: "http://files.local/cert.pdf",
	}
}

// initialized returns a fixture with an agent already created for user-1.
func (f *fixture) initialized(t *testing.T) *domain.Agent {
	t.Helper()
	agent, err := f.svc.Initialize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return agent
}

func (f *fixture) mustGet(t *testing.T, id string) *domain.Agent {
	t.Helper()
	agent, err := f.agents.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID(%s): %v", id, err)
	}
	return agent
}

// ---------------------------------------------------------------------------
// Initialize
// ---------------------------------------------------------------------------

func TestInitializeCreatesProfilePendingAgent(t *testing.T) {
	f := newFixture()

	agent := f.initialized(t)

	if agent.ID == "" {
		t.Fatal("expected agent id to be assigned")
	}
	if agent.RegistrationStatus != domain.StatusProfilePending {
		t.Errorf("status = %s, want %s", agent.RegistrationStatus, domain.StatusProfilePending)
	}
	if agent.KycStatus != domain.KycPending {
		t.Errorf("kyc status = %s, want %s", agent.KycStatus, domain.KycPending)
	}
}

func TestInitializeUnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Initialize(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestInitializeDuplicateIsConflict(t *testing.T) {
	f := newFixture()
	f.initialized(t)

	_, err := f.svc.Initialize(context.Background(), "user-1")
	if !errors.Is(err, domain.ErrAgentExists) {
		t.Fatalf("err = %v, want ErrAgentExists", err)
	}
}

// A lost pre-check race still resolves to a conflict via the repository's
// uniqueness guarantee.
func TestInitializeRaceResolvedByRepository(t *testing.T) {
	f := newFixture()
	f.initialized(t)

	// Simulate the pre-check missing the concurrent insert.
	f.agents.byID = map[string]*domain.Agent{}
	f.agents.createErr = domain.ErrAgentExists

	_, err := f.svc.Initialize(context.Background(), "user-1")
	if !errors.Is(err, domain.ErrAgentExists) {
		t.Fatalf("err = %v, want ErrAgentExists", err)
	}
}

// ---------------------------------------------------------------------------
// SubmitProfile
// ---------------------------------------------------------------------------

func TestSubmitProfileAdvancesToBioPending(t *testing.T) {
	f := newFixture()
	f.initialized(t)

	agent, err := f.svc.SubmitProfile(context.Background(), "user-1", validProfile(), nil)
	if err != nil {
		t.Fatalf("SubmitProfile: %v", err)
	}

	if agent.RegistrationStatus != domain.StatusBioPending {
		t.Errorf("status = %s, want %s", agent.RegistrationStatus, domain.StatusBioPending)
	}
	if agent.Profile == nil || agent.Profile.PreferredTitle != domain.TitleBIMModeller {
		t.Errorf("profile not stored: %+v", agent.Profile)
	}
}

func TestSubmitProfileMirrorsPhoneOntoUser(t *testing.T) {
	f := newFixture()
	f.initialized(t)

	if _, err := f.svc.SubmitProfile(context.Background(), "user-1", validProfile(), nil); err != nil {
		t.Fatalf("SubmitProfile: %v", err)
	}

	if got := f.identity.users["user-1"].PhoneNumber; got != "+2348000000000" {
		t.Errorf("user phone = %q, want mirror of profile phone", got)
	}
}

func TestSubmitProfileMissingFields(t *testing.T) {
	f := newFixture()
	f.initialized(t)

	in := validProfile()
	in.Specialization = nil

	_, err := f.svc.SubmitProfile(context.Background(), "user-1", in, nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSubmitProfileLicenseRule(t *testing.T) {
	cases := []struct {
		name    string
		title   domain.ProfessionalTitle
		license string
		wantErr bool
	}{
		{"architect without license", domain.TitleArchitect, "", true},
		{"architect with license", domain.TitleArchitect, "ARC-001", false},
		{"structural engineer without license", domain.TitleStructuralEngineer, "", true},
		{"bim modeller without license", domain.TitleBIMModeller, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.initialized(t)

			in := validProfile()
			in.PreferredTitle = string(tc.title)
			in.LicenseNumber = tc.license

			_, err := f.svc.SubmitProfile(context.Background(), "user-1", in, nil)
			if tc.wantErr && !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

func TestSubmitProfileYearsOutOfRange(t *testing.T) {
	f := newFixture()
	f.initialized(t)

	in := validProfile()
	in.YearsOfExperience = 71

	_, err := f.svc.SubmitProfile(context.Background(), "user-1", in, nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSubmitProfilePictureUploadFailure(t *testing.T) {
	f := newFixture()
	f.initialized(t)
	f.docs.err = errors.New("bucket down")

	picture := &ports.FileUpload{Filename: "me.png", Body: strings.NewReader("png")}
	_, err := f.svc.SubmitProfile(context.Background(), "user-1", validProfile(), picture)
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
}

func TestSubmitProfilePictureUploaded(t *testing.T) {
	f := newFixture()
	f.initialized(t)

	picture := &ports.FileUpload{Filename: "me.png", Body: strings.NewReader("png")}
	agent, err := f.svc.SubmitProfile(context.Background(), "user-1", validProfile(), picture)
	if err != nil {
		t.Fatalf("SubmitProfile: %v", err)
	}

	if len(f.docs.uploads) != 1 || f.docs.uploads[0] != "agent-profile-pics" {
		t.Errorf("uploads = %v, want one agent-profile-pics upload", f.docs.uploads)
	}
	if agent.Profile.ProfilePicture == "" {
		t.Error("expected stored picture url")
	}
}

// ---------------------------------------------------------------------------
// SubmitBio
// ---------------------------------------------------------------------------

func TestSubmitBioAdvancesToKycPending(t *testing.T) {
	f := newFixture()
	agent := f.initialized(t)

	updated, err := f.svc.SubmitBio(context.Background(), agent.ID, "A decade of structural design work.")
	if err != nil {
		t.Fatalf("SubmitBio: %v", err)
	}
	if updated.RegistrationStatus != domain.StatusKycPending {
		t.Errorf("status = %s, want %s", updated.RegistrationStatus, domain.StatusKycPending)
	}
	if updated.Bio == nil || updated.Bio.Text == "" {
		t.Error("bio not stored")
	}
}

func TestSubmitBioLengthBounds(t *testing.T) {
	f := newFixture()
	agent := f.initialized(t)

	if _, err := f.svc.SubmitBio(context.Background(), agent.ID, "too short"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("short bio err = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.SubmitBio(context.Background(), agent.ID, strings.Repeat("x", 2001)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("long bio err = %v, want ErrInvalidInput", err)
	}
}

func TestSubmitBioApprovedAgentImmutable(t *testing.T) {
	f := newFixture()
	agent := f.initialized(t)
	if _, err := f.svc.ApproveAgent(context.Background(), agent.ID, "admin-1"); err != nil {
		t.Fatalf("ApproveAgent: %v", err)
	}

	_, err := f.svc.SubmitBio(context.Background(), agent.ID, "Attempting to edit after approval.")
	if !errors.Is(err, domain.ErrAgentApproved) {
		t.Fatalf("err = %v, want ErrAgentApproved", err)
	}

	stored := f.mustGet(t, agent.ID)
	if stored.RegistrationStatus != domain.StatusApproved {
		t.Errorf("status changed to %s, want %s", stored.RegistrationStatus, domain.StatusApproved)
	}
	if stored.Bio != nil {
		t.Error("bio stored despite approved guard")
	}
}

// ---------------------------------------------------------------------------
// SubmitKyc
// ---------------------------------------------------------------------------

func (f *fixture) readyForKyc(t *testing.T) *domain.Agent {
	t.Helper()
	agent := f.initialized(t)
	if _, err := f.svc.SubmitProfile(context.Background(), "user-1", validProfile(), nil); err != nil {
		t.Fatalf("SubmitProfile: %v", err)
	}
	if _, err := f.svc.SubmitBio(context.Background(), agent.ID, "A decade of structural design work."); err != nil {
		t.Fatalf("SubmitBio: %v", err)
	}
	return agent
}

func TestSubmitKycSuccessVerifiesAgent(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)

	updated, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{})
	if err != nil {
		t.Fatalf("SubmitKyc: %v", err)
	}
	if updated.RegistrationStatus != domain.StatusAwaitingApproval {
		t.Errorf("status = %s, want %s", updated.RegistrationStatus, domain.StatusAwaitingApproval)
	}

	stored := f.mustGet(t, agent.ID)
	record := stored.LatestKyc()
	if record == nil {
		t.Fatal("no kyc record stored")
	}
	if record.Status != domain.KycVerified || stored.KycStatus != domain.KycVerified {
		t.Errorf("kyc = record %s / agent %s, want VERIFIED on both", record.Status, stored.KycStatus)
	}
	if f.verifier.calls != 1 {
		t.Errorf("verifier calls = %d, want 1", f.verifier.calls)
	}
	if f.notifier.submissions != 1 {
		t.Errorf("submission notifications = %d, want 1", f.notifier.submissions)
	}
	if f.notifier.kycUploads != 1 {
		t.Errorf("admin kyc notifications = %d, want 1", f.notifier.kycUploads)
	}
}

func TestSubmitKycSendsBothDocumentsToProvider(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)

	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{}); err != nil {
		t.Fatalf("SubmitKyc: %v", err)
	}

	if len(f.verifier.docs) != 2 {
		t.Fatalf("provider received %d documents, want 2", len(f.verifier.docs))
	}
	if f.verifier.docs[0].Name != "ID Document" || f.verifier.docs[1].Name != "Professional Certificate" {
		t.Errorf("document names = %q, %q", f.verifier.docs[0].Name, f.verifier.docs[1].Name)
	}
}

func TestSubmitKycUpdatesLatestRecordInPlace(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)

	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{}); err != nil {
		t.Fatalf("first SubmitKyc: %v", err)
	}

	second := validKyc()
	second.IDNumber = "99999999999"
	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, second, ports.KycFiles{}); err != nil {
		t.Fatalf("second SubmitKyc: %v", err)
	}

	stored := f.mustGet(t, agent.ID)
	if len(stored.KycRecords) != 1 {
		t.Fatalf("history length = %d, want 1 (update, not append)", len(stored.KycRecords))
	}
	if stored.KycRecords[0].IDNumber != "99999999999" {
		t.Errorf("id number = %s, want the resubmitted value", stored.KycRecords[0].IDNumber)
	}
}

func TestSubmitKycResetsIncrementalDocuments(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)

	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{}); err != nil {
		t.Fatalf("SubmitKyc: %v", err)
	}
	if _, err := f.svc.AddKycDocument(context.Background(), agent.ID, domain.DocumentRef{Key: "extra", URL: "http://files.local/extra"}); err != nil {
		t.Fatalf("AddKycDocument: %v", err)
	}
	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{}); err != nil {
		t.Fatalf("resubmit SubmitKyc: %v", err)
	}

	stored := f.mustGet(t, agent.ID)
	if docs := stored.LatestKyc().Documents; len(docs) != 0 {
		t.Errorf("incremental documents = %d, want reset to 0 on full resubmission", len(docs))
	}
}

func TestSubmitKycProviderDeclineLeavesPending(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)
	f.verifier.result = ports.VerificationResult{Success: false, Notes: "mismatch"}

	updated, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{})
	if err != nil {
		t.Fatalf("SubmitKyc: %v", err)
	}
	if updated.RegistrationStatus != domain.StatusAwaitingApproval {
		t.Errorf("status = %s, want awaiting_approval despite decline", updated.RegistrationStatus)
	}

	stored := f.mustGet(t, agent.ID)
	if stored.KycStatus != domain.KycPending || stored.LatestKyc().Status != domain.KycPending {
		t.Errorf("kyc = agent %s / record %s, want PENDING for manual review", stored.KycStatus, stored.LatestKyc().Status)
	}
}

func TestSubmitKycProviderErrorDoesNotFailCall(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)
	f.verifier.err = errors.New("provider timeout")

	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{}); err != nil {
		t.Fatalf("SubmitKyc: %v", err)
	}

	stored := f.mustGet(t, agent.ID)
	if stored.KycStatus != domain.KycPending {
		t.Errorf("kyc status = %s, want PENDING after provider error", stored.KycStatus)
	}
}

func TestSubmitKycNotifierFailureDoesNotFailCall(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)
	f.notifier.err = errors.New("smtp down")

	updated, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{})
	if err != nil {
		t.Fatalf("SubmitKyc: %v", err)
	}
	if updated.RegistrationStatus != domain.StatusAwaitingApproval {
		t.Errorf("status = %s, want awaiting_approval", updated.RegistrationStatus)
	}
}

func TestSubmitKycValidation(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)

	missingID := validKyc()
	missingID.IDNumber = ""
	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, missingID, ports.KycFiles{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing id err = %v, want ErrInvalidInput", err)
	}

	missingBank := validKyc()
	missingBank.AccountNumber = ""
	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, missingBank, ports.KycFiles{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing bank err = %v, want ErrInvalidInput", err)
	}
}

func TestSubmitKycApprovedGuard(t *testing.T) {
	f := newFixture()
	agent := f.initialized(t)
	if _, err := f.svc.ApproveAgent(context.Background(), agent.ID, "admin-1"); err != nil {
		t.Fatalf("ApproveAgent: %v", err)
	}

	_, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{})
	if !errors.Is(err, domain.ErrAgentApproved) {
		t.Fatalf("err = %v, want ErrAgentApproved", err)
	}
}

func TestSubmitKycUploadFailure(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)
	f.docs.err = errors.New("bucket down")

	files := ports.KycFiles{IDDocument: &ports.FileUpload{Filename: "id.pdf", Body: strings.NewReader("pdf")}}
	_, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), files)
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
}

// ---------------------------------------------------------------------------
// Moderation
// ---------------------------------------------------------------------------

func TestApproveAgentFromAnyState(t *testing.T) {
	for _, status := range []domain.RegistrationStatus{
		domain.StatusProfilePending,
		domain.StatusKycPending,
		domain.StatusRejected,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			agent := f.initialized(t)
			stored := f.mustGet(t, agent.ID)
			stored.RegistrationStatus = status
			f.agents.byID[agent.ID] = stored

			approved, err := f.svc.ApproveAgent(context.Background(), agent.ID, "admin-1")
			if err != nil {
				t.Fatalf("ApproveAgent: %v", err)
			}
			if approved.RegistrationStatus != domain.StatusApproved || !approved.IsApprovedByAdmin {
				t.Errorf("agent not approved: %+v", approved)
			}
			if approved.KycStatus != domain.KycVerified {
				t.Errorf("kyc status = %s, want VERIFIED on approval", approved.KycStatus)
			}
			if approved.ApprovedAt == nil {
				t.Error("approved_at not set")
			}
			if f.notifier.approvals != 1 {
				t.Errorf("approval notifications = %d, want 1", f.notifier.approvals)
			}
		})
	}
}

func TestRejectAgentStoresReason(t *testing.T) {
	f := newFixture()
	agent := f.initialized(t)

	rejected, err := f.svc.RejectAgent(context.Background(), agent.ID, "admin-1", "blurry id document")
	if err != nil {
		t.Fatalf("RejectAgent: %v", err)
	}
	if rejected.RegistrationStatus != domain.StatusRejected {
		t.Errorf("status = %s, want rejected", rejected.RegistrationStatus)
	}
	if rejected.RejectionReason != "blurry id document" {
		t.Errorf("reason = %q", rejected.RejectionReason)
	}
	if f.notifier.rejections != 1 {
		t.Errorf("rejection notifications = %d, want 1", f.notifier.rejections)
	}
}

func TestRejectedAgentMayResubmit(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)
	if _, err := f.svc.RejectAgent(context.Background(), agent.ID, "admin-1", "incomplete"); err != nil {
		t.Fatalf("RejectAgent: %v", err)
	}

	updated, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{})
	if err != nil {
		t.Fatalf("SubmitKyc after rejection: %v", err)
	}
	if updated.RegistrationStatus != domain.StatusAwaitingApproval {
		t.Errorf("status = %s, want awaiting_approval", updated.RegistrationStatus)
	}
}

// ---------------------------------------------------------------------------
// AddKycDocument / SetKycStatus
// ---------------------------------------------------------------------------

func TestAddKycDocumentAppendsAndReverifies(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)
	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{}); err != nil {
		t.Fatalf("SubmitKyc: %v", err)
	}
	verifierCallsBefore := f.verifier.calls
	adminNotifsBefore := f.notifier.kycUploads

	updated, err := f.svc.AddKycDocument(context.Background(), agent.ID, domain.DocumentRef{
		Key: "utilityBill", URL: "http://files.local/bill.pdf", Name: "Utility Bill",
	})
	if err != nil {
		t.Fatalf("AddKycDocument: %v", err)
	}

	stored := f.mustGet(t, updated.ID)
	if docs := stored.LatestKyc().Documents; len(docs) != 1 || docs[0].Key != "utilityBill" {
		t.Errorf("documents = %+v, want the appended descriptor", docs)
	}
	if f.verifier.calls != verifierCallsBefore+1 {
		t.Errorf("verifier calls = %d, want re-verification", f.verifier.calls)
	}
	if f.notifier.kycUploads != adminNotifsBefore+1 {
		t.Errorf("admin notifications = %d, want another fan-out", f.notifier.kycUploads)
	}
}

// The incremental document path is strict: an explicit provider decline marks
// the record and the agent rejected rather than leaving them pending.
func TestAddKycDocumentProviderDeclineRejects(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)
	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{}); err != nil {
		t.Fatalf("SubmitKyc: %v", err)
	}
	f.verifier.result = ports.VerificationResult{Success: false, Notes: "forged"}

	if _, err := f.svc.AddKycDocument(context.Background(), agent.ID, domain.DocumentRef{
		Key: "utilityBill", URL: "http://files.local/bill.pdf",
	}); err != nil {
		t.Fatalf("AddKycDocument: %v", err)
	}

	stored := f.mustGet(t, agent.ID)
	if stored.KycStatus != domain.KycRejected || stored.LatestKyc().Status != domain.KycRejected {
		t.Errorf("kyc = agent %s / record %s, want REJECTED on both", stored.KycStatus, stored.LatestKyc().Status)
	}
}

func TestAddKycDocumentCreatesRecordWhenNoneExists(t *testing.T) {
	f := newFixture()
	agent := f.initialized(t)

	updated, err := f.svc.AddKycDocument(context.Background(), agent.ID, domain.DocumentRef{
		Key: "idDocument", URL: "http://files.local/id.pdf",
	})
	if err != nil {
		t.Fatalf("AddKycDocument: %v", err)
	}
	if len(updated.KycRecords) != 1 {
		t.Fatalf("records = %d, want a fresh one", len(updated.KycRecords))
	}
}

func TestSetKycStatusOverridesLatestRecord(t *testing.T) {
	f := newFixture()
	agent := f.readyForKyc(t)
	if _, err := f.svc.SubmitKyc(context.Background(), agent.ID, validKyc(), ports.KycFiles{}); err != nil {
		t.Fatalf("SubmitKyc: %v", err)
	}

	updated, err := f.svc.SetKycStatus(context.Background(), agent.ID, domain.KycRejected)
	if err != nil {
		t.Fatalf("SetKycStatus: %v", err)
	}
	if updated.KycStatus != domain.KycRejected || updated.LatestKyc().Status != domain.KycRejected {
		t.Errorf("kyc = agent %s / record %s, want REJECTED", updated.KycStatus, updated.LatestKyc().Status)
	}
}

// ---------------------------------------------------------------------------
// Queries / removal
// ---------------------------------------------------------------------------

func TestGetAgentStatus(t *testing.T) {
	f := newFixture()
	agent := f.initialized(t)

	status, err := f.svc.GetAgentStatus(context.Background(), agent.ID)
	if err != nil {
		t.Fatalf("GetAgentStatus: %v", err)
	}
	if status.RegistrationStatus != domain.StatusProfilePending || status.IsApproved {
		t.Errorf("unexpected status view: %+v", status)
	}
}

func TestGetAgentByUserIDReturnsOrderedHistory(t *testing.T) {
	f := newFixture()
	agent := f.initialized(t)

	now := time.Now().UTC()
	stored := f.mustGet(t, agent.ID)
	stored.KycRecords = []domain.KycRecord{
		{ID: "old", CreatedAt: now.Add(-time.Hour)},
		{ID: "new", CreatedAt: now},
	}
	f.agents.byID[agent.ID] = stored

	detail, err := f.svc.GetAgentByUserID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetAgentByUserID: %v", err)
	}
	if len(detail.KycHistory) != 2 || detail.KycHistory[0].ID != "new" {
		t.Errorf("history order = %+v, want most recent first", detail.KycHistory)
	}
	if detail.User == nil || detail.User.ID != "user-1" {
		t.Error("owner not attached to detail")
	}
}

func TestRemoveAgentSoftDeletes(t *testing.T) {
	f := newFixture()
	agent := f.initialized(t)

	if err := f.svc.RemoveAgent(context.Background(), agent.ID); err != nil {
		t.Fatalf("RemoveAgent: %v", err)
	}
	if _, ok := f.agents.deleted[agent.ID]; !ok {
		t.Error("agent not soft-deleted")
	}
}

func TestListAgentsClampsPagination(t *testing.T) {
	f := newFixture()
	f.initialized(t)

	result, err := f.svc.ListAgents(context.Background(), ports.ListAgentsInput{Page: -3, Limit: 1000})
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if result.Page != 1 || result.Limit != 100 {
		t.Errorf("page/limit = %d/%d, want 1/100", result.Page, result.Limit)
	}
	if result.Total != 1 || result.TotalPages != 1 {
		t.Errorf("total/pages = %d/%d", result.Total, result.TotalPages)
	}
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestRegistrationLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	agent, err := f.svc.Initialize(ctx, "user-1")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := f.svc.SubmitProfile(ctx, "user-1", validProfile(), nil); err != nil {
		t.Fatalf("SubmitProfile: %v", err)
	}
	if _, err := f.svc.SubmitBio(ctx, agent.ID, "A decade of structural design work."); err != nil {
		t.Fatalf("SubmitBio: %v", err)
	}
	if _, err := f.svc.SubmitKyc(ctx, agent.ID, validKyc(), ports.KycFiles{}); err != nil {
		t.Fatalf("SubmitKyc: %v", err)
	}

	stored := f.mustGet(t, agent.ID)
	if stored.RegistrationStatus != domain.StatusAwaitingApproval || stored.KycStatus != domain.KycVerified {
		t.Fatalf("after kyc: status %s / kyc %s, want awaiting_approval / VERIFIED",
			stored.RegistrationStatus, stored.KycStatus)
	}

	if _, err := f.svc.ApproveAgent(ctx, agent.ID, "admin-1"); err != nil {
		t.Fatalf("ApproveAgent: %v", err)
	}
	stored = f.mustGet(t, agent.ID)
	if stored.RegistrationStatus != domain.StatusApproved || stored.ApprovedAt == nil {
		t.Fatalf("after approval: %+v", stored)
	}
}
