package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mejarc/agent-onboarding/internal/api/metrics"
	"github.com/mejarc/agent-onboarding/internal/core/domain"
	"github.com/mejarc/agent-onboarding/internal/core/ports"
)

const (
	bioMinLen = 10
	bioMaxLen = 2000

	maxYearsOfExperience = 70

	profilePicturePrefix = "agent-profile-pics"
	kycDocumentPrefix    = "agent-kyc-documents"
)

// RegistrationService owns the agent registration state machine: profile, bio
// and KYC steps, automatic provider verification, and admin moderation.
type RegistrationService struct {
	agents   ports.AgentRepository
	identity ports.IdentityStore
	admins   ports.AdminDirectory
	docs     ports.DocumentStore
	verifier ports.KycVerifier
	notifier ports.Notifier
	log      zerolog.Logger
}

func NewRegistrationService(
	agents ports.AgentRepository,
	identity ports.IdentityStore,
	admins ports.AdminDirectory,
	docs ports.DocumentStore,
	verifier ports.KycVerifier,
	notifier ports.Notifier,
	log zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		agents:   agents,
		identity: identity,
		admins:   admins,
		docs:     docs,
		verifier: verifier,
		notifier: notifier,
		log:      log,
	}
}

// Initialize creates the agent record for a user after signup. Exactly one
// agent may ever exist per user; a duplicate attempt fails with
// domain.ErrAgentExists (the repository's uniqueness guarantee resolves races
// between concurrent calls).
func (s *RegistrationService) Initialize(ctx context.Context, userID string) (*domain.Agent, error) {
	user, err := s.identity.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("initialize agent: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	if existing, err := s.agents.FindByUserID(ctx, userID); err == nil && existing != nil {
		return nil, domain.ErrAgentExists
	}

	now := time.Now().UTC()
	agent := &domain.Agent{
		UserID:             userID,
		RegistrationStatus: domain.StatusProfilePending,
		KycStatus:          domain.KycPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, fmt.Errorf("initialize agent: %w", err)
	}

	metrics.RegistrationsInitializedTotal.Inc()
	s.log.Info().Str("agent_id", agent.ID).Str("user_id", userID).Msg("agent registration initialized")
	return agent, nil
}

// SubmitProfile handles step 1. It validates the professional details
// (including the license rule for regulated titles), resolves the optional
// profile picture, mirrors the phone number onto the user record, and advances
// the agent to bio_pending.
func (s *RegistrationService) SubmitProfile(ctx context.Context, userID string, in ports.ProfileInput, picture *ports.FileUpload) (*domain.Agent, error) {
	agent, err := s.agents.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("submit profile: %w", err)
	}

	if err := validateProfile(in); err != nil {
		return nil, err
	}

	pictureURL := in.ProfilePicture
	if picture != nil {
		url, err := s.docs.Upload(ctx, profilePicturePrefix, *picture)
		if err != nil || url == "" {
			return nil, fmt.Errorf("%w: profile picture", domain.ErrUploadFailed)
		}
		pictureURL = url
	}

	now := time.Now().UTC()
	if agent.Profile == nil {
		agent.Profile = &domain.Profile{CreatedAt: now}
	}
	agent.Profile.YearsOfExperience = in.YearsOfExperience
	agent.Profile.PreferredTitle = domain.ProfessionalTitle(in.PreferredTitle)
	agent.Profile.LicenseNumber = in.LicenseNumber
	agent.Profile.Specialization = in.Specialization
	agent.Profile.PortfolioLink = in.PortfolioLink
	agent.Profile.PhoneNumber = in.PhoneNumber
	if pictureURL != "" {
		agent.Profile.ProfilePicture = pictureURL
	}
	agent.Profile.UpdatedAt = now

	// Mirror the phone number onto the owning user record.
	if in.PhoneNumber != "" {
		user, err := s.identity.FindUserByID(ctx, agent.UserID)
		if err != nil {
			return nil, fmt.Errorf("submit profile: %w", err)
		}
		if user != nil {
			user.PhoneNumber = in.PhoneNumber
			if err := s.identity.SaveUser(ctx, user); err != nil {
				return nil, fmt.Errorf("submit profile: save user phone: %w", err)
			}
		}
	}

	agent.RegistrationStatus = domain.StatusBioPending
	agent.UpdatedAt = now
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("submit profile: %w", err)
	}

	metrics.RegistrationStepsTotal.WithLabelValues("profile").Inc()
	s.log.Info().Str("agent_id", agent.ID).Msg("profile submitted")
	return agent, nil
}

// SubmitBio handles step 2 and advances the agent to kyc_pending. Approved
// registrations are immutable.
func (s *RegistrationService) SubmitBio(ctx context.Context, agentID, bio string) (*domain.Agent, error) {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("submit bio: %w", err)
	}
	if agent.RegistrationStatus == domain.StatusApproved {
		return nil, domain.ErrAgentApproved
	}
	if len(bio) < bioMinLen || len(bio) > bioMaxLen {
		return nil, fmt.Errorf("%w: bio must be between %d and %d characters", domain.ErrInvalidInput, bioMinLen, bioMaxLen)
	}

	now := time.Now().UTC()
	if agent.Bio == nil {
		agent.Bio = &domain.Bio{CreatedAt: now}
	}
	agent.Bio.Text = bio
	agent.Bio.UpdatedAt = now

	agent.RegistrationStatus = domain.StatusKycPending
	agent.UpdatedAt = now
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("submit bio: %w", err)
	}

	metrics.RegistrationStepsTotal.WithLabelValues("bio").Inc()
	s.log.Info().Str("agent_id", agent.ID).Msg("bio submitted")
	return agent, nil
}

// SubmitKyc handles step 3. It upserts the latest KYC record, advances the
// agent to awaiting_approval, and then dispatches three independently
// fault-tolerant side effects: the submission notification to the agent, the
// fan-out to every admin, and the automatic provider verification. A failure
// in any side effect is logged and never surfaces to the caller.
func (s *RegistrationService) SubmitKyc(ctx context.Context, agentID string, in ports.KycInput, files ports.KycFiles) (*domain.Agent, error) {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("submit kyc: %w", err)
	}
	if agent.RegistrationStatus == domain.StatusApproved {
		return nil, domain.ErrAgentApproved
	}

	if in.IDType == "" || in.IDNumber == "" {
		return nil, fmt.Errorf("%w: id type and number are required", domain.ErrInvalidInput)
	}
	if in.BankName == "" || in.AccountNumber == "" || in.AccountHolderName == "" {
		return nil, fmt.Errorf("%w: bank details are required", domain.ErrInvalidInput)
	}

	idDocumentURL, err := s.resolveDocument(ctx, files.IDDocument, in.IDDocumentURL, "id document")
	if err != nil {
		return nil, err
	}
	certURL, err := s.resolveDocument(ctx, files.ProfessionalCert, in.ProfessionalCertURL, "professional certificate")
	if err != nil {
		return nil, err
	}

	// Upsert the latest record in place; never grow the history on update.
	now := time.Now().UTC()
	record := agent.LatestKyc()
	if record == nil {
		agent.KycRecords = append(agent.KycRecords, domain.KycRecord{
			ID:        newRecordID(),
			CreatedAt: now,
		})
		record = &agent.KycRecords[len(agent.KycRecords)-1]
	}
	record.IDType = in.IDType
	record.IDNumber = in.IDNumber
	record.IDDocument = idDocumentURL
	record.ProfessionalCert = certURL
	record.BankName = in.BankName
	record.AccountNumber = in.AccountNumber
	record.AccountHolderName = in.AccountHolderName
	record.Documents = nil
	record.Status = domain.KycPending
	record.UpdatedAt = now

	agent.RegistrationStatus = domain.StatusAwaitingApproval
	agent.KycStatus = domain.KycPending
	agent.UpdatedAt = now
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("submit kyc: %w", err)
	}

	metrics.RegistrationStepsTotal.WithLabelValues("kyc").Inc()
	s.log.Info().Str("agent_id", agent.ID).Msg("kyc submitted")

	// Side effects run only after the transition is durably committed.
	s.notifySubmission(ctx, agent)
	s.notifyAdminsKycUploaded(ctx, agent)
	s.autoVerify(ctx, agent, false)

	return agent, nil
}

// resolveDocument uploads the file when present, otherwise falls back to the
// caller-supplied URL. An upload that does not yield a URL is an error, not a
// silent nil.
func (s *RegistrationService) resolveDocument(ctx context.Context, file *ports.FileUpload, fallbackURL, label string) (string, error) {
	if file == nil {
		return fallbackURL, nil
	}
	url, err := s.docs.Upload(ctx, kycDocumentPrefix, *file)
	if err != nil || url == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrUploadFailed, label)
	}
	return url, nil
}

// ApproveAgent is the admin approval transition. It is deliberately
// unconditional on the current registration status.
func (s *RegistrationService) ApproveAgent(ctx context.Context, agentID, adminID string) (*domain.Agent, error) {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("approve agent: %w", err)
	}

	now := time.Now().UTC()
	agent.RegistrationStatus = domain.StatusApproved
	agent.IsApprovedByAdmin = true
	agent.KycStatus = domain.KycVerified
	agent.ApprovedAt = &now
	agent.UpdatedAt = now
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("approve agent: %w", err)
	}

	metrics.AgentsModeratedTotal.WithLabelValues("approved").Inc()
	s.log.Info().Str("agent_id", agent.ID).Str("admin_id", adminID).Msg("agent approved")

	if user := s.ownerOf(ctx, agent); user != nil {
		if err := s.notifier.SendAgentApprovalNotification(ctx, user, agent, true); err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues("approval").Inc()
			s.log.Warn().Err(err).Str("agent_id", agent.ID).Msg("failed to send approval notification")
		}
	}

	return agent, nil
}

// RejectAgent is the admin rejection transition, also unconditional on the
// current registration status. The reason is stored and included in the
// rejection notification.
func (s *RegistrationService) RejectAgent(ctx context.Context, agentID, adminID, reason string) (*domain.Agent, error) {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("reject agent: %w", err)
	}

	now := time.Now().UTC()
	agent.RegistrationStatus = domain.StatusRejected
	agent.RejectionReason = reason
	agent.KycStatus = domain.KycRejected
	agent.UpdatedAt = now
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("reject agent: %w", err)
	}

	metrics.AgentsModeratedTotal.WithLabelValues("rejected").Inc()
	s.log.Info().Str("agent_id", agent.ID).Str("admin_id", adminID).Msg("agent rejected")

	if user := s.ownerOf(ctx, agent); user != nil {
		if err := s.notifier.SendAgentRejectionNotification(ctx, user, agent, reason); err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues("rejection").Inc()
			s.log.Warn().Err(err).Str("agent_id", agent.ID).Msg("failed to send rejection notification")
		}
	}

	return agent, nil
}

// AddKycDocument appends a document descriptor to the latest KYC record
// (creating one when none exists), resets it to pending, and re-runs the admin
// fan-out and provider verification. Unlike SubmitKyc, an explicit provider
// rejection here marks the record and agent rejected instead of leaving them
// pending.
func (s *RegistrationService) AddKycDocument(ctx context.Context, agentID string, doc domain.DocumentRef) (*domain.Agent, error) {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("add kyc document: %w", err)
	}

	now := time.Now().UTC()
	record := agent.LatestKyc()
	if record == nil {
		agent.KycRecords = append(agent.KycRecords, domain.KycRecord{
			ID:        newRecordID(),
			Documents: []domain.DocumentRef{doc},
			Status:    domain.KycPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
		record = &agent.KycRecords[len(agent.KycRecords)-1]
	} else {
		record.Documents = append(record.Documents, doc)
		record.Status = domain.KycPending
		record.UpdatedAt = now
	}

	agent.KycStatus = domain.KycPending
	agent.UpdatedAt = now
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("add kyc document: %w", err)
	}

	s.notifyAdminsKycUploaded(ctx, agent)
	s.autoVerify(ctx, agent, true)

	return agent, nil
}

// SetKycStatus forces the aggregate status and the latest record to the given
// value (manual review outcome).
func (s *RegistrationService) SetKycStatus(ctx context.Context, agentID string, status domain.KycStatus) (*domain.Agent, error) {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("set kyc status: %w", err)
	}

	now := time.Now().UTC()
	if record := agent.LatestKyc(); record != nil {
		record.Status = status
		record.UpdatedAt = now
	}
	agent.KycStatus = status
	agent.UpdatedAt = now
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("set kyc status: %w", err)
	}
	return agent, nil
}

// GetAgentByUserID returns the full registration detail for a user's agent.
func (s *RegistrationService) GetAgentByUserID(ctx context.Context, userID string) (*ports.AgentDetail, error) {
	agent, err := s.agents.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get agent by user: %w", err)
	}
	return s.buildDetail(ctx, agent), nil
}

// GetAgentStatus returns the compact status view of a registration.
func (s *RegistrationService) GetAgentStatus(ctx context.Context, agentID string) (*ports.AgentStatusResult, error) {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("get agent status: %w", err)
	}
	return &ports.AgentStatusResult{
		ID:                 agent.ID,
		RegistrationStatus: agent.RegistrationStatus,
		KycStatus:          agent.KycStatus,
		IsApproved:         agent.IsApprovedByAdmin,
		ApprovedAt:         agent.ApprovedAt,
		RejectionReason:    agent.RejectionReason,
	}, nil
}

// GetAgentDetail returns the full aggregate view for the moderation screens.
func (s *RegistrationService) GetAgentDetail(ctx context.Context, agentID string) (*ports.AgentDetail, error) {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("get agent detail: %w", err)
	}
	return s.buildDetail(ctx, agent), nil
}

// ListAgents returns a page of registrations for the admin overview.
func (s *RegistrationService) ListAgents(ctx context.Context, in ports.ListAgentsInput) (*ports.ListAgentsResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	items, total, err := s.agents.List(ctx, ports.ListAgentsFilter{
		Status: in.Status,
		Search: in.Search,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListAgentsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// RemoveAgent soft-deletes a registration, preserving the audit history.
func (s *RegistrationService) RemoveAgent(ctx context.Context, agentID string) error {
	if _, err := s.agents.FindByID(ctx, agentID); err != nil {
		return fmt.Errorf("remove agent: %w", err)
	}
	if err := s.agents.SoftDelete(ctx, agentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("remove agent: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Side effects: each guarded and logged, never propagated
// ---------------------------------------------------------------------------

func (s *RegistrationService) notifySubmission(ctx context.Context, agent *domain.Agent) {
	user := s.ownerOf(ctx, agent)
	if user == nil {
		s.log.Warn().Str("agent_id", agent.ID).Msg("agent user not found for registration notification")
		return
	}
	if err := s.notifier.SendAgentRegistrationSubmittedNotification(ctx, user, agent); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("registration_submitted").Inc()
		s.log.Warn().Err(err).Str("agent_id", agent.ID).Msg("failed to send registration submitted notification")
	}
}

func (s *RegistrationService) notifyAdminsKycUploaded(ctx context.Context, agent *domain.Agent) {
	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("agent_id", agent.ID).Msg("failed to list admins for kyc notification")
		return
	}
	for _, admin := range admins {
		if admin.User == nil {
			continue
		}
		if err := s.notifier.SendKycUploadedNotification(ctx, admin.User, agent); err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues("kyc_uploaded").Inc()
			s.log.Warn().Err(err).
				Str("agent_id", agent.ID).
				Str("admin_id", admin.ID).
				Msg("failed to notify admin about kyc submission")
		}
	}
}

// autoVerify runs the provider against the just-persisted latest record.
// On success the record and agent become verified. On a non-success verdict,
// strict=false leaves everything pending for manual review while strict=true
// (the incremental document path) marks both rejected. A provider error only
// logs; automatic verification is best-effort.
func (s *RegistrationService) autoVerify(ctx context.Context, agent *domain.Agent, strict bool) {
	record := agent.LatestKyc()
	if record == nil {
		return
	}
	docs := record.DocumentRefs()
	if len(docs) == 0 {
		return
	}

	start := time.Now()
	result, err := s.verifier.VerifyDocuments(ctx, docs)
	metrics.KycVerificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.KycVerificationsTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Str("agent_id", agent.ID).Msg("kyc provider verification failed")
		return
	}

	now := time.Now().UTC()
	switch {
	case result.Success:
		record.Status = domain.KycVerified
		agent.KycStatus = domain.KycVerified
		metrics.KycVerificationsTotal.WithLabelValues("verified").Inc()
	case strict:
		record.Status = domain.KycRejected
		agent.KycStatus = domain.KycRejected
		metrics.KycVerificationsTotal.WithLabelValues("rejected").Inc()
	default:
		// Leave pending for manual review.
		metrics.KycVerificationsTotal.WithLabelValues("pending").Inc()
		s.log.Info().
			Str("agent_id", agent.ID).
			Str("notes", result.Notes).
			Msg("kyc provider declined, awaiting manual review")
		return
	}
	record.UpdatedAt = now
	agent.UpdatedAt = now

	if err := s.agents.Update(ctx, agent); err != nil {
		s.log.Warn().Err(err).Str("agent_id", agent.ID).Msg("failed to persist kyc verification outcome")
		return
	}
	s.log.Info().
		Str("agent_id", agent.ID).
		Str("kyc_status", string(agent.KycStatus)).
		Str("provider_id", result.ProviderID).
		Msg("kyc verification outcome recorded")
}

func (s *RegistrationService) ownerOf(ctx context.Context, agent *domain.Agent) *domain.User {
	user, err := s.identity.FindUserByID(ctx, agent.UserID)
	if err != nil || user == nil {
		return nil
	}
	return user
}

func (s *RegistrationService) buildDetail(ctx context.Context, agent *domain.Agent) *ports.AgentDetail {
	detail := &ports.AgentDetail{Agent: agent}
	if agent.Bio != nil {
		detail.Bio = agent.Bio.Text
	}

	history := make([]domain.KycRecord, len(agent.KycRecords))
	copy(history, agent.KycRecords)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	detail.KycHistory = history

	if user, err := s.identity.FindUserByID(ctx, agent.UserID); err == nil {
		detail.User = user
	}
	return detail
}

func validateProfile(in ports.ProfileInput) error {
	title := domain.ProfessionalTitle(in.PreferredTitle)
	if in.PreferredTitle == "" || len(in.Specialization) == 0 {
		return fmt.Errorf("%w: yearsOfExperience, preferredTitle, and specialization are required", domain.ErrInvalidInput)
	}
	if in.YearsOfExperience < 0 || in.YearsOfExperience > maxYearsOfExperience {
		return fmt.Errorf("%w: yearsOfExperience must be between 0 and %d", domain.ErrInvalidInput, maxYearsOfExperience)
	}
	if !title.Valid() {
		return fmt.Errorf("%w: preferredTitle is not a recognised professional title", domain.ErrInvalidInput)
	}
	if title.RequiresLicense() && in.LicenseNumber == "" {
		return fmt.Errorf("%w: licenseNumber is required for your selected title", domain.ErrInvalidInput)
	}
	return nil
}

// newRecordID returns a random 24-character hex identifier for a KYC record.
func newRecordID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%024x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
