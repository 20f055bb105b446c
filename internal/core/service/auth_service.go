package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mejarc/agent-onboarding/internal/api/metrics"
	"github.com/mejarc/agent-onboarding/internal/core/domain"
	"github.com/mejarc/agent-onboarding/internal/core/ports"
)

const otpTTL = 15 * time.Minute

// AuthService issues admin and agent credentials. Admin login is two-step:
// password check plus a one-time code delivered by email.
type AuthService struct {
	identity  ports.IdentityStore
	admins    ports.AdminDirectory
	agents    ports.AgentRepository
	otps      ports.OTPStore
	notifier  ports.Notifier
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(
	identity ports.IdentityStore,
	admins ports.AdminDirectory,
	agents ports.AgentRepository,
	otps ports.OTPStore,
	notifier ports.Notifier,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		identity:  identity,
		admins:    admins,
		agents:    agents,
		otps:      otps,
		notifier:  notifier,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// MakeAdmin promotes an existing user to administrator.
func (s *AuthService) MakeAdmin(ctx context.Context, userID, role string) (*domain.Admin, error) {
	user, err := s.identity.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("make admin: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	if existing, err := s.admins.FindAdminByUserID(ctx, userID); err == nil && existing != nil {
		return nil, domain.ErrAdminExists
	}

	if role == "" {
		role = domain.RoleAdmin
	}
	admin := &domain.Admin{
		UserID:    userID,
		Role:      role,
		IsAdmin:   true,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.admins.CreateAdmin(ctx, admin); err != nil {
		return nil, fmt.Errorf("make admin: %w", err)
	}

	s.log.Info().Str("user_id", userID).Str("role", role).Msg("user promoted to admin")
	return admin, nil
}

// AdminLogin validates credentials, then issues and emails a one-time code.
// Credential failures all map to ErrInvalidCredentials.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*ports.AdminLoginResult, error) {
	user, err := s.identity.FindUserByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	admin, err := s.admins.FindAdminByUserID(ctx, user.ID)
	if err != nil || admin == nil || !admin.IsAdmin || !admin.IsActive {
		return nil, domain.ErrNotAdmin
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	code := generateOTP()
	if err := s.otps.Issue(ctx, user.Email, code, otpTTL); err != nil {
		return nil, fmt.Errorf("admin login: issue otp: %w", err)
	}

	if err := s.notifier.SendLoginVerificationEmail(ctx, user.Email, user.FirstName, code); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues("login_otp").Inc()
		s.log.Warn().Err(err).Str("email", user.Email).Msg("failed to send admin otp email")
	}

	return &ports.AdminLoginResult{
		Email:     user.Email,
		ExpiresIn: "15 minutes",
	}, nil
}

// VerifyAdminLogin consumes the one-time code and issues an admin-scoped JWT.
func (s *AuthService) VerifyAdminLogin(ctx context.Context, email, code string) (*ports.AdminSession, error) {
	user, err := s.identity.FindUserByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	admin, err := s.admins.FindAdminByUserID(ctx, user.ID)
	if err != nil || admin == nil || !admin.IsAdmin || !admin.IsActive {
		return nil, domain.ErrNotAdmin
	}

	ok, err := s.otps.Verify(ctx, user.Email, code)
	if err != nil {
		return nil, fmt.Errorf("verify admin login: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidOTP
	}

	token, err := s.generateToken(jwt.MapClaims{
		"userId":  user.ID,
		"adminId": admin.ID,
		"role":    domain.RoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("verify admin login: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("admin_id", admin.ID).Msg("admin login verified")
	return &ports.AdminSession{
		Token:   token,
		User:    user,
		AdminID: admin.ID,
		Admin:   admin,
	}, nil
}

// AgentLogin authenticates the owning user of an agent and issues an
// agent-scoped JWT.
func (s *AuthService) AgentLogin(ctx context.Context, email, password string) (*ports.AgentSession, error) {
	user, err := s.identity.FindUserByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	// Before initialization there is no agent record yet; the token then
	// carries an empty agentId and only user-scoped routes accept it.
	agentID := ""
	agent, err := s.agents.FindByUserID(ctx, user.ID)
	switch {
	case err == nil:
		agentID = agent.ID
	case errors.Is(err, domain.ErrAgentNotFound):
	default:
		return nil, fmt.Errorf("agent login: %w", err)
	}

	token, err := s.generateToken(jwt.MapClaims{
		"userId":  user.ID,
		"agentId": agentID,
		"role":    domain.RoleAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("agent login: %w", err)
	}

	return &ports.AgentSession{
		Token:   token,
		User:    user,
		AgentID: agentID,
	}, nil
}

func (s *AuthService) generateToken(claims jwt.MapClaims) (string, error) {
	claims["exp"] = time.Now().Add(s.tokenTTL).Unix()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// generateOTP returns a 6-character uppercase hex code.
func generateOTP() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return strings.ToUpper(fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF))
	}
	return strings.ToUpper(hex.EncodeToString(b))
}
