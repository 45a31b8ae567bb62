package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/eventbright/internal/auth"
	"github.com/spec-kit/eventbright/internal/config"
	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/events"
	"github.com/spec-kit/eventbright/internal/repository"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

const maxCodeAttempts = 5

// RegisterInput is the registration payload.
type RegisterInput struct {
	Fullname     string
	Email        string
	Password     string
	PhoneNumber  *string
	ReferralCode string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	repos      repository.Repositories
	tx         repository.TxRunner
	points     *PointService
	vouchers   *VoucherService
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	rewards    config.PointsConfig
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Repos      repository.Repositories
	Tx         repository.TxRunner
	Points     *PointService
	Vouchers   *VoucherService
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	return &AuthService{
		repos:      deps.Repos,
		tx:         deps.Tx,
		points:     deps.Points,
		vouchers:   deps.Vouchers,
		tokenMgr:   tokens,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		rewards:    cfg.Points,
		now:        time.Now,
	}
}

// Register creates a user account. With a referral code the referrer is
// credited a point grant and the new user receives a discount voucher, all
// in the same transaction as the account itself.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Fullname = strings.TrimSpace(in.Fullname)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ReferralCode = strings.TrimSpace(in.ReferralCode)
	if in.Fullname == "" || in.Email == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("all fields except referral code are required", nil)
	}

	if _, err := s.repos.Users.GetByEmail(ctx, in.Email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var referrer *domain.User
	if in.ReferralCode != "" {
		found, err := s.repos.Users.GetByReferralCode(ctx, in.ReferralCode)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("invalid referral code", nil)
			}
			return nil, err
		}
		referrer = found
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		user = &domain.User{
			Fullname:     in.Fullname,
			Email:        in.Email,
			PasswordHash: hash,
			PhoneNumber:  in.PhoneNumber,
			TotalPoint:   decimal.Zero,
			ReferralCode: generateReferralCode(),
			Role:         domain.RoleUser,
		}
		err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			if err := repos.Users.Create(ctx, user); err != nil {
				return err
			}
			if referrer == nil {
				return nil
			}
			return s.rewardReferral(ctx, repos, referrer, user)
		})
		switch repository.ViolatedConstraint(err) {
		case "users_referral_code_key", "vouchers_code_key":
			s.logger.Debug("generated code collided, retrying", zap.Int("attempt", attempt+1))
			continue
		case "users_email_key":
			return nil, emailTaken()
		}
		break
	}
	if err != nil {
		return nil, err
	}

	s.publishRegistered(ctx, user, referrer)
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.Token, error) {
	user, err := s.repos.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Token{}, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, domain.Token{}, err
	}
	if !auth.PasswordMatches(user.PasswordHash, password) {
		return nil, domain.Token{}, apperrors.NewUnauthorized("invalid email or password")
	}
	token, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, domain.Token{}, err
	}
	return user, token, nil
}

func (s *AuthService) rewardReferral(ctx context.Context, repos repository.Repositories, referrer, user *domain.User) error {
	validUntil := s.now().AddDate(0, s.rewards.ReferralValidityMonth, 0)

	reward := decimal.NewFromInt(s.rewards.ReferralReward)
	if _, err := s.points.Grant(ctx, repos, referrer.ID, reward, validUntil); err != nil {
		return err
	}
	percent := decimal.NewFromInt(s.rewards.ReferralVoucherPct)
	if _, err := s.vouchers.IssuePercentage(ctx, repos, user.ID, percent, validUntil); err != nil {
		return err
	}
	return repos.Referrals.Create(ctx, &domain.ReferralHistory{ReferrerID: referrer.ID, ReferredUserID: user.ID})
}

func (s *AuthService) publishRegistered(ctx context.Context, user, referrer *domain.User) {
	if s.dispatcher == nil {
		return
	}
	payload := events.UserRegisteredPayload{
		Fullname:     user.Fullname,
		Email:        user.Email,
		ReferralCode: user.ReferralCode,
	}
	if referrer != nil {
		payload.ReferredBy = &referrer.ID
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserRegistered,
		UserID:    user.ID,
		Timestamp: s.now(),
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("publish registration failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

func emailTaken() error {
	return apperrors.NewValidationError("email is already registered", nil)
}

func generateReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
