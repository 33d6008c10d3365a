package referrals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grupobarca/barca-backend/internal/orders"
	"github.com/grupobarca/barca-backend/internal/users"
	dbpkg "github.com/grupobarca/barca-backend/pkg/db"
	pkgerrors "github.com/grupobarca/barca-backend/pkg/errors"
	"github.com/grupobarca/barca-backend/pkg/logger"
	"github.com/grupobarca/barca-backend/pkg/security"
)

// codeCharset is the alphabet referral codes are drawn from.
const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes referral bonus settlement and code allocation.
type Service interface {
	ComputeStats(ctx context.Context, referrerID uuid.UUID) (*Stats, error)
	AllocateCode(ctx context.Context, userID uuid.UUID) (string, error)
}

// Options tunes bonus math and code generation.
type Options struct {
	BonusRateBP     int
	CodeLength      int
	CodeMaxAttempts int
}

type service struct {
	users       *users.Repository
	orders      orders.Repository
	tx          txRunner
	logg        *logger.Logger
	bonusRate   decimal.Decimal
	codeLength  int
	maxAttempts int
	codeFn      func(length int) (string, error)
}

// NewService builds a referrals service with the required dependencies.
func NewService(usersRepo *users.Repository, ordersRepo orders.Repository, tx txRunner, logg *logger.Logger, opts Options) (Service, error) {
	if usersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if ordersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}

	rateBP := opts.BonusRateBP
	if rateBP <= 0 {
		rateBP = 500
	}
	codeLength := opts.CodeLength
	if codeLength <= 0 {
		codeLength = 8
	}
	maxAttempts := opts.CodeMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	return &service{
		users:       usersRepo,
		orders:      ordersRepo,
		tx:          tx,
		logg:        logg,
		bonusRate:   decimal.New(int64(rateBP), -4),
		codeLength:  codeLength,
		maxAttempts: maxAttempts,
		codeFn: func(length int) (string, error) {
			return security.GenerateCode(length, codeCharset)
		},
	}, nil
}

// ComputeStats settles referral bonuses for the given referrer. Reads run in
// a single transaction so the counts and the order totals describe the same
// snapshot. Each order's bonus is rounded to the cent before summing, so a
// referral's total equals the sum of its per-order bonuses. Bonuses from
// inactive referrals count toward the total but stay pending until the
// referral activates.
func (s *service) ComputeStats(ctx context.Context, referrerID uuid.UUID) (*Stats, error) {
	if referrerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	stats := &Stats{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		referred, err := usersRepo.ListReferrals(ctx, referrerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list referrals")
		}
		if len(referred) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(referred))
		for _, u := range referred {
			ids = append(ids, u.ID)
		}
		totals, err := ordersRepo.ListTotalsByPurchasers(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list referral order totals")
		}

		stats.TotalReferrals = len(referred)
		for _, u := range referred {
			var bonus int64
			for _, orderTotal := range totals[u.ID] {
				bonus += s.bonusFor(orderTotal)
			}
			stats.TotalBonusCents += bonus
			if u.IsActive {
				stats.ActiveReferrals++
			} else {
				stats.PendingBonusCents += bonus
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stats.TotalReferrals > 0 {
		stats.ConversionRate = float64(stats.ActiveReferrals) / float64(stats.TotalReferrals)
	}
	return stats, nil
}

// bonusFor converts an order total into the referrer's cut, rounded to the
// nearest cent.
func (s *service) bonusFor(totalCents int64) int64 {
	if totalCents <= 0 {
		return 0
	}
	return decimal.NewFromInt(totalCents).Mul(s.bonusRate).Round(0).IntPart()
}

// AllocateCode assigns a fresh referral code to the user. Generation retries
// on collision up to the configured bound; the unique index on the column is
// the authoritative guard against races.
func (s *service) AllocateCode(ctx context.Context, userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.ReferralCode != nil {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "user already has a referral code")
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		code, err := s.codeFn(s.codeLength)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate referral code")
		}

		taken, err := s.users.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check referral code")
		}
		if taken {
			continue
		}

		claimed, err := s.users.SetReferralCodeIfAbsent(ctx, userID, code)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				// Someone else claimed this code between the check and the
				// write. Try another one.
				continue
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign referral code")
		}
		if !claimed {
			return "", pkgerrors.New(pkgerrors.CodeStateConflict, "user already has a referral code")
		}

		if s.logg != nil {
			logCtx := s.logg.WithUserID(ctx, userID.String())
			s.logg.Info(logCtx, "referral code allocated")
		}
		return code, nil
	}

	return "", pkgerrors.New(pkgerrors.CodeExhausted, "could not allocate a unique referral code")
}
