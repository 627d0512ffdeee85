package service

import (
	"context"
	"strings"
	"time"

	ledgerdomain "github.com/smallbiznis/reelgate/internal/ledger/domain"
	"github.com/smallbiznis/reelgate/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("ledger.service"),
	}
}

func (s *Service) GetOrCreate(ctx context.Context, userID, email string) (*ledgerdomain.CreditAccount, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledgerdomain.ErrInvalidUser
	}

	now := time.Now().UTC()
	account := ledgerdomain.CreditAccount{
		UserID:    userID,
		Email:     strings.TrimSpace(email),
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&account).Error
	if err != nil && !db.IsDuplicateKeyErr(err) {
		return nil, err
	}

	var stored ledgerdomain.CreditAccount
	if err := s.db.WithContext(ctx).First(&stored, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}

	if stored.Balance < 0 {
		s.log.Error("negative balance observed",
			zap.String("user_id", userID),
			zap.Int64("balance", stored.Balance),
		)
		return nil, ledgerdomain.ErrInvariantViolation
	}

	return &stored, nil
}

func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	account, err := s.GetOrCreate(ctx, userID, "")
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// TryDebit is the single serialization point for spending credits. The
// conditional UPDATE either applies atomically or touches no rows; there
// is no window for a lost update or an observable negative balance.
func (s *Service) TryDebit(ctx context.Context, userID string, amount int64) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ledgerdomain.ErrInvalidUser
	}
	if amount <= 0 {
		return false, ledgerdomain.ErrInvalidAmount
	}

	res := s.db.WithContext(ctx).
		Model(&ledgerdomain.CreditAccount{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

func (s *Service) Credit(ctx context.Context, userID string, amount int64) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ledgerdomain.ErrInvalidUser
	}
	if amount <= 0 {
		return ledgerdomain.ErrInvalidAmount
	}

	if _, err := s.GetOrCreate(ctx, userID, ""); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Model(&ledgerdomain.CreditAccount{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ledgerdomain.ErrInvariantViolation
	}

	return nil
}
