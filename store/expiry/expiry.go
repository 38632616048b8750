package expiry

import (
	"context"
	"time"

	"margin/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Expiry{})
		if err := tx.AutoMigrate(core.Expiry{}).Error; err != nil {
			return err
		}

		return nil
	})
}

type expiryStore struct {
	db *db.DB
}

// New gorm expiry store
func New(db *db.DB) core.IExpiryStore {
	return &expiryStore{db: db}
}

func (s *expiryStore) Set(ctx context.Context, expiry *core.Expiry) error {
	return s.db.Update().
		Where("owner = ? AND number = ? AND market_id = ?", expiry.Owner, expiry.Number, expiry.MarketID).
		Assign(core.Expiry{ExpiresAt: expiry.ExpiresAt}).
		FirstOrCreate(expiry).Error
}

func (s *expiryStore) Find(ctx context.Context, account core.AccountID, marketID uint64) (*core.Expiry, error) {
	var expiry core.Expiry
	err := s.db.View().
		Where("owner = ? AND number = ? AND market_id = ?", account.Owner, account.Number, marketID).
		First(&expiry).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	return &expiry, nil
}

func (s *expiryStore) Delete(ctx context.Context, account core.AccountID, marketID uint64) error {
	return s.db.Update().
		Where("owner = ? AND number = ? AND market_id = ?", account.Owner, account.Number, marketID).
		Delete(core.Expiry{}).Error
}

func (s *expiryStore) ListExpired(ctx context.Context, t time.Time, limit int) ([]*core.Expiry, error) {
	if limit <= 0 {
		limit = 500
	}

	var expiries []*core.Expiry
	if err := s.db.View().Where("expires_at < ?", t).Order("expires_at").Limit(limit).Find(&expiries).Error; err != nil {
		return nil, err
	}

	return expiries, nil
}
