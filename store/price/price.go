package price

import (
	"context"

	"margin/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type priceStore struct {
	db *db.DB
}

// New new price store, latest price per market
func New(db *db.DB) core.IPriceStore {
	return &priceStore{
		db: db,
	}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Price{})

		if err := tx.AutoMigrate(core.Price{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *priceStore) Save(ctx context.Context, price *core.Price) error {
	return s.db.Update().
		Where("market_id = ?", price.MarketID).
		Assign(core.Price{Value: price.Value, ValidUntil: price.ValidUntil}).
		FirstOrCreate(price).Error
}

func (s *priceStore) Latest(ctx context.Context, marketID uint64) (*core.Price, error) {
	var price core.Price
	if e := s.db.View().Where("market_id = ?", marketID).First(&price).Error; e != nil {
		if gorm.IsRecordNotFoundError(e) {
			return nil, core.ErrPriceNotFound
		}
		return nil, e
	}

	return &price, nil
}
