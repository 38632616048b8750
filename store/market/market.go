package market

import (
	"context"

	"margin/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type marketStore struct {
	db *db.DB
}

// New new market store
func New(db *db.DB) core.IMarketStore {
	return &marketStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Market{})
		if err := tx.AutoMigrate(core.Market{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *marketStore) Save(ctx context.Context, market *core.Market) error {
	return s.db.Tx(func(tx *db.DB) error {
		var existing core.Market
		err := tx.Update().Where("id = ?", market.ID).First(&existing).Error
		if gorm.IsRecordNotFoundError(err) {
			return tx.Update().Create(market).Error
		} else if err != nil {
			return err
		}

		version := existing.Version
		market.Version = version + 1
		update := tx.Update().Model(core.Market{}).Where("id = ? AND version = ?", market.ID, version).Updates(map[string]interface{}{
			"asset_id":             market.AssetID,
			"symbol":               market.Symbol,
			"decimals":             market.Decimals,
			"isolated":             market.Isolated,
			"async":                market.Async,
			"allowed_debt_markets": market.AllowedDebtMarkets,
			"unwrapper":            market.Unwrapper,
			"wrapper":              market.Wrapper,
			"margin_premium":       market.MarginPremium,
			"spread_premium":       market.SpreadPremium,
			"version":              market.Version,
		})
		if update.Error != nil {
			return update.Error
		}

		if update.RowsAffected == 0 {
			return db.ErrOptimisticLock
		}

		return nil
	})
}

func (s *marketStore) Find(ctx context.Context, id uint64) (*core.Market, error) {
	var market core.Market
	if err := s.db.View().Where("id = ?", id).First(&market).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, core.ErrMarketNotFound
		}
		return nil, err
	}

	return &market, nil
}

func (s *marketStore) FindByAsset(ctx context.Context, assetID string) (*core.Market, error) {
	var market core.Market
	if err := s.db.View().Where("asset_id = ?", assetID).First(&market).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, core.ErrMarketNotFound
		}
		return nil, err
	}

	return &market, nil
}

func (s *marketStore) All(ctx context.Context) ([]*core.Market, error) {
	var markets []*core.Market
	if err := s.db.View().Order("id").Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}

func (s *marketStore) AllAsMap(ctx context.Context) (map[uint64]*core.Market, error) {
	markets, e := s.All(ctx)
	if e != nil {
		return nil, e
	}

	return asMap(markets), nil
}

func asMap(markets []*core.Market) map[uint64]*core.Market {
	maps := make(map[uint64]*core.Market, len(markets))
	for _, m := range markets {
		maps[m.ID] = m
	}

	return maps
}
