package asyncaction

import (
	"context"

	"margin/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.AsyncAction{})
		if err := tx.AutoMigrate(core.AsyncAction{}).Error; err != nil {
			return err
		}

		return nil
	})
}

type actionStore struct {
	db *db.DB
}

// New gorm async action store
func New(db *db.DB) core.IAsyncActionStore {
	return &actionStore{db: db}
}

func (s *actionStore) Create(ctx context.Context, action *core.AsyncAction) error {
	return s.db.Update().Where("action_key = ?", action.Key).FirstOrCreate(action).Error
}

func (s *actionStore) Find(ctx context.Context, key string) (*core.AsyncAction, error) {
	var action core.AsyncAction
	if err := s.db.View().Where("action_key = ?", key).First(&action).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	return &action, nil
}

func (s *actionStore) FindByAccount(ctx context.Context, account core.AccountID) ([]*core.AsyncAction, error) {
	var actions []*core.AsyncAction
	if err := s.db.View().Where("owner = ? AND number = ?", account.Owner, account.Number).Order("id").Find(&actions).Error; err != nil {
		return nil, err
	}

	return actions, nil
}

func (s *actionStore) Update(ctx context.Context, action *core.AsyncAction) error {
	version := action.Version
	action.Version++

	tx := s.db.Update().Model(core.AsyncAction{}).Where("action_key = ? AND version = ?", action.Key, version).Updates(map[string]interface{}{
		"status":        action.Status,
		"input_amount":  action.InputAmount,
		"output_amount": action.OutputAmount,
		"retryable":     action.Retryable,
		"version":       action.Version,
	})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *actionStore) Delete(ctx context.Context, key string) error {
	return s.db.Update().Where("action_key = ?", key).Delete(core.AsyncAction{}).Error
}

func (s *actionStore) List(ctx context.Context, status core.AsyncActionStatus, limit int) ([]*core.AsyncAction, error) {
	if limit <= 0 {
		limit = 500
	}

	var actions []*core.AsyncAction
	if err := s.db.View().Where("status = ?", status).Order("id").Limit(limit).Find(&actions).Error; err != nil {
		return nil, err
	}

	return actions, nil
}
