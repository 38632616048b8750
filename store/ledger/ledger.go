package ledger

import (
	"context"

	"margin/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// balance one row per account & market
type balance struct {
	ID       int64           `sql:"PRIMARY_KEY;AUTO_INCREMENT"`
	Owner    string          `sql:"size:64;unique_index:idx_balances_account_market"`
	Number   uint64          `sql:"unique_index:idx_balances_account_market"`
	MarketID uint64          `sql:"unique_index:idx_balances_account_market"`
	Amount   decimal.Decimal `sql:"type:decimal(64,0)"`
	Version  int64           `sql:"default:0"`
}

func (balance) TableName() string {
	return "balances"
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(balance{})
		if err := tx.AutoMigrate(balance{}).Error; err != nil {
			return err
		}

		return nil
	})
}

type ledgerStore struct {
	db *db.DB
}

// New gorm ledger, every Tx is one database transaction
func New(db *db.DB) core.Ledger {
	return &ledgerStore{db: db}
}

func (s *ledgerStore) Balances(ctx context.Context, account core.AccountID) (core.Balances, error) {
	return listBalances(s.db.View(), account)
}

func (s *ledgerStore) Accounts(ctx context.Context) ([]core.AccountID, error) {
	var rows []*balance
	if err := s.db.View().Select("DISTINCT owner, number").Where("amount <> 0").Find(&rows).Error; err != nil {
		return nil, err
	}

	accounts := make([]core.AccountID, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, core.AccountID{Owner: row.Owner, Number: row.Number})
	}

	sortAccounts(accounts)
	return accounts, nil
}

func (s *ledgerStore) Tx(ctx context.Context, fn func(tx core.LedgerTx) error) error {
	var hooks []func()
	err := s.db.Tx(func(tx *db.DB) error {
		ltx := &gormTx{db: tx}
		if err := fn(ltx); err != nil {
			return err
		}

		hooks = ltx.hooks
		return nil
	})

	if err != nil {
		return err
	}

	for _, hook := range hooks {
		hook()
	}

	return nil
}

func listBalances(query *gorm.DB, account core.AccountID) (core.Balances, error) {
	var rows []*balance
	if err := query.Where("owner = ? AND number = ?", account.Owner, account.Number).Find(&rows).Error; err != nil {
		return nil, err
	}

	balances := make(core.Balances, len(rows))
	for _, row := range rows {
		balances[row.MarketID] = row.Amount
	}

	return balances, nil
}

type gormTx struct {
	db    *db.DB
	hooks []func()
}

func (tx *gormTx) find(account core.AccountID, marketID uint64) (*balance, error) {
	row := balance{
		Owner:    account.Owner,
		Number:   account.Number,
		MarketID: marketID,
	}

	err := tx.db.Update().
		Where("owner = ? AND number = ? AND market_id = ?", account.Owner, account.Number, marketID).
		First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		row.Amount = decimal.Zero
		return &row, nil
	}

	return &row, err
}

func (tx *gormTx) Balance(ctx context.Context, account core.AccountID, marketID uint64) (decimal.Decimal, error) {
	row, err := tx.find(account, marketID)
	if err != nil {
		return decimal.Zero, err
	}

	return row.Amount, nil
}

func (tx *gormTx) Balances(ctx context.Context, account core.AccountID) (core.Balances, error) {
	return listBalances(tx.db.Update(), account)
}

func (tx *gormTx) Add(ctx context.Context, account core.AccountID, marketID uint64, delta decimal.Decimal) error {
	if err := validDelta(account, delta); err != nil {
		return err
	}

	row, err := tx.find(account, marketID)
	if err != nil {
		return err
	}

	row.Amount = row.Amount.Add(delta)
	if row.ID == 0 {
		return tx.db.Update().Create(row).Error
	}

	return tx.update(row)
}

// update writes row if its version is still the stored one
func (tx *gormTx) update(row *balance) error {
	version := row.Version
	row.Version++
	update := tx.db.Update().Model(row).
		Where("version = ?", version).
		Updates(map[string]interface{}{
			"amount":  row.Amount,
			"version": row.Version,
		})
	if update.Error != nil {
		return update.Error
	}

	if update.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (tx *gormTx) Transfer(ctx context.Context, from, to core.AccountID, marketID uint64, amount decimal.Decimal) error {
	if err := tx.Add(ctx, from, marketID, amount.Neg()); err != nil {
		return err
	}

	return tx.Add(ctx, to, marketID, amount)
}

func (tx *gormTx) OnCommit(fn func()) {
	tx.hooks = append(tx.hooks, fn)
}
