package services

import (
	"context"
	"strings"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

// AccountService manages payment methods. Balances only change through the
// ledger.
type AccountService struct {
	base
}

type NewAccount struct {
	Name           string
	Kind           core.AccountKind
	InitialBalance core.Money
	Icon           string
	Color          string
}

func NewAccountService(store storage.Store, opts Options) *AccountService {
	return &AccountService{base: newBase(store, opts.withDefaults(), log.ComponentAccount)}
}

// CreateAccount opens an account whose current balance starts at the initial
// balance. Negative initial balances are allowed (credit cards).
func (s *AccountService) CreateAccount(ctx context.Context, owner string, in NewAccount) (core.Account, error) {
	now := s.now()
	a := core.Account{
		ID:             newID(),
		Owner:          owner,
		Name:           strings.TrimSpace(in.Name),
		Kind:           in.Kind,
		Icon:           in.Icon,
		Color:          in.Color,
		InitialBalance: in.InitialBalance,
		CurrentBalance: in.InitialBalance,
		IsActive:       true,
		CreatedAt:      now,
	}
	if a.Icon == "" {
		a.Icon = core.DefaultAccountIcon
	}
	if a.Color == "" {
		a.Color = core.DefaultAccountColor
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertAccount(ctx, a)
	})
	if err != nil {
		return core.Account{}, s.fail(ctx, "create account", err)
	}

	s.logger.InfoContext(ctx, "Account created",
		log.FieldOwner, owner,
		log.FieldAccount, a.ID,
		log.FieldAmountCents, a.InitialBalance.Cents)
	return a, nil
}

// ListAccounts returns the owner's active accounts in creation order.
func (s *AccountService) ListAccounts(ctx context.Context, owner string) ([]core.Account, error) {
	if owner == "" {
		return nil, core.ErrMissingOwner
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	accounts, err := s.store.ListAccounts(ctx, owner)
	if err != nil {
		return nil, s.fail(ctx, "list accounts", err)
	}
	return accounts, nil
}

// DeactivateAccount soft-deletes an account. Accounts still referenced by
// active transactions are kept, since their balance effects could no longer
// be reversed. The account row is locked by the deactivation before the
// references are counted, so a ledger write in flight either commits first
// and is counted or finds the account inactive.
func (s *AccountService) DeactivateAccount(ctx context.Context, owner, id string) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.DeactivateAccount(ctx, owner, id); err != nil {
			return err
		}
		n, err := tx.CountAccountTransactions(ctx, owner, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return core.Conflictf("payment method %s is used by %d active transactions", id, n)
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, "deactivate account", err)
	}
	s.logger.InfoContext(ctx, "Account deactivated", log.FieldOwner, owner, log.FieldAccount, id)
	return nil
}
