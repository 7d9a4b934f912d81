package services

import (
	"context"
	"strings"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/storage"
)

// LedgerService owns every balance change. Each operation writes the
// transaction row and its balance effects in one unit of work.
type LedgerService struct {
	base
	events EventPublisher
}

type NewTransaction struct {
	Type          core.TransactionType
	Amount        core.Money
	Description   string
	Date          time.Time
	CategoryID    string
	FromAccountID string
	ToAccountID   string
}

func NewLedgerService(store storage.Store, events EventPublisher, opts Options) *LedgerService {
	return &LedgerService{
		base:   newBase(store, opts.withDefaults(), log.ComponentLedger),
		events: events,
	}
}

// Create records a transaction and applies its balance effect.
func (s *LedgerService) Create(ctx context.Context, owner string, in NewTransaction) (core.Transaction, error) {
	now := s.now()
	t := core.Transaction{
		ID:            newID(),
		Owner:         owner,
		Type:          in.Type,
		Amount:        in.Amount,
		Description:   strings.TrimSpace(in.Description),
		CategoryID:    in.CategoryID,
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
		Status:        core.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if !in.Date.IsZero() {
		t.Date = core.NormalizeInstant(in.Date)
	}
	if owner == "" {
		return core.Transaction{}, core.ErrMissingOwner
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := t.ValidateWith(txReferences{ctx: ctx, tx: tx, owner: owner}); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, &t); err != nil {
			return err
		}
		return applyEffects(ctx, tx, owner, core.NetEffects(core.Effects(t)))
	})
	if err != nil {
		return core.Transaction{}, s.fail(ctx, "create transaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction created", s.fields(t, log.OpCreate)...)
	s.publish(ctx, amqp.EventTransactionCreated, t)
	return t, nil
}

// Update merges patch into an active transaction. The old balance effect is
// reversed and the new one applied as a single net delta per account, after
// the merged transaction passes full validation.
func (s *LedgerService) Update(ctx context.Context, owner, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.IsEmpty() {
		return core.Transaction{}, core.ErrEmptyPatch
	}
	if patch.Description != nil {
		d := strings.TrimSpace(*patch.Description)
		patch.Description = &d
	}

	var updated core.Transaction
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		old, err := tx.LockTransaction(ctx, owner, id)
		if err != nil {
			return err
		}
		candidate := patch.Apply(old)
		candidate.UpdatedAt = s.now()
		if err := candidate.ValidateWith(txReferences{ctx: ctx, tx: tx, owner: owner}); err != nil {
			return err
		}
		if err := tx.UpdateTransaction(ctx, candidate); err != nil {
			return err
		}
		if err := applyEffects(ctx, tx, owner, core.ReconcileEffects(old, candidate)); err != nil {
			return err
		}
		updated = candidate
		return nil
	})
	if err != nil {
		return core.Transaction{}, s.fail(ctx, "update transaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction updated", s.fields(updated, log.OpUpdate)...)
	s.publish(ctx, amqp.EventTransactionUpdated, updated)
	return updated, nil
}

// Delete reverses the balance effect and soft-deletes the transaction.
// Deleting an already deleted transaction is a NotFoundError.
func (s *LedgerService) Delete(ctx context.Context, owner, id string) (core.Transaction, error) {
	var deleted core.Transaction
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		old, err := tx.LockTransaction(ctx, owner, id)
		if err != nil {
			return err
		}
		at := s.now()
		if err := tx.MarkTransactionDeleted(ctx, owner, id, at); err != nil {
			return err
		}
		if err := applyEffects(ctx, tx, owner, core.NetEffects(core.Reverse(core.Effects(old)))); err != nil {
			return err
		}
		deleted = old
		deleted.Status = core.StatusDeleted
		deleted.UpdatedAt = at
		return nil
	})
	if err != nil {
		return core.Transaction{}, s.fail(ctx, "delete transaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted", s.fields(deleted, log.OpDelete)...)
	s.publish(ctx, amqp.EventTransactionDeleted, deleted)
	return deleted, nil
}

// Get returns one active transaction.
func (s *LedgerService) Get(ctx context.Context, owner, id string) (core.Transaction, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	t, err := s.store.GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, s.fail(ctx, "get transaction", err)
	}
	return t, nil
}

// BulkImport creates each row independently, in order. Validation and
// not-found failures are recorded per row and the batch continues; any other
// failure stops the batch and is returned with the partial result.
func (s *LedgerService) BulkImport(ctx context.Context, owner string, rows []core.ImportRow) (core.ImportResult, error) {
	var result core.ImportResult
	for i, row := range rows {
		line := row.Line
		if line == 0 {
			line = i + 1
		}
		if err := ctx.Err(); err != nil {
			return result, core.Unavailable(err)
		}

		in, err := parseImportRow(row)
		if err == nil {
			var t core.Transaction
			t, err = s.Create(ctx, owner, in)
			if err == nil {
				result.Imported++
				result.Created = append(result.Created, t)
				continue
			}
		}

		kind := core.KindOf(err)
		if kind != core.KindValidation && kind != core.KindNotFound {
			s.logger.ErrorContext(ctx, "Import aborted", log.FieldOwner, owner, log.FieldRow, line, log.FieldError, err)
			return result, err
		}
		result.Failed = append(result.Failed, core.ImportFailure{Row: line, Kind: kind, Message: core.PublicMessage(err)})
	}

	s.logger.InfoContext(ctx, "Import finished",
		log.FieldOwner, owner,
		log.FieldOperation, log.OpImport,
		"imported", result.Imported,
		"failed", len(result.Failed))
	return result, nil
}

func parseImportRow(row core.ImportRow) (NewTransaction, error) {
	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(row.Type)))
	if !typ.IsValid() {
		return NewTransaction{}, core.ErrInvalidType
	}
	amount, err := core.ParsePositiveMoney(row.Amount)
	if err != nil {
		return NewTransaction{}, err
	}
	date, err := core.ParseInstant(row.TransactionDate)
	if err != nil {
		return NewTransaction{}, err
	}
	return NewTransaction{
		Type:          typ,
		Amount:        amount,
		Description:   row.Description,
		Date:          date,
		CategoryID:    strings.TrimSpace(row.CategoryID),
		FromAccountID: strings.TrimSpace(row.PaymentMethodID),
		ToAccountID:   strings.TrimSpace(row.ToPaymentMethodID),
	}, nil
}

// txReferences resolves transaction references inside the current unit of
// work.
type txReferences struct {
	ctx   context.Context
	tx    storage.Tx
	owner string
}

func (r txReferences) CheckAccount(id string) error {
	_, err := r.tx.GetAccount(r.ctx, r.owner, id)
	return err
}

func (r txReferences) CategoryType(id string) (core.CategoryType, error) {
	c, err := r.tx.GetCategory(r.ctx, r.owner, id)
	if err != nil {
		return "", err
	}
	return c.Type, nil
}

// applyEffects adjusts balances in the given order; callers pass NetEffects
// output, which is sorted by account id.
func applyEffects(ctx context.Context, tx storage.Tx, owner string, effects []core.Effect) error {
	for _, e := range effects {
		if err := tx.AdjustBalance(ctx, owner, e.AccountID, e.Delta); err != nil {
			return err
		}
	}
	return nil
}

func (s *LedgerService) fields(t core.Transaction, op string) []any {
	return log.NewFields().
		WithOwner(t.Owner).
		WithTransaction(t.ID, string(t.Type), t.Amount.Cents).
		WithOperation(op).
		ToSlice()
}

// publish emits ev after commit. Failures are logged, not returned: the
// ledger change is already durable.
func (s *LedgerService) publish(ctx context.Context, event amqp.EventType, t core.Transaction) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(event, t)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldEvent, event,
			log.FieldTransaction, t.ID,
			log.FieldError, err)
	}
}
