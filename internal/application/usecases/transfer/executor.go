// Package transfer implements the transaction execution engine: the public
// transfer operations (top-up, bonus, purchase), balance and history reads,
// and the shared executor that performs the locked double-entry write with
// at-most-once semantics.
package transfer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/arcadia-gg/walletcore/internal/application/dtos"
	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
	"github.com/arcadia-gg/walletcore/internal/domain/events"
)

// direction fixes which side of the transfer is the well-known system wallet.
type direction struct {
	systemAccountID uuid.UUID
	systemIsSource  bool
}

var (
	// Top-ups and bonuses issue new value out of the Treasury.
	directionFromTreasury = direction{systemAccountID: entities.TreasuryAccountID, systemIsSource: true}
	// Purchases sink spent value into Revenue.
	directionToRevenue = direction{systemAccountID: entities.RevenueAccountID, systemIsSource: false}
)

// executor carries the shared machinery of the three mutating operations.
//
// Execution protocol (all inside one unit of work):
//  1. idempotency cache lookup - hit returns the cached payload
//  2. resolve the user wallet and the system wallet
//  3. lock both wallets in sorted id order
//  4. verify the balance floor, mutate both balances (+version)
//  5. insert the transaction row and the Debit/Credit ledger pair
//  6. store the response in the idempotency cache (no-op on collision)
//
// A unique-key collision on the transaction insert is recovered outside the
// rolled-back transaction: re-read the cache and, if the winner's response is
// there, return it as an idempotent replay.
type executor struct {
	wallets      ports.WalletRepository
	transactions ports.TransactionRepository
	ledger       ports.LedgerRepository
	idempotency  ports.IdempotencyRepository
	publisher    ports.EventPublisher
	uow          ports.UnitOfWork
	ttl          time.Duration
	logger       *slog.Logger
}

func newExecutor(
	wallets ports.WalletRepository,
	transactions ports.TransactionRepository,
	ledger ports.LedgerRepository,
	idempotency ports.IdempotencyRepository,
	publisher ports.EventPublisher,
	uow ports.UnitOfWork,
	idempotencyTTL time.Duration,
	logger *slog.Logger,
) *executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &executor{
		wallets:      wallets,
		transactions: transactions,
		ledger:       ledger,
		idempotency:  idempotency,
		publisher:    publisher,
		uow:          uow,
		ttl:          idempotencyTTL,
		logger:       logger,
	}
}

// validate checks the uniform preconditions of every mutating operation.
func validate(cmd dtos.TransferCommand) (uuid.UUID, error) {
	if cmd.UserID == "" {
		return uuid.Nil, domainerrors.NewValidation("user_id", "must not be empty")
	}
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return uuid.Nil, domainerrors.NewValidation("user_id", "must be a valid UUID")
	}
	if cmd.AssetCode == "" {
		return uuid.Nil, domainerrors.NewValidation("asset_code", "must not be empty")
	}
	if cmd.Amount <= 0 {
		return uuid.Nil, domainerrors.NewValidation("amount", "must be a positive integer")
	}
	if len(cmd.IdempotencyKey) > entities.MaxIdempotencyKeyLength {
		return uuid.Nil, domainerrors.NewValidation("idempotency_key", "must be at most 255 characters")
	}
	return userID, nil
}

// execute runs one transfer of the given kind.
func (e *executor) execute(ctx context.Context, kind entities.TransactionKind, dir direction, cmd dtos.TransferCommand) (*dtos.TransferResult, error) {
	userID, err := validate(cmd)
	if err != nil {
		return nil, err
	}

	var result *dtos.TransferResult

	err = e.uow.Execute(ctx, func(txCtx context.Context) error {
		// 1. Idempotency cache: a hit means a completed prior attempt.
		if cmd.IdempotencyKey != "" {
			cached, err := e.lookupCached(txCtx, cmd.IdempotencyKey)
			if err != nil {
				return err
			}
			if cached != nil {
				result = cached
				return nil
			}
		}

		// 2. Resolve both wallets. No locks yet: this read only names the
		// rows that the lock step will fetch by primary key.
		userWallet, err := e.wallets.FindByAccountAndAsset(txCtx, userID, cmd.AssetCode)
		if err != nil {
			return err
		}
		systemWallet, err := e.wallets.FindByAccountAndAsset(txCtx, dir.systemAccountID, cmd.AssetCode)
		if err != nil {
			return err
		}
		// A system account id passed as user_id resolves both sides to the
		// same wallet. Reject before locking.
		if userWallet.ID() == systemWallet.ID() {
			return domainerrors.NewValidation("user_id", "must not be a system account")
		}

		source, dest := userWallet, systemWallet
		if dir.systemIsSource {
			source, dest = systemWallet, userWallet
		}

		// 3. Exclusive row locks, acquired in sorted id order.
		locked, err := e.wallets.LockWallets(txCtx, []uuid.UUID{source.ID(), dest.ID()})
		if err != nil {
			return err
		}
		// Decisions below are made against the locked state, not the
		// earlier unlocked read.
		source, dest = locked[source.ID()], locked[dest.ID()]

		if source.AssetTypeID() != dest.AssetTypeID() {
			return domainerrors.NewValidation("asset_code", "source and destination wallets hold different assets")
		}

		// 4. Balance floor, then the paired mutation. Source before
		// destination, for deterministic traces.
		sourceBefore, destBefore := source.Balance(), dest.Balance()
		if err := source.Debit(cmd.Amount); err != nil {
			return err
		}
		if err := dest.Credit(cmd.Amount); err != nil {
			return err
		}
		if err := e.wallets.UpdateBalance(txCtx, source); err != nil {
			return err
		}
		if err := e.wallets.UpdateBalance(txCtx, dest); err != nil {
			return err
		}

		// 5. Transaction row plus the Debit/Credit ledger pair.
		tx, err := entities.NewTransaction(kind, source.ID(), dest.ID(), source.AssetTypeID(), cmd.Amount, cmd.IdempotencyKey, cmd.Description, cmd.Metadata)
		if err != nil {
			return err
		}
		if err := e.transactions.Create(txCtx, tx); err != nil {
			return err
		}
		debit := entities.NewLedgerEntry(tx.ID, source.ID(), entities.EntryTypeDebit, cmd.Amount, sourceBefore, source.Balance())
		credit := entities.NewLedgerEntry(tx.ID, dest.ID(), entities.EntryTypeCredit, cmd.Amount, destBefore, dest.Balance())
		if err := e.ledger.AppendPair(txCtx, debit, credit); err != nil {
			return err
		}

		result = &dtos.TransferResult{
			TransactionID: tx.ID,
			Kind:          kind,
			AssetCode:     cmd.AssetCode,
			Amount:        cmd.Amount,
			Source: dtos.WalletBalanceChange{
				WalletID:      source.ID(),
				BalanceBefore: sourceBefore,
				BalanceAfter:  source.Balance(),
			},
			Destination: dtos.WalletBalanceChange{
				WalletID:      dest.ID(),
				BalanceBefore: destBefore,
				BalanceAfter:  dest.Balance(),
			},
			Description: cmd.Description,
			CreatedAt:   tx.CreatedAt,
		}

		// 6. Cache the response; committed together with the side effects.
		if cmd.IdempotencyKey != "" {
			if err := e.storeCached(txCtx, cmd.IdempotencyKey, result); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		// Duplicate-key two-phase recovery: the losing side of a same-key
		// race lands here after its transaction rolled back. The winner has
		// either committed (cache hit) or will - only a truly foreign
		// duplicate surfaces as DUPLICATE_TRANSACTION.
		if domainerrors.IsCode(err, domainerrors.CodeDuplicateTransaction) && cmd.IdempotencyKey != "" {
			cached, lookupErr := e.lookupCached(ctx, cmd.IdempotencyKey)
			if lookupErr == nil && cached != nil {
				return cached, nil
			}
		}
		return nil, err
	}

	if !result.Idempotent {
		e.publishCompleted(ctx, result)
	}
	return result, nil
}

// lookupCached returns the deserialized prior response, tagged idempotent.
func (e *executor) lookupCached(ctx context.Context, key string) (*dtos.TransferResult, error) {
	record, err := e.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	var cached dtos.TransferResult
	if err := json.Unmarshal(record.Response, &cached); err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeInternal, "failed to decode cached response", err)
	}
	cached.Idempotent = true
	return &cached, nil
}

// storeCached serializes the response into the idempotency cache.
func (e *executor) storeCached(ctx context.Context, key string, result *dtos.TransferResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "failed to encode response for idempotency cache", err)
	}
	now := time.Now().UTC()
	return e.idempotency.Store(ctx, &entities.IdempotencyRecord{
		Key:        key,
		Response:   payload,
		StatusCode: http.StatusCreated,
		CreatedAt:  now,
		ExpiresAt:  now.Add(e.ttl),
	})
}

// publishCompleted emits the post-commit event. Best-effort: a publish
// failure is logged and swallowed, the ledger is the source of truth.
func (e *executor) publishCompleted(ctx context.Context, result *dtos.TransferResult) {
	if e.publisher == nil {
		return
	}
	tx := &entities.Transaction{
		ID:             result.TransactionID,
		Kind:           result.Kind,
		SourceWalletID: result.Source.WalletID,
		DestWalletID:   result.Destination.WalletID,
		Amount:         result.Amount,
	}
	event := events.NewTransferCompleted(tx, result.AssetCode)
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warn("failed to publish transfer event",
			slog.String("transaction_id", result.TransactionID.String()),
			slog.String("error", err.Error()),
		)
	}
}
