package transfer

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arcadia-gg/walletcore/internal/application/dtos"
	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
	"github.com/arcadia-gg/walletcore/internal/domain/events"
)

// mockWalletRepo is a mock implementation of ports.WalletRepository
type mockWalletRepo struct {
	findByAccountAndAssetFunc func(ctx context.Context, accountID uuid.UUID, assetCode string) (*entities.Wallet, error)
	findByAccountIDFunc       func(ctx context.Context, accountID uuid.UUID) ([]*entities.Wallet, error)
	lockWalletsFunc           func(ctx context.Context, walletIDs []uuid.UUID) (map[uuid.UUID]*entities.Wallet, error)
	updateBalanceFunc         func(ctx context.Context, wallet *entities.Wallet) error

	lockedIDs      []uuid.UUID
	updatedWallets []*entities.Wallet
}

func (m *mockWalletRepo) FindByAccountAndAsset(ctx context.Context, accountID uuid.UUID, assetCode string) (*entities.Wallet, error) {
	if m.findByAccountAndAssetFunc != nil {
		return m.findByAccountAndAssetFunc(ctx, accountID, assetCode)
	}
	return nil, domainerrors.NewNotFound("wallet", "")
}

func (m *mockWalletRepo) FindByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entities.Wallet, error) {
	if m.findByAccountIDFunc != nil {
		return m.findByAccountIDFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *mockWalletRepo) LockWallets(ctx context.Context, walletIDs []uuid.UUID) (map[uuid.UUID]*entities.Wallet, error) {
	m.lockedIDs = walletIDs
	if m.lockWalletsFunc != nil {
		return m.lockWalletsFunc(ctx, walletIDs)
	}
	return nil, domainerrors.NewNotFound("wallet", "")
}

func (m *mockWalletRepo) UpdateBalance(ctx context.Context, wallet *entities.Wallet) error {
	m.updatedWallets = append(m.updatedWallets, wallet)
	if m.updateBalanceFunc != nil {
		return m.updateBalanceFunc(ctx, wallet)
	}
	return nil
}

// mockTransactionRepo is a mock implementation of ports.TransactionRepository
type mockTransactionRepo struct {
	createFunc           func(ctx context.Context, tx *entities.Transaction) error
	historyByAccountFunc func(ctx context.Context, accountID uuid.UUID, assetCode string, limit, offset int) ([]ports.TransactionRecord, error)

	createdTx *entities.Transaction
}

func (m *mockTransactionRepo) Create(ctx context.Context, tx *entities.Transaction) error {
	m.createdTx = tx
	if m.createFunc != nil {
		return m.createFunc(ctx, tx)
	}
	return nil
}

func (m *mockTransactionRepo) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	return nil, nil
}

func (m *mockTransactionRepo) HistoryByAccount(ctx context.Context, accountID uuid.UUID, assetCode string, limit, offset int) ([]ports.TransactionRecord, error) {
	if m.historyByAccountFunc != nil {
		return m.historyByAccountFunc(ctx, accountID, assetCode, limit, offset)
	}
	return nil, nil
}

// mockLedgerRepo is a mock implementation of ports.LedgerRepository
type mockLedgerRepo struct {
	appendPairFunc func(ctx context.Context, debit, credit *entities.LedgerEntry) error

	debit  *entities.LedgerEntry
	credit *entities.LedgerEntry
}

func (m *mockLedgerRepo) AppendPair(ctx context.Context, debit, credit *entities.LedgerEntry) error {
	m.debit, m.credit = debit, credit
	if m.appendPairFunc != nil {
		return m.appendPairFunc(ctx, debit, credit)
	}
	return nil
}

func (m *mockLedgerRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*entities.LedgerEntry, error) {
	return nil, nil
}

// mockIdempotencyRepo is a mock implementation of ports.IdempotencyRepository
type mockIdempotencyRepo struct {
	lookupFunc func(ctx context.Context, key string) (*entities.IdempotencyRecord, error)
	storeFunc  func(ctx context.Context, record *entities.IdempotencyRecord) error

	lookups int
	stored  *entities.IdempotencyRecord
}

func (m *mockIdempotencyRepo) Lookup(ctx context.Context, key string) (*entities.IdempotencyRecord, error) {
	m.lookups++
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, key)
	}
	return nil, nil
}

func (m *mockIdempotencyRepo) Store(ctx context.Context, record *entities.IdempotencyRecord) error {
	m.stored = record
	if m.storeFunc != nil {
		return m.storeFunc(ctx, record)
	}
	return nil
}

func (m *mockIdempotencyRepo) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// mockUnitOfWork runs the callback directly, no real transaction
type mockUnitOfWork struct {
	executions int
}

func (m *mockUnitOfWork) Execute(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.executions++
	return fn(ctx)
}

// mockPublisher records published events
type mockPublisher struct {
	publishFunc func(ctx context.Context, event events.DomainEvent) error

	published []events.DomainEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	m.published = append(m.published, event)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, event)
	}
	return nil
}

// testFixture wires an executor over fresh mocks
type testFixture struct {
	wallets      *mockWalletRepo
	transactions *mockTransactionRepo
	ledger       *mockLedgerRepo
	idempotency  *mockIdempotencyRepo
	uow          *mockUnitOfWork
	publisher    *mockPublisher
}

func newFixture() *testFixture {
	return &testFixture{
		wallets:      &mockWalletRepo{},
		transactions: &mockTransactionRepo{},
		ledger:       &mockLedgerRepo{},
		idempotency:  &mockIdempotencyRepo{},
		uow:          &mockUnitOfWork{},
		publisher:    &mockPublisher{},
	}
}

func (f *testFixture) topUp() *TopUpUseCase {
	return NewTopUpUseCase(f.wallets, f.transactions, f.ledger, f.idempotency, f.publisher, f.uow, time.Hour, nil)
}

func (f *testFixture) purchase() *PurchaseUseCase {
	return NewPurchaseUseCase(f.wallets, f.transactions, f.ledger, f.idempotency, f.publisher, f.uow, time.Hour, nil)
}

func (f *testFixture) bonus() *IssueBonusUseCase {
	return NewIssueBonusUseCase(f.wallets, f.transactions, f.ledger, f.idempotency, f.publisher, f.uow, time.Hour, nil)
}

func makeWallet(accountID uuid.UUID, balance int64, allowNegative bool) *entities.Wallet {
	now := time.Now().UTC()
	return entities.ReconstructWallet(
		uuid.New(), accountID, 1, "GOLD_COINS",
		balance, allowNegative, 1, now, now,
	)
}

// wireWallets makes the repo resolve and lock the two given wallets.
func (f *testFixture) wireWallets(userID uuid.UUID, userWallet, systemWallet *entities.Wallet) {
	f.wallets.findByAccountAndAssetFunc = func(ctx context.Context, accountID uuid.UUID, assetCode string) (*entities.Wallet, error) {
		if accountID == userID {
			return userWallet, nil
		}
		return systemWallet, nil
	}
	f.wallets.lockWalletsFunc = func(ctx context.Context, walletIDs []uuid.UUID) (map[uuid.UUID]*entities.Wallet, error) {
		return map[uuid.UUID]*entities.Wallet{
			userWallet.ID():   userWallet,
			systemWallet.ID(): systemWallet,
		}, nil
	}
}

// TestTopUpUseCase_Execute tests the happy path of a top-up
func TestTopUpUseCase_Execute(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	userWallet := makeWallet(userID, 0, false)
	treasuryWallet := makeWallet(entities.TreasuryAccountID, 0, true)
	f.wireWallets(userID, userWallet, treasuryWallet)

	result, err := f.topUp().Execute(context.Background(), dtos.TransferCommand{
		UserID:         userID.String(),
		AssetCode:      "GOLD_COINS",
		Amount:         500,
		IdempotencyKey: "topup-1",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}

	if result.Idempotent {
		t.Error("fresh transfer should not be marked idempotent")
	}
	if result.Kind != entities.TransactionKindTopUp {
		t.Errorf("Kind = %v, want TOP_UP", result.Kind)
	}
	if userWallet.Balance() != 500 {
		t.Errorf("user balance = %d, want 500", userWallet.Balance())
	}
	if treasuryWallet.Balance() != -500 {
		t.Errorf("treasury balance = %d, want -500", treasuryWallet.Balance())
	}
	if userWallet.Version() != 2 || treasuryWallet.Version() != 2 {
		t.Errorf("versions = %d/%d, want 2/2", userWallet.Version(), treasuryWallet.Version())
	}

	// Treasury is the source of a top-up
	if result.Source.WalletID != treasuryWallet.ID() {
		t.Error("source should be the treasury wallet")
	}
	if result.Destination.BalanceBefore != 0 || result.Destination.BalanceAfter != 500 {
		t.Errorf("destination change = %d -> %d, want 0 -> 500",
			result.Destination.BalanceBefore, result.Destination.BalanceAfter)
	}

	if len(f.wallets.updatedWallets) != 2 {
		t.Errorf("UpdateBalance calls = %d, want 2", len(f.wallets.updatedWallets))
	}
	if f.transactions.createdTx == nil {
		t.Fatal("transaction row was not created")
	}
	if f.transactions.createdTx.IdempotencyKey != "topup-1" {
		t.Error("transaction should carry the idempotency key")
	}

	// Debit on the treasury, Credit on the user, same transaction
	if f.ledger.debit == nil || f.ledger.credit == nil {
		t.Fatal("ledger pair was not appended")
	}
	if f.ledger.debit.WalletID != treasuryWallet.ID() {
		t.Error("debit entry should be on the treasury wallet")
	}
	if f.ledger.credit.WalletID != userWallet.ID() {
		t.Error("credit entry should be on the user wallet")
	}
	if f.ledger.debit.TransactionID != f.transactions.createdTx.ID {
		t.Error("debit entry should reference the created transaction")
	}
	if f.ledger.credit.BalanceBefore != 0 || f.ledger.credit.BalanceAfter != 500 {
		t.Errorf("credit continuity = %d -> %d, want 0 -> 500",
			f.ledger.credit.BalanceBefore, f.ledger.credit.BalanceAfter)
	}

	if f.idempotency.stored == nil || f.idempotency.stored.Key != "topup-1" {
		t.Error("response should be cached under the idempotency key")
	}
	if f.idempotency.stored != nil && f.idempotency.stored.StatusCode != http.StatusCreated {
		t.Errorf("cached status = %d, want %d", f.idempotency.stored.StatusCode, http.StatusCreated)
	}
	if len(f.publisher.published) != 1 {
		t.Errorf("published events = %d, want 1", len(f.publisher.published))
	}
	if f.uow.executions != 1 {
		t.Errorf("unit of work executions = %d, want 1", f.uow.executions)
	}
}

// TestExecutor_Validation tests the uniform precondition checks
func TestExecutor_Validation(t *testing.T) {
	f := newFixture()
	uc := f.topUp()

	tests := []struct {
		name string
		cmd  dtos.TransferCommand
	}{
		{"empty user id", dtos.TransferCommand{AssetCode: "GOLD_COINS", Amount: 10}},
		{"malformed user id", dtos.TransferCommand{UserID: "not-a-uuid", AssetCode: "GOLD_COINS", Amount: 10}},
		{"empty asset code", dtos.TransferCommand{UserID: uuid.NewString(), Amount: 10}},
		{"zero amount", dtos.TransferCommand{UserID: uuid.NewString(), AssetCode: "GOLD_COINS", Amount: 0}},
		{"negative amount", dtos.TransferCommand{UserID: uuid.NewString(), AssetCode: "GOLD_COINS", Amount: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.cmd)
			if !domainerrors.IsValidation(err) {
				t.Errorf("error code = %v, want VALIDATION", domainerrors.CodeOf(err))
			}
		})
	}

	if f.uow.executions != 0 {
		t.Errorf("no unit of work should start for invalid input, got %d", f.uow.executions)
	}
}

// TestPurchaseUseCase_InsufficientBalance tests the rejected spend
func TestPurchaseUseCase_InsufficientBalance(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	userWallet := makeWallet(userID, 10, false)
	revenueWallet := makeWallet(entities.RevenueAccountID, 0, true)
	f.wireWallets(userID, userWallet, revenueWallet)

	_, err := f.purchase().Execute(context.Background(), dtos.TransferCommand{
		UserID:    userID.String(),
		AssetCode: "GOLD_COINS",
		Amount:    100,
	})
	if !domainerrors.IsCode(err, domainerrors.CodeInsufficientBalance) {
		t.Fatalf("error code = %v, want INSUFFICIENT_BALANCE", domainerrors.CodeOf(err))
	}

	if f.transactions.createdTx != nil {
		t.Error("no transaction row should be created after a rejected debit")
	}
	if userWallet.Balance() != 10 {
		t.Errorf("user balance = %d, want untouched 10", userWallet.Balance())
	}
	if len(f.publisher.published) != 0 {
		t.Error("no event should be published on failure")
	}
}

// TestIssueBonusUseCase_Execute tests that bonuses also flow out of the Treasury
func TestIssueBonusUseCase_Execute(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	userWallet := makeWallet(userID, 50, false)
	treasuryWallet := makeWallet(entities.TreasuryAccountID, 0, true)
	f.wireWallets(userID, userWallet, treasuryWallet)

	result, err := f.bonus().Execute(context.Background(), dtos.TransferCommand{
		UserID:    userID.String(),
		AssetCode: "GOLD_COINS",
		Amount:    25,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if result.Kind != entities.TransactionKindBonus {
		t.Errorf("Kind = %v, want BONUS", result.Kind)
	}
	if userWallet.Balance() != 75 {
		t.Errorf("user balance = %d, want 75", userWallet.Balance())
	}

	// No key, so nothing to cache
	if f.idempotency.lookups != 0 || f.idempotency.stored != nil {
		t.Error("idempotency cache should be untouched without a key")
	}
}

// TestExecutor_IdempotentReplay tests the cache-hit short circuit
func TestExecutor_IdempotentReplay(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	prior := dtos.TransferResult{
		TransactionID: uuid.New(),
		Kind:          entities.TransactionKindTopUp,
		AssetCode:     "GOLD_COINS",
		Amount:        500,
		CreatedAt:     time.Now().UTC(),
	}
	payload, _ := json.Marshal(prior)
	f.idempotency.lookupFunc = func(ctx context.Context, key string) (*entities.IdempotencyRecord, error) {
		return &entities.IdempotencyRecord{Key: key, Response: payload, StatusCode: http.StatusCreated}, nil
	}

	result, err := f.topUp().Execute(context.Background(), dtos.TransferCommand{
		UserID:         userID.String(),
		AssetCode:      "GOLD_COINS",
		Amount:         500,
		IdempotencyKey: "topup-1",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}

	if !result.Idempotent {
		t.Error("replay should be marked idempotent")
	}
	if result.TransactionID != prior.TransactionID {
		t.Error("replay should return the original transaction id")
	}
	if f.wallets.lockedIDs != nil {
		t.Error("no locks should be taken on a cache hit")
	}
	if f.transactions.createdTx != nil {
		t.Error("no new transaction should be created on a cache hit")
	}
	if len(f.publisher.published) != 0 {
		t.Error("no event should be published for a replay")
	}
}

// TestExecutor_DuplicateKeyRecovery tests the losing side of a same-key race
func TestExecutor_DuplicateKeyRecovery(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	userWallet := makeWallet(userID, 0, false)
	treasuryWallet := makeWallet(entities.TreasuryAccountID, 0, true)
	f.wireWallets(userID, userWallet, treasuryWallet)

	// The in-tx lookup misses; the insert collides; the post-rollback
	// lookup finds the winner's committed response.
	winner := dtos.TransferResult{
		TransactionID: uuid.New(),
		Kind:          entities.TransactionKindTopUp,
		AssetCode:     "GOLD_COINS",
		Amount:        500,
	}
	payload, _ := json.Marshal(winner)
	f.idempotency.lookupFunc = func(ctx context.Context, key string) (*entities.IdempotencyRecord, error) {
		if f.idempotency.lookups == 1 {
			return nil, nil
		}
		return &entities.IdempotencyRecord{Key: key, Response: payload, StatusCode: http.StatusCreated}, nil
	}
	f.transactions.createFunc = func(ctx context.Context, tx *entities.Transaction) error {
		return domainerrors.NewDuplicateTransaction("topup-1")
	}

	result, err := f.topUp().Execute(context.Background(), dtos.TransferCommand{
		UserID:         userID.String(),
		AssetCode:      "GOLD_COINS",
		Amount:         500,
		IdempotencyKey: "topup-1",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v, want recovered replay", err)
	}

	if !result.Idempotent {
		t.Error("recovered response should be marked idempotent")
	}
	if result.TransactionID != winner.TransactionID {
		t.Error("recovery should return the winner's transaction id")
	}
	if f.idempotency.lookups != 2 {
		t.Errorf("cache lookups = %d, want 2 (in-tx miss + post-rollback hit)", f.idempotency.lookups)
	}
	if len(f.publisher.published) != 0 {
		t.Error("the losing side must not publish an event")
	}
}

// TestExecutor_DuplicateKeyWithoutCache tests the foreign-duplicate case
func TestExecutor_DuplicateKeyWithoutCache(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	userWallet := makeWallet(userID, 0, false)
	treasuryWallet := makeWallet(entities.TreasuryAccountID, 0, true)
	f.wireWallets(userID, userWallet, treasuryWallet)

	f.transactions.createFunc = func(ctx context.Context, tx *entities.Transaction) error {
		return domainerrors.NewDuplicateTransaction("topup-1")
	}

	_, err := f.topUp().Execute(context.Background(), dtos.TransferCommand{
		UserID:         userID.String(),
		AssetCode:      "GOLD_COINS",
		Amount:         500,
		IdempotencyKey: "topup-1",
	})
	if !domainerrors.IsCode(err, domainerrors.CodeDuplicateTransaction) {
		t.Fatalf("error code = %v, want DUPLICATE_TRANSACTION", domainerrors.CodeOf(err))
	}
}

// TestExecutor_RejectsSystemAccountAsUser tests the self-transfer guard:
// a system account id in user_id resolves both sides to the same wallet
func TestExecutor_RejectsSystemAccountAsUser(t *testing.T) {
	f := newFixture()
	treasuryWallet := makeWallet(entities.TreasuryAccountID, 0, true)
	f.wireWallets(entities.TreasuryAccountID, treasuryWallet, treasuryWallet)

	_, err := f.topUp().Execute(context.Background(), dtos.TransferCommand{
		UserID:    entities.TreasuryAccountID.String(),
		AssetCode: "GOLD_COINS",
		Amount:    10,
	})
	if !domainerrors.IsValidation(err) {
		t.Fatalf("error code = %v, want VALIDATION", domainerrors.CodeOf(err))
	}

	if f.wallets.lockedIDs != nil {
		t.Error("no locks should be taken for a rejected self transfer")
	}
	if treasuryWallet.Balance() != 0 || treasuryWallet.Version() != 1 {
		t.Error("the wallet must stay untouched")
	}
}

// TestExecutor_AssetMismatch tests the cross-asset guard after locking
func TestExecutor_AssetMismatch(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	userWallet := makeWallet(userID, 100, false)
	now := time.Now().UTC()
	otherAssetWallet := entities.ReconstructWallet(
		uuid.New(), entities.TreasuryAccountID, 2, "GEMS",
		0, true, 1, now, now,
	)
	f.wireWallets(userID, userWallet, otherAssetWallet)

	_, err := f.topUp().Execute(context.Background(), dtos.TransferCommand{
		UserID:    userID.String(),
		AssetCode: "GOLD_COINS",
		Amount:    10,
	})
	if !domainerrors.IsValidation(err) {
		t.Errorf("error code = %v, want VALIDATION", domainerrors.CodeOf(err))
	}
}

// TestExecutor_PublishFailureIsSwallowed tests the best-effort event contract
func TestExecutor_PublishFailureIsSwallowed(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	userWallet := makeWallet(userID, 0, false)
	treasuryWallet := makeWallet(entities.TreasuryAccountID, 0, true)
	f.wireWallets(userID, userWallet, treasuryWallet)

	f.publisher.publishFunc = func(ctx context.Context, event events.DomainEvent) error {
		return domainerrors.New(domainerrors.CodeInternal, "broker unavailable")
	}

	result, err := f.topUp().Execute(context.Background(), dtos.TransferCommand{
		UserID:    userID.String(),
		AssetCode: "GOLD_COINS",
		Amount:    42,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v, publish failures must not fail the transfer", err)
	}
	if result == nil || result.Amount != 42 {
		t.Error("the committed result should still be returned")
	}
}
