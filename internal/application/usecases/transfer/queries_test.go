package transfer

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/arcadia-gg/walletcore/internal/application/dtos"
	"github.com/arcadia-gg/walletcore/internal/application/ports"
	"github.com/arcadia-gg/walletcore/internal/domain/entities"
	domainerrors "github.com/arcadia-gg/walletcore/internal/domain/errors"
)

// TestGetBalanceUseCase_SingleAsset tests the filtered balance read
func TestGetBalanceUseCase_SingleAsset(t *testing.T) {
	userID := uuid.New()
	wallet := makeWallet(userID, 250, false)

	repo := &mockWalletRepo{
		findByAccountAndAssetFunc: func(ctx context.Context, accountID uuid.UUID, assetCode string) (*entities.Wallet, error) {
			if accountID != userID || assetCode != "GOLD_COINS" {
				t.Errorf("unexpected lookup: %v %s", accountID, assetCode)
			}
			return wallet, nil
		},
	}

	balances, err := NewGetBalanceUseCase(repo).Execute(context.Background(), userID.String(), "GOLD_COINS")
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if len(balances) != 1 {
		t.Fatalf("len(balances) = %d, want 1", len(balances))
	}
	if balances[0].Balance != 250 || balances[0].AssetCode != "GOLD_COINS" {
		t.Errorf("balance row = %+v, want 250 GOLD_COINS", balances[0])
	}
}

// TestGetBalanceUseCase_AllAssets tests the unfiltered balance read
func TestGetBalanceUseCase_AllAssets(t *testing.T) {
	userID := uuid.New()
	repo := &mockWalletRepo{
		findByAccountIDFunc: func(ctx context.Context, accountID uuid.UUID) ([]*entities.Wallet, error) {
			return []*entities.Wallet{
				makeWallet(userID, 100, false),
				makeWallet(userID, 30, false),
			}, nil
		},
	}

	balances, err := NewGetBalanceUseCase(repo).Execute(context.Background(), userID.String(), "")
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if len(balances) != 2 {
		t.Errorf("len(balances) = %d, want 2", len(balances))
	}
}

// TestGetBalanceUseCase_NoWallets tests the empty-account case
func TestGetBalanceUseCase_NoWallets(t *testing.T) {
	repo := &mockWalletRepo{
		findByAccountIDFunc: func(ctx context.Context, accountID uuid.UUID) ([]*entities.Wallet, error) {
			return nil, nil
		},
	}

	_, err := NewGetBalanceUseCase(repo).Execute(context.Background(), uuid.NewString(), "")
	if !domainerrors.IsNotFound(err) {
		t.Errorf("error code = %v, want NOT_FOUND", domainerrors.CodeOf(err))
	}
}

// TestGetBalanceUseCase_InvalidUserID tests input validation
func TestGetBalanceUseCase_InvalidUserID(t *testing.T) {
	uc := NewGetBalanceUseCase(&mockWalletRepo{})

	for _, userID := range []string{"", "not-a-uuid"} {
		_, err := uc.Execute(context.Background(), userID, "")
		if !domainerrors.IsValidation(err) {
			t.Errorf("Execute(%q) error code = %v, want VALIDATION", userID, domainerrors.CodeOf(err))
		}
	}
}

// TestListTransactionsUseCase_Paging tests limit clamping and offset defaults
func TestListTransactionsUseCase_Paging(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, 20, 0},
		{"explicit limit", 50, 10, 50, 10},
		{"clamped to max", 500, 0, 100, 0},
		{"negative offset", 10, -5, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit, gotOffset int
			repo := &mockTransactionRepo{
				historyByAccountFunc: func(ctx context.Context, accountID uuid.UUID, assetCode string, limit, offset int) ([]ports.TransactionRecord, error) {
					gotLimit, gotOffset = limit, offset
					return nil, nil
				},
			}
			uc := NewListTransactionsUseCase(repo, 20, 100)

			_, err := uc.Execute(context.Background(), dtos.HistoryQuery{
				UserID: uuid.NewString(),
				Limit:  tt.limit,
				Offset: tt.offset,
			})
			if err != nil {
				t.Fatalf("Execute() error = %v, want nil", err)
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("paging = %d/%d, want %d/%d", gotLimit, gotOffset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

// TestListTransactionsUseCase_Mapping tests the ledger-joined row mapping
func TestListTransactionsUseCase_Mapping(t *testing.T) {
	userID := uuid.New()
	tx, err := entities.NewTransaction(entities.TransactionKindPurchase, uuid.New(), uuid.New(), 1, 75, "", "sword", nil)
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	entry := entities.NewLedgerEntry(tx.ID, tx.SourceWalletID, entities.EntryTypeDebit, 75, 100, 25)

	repo := &mockTransactionRepo{
		historyByAccountFunc: func(ctx context.Context, accountID uuid.UUID, assetCode string, limit, offset int) ([]ports.TransactionRecord, error) {
			return []ports.TransactionRecord{{Transaction: tx, Entry: entry, AssetCode: "GOLD_COINS"}}, nil
		},
	}
	uc := NewListTransactionsUseCase(repo, 20, 100)

	rows, err := uc.Execute(context.Background(), dtos.HistoryQuery{UserID: userID.String()})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.TransactionID != tx.ID || row.Kind != entities.TransactionKindPurchase {
		t.Errorf("row identity = %+v, want purchase %v", row, tx.ID)
	}
	if row.EntryType != entities.EntryTypeDebit || row.BalanceBefore != 100 || row.BalanceAfter != 25 {
		t.Errorf("row entry = %v %d -> %d, want DEBIT 100 -> 25", row.EntryType, row.BalanceBefore, row.BalanceAfter)
	}
	if row.AssetCode != "GOLD_COINS" {
		t.Errorf("AssetCode = %q, want GOLD_COINS", row.AssetCode)
	}
}
