package usecase

import (
	"context"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
)

// Ledger 是帳戶的存取介面，負責對單一帳戶的互斥存取
type Ledger interface {
	// 不分 Deposit/Withdraw，直接看 op.Type 決定；結果寫回 op
	PostOperation(ctx context.Context, op *domain.Operation) error
	// GetBalance 取得帳戶餘額
	GetBalance(ctx context.Context) (int64, error)
}

// QuoteCache 貸款試算結果快取
type QuoteCache interface {
	Get(ctx context.Context, key string) (domain.Quote, bool)
	Set(ctx context.Context, key string, quote domain.Quote) error
}
