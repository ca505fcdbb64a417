package memory

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-account/internal/app/core/usecase"
)

// MutexLedger 以 Mutex 保護單一帳戶的帳本
//
// 結構:
//
//	engine: 帳戶、已處理操作、日誌
//	mu: 保護 engine，讀餘額用 RLock
type MutexLedger struct {
	mu     sync.RWMutex
	engine *engine
}

// NewMutexLedger 建立一個新的 MutexLedger 實例
//
// 參數:
//
//	account: 帳本持有的帳戶
//	journal: 操作日誌，可為 nil
//	opts: WithLogger / WithMetrics / WithClock
//
// 回傳:
//
//	*MutexLedger: MutexLedger 實例
//	error: 開帳紀錄寫入失敗
func NewMutexLedger(account *domain.Account, journal Journal, opts ...Option) (*MutexLedger, error) {
	e, err := newEngine(account, journal, opts...)
	if err != nil {
		return nil, err
	}
	return &MutexLedger{engine: e}, nil
}

// PostOperation 處理存款或提款，結果寫回 op
func (m *MutexLedger) PostOperation(ctx context.Context, op *domain.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.process(op)
}

// GetBalance 取得帳戶餘額
func (m *MutexLedger) GetBalance(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engine.account.Balance(), nil
}

var _ usecase.Ledger = (*MutexLedger)(nil)
