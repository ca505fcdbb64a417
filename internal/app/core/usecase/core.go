package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
)

// CoreUseCase 是帳戶操作的業務邏輯層
type CoreUseCase struct {
	ledger Ledger
}

func NewCoreUseCase(ledger Ledger) *CoreUseCase {
	return &CoreUseCase{
		ledger: ledger,
	}
}

// Deposit 存款，回傳存款後餘額
//
// 參數:
//
//	ctx: 上下文
//	id: 操作 ID，uuid.Nil 時自動產生
//	amount: 金額
//
// 回傳:
//
//	int64: 存款後餘額
//	error: domain.ErrInvalidArgument / domain.ErrInvalidState 或帳本錯誤
func (c *CoreUseCase) Deposit(ctx context.Context, id uuid.UUID, amount int64) (int64, error) {
	op := domain.NewOperation(id, domain.OperationTypeDeposit, amount)
	if err := c.ledger.PostOperation(ctx, op); err != nil {
		return 0, err
	}
	return op.Balance, nil
}

// Withdraw 提款
//
// 回傳:
//
//	bool: 是否扣款成功 (金額為負或餘額不足時為 false)
//	int64: 操作後餘額
//	error: 只有帳本本身出錯 (如 WAL 寫入失敗) 才會回傳
func (c *CoreUseCase) Withdraw(ctx context.Context, id uuid.UUID, amount int64) (bool, int64, error) {
	op := domain.NewOperation(id, domain.OperationTypeWithdraw, amount)
	if err := c.ledger.PostOperation(ctx, op); err != nil {
		return false, 0, err
	}
	return op.Applied, op.Balance, nil
}

// GetBalance 取得帳戶餘額
func (c *CoreUseCase) GetBalance(ctx context.Context) (int64, error) {
	return c.ledger.GetBalance(ctx)
}
