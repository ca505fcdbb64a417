package domain

import "github.com/google/uuid"

// OperationType 帳戶操作類型
// 為了節省記憶體，使用 uint8
type OperationType uint8

const (
	// 存款
	OperationTypeDeposit OperationType = 1
	// 提款
	OperationTypeWithdraw OperationType = 2
	// 開帳: 帳本啟動時寫入，Amount 為初始餘額，重放時從這裡重新開始
	OperationTypeOpen OperationType = 3
)

func (t OperationType) String() string {
	switch t {
	case OperationTypeDeposit:
		return "deposit"
	case OperationTypeWithdraw:
		return "withdraw"
	case OperationTypeOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Operation 一筆帳戶操作 注意欄位排序以避免 Padding
// 日誌只記錄請求本身，結果欄位由重放時重新計算
type Operation struct {
	// Sequence: 帳本分配的順序號 (1, 2, 3...)
	Sequence uint64
	// Amount: 請求金額
	Amount int64
	// Balance: 操作後的餘額 (不寫入日誌)
	Balance int64 `json:"-"`
	// CreatedAt: 操作時間 (UnixNano)
	CreatedAt int64
	// OperationID: 外部追蹤號 (UUID)，重送同一個 ID 不會重複入帳
	OperationID uuid.UUID
	// Type: 操作類型
	Type OperationType
	// Applied: 是否成功變更餘額 (不寫入日誌)
	Applied bool `json:"-"`
	// Error: 失敗原因 (不寫入日誌)
	Error string `json:"-"`
}

// NewOperation 建立一筆待處理的操作，id 為 uuid.Nil 時自動產生
func NewOperation(id uuid.UUID, opType OperationType, amount int64) *Operation {
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Operation{
		OperationID: id,
		Type:        opType,
		Amount:      amount,
	}
}

// Apply 將操作套用到帳戶上並記錄結果
//
// 回傳:
//
//	error: Deposit 的錯誤；Withdraw 失敗不回傳 error，只把 Applied 設為 false
func (o *Operation) Apply(account *Account) error {
	switch o.Type {
	case OperationTypeDeposit:
		balance, err := account.Deposit(o.Amount)
		if err != nil {
			o.Applied = false
			o.Balance = account.Balance()
			o.Error = err.Error()
			return err
		}
		o.Applied = true
		o.Balance = balance
	case OperationTypeWithdraw:
		o.Applied = account.Withdraw(o.Amount)
		o.Balance = account.Balance()
	default:
		return ErrUnknownOperation
	}
	return nil
}
