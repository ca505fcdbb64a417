package domain

const (
	// MaximumAmount 餘額與貸款本金的上限 (十億單位)
	MaximumAmount int64 = 1_000_000_000
	// MaximumInterest 每期利率上限
	MaximumInterest float64 = 10.5
	// MaximumPayments 攤還表與對外試算允許的最大期數 (100 年月繳)
	MaximumPayments = 1200
)

// Account 單一帳戶，金額以最小貨幣單位的 int64 儲存
//
// Account 本身不加鎖，併發存取由呼叫端 (Ledger) 負責互斥。
type Account struct {
	balance int64
}

// NewAccount 建立帳戶
//
// 參數:
//
//	startingBalance: 初始餘額，不做任何檢查 (可為負數或超過上限)
//
// 回傳:
//
//	*Account: 帳戶實例
func NewAccount(startingBalance int64) *Account {
	return &Account{
		balance: startingBalance,
	}
}

// Balance 取得目前餘額
func (a *Account) Balance() int64 {
	return a.balance
}

// MaximumAmount 回傳餘額上限
func (a *Account) MaximumAmount() int64 {
	return MaximumAmount
}

// MaximumInterest 回傳利率上限
func (a *Account) MaximumInterest() float64 {
	return MaximumInterest
}

// Withdraw 提款
//
// 金額為非負且餘額足夠時扣款並回傳 true，否則不變動餘額並回傳 false。
// 提款不回傳 error，呼叫端可先試探再決定。
func (a *Account) Withdraw(amount int64) bool {
	if a.balance >= amount && amount >= 0 {
		a.balance -= amount
		return true
	}
	return false
}

// Deposit 存款
//
// 參數:
//
//	amount: 存款金額
//
// 回傳:
//
//	int64: 存款後的餘額
//	error: ErrNegativeAmount (ErrInvalidArgument) 或 ErrBalanceCeiling (ErrInvalidState)
func (a *Account) Deposit(amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrNegativeAmount
	}
	// amount <= MaximumAmount 之後 MaximumAmount-amount 不會溢位
	if amount > MaximumAmount || a.balance > MaximumAmount-amount {
		return 0, ErrBalanceCeiling
	}
	a.balance += amount
	return a.balance, nil
}

// Payment 計算貸款每期應繳金額，見 Payment
func (a *Account) Payment(totalAmount, interest float64, npayments int) (float64, error) {
	return Payment(totalAmount, interest, npayments)
}

// Pending 計算貸款在第 month 期後的剩餘本金，見 Pending
func (a *Account) Pending(amount, interest float64, npayments, month int) (float64, error) {
	return Pending(amount, interest, npayments, month)
}
