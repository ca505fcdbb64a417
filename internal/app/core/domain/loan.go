package domain

import "math"

// Quote 貸款試算結果
type Quote struct {
	Payment       float64 `json:"payment"`
	TotalPayment  float64 `json:"total_payment"`
	TotalInterest float64 `json:"total_interest"`
}

// Installment 攤還表中的一期
type Installment struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
	Pending   float64 `json:"pending"`
}

func validateLoan(amount, interest float64) error {
	if amount > float64(MaximumAmount) {
		return ErrLoanAmountCeiling
	}
	if interest > MaximumInterest {
		return ErrInterestCeiling
	}
	return nil
}

// ValidatePayments 檢查期數不超過 MaximumPayments
// Payment 與 Pending 本身不限制期數，對外服務在呼叫前先檢查。
// Pending 的迴圈最多跑 npayments-1 次，限制期數即限制了月份的計算量。
func ValidatePayments(npayments int) error {
	if npayments > MaximumPayments {
		return ErrPaymentsCeiling
	}
	return nil
}

// Payment 以年金公式計算每期固定應繳金額
//
//	payment = total * (i * (1+i)^n) / ((1+i)^n - 1)
//
// 檢查順序: 正負號 -> 本金上限 -> 利率上限。
// 與原始公式不同: 利率為 0 時公式為 0/0 (NaN)，改回傳極限值 total/n；
// (1+i)^n 溢位時回傳極限值 total*i。
func Payment(totalAmount, interest float64, npayments int) (float64, error) {
	if totalAmount < 0 || interest < 0 || npayments <= 0 {
		return 0, ErrLoanTerms
	}
	if err := validateLoan(totalAmount, interest); err != nil {
		return 0, err
	}
	return payment(totalAmount, interest, npayments), nil
}

func payment(totalAmount, interest float64, npayments int) float64 {
	if interest == 0 {
		return totalAmount / float64(npayments)
	}
	growth := math.Pow(1+interest, float64(npayments))
	scaled := interest * growth
	if math.IsInf(scaled, 1) {
		// 期數很大時 (1+i)^n 溢位，公式的極限為 total*i
		return totalAmount * interest
	}
	return totalAmount * (scaled / (growth - 1))
}

// Pending 計算經過 month 期之後尚未償還的本金
//
//	pending(0)     = amount
//	pending(m >= n) = 0
//	pending(m)     = prev - (payment - i*prev), prev = pending(m-1)
//
// 以迴圈由第 0 期往後推，數值與遞迴定義逐期相同。
func Pending(amount, interest float64, npayments, month int) (float64, error) {
	if amount < 0 || interest < 0 || npayments <= 0 || month < 0 {
		return 0, ErrLoanTerms
	}
	if err := validateLoan(amount, interest); err != nil {
		return 0, err
	}
	if month == 0 {
		return amount, nil
	}
	if month >= npayments {
		return 0, nil
	}

	p := payment(amount, interest, npayments)
	prev := amount
	for m := 1; m <= month; m++ {
		prev = prev - (p - interest*prev)
	}
	return prev, nil
}

// Schedule 產生完整攤還表 (第 1 期到第 npayments 期)
// 期數超過 MaximumPayments 時回傳 ErrPaymentsCeiling
func Schedule(amount, interest float64, npayments int) ([]Installment, error) {
	p, err := Payment(amount, interest, npayments)
	if err != nil {
		return nil, err
	}
	if err := ValidatePayments(npayments); err != nil {
		return nil, err
	}

	rows := make([]Installment, 0, npayments)
	prev := amount
	for m := 1; m <= npayments; m++ {
		owed := interest * prev
		pending := prev - (p - owed)
		if m == npayments {
			pending = 0
		}
		rows = append(rows, Installment{
			Month:     m,
			Payment:   p,
			Interest:  owed,
			Principal: prev - pending,
			Pending:   pending,
		})
		prev = pending
	}
	return rows, nil
}

// QuoteLoan 計算每期金額、總繳金額與總利息
func QuoteLoan(amount, interest float64, npayments int) (Quote, error) {
	p, err := Payment(amount, interest, npayments)
	if err != nil {
		return Quote{}, err
	}
	total := p * float64(npayments)
	return Quote{
		Payment:       p,
		TotalPayment:  total,
		TotalInterest: total - amount,
	}, nil
}
