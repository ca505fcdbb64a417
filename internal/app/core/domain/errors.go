package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument 參數不在允許範圍內 (負數、超過上限)
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState 參數本身合法，但會讓帳戶狀態超出上限
	ErrInvalidState = errors.New("invalid state")

	// ErrWALWriteFailed 寫入 WAL 失敗
	ErrWALWriteFailed = errors.New("wal write failed")

	// ErrLedgerStopped 帳本已停止，不再接受請求
	ErrLedgerStopped = errors.New("ledger stopped")
)

var (
	// ErrNegativeAmount 金額不可為負數
	ErrNegativeAmount = fmt.Errorf("%w: amount cannot be negative", ErrInvalidArgument)

	// ErrBalanceCeiling 存款後餘額會超過上限
	ErrBalanceCeiling = fmt.Errorf("%w: balance cannot surpass maximum value of %d", ErrInvalidState, MaximumAmount)

	// ErrUnknownOperation 不支援的操作類型
	ErrUnknownOperation = fmt.Errorf("%w: unknown operation type", ErrInvalidArgument)

	// ErrLoanTerms 貸款金額、利率、期數 (與月份) 必須為正
	ErrLoanTerms = fmt.Errorf("%w: loan amount, interest, number of payments and month have to be positive", ErrInvalidArgument)

	// ErrLoanAmountCeiling 貸款本金超過上限
	ErrLoanAmountCeiling = fmt.Errorf("%w: the total initial amount for a loan cannot surpass the value of %d", ErrInvalidArgument, MaximumAmount)

	// ErrPaymentsCeiling 期數超過上限
	ErrPaymentsCeiling = fmt.Errorf("%w: the number of payments cannot surpass %d", ErrInvalidArgument, MaximumPayments)

	// ErrInterestCeiling 利率超過上限
	ErrInterestCeiling = fmt.Errorf("%w: the maximum interest allowed is %v", ErrInvalidArgument, MaximumInterest)
)
