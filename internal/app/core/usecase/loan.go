package usecase

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-account/pkg/logger"
	"github.com/JoeShih716/go-mem-account/pkg/metrics"
)

// LoanUseCase 貸款試算
type LoanUseCase struct {
	cache   QuoteCache
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewLoanUseCase cache 可為 nil (不快取)
func NewLoanUseCase(cache QuoteCache, log logrus.FieldLogger, m *metrics.Metrics) *LoanUseCase {
	if log == nil {
		log = logger.Discard()
	}
	return &LoanUseCase{
		cache:   cache,
		log:     log,
		metrics: m,
	}
}

// Payment 每期應繳金額 (未四捨五入)，期數不可超過 domain.MaximumPayments
func (l *LoanUseCase) Payment(totalAmount, interest float64, npayments int) (float64, error) {
	if err := domain.ValidatePayments(npayments); err != nil {
		return 0, err
	}
	return domain.Payment(totalAmount, interest, npayments)
}

// Pending 第 month 期後剩餘本金 (未四捨五入)，期數不可超過 domain.MaximumPayments
func (l *LoanUseCase) Pending(amount, interest float64, npayments, month int) (float64, error) {
	if err := domain.ValidatePayments(npayments); err != nil {
		return 0, err
	}
	return domain.Pending(amount, interest, npayments, month)
}

// Quote 貸款試算，金額四捨五入到小數點後 2 位
// 快取讀寫失敗不影響結果
func (l *LoanUseCase) Quote(ctx context.Context, totalAmount, interest float64, npayments int) (domain.Quote, error) {
	if err := domain.ValidatePayments(npayments); err != nil {
		return domain.Quote{}, err
	}
	key := quoteKey(totalAmount, interest, npayments)
	if l.cache != nil {
		if q, ok := l.cache.Get(ctx, key); ok {
			l.metrics.RecordCache("hit")
			return q, nil
		}
		l.metrics.RecordCache("miss")
	}

	q, err := domain.QuoteLoan(totalAmount, interest, npayments)
	if err != nil {
		return domain.Quote{}, err
	}
	q = domain.Quote{
		Payment:       round2(q.Payment),
		TotalPayment:  round2(q.TotalPayment),
		TotalInterest: round2(q.TotalInterest),
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, q); err != nil {
			l.log.WithError(err).WithField("key", key).Warn("failed to cache loan quote")
		}
	}
	return q, nil
}

// Schedule 攤還表，金額四捨五入到小數點後 2 位
func (l *LoanUseCase) Schedule(totalAmount, interest float64, npayments int) ([]domain.Installment, error) {
	rows, err := domain.Schedule(totalAmount, interest, npayments)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Payment = round2(rows[i].Payment)
		rows[i].Interest = round2(rows[i].Interest)
		rows[i].Principal = round2(rows[i].Principal)
		rows[i].Pending = round2(rows[i].Pending)
	}
	return rows, nil
}

func quoteKey(totalAmount, interest float64, npayments int) string {
	return fmt.Sprintf("loan:quote:%s:%s:%d",
		strconv.FormatFloat(totalAmount, 'g', -1, 64),
		strconv.FormatFloat(interest, 'g', -1, 64),
		npayments,
	)
}

// round2 以 decimal 四捨五入，避免 float 乘除造成的誤差 (例如 1.005)
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
