package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-account/pkg/logger"
	"github.com/JoeShih716/go-mem-account/pkg/metrics"
)

// Journal 操作日誌 (pkg/wal.WAL 實作此介面)
type Journal interface {
	Write(v any) error
}

// Option 設定帳本的選項
type Option func(*engine)

// WithLogger 設定 Logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *engine) {
		e.log = log
	}
}

// WithMetrics 設定 Prometheus 指標
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *engine) {
		e.metrics = m
	}
}

// WithClock 設定時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(e *engine) {
		e.now = now
	}
}

// engine 帳本核心：持有唯一的帳戶，本身不加鎖
// 由 MutexLedger (加鎖) 或 SerialLedger (單一 goroutine) 保證同一時間只有一個呼叫者
type engine struct {
	account *domain.Account
	// 已處理過的操作，重送同一個 ID 直接回傳當時的結果
	processed map[uuid.UUID]domain.Operation
	// Write-Ahead Logging
	journal  Journal
	sequence uint64

	log     logrus.FieldLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

func newEngine(account *domain.Account, journal Journal, opts ...Option) (*engine, error) {
	e := &engine{
		account:   account,
		processed: make(map[uuid.UUID]domain.Operation),
		journal:   journal,
		log:       logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	// 開帳紀錄，重放時以此為起點
	if e.journal != nil {
		open := domain.NewOperation(uuid.Nil, domain.OperationTypeOpen, account.Balance())
		e.stamp(open)
		if err := e.journal.Write(open); err != nil {
			return nil, domain.ErrWALWriteFailed
		}
	}
	e.metrics.RecordOperation(domain.OperationTypeOpen.String(), "applied", account.Balance())
	return e, nil
}

func (e *engine) stamp(op *domain.Operation) {
	e.sequence++
	op.Sequence = e.sequence
	op.CreatedAt = e.now().UnixNano()
}

// process 處理單筆操作，結果寫回 op
//
// 回傳:
//
//	error: domain 錯誤 (存款被拒) 或 domain.ErrWALWriteFailed
func (e *engine) process(op *domain.Operation) error {
	// 0. Idempotency Check
	if done, ok := e.processed[op.OperationID]; ok {
		*op = done
		e.metrics.RecordOperation(op.Type.String(), "duplicate", e.account.Balance())
		return nil
	}

	// 1. 寫入 WAL (Critical Path)
	e.stamp(op)
	if e.journal != nil {
		if err := e.journal.Write(op); err != nil {
			e.log.WithError(err).WithField("operation_id", op.OperationID).Error("journal write failed")
			e.metrics.RecordOperation(op.Type.String(), "error", e.account.Balance())
			return domain.ErrWALWriteFailed
		}
	}

	// 2. 套用到帳戶
	err := op.Apply(e.account)

	fields := logrus.Fields{
		"operation_id": op.OperationID,
		"sequence":     op.Sequence,
		"op":           op.Type.String(),
		"amount":       op.Amount,
		"balance":      op.Balance,
	}
	switch {
	case err != nil:
		e.log.WithFields(fields).WithError(err).Info("operation rejected")
		e.metrics.RecordOperation(op.Type.String(), "rejected", e.account.Balance())
		return err
	case !op.Applied:
		e.log.WithFields(fields).Info("operation rejected")
		e.metrics.RecordOperation(op.Type.String(), "rejected", e.account.Balance())
	default:
		e.log.WithFields(fields).Debug("operation applied")
		e.metrics.RecordOperation(op.Type.String(), "applied", e.account.Balance())
	}

	// 3. 更新 Idempotency
	e.processed[op.OperationID] = *op
	return nil
}
