package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-account/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-account/pkg/metrics"
)

// memJournal 記在記憶體裡的日誌
type memJournal struct {
	mu      sync.Mutex
	entries []domain.Operation
	fail    bool
}

func (j *memJournal) Write(v any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.fail {
		return errors.New("disk full")
	}
	j.entries = append(j.entries, *v.(*domain.Operation))
	return nil
}

func (j *memJournal) len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

type ledgerFactory func(t *testing.T, balance int64, journal Journal, opts ...Option) usecase.Ledger

func newMutex(t *testing.T, balance int64, journal Journal, opts ...Option) usecase.Ledger {
	l, err := NewMutexLedger(domain.NewAccount(balance), journal, opts...)
	require.NoError(t, err)
	return l
}

func newSerial(t *testing.T, balance int64, journal Journal, opts ...Option) usecase.Ledger {
	l, err := NewSerialLedger(domain.NewAccount(balance), journal, 16, opts...)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l
}

var factories = map[string]ledgerFactory{
	"mutex":  newMutex,
	"serial": newSerial,
}

func post(t *testing.T, l usecase.Ledger, opType domain.OperationType, amount int64) (*domain.Operation, error) {
	t.Helper()
	op := domain.NewOperation(uuid.Nil, opType, amount)
	return op, l.PostOperation(context.Background(), op)
}

func TestLedger_DepositAndWithdraw(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			l := factory(t, 100, nil)

			op, err := post(t, l, domain.OperationTypeDeposit, 50)
			require.NoError(t, err)
			assert.True(t, op.Applied)
			assert.Equal(t, int64(150), op.Balance)

			op, err = post(t, l, domain.OperationTypeWithdraw, 200)
			require.NoError(t, err)
			assert.False(t, op.Applied)
			assert.Equal(t, int64(150), op.Balance)

			op, err = post(t, l, domain.OperationTypeWithdraw, 150)
			require.NoError(t, err)
			assert.True(t, op.Applied)

			balance, err := l.GetBalance(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(0), balance)
		})
	}
}

func TestLedger_DepositErrors(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			l := factory(t, domain.MaximumAmount-10, nil)

			_, err := post(t, l, domain.OperationTypeDeposit, -1)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)

			_, err = post(t, l, domain.OperationTypeDeposit, 11)
			assert.ErrorIs(t, err, domain.ErrInvalidState)

			balance, err := l.GetBalance(context.Background())
			require.NoError(t, err)
			assert.Equal(t, domain.MaximumAmount-10, balance)
		})
	}
}

func TestLedger_Idempotency(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			journal := &memJournal{}
			l := factory(t, 0, journal)
			id := uuid.New()

			first := domain.NewOperation(id, domain.OperationTypeDeposit, 30)
			require.NoError(t, l.PostOperation(context.Background(), first))

			again := domain.NewOperation(id, domain.OperationTypeDeposit, 30)
			require.NoError(t, l.PostOperation(context.Background(), again))

			assert.Equal(t, first.Sequence, again.Sequence)
			assert.Equal(t, int64(30), again.Balance)
			balance, _ := l.GetBalance(context.Background())
			assert.Equal(t, int64(30), balance)
			// open + 一筆存款
			assert.Equal(t, 2, journal.len())
		})
	}
}

func TestLedger_RejectedDepositCanBeRetried(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			l := factory(t, domain.MaximumAmount, nil)
			id := uuid.New()

			op := domain.NewOperation(id, domain.OperationTypeDeposit, 1)
			assert.ErrorIs(t, l.PostOperation(context.Background(), op), domain.ErrInvalidState)

			withdraw := domain.NewOperation(uuid.Nil, domain.OperationTypeWithdraw, 1)
			require.NoError(t, l.PostOperation(context.Background(), withdraw))

			op = domain.NewOperation(id, domain.OperationTypeDeposit, 1)
			require.NoError(t, l.PostOperation(context.Background(), op))
			assert.True(t, op.Applied)
			assert.Equal(t, domain.MaximumAmount, op.Balance)
		})
	}
}

func TestLedger_JournalFailureLeavesBalance(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			journal := &memJournal{}
			l := factory(t, 100, journal)
			journal.fail = true

			_, err := post(t, l, domain.OperationTypeDeposit, 50)
			assert.ErrorIs(t, err, domain.ErrWALWriteFailed)
			_, err = post(t, l, domain.OperationTypeWithdraw, 50)
			assert.ErrorIs(t, err, domain.ErrWALWriteFailed)

			balance, err := l.GetBalance(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(100), balance)
		})
	}
}

func TestLedger_JournalEntries(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			journal := &memJournal{}
			clock := time.Unix(1700000000, 0)
			l := factory(t, 100, journal, WithClock(func() time.Time { return clock }))

			_, err := post(t, l, domain.OperationTypeDeposit, 5)
			require.NoError(t, err)
			_, err = post(t, l, domain.OperationTypeWithdraw, 500)
			require.NoError(t, err)

			require.Equal(t, 3, journal.len())
			assert.Equal(t, domain.OperationTypeOpen, journal.entries[0].Type)
			assert.Equal(t, int64(100), journal.entries[0].Amount)
			for i, entry := range journal.entries {
				assert.Equal(t, uint64(i+1), entry.Sequence)
				assert.Equal(t, clock.UnixNano(), entry.CreatedAt)
			}
		})
	}
}

func TestLedger_OpenFailure(t *testing.T) {
	_, err := NewMutexLedger(domain.NewAccount(0), &memJournal{fail: true})
	assert.ErrorIs(t, err, domain.ErrWALWriteFailed)

	_, err = NewSerialLedger(domain.NewAccount(0), &memJournal{fail: true}, 0)
	assert.ErrorIs(t, err, domain.ErrWALWriteFailed)
}

func TestLedger_Metrics(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			m := metrics.New()
			l := factory(t, 10, nil, WithMetrics(m))
			id := uuid.New()

			require.NoError(t, l.PostOperation(context.Background(), domain.NewOperation(id, domain.OperationTypeDeposit, 5)))
			require.NoError(t, l.PostOperation(context.Background(), domain.NewOperation(id, domain.OperationTypeDeposit, 5)))
			_, _ = post(t, l, domain.OperationTypeWithdraw, 100)
			_, _ = post(t, l, domain.OperationTypeDeposit, -1)

			assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("deposit", "applied")))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("deposit", "duplicate")))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("deposit", "rejected")))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("withdraw", "rejected")))
			assert.Equal(t, 15.0, testutil.ToFloat64(m.Balance))
		})
	}
}

func TestLedger_ConcurrentOperationsKeepBalance(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			l := factory(t, 0, &memJournal{})

			const workers, rounds = 8, 200
			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for r := 0; r < rounds; r++ {
						op := domain.NewOperation(uuid.Nil, domain.OperationTypeDeposit, 2)
						assert.NoError(t, l.PostOperation(context.Background(), op))
						op = domain.NewOperation(uuid.Nil, domain.OperationTypeWithdraw, 1)
						assert.NoError(t, l.PostOperation(context.Background(), op))
					}
				}()
			}
			wg.Wait()

			balance, err := l.GetBalance(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(workers*rounds), balance)
		})
	}
}

func TestMutexLedger_CanceledContext(t *testing.T) {
	l := newMutex(t, 10, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.PostOperation(ctx, domain.NewOperation(uuid.Nil, domain.OperationTypeDeposit, 1))

	assert.ErrorIs(t, err, context.Canceled)
	balance, _ := l.GetBalance(context.Background())
	assert.Equal(t, int64(10), balance)
}

func TestSerialLedger_StoppedRejectsRequests(t *testing.T) {
	l, err := NewSerialLedger(domain.NewAccount(10), nil, 1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	cancel()
	<-l.Done()

	// 輸送帶還有空位時請求可能被放進去，但不會有人處理
	for i := 0; i < 3; i++ {
		err = l.PostOperation(context.Background(), domain.NewOperation(uuid.Nil, domain.OperationTypeDeposit, 1))
		assert.ErrorIs(t, err, domain.ErrLedgerStopped)
	}
}

func TestSerialLedger_ContextCanceledWhileQueueFull(t *testing.T) {
	// 不啟動 run loop，輸送帶塞滿後請求會卡在送出
	l, err := NewSerialLedger(domain.NewAccount(10), nil, 1)
	require.NoError(t, err)
	l.requests <- &operationRequest{result: make(chan error, 1)}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = l.PostOperation(ctx, domain.NewOperation(uuid.Nil, domain.OperationTypeDeposit, 1))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSerialLedger_DrainsQueuedRequestsOnStop(t *testing.T) {
	l, err := NewSerialLedger(domain.NewAccount(0), nil, 8)
	require.NoError(t, err)

	results := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			results <- l.PostOperation(context.Background(), domain.NewOperation(uuid.Nil, domain.OperationTypeDeposit, 1))
		}()
	}
	require.Eventually(t, func() bool { return len(l.requests) == 4 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.Start(ctx)
	<-l.Done()

	for i := 0; i < 4; i++ {
		assert.NoError(t, <-results)
	}
	assert.Equal(t, int64(4), l.engine.account.Balance())
}
