package memory

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-account/internal/app/core/usecase"
)

// DefaultQueueSize 輸送帶預設容量
const DefaultQueueSize = 1000

// operationRequest 把操作包進 channel，讓呼叫端可以等待結果
// op 為 nil 代表查詢餘額
type operationRequest struct {
	op      *domain.Operation
	balance int64
	result  chan error
}

// SerialLedger 單一 goroutine 擁有帳戶，所有請求經由 channel 排隊處理
//
// PostOperation(等待) -> Channel -> run loop -> WAL -> Account -> result channel -> PostOperation(收到結果)
type SerialLedger struct {
	engine *engine
	// 輸送帶 負責接收請求
	requests chan *operationRequest
	// Pool 減少 GC 壓力
	requestPool sync.Pool
	// run loop 結束後關閉
	done chan struct{}
	once sync.Once
}

// NewSerialLedger 建立一個新的 SerialLedger 實例，需呼叫 Start 才會開始處理
//
// 參數:
//
//	account: 帳本持有的帳戶
//	journal: 操作日誌，可為 nil
//	queueSize: 輸送帶容量，<= 0 時使用 DefaultQueueSize
//
// 回傳:
//
//	*SerialLedger: SerialLedger 實例
//	error: 開帳紀錄寫入失敗
func NewSerialLedger(account *domain.Account, journal Journal, queueSize int, opts ...Option) (*SerialLedger, error) {
	e, err := newEngine(account, journal, opts...)
	if err != nil {
		return nil, err
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &SerialLedger{
		engine:   e,
		requests: make(chan *operationRequest, queueSize),
		requestPool: sync.Pool{
			New: func() any {
				return &operationRequest{result: make(chan error, 1)}
			},
		},
		done: make(chan struct{}),
	}, nil
}

// Start 啟動核心 (非同步)，ctx 取消後處理完排隊中的請求再結束
// 重複呼叫只有第一次有效
func (l *SerialLedger) Start(ctx context.Context) {
	l.once.Do(func() {
		go l.run(ctx)
	})
}

// Done run loop 結束後關閉
func (l *SerialLedger) Done() <-chan struct{} {
	return l.done
}

// PostOperation 處理存款或提款，結果寫回 op
//
// 回傳:
//
//	error: domain 錯誤、domain.ErrWALWriteFailed、
//	       帳本已停止時為 domain.ErrLedgerStopped，ctx 取消時為 ctx.Err()
func (l *SerialLedger) PostOperation(ctx context.Context, op *domain.Operation) error {
	_, err := l.submit(ctx, op)
	return err
}

// GetBalance 取得帳戶餘額 (同樣經過輸送帶，看到的是排在前面的操作都完成後的餘額)
func (l *SerialLedger) GetBalance(ctx context.Context) (int64, error) {
	return l.submit(ctx, nil)
}

func (l *SerialLedger) submit(ctx context.Context, op *domain.Operation) (int64, error) {
	req := l.requestPool.Get().(*operationRequest)
	req.op = op
	req.balance = 0

	select {
	case l.requests <- req:
	case <-l.done:
		l.requestPool.Put(req)
		return 0, domain.ErrLedgerStopped
	case <-ctx.Done():
		l.requestPool.Put(req)
		return 0, ctx.Err()
	}

	select {
	case err := <-req.result:
		return l.release(req, err)
	case <-l.done:
		select {
		case err := <-req.result:
			return l.release(req, err)
		default:
			// drain 結束後才送進來的請求不會被處理，req 留在 channel 裡，不放回 Pool
			return 0, domain.ErrLedgerStopped
		}
	}
}

func (l *SerialLedger) release(req *operationRequest, err error) (int64, error) {
	balance := req.balance
	req.op = nil
	l.requestPool.Put(req)
	return balance, err
}

func (l *SerialLedger) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的請求處理完
			l.drain()
			return
		case req := <-l.requests:
			l.handle(req)
		}
	}
}

func (l *SerialLedger) drain() {
	for {
		select {
		case req := <-l.requests:
			l.handle(req)
		default:
			return
		}
	}
}

func (l *SerialLedger) handle(req *operationRequest) {
	if req.op == nil {
		req.balance = l.engine.account.Balance()
		req.result <- nil
		return
	}
	err := l.engine.process(req.op)
	req.balance = req.op.Balance
	req.result <- err
}

var _ usecase.Ledger = (*SerialLedger)(nil)
