package memory

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
)

// JournalReader 可以逐筆讀回日誌 (pkg/wal.WAL 實作此介面)
type JournalReader interface {
	ReadAll(callback func(jsonRaw []byte) error) error
}

// ReplayResult 重放結果
type ReplayResult struct {
	// Account: 最後一次開帳之後依序套用所有操作的帳戶
	Account *domain.Account
	// Applied / Rejected / Duplicates: 最後一次開帳之後的統計
	Applied    int
	Rejected   int
	Duplicates int
	// Sessions: 日誌裡的開帳次數
	Sessions int
}

// Replay 從日誌重建帳戶狀態 (稽核用，不寫 WAL)
// 遇到開帳紀錄時以其金額重新開始，因此結果對應最後一次啟動的帳本
//
// 回傳:
//
//	*ReplayResult: 重放結果
//	error: 日誌讀取或解析錯誤，或日誌沒有任何開帳紀錄
func Replay(journal JournalReader) (*ReplayResult, error) {
	var (
		result    *ReplayResult
		processed map[uuid.UUID]struct{}
		sessions  int
	)

	err := journal.ReadAll(func(jsonRaw []byte) error {
		var op domain.Operation
		if err := json.Unmarshal(jsonRaw, &op); err != nil {
			return err
		}

		if op.Type == domain.OperationTypeOpen {
			sessions++
			result = &ReplayResult{Account: domain.NewAccount(op.Amount)}
			processed = make(map[uuid.UUID]struct{})
			return nil
		}
		if result == nil {
			return fmt.Errorf("operation %d before open entry", op.Sequence)
		}

		// 已成功處理的 ID 重送時不會寫進日誌，這裡只是保險
		if _, ok := processed[op.OperationID]; ok {
			result.Duplicates++
			return nil
		}
		if err := op.Apply(result.Account); err != nil {
			result.Rejected++
			return nil
		}
		if op.Applied {
			result.Applied++
		} else {
			result.Rejected++
		}
		processed[op.OperationID] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replay journal: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("replay journal: no open entry")
	}
	result.Sessions = sessions
	return result, nil
}
