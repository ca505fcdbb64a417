package memory

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-account/pkg/wal"
)

func (j *memJournal) ReadAll(callback func(jsonRaw []byte) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, entry := range j.entries {
		raw, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := callback(raw); err != nil {
			return err
		}
	}
	return nil
}

func TestReplay_RebuildsBalanceFromWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.wal")
	w, err := wal.Open(path)
	require.NoError(t, err)
	defer w.Close()

	// 第一次啟動
	l, err := NewMutexLedger(domain.NewAccount(1000), w)
	require.NoError(t, err)
	_, err = post(t, l, domain.OperationTypeWithdraw, 400)
	require.NoError(t, err)

	// 第二次啟動，以設定的初始餘額重新開帳
	l, err = NewMutexLedger(domain.NewAccount(50), w)
	require.NoError(t, err)
	ops := []struct {
		opType domain.OperationType
		amount int64
	}{
		{domain.OperationTypeDeposit, 25},
		{domain.OperationTypeWithdraw, 500},
		{domain.OperationTypeDeposit, -3},
		{domain.OperationTypeWithdraw, 70},
	}
	for _, o := range ops {
		_, _ = post(t, l, o.opType, o.amount)
	}
	want, err := l.GetBalance(context.Background())
	require.NoError(t, err)

	result, err := Replay(w)

	require.NoError(t, err)
	assert.Equal(t, want, result.Account.Balance())
	assert.Equal(t, int64(5), result.Account.Balance())
	assert.Equal(t, 2, result.Sessions)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, 2, result.Rejected)
	assert.Equal(t, 0, result.Duplicates)
}

func TestReplay_SkipsRepeatedIDs(t *testing.T) {
	id := uuid.New()
	j := &memJournal{}
	require.NoError(t, j.Write(domain.NewOperation(uuid.Nil, domain.OperationTypeOpen, 10)))
	require.NoError(t, j.Write(domain.NewOperation(id, domain.OperationTypeDeposit, 5)))
	require.NoError(t, j.Write(domain.NewOperation(id, domain.OperationTypeDeposit, 5)))

	result, err := Replay(j)

	require.NoError(t, err)
	assert.Equal(t, int64(15), result.Account.Balance())
	assert.Equal(t, 1, result.Duplicates)
}

func TestReplay_RequiresOpenEntry(t *testing.T) {
	j := &memJournal{}
	require.NoError(t, j.Write(domain.NewOperation(uuid.Nil, domain.OperationTypeDeposit, 5)))

	_, err := Replay(j)
	assert.Error(t, err)

	_, err = Replay(&memJournal{})
	assert.Error(t, err)
}
