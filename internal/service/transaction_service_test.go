package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/richardliu001/transaction-service/internal/model"
	"github.com/richardliu001/transaction-service/internal/store"
)

type fixture struct {
	svc         *TransactionService
	records     *store.RecordStore
	userIdx     *store.IndexStore
	merchantIdx *store.IndexStore
	locks       *store.KeyLock
}

func newFixture(t *testing.T) (*fixture, context.Context) {
	records, err := store.NewRecordStore(100)
	require.NoError(t, err)
	userIdx, err := store.NewIndexStore(50)
	require.NoError(t, err)
	merchantIdx, err := store.NewIndexStore(50)
	require.NoError(t, err)
	locks := store.NewKeyLock(100, time.Minute)

	svc := NewTransactionService(records, userIdx, merchantIdx, locks, zap.NewNop().Sugar())
	return &fixture{
		svc:         svc,
		records:     records,
		userIdx:     userIdx,
		merchantIdx: merchantIdx,
		locks:       locks,
	}, context.Background()
}

func newTx(user, merchant string) model.Transaction {
	return model.Transaction{
		UserID:     user,
		MerchantID: merchant,
		Amount:     decimal.RequireFromString("10.00"),
		CreatedBy:  user,
	}
}

func TestCreate_GeneratesSequentialIDs(t *testing.T) {
	f, ctx := newFixture(t)
	today := time.Now().Format("20060102")

	first, err := f.svc.Create(ctx, newTx("u1", "1"))
	require.NoError(t, err)
	assert.Equal(t, "T"+today+"00000001", first.TransactionID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Nil(t, first.UpdatedAt)

	second, err := f.svc.Create(ctx, newTx("u1", "2"))
	require.NoError(t, err)
	assert.Equal(t, "T"+today+"00000002", second.TransactionID)

	ids, ok := f.userIdx.Get("u1")
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{first.TransactionID, second.TransactionID}, ids)
	ids, ok = f.merchantIdx.Get("1")
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{first.TransactionID}, ids)
}

func TestCreate_SequenceContiguousForTheDay(t *testing.T) {
	f, ctx := newFixture(t)
	today := time.Now().Format("20060102")

	seen := make(map[string]bool)
	for i := 1; i <= 7; i++ {
		created, err := f.svc.Create(ctx, newTx("u1", "1"))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("T%s%08d", today, i), created.TransactionID)
		assert.False(t, seen[created.TransactionID], "ids must be unique")
		seen[created.TransactionID] = true
	}
}

func TestUpdate_MovesMerchantIndex(t *testing.T) {
	f, ctx := newFixture(t)

	created, err := f.svc.Create(ctx, newTx("u1", "1"))
	require.NoError(t, err)
	id := created.TransactionID

	upd := newTx("u1", "2")
	upd.TransactionID = id
	upd.UpdatedBy = "u1"
	upd.Amount = decimal.RequireFromString("25.5000")

	updated, err := f.svc.Update(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.CreatedBy, updated.CreatedBy)
	require.NotNil(t, updated.UpdatedAt)

	_, ok := f.merchantIdx.Get("1")
	assert.False(t, ok, "old merchant entry must be cleaned up")
	ids, ok := f.merchantIdx.Get("2")
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{id}, ids)

	ids, ok = f.userIdx.Get("u1")
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{id}, ids, "user index is never touched on update")

	stored, ok := f.records.Get(id)
	require.True(t, ok)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("25.5")))
}

func TestUpdate_RejectsUserChange(t *testing.T) {
	f, ctx := newFixture(t)

	created, err := f.svc.Create(ctx, newTx("u1", "1"))
	require.NoError(t, err)

	upd := newTx("u2", "1")
	upd.TransactionID = created.TransactionID

	_, err = f.svc.Update(ctx, upd)
	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeUserMismatch, code)

	stored, _ := f.records.Get(created.TransactionID)
	assert.Equal(t, "u1", stored.UserID)
	assert.Nil(t, stored.UpdatedAt, "rejected update must not change state")
}

func TestUpdate_MissingAndUnknownID(t *testing.T) {
	f, ctx := newFixture(t)

	_, err := f.svc.Update(ctx, newTx("u1", "1"))
	code, _ := CodeOf(err)
	assert.Equal(t, CodeMissingID, code)

	upd := newTx("u1", "1")
	upd.TransactionID = "T2025010100000001"
	_, err = f.svc.Update(ctx, upd)
	code, _ = CodeOf(err)
	assert.Equal(t, CodeNotFound, code)
}

func TestUpdate_LockBusy(t *testing.T) {
	f, ctx := newFixture(t)

	created, err := f.svc.Create(ctx, newTx("u1", "1"))
	require.NoError(t, err)

	require.True(t, f.locks.TryAcquire(created.TransactionID))
	defer f.locks.Release(created.TransactionID)

	upd := newTx("u1", "2")
	upd.TransactionID = created.TransactionID
	_, err = f.svc.Update(ctx, upd)
	code, _ := CodeOf(err)
	assert.Equal(t, CodeLockBusy, code)
}

func TestDelete_CleansRecordAndIndexes(t *testing.T) {
	f, ctx := newFixture(t)

	created, err := f.svc.Create(ctx, newTx("u1", "1"))
	require.NoError(t, err)
	id := created.TransactionID

	err = f.svc.Delete(ctx, Query{TransactionID: id, UserID: "u1"})
	require.NoError(t, err)

	_, ok := f.records.Get(id)
	assert.False(t, ok)
	_, ok = f.userIdx.Get("u1")
	assert.False(t, ok)
	_, ok = f.merchantIdx.Get("1")
	assert.False(t, ok)
}

func TestDelete_Rejections(t *testing.T) {
	f, ctx := newFixture(t)

	err := f.svc.Delete(ctx, Query{UserID: "u1"})
	code, _ := CodeOf(err)
	assert.Equal(t, CodeMissingID, code)

	err = f.svc.Delete(ctx, Query{TransactionID: "T2025010100000001", UserID: "u1"})
	code, _ = CodeOf(err)
	assert.Equal(t, CodeNotFound, code)

	created, err := f.svc.Create(ctx, newTx("u1", "1"))
	require.NoError(t, err)

	err = f.svc.Delete(ctx, Query{TransactionID: created.TransactionID, UserID: "u2"})
	code, _ = CodeOf(err)
	assert.Equal(t, CodeForbidden, code)

	_, ok := f.records.Get(created.TransactionID)
	assert.True(t, ok, "forbidden delete must not remove the record")
}

func TestDelete_ConcurrentSameID(t *testing.T) {
	f, ctx := newFixture(t)

	created, err := f.svc.Create(ctx, newTx("u1", "1"))
	require.NoError(t, err)
	id := created.TransactionID

	var mu sync.Mutex
	var successes int
	var rejections []ErrorCode

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.svc.Delete(ctx, Query{TransactionID: id, UserID: "u1"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if code, ok := CodeOf(err); ok {
				rejections = append(rejections, code)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one concurrent delete may succeed")
	assert.Len(t, rejections, 1)
	for _, code := range rejections {
		assert.Contains(t, []ErrorCode{CodeLockBusy, CodeNotFound}, code)
	}
	_, ok := f.userIdx.Get("u1")
	assert.False(t, ok, "index entry must not be double-decremented")
}

func TestSearch_AllBlankPaginates(t *testing.T) {
	f, ctx := newFixture(t)

	var ids []string
	for i := 0; i < 5; i++ {
		created, err := f.svc.Create(ctx, newTx(fmt.Sprintf("u%d", i%2), "1"))
		require.NoError(t, err)
		ids = append(ids, created.TransactionID)
	}

	rsp := f.svc.Search(ctx, Query{Page: 1, PageSize: 3})
	assert.Equal(t, 5, rsp.Total)
	require.Len(t, rsp.Transactions, 3)
	assert.Equal(t, ids[0], rsp.Transactions[0].TransactionID)
	assert.Equal(t, ids[1], rsp.Transactions[1].TransactionID)
	assert.Equal(t, ids[2], rsp.Transactions[2].TransactionID)

	rsp = f.svc.Search(ctx, Query{Page: 2, PageSize: 3})
	assert.Equal(t, 5, rsp.Total)
	require.Len(t, rsp.Transactions, 2)
	assert.Equal(t, ids[3], rsp.Transactions[0].TransactionID)

	// page beyond total keeps the already-computed total
	rsp = f.svc.Search(ctx, Query{Page: 9, PageSize: 3})
	assert.Equal(t, 5, rsp.Total)
	assert.Empty(t, rsp.Transactions)
}

func TestSearch_ByID(t *testing.T) {
	f, ctx := newFixture(t)

	created, err := f.svc.Create(ctx, newTx("u1", "1"))
	require.NoError(t, err)

	rsp := f.svc.Search(ctx, Query{TransactionID: created.TransactionID})
	assert.Equal(t, 1, rsp.Total)
	require.Len(t, rsp.Transactions, 1)
	assert.Equal(t, "Merchant One", rsp.Transactions[0].MerchantName)

	rsp = f.svc.Search(ctx, Query{TransactionID: "T2025010100000099"})
	assert.Equal(t, 0, rsp.Total)
	assert.Empty(t, rsp.Transactions)
}

func TestSearch_UserMerchantIntersection(t *testing.T) {
	f, ctx := newFixture(t)

	match, err := f.svc.Create(ctx, newTx("u1", "1"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, newTx("u1", "2"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, newTx("u2", "1"))
	require.NoError(t, err)

	rsp := f.svc.Search(ctx, Query{UserID: "u1", MerchantID: "1"})
	assert.Equal(t, 1, rsp.Total)
	require.Len(t, rsp.Transactions, 1)
	assert.Equal(t, match.TransactionID, rsp.Transactions[0].TransactionID)

	rsp = f.svc.Search(ctx, Query{UserID: "u1"})
	assert.Equal(t, 2, rsp.Total)

	rsp = f.svc.Search(ctx, Query{MerchantID: "1"})
	assert.Equal(t, 2, rsp.Total)

	rsp = f.svc.Search(ctx, Query{UserID: "u2", MerchantID: "2"})
	assert.Equal(t, 0, rsp.Total)
	assert.Empty(t, rsp.Transactions)
}

func TestSearch_SkipsEvictedIDs(t *testing.T) {
	f, ctx := newFixture(t)

	created, err := f.svc.Create(ctx, newTx("u1", "1"))
	require.NoError(t, err)

	// simulate silent eviction from the primary store
	f.records.Remove(created.TransactionID)

	rsp := f.svc.Search(ctx, Query{UserID: "u1"})
	assert.Equal(t, 1, rsp.Total, "total reflects the candidate set")
	assert.Empty(t, rsp.Transactions, "unresolvable ids are skipped, not errors")
}

func TestGenerateID_ResetsOnDateRollover(t *testing.T) {
	f, _ := newFixture(t)
	today := time.Now().Format("20060102")

	// max key carries yesterday's date, so the sequence restarts at 1
	f.records.Put("T2020010100000042", model.Transaction{TransactionID: "T2020010100000042"})
	assert.Equal(t, "T"+today+"00000001", f.svc.generateID())

	f.records.Put("T"+today+"00000042", model.Transaction{})
	assert.Equal(t, "T"+today+"00000043", f.svc.generateID())
}
