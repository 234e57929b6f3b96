package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/richardliu001/transaction-service/internal/model"
	"github.com/richardliu001/transaction-service/internal/store"
)

const idDateLayout = "20060102"

// TransactionService orchestrates the primary record store, the two
// secondary indexes and the per-id lock registry. Mutations on the same
// transaction id are serialized through KeyLock; searches read without
// locking and may observe a state mid-mutation, which callers accept as an
// eventual-consistency window.
type TransactionService struct {
	records     *store.RecordStore
	userIdx     *store.IndexStore
	merchantIdx *store.IndexStore
	locks       *store.KeyLock
	log         *zap.SugaredLogger
}

// NewTransactionService wires the injected stores into a service. The stores
// are owned by the caller and live for the process lifetime.
func NewTransactionService(records *store.RecordStore, userIdx, merchantIdx *store.IndexStore,
	locks *store.KeyLock, logger *zap.SugaredLogger) *TransactionService {
	return &TransactionService{
		records:     records,
		userIdx:     userIdx,
		merchantIdx: merchantIdx,
		locks:       locks,
		log:         logger,
	}
}

// Query carries search and delete criteria. Blank criteria are ignored.
type Query struct {
	TransactionID string
	UserID        string
	MerchantID    string
	Page          int
	PageSize      int
}

// QueryResult is the paginated search response.
type QueryResult struct {
	Total        int               `json:"total"`
	Page         int               `json:"page"`
	PageSize     int               `json:"page_size"`
	Transactions []TransactionView `json:"transactions"`
}

// Create stores a new transaction under a freshly generated id and files it
// in both indexes. The stored record is returned with its id and creation
// timestamp populated.
func (s *TransactionService) Create(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	id := s.generateID()
	if !s.locks.TryAcquire(id) {
		s.log.Errorf("could not acquire lock for fresh transaction id %s", id)
		return model.Transaction{}, newError(CodeLockBusy,
			"transaction "+id+" is being operated on by another caller")
	}
	defer s.locks.Release(id)

	if _, ok := s.records.Get(id); ok {
		s.log.Errorf("generated transaction id %s already exists", id)
		return model.Transaction{}, newError(CodeAlreadyExists,
			"transaction "+id+" already exists, please retry")
	}

	t.TransactionID = id
	t.CreatedAt = time.Now()
	t.UpdatedBy = ""
	t.UpdatedAt = nil

	s.records.Put(id, t)
	s.userIdx.Add(t.UserID, id)
	s.merchantIdx.Add(t.MerchantID, id)
	return t, nil
}

// Update replaces the stored record wholesale. The owning user is immutable;
// creation metadata is preserved from the stored record. Only a merchant
// change touches an index, and only the merchant one.
func (s *TransactionService) Update(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	if isBlank(t.TransactionID) {
		return model.Transaction{}, newError(CodeMissingID, "transaction id must not be empty")
	}
	id := t.TransactionID
	if !s.locks.TryAcquire(id) {
		return model.Transaction{}, newError(CodeLockBusy,
			"transaction "+id+" is being operated on by another caller")
	}
	defer s.locks.Release(id)

	old, ok := s.records.Get(id)
	if !ok {
		s.log.Warnf("update target transaction %s does not exist", id)
		return model.Transaction{}, newError(CodeNotFound, "transaction "+id+" does not exist")
	}
	if old.UserID != t.UserID {
		s.log.Warnf("rejected update of transaction %s: owning user cannot change", id)
		return model.Transaction{}, newError(CodeUserMismatch,
			"the owning user of transaction "+id+" cannot be changed")
	}

	t.CreatedAt = old.CreatedAt
	t.CreatedBy = old.CreatedBy
	now := time.Now()
	t.UpdatedAt = &now

	s.records.Put(id, t)

	if old.MerchantID != t.MerchantID {
		s.merchantIdx.Remove(old.MerchantID, id)
		s.merchantIdx.Add(t.MerchantID, id)
	}
	return t, nil
}

// Delete removes the record named by q.TransactionID together with its index
// entries, provided q.UserID matches the record's owner.
func (s *TransactionService) Delete(ctx context.Context, q Query) error {
	if isBlank(q.TransactionID) {
		return newError(CodeMissingID, "transaction id must not be empty")
	}
	id := q.TransactionID
	if !s.locks.TryAcquire(id) {
		return newError(CodeLockBusy, "transaction "+id+" is being operated on by another caller")
	}
	defer s.locks.Release(id)

	old, ok := s.records.Get(id)
	if !ok {
		return newError(CodeNotFound, "transaction "+id+" does not exist")
	}
	if old.UserID != q.UserID {
		s.log.Warnf("rejected delete of transaction %s: not owned by requesting user", id)
		return newError(CodeForbidden,
			"transaction "+id+" does not belong to the requesting user")
	}

	s.records.Remove(id)
	s.userIdx.Remove(old.UserID, id)
	s.merchantIdx.Remove(old.MerchantID, id)
	return nil
}

// Search dispatches on the criteria, first match wins: all blank, exact id,
// user+merchant intersection, user only, merchant only. Results are ordered
// by id ascending; ids embed date+sequence, so the order is chronological.
func (s *TransactionService) Search(ctx context.Context, q Query) *QueryResult {
	page, pageSize := normalizePaging(q.Page, q.PageSize)
	rsp := &QueryResult{Page: page, PageSize: pageSize, Transactions: []TransactionView{}}

	switch {
	case isBlank(q.TransactionID) && isBlank(q.UserID) && isBlank(q.MerchantID):
		s.collect(s.records.Keys(), page, pageSize, rsp)
	case !isBlank(q.TransactionID):
		// Exact lookup ignores pagination.
		if t, ok := s.records.Get(q.TransactionID); ok {
			rsp.Total = 1
			rsp.Transactions = append(rsp.Transactions, toView(t))
		}
	case !isBlank(q.UserID) && !isBlank(q.MerchantID):
		userIDs, _ := s.userIdx.Get(q.UserID)
		merchantIDs, _ := s.merchantIdx.Get(q.MerchantID)
		s.collect(intersect(userIDs, merchantIDs), page, pageSize, rsp)
	case !isBlank(q.UserID):
		ids, _ := s.userIdx.Get(q.UserID)
		s.collect(ids, page, pageSize, rsp)
	default:
		ids, _ := s.merchantIdx.Get(q.MerchantID)
		s.collect(ids, page, pageSize, rsp)
	}
	return rsp
}

// collect sorts the candidate ids, records the pre-pagination total and
// resolves the requested page against the record store. Ids whose record was
// evicted between index read and resolution are skipped.
func (s *TransactionService) collect(ids []string, page, pageSize int, rsp *QueryResult) {
	if len(ids) == 0 {
		return
	}
	sort.Strings(ids)
	rsp.Total = len(ids)

	offset := (page - 1) * pageSize
	if offset >= len(ids) {
		return
	}
	limit := offset + pageSize
	if limit > len(ids) {
		limit = len(ids)
	}
	for _, id := range ids[offset:limit] {
		if t, ok := s.records.Get(id); ok {
			rsp.Transactions = append(rsp.Transactions, toView(t))
		}
	}
}

// generateID produces the next id in the form T + YYYYMMDD + 8-digit
// zero-padded sequence. The sequence continues from the lexicographic max id
// in the store and restarts at 1 when the date rolls over. Reading the max
// and inserting are not one atomic step: the per-id lock is keyed by the id
// computed here, so two creates racing through this gap can compute the same
// next id — the defensive existence check in Create is what surfaces that.
func (s *TransactionService) generateID() string {
	today := time.Now().Format(idDateLayout)

	max := ""
	for _, id := range s.records.Keys() {
		if id > max {
			max = id
		}
	}
	if len(max) != 17 || max[1:9] != today {
		return fmt.Sprintf("T%s%08d", today, 1)
	}
	seq, err := strconv.Atoi(max[9:])
	if err != nil {
		return fmt.Sprintf("T%s%08d", today, 1)
	}
	return fmt.Sprintf("T%s%08d", today, seq+1)
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range b {
		if _, ok := seen[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
