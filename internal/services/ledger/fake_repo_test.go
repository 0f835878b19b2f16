package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"kolo/internal/models"
	"kolo/internal/repositories"
)

// fakeStore is an in-memory stand-in for the storage layer. The mutex
// serializes units of work the way the database serializes transactions,
// and ExecuteInTransaction snapshots state so failed units roll back.
type fakeStore struct {
	mu      sync.Mutex
	wallets map[uint]*models.Wallet
	txns    map[string]*models.Transaction
	nextID  uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wallets: make(map[uint]*models.Wallet),
		txns:    make(map[string]*models.Transaction),
	}
}

func (s *fakeStore) addWallet(userID uint, number string, balance int64) *models.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	w := &models.Wallet{
		ID:           s.nextID,
		UserID:       userID,
		WalletNumber: number,
		Balance:      balance,
		Currency:     "NGN",
		CreatedAt:    time.Now(),
	}
	s.wallets[w.ID] = w
	return copyWallet(w)
}

func (s *fakeStore) walletBalance(id uint) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[id].Balance
}

func (s *fakeStore) transaction(reference string) *models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.txns[reference]; ok {
		return copyTxn(t)
	}
	return nil
}

func (s *fakeStore) snapshot() (map[uint]*models.Wallet, map[string]*models.Transaction) {
	wallets := make(map[uint]*models.Wallet, len(s.wallets))
	for id, w := range s.wallets {
		wallets[id] = copyWallet(w)
	}
	txns := make(map[string]*models.Transaction, len(s.txns))
	for ref, t := range s.txns {
		txns[ref] = copyTxn(t)
	}
	return wallets, txns
}

func copyWallet(w *models.Wallet) *models.Wallet {
	c := *w
	return &c
}

func copyTxn(t *models.Transaction) *models.Transaction {
	c := *t
	if t.LastVerificationAttempt != nil {
		ts := *t.LastVerificationAttempt
		c.LastVerificationAttempt = &ts
	}
	if t.Metadata != nil {
		c.Metadata = make(models.JSON, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Unlocked core operations, shared by both repository views.

func (s *fakeStore) walletByUserID(userID uint) (*models.Wallet, error) {
	for _, w := range s.wallets {
		if w.UserID == userID {
			return copyWallet(w), nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (s *fakeStore) walletByNumber(number string) (*models.Wallet, error) {
	for _, w := range s.wallets {
		if w.WalletNumber == number {
			return copyWallet(w), nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (s *fakeStore) walletByID(id uint) (*models.Wallet, error) {
	if w, ok := s.wallets[id]; ok {
		return copyWallet(w), nil
	}
	return nil, repositories.ErrWalletNotFound
}

func (s *fakeStore) creditWallet(id uint, amount int64) error {
	w, ok := s.wallets[id]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	w.Balance += amount
	return nil
}

func (s *fakeStore) debitWallet(id uint, amount int64) error {
	w, ok := s.wallets[id]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	if w.Balance < amount {
		return repositories.ErrInsufficientFunds
	}
	w.Balance -= amount
	return nil
}

func (s *fakeStore) transactionByReference(reference string) (*models.Transaction, error) {
	if t, ok := s.txns[reference]; ok {
		return copyTxn(t), nil
	}
	return nil, repositories.ErrTransactionNotFound
}

func (s *fakeStore) pendingTransactions() []models.Transaction {
	var out []models.Transaction
	for _, t := range s.txns {
		if t.Status == models.TransactionStatusPending {
			out = append(out, *copyTxn(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeStore) transactionsForWallet(walletID uint) []models.Transaction {
	var out []models.Transaction
	for _, t := range s.txns {
		if t.WalletID == walletID {
			out = append(out, *copyTxn(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *fakeStore) createTransaction(txn *models.Transaction) error {
	if _, exists := s.txns[txn.Reference]; exists {
		return errors.New("unique constraint violation: reference")
	}
	s.nextID++
	txn.ID = s.nextID
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	s.txns[txn.Reference] = copyTxn(txn)
	return nil
}

func (s *fakeStore) stampVerificationAttempt(reference string, at time.Time) (bool, error) {
	t, ok := s.txns[reference]
	if !ok || t.Status != models.TransactionStatusPending {
		return false, nil
	}
	t.VerificationAttempts++
	ts := at
	t.LastVerificationAttempt = &ts
	return true, nil
}

func (s *fakeStore) updateTransaction(txn *models.Transaction) error {
	if _, ok := s.txns[txn.Reference]; !ok {
		return repositories.ErrTransactionNotFound
	}
	s.txns[txn.Reference] = copyTxn(txn)
	return nil
}

// fakeRepo is the view the engine holds outside a unit of work. Every
// call takes the store lock, mimicking independent statements.
type fakeRepo struct {
	store *fakeStore
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{store: newFakeStore()}
}

func (r *fakeRepo) WalletByUserID(_ context.Context, userID uint) (*models.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.walletByUserID(userID)
}

func (r *fakeRepo) WalletByNumber(_ context.Context, number string) (*models.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.walletByNumber(number)
}

func (r *fakeRepo) WalletByIDForUpdate(_ context.Context, id uint) (*models.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.walletByID(id)
}

func (r *fakeRepo) CreditWallet(_ context.Context, id uint, amount int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.creditWallet(id, amount)
}

func (r *fakeRepo) DebitWallet(_ context.Context, id uint, amount int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.debitWallet(id, amount)
}

func (r *fakeRepo) TransactionByReference(_ context.Context, reference string) (*models.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.transactionByReference(reference)
}

func (r *fakeRepo) TransactionByReferenceForUpdate(_ context.Context, reference string) (*models.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.transactionByReference(reference)
}

func (r *fakeRepo) PendingTransactions(_ context.Context) ([]models.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.pendingTransactions(), nil
}

func (r *fakeRepo) TransactionsForWallet(_ context.Context, walletID uint) ([]models.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.transactionsForWallet(walletID), nil
}

func (r *fakeRepo) CreateTransaction(_ context.Context, txn *models.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.createTransaction(txn)
}

func (r *fakeRepo) UpdateTransaction(_ context.Context, txn *models.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.updateTransaction(txn)
}

func (r *fakeRepo) StampVerificationAttempt(_ context.Context, reference string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.stampVerificationAttempt(reference, at)
}

func (r *fakeRepo) ExecuteInTransaction(_ context.Context, fn func(tx repositories.LedgerRepository) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	wallets, txns := r.store.snapshot()
	if err := fn(&fakeTxRepo{store: r.store}); err != nil {
		r.store.wallets = wallets
		r.store.txns = txns
		return err
	}
	return nil
}

// fakeTxRepo is the view handed to a unit-of-work callback; the outer
// call already holds the store lock.
type fakeTxRepo struct {
	store *fakeStore
}

func (r *fakeTxRepo) WalletByUserID(_ context.Context, userID uint) (*models.Wallet, error) {
	return r.store.walletByUserID(userID)
}

func (r *fakeTxRepo) WalletByNumber(_ context.Context, number string) (*models.Wallet, error) {
	return r.store.walletByNumber(number)
}

func (r *fakeTxRepo) WalletByIDForUpdate(_ context.Context, id uint) (*models.Wallet, error) {
	return r.store.walletByID(id)
}

func (r *fakeTxRepo) CreditWallet(_ context.Context, id uint, amount int64) error {
	return r.store.creditWallet(id, amount)
}

func (r *fakeTxRepo) DebitWallet(_ context.Context, id uint, amount int64) error {
	return r.store.debitWallet(id, amount)
}

func (r *fakeTxRepo) TransactionByReference(_ context.Context, reference string) (*models.Transaction, error) {
	return r.store.transactionByReference(reference)
}

func (r *fakeTxRepo) TransactionByReferenceForUpdate(_ context.Context, reference string) (*models.Transaction, error) {
	return r.store.transactionByReference(reference)
}

func (r *fakeTxRepo) PendingTransactions(_ context.Context) ([]models.Transaction, error) {
	return r.store.pendingTransactions(), nil
}

func (r *fakeTxRepo) TransactionsForWallet(_ context.Context, walletID uint) ([]models.Transaction, error) {
	return r.store.transactionsForWallet(walletID), nil
}

func (r *fakeTxRepo) CreateTransaction(_ context.Context, txn *models.Transaction) error {
	return r.store.createTransaction(txn)
}

func (r *fakeTxRepo) UpdateTransaction(_ context.Context, txn *models.Transaction) error {
	return r.store.updateTransaction(txn)
}

func (r *fakeTxRepo) StampVerificationAttempt(_ context.Context, reference string, at time.Time) (bool, error) {
	return r.store.stampVerificationAttempt(reference, at)
}

func (r *fakeTxRepo) ExecuteInTransaction(_ context.Context, fn func(tx repositories.LedgerRepository) error) error {
	return fn(r)
}
