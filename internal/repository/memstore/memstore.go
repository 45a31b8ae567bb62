// Package memstore is an in-process implementation of the repository
// interfaces. The API falls back to it when no Postgres DSN is configured,
// and tests use it to exercise services without a database.
//
// WithinTx holds the store lock for the whole callback and works on a copy
// of the data, so a failed callback leaves no trace.
package memstore

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/repository"
)

type state struct {
	nextID       int64
	users        map[int64]domain.User
	events       map[int64]domain.Event
	vouchers     map[int64]domain.Voucher
	grants       map[int64]domain.PointGrant
	transactions map[int64]domain.Transaction
	referrals    map[int64]domain.ReferralHistory
}

func newState() *state {
	return &state{
		users:        map[int64]domain.User{},
		events:       map[int64]domain.Event{},
		vouchers:     map[int64]domain.Voucher{},
		grants:       map[int64]domain.PointGrant{},
		transactions: map[int64]domain.Transaction{},
		referrals:    map[int64]domain.ReferralHistory{},
	}
}

func (s *state) clone() *state {
	return &state{
		nextID:       s.nextID,
		users:        maps.Clone(s.users),
		events:       maps.Clone(s.events),
		vouchers:     maps.Clone(s.vouchers),
		grants:       maps.Clone(s.grants),
		transactions: maps.Clone(s.transactions),
		referrals:    maps.Clone(s.referrals),
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store holds all records in memory.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// Repositories returns repositories that operate on the store directly.
func (s *Store) Repositories() repository.Repositories {
	return bind(&view{store: s})
}

// WithinTx implements repository.TxRunner.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	if err := fn(ctx, bind(&view{store: s, tx: working})); err != nil {
		return err
	}
	s.st = working
	return nil
}

type view struct {
	store *Store
	tx    *state
}

func (v *view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func bind(v *view) repository.Repositories {
	return repository.Repositories{
		Users:        &userRepo{v: v},
		Events:       &eventRepo{v: v},
		Vouchers:     &voucherRepo{v: v},
		Points:       &pointRepo{v: v},
		Transactions: &transactionRepo{v: v},
		Referrals:    &referralRepo{v: v},
	}
}

type userRepo struct{ v *view }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	return r.v.do(func(st *state) error {
		for _, existing := range st.users {
			if existing.Email == user.Email {
				return repository.UniqueViolation("users_email_key")
			}
			if existing.ReferralCode == user.ReferralCode {
				return repository.UniqueViolation("users_referral_code_key")
			}
		}
		now := r.v.store.now()
		user.ID = st.id()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *userRepo) GetByReferralCode(_ context.Context, code string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ReferralCode == code })
}

func (r *userRepo) find(match func(domain.User) bool) (*domain.User, error) {
	var found *domain.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				user := u
				found = &user
				return nil
			}
		}
		return pgx.ErrNoRows
	})
	return found, err
}

func (r *userRepo) DeductPoints(_ context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.v.do(func(st *state) error {
		user, ok := st.users[id]
		if !ok || user.TotalPoint.LessThan(amount) {
			return pgx.ErrNoRows
		}
		user.TotalPoint = user.TotalPoint.Sub(amount)
		user.UpdatedAt = r.v.store.now()
		st.users[id] = user
		balance = user.TotalPoint
		return nil
	})
	return balance, err
}

func (r *userRepo) AddPoints(_ context.Context, id int64, amount decimal.Decimal) error {
	return r.adjust(id, func(balance decimal.Decimal) decimal.Decimal { return balance.Add(amount) })
}

func (r *userRepo) ExpirePoints(_ context.Context, id int64, amount decimal.Decimal) error {
	return r.adjust(id, func(balance decimal.Decimal) decimal.Decimal {
		return decimal.Max(balance.Sub(amount), decimal.Zero)
	})
}

func (r *userRepo) adjust(id int64, fn func(decimal.Decimal) decimal.Decimal) error {
	return r.v.do(func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return pgx.ErrNoRows
		}
		user.TotalPoint = fn(user.TotalPoint)
		user.UpdatedAt = r.v.store.now()
		st.users[id] = user
		return nil
	})
}

type eventRepo struct{ v *view }

func (r *eventRepo) Create(_ context.Context, event *domain.Event) error {
	return r.v.do(func(st *state) error {
		for _, existing := range st.events {
			if existing.Slug == event.Slug {
				return repository.UniqueViolation("events_slug_key")
			}
		}
		now := r.v.store.now()
		event.ID = st.id()
		event.CreatedAt, event.UpdatedAt = now, now
		st.events[event.ID] = *event
		return nil
	})
}

func (r *eventRepo) Update(_ context.Context, event *domain.Event) error {
	return r.v.do(func(st *state) error {
		current, ok := st.events[event.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		for id, existing := range st.events {
			if id != event.ID && existing.Slug == event.Slug {
				return repository.UniqueViolation("events_slug_key")
			}
		}
		event.Spot = current.Spot
		event.TicketsSold = current.TicketsSold
		event.CreatedBy = current.CreatedBy
		event.CreatedAt = current.CreatedAt
		event.UpdatedAt = r.v.store.now()
		st.events[event.ID] = *event
		return nil
	})
}

func (r *eventRepo) Delete(_ context.Context, id int64) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.events[id]; !ok {
			return pgx.ErrNoRows
		}
		for _, txn := range st.transactions {
			if txn.EventID == id {
				return repository.ForeignKeyViolation("transactions_event_id_fkey")
			}
		}
		delete(st.events, id)
		return nil
	})
}

func (r *eventRepo) SetSpot(_ context.Context, id int64, spot int) (*domain.Event, error) {
	var updated *domain.Event
	err := r.v.do(func(st *state) error {
		event, ok := st.events[id]
		if !ok {
			return pgx.ErrNoRows
		}
		event.Spot = spot
		event.UpdatedAt = r.v.store.now()
		st.events[id] = event
		updated = &event
		return nil
	})
	return updated, err
}

func (r *eventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	var found *domain.Event
	err := r.v.do(func(st *state) error {
		event, ok := st.events[id]
		if !ok {
			return pgx.ErrNoRows
		}
		found = &event
		return nil
	})
	return found, err
}

func (r *eventRepo) List(_ context.Context) ([]domain.Event, error) {
	return r.filter(func(domain.Event) bool { return true })
}

func (r *eventRepo) ListByOrganizer(_ context.Context, organizerID int64) ([]domain.Event, error) {
	return r.filter(func(e domain.Event) bool { return e.CreatedBy == organizerID })
}

func (r *eventRepo) filter(match func(domain.Event) bool) ([]domain.Event, error) {
	result := []domain.Event{}
	err := r.v.do(func(st *state) error {
		for _, event := range st.events {
			if match(event) {
				result = append(result, event)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, err
}

func (r *eventRepo) ReserveSpot(_ context.Context, id int64) (*domain.Event, error) {
	var reserved *domain.Event
	err := r.v.do(func(st *state) error {
		event, ok := st.events[id]
		if !ok || event.Spot <= 0 {
			return pgx.ErrNoRows
		}
		event.Spot--
		event.TicketsSold++
		event.UpdatedAt = r.v.store.now()
		st.events[id] = event
		reserved = &event
		return nil
	})
	return reserved, err
}

type voucherRepo struct{ v *view }

func (r *voucherRepo) Create(_ context.Context, voucher *domain.Voucher) error {
	return r.v.do(func(st *state) error {
		for _, existing := range st.vouchers {
			if existing.Code == voucher.Code {
				return repository.UniqueViolation("vouchers_code_key")
			}
		}
		voucher.ID = st.id()
		voucher.CreatedAt = r.v.store.now()
		st.vouchers[voucher.ID] = *voucher
		return nil
	})
}

func (r *voucherRepo) GetByID(_ context.Context, id int64) (*domain.Voucher, error) {
	var found *domain.Voucher
	err := r.v.do(func(st *state) error {
		voucher, ok := st.vouchers[id]
		if !ok {
			return pgx.ErrNoRows
		}
		found = &voucher
		return nil
	})
	return found, err
}

func (r *voucherRepo) ListUsableByUser(_ context.Context, userID int64, now time.Time) ([]domain.Voucher, error) {
	result := []domain.Voucher{}
	err := r.v.do(func(st *state) error {
		for _, voucher := range st.vouchers {
			if voucher.UserID == userID && voucher.UsableAt(now) {
				result = append(result, voucher)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].EndDate.Before(result[j].EndDate) })
	return result, err
}

func (r *voucherRepo) Consume(_ context.Context, id int64, now time.Time) error {
	return r.v.do(func(st *state) error {
		voucher, ok := st.vouchers[id]
		if !ok || !voucher.UsableAt(now) {
			return pgx.ErrNoRows
		}
		voucher.Active = false
		st.vouchers[id] = voucher
		return nil
	})
}

type pointRepo struct{ v *view }

func (r *pointRepo) Create(_ context.Context, grant *domain.PointGrant) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.users[grant.UserID]; !ok {
			return pgx.ErrNoRows
		}
		grant.ID = st.id()
		grant.CreatedAt = r.v.store.now()
		st.grants[grant.ID] = *grant
		return nil
	})
}

func (r *pointRepo) ListDue(_ context.Context, now time.Time) ([]domain.PointGrant, error) {
	result := []domain.PointGrant{}
	err := r.v.do(func(st *state) error {
		for _, grant := range st.grants {
			if grant.ExpiredAt(now) {
				result = append(result, grant)
			}
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, err
}

func (r *pointRepo) Delete(_ context.Context, id int64) (bool, error) {
	removed := false
	err := r.v.do(func(st *state) error {
		if _, ok := st.grants[id]; ok {
			delete(st.grants, id)
			removed = true
		}
		return nil
	})
	return removed, err
}

type transactionRepo struct{ v *view }

func (r *transactionRepo) Create(_ context.Context, txn *domain.Transaction) error {
	return r.v.do(func(st *state) error {
		for _, existing := range st.transactions {
			if existing.Code == txn.Code {
				return repository.UniqueViolation("transactions_code_key")
			}
		}
		now := r.v.store.now()
		txn.ID = st.id()
		txn.CreatedAt, txn.UpdatedAt = now, now
		st.transactions[txn.ID] = *txn
		return nil
	})
}

func (r *transactionRepo) GetByID(_ context.Context, id int64) (*domain.Transaction, error) {
	var found *domain.Transaction
	err := r.v.do(func(st *state) error {
		txn, ok := st.transactions[id]
		if !ok {
			return pgx.ErrNoRows
		}
		found = &txn
		return nil
	})
	return found, err
}

func (r *transactionRepo) ListByEvent(_ context.Context, eventID int64) ([]domain.TransactionDetail, error) {
	result := []domain.TransactionDetail{}
	err := r.v.do(func(st *state) error {
		for _, txn := range st.transactions {
			if txn.EventID != eventID {
				continue
			}
			buyer, ok := st.users[txn.UserID]
			if !ok {
				continue
			}
			detail := domain.TransactionDetail{Transaction: txn, BuyerName: buyer.Fullname, BuyerEmail: buyer.Email}
			if txn.VoucherID != nil {
				if voucher, ok := st.vouchers[*txn.VoucherID]; ok {
					code, active := voucher.Code, voucher.Active
					detail.VoucherCode, detail.VoucherActive = &code, &active
				}
			}
			result = append(result, detail)
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, err
}

type referralRepo struct{ v *view }

func (r *referralRepo) Create(_ context.Context, entry *domain.ReferralHistory) error {
	return r.v.do(func(st *state) error {
		entry.ID = st.id()
		entry.CreatedAt = r.v.store.now()
		st.referrals[entry.ID] = *entry
		return nil
	})
}

// Referrals returns the recorded referral history, oldest first.
func (s *Store) Referrals() []domain.ReferralHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.ReferralHistory, 0, len(s.st.referrals))
	for _, entry := range s.st.referrals {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// CountTransactions returns the number of stored transactions.
func (s *Store) CountTransactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.transactions)
}

// CountGrants returns the number of stored point grants.
func (s *Store) CountGrants() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.grants)
}
