package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memStore is an in-memory stand-in for every repository. Each method holds
// the lock for its whole body, which gives it the same per-document
// atomicity as the MongoDB implementations.
type memStore struct {
	mu sync.Mutex

	users        map[primitive.ObjectID]*models.User
	activities   []*models.RecyclingActivity
	claims       map[string]time.Time
	templates    map[primitive.ObjectID]*models.VoucherTemplate
	vouchers     map[primitive.ObjectID]*models.Voucher
	transactions []*models.Transaction
	universities map[string]*models.University
	halls        map[string]*models.ResidenceHall

	failActivityFind bool
	failTxCreate     bool
	failVoucherWrite bool

	// inventoryConflicts makes the next n DecrementInventory calls fail
	// with a transient write conflict.
	inventoryConflicts int

	inTxn      bool
	txnAborted bool
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[primitive.ObjectID]*models.User{},
		claims:       map[string]time.Time{},
		templates:    map[primitive.ObjectID]*models.VoucherTemplate{},
		vouchers:     map[primitive.ObjectID]*models.Voucher{},
		universities: map[string]*models.University{},
		halls:        map[string]*models.ResidenceHall{},
	}
}

type errBackend struct{}

func (errBackend) Error() string { return "connection refused" }

var (
	errWriteConflict = mongo.CommandError{Code: 112, Name: "WriteConflict", Message: "write conflict", Labels: []string{"TransientTransactionError"}}
	errNoSuchTxn     = mongo.CommandError{Code: 251, Name: "NoSuchTransaction", Message: "transaction has been aborted"}
)

// txnWrite gates a write made inside memTransactor. Callers hold mu.
func (m *memStore) txnWrite() error {
	if m.inTxn && m.txnAborted {
		return errNoSuchTxn
	}
	return nil
}

// abortOnError marks the open transaction aborted the way the server does
// after a failed write. Callers hold mu.
func (m *memStore) abortOnError(err error) error {
	if err != nil && m.inTxn {
		m.txnAborted = true
	}
	return err
}

type memSnapshot struct {
	users        map[primitive.ObjectID]models.User
	activities   []*models.RecyclingActivity
	claims       map[string]time.Time
	templates    map[primitive.ObjectID]models.VoucherTemplate
	vouchers     map[primitive.ObjectID]models.Voucher
	transactions []*models.Transaction
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := memSnapshot{
		users:        map[primitive.ObjectID]models.User{},
		activities:   append([]*models.RecyclingActivity(nil), m.activities...),
		claims:       map[string]time.Time{},
		templates:    map[primitive.ObjectID]models.VoucherTemplate{},
		vouchers:     map[primitive.ObjectID]models.Voucher{},
		transactions: append([]*models.Transaction(nil), m.transactions...),
	}
	for id, u := range m.users {
		snap.users[id] = *u
	}
	for code, at := range m.claims {
		snap.claims[code] = at
	}
	for id, t := range m.templates {
		cp := *t
		if t.Inventory != nil {
			inv := *t.Inventory
			cp.Inventory = &inv
		}
		snap.templates[id] = cp
	}
	for id, v := range m.vouchers {
		snap.vouchers[id] = *v
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = map[primitive.ObjectID]*models.User{}
	for id, u := range snap.users {
		u := u
		m.users[id] = &u
	}
	m.activities = snap.activities
	m.claims = snap.claims
	m.templates = map[primitive.ObjectID]*models.VoucherTemplate{}
	for id, t := range snap.templates {
		t := t
		m.templates[id] = &t
	}
	m.vouchers = map[primitive.ObjectID]*models.Voucher{}
	for id, v := range snap.vouchers {
		v := v
		m.vouchers[id] = &v
	}
	m.transactions = snap.transactions
}

// memTransactor behaves like a MongoDB session transaction over memStore.
// A failed write aborts the attempt so later writes in it fail, a failed
// attempt is rolled back, and attempts failing with a
// TransientTransactionError label are rerun.
type memTransactor struct {
	*memStore
	attempts int
}

var _ repositories.Transactor = (*memTransactor)(nil)

func (m *memTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	for {
		m.attempts++
		snap := m.snapshot()
		m.setTxn(true)
		err := fn(ctx)
		aborted := m.setTxn(false)
		if err == nil && !aborted {
			return nil
		}
		m.restore(snap)
		if err == nil {
			return errNoSuchTxn
		}
		var labeled mongo.LabeledError
		if errors.As(err, &labeled) && labeled.HasErrorLabel("TransientTransactionError") && m.attempts < 5 {
			continue
		}
		return err
	}
}

// setTxn opens or closes the transaction and reports whether the one being
// replaced was aborted.
func (m *memStore) setTxn(open bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	aborted := m.txnAborted
	m.inTxn = open
	m.txnAborted = false
	return aborted
}

// --- users ---

type memUsers struct{ *memStore }

var _ repositories.UserRepository = memUsers{}

func (m memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repositories.ErrDuplicateKey
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m memUsers) UpdateLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.LastLogin = at
	}
	return nil
}

func (m memUsers) ApplyIncrements(_ context.Context, id primitive.ObjectID, inc repositories.UserIncrements, minBalance int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.txnWrite(); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if minBalance > 0 && u.PointsBalance < minBalance {
		return nil, repositories.ErrConditionNotMet
	}
	u.PointsBalance += inc.PointsBalance
	u.TotalPointsEarned += inc.TotalPointsEarned
	u.TotalPointsSpent += inc.TotalPointsSpent
	u.TotalItemsRecycled += inc.TotalItemsRecycled
	u.TotalCO2Saved += inc.TotalCO2Saved
	if !inc.ActivityAt.IsZero() {
		u.LastActivityDate = inc.ActivityAt
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) FindTop(_ context.Context, f repositories.LeaderboardFilter) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.users {
		if f.University != "" && u.University != f.University {
			continue
		}
		if !f.ActiveSince.IsZero() && u.LastActivityDate.Before(f.ActiveSince) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PointsBalance != out[j].PointsBalance {
			return out[i].PointsBalance > out[j].PointsBalance
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m memUsers) CountWithBalanceAbove(_ context.Context, balance int, university string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if university != "" && u.University != university {
			continue
		}
		if u.PointsBalance > balance {
			n++
		}
	}
	return n, nil
}

// --- activities ---

type memActivities struct{ *memStore }

var _ repositories.RecyclingActivityRepository = memActivities{}

func (m memActivities) Create(_ context.Context, a *models.RecyclingActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = primitive.NewObjectID()
	cp := *a
	m.activities = append(m.activities, &cp)
	return nil
}

func (m memActivities) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.activities {
		if a.ID == id {
			m.activities = append(m.activities[:i], m.activities[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m memActivities) FindByUserID(_ context.Context, userID primitive.ObjectID, limit int, ascending bool) ([]*models.RecyclingActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failActivityFind {
		return nil, errBackend{}
	}
	var out []*models.RecyclingActivity
	for _, a := range m.activities {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- scan claims ---

type memClaims struct{ *memStore }

var _ repositories.ScanClaimRepository = memClaims{}

func (m memClaims) Claim(_ context.Context, code string, now time.Time, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if at, ok := m.claims[code]; ok && at.After(now.Add(-window)) {
		return false, nil
	}
	m.claims[code] = now
	return true, nil
}

func (m memClaims) Release(_ context.Context, code string, claimedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if at, ok := m.claims[code]; ok && at.Equal(claimedAt) {
		delete(m.claims, code)
	}
	return nil
}

// --- templates ---

type memTemplates struct{ *memStore }

var _ repositories.VoucherTemplateRepository = memTemplates{}

func (m memTemplates) Create(_ context.Context, t *models.VoucherTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.templates {
		if existing.Name == t.Name {
			return repositories.ErrDuplicateKey
		}
	}
	t.ID = primitive.NewObjectID()
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m memTemplates) UpsertByName(ctx context.Context, t *models.VoucherTemplate) error {
	return m.Create(ctx, t)
}

func (m memTemplates) FindByID(_ context.Context, id primitive.ObjectID) (*models.VoucherTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	if t.Inventory != nil {
		inv := *t.Inventory
		cp.Inventory = &inv
	}
	return &cp, nil
}

func (m memTemplates) FindActive(_ context.Context) ([]*models.VoucherTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.VoucherTemplate
	for _, t := range m.templates {
		if t.IsActive {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PointsCost < out[j].PointsCost })
	return out, nil
}

func (m memTemplates) Categories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := map[string]bool{}
	for _, t := range m.templates {
		if t.Category != "" {
			set[t.Category] = true
		}
	}
	var out []string
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (m memTemplates) DecrementInventory(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.txnWrite(); err != nil {
		return err
	}
	if m.inventoryConflicts > 0 {
		m.inventoryConflicts--
		return m.abortOnError(errWriteConflict)
	}
	t, ok := m.templates[id]
	if !ok || t.Inventory == nil || *t.Inventory <= 0 {
		return repositories.ErrConditionNotMet
	}
	inv := *t.Inventory - 1
	t.Inventory = &inv
	return nil
}

func (m memTemplates) RestoreInventory(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.txnWrite(); err != nil {
		return err
	}
	if t, ok := m.templates[id]; ok && t.Inventory != nil {
		inv := *t.Inventory + 1
		t.Inventory = &inv
	}
	return nil
}

func (m *memStore) inventory(id primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.templates[id].Inventory
}

// --- vouchers ---

type memVouchers struct{ *memStore }

var _ repositories.VoucherRepository = memVouchers{}

func (m memVouchers) Create(_ context.Context, v *models.Voucher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.txnWrite(); err != nil {
		return err
	}
	if m.failVoucherWrite {
		return m.abortOnError(errBackend{})
	}
	for _, existing := range m.vouchers {
		if existing.VoucherCode == v.VoucherCode {
			return m.abortOnError(repositories.ErrDuplicateKey)
		}
	}
	v.ID = primitive.NewObjectID()
	cp := *v
	m.vouchers[v.ID] = &cp
	return nil
}

func (m memVouchers) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.txnWrite(); err != nil {
		return err
	}
	delete(m.vouchers, id)
	return nil
}

func (m memVouchers) FindByID(_ context.Context, id primitive.ObjectID) (*models.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m memVouchers) FindByCode(_ context.Context, code string) (*models.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vouchers {
		if strings.EqualFold(v.VoucherCode, code) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m memVouchers) FindByUserID(_ context.Context, userID primitive.ObjectID) ([]*models.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Voucher
	for _, v := range m.vouchers {
		if v.UserID == userID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (m memVouchers) MarkRedeemed(_ context.Context, id primitive.ObjectID, by string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[id]
	if !ok || v.Status != models.VoucherStatusActive || !v.ExpiresAt.After(now) {
		return repositories.ErrConditionNotMet
	}
	v.Status = models.VoucherStatusRedeemed
	at := now
	v.RedeemedAt = &at
	v.RedeemedBy = &by
	return nil
}

func (m *memStore) voucherCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vouchers)
}

// --- transactions ---

type memTransactions struct{ *memStore }

var _ repositories.TransactionRepository = memTransactions{}

func (m memTransactions) Create(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.txnWrite(); err != nil {
		return err
	}
	if m.failTxCreate {
		return errBackend{}
	}
	t.ID = primitive.NewObjectID()
	cp := *t
	m.transactions = append(m.transactions, &cp)
	return nil
}

func (m memTransactions) FindByUserID(_ context.Context, userID primitive.ObjectID, limit int) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].UserID == userID {
			cp := *m.transactions[i]
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- campus ---

type memCampus struct{ *memStore }

var _ repositories.CampusRepository = memCampus{}

func (m memCampus) UpsertUniversity(_ context.Context, u *models.University) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.universities[u.ID]; ok {
		existing.Name = u.Name
		return nil
	}
	cp := *u
	m.universities[u.ID] = &cp
	return nil
}

func (m memCampus) UpsertResidenceHall(_ context.Context, h *models.ResidenceHall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.halls[h.ID]; ok {
		existing.Name = h.Name
		return nil
	}
	cp := *h
	m.halls[h.ID] = &cp
	return nil
}

func (m memCampus) IncrementUniversity(_ context.Context, id string, points, items int, co2 float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.universities[id]; ok {
		u.TotalPoints += points
		u.TotalItemsRecycled += items
		u.TotalCO2Saved += co2
	}
	return nil
}

func (m memCampus) IncrementResidenceHall(_ context.Context, id string, points, items int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.halls[id]; ok {
		h.TotalPoints += points
		h.TotalItemsRecycled += items
	}
	return nil
}

func (m memCampus) TopUniversities(_ context.Context, limit int) ([]*models.University, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.University
	for _, u := range m.universities {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalPoints > out[j].TotalPoints })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memCampus) TopResidenceHalls(_ context.Context, university string, limit int) ([]*models.ResidenceHall, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ResidenceHall
	for _, h := range m.halls {
		if university != "" && h.University != university {
			continue
		}
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalPoints > out[j].TotalPoints })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// addUser stores a student with the given balance, all of it counted as earned.
func (m *memStore) addUser(name string, balance int) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.users[id] = &models.User{
		ID:                id,
		Email:             strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@uni.edu",
		DisplayName:       name,
		Role:              models.RoleStudent,
		PointsBalance:     balance,
		TotalPointsEarned: balance,
	}
	return id
}

func (m *memStore) user(id primitive.ObjectID) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

func (m *memStore) activityCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activities)
}

func intPtr(v int) *int { return &v }
