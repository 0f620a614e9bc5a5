package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel errors returned by every repository implementation.
var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrConditionNotMet = errors.New("update condition not met")
)

// Transactor runs fn as one unit of work. Implementations backed by a store
// without transactions run fn directly.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserIncrements are the counter deltas applied to a user in one atomic update.
type UserIncrements struct {
	PointsBalance      int
	TotalPointsEarned  int
	TotalPointsSpent   int
	TotalItemsRecycled int
	TotalCO2Saved      float64
	// ActivityAt, when set, is written to lastActivityDate.
	ActivityAt time.Time
}

// LeaderboardFilter narrows a user leaderboard query.
type LeaderboardFilter struct {
	University  string
	ActiveSince time.Time
	Limit       int
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	// ApplyIncrements adds inc to the user's counters in a single conditional
	// update. When minBalance > 0 the update only applies if the stored
	// pointsBalance is at least minBalance; otherwise ErrConditionNotMet.
	ApplyIncrements(ctx context.Context, id primitive.ObjectID, inc UserIncrements, minBalance int) (*models.User, error)
	FindTop(ctx context.Context, filter LeaderboardFilter) ([]*models.User, error)
	CountWithBalanceAbove(ctx context.Context, balance int, university string) (int64, error)
}

// RecyclingActivityRepository defines the interface for recycling event storage
type RecyclingActivityRepository interface {
	Create(ctx context.Context, activity *models.RecyclingActivity) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// FindByUserID returns the user's activities ordered by timestamp.
	// limit <= 0 returns all of them.
	FindByUserID(ctx context.Context, userID primitive.ObjectID, limit int, ascending bool) ([]*models.RecyclingActivity, error)
}

// ScanClaimRepository guards against the same code being recorded twice within a window
type ScanClaimRepository interface {
	// Claim atomically reserves code for window starting at now. It returns
	// false when an unexpired claim for code already exists.
	Claim(ctx context.Context, code string, now time.Time, window time.Duration) (bool, error)
	// Release drops the claim made at claimedAt, if it is still the current one.
	Release(ctx context.Context, code string, claimedAt time.Time) error
}

// VoucherTemplateRepository defines the interface for voucher template operations
type VoucherTemplateRepository interface {
	Create(ctx context.Context, template *models.VoucherTemplate) error
	UpsertByName(ctx context.Context, template *models.VoucherTemplate) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.VoucherTemplate, error)
	FindActive(ctx context.Context) ([]*models.VoucherTemplate, error)
	Categories(ctx context.Context) ([]string, error)
	// DecrementInventory takes one unit of tracked stock; ErrConditionNotMet
	// when the stored inventory is not positive.
	DecrementInventory(ctx context.Context, id primitive.ObjectID) error
	RestoreInventory(ctx context.Context, id primitive.ObjectID) error
}

// VoucherRepository defines the interface for voucher operations
type VoucherRepository interface {
	// Create fails with ErrDuplicateKey when the voucher code is taken.
	Create(ctx context.Context, voucher *models.Voucher) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Voucher, error)
	FindByCode(ctx context.Context, code string) (*models.Voucher, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.Voucher, error)
	// MarkRedeemed transitions an active, unexpired voucher to redeemed;
	// ErrConditionNotMet if it is no longer in that state at now.
	MarkRedeemed(ctx context.Context, id primitive.ObjectID, redeemedBy string, now time.Time) error
}

// TransactionRepository defines the interface for the points audit trail
type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	FindByUserID(ctx context.Context, userID primitive.ObjectID, limit int) ([]*models.Transaction, error)
}

// CampusRepository defines the interface for university and residence hall aggregates
type CampusRepository interface {
	UpsertUniversity(ctx context.Context, university *models.University) error
	UpsertResidenceHall(ctx context.Context, hall *models.ResidenceHall) error
	IncrementUniversity(ctx context.Context, id string, points, items int, co2 float64) error
	IncrementResidenceHall(ctx context.Context, id string, points, items int) error
	TopUniversities(ctx context.Context, limit int) ([]*models.University, error)
	TopResidenceHalls(ctx context.Context, university string, limit int) ([]*models.ResidenceHall, error)
}
