package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/config"
	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	"github.com/adbeam/recycling-rewards-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Voucher status filters accepted by ListUserVouchers.
const (
	VoucherFilterAll = "all"
)

// DeriveStatus reports the status of v as of now. An active voucher whose
// expiry has been reached is expired even though storage still says active.
func DeriveStatus(v *models.Voucher, now time.Time) models.VoucherStatus {
	if v.Status == models.VoucherStatusActive && !now.Before(v.ExpiresAt) {
		return models.VoucherStatusExpired
	}
	return v.Status
}

// VoucherService handles voucher generation, redemption and lookup
type VoucherService struct {
	templateRepo    repositories.VoucherTemplateRepository
	voucherRepo     repositories.VoucherRepository
	transactionRepo repositories.TransactionRepository
	ledger          *LedgerService
	tx              repositories.Transactor
	cfg             config.VoucherConfig
	now             func() time.Time
	newCode         func(length int) (string, error)
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(
	templateRepo repositories.VoucherTemplateRepository,
	voucherRepo repositories.VoucherRepository,
	transactionRepo repositories.TransactionRepository,
	ledger *LedgerService,
	tx repositories.Transactor,
	cfg config.VoucherConfig,
) *VoucherService {
	return &VoucherService{
		templateRepo:    templateRepo,
		voucherRepo:     voucherRepo,
		transactionRepo: transactionRepo,
		ledger:          ledger,
		tx:              tx,
		cfg:             cfg,
		now:             time.Now,
		newCode:         utils.GenerateVoucherCode,
	}
}

// view projects v with its derived status as of now.
func view(v *models.Voucher, now time.Time) *models.VoucherView {
	out := &models.VoucherView{Voucher: *v}
	out.Status = DeriveStatus(v, now)
	if out.Status == models.VoucherStatusActive {
		out.DaysUntilExpiry = int(math.Ceil(v.ExpiresAt.Sub(now).Hours() / 24))
	}
	return out
}

// GenerateVoucher spends the template's cost from the user's balance and
// mints a voucher. On any failure balance, inventory and the user's vouchers
// are left as they were.
func (s *VoucherService) GenerateVoucher(ctx context.Context, userID, templateID primitive.ObjectID) (*models.VoucherView, error) {
	template, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, backendErr("find voucher template", err)
	}
	if !template.IsActive {
		return nil, ErrTemplateInactive
	}

	user, err := s.ledger.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PointsBalance < template.PointsCost {
		return nil, ErrInsufficientPoints
	}
	if template.Inventory != nil && *template.Inventory <= 0 {
		return nil, ErrOutOfStock
	}

	validDays := template.ValidDays
	if validDays <= 0 {
		validDays = s.cfg.DefaultValidDays
	}

	attempts := s.cfg.MaxCodeAttempts
	if attempts <= 0 {
		attempts = 1
	}
	// A duplicate key aborts the server transaction, so each code gets a
	// fresh transaction rather than a retry inside the failed one.
	var voucher *models.Voucher
	for i := 0; ; i++ {
		code, err := s.newCode(s.cfg.CodeLength)
		if err != nil {
			return nil, backendErr("generate voucher code", err)
		}
		voucher, err = s.purchase(ctx, userID, template, code, validDays)
		if err == nil {
			break
		}
		if !errors.Is(err, errCodeTaken) {
			return nil, err
		}
		if i+1 >= attempts {
			return nil, backendErr("insert voucher", fmt.Errorf("no unique code after %d attempts", attempts))
		}
		slog.Warn("Voucher code collision, retrying", "attempt", i+1)
	}

	slog.Info("Voucher generated", "userId", userID, "templateId", templateID, "voucherId", voucher.ID, "pointsCost", template.PointsCost)
	return view(voucher, s.now()), nil
}

// errCodeTaken reports that the drawn voucher code already exists. The
// attempt that hit it has been rolled back.
var errCodeTaken = errors.New("voucher code taken")

// purchase runs one transactional attempt: take stock, debit the cost, insert
// the voucher under code and audit the spend.
func (s *VoucherService) purchase(ctx context.Context, userID primitive.ObjectID, template *models.VoucherTemplate, code string, validDays int) (*models.Voucher, error) {
	var voucher *models.Voucher
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var undo compensations
		voucher = nil

		if template.Inventory != nil {
			if err := s.templateRepo.DecrementInventory(ctx, template.ID); err != nil {
				if errors.Is(err, repositories.ErrConditionNotMet) {
					return ErrOutOfStock
				}
				return backendErr("decrement inventory", err)
			}
			undo.add("restore inventory", func(ctx context.Context) error {
				return s.templateRepo.RestoreInventory(ctx, template.ID)
			})
		}

		if _, err := s.ledger.ApplyDelta(ctx, userID, LedgerDelta{Points: -template.PointsCost}); err != nil {
			undo.run(ctx)
			if errors.Is(err, ErrInsufficientBalance) {
				return ErrInsufficientPoints
			}
			return err
		}
		undo.add("refund points", func(ctx context.Context) error {
			_, err := s.ledger.ApplyDelta(ctx, userID, LedgerDelta{Points: template.PointsCost, Refund: true})
			return err
		})

		now := s.now()
		v := &models.Voucher{
			UserID:        userID,
			TemplateID:    template.ID,
			TemplateName:  template.Name,
			VoucherCode:   code,
			Status:        models.VoucherStatusActive,
			DiscountType:  template.DiscountType,
			DiscountValue: template.DiscountValue,
			VendorName:    template.VendorName,
			Category:      template.Category,
			PointsCost:    template.PointsCost,
			GeneratedAt:   now,
			ExpiresAt:     now.Add(time.Duration(validDays) * 24 * time.Hour),
		}
		if err := s.voucherRepo.Create(ctx, v); err != nil {
			undo.run(ctx)
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return errCodeTaken
			}
			return backendErr("insert voucher", err)
		}
		voucher = v

		s.audit(ctx, &models.Transaction{
			UserID:      userID,
			Type:        models.TransactionVoucherPurchase,
			Amount:      -template.PointsCost,
			Description: fmt.Sprintf("Purchased voucher: %s", template.Name),
			VoucherID:   &v.ID,
			Timestamp:   now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

// RedeemVoucher marks the voucher redeemed by redeemedBy. It fails with
// ErrNotFound, ErrAlreadyRedeemed or ErrExpired.
func (s *VoucherService) RedeemVoucher(ctx context.Context, voucherID primitive.ObjectID, redeemedBy string) (*models.VoucherView, error) {
	now := s.now()
	err := s.voucherRepo.MarkRedeemed(ctx, voucherID, redeemedBy, now)
	if err != nil && !errors.Is(err, repositories.ErrConditionNotMet) {
		return nil, backendErr("redeem voucher", err)
	}

	v, ferr := s.voucherRepo.FindByID(ctx, voucherID)
	if ferr != nil {
		if errors.Is(ferr, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, backendErr("find voucher", ferr)
	}

	if err != nil {
		// The conditional update missed; explain why.
		switch DeriveStatus(v, now) {
		case models.VoucherStatusExpired:
			return nil, ErrExpired
		default:
			return nil, ErrAlreadyRedeemed
		}
	}

	s.audit(ctx, &models.Transaction{
		UserID:      v.UserID,
		Type:        models.TransactionVoucherRedemption,
		Description: fmt.Sprintf("Redeemed voucher: %s", v.TemplateName),
		VoucherID:   &v.ID,
		VendorID:    redeemedBy,
		Timestamp:   now,
	})
	slog.Info("Voucher redeemed", "voucherId", voucherID, "redeemedBy", redeemedBy)
	return view(v, now), nil
}

// VerifyVoucherCode reports whether code can currently be redeemed. It never mutates.
func (s *VoucherService) VerifyVoucherCode(ctx context.Context, code string) (*models.VerifyResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return &models.VerifyResult{Valid: false, Reason: Code(ErrNotFound), Message: "Voucher code not found"}, nil
	}

	v, err := s.voucherRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &models.VerifyResult{Valid: false, Reason: Code(ErrNotFound), Message: "Voucher code not found"}, nil
		}
		return nil, backendErr("find voucher by code", err)
	}

	vv := view(v, s.now())
	switch vv.Status {
	case models.VoucherStatusRedeemed:
		return &models.VerifyResult{Valid: false, Reason: Code(ErrAlreadyRedeemed), Message: "Voucher has already been redeemed", Voucher: vv}, nil
	case models.VoucherStatusExpired:
		return &models.VerifyResult{Valid: false, Reason: Code(ErrExpired), Message: "Voucher has expired", Voucher: vv}, nil
	default:
		return &models.VerifyResult{Valid: true, Message: "Voucher is valid", Voucher: vv}, nil
	}
}

// ListTemplates returns active templates, cheapest first
func (s *VoucherService) ListTemplates(ctx context.Context) ([]*models.VoucherTemplate, error) {
	templates, err := s.templateRepo.FindActive(ctx)
	if err != nil {
		return nil, backendErr("list voucher templates", err)
	}
	return templates, nil
}

// ListCategories returns the distinct template categories
func (s *VoucherService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.templateRepo.Categories(ctx)
	if err != nil {
		return nil, backendErr("list voucher categories", err)
	}
	return categories, nil
}

// ListUserVouchers returns the user's vouchers with derived status, filtered
// by status ("all" or empty for everything).
func (s *VoucherService) ListUserVouchers(ctx context.Context, userID primitive.ObjectID, status string) ([]*models.VoucherView, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch models.VoucherStatus(status) {
	case "", VoucherFilterAll, models.VoucherStatusActive, models.VoucherStatusRedeemed, models.VoucherStatusExpired:
	default:
		return nil, invalidInput("unknown voucher status %q", status)
	}

	vouchers, err := s.voucherRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, backendErr("list vouchers", err)
	}

	now := s.now()
	out := make([]*models.VoucherView, 0, len(vouchers))
	for _, v := range vouchers {
		vv := view(v, now)
		if status == "" || status == VoucherFilterAll || string(vv.Status) == status {
			out = append(out, vv)
		}
	}
	return out, nil
}

// CreateTemplate adds a voucher template
func (s *VoucherService) CreateTemplate(ctx context.Context, req *models.CreateTemplateRequest) (*models.VoucherTemplate, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalidInput("name is required")
	}
	if req.PointsCost < 0 {
		return nil, invalidInput("pointsCost must not be negative")
	}
	if req.Inventory != nil && *req.Inventory < 0 {
		return nil, invalidInput("inventory must not be negative")
	}

	template := &models.VoucherTemplate{
		Name:            strings.TrimSpace(req.Name),
		PointsCost:      req.PointsCost,
		DiscountType:    req.DiscountType,
		DiscountValue:   req.DiscountValue,
		VendorName:      req.VendorName,
		Category:        req.Category,
		TermsConditions: req.TermsConditions,
		Inventory:       req.Inventory,
		ValidDays:       req.ValidDays,
		IsActive:        true,
	}
	if template.ValidDays <= 0 {
		template.ValidDays = s.cfg.DefaultValidDays
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := s.templateRepo.Create(ctx, template); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, invalidInput("a template named %q already exists", template.Name)
		}
		return nil, backendErr("create voucher template", err)
	}
	slog.Info("Voucher template created", "templateId", template.ID, "name", template.Name)
	return template, nil
}

func (s *VoucherService) audit(ctx context.Context, t *models.Transaction) {
	if err := s.transactionRepo.Create(ctx, t); err != nil {
		slog.Error("Failed to record transaction", "error", err, "userId", t.UserID, "type", t.Type)
	}
}
