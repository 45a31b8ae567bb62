package handlers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/eventbright/internal/api/dto"
	"github.com/spec-kit/eventbright/internal/config"
	"github.com/spec-kit/eventbright/internal/observability"
	"github.com/spec-kit/eventbright/internal/service"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

const paymentProofPrefix = "PAY"

// TransactionsHandler exposes ticket purchase endpoints.
type TransactionsHandler struct {
	purchases *service.PurchaseService
	uploads   config.UploadConfig
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewTransactionsHandler constructs handler.
func NewTransactionsHandler(purchases *service.PurchaseService, uploads config.UploadConfig, metrics *observability.Metrics, logger *zap.Logger) *TransactionsHandler {
	return &TransactionsHandler{purchases: purchases, uploads: uploads, metrics: metrics, logger: logger, now: time.Now}
}

// Create handles POST /transaction/create.
func (h *TransactionsHandler) Create(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	points := decimal.Zero
	if req.PointsUsed != nil {
		points = *req.PointsUsed
	}
	txn, err := h.purchases.Purchase(c.UserContext(), service.PurchaseInput{
		UserID:     who.UserID,
		EventID:    req.EventID,
		PointsUsed: points,
		VoucherID:  req.VoucherID,
	})
	h.recordOutcome(err)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Transaction created successfully",
		"transaction": dto.NewTransactionResponse(txn),
	})
}

// SubmitPayment handles POST /transaction/submit-payment. The proof file is
// stored under the upload dir and removed again if the record is rejected.
func (h *TransactionsHandler) SubmitPayment(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("payment proof is required", nil)
	}
	if h.uploads.MaxFileBytes > 0 && file.Size > int64(h.uploads.MaxFileBytes) {
		return apperrors.NewValidationError("payment proof is too large",
			map[string]any{"max_bytes": h.uploads.MaxFileBytes})
	}

	eventID, _ := parseFormInt(c.FormValue("eventId"))
	form := dto.SubmitPaymentForm{
		EventID:    eventID,
		FinalPrice: strings.TrimSpace(c.FormValue("finalPrice")),
		PointsUsed: strings.TrimSpace(c.FormValue("pointsUsed")),
	}
	if err := dto.Validate(form); err != nil {
		return err
	}
	finalPrice, err := decimal.NewFromString(form.FinalPrice)
	if err != nil {
		return apperrors.NewValidationError("invalid finalPrice", nil)
	}
	points := decimal.Zero
	if form.PointsUsed != "" {
		if points, err = decimal.NewFromString(form.PointsUsed); err != nil {
			return apperrors.NewValidationError("invalid pointsUsed", nil)
		}
	}

	if err := os.MkdirAll(h.uploads.Dir, 0o755); err != nil {
		return apperrors.NewInternalError(err)
	}
	name := fmt.Sprintf("%s%d%s", paymentProofPrefix, h.now().UnixNano(), strings.ToLower(filepath.Ext(file.Filename)))
	path := filepath.Join(h.uploads.Dir, name)
	if err := c.SaveFile(file, path); err != nil {
		return apperrors.NewInternalError(err)
	}

	txn, err := h.purchases.SubmitPayment(c.UserContext(), service.PaymentInput{
		UserID:       who.UserID,
		EventID:      form.EventID,
		FinalPrice:   finalPrice,
		PointsUsed:   points,
		PaymentProof: name,
	})
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			h.logger.Warn("remove rejected payment proof", zap.String("file", name), zap.Error(rmErr))
		}
		return err
	}

	return c.JSON(fiber.Map{
		"message":     "Payment submitted successfully",
		"transaction": dto.NewTransactionResponse(txn),
	})
}

func (h *TransactionsHandler) recordOutcome(err error) {
	if err == nil {
		h.metrics.RecordPurchase("completed")
		return
	}
	h.metrics.RecordPurchase(apperrors.ToDomainError(err).Code)
}

func parseFormInt(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}
