package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/eventbright/internal/api/dto"
	"github.com/spec-kit/eventbright/internal/domain"
	"github.com/spec-kit/eventbright/internal/service"
	apperrors "github.com/spec-kit/eventbright/pkg/util/errorutil"
)

// VouchersHandler lists a user's usable vouchers.
type VouchersHandler struct {
	vouchers *service.VoucherService
}

// NewVouchersHandler constructs handler.
func NewVouchersHandler(vouchers *service.VoucherService) *VouchersHandler {
	return &VouchersHandler{vouchers: vouchers}
}

// ByUser handles GET /voucher/user/:id. Callers see their own vouchers;
// admins may look up anyone.
func (h *VouchersHandler) ByUser(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if userID != who.UserID && !who.HasRole(domain.RoleAdmin) {
		return apperrors.NewForbidden("cannot view another user's vouchers")
	}

	list, err := h.vouchers.ListUsable(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"vouchers": dto.NewVoucherResponses(list)})
}
