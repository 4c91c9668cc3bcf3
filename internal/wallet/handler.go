package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/moba-pay/moba_wallet/internal/account"
	"github.com/moba-pay/moba_wallet/internal/bankkey"
	"github.com/moba-pay/moba_wallet/internal/middleware"
)

// Handler exposes wallet endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the wallet handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type walletView struct {
	WalletNumber string `json:"wallet_number"`
	BankCode     string `json:"bank_code"`
	Status       string `json:"status"`
}

func views(wallets []Wallet) []walletView {
	out := make([]walletView, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, walletView{WalletNumber: w.WalletNumber, BankCode: w.BankCode, Status: w.Status})
	}
	return out
}

// ListMine lists the wallets of the authenticated principal.
func (h *Handler) ListMine(c *fiber.Ctx) error {
	mobile, _ := c.Locals(middleware.LocalMobile).(string)
	if mobile == "" {
		return fiber.NewError(http.StatusUnauthorized, "no principal bound")
	}
	wallets, err := h.svc.ListByMobile(c.UserContext(), mobile)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallets": views(wallets)})
}

type secretQuestionRequest struct {
	Mobile string `json:"mobile"`
	Answer string `json:"answer"`
}

// ListBySecretQuestion lists wallets for a caller proving ownership with the
// account security answer. This endpoint is on the unauthenticated allow-list.
func (h *Handler) ListBySecretQuestion(c *fiber.Ctx) error {
	var req secretQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	wallets, err := h.svc.ListBySecretAnswer(c.UserContext(), req.Mobile, req.Answer)
	if err != nil {
		// One message for unknown mobile and wrong answer alike.
		if errors.Is(err, account.ErrNotFound) || errors.Is(err, ErrWrongAnswer) {
			return fiber.NewError(http.StatusUnauthorized, "verification failed")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallets": views(wallets)})
}

type changePinRequest struct {
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
}

// ChangePin rotates the authenticated principal's PIN.
func (h *Handler) ChangePin(c *fiber.Ctx) error {
	mobile, _ := c.Locals(middleware.LocalMobile).(string)
	if mobile == "" {
		return fiber.NewError(http.StatusUnauthorized, "no principal bound")
	}

	var req changePinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.ChangePin(c.UserContext(), mobile, req.CurrentPIN, req.NewPIN); err != nil {
		switch {
		case errors.Is(err, ErrWrongPin):
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		case errors.Is(err, ErrWeakPin):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, bankkey.ErrCryptoFailure):
			return fiber.NewError(http.StatusInternalServerError, "credential encryption failed")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "pin_changed"})
}
