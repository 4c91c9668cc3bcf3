package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/moba-pay/moba_wallet/internal/account"
	"github.com/moba-pay/moba_wallet/internal/middleware"
	"github.com/moba-pay/moba_wallet/internal/pincrypto"
	"github.com/moba-pay/moba_wallet/internal/security"
	"github.com/moba-pay/moba_wallet/internal/wallet"
)

// Handler exposes the unauthenticated surface: login, OTP flows and customer
// registration.
type Handler struct {
	svc      *Service
	accounts account.Repository
	wallets  *wallet.Service
}

// NewHandler builds the auth handler.
func NewHandler(svc *Service, accounts account.Repository, wallets *wallet.Service) *Handler {
	return &Handler{svc: svc, accounts: accounts, wallets: wallets}
}

type loginRequest struct {
	Mobile   string `json:"mobile"`
	PIN      string `json:"pin"`
	DeviceID string `json:"device_id"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Mobile       string `json:"mobile"`
	WalletNumber string `json:"wallet_number"`
}

// Login validates credentials and returns an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = c.Get(middleware.DeviceIDHeader)
	}

	sess, err := h.svc.Login(c.UserContext(), req.Mobile, req.PIN, deviceID, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountBlocked):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrInvalidCredentials):
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(loginResponse{
		AccessToken:  sess.AccessToken,
		ExpiresIn:    sess.ExpiresIn,
		Mobile:       sess.Mobile,
		WalletNumber: sess.WalletNumber,
	})
}

type otpRequest struct {
	Mobile string `json:"mobile"`
}

// RequestOTP issues a one-time code for the mobile number. The code is handed
// to the SMS gateway, never returned to the caller.
func (h *Handler) RequestOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Mobile == "" {
		return fiber.NewError(http.StatusBadRequest, "mobile is required")
	}

	if _, err := h.svc.RequestOTP(c.UserContext(), req.Mobile); err != nil {
		if errors.Is(err, ErrOTPUnavailable) {
			return fiber.NewError(http.StatusServiceUnavailable, err.Error())
		}
		// Do not leak whether the mobile number exists.
		return c.Status(http.StatusOK).JSON(fiber.Map{"status": "sent"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "sent"})
}

type otpVerifyRequest struct {
	Mobile string `json:"mobile"`
	Code   string `json:"code"`
}

// VerifyOTP checks a one-time code and returns a verification token usable by
// follow-up flows (PIN reset, device re-binding).
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req otpVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	verification, err := h.svc.VerifyOTP(c.UserContext(), req.Mobile, req.Code)
	if err != nil {
		if errors.Is(err, ErrOTPUnavailable) {
			return fiber.NewError(http.StatusServiceUnavailable, err.Error())
		}
		return fiber.NewError(http.StatusUnauthorized, "otp verification failed")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"verification_token": verification})
}

type registerRequest struct {
	Mobile         string `json:"mobile"`
	PIN            string `json:"pin"`
	BankCode       string `json:"bank_code"`
	ClientCode     string `json:"client_code"`
	SecurityAnswer string `json:"security_answer"`
}

// Register creates a customer account with a legacy PIN digest and a salted
// security-answer hash, then opens the customer's wallet.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Mobile == "" || req.BankCode == "" {
		return fiber.NewError(http.StatusBadRequest, "mobile and bank_code are required")
	}
	if !security.ValidPin(req.PIN) {
		return fiber.NewError(http.StatusBadRequest, "PIN must be 4-6 digits and not a trivial sequence")
	}
	if req.SecurityAnswer == "" {
		return fiber.NewError(http.StatusBadRequest, "security_answer is required")
	}

	walletNumber := "W-" + security.GenerateRequestID()
	salt := security.GenerateSecureToken()

	acc := account.Account{
		ID:           uuid.New().String(),
		Mobile:       req.Mobile,
		WalletNumber: walletNumber,
		BankCode:     req.BankCode,
		ClientCode:   req.ClientCode,
		Role:         "customer",
		PinDigest:    pincrypto.HashPin(req.PIN, walletNumber),
		AnswerHash:   security.HashSecurityAnswer(req.SecurityAnswer, salt),
		AnswerSalt:   salt,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.accounts.Create(c.UserContext(), acc); err != nil {
		return fiber.NewError(http.StatusConflict, err.Error())
	}

	if err := h.wallets.Open(c.UserContext(), acc); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"mobile":        acc.Mobile,
		"wallet_number": acc.WalletNumber,
		"bank_code":     acc.BankCode,
	})
}
