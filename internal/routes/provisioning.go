package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/simlar/simlar-server-sub000/internal/contactsync"
	"github.com/simlar/simlar-server-sub000/internal/identity"
	"github.com/simlar/simlar-server-sub000/internal/provisioning"
)

// RegisterProvisioningRoutes wires the account request, confirm and call
// endpoints. The burst limiter runs before any ledger row is touched.
func RegisterProvisioningRoutes(r fiber.Router, svc *provisioning.Service, burstLimiter fiber.Handler) {
	r.Post("/create-account", burstLimiter, func(c *fiber.Ctx) error {
		var req struct {
			TelephoneNumber string `json:"telephone_number"`
			LocaleHint      string `json:"locale_hint"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		id, password, err := svc.CreateAccountRequest(c.UserContext(), req.TelephoneNumber, req.LocaleHint, c.IP())
		if err != nil {
			return fiber.NewError(statusForError(err), err.Error())
		}

		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"simlar_id": string(id),
			"password":  password,
		})
	})

	r.Post("/create-account/confirm", burstLimiter, func(c *fiber.Ctx) error {
		var req struct {
			SimlarID         string `json:"simlar_id"`
			RegistrationCode string `json:"registration_code"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		if err := svc.ConfirmAccount(c.UserContext(), req.SimlarID, req.RegistrationCode); err != nil {
			return fiber.NewError(statusForError(err), err.Error())
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{"simlar_id": req.SimlarID, "confirmed": true})
	})

	r.Post("/call", burstLimiter, func(c *fiber.Ctx) error {
		var req struct {
			TelephoneNumber string `json:"telephone_number"`
			Password        string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		id, err := svc.Call(c.UserContext(), req.TelephoneNumber, req.Password)
		if err != nil {
			return fiber.NewError(statusForError(err), err.Error())
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{"simlar_id": string(id)})
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, identity.ErrInvalidTelephoneNumber),
		errors.Is(err, provisioning.ErrNoValidIdentifier),
		errors.Is(err, provisioning.ErrNoValidCode),
		errors.Is(err, provisioning.ErrNoOriginIP):
		return http.StatusBadRequest
	case errors.Is(err, provisioning.ErrTooManyRequests),
		errors.Is(err, provisioning.ErrTooManyConfirmTries),
		errors.Is(err, provisioning.ErrCallNotAllowed),
		errors.Is(err, contactsync.ErrTooManyContactsRequested):
		return http.StatusTooManyRequests
	case errors.Is(err, provisioning.ErrWrongRegistrationCode),
		errors.Is(err, provisioning.ErrWrongCredentials):
		return http.StatusForbidden
	case errors.Is(err, provisioning.ErrNoSuchRequest):
		return http.StatusNotFound
	case errors.Is(err, provisioning.ErrSMSDeliveryFailed),
		errors.Is(err, provisioning.ErrCallTriggerFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
