package routes

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/simlar/simlar-server-sub000/internal/contactsync"
	"github.com/simlar/simlar-server-sub000/internal/identity"
	"github.com/simlar/simlar-server-sub000/internal/subscriber"
)

// RegisterContactRoutes wires the throttled contact-status endpoint. The
// response is deliberately deferred by the calculated delay.
func RegisterContactRoutes(r fiber.Router, calculator *contactsync.Calculator, gate *contactsync.Gate, subscribers subscriber.Store) {
	r.Post("/contacts-status", func(c *fiber.Ctx) error {
		var req struct {
			SimlarID string   `json:"simlar_id"`
			Contacts []string `json:"contacts"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		id, err := identity.Parse(req.SimlarID)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		delay, err := calculator.CalculateRequestDelay(c.UserContext(), id, req.Contacts)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}

		// The lookup runs on a timer after the handler may have unblocked, so
		// it must not borrow the request context.
		completion, err := gate.Schedule(context.Background(), delay, statusLookup(subscribers, req.Contacts))
		if err != nil {
			return fiber.NewError(statusForError(err), err.Error())
		}

		statuses, err := completion.Wait(c.UserContext())
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}

		contacts := make([]fiber.Map, 0, len(statuses))
		for _, status := range statuses {
			registered := 0
			if status.Registered {
				registered = 1
			}
			contacts = append(contacts, fiber.Map{
				"simlar_id": string(status.SimlarID),
				"status":    registered,
			})
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"contacts": contacts})
	})
}

func statusLookup(subscribers subscriber.Store, contacts []string) contactsync.LookupFunc {
	return func(ctx context.Context) ([]contactsync.ContactStatus, error) {
		statuses := make([]contactsync.ContactStatus, 0, len(contacts))
		for _, contact := range contacts {
			id, err := identity.Parse(contact)
			if err != nil {
				continue
			}
			registered, err := subscribers.Exists(ctx, id)
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, contactsync.ContactStatus{SimlarID: id, Registered: registered})
		}
		return statuses, nil
	}
}
