package provisioning

import "errors"

var (
	// ErrNoOriginIP occurs when a request carries no originating address.
	ErrNoOriginIP = errors.New("no origin ip")

	// ErrTooManyRequests covers every breached request cap; the wrapped detail
	// names which tier (ip, global hour/day, region, identity) rejected.
	ErrTooManyRequests = errors.New("too many requests")

	// ErrSMSDeliveryFailed indicates the gateway reported a failed send. The
	// ledger row is persisted regardless.
	ErrSMSDeliveryFailed = errors.New("sms delivery failed")

	// ErrNoSuchRequest occurs when confirming an identity without a pending
	// account request.
	ErrNoSuchRequest = errors.New("no such request")

	// ErrNoValidIdentifier occurs when a confirm request carries a malformed
	// identifier.
	ErrNoValidIdentifier = errors.New("no valid identifier")

	// ErrNoValidCode occurs when a confirm request carries a malformed code.
	ErrNoValidCode = errors.New("no valid registration code")

	// ErrTooManyConfirmTries occurs once confirm attempts exceed the cap.
	ErrTooManyConfirmTries = errors.New("too many confirm tries")

	// ErrWrongRegistrationCode occurs when the supplied code does not match.
	ErrWrongRegistrationCode = errors.New("wrong registration code")

	// ErrWrongCredentials occurs when a call request fails authentication.
	ErrWrongCredentials = errors.New("wrong credentials")

	// ErrCallNotAllowed covers the call window and daily cap; the wrapped
	// detail names too-soon, too-late or over-cap.
	ErrCallNotAllowed = errors.New("call not allowed")

	// ErrCallTriggerFailed indicates the voice gateway reported a failure.
	ErrCallTriggerFailed = errors.New("call trigger failed")
)
