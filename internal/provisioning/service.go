// Package provisioning orchestrates the request, confirm and call flows of
// account creation over the rate-limit ledger.
package provisioning

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/simlar/simlar-server-sub000/internal/alerts"
	"github.com/simlar/simlar-server-sub000/internal/identity"
	"github.com/simlar/simlar-server-sub000/internal/ledger"
	"github.com/simlar/simlar-server-sub000/internal/secrets"
	"github.com/simlar/simlar-server-sub000/internal/sms"
	"github.com/simlar/simlar-server-sub000/internal/subscriber"
)

// counterResetWindow is the rollover window for request and call counters.
const counterResetWindow = 24 * time.Hour

var registrationCodeFormat = regexp.MustCompile(`^\d{6}$`)

// RegionalLimit caps requests for identities whose digits start with Prefix.
type RegionalLimit struct {
	Prefix             string
	MaxRequestsPerHour int
}

// Settings holds the externally supplied caps and windows. A cap of zero or
// less disables the corresponding check.
type Settings struct {
	MaxRequestsPerIPPerHour      int
	MaxRequestsTotalPerHour      int
	MaxRequestsTotalPerDay       int
	MaxRequestsPerSimlarIDPerDay int
	RegionalLimits               []RegionalLimit
	MaxConfirmTries              int
	MaxCallsPerDay               int
	CallDelayMin                 time.Duration
	CallDelayMax                 time.Duration
	RegistrationCodeExpiry       time.Duration
	ConfirmTimeout               time.Duration
	// TestAccounts map identities to fixed registration codes; requests for
	// them skip SMS delivery.
	TestAccounts map[identity.SimlarID]string
}

// Service drives the account provisioning state machine.
type Service struct {
	accounts    ledger.AccountRepository
	subscribers subscriber.Store
	gateway     sms.Gateway
	alerter     alerts.Notifier
	settings    Settings
	logger      *slog.Logger

	now func() time.Time
}

// NewService constructs a provisioning service.
func NewService(accounts ledger.AccountRepository, subscribers subscriber.Store, gateway sms.Gateway, alerter alerts.Notifier, settings Settings, logger *slog.Logger) *Service {
	return &Service{
		accounts:    accounts,
		subscribers: subscribers,
		gateway:     gateway,
		alerter:     alerter,
		settings:    settings,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateAccountRequest validates the telephone number, enforces the layered
// request caps, issues (or reuses) a registration code, delivers it via SMS
// and returns the identity together with a fresh provisional password.
//
// The request counter increments before the per-identity cap check on purpose:
// rejected attempts still count against the quota.
func (s *Service) CreateAccountRequest(ctx context.Context, telephoneNumber, localeHint, originIP string) (identity.SimlarID, string, error) {
	id, err := identity.FromTelephoneNumber(telephoneNumber)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(originIP) == "" {
		return "", "", ErrNoOriginIP
	}

	now := s.now()
	if err := s.checkRequestLimits(ctx, id, originIP, now); err != nil {
		return "", "", err
	}

	entry, err := s.accounts.Update(ctx, id, func(entry *ledger.AccountEntry) (*ledger.AccountEntry, error) {
		if entry == nil {
			return &ledger.AccountEntry{RequestTries: 1, Timestamp: now, IP: originIP}, nil
		}
		if now.Sub(entry.Timestamp) > counterResetWindow {
			entry.RequestTries = 1
		} else {
			entry.RequestTries++
		}
		entry.Timestamp = now
		entry.IP = originIP
		return entry, nil
	})
	if err != nil {
		return "", "", err
	}

	if s.settings.MaxRequestsPerSimlarIDPerDay > 0 && entry.RequestTries > s.settings.MaxRequestsPerSimlarIDPerDay {
		return "", "", fmt.Errorf("%w: %d requests for %s within a day", ErrTooManyRequests, entry.RequestTries, id)
	}

	password, err := secrets.GeneratePassword()
	if err != nil {
		return "", "", err
	}

	testCode, isTestAccount := s.settings.TestAccounts[id]

	entry, err = s.accounts.Update(ctx, id, func(entry *ledger.AccountEntry) (*ledger.AccountEntry, error) {
		if entry == nil {
			return nil, ErrNoSuchRequest
		}
		if isTestAccount {
			entry.RegistrationCode = testCode
		} else if entry.RegistrationCode == "" || now.Sub(entry.RegistrationCodeTimestamp) > s.settings.RegistrationCodeExpiry {
			code, err := secrets.GenerateRegistrationCode()
			if err != nil {
				return nil, err
			}
			entry.RegistrationCode = code
			entry.ConfirmTries = 0
			entry.RegistrationCodeTimestamp = now
		}
		entry.Password = password
		return entry, nil
	})
	if err != nil {
		return "", "", err
	}

	if !isTestAccount {
		if err := s.gateway.SendSMS(ctx, id.TelephoneNumber(), smsText(localeHint, entry.RegistrationCode)); err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrSMSDeliveryFailed, err)
		}
	}

	s.scheduleConfirmationWatchdog(id)

	s.logger.Info("account request accepted", "simlar_id", id, "request_tries", entry.RequestTries)
	return id, password, nil
}

// ConfirmAccount checks the registration code and, on success, persists the
// subscriber credential. The confirm counter increments and commits before the
// code comparison so wrong attempts always count, even under races.
func (s *Service) ConfirmAccount(ctx context.Context, simlarID, code string) error {
	id, err := identity.Parse(simlarID)
	if err != nil {
		return ErrNoValidIdentifier
	}
	if !registrationCodeFormat.MatchString(code) {
		return ErrNoValidCode
	}

	entry, err := s.accounts.Update(ctx, id, func(entry *ledger.AccountEntry) (*ledger.AccountEntry, error) {
		if entry == nil {
			return nil, ErrNoSuchRequest
		}
		entry.ConfirmTries++
		return entry, nil
	})
	if err != nil {
		return err
	}

	if s.settings.MaxConfirmTries > 0 && entry.ConfirmTries > s.settings.MaxConfirmTries {
		return fmt.Errorf("%w: %d attempts for %s", ErrTooManyConfirmTries, entry.ConfirmTries, id)
	}
	if code != entry.RegistrationCode {
		return ErrWrongRegistrationCode
	}

	if err := s.subscribers.Save(ctx, id, entry.Password); err != nil {
		return fmt.Errorf("save subscriber: %w", err)
	}

	s.logger.Info("account confirmed", "simlar_id", id, "confirm_tries", entry.ConfirmTries)
	return nil
}

// Call delivers the registration code via a voice call. The call must arrive
// within the configured window after the SMS request; outside it the password
// alone must not be enough to trigger calls.
func (s *Service) Call(ctx context.Context, telephoneNumber, password string) (identity.SimlarID, error) {
	id, err := identity.FromTelephoneNumber(telephoneNumber)
	if err != nil {
		return "", err
	}

	now := s.now()
	_, err = s.accounts.Update(ctx, id, func(entry *ledger.AccountEntry) (*ledger.AccountEntry, error) {
		if entry == nil || entry.Timestamp.IsZero() || entry.Password == "" || entry.Password != password {
			return nil, ErrWrongCredentials
		}

		elapsed := now.Sub(entry.Timestamp)
		if elapsed < s.settings.CallDelayMin {
			return nil, fmt.Errorf("%w: too soon, %s since request", ErrCallNotAllowed, elapsed.Round(time.Second))
		}
		if elapsed > s.settings.CallDelayMax {
			return nil, fmt.Errorf("%w: too late, %s since request", ErrCallNotAllowed, elapsed.Round(time.Second))
		}

		if entry.CallTimestamp.IsZero() || now.Sub(entry.CallTimestamp) > counterResetWindow {
			entry.Calls = 1
		} else {
			entry.Calls++
		}
		if s.settings.MaxCallsPerDay > 0 && entry.Calls > s.settings.MaxCallsPerDay {
			return nil, fmt.Errorf("%w: %d calls within a day", ErrCallNotAllowed, entry.Calls)
		}

		if err := s.gateway.Call(ctx, id.TelephoneNumber(), secrets.FormatCodeForVoiceCall(entry.RegistrationCode)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCallTriggerFailed, err)
		}

		entry.CallTimestamp = now
		return entry, nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("verification call triggered", "simlar_id", id)
	return id, nil
}

// checkRequestLimits enforces the cap tiers in order: per-IP/hour, global/hour,
// global/day, per-region/hour. Each breach aborts before any mutation.
func (s *Service) checkRequestLimits(ctx context.Context, id identity.SimlarID, originIP string, now time.Time) error {
	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-counterResetWindow)

	if max := s.settings.MaxRequestsPerIPPerHour; max > 0 {
		count, err := s.accounts.SumRequestTriesForIP(ctx, originIP, hourAgo)
		if err != nil {
			return err
		}
		if count >= max {
			return fmt.Errorf("%w: %d requests from %s within an hour", ErrTooManyRequests, count, originIP)
		}
	}

	if err := s.checkGlobalLimit(ctx, s.settings.MaxRequestsTotalPerHour, hourAgo, "hour"); err != nil {
		return err
	}
	if err := s.checkGlobalLimit(ctx, s.settings.MaxRequestsTotalPerDay, dayAgo, "day"); err != nil {
		return err
	}

	for _, regional := range s.settings.RegionalLimits {
		if regional.MaxRequestsPerHour <= 0 || !id.HasRegionPrefix(regional.Prefix) {
			continue
		}
		count, err := s.accounts.SumRequestTriesForRegion(ctx, regional.Prefix, hourAgo)
		if err != nil {
			return err
		}
		if count >= regional.MaxRequestsPerHour {
			return fmt.Errorf("%w: %d requests for region %s within an hour", ErrTooManyRequests, count, regional.Prefix)
		}
	}

	return nil
}

func (s *Service) checkGlobalLimit(ctx context.Context, max int, since time.Time, window string) error {
	if max <= 0 {
		return nil
	}

	count, err := s.accounts.SumRequestTries(ctx, since)
	if err != nil {
		return err
	}

	if count >= max {
		s.notify(ctx, alerts.Alert{
			Kind: alerts.KindRequestLimitReached,
			Body: fmt.Sprintf("global request limit of %d per %s reached", max, window),
		})
		return fmt.Errorf("%w: global %s limit of %d reached", ErrTooManyRequests, window, max)
	}
	if count+1 == max/2 {
		s.notify(ctx, alerts.Alert{
			Kind: alerts.KindRequestLimitWarning,
			Body: fmt.Sprintf("half of the global request limit of %d per %s reached", max, window),
		})
	}
	return nil
}

func (s *Service) notify(ctx context.Context, alert alerts.Alert) {
	if s.alerter == nil {
		return
	}
	if err := s.alerter.Notify(ctx, alert); err != nil {
		s.logger.Warn("alert delivery failed", "kind", alert.Kind, "error", err)
	}
}

// scheduleConfirmationWatchdog fires a best-effort check after the configured
// timeout. It only logs; it never touches ledger state and cannot fail the
// request path.
func (s *Service) scheduleConfirmationWatchdog(id identity.SimlarID) {
	timeout := s.settings.ConfirmTimeout
	if timeout <= 0 {
		return
	}
	time.AfterFunc(timeout, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		confirmed, err := s.subscribers.Exists(ctx, id)
		if err != nil {
			s.logger.Warn("confirmation watchdog lookup failed", "simlar_id", id, "error", err)
			return
		}
		if !confirmed {
			s.logger.Warn("account not confirmed in time", "simlar_id", id, "timeout", timeout)
		}
	})
}
