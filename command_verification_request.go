package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type VerificationRequestMessage struct {
	Email      string `json:"email"`
	OnResponse func(*EmailVerification)
}

func (e VerificationRequestMessage) Type() string { return "account.verification.request" }

// VerificationRequestHandler issues a fresh verification token for an
// unverified account, replacing any outstanding one. Unknown and already
// verified emails succeed silently so callers cannot probe for accounts.
type VerificationRequestHandler struct {
	Repo   RepositoryManager
	Logger Logger
}

func (h *VerificationRequestHandler) Execute(ctx context.Context, event VerificationRequestMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerificationRequestHandler) execute(ctx context.Context, event VerificationRequestMessage) error {
	logger := h.Logger
	if logger == nil {
		logger = defLogger{}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.Repo.Accounts().GetByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			logger.Debug("verification requested for unknown email")
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "verification request lookup failed")
	}

	if account.EmailVerified {
		logger.Debug("verification requested for verified account", "account", account.ID)
		return nil
	}

	verification := EmailVerification{
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(VerificationTTL),
	}

	if err := h.Repo.Accounts().StartVerification(ctx, account.ID, verification); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not start verification cycle")
	}

	if event.OnResponse != nil {
		event.OnResponse(&verification)
	}

	return nil
}
