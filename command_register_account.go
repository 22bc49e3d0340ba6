package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationTTL is how long an email verification token stays redeemable.
const VerificationTTL = 24 * time.Hour

type RegisterAccountMessage struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Password   string `json:"password"`
	UseHashid  bool
	OnResponse func(*Account)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// RegisterAccountHandler creates a local account with an unverified email and
// a pending verification cycle, all in one transaction.
type RegisterAccountHandler struct {
	Repo RepositoryManager
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	role, ok := ParseSignupRole(event.Role)
	if !ok {
		if event.Role != "" {
			return goerrors.New("role not available at signup", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{"role": event.Role})
		}
		role = RoleJobSeeker
	}

	err := h.Repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		account.PasswordHash = hash
		account.Email = NormalizeEmail(event.Email)
		account.Role = role
		account.FirstName = event.FirstName
		account.LastName = event.LastName
		account.EmailVerified = false
		account.SetVerification(EmailVerification{
			Token:     uuid.NewString(),
			ExpiresAt: time.Now().Add(VerificationTTL),
		})
		account.RecomputeProvider()

		if event.UseHashid {
			if id, err := hashid.NewUUID(account.Email); err == nil {
				account.ID = id
			}
		}

		if account, err = h.Repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(account)
	}

	return nil
}
