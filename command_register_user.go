package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// DefaultPhoneRegion is the region used to parse phone numbers that carry no
// country prefix.
var DefaultPhoneRegion = "US"

type RegisterUserMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	UseHashid bool
	// OnResponse receives the created record before the transaction commits
	OnResponse func(*User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo RepositoryManager
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		email := strings.TrimSpace(event.Email)
		username := getUsername(event.Username, email)

		// Duplicate pre-checks keep the common failure readable. The unique
		// index backstop below still catches concurrent inserts.
		if _, err := h.repo.Users().GetByEmailTx(ctx, tx, email); err == nil {
			return ErrUserAlreadyExists
		} else if !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		}

		if _, err := h.repo.Users().GetByUsernameTx(ctx, tx, username); err == nil {
			return ErrUserAlreadyExists
		} else if !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = email
		user.Phone = normalizePhone(event.Phone)
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Username = username
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			if IsUniqueViolation(err) {
				return ErrUserAlreadyExists
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		if event.OnResponse != nil {
			event.OnResponse(user)
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}

// normalizePhone formats the input as E.164 when it parses as a valid number.
// Unparseable input is stored as given, registration never fails on phone.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	num, err := phonenumbers.Parse(phone, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return phone
	}

	return phonenumbers.Format(num, phonenumbers.E164)
}
