package auth

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// DefaultPasswordMinLength applies when the configuration does not set one
const DefaultPasswordMinLength = 8

// RegisterAuthRoutes mounts the authentication endpoints on the given router.
// The me endpoint is wrapped with the controller's protected middleware.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Get(controller.Routes.Me, controller.MeGet, controller.Protected).
		SetName("auth.me")
}

type AuthControllerRoutes struct {
	Login    string
	Register string
	Me       string
}

type AuthController struct {
	Debug             bool
	Logger            Logger
	Repo              RepositoryManager
	Routes            *AuthControllerRoutes
	Auther            HTTPAuthenticator
	Protected         router.MiddlewareFunc
	ContextKey        string
	PasswordMinLength int
}

type AuthControllerOption func(*AuthController) *AuthController

// WithControllerConfig wires the controller against the app configuration
func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ContextKey = cfg.GetContextKey()
		if cfg.GetPasswordMinLength() > 0 {
			c.PasswordMinLength = cfg.GetPasswordMinLength()
		}
		return c
	}
}

// WithControllerRepo sets the repository manager
func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

// WithControllerAuther sets the HTTP authenticator
func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// WithControllerProtected sets the middleware guarding the me endpoint
func WithControllerProtected(mw router.MiddlewareFunc) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Protected = mw
		return c
	}
}

// WithControllerLogger sets the controller logger
func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// WithControllerDebug enables request payload dumps
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:            defLogger{},
		ContextKey:        "user",
		PasswordMinLength: DefaultPasswordMinLength,
		Routes: &AuthControllerRoutes{
			Login:    "/auth/login",
			Register: "/auth/register",
			Me:       "/auth/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Protected == nil {
		panic("Missing protected middleware in auth controller...")
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"loginNameOrEmail" json:"loginNameOrEmail"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// LoginResponse carries the signed bearer token
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %s", err)
		return WriteError(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload: %s", err)
		return WriteValidationError(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("login payload: %s", print.MaybePrettyJSON(payload))
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, LoginResponse{AccessToken: token})
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	FirstName string `form:"firstName" json:"firstName"`
	LastName  string `form:"lastName" json:"lastName"`
	Username  string `form:"loginName" json:"loginName"`
	Email     string `form:"email" json:"email"`
	Phone     string `form:"phone" json:"phone"`
	Password  string `form:"password" json:"password"`
}

// Validate will validate the payload against the given password policy
func (r RegisterRequest) Validate(passwordMinLength int) error {
	if passwordMinLength <= 0 {
		passwordMinLength = DefaultPasswordMinLength
	}

	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Username, validation.Length(0, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(passwordMinLength, 100)),
	)
}

// RegisterResponse returns the created user and a ready-to-use token
type RegisterResponse struct {
	Message     string `json:"message"`
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: %s", err)
		return WriteError(ctx, ErrUnableToParseData)
	}

	if err := payload.Validate(a.PasswordMinLength); err != nil {
		a.Logger.Error("register validate payload: %s", err)
		return WriteValidationError(ctx, err)
	}

	if a.Debug {
		a.Logger.Debug("register payload: %s", print.MaybePrettyJSON(RegisterRequest{
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Username:  payload.Username,
			Email:     payload.Email,
			Phone:     payload.Phone,
		}))
	}

	var record *User
	req := RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Username:  payload.Username,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Password:  payload.Password,
		OnResponse: func(u *User) {
			record = u
		},
	}

	registerUser := RegisterUserHandler{repo: a.Repo}
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user: %s", err)
		return WriteError(ctx, err)
	}

	// a fresh registration logs the user in right away
	token, err := a.Auther.Login(ctx, LoginRequest{
		Identifier: req.Email,
		Password:   payload.Password,
	})
	if err != nil {
		a.Logger.Error("register post-login: %s", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, RegisterResponse{
		Message:     "registration successful",
		User:        record,
		AccessToken: token,
	})
}

// MeResponse is the profile projection of the authenticated user
type MeResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// MeGet returns the profile behind the request token. Profile data is read
// from the store so it reflects the current record, not the token snapshot.
func (a *AuthController) MeGet(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return WriteError(ctx, ErrUnableToFindSession)
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), claims.UserID())
	if err != nil {
		if errors.IsNotFound(err) {
			return WriteError(ctx, ErrIdentityNotFound)
		}
		a.Logger.Error("me lookup: %s", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, MeResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// ErrorResponse is the uniform error envelope
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Message  string            `json:"message"`
	TextCode string            `json:"text_code,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// WriteError maps an error to its HTTP status and writes the JSON envelope
func WriteError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	return c.JSON(statusForCategory(richErr.Category), ErrorResponse{
		Error: ErrorBody{
			Message:  richErr.Message,
			TextCode: richErr.TextCode,
		},
	})
}

// WriteValidationError flattens ozzo field errors into the error envelope
func WriteValidationError(c router.Context, err error) error {
	fields := FormatValidationErrorToMap(err)

	return c.JSON(router.StatusBadRequest, ErrorResponse{
		Error: ErrorBody{
			Message:  "validation failed",
			TextCode: "VALIDATION_ERROR",
			Fields:   fields,
		},
	})
}

// FormatValidationErrorToMap converts ozzo validation errors into a field map
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}

func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput, errors.CategoryConflict:
		// duplicate registrations surface as a plain bad request
		return http.StatusBadRequest
	case errors.CategoryAuth, errors.CategoryAuthz:
		return http.StatusUnauthorized
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
