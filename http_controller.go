package account

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAccountRoutes mounts the lifecycle endpoints on the given router.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountControllerOption) {
	controller := NewAccountController(opts...)

	app.Post(controller.Routes.Register, controller.Register).
		SetName("account.register")
	app.Post(controller.Routes.ResendVerification, controller.ResendVerification).
		SetName("account.resend-verification")
	app.Post(controller.Routes.VerifyEmail, controller.VerifyEmail).
		SetName("account.verify-email")

	app.Post(controller.Routes.SignIn, controller.SignIn).
		SetName("account.sign-in")
	app.Post(controller.Routes.SignInVerify, controller.CompleteSignInStepUp).
		SetName("account.sign-in-verify")
	app.Post(controller.Routes.SignOut, controller.SignOut).
		SetName("account.sign-out")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).
		SetName("account.forgot-password")
	app.Post(controller.Routes.VerifyResetCode, controller.VerifyResetCode).
		SetName("account.verify-reset-code")
	app.Post(controller.Routes.ResetPassword, controller.ResetPassword).
		SetName("account.reset-password")

	app.Post(controller.Routes.RefreshToken, controller.RefreshAccessToken).
		SetName("account.refresh-token")
}

type AccountControllerRoutes struct {
	Register           string
	ResendVerification string
	VerifyEmail        string
	SignIn             string
	SignInVerify       string
	SignOut            string
	ForgotPassword     string
	VerifyResetCode    string
	ResetPassword      string
	RefreshToken       string
}

type AccountController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Verifier *Verifier
	Tokens   TokenService
	Refresh  *RefreshService
	Notifier Notifier
	Routes   *AccountControllerRoutes

	// SessionProvider yields the caller's session store for a request.
	// Optional; without it sign in skips session mirroring.
	SessionProvider func(router.Context) SessionStore
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Logger = logger
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Repo = repo
		return c
	}
}

func WithControllerServices(verifier *Verifier, tokens TokenService, refresh *RefreshService, notifier Notifier) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Verifier = verifier
		c.Tokens = tokens
		c.Refresh = refresh
		c.Notifier = notifier
		return c
	}
}

func WithSessionProvider(provider func(router.Context) SessionStore) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.SessionProvider = provider
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger: defLogger{},
		Routes: &AccountControllerRoutes{
			Register:           "/register",
			ResendVerification: "/register/resend",
			VerifyEmail:        "/register/verify",
			SignIn:             "/sign-in",
			SignInVerify:       "/sign-in/verify",
			SignOut:            "/sign-out",
			ForgotPassword:     "/password/forgot",
			VerifyResetCode:    "/password/verify-code",
			ResetPassword:      "/password/reset",
			RefreshToken:       "/token/refresh",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in account controller...")
	}

	if c.Verifier == nil || c.Tokens == nil || c.Refresh == nil {
		panic("Missing services in account controller...")
	}

	if c.Notifier == nil {
		c.Notifier = NoopNotifier{}
	}

	return c
}

func (a *AccountController) session(ctx router.Context) SessionStore {
	if a.SessionProvider == nil {
		return nil
	}
	return a.SessionProvider(ctx)
}

func (a *AccountController) fail(ctx router.Context, err error) error {
	a.Logger.Error("account controller error: ", "error", err)
	return ctx.JSON(StatusFromError(err), map[string]any{
		"message": MessageFromError(err),
	})
}

func (a *AccountController) debugDump(label string, v any) {
	if !a.Debug {
		return
	}
	fmt.Println("======= " + label + " ======")
	fmt.Println(print.MaybePrettyJSON(v))
	fmt.Println("=========================")
}

func (a *AccountController) Register(ctx router.Context) error {
	payload := new(RegisterMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, errValidation("failed to parse request body"))
	}

	a.debugDump("ACCOUNT REGISTER", payload)

	handler := NewRegisterHandler(a.Repo, a.Verifier, a.Notifier).WithLogger(a.Logger)
	id, err := handler.Execute(ctx.Context(), *payload)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"account_id": id,
	})
}

func (a *AccountController) ResendVerification(ctx router.Context) error {
	payload := new(ResendVerificationMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, errValidation("failed to parse request body"))
	}

	handler := NewResendVerificationHandler(a.Repo, a.Verifier, a.Notifier).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"sent": true,
	})
}

func (a *AccountController) VerifyEmail(ctx router.Context) error {
	payload := new(VerifyEmailMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, errValidation("failed to parse request body"))
	}

	handler := NewVerifyEmailHandler(a.Repo, a.Verifier, a.Tokens, a.Refresh).WithLogger(a.Logger)
	session, err := handler.Execute(ctx.Context(), *payload)
	if err != nil {
		return a.fail(ctx, err)
	}

	a.debugDump("ACCOUNT VERIFIED", session)

	return ctx.JSON(router.StatusOK, session)
}

func (a *AccountController) SignIn(ctx router.Context) error {
	payload := new(SignInMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, errValidation("failed to parse request body"))
	}
	payload.Session = a.session(ctx)

	handler := NewSignInHandler(a.Repo, a.Verifier, a.Tokens, a.Refresh, a.Notifier).WithLogger(a.Logger)
	result, err := handler.Execute(ctx.Context(), *payload)
	if err != nil {
		return a.fail(ctx, err)
	}

	if result.StepUpRequired {
		return ctx.JSON(http.StatusAccepted, result)
	}

	return ctx.JSON(router.StatusOK, result)
}

func (a *AccountController) CompleteSignInStepUp(ctx router.Context) error {
	payload := new(CompleteSignInStepUpMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, errValidation("failed to parse request body"))
	}
	payload.Session = a.session(ctx)

	handler := NewCompleteSignInStepUpHandler(a.Repo, a.Verifier, a.Tokens, a.Refresh).WithLogger(a.Logger)
	session, err := handler.Execute(ctx.Context(), *payload)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, session)
}

func (a *AccountController) SignOut(ctx router.Context) error {
	payload := new(SignOutMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, errValidation("failed to parse request body"))
	}
	payload.Session = a.session(ctx)

	handler := NewSignOutHandler(a.Refresh).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"signed_out": true,
	})
}

func (a *AccountController) ForgotPassword(ctx router.Context) error {
	payload := new(ForgotPasswordMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, errValidation("failed to parse request body"))
	}

	handler := NewForgotPasswordHandler(a.Repo, a.Verifier, a.Notifier).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"sent": true,
	})
}

func (a *AccountController) VerifyResetCode(ctx router.Context) error {
	payload := new(VerifyResetCodeMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, errValidation("failed to parse request body"))
	}

	handler := NewVerifyResetCodeHandler(a.Repo, a.Verifier).WithLogger(a.Logger)
	secretKey, err := handler.Execute(ctx.Context(), *payload)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"secret_key": secretKey,
	})
}

func (a *AccountController) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, errValidation("failed to parse request body"))
	}

	handler := NewResetPasswordHandler(a.Repo, a.Refresh).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"reset": true,
	})
}

func (a *AccountController) RefreshAccessToken(ctx router.Context) error {
	payload := new(RefreshAccessTokenMessage)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, errValidation("failed to parse request body"))
	}

	handler := NewRefreshAccessTokenHandler(a.Repo, a.Tokens).WithLogger(a.Logger)
	session, err := handler.Execute(ctx.Context(), *payload)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, session)
}
