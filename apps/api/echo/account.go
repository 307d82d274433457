package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/access"
	"github.com/trezcool/schooldesk/core/user"
)

const authGroupPath = "/auth"

type accountApi struct {
	deps ServerDeps
}

func registerAuthAPI(g *echo.Group, deps ServerDeps) {
	api := accountApi{deps: deps}
	limit := loginRateLimiter(deps.Conf)

	g.GET("/login", api.loginForm)
	g.POST("/login", api.login, limit)
	g.GET("/register", api.registerForm)
	g.POST("/register", api.register)
	g.POST("/logout", api.logout)
	g.POST("/password-reset", api.resetPassword, limit)
	g.POST("/password-reset-confirm", api.confirmPasswordReset, limit)
}

// loginRateLimiter throttles credential checks per client IP.
func loginRateLimiter(conf *core.Config) echo.MiddlewareFunc {
	perMinute := conf.Auth.LoginRatePerMinute
	if perMinute <= 0 {
		perMinute = 20
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(float64(perMinute) / 60),
			Burst: perMinute,
		}),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return errors.Wrap(err, "extracting rate limiter identifier")
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return errTooManyRequests
		},
	})
}

// Handlers

func (api *accountApi) loginForm(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, FormDescriptor{
		Form:   "login",
		Action: access.LoginPath,
		Fields: []string{"email", "password"},
	})
}

func (api *accountApi) registerForm(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, FormDescriptor{
		Form:   "register",
		Action: access.RegisterPath,
		Fields: []string{"full_name", "email", "role", "class_number", "password", "password_confirm"},
	})
}

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	usr, sess, token, err := api.deps.AuthSvc.SignIn(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return core.NewValidationError(user.ErrInvalidCredentials)
		}
		return errors.Wrap(err, "signing in")
	}
	setSessionCookie(ctx, api.deps.Conf, token, sess.ExpiresAt)

	return ctx.JSON(http.StatusOK, LoginResponse{Redirect: access.HomePath(usr.Role), User: usr})
}

func (api *accountApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	usr, err := api.deps.AuthSvc.SignUp(rctx, data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *accountApi) logout(ctx echo.Context) error {
	if sess, err := getContextSession(ctx); err == nil {
		if err = api.deps.AuthSvc.DeleteSession(ctx.Request().Context(), sess.ID); err != nil {
			return errors.Wrap(err, "signing out")
		}
	}
	clearSessionCookie(ctx, api.deps.Conf)
	return ctx.JSON(http.StatusOK, RedirectResponse{Redirect: access.LoginPath})
}

func (api *accountApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	err := api.deps.UserSvc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if !(err == nil || core.IsNotFound(err)) {
		// do not return errors to attackers
		api.deps.Logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *accountApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.UserSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

type (
	FormDescriptor struct {
		Form   string   `json:"form"`
		Action string   `json:"action"`
		Fields []string `json:"fields"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Redirect string    `json:"redirect"`
		User     user.User `json:"user"`
	}

	RedirectResponse struct {
		Redirect string `json:"redirect"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
