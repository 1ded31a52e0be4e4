package echoapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/user"
	sessionstore "github.com/trezcool/pta/storage/session"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
	tokenAudience   = "pta"
)

// Claims represents the authorization claims transmitted via a JWT.
// Role and SchoolID are informative only: the profile is reloaded on every request.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	SchoolID     string `json:"school_id,omitempty"`
}

func GetUserClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
		Role:         usr.Role,
		SchoolID:     usr.SchoolID,
	}
}

func jwtConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	cfg := jwtConfig(conf)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(cfg.SigningMethod), claims)

	ss, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextUser returns the caller's profile loaded by the session middleware.
func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

type authenticator struct {
	conf     *core.Config
	svc      *user.Service
	sessions sessionstore.Store
}

func newAuthenticator(conf *core.Config, svc *user.Service, sessions sessionstore.Store) *authenticator {
	return &authenticator{conf: conf, svc: svc, sessions: sessions}
}

// middleware authenticates the request: the session cookie (or bearer token) is verified,
// checked against revoked sessions and the caller's profile is loaded into the context.
func (a *authenticator) middleware() echo.MiddlewareFunc {
	jwtMw := middleware.JWTWithConfig(jwtConfig(a.conf))
	sessMw := a.session()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return a.cookieToHeader(jwtMw(sessMw(next)))
	}
}

// cookieToHeader promotes the session cookie to a bearer token when no Authorization header is set.
func (a *authenticator) cookieToHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		if req.Header.Get(echo.HeaderAuthorization) == "" {
			if cookie, err := ctx.Cookie(a.conf.Server.SessionCookieName); err == nil && cookie.Value != "" {
				req.Header.Set(echo.HeaderAuthorization, middleware.DefaultJWTConfig.AuthScheme+" "+cookie.Value)
			}
		}
		return next(ctx)
	}
}

func (a *authenticator) session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			reqCtx := ctx.Request().Context()
			if claims.Id != "" {
				revoked, err := a.sessions.IsRevoked(reqCtx, claims.Id)
				if err != nil {
					return errors.Wrap(err, "checking session")
				}
				if revoked {
					return errSessionRevoked
				}
			}

			usr, err := a.svc.GetByID(reqCtx, claims.Subject)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

// redirectToLogin guards non-API pages: unauthenticated visitors are sent to the login page.
func (a *authenticator) redirectToLogin() echo.MiddlewareFunc {
	authed := a.middleware()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := authed(next)
		return func(ctx echo.Context) error {
			err := h(ctx)
			if err != nil && isUnauthenticated(err) {
				q := make(url.Values)
				q.Set("next", ctx.Request().URL.RequestURI())
				return ctx.Redirect(http.StatusSeeOther, a.conf.Server.LoginPath+"?"+q.Encode())
			}
			return err
		}
	}
}

func isUnauthenticated(err error) bool {
	herr, ok := errors.Cause(err).(*echo.HTTPError)
	return ok && (herr == middleware.ErrJWTMissing || herr.Code == http.StatusUnauthorized)
}

func (a *authenticator) authenticate(ctx echo.Context, email, pwd string) (user.User, *Claims, error) {
	reqCtx := ctx.Request().Context()
	usr, err := a.svc.GetByEmail(reqCtx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, nil, errAuthenticationFailed
		}
		return user.User{}, nil, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, nil, errAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, nil, errAccountDeactivated
	}
	usr, err = a.svc.SetLastLogin(reqCtx, usr)
	if err != nil {
		return user.User{}, nil, errors.Wrap(err, "setting lastLogin")
	}
	return usr, GetUserClaims(a.conf, usr), nil
}

func (a *authenticator) refreshToken(ctx echo.Context) (*Claims, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context claims")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context user")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return nil, errRefreshExpired
	}
	return GetUserClaims(a.conf, usr, claims.OrigIssuedAt), nil
}

// revoke invalidates the caller's token until it would have expired anyway.
func (a *authenticator) revoke(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.Id == "" {
		return nil
	}
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	return errors.Wrap(a.sessions.Revoke(ctx.Request().Context(), claims.Id, ttl), "revoking session")
}

func (a *authenticator) setSessionCookie(ctx echo.Context, token string, claims *Claims) {
	ctx.SetCookie(&http.Cookie{
		Name:     a.conf.Server.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Unix(claims.ExpiresAt, 0),
		HttpOnly: true,
		Secure:   !a.conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authenticator) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     a.conf.Server.SessionCookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !a.conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

// Handlers

type authApi struct {
	auth     *authenticator
	reset    *user.PasswordReset
	validate *validator.Validate
	logger   core.Logger
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, api authApi) {

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken, jwt)
	ag.POST("/logout", api.logout, jwt)
	ag.GET("/me", api.me, jwt)
	ag.POST("/password-reset", api.requestPasswordReset)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	_, claims, err := api.auth.authenticate(ctx, data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.auth.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	api.auth.setSessionCookie(ctx, token, claims)
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := api.auth.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	token, err := GenerateToken(api.auth.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	api.auth.setSessionCookie(ctx, token, claims)
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) logout(ctx echo.Context) error {
	if err := api.auth.revoke(ctx); err != nil {
		return err
	}
	api.auth.clearSessionCookie(ctx)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) requestPasswordReset(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	// the answer never tells whether the account exists
	if err := api.reset.Request(ctx.Request().Context(), data.Email); err != nil && errors.Cause(err) != user.ErrNotFound {
		api.logger.Error("requesting password reset", err)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address belongs to an active account, " +
			"an email with instructions to reset the password is on its way.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if _, err := api.reset.Confirm(ctx.Request().Context(), data, api.validate); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

type (
	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
