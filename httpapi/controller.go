package httpapi

import (
	"errors"
	"fmt"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/middleware/requestid"
	"github.com/google/uuid"

	auth "github.com/goliatone/go-auth-starter"
	"github.com/goliatone/go-auth-starter/billing"
	"github.com/goliatone/go-auth-starter/middleware/clientip"
	"github.com/goliatone/go-auth-starter/middleware/jwtware"
)

const (
	DefaultPerPage = 50
	MaxPerPage     = 100
)

// RequestIDKey holds the request id in the request locals
const RequestIDKey = "requestid"

// RegisterRoutes mounts the REST surface on app
func RegisterRoutes[T any](app router.Router[T], opts ...ControllerOption) *Controller {
	controller := NewController(opts...)

	app.Use(requestid.New(requestid.Config{ContextKey: RequestIDKey}))

	app.Get(controller.Routes.Health, controller.Up).SetName("health.get")

	tokenMiddleware := []router.MiddlewareFunc{}
	if controller.LoginLimiter != nil {
		tokenMiddleware = append(tokenMiddleware, controller.LoginLimiter)
	}
	app.Post(controller.Routes.Tokens, controller.TokenCreate, tokenMiddleware...).
		SetName("tokens.post")

	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("pwd-reset.post")
	app.Post(controller.Routes.PasswordResetConfirm, controller.PasswordResetConfirm).
		SetName("pwd-reset-confirm.post")
	app.Post(controller.Routes.Register+"/:id/:token", controller.RegistrationCreate).
		SetName("register.post")

	protected := controller.protect()
	admin := controller.protect(auth.RoleAdmin)

	app.Get(controller.Routes.CurrentUser, controller.CurrentUser, protected).
		SetName("current-user.get")
	app.Post(controller.Routes.Invites, controller.InviteCreate, admin).
		SetName("invites.post")

	app.Get(controller.Routes.Users, controller.UsersIndex, admin).
		SetName("users.index")
	app.Post(controller.Routes.Users+"/bulk-delete", controller.UsersBulkDelete, admin).
		SetName("users.bulk-delete")
	app.Get(controller.Routes.Users+"/:id", controller.UserShow, admin).
		SetName("users.show")
	app.Delete(controller.Routes.Users+"/:id", controller.UserDelete, admin).
		SetName("users.delete")

	registerBillingRoutes(app, controller)

	return controller
}

type ControllerRoutes struct {
	Tokens               string
	CurrentUser          string
	PasswordReset        string
	PasswordResetConfirm string
	Invites              string
	Register             string
	Users                string
	Billing              string
	Health               string
}

// Controller serves the account API. Handlers delegate to the account
// commands and render JSON.
type Controller struct {
	Debug          bool
	Logger         auth.Logger
	Repo           auth.RepositoryManager
	Auther         *auth.Authenticator
	Routes         *ControllerRoutes
	ResetInit      *auth.InitializePasswordResetHandler
	ResetFinalize  *auth.FinalizePasswordResetHandler
	Invite         *auth.InviteUserHandler
	Registration   *auth.CompleteRegistrationHandler
	Removal        *auth.RemoveUsersHandler
	Billing        *billing.Store
	LoginLimiter   router.MiddlewareFunc
	ErrorHandler   router.ErrorHandler
}

type ControllerOption func(*Controller) *Controller

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger: nopLogger{},
		Routes: &ControllerRoutes{
			Tokens:               "/api/tokens",
			CurrentUser:          "/api/current_user",
			PasswordReset:        "/api/reset-password",
			PasswordResetConfirm: "/api/reset-password/confirm",
			Invites:              "/api/invites",
			Register:             "/api/register",
			Users:                "/api/users",
			Billing:              "/api/billing",
			Health:               "/up",
		},
	}
	c.ErrorHandler = c.defaultErrHandler

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in api controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in api controller...")
	}

	if c.ResetInit == nil || c.ResetFinalize == nil {
		panic("Missing password reset handlers in api controller...")
	}

	if c.Invite == nil || c.Registration == nil {
		panic("Missing invite handlers in api controller...")
	}

	if c.Removal == nil {
		panic("Missing removal handler in api controller...")
	}

	return c
}

func WithLogger(logger auth.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithDebug(debug bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Debug = debug
		return c
	}
}

func WithRepository(repo auth.RepositoryManager) ControllerOption {
	return func(c *Controller) *Controller {
		c.Repo = repo
		return c
	}
}

func WithAuthenticator(auther *auth.Authenticator) ControllerOption {
	return func(c *Controller) *Controller {
		c.Auther = auther
		return c
	}
}

func WithPasswordReset(init *auth.InitializePasswordResetHandler, finalize *auth.FinalizePasswordResetHandler) ControllerOption {
	return func(c *Controller) *Controller {
		c.ResetInit = init
		c.ResetFinalize = finalize
		return c
	}
}

func WithInvites(invite *auth.InviteUserHandler, registration *auth.CompleteRegistrationHandler) ControllerOption {
	return func(c *Controller) *Controller {
		c.Invite = invite
		c.Registration = registration
		return c
	}
}

func WithRemoval(removal *auth.RemoveUsersHandler) ControllerOption {
	return func(c *Controller) *Controller {
		c.Removal = removal
		return c
	}
}

// WithLoginLimiter guards the token exchange route
func WithLoginLimiter(limiter router.MiddlewareFunc) ControllerOption {
	return func(c *Controller) *Controller {
		c.LoginLimiter = limiter
		return c
	}
}

func WithErrorHandler(handler router.ErrorHandler) ControllerOption {
	return func(c *Controller) *Controller {
		if handler != nil {
			c.ErrorHandler = handler
		}
		return c
	}
}

func (a *Controller) protect(roles ...auth.UserRole) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		TokenValidator:  a.Auther.TokenService(),
		Roles:           auth.NewRoleSet(roles...),
		ContextEnricher: auth.WithClaimsContext,
	})
}

// Up reports the service is alive
func (a *Controller) Up(ctx router.Context) error {
	return ctx.SendString("Application is up")
}

// TokenCreate exchanges credentials for an access and refresh token.
// Credential and disabled account failures are reported in the body
// with a 200 status.
func (a *Controller) TokenCreate(ctx router.Context) error {
	payload := new(TokenRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	pair, err := a.Auther.Exchange(ctx.Context(), auth.ExchangeRequest{
		Email:      payload.Email,
		Password:   payload.Password,
		Host:       ctx.Header("Host"),
		RemoteAddr: clientip.FromContext(ctx),
	})
	if err != nil {
		if errors.Is(err, auth.ErrWrongCredentials) || errors.Is(err, auth.ErrAccountDisabled) {
			return ctx.JSON(router.StatusOK, messageResponse(false, errorMessage(err)))
		}
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// CurrentUser renders the account behind the bearer token
func (a *Controller) CurrentUser(ctx router.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}
	return ctx.JSON(router.StatusOK, NewUserView(user))
}

func (a *Controller) PasswordResetPost(ctx router.Context) error {
	payload := new(PasswordResetRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	err := a.ResetInit.Execute(ctx.Context(), auth.InitializePasswordResetMessage{
		Email: payload.Email,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, messageResponse(true, "password reset email sent"))
}

func (a *Controller) PasswordResetConfirm(ctx router.Context) error {
	payload := new(PasswordResetConfirmRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	err := a.ResetFinalize.Execute(ctx.Context(), auth.FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, messageResponse(true, "Your password has been reset"))
}

func (a *Controller) InviteCreate(ctx router.Context) error {
	payload := new(InviteRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	claims, _ := jwtware.ClaimsFromContext(ctx)

	msg := auth.InviteUserMessage{Email: payload.Email}
	if payload.Role != "" {
		msg.Role, _ = auth.ParseRole(payload.Role)
	}
	if claims != nil {
		msg.InvitedBy = claims.Email
	}

	if _, err := a.Invite.Invite(ctx.Context(), msg); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, messageResponse(true, "Invite sent"))
}

// RegistrationCreate completes an invite from the link parameters
func (a *Controller) RegistrationCreate(ctx router.Context) error {
	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, auth.ErrInvalidToken)
	}

	payload := new(RegistrationRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	err = a.Registration.Execute(ctx.Context(), auth.CompleteRegistrationMessage{
		UserID:          userID,
		Token:           ctx.Param("token"),
		Name:            payload.Name,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, messageResponse(true, "You have successfully registered"))
}

// UsersIndex lists live accounts with search, sort and pagination
func (a *Controller) UsersIndex(ctx router.Context) error {
	page := ctx.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	perPage := ctx.QueryInt("per_page", DefaultPerPage)
	if perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}

	records, total, err := a.Repo.Users().List(ctx.Context(), auth.ListOptions{
		Sort:      ctx.Query("sort"),
		Direction: ctx.Query("direction"),
		Query:     ctx.Query("q"),
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	items := make([]UserView, 0, len(records))
	for _, record := range records {
		items = append(items, NewUserView(record))
	}

	return ctx.JSON(router.StatusOK, UserListView{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// UserShow renders one account, removed ones only with ?with_deleted=true
func (a *Controller) UserShow(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, auth.ErrUserNotFound)
	}

	var finder auth.UserFinder = a.Repo.Users()
	if withDeleted, _ := strconv.ParseBool(ctx.Query("with_deleted")); withDeleted {
		finder = a.Repo.Users().WithDeleted()
	}

	user, err := finder.FindByID(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, NewUserView(user))
}

func (a *Controller) UserDelete(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, auth.ErrUserNotFound)
	}

	actor, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if actor.ID == id {
		return a.ErrorHandler(ctx, ErrSelfRemoval)
	}

	err = a.Removal.Execute(ctx.Context(), auth.RemoveUserMessage{
		UserID:  id,
		ActorID: actor.ID.String(),
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, messageResponse(true, "User removed"))
}

func (a *Controller) UsersBulkDelete(ctx router.Context) error {
	payload := new(BulkDeleteRequest)
	if err := a.bind(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	actor, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	count, err := a.Removal.ExecuteBulk(ctx.Context(), auth.RemoveUsersMessage{
		Scope:   payload.Scope,
		IDs:     payload.IDs,
		Query:   payload.Query,
		ActorID: actor.ID.String(),
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%d user(s) were scheduled to be deleted", count),
		"count":   count,
	})
}

func (a *Controller) currentUser(ctx router.Context) (*auth.User, error) {
	claims, ok := jwtware.ClaimsFromContext(ctx)
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return a.Auther.CurrentUser(ctx.Context(), claims)
}

type validatable interface {
	Validate() error
}

func (a *Controller) bind(ctx router.Context, payload validatable) error {
	if err := ctx.Bind(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "malformed request body").
			WithCode(goerrors.CodeBadRequest)
	}

	if a.Debug {
		a.Logger.Debug("%s %s payload: %s", ctx.Method(), ctx.Path(), print.MaybePrettyJSON(payload))
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	return nil
}

func messageResponse(success bool, message string) map[string]any {
	return map[string]any{
		"success": success,
		"message": message,
	}
}

func errorMessage(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Message
	}
	return err.Error()
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
