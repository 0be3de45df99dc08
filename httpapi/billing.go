package httpapi

import (
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-auth-starter/billing"
)

// WithBilling exposes the billing records of the current account
func WithBilling(store *billing.Store) ControllerOption {
	return func(c *Controller) *Controller {
		c.Billing = store
		return c
	}
}

func registerBillingRoutes[T any](app router.Router[T], controller *Controller) {
	if controller.Billing == nil {
		return
	}
	protected := controller.protect()
	app.Get(controller.Routes.Billing+"/subscription", controller.SubscriptionShow, protected).
		SetName("billing.subscription")
	app.Get(controller.Routes.Billing+"/history", controller.BillingHistory, protected).
		SetName("billing.history")
}

func (a *Controller) SubscriptionShow(ctx router.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	sub, err := a.Billing.SubscriptionFor(ctx.Context(), user.ID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, sub)
}

// BillingHistory lists the most recent payments of the account
func (a *Controller) BillingHistory(ctx router.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payments, err := a.Billing.BillingHistory(ctx.Context(), user.ID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if payments == nil {
		payments = []*billing.Payment{}
	}

	return ctx.JSON(router.StatusOK, map[string]any{"items": payments})
}
