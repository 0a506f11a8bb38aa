package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/client/services"
	"github.com/dmitrijs2005/tjuecard/internal/common"
	"github.com/dmitrijs2005/tjuecard/internal/notify"
)

// Mail subjects for the unattended run.
const (
	SuccessSubject = "Electricity query succeeded"
	FailureSubject = "[Warning] Electricity query failed"
)

const setupAdvice = "Run tjuecard-setup to update your configuration."

// Run performs one unattended balance query: migrate legacy secrets, load
// the config, make sure the session is usable, query and mail the result.
// The returned error decides the exit status; notification problems never
// do.
func (a *App) Run(ctx context.Context) error {
	a.log.Info(ctx, "query run started")
	defer a.log.Info(ctx, "query run finished")

	if migrated, err := a.crypto.MigratePlaintextFields(a.configs.Path()); err != nil {
		a.log.Warn(ctx, "plaintext secret migration failed", "error", err)
	} else if migrated {
		a.log.Info(ctx, "plaintext secrets encrypted", "path", a.configs.Path())
	}

	cfg, err := a.configs.Load(ctx)
	if err != nil {
		a.log.Error(ctx, "user config unusable", "path", a.configs.Path(), "error", err)
		a.printf("[Error] %v\n", err)
		a.println(setupAdvice)
		return err
	}

	notifier := a.notifier(cfg.EmailNotifier)
	room := cfg.Selection.Path()

	auth := services.NewAuthService(a.client, a.sessions, services.NewConfigCredentials(cfg.Credentials, a.crypto), a.log)
	billing := services.NewBillingService(a.client, auth, a.log)

	a.printf("--- Querying electricity balance: %s ---\n", room)

	res, err := a.query(ctx, auth, billing, cfg.Selection)
	if err != nil {
		a.log.Error(ctx, "query failed", "room", room, "error", err)
		a.printf("[Error] %s\n", failureReason(err))
		a.report(notifier.Notify(ctx, notify.Message{
			Subject: FailureSubject,
			Body:    fmt.Sprintf("Room: %s\n\n%s", room, failureReason(err)),
		}))
		a.println("Check the network or run tjuecard-setup to refresh the configuration.")
		return err
	}

	a.printResult(res)
	a.log.Info(ctx, "query succeeded", "room", room, "result", res.Summary())

	lowest := res.Lowest()
	a.report(notifier.Notify(ctx, notify.Message{
		Subject:   SuccessSubject,
		Body:      fmt.Sprintf("Room: %s\n\nResult:\n%s", room, res.Summary()),
		Remaining: &lowest,
	}))
	return nil
}

func (a *App) query(ctx context.Context, auth services.AuthService, billing services.BillingService, sel models.RoomSelection) (*models.BillResult, error) {
	if err := auth.EnsureSession(ctx); err != nil {
		return nil, err
	}
	return billing.QueryWithRetry(ctx, sel)
}

// failureReason turns a run error into the sentence shown to the user and
// mailed. Portal messages are passed through verbatim.
func failureReason(err error) string {
	var be *common.BusinessError
	switch {
	case errors.As(err, &be):
		return "The portal rejected the query: " + be.Message
	case errors.Is(err, common.ErrSessionExpired):
		return "The query token is still missing after logging in again."
	case errors.Is(err, common.ErrAuthInvalidCredentials):
		return "Login failed, the stored username or password was rejected."
	case errors.Is(err, common.ErrAuthNetworkFailure), errors.Is(err, common.ErrBillingNetworkFailure):
		return fmt.Sprintf("The portal could not be reached: %v", err)
	case errors.Is(err, common.ErrBillingMalformedResponse):
		return fmt.Sprintf("The portal returned an unexpected response: %v", err)
	}
	return fmt.Sprintf("The query failed: %v", err)
}

func (a *App) printResult(res *models.BillResult) {
	a.println("========================")
	if res.Multi {
		a.println("Query succeeded (multi-meter room)")
		for _, m := range res.Meters {
			a.printf("  - %s: remaining %s kWh\n", m.Name, m.Raw)
		}
	} else {
		a.printf("Query succeeded, remaining: %s kWh\n", res.Raw)
	}
	a.println("========================")
}

func (a *App) report(o notify.Outcome) {
	switch {
	case o.Sent:
		a.println("[OK] Notification mail sent.")
	case o.Skipped:
		a.printf("[Info] No mail sent: %s.\n", o.Reason)
	case o.Err != nil:
		a.printf("[Warning] Notification mail failed: %v\n", o.Err)
	}
}
