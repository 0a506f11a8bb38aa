package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/client/services"
	"github.com/dmitrijs2005/tjuecard/internal/common"
	"github.com/dmitrijs2005/tjuecard/internal/filex"
	"github.com/dmitrijs2005/tjuecard/internal/notify"
	"github.com/dmitrijs2005/tjuecard/internal/scheduler"
)

// Setup is the interactive wizard: log in, configure mail, pick and verify a
// room, then persist everything and optionally register the daily run.
// Leaving the system menu with 0 ends setup without writing anything.
func (a *App) Setup(ctx context.Context) error {
	a.log.Info(ctx, "setup started")

	a.println("Welcome to the tjuecard setup.")
	a.println("It will log you in, let you pick your room and configure mail notifications.")
	a.printf("Your password and mail auth code are stored encrypted with the key in %s.\n", a.keys.Path())
	if filex.Exists(a.configs.Path()) {
		a.printf("An existing configuration in %s is replaced once setup completes.\n", a.configs.Path())
	}

	// filled in once the typed login is accepted
	creds := &services.StaticCredentials{}
	auth := services.NewAuthService(a.client, a.sessions, creds, a.log)
	billing := services.NewBillingService(a.client, auth, a.log)
	selector := services.NewSelectionService(a.client, a.config.OptionInterval, a.log)

	username, password, err := a.setupLogin(ctx, auth)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	creds.Username, creds.Password = username, password

	email, code, err := a.setupMail(ctx)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(code)

	sel, err := a.setupRoom(ctx, auth, selector, billing)
	if err != nil {
		return err
	}
	if sel == nil {
		a.println("Setup cancelled from the main menu, nothing was saved.")
		a.log.Info(ctx, "setup cancelled")
		return nil
	}

	cfg := &models.UserConfig{
		Credentials: models.Credentials{Username: username},
		Selection:   *sel,
	}
	if cfg.Credentials.PasswordEnc, err = a.crypto.Encrypt(password); err != nil {
		return fmt.Errorf("encrypt password: %w", err)
	}

	if email != "" {
		threshold, err := a.askThreshold()
		if err != nil {
			return err
		}
		enc, err := a.crypto.Encrypt(code)
		if err != nil {
			return fmt.Errorf("encrypt auth code: %w", err)
		}
		cfg.EmailNotifier = &models.EmailNotifier{Email: email, AuthCodeEnc: enc, Threshold: &threshold}
	}

	if err := a.configs.Save(ctx, cfg); err != nil {
		a.printf("[Error] Saving the configuration failed: %v\n", err)
		return err
	}
	a.printf("[OK] Configuration saved to %s\n", a.configs.Path())

	if err := a.sessions.Save(ctx, a.client.ExportSession()); err != nil {
		a.log.Warn(ctx, "session not persisted", "error", err)
		a.printf("[Warning] Session not saved, the next run will log in again: %v\n", err)
	}

	a.log.Info(ctx, "setup saved", "room", sel.Path(), "mail", email != "")
	a.println("All settings saved. tjuecard can now query the balance on its own.")

	a.offerSchedule(ctx)
	return nil
}

func (a *App) setupLogin(ctx context.Context, auth services.AuthService) (string, []byte, error) {
	for {
		username, err := GetSimpleText(a.reader, "Username:", a.out)
		if err != nil {
			return "", nil, err
		}
		if username == "" {
			a.println("The username must not be empty.")
			continue
		}
		password, err := GetSecret(a.reader, "Password:", a.out)
		if err != nil {
			return "", nil, err
		}

		err = auth.Login(ctx, username, password)
		switch {
		case err == nil:
			a.println("[OK] Logged in.")
			a.log.Info(ctx, "setup login succeeded", "username", username)
			return username, password, nil
		case errors.Is(err, common.ErrTokenExtractionFailed):
			common.WipeByteArray(password)
			a.printf("[Error] The login page has no anti-forgery token: %v\n", err)
			return "", nil, err
		case errors.Is(err, common.ErrAuthInvalidCredentials):
			a.println("[Error] Login failed, check the username and password.")
		default:
			a.printf("[Error] Login request failed: %v\n", err)
		}
		common.WipeByteArray(password)
		a.log.Warn(ctx, "setup login failed", "username", username, "error", err)
		a.println("Please try again.")
	}
}

const mailHelp = `You need a qq.com or 163.com mailbox and its SMTP authorisation code.
  qq.com:  Settings > Account > enable the POP3/IMAP/SMTP service and generate a code.
  163.com: Settings > POP3/SMTP/IMAP > enable IMAP/SMTP and generate a code.`

// setupMail returns an empty email when the user skips notifications.
func (a *App) setupMail(ctx context.Context) (string, []byte, error) {
	for {
		a.println("\n--- Mail notifications ---")
		a.println(mailHelp)

		email, err := GetSimpleText(a.reader, "Email address:", a.out)
		if err != nil {
			return "", nil, err
		}
		code, err := GetSecret(a.reader, "SMTP authorisation code:", a.out)
		if err != nil {
			return "", nil, err
		}

		if email == "" || len(code) == 0 {
			common.WipeByteArray(code)
			a.println("[Warning] Without an address and code no notifications can be sent.")
			skip, err := Confirm(a.reader, "Skip mail notifications?", false, a.out)
			if err != nil {
				return "", nil, err
			}
			if skip {
				a.log.Info(ctx, "mail notifications skipped")
				return "", nil, nil
			}
			continue
		}

		if _, err := notify.ProviderFor(email); err != nil {
			common.WipeByteArray(code)
			a.printf("[Error] %v\n", err)
			continue
		}

		a.println("Sending a test mail...")
		probe := &models.EmailNotifier{Email: email, AuthCode: string(code)}
		outcome := a.notifier(probe).SendTest(ctx)
		if outcome.Sent {
			a.println("[OK] Test mail sent, check your inbox.")
			return email, code, nil
		}
		common.WipeByteArray(code)
		a.printf("[Error] Test mail failed: %s\n", outcome.Reason)
	}
}

// setupRoom loops over the system menu until a room passes a live query.
// A nil selection means the user left the system menu.
func (a *App) setupRoom(ctx context.Context, auth services.AuthService, selector services.SelectionService, billing services.BillingService) (*models.RoomSelection, error) {
	for {
		a.println("\n--- Loading electricity systems ---")
		systems, err := selector.Systems(ctx)
		if err != nil {
			a.printf("[Error] Loading the system list failed: %v\n", err)
			return nil, err
		}
		if len(systems) == 0 {
			a.println("[Error] None of the supported systems is offered on the portal.")
			return nil, errors.New("no supported electricity system found")
		}

		system, err := chooseEntity(a.reader, a.out, "Choose an electricity system", systems)
		if err != nil {
			return nil, err
		}
		if system == nil {
			return nil, nil
		}

		token, err := a.billToken(ctx, auth, billing, system.ID)
		if err != nil {
			a.printf("[Error] Opening the bill page failed: %v\n", err)
			continue
		}

		sel := models.RoomSelection{System: system}
		done, err := a.walkRooms(ctx, selector, &sel, token)
		if err != nil {
			return nil, err
		}
		if !done {
			a.println("Back to the main menu...")
			continue
		}

		a.println("\n--- Verifying the selection ---")
		res, err := billing.Query(ctx, sel, token)
		if err != nil {
			a.printf("[Error] Verification failed: %s\n", failureReason(err))
			a.log.Warn(ctx, "setup verification failed", "room", sel.Path(), "error", err)
			if _, err := GetSimpleText(a.reader, "Press Enter to return to the main menu.", a.out); err != nil {
				return nil, err
			}
			continue
		}
		a.printResult(res)
		return &sel, nil
	}
}

// billToken fetches the bill page token, logging in again once when the
// portal dropped the session while the user was busy with the menus.
func (a *App) billToken(ctx context.Context, auth services.AuthService, billing services.BillingService, systemID string) (string, error) {
	token, err := billing.FetchAntiForgeryToken(ctx, systemID)
	if !errors.Is(err, common.ErrTokenExtractionFailed) {
		return token, err
	}

	a.println("[Info] The portal session was lost, logging in again...")
	a.log.Warn(ctx, "setup session lost, reauthenticating", "system", systemID)
	if err := auth.Reauthenticate(ctx); err != nil {
		return "", err
	}
	return billing.FetchAntiForgeryToken(ctx, systemID)
}

// walkRooms fills the levels below the system. The first area is picked
// automatically; 0 in any later menu steps back one level. It reports false
// when the user backs out of the district menu.
func (a *App) walkRooms(ctx context.Context, selector services.SelectionService, sel *models.RoomSelection, token string) (bool, error) {
	areas, err := selector.Options(ctx, services.LevelArea, *sel, token)
	if err != nil {
		a.printf("[Error] Loading areas failed: %v\n", err)
		return false, nil
	}
	if len(areas) == 0 {
		a.println("[Error] The portal returned no areas.")
		return false, nil
	}
	sel.Area = &areas[0]
	a.printf("Area selected automatically: %s\n", sel.Area.Name)

	steps := []struct {
		level services.Level
		title string
		slot  **models.Entity
	}{
		{services.LevelDistrict, "Choose a district", &sel.District},
		{services.LevelBuilding, "Choose a building", &sel.Building},
		{services.LevelFloor, "Choose a floor", &sel.Floor},
		{services.LevelRoom, "Choose a room", &sel.Room},
	}

	for i := 0; i < len(steps); {
		step := steps[i]
		options, err := selector.Options(ctx, step.level, *sel, token)
		if err != nil {
			a.printf("[Error] Loading %s options failed: %v\n", step.level, err)
			options = nil
		}

		picked, err := chooseEntity(a.reader, a.out, step.title, options)
		if err != nil {
			return false, err
		}
		if picked == nil {
			if i == 0 {
				return false, nil
			}
			i--
			*steps[i].slot = nil
			a.println("Going back...")
			continue
		}
		*step.slot = picked
		i++
	}
	return true, nil
}

func (a *App) askThreshold() (float64, error) {
	a.println("\n--- Notification threshold ---")
	a.println("With a threshold, mail is only sent when the balance is at or below it.")
	a.println("Without one, every run sends a mail.")

	set, err := Confirm(a.reader, "Set a notification threshold?", false, a.out)
	if err != nil {
		return 0, err
	}
	if !set {
		a.println("[OK] No threshold, every run sends a mail.")
		return models.NoThreshold, nil
	}

	for {
		answer, err := GetSimpleText(a.reader, "Threshold in kWh (0-1024, at most two decimals):", a.out)
		if err != nil {
			return 0, err
		}
		v, err := parseThreshold(answer)
		if err != nil {
			a.printf("[Error] %v\n", err)
			continue
		}
		a.printf("[OK] Threshold set to %g kWh.\n", v)
		return v, nil
	}
}

func (a *App) offerSchedule(ctx context.Context) {
	now := a.now()
	a.printf("Daily run time recorded: %s\n", now.Format("15:04"))

	register, err := Confirm(a.reader, "Register the daily run with the system scheduler?", true, a.out)
	if err != nil || !register {
		a.println("You can set up the scheduled task later.")
		return
	}

	job := scheduler.Job{
		Name:    scheduler.DefaultJobName,
		Command: a.queryCommand,
		Hour:    now.Hour(),
		Minute:  now.Minute(),
	}

	reg, err := a.registrarFor(runtime.GOOS)
	if err == nil {
		err = reg.Register(ctx, job)
	}
	if err != nil {
		a.log.Warn(ctx, "scheduler registration failed", "error", err)
		a.printf("[Warning] Registering the scheduled task failed: %v\n", err)
		return
	}

	a.log.Info(ctx, "scheduled task registered", "name", job.Name, "at", now.Format("15:04"))
	a.printf("[OK] %s\n", reg.Describe(job))
}
