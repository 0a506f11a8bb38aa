package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/notify"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func portalWithRooms(t *testing.T) *fakePortal {
	t.Helper()
	p := newFakePortal()
	p.Options = map[string]string{
		"/epay/electric/queryelectricarea":      optionsJSON(t, "areas", "areaId", "areaName", [2]string{"a1", "Peiyang"}, [2]string{"a2", "Weijin"}),
		"/epay/electric/queryelectricdistricts": optionsJSON(t, "districts", "districtId", "districtName", [2]string{"d1", "Dorms"}),
		"/epay/electric/queryelectricbuis":      optionsJSON(t, "buils", "buiId", "buiName", [2]string{"b7", "Building 7"}),
		"/epay/electric/queryelectricfloors":    optionsJSON(t, "floors", "floorId", "floorName", [2]string{"f3", "3F"}),
		"/epay/electric/queryelectricrooms":     optionsJSON(t, "rooms", "roomId", "roomName", [2]string{"r300", "300"}, [2]string{"r301", "301"}),
	}
	return p
}

func script(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestSetup_FullWizard(t *testing.T) {
	withTerminal(t, false, nil)

	input := script(
		"alice", "wrong", // rejected login
		"alice", "pw",
		"", "", "n", // empty mail, do not skip
		"alice@qq.com", "smtp-code",
		"1",      // 北洋园电控
		"1",      // district
		"0",      // back from building to district
		"1", "1", // district, building
		"1", // floor
		"2", // room 301
		"y", "12.345", "12.5",
		"", // schedule with default yes
	)
	h := newHarness(t, portalWithRooms(t), input)

	require.NoError(t, h.app.Setup(context.Background()))

	require.Equal(t, 2, h.portal.Logins)
	require.Equal(t, 1, h.portal.Queries)

	require.Len(t, h.mailer.Sent, 1)
	require.Equal(t, notify.TestSubject, h.mailer.Sent[0].Subject)
	require.Equal(t, "smtp-code", h.mailer.Sent[0].AuthCode)

	cfg, err := h.app.configs.Load(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(testSelection(), cfg.Selection); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "alice", cfg.Credentials.Username)
	require.Empty(t, cfg.Credentials.Password)

	pw, err := h.app.crypto.Decrypt(cfg.Credentials.PasswordEnc)
	require.NoError(t, err)
	require.Equal(t, "pw", string(pw))

	require.NotNil(t, cfg.EmailNotifier)
	require.Empty(t, cfg.EmailNotifier.AuthCode)
	code, err := h.app.crypto.Decrypt(cfg.EmailNotifier.AuthCodeEnc)
	require.NoError(t, err)
	require.Equal(t, "smtp-code", string(code))
	require.InDelta(t, 12.5, cfg.EmailNotifier.NotificationThreshold(), 1e-9)

	saved, err := h.app.sessions.Load(context.Background())
	require.NoError(t, err)
	require.False(t, saved.Empty())

	require.NotNil(t, h.registrar.LastJob)
	require.Equal(t, 7, h.registrar.LastJob.Hour)
	require.Equal(t, 30, h.registrar.LastJob.Minute)
	require.Equal(t, h.app.queryCommand, h.registrar.LastJob.Command)

	out := h.out.String()
	require.Contains(t, out, "Login failed")
	require.Contains(t, out, "Area selected automatically: Peiyang")
	require.Contains(t, out, "Going back...")
	require.Contains(t, out, "at most two decimals")
	require.Contains(t, out, "registered TJUEcardAutoQuery")
	require.NotContains(t, out, "卫津路空调电控")
}

func TestSetup_SkipMailNoSchedule(t *testing.T) {
	withTerminal(t, false, nil)

	input := script(
		"alice", "pw",
		"", "", "y", // skip mail
		"2",                // 卫津路宿舍电控
		"1", "1", "1", "1", // district, building, floor, room
		"n", // no scheduler
	)
	h := newHarness(t, portalWithRooms(t), input)

	require.NoError(t, h.app.Setup(context.Background()))

	cfg, err := h.app.configs.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, cfg.EmailNotifier)
	require.Equal(t, "sys-wjl", cfg.Selection.System.ID)
	require.Equal(t, "r300", cfg.Selection.Room.ID)
	require.Nil(t, h.registrar.LastJob)
	require.Empty(t, h.mailer.Sent)
}

func TestSetup_DeclinedThresholdStoresNone(t *testing.T) {
	withTerminal(t, false, nil)

	input := script(
		"alice", "pw",
		"alice@163.com", "smtp-code",
		"1", "1", "1", "1", "1",
		"n", // no threshold
		"n",
	)
	h := newHarness(t, portalWithRooms(t), input)

	require.NoError(t, h.app.Setup(context.Background()))

	cfg, err := h.app.configs.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg.EmailNotifier.Threshold)
	require.Equal(t, float64(models.NoThreshold), *cfg.EmailNotifier.Threshold)
}

func TestSetup_CancelFromSystemMenu(t *testing.T) {
	withTerminal(t, false, nil)

	h := newHarness(t, portalWithRooms(t), script("alice", "pw", "", "", "y", "0"))

	require.NoError(t, h.app.Setup(context.Background()))
	_, err := h.app.configs.Load(context.Background())
	require.Error(t, err)
	require.Contains(t, h.out.String(), "nothing was saved")
}

func TestSetup_VerificationFailureReturnsToMenu(t *testing.T) {
	withTerminal(t, false, nil)

	p := portalWithRooms(t)
	p.QueryBody = `{"retcode":1,"retmsg":"meter offline"}`
	input := script(
		"alice", "pw",
		"", "", "y",
		"1", "1", "1", "1", "1",
		"",  // acknowledge the failure
		"0", // leave from the system menu
	)
	h := newHarness(t, p, input)

	require.NoError(t, h.app.Setup(context.Background()))
	require.Contains(t, h.out.String(), "meter offline")
	_, err := h.app.configs.Load(context.Background())
	require.Error(t, err)
}

func TestSetup_UnsupportedMailProviderAsksAgain(t *testing.T) {
	withTerminal(t, false, nil)

	input := script(
		"alice", "pw",
		"alice@example.com", "code",
		"", "", "y",
		"0",
	)
	h := newHarness(t, portalWithRooms(t), input)

	require.NoError(t, h.app.Setup(context.Background()))
	require.Contains(t, h.out.String(), "unsupported mail provider")
	require.Empty(t, h.mailer.Sent)
}

func TestSetup_InputEndsEarly(t *testing.T) {
	withTerminal(t, false, nil)

	h := newHarness(t, portalWithRooms(t), script("alice"))
	require.Error(t, h.app.Setup(context.Background()))
}

func TestSetup_LostSessionLogsInAgainWithTypedCredentials(t *testing.T) {
	withTerminal(t, false, nil)

	p := portalWithRooms(t)
	p.MissingTokens = 1
	input := script(
		"alice", "pw",
		"", "", "y",
		"1", "1", "1", "1", "1",
		"n",
	)
	h := newHarness(t, p, input)

	require.NoError(t, h.app.Setup(context.Background()))
	require.Equal(t, 2, p.Logins)
	require.Contains(t, h.out.String(), "logging in again")

	cfg, err := h.app.configs.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "r300", cfg.Selection.Room.ID)
}

func TestSetup_WarnsAboutExistingConfig(t *testing.T) {
	withTerminal(t, false, nil)

	h := newHarness(t, portalWithRooms(t), script("alice", "pw", "", "", "y", "0"))
	h.writeUserConfig(t, "pw", nil)

	require.NoError(t, h.app.Setup(context.Background()))
	require.Contains(t, h.out.String(), "An existing configuration")

	// cancelling leaves the old file alone
	cfg, err := h.app.configs.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice", cfg.Credentials.Username)
}
