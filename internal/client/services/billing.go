package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/tjuecard/internal/client/client"
	"github.com/dmitrijs2005/tjuecard/internal/client/htmlx"
	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/common"
	"github.com/dmitrijs2005/tjuecard/internal/logging"
)

// BillingService queries the remaining balance of a room.
//
// Every query is preceded by a fresh token fetch from the bill page. A page
// without a token is the only hint the portal gives that the session is gone,
// so QueryWithRetry reauthenticates once on that condition and nothing else.
type BillingService interface {
	FetchAntiForgeryToken(ctx context.Context, systemID string) (string, error)
	Query(ctx context.Context, sel models.RoomSelection, token string) (*models.BillResult, error)
	QueryWithRetry(ctx context.Context, sel models.RoomSelection) (*models.BillResult, error)
}

type billingService struct {
	client client.Client
	auth   AuthService
	log    logging.Logger
}

func NewBillingService(c client.Client, auth AuthService, log logging.Logger) BillingService {
	return &billingService{client: c, auth: auth, log: log}
}

func (b *billingService) FetchAntiForgeryToken(ctx context.Context, systemID string) (string, error) {
	page, err := b.client.GetBillPage(ctx, systemID)
	if err != nil {
		return "", fmt.Errorf("%w: bill page: %v", common.ErrBillingNetworkFailure, err)
	}
	token, err := htmlx.MetaToken(page)
	if err != nil {
		return "", fmt.Errorf("bill page: %w", err)
	}
	return token, nil
}

// flexString accepts a JSON string or number; the portal uses both for the
// same field depending on the system.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type queryResponse struct {
	RetCode   *flexString `json:"retcode"`
	RetMsg    string      `json:"retmsg"`
	MultiFlag bool        `json:"multiflag"`
	Remaining flexString  `json:"restElecDegree"`
	Meters    []struct {
		Name      string     `json:"name"`
		Remaining flexString `json:"restElecDegree"`
	} `json:"elecRoomData"`
}

func parseDegree(raw flexString) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: restElecDegree %q", common.ErrBillingMalformedResponse, string(raw))
	}
	return v, nil
}

// QueryForm is the four-field payload of the bill query.
func QueryForm(sel models.RoomSelection) url.Values {
	return url.Values{
		"sysid":   {sel.System.ID},
		"elcarea": {sel.Area.ID},
		"elcbuis": {sel.Building.ID},
		"roomNo":  {sel.Room.ID},
	}
}

func (b *billingService) Query(ctx context.Context, sel models.RoomSelection, token string) (*models.BillResult, error) {
	if !sel.Complete() {
		return nil, &common.ConfigError{Field: "selection", Reason: "incomplete"}
	}

	body, err := b.client.PostQuery(ctx, sel.System.ID, QueryForm(sel), token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBillingNetworkFailure, err)
	}
	return ParseBill(body)
}

// ParseBill decodes a queryelectricbill response.
func ParseBill(body []byte) (*models.BillResult, error) {
	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBillingMalformedResponse, err)
	}
	if resp.RetCode == nil {
		return nil, fmt.Errorf("%w: no retcode", common.ErrBillingMalformedResponse)
	}

	code, err := strconv.Atoi(strings.TrimSpace(string(*resp.RetCode)))
	if err != nil {
		return nil, fmt.Errorf("%w: retcode %q", common.ErrBillingMalformedResponse, string(*resp.RetCode))
	}
	if code != 0 {
		return nil, &common.BusinessError{Code: code, Message: resp.RetMsg}
	}

	if !resp.MultiFlag {
		v, err := parseDegree(resp.Remaining)
		if err != nil {
			return nil, err
		}
		return &models.BillResult{Remaining: v, Raw: string(resp.Remaining)}, nil
	}

	if len(resp.Meters) == 0 {
		return nil, fmt.Errorf("%w: multi-meter room without meters", common.ErrBillingMalformedResponse)
	}
	res := &models.BillResult{Multi: true}
	for _, m := range resp.Meters {
		v, err := parseDegree(m.Remaining)
		if err != nil {
			return nil, err
		}
		res.Meters = append(res.Meters, models.Meter{Name: m.Name, Remaining: v, Raw: string(m.Remaining)})
	}
	res.Remaining = res.Lowest()
	for _, m := range res.Meters {
		if m.Remaining == res.Remaining {
			res.Raw = m.Raw
			break
		}
	}
	return res, nil
}

func (b *billingService) QueryWithRetry(ctx context.Context, sel models.RoomSelection) (*models.BillResult, error) {
	if !sel.Complete() {
		return nil, &common.ConfigError{Field: "selection", Reason: "incomplete"}
	}

	for attempt := 1; ; attempt++ {
		token, err := b.FetchAntiForgeryToken(ctx, sel.System.ID)
		if err == nil {
			return b.Query(ctx, sel, token)
		}
		if !errors.Is(err, common.ErrTokenExtractionFailed) {
			return nil, err
		}

		if attempt > 1 {
			b.log.Error(ctx, "token still missing after reauthentication")
			return nil, fmt.Errorf("%w: token still missing after reauthentication", common.ErrSessionExpired)
		}

		b.log.Warn(ctx, "bill page carries no token, session presumed expired")
		if err := b.auth.Reauthenticate(ctx); err != nil {
			return nil, err
		}
		b.log.Info(ctx, "retrying query after reauthentication")
	}
}
