package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/tjuecard/internal/client/client"
	"github.com/dmitrijs2005/tjuecard/internal/client/htmlx"
	"github.com/dmitrijs2005/tjuecard/internal/client/models"
	"github.com/dmitrijs2005/tjuecard/internal/common"
	"github.com/dmitrijs2005/tjuecard/internal/logging"
	"golang.org/x/time/rate"
)

// Level is a step of the room hierarchy below the system.
type Level string

const (
	LevelArea     Level = "area"
	LevelDistrict Level = "district"
	LevelBuilding Level = "buis"
	LevelFloor    Level = "floor"
	LevelRoom     Level = "room"
)

// Levels in walk order.
var Levels = []Level{LevelArea, LevelDistrict, LevelBuilding, LevelFloor, LevelRoom}

type levelSpec struct {
	endpoint string
	list     string
	id       string
	name     string
}

var levelSpecs = map[Level]levelSpec{
	LevelArea:     {"/epay/electric/queryelectricarea", "areas", "areaId", "areaName"},
	LevelDistrict: {"/epay/electric/queryelectricdistricts", "districts", "districtId", "districtName"},
	LevelBuilding: {"/epay/electric/queryelectricbuis", "buils", "buiId", "buiName"},
	LevelFloor:    {"/epay/electric/queryelectricfloors", "floors", "floorId", "floorName"},
	LevelRoom:     {"/epay/electric/queryelectricrooms", "rooms", "roomId", "roomName"},
}

// DefaultOptionInterval spaces consecutive option requests.
const DefaultOptionInterval = 300 * time.Millisecond

// SelectionService resolves the room hierarchy for setup.
type SelectionService interface {
	// Systems lists the supported electricity systems on the index page.
	Systems(ctx context.Context) ([]models.Entity, error)
	// Options lists the children at level given the parents already chosen
	// in sel. token comes from the bill page of sel.System.
	Options(ctx context.Context, level Level, sel models.RoomSelection, token string) ([]models.Entity, error)
}

type selectionService struct {
	client  client.Client
	limiter *rate.Limiter
	log     logging.Logger
}

func NewSelectionService(c client.Client, interval time.Duration, log logging.Logger) SelectionService {
	if interval <= 0 {
		interval = DefaultOptionInterval
	}
	return &selectionService{
		client:  c,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		log:     log,
	}
}

func (s *selectionService) Systems(ctx context.Context) ([]models.Entity, error) {
	page, err := s.client.GetElectricIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("electric index: %w", err)
	}

	systems := htmlx.ParseSystems(page, htmlx.TargetSystems)
	out := make([]models.Entity, 0, len(systems))
	for _, sys := range systems {
		out = append(out, models.Entity{ID: sys.ID, Name: sys.Name})
	}
	return out, nil
}

// optionForm builds the parent ids a level expects. The portal names the
// building parameter "build" here, unlike the bill query.
func optionForm(level Level, sel models.RoomSelection) (url.Values, error) {
	type parent struct {
		key string
		e   *models.Entity
	}
	chain := []parent{
		{"sysid", sel.System},
		{"area", sel.Area},
		{"district", sel.District},
		{"build", sel.Building},
		{"floor", sel.Floor},
	}

	depth := 0
	for i, l := range Levels {
		if l == level {
			depth = i + 1
		}
	}
	if depth == 0 {
		return nil, fmt.Errorf("unknown level %q", level)
	}

	form := url.Values{}
	for _, p := range chain[:depth] {
		if p.e == nil || p.e.ID == "" {
			return nil, fmt.Errorf("%s options need %s", level, p.key)
		}
		form.Set(p.key, p.e.ID)
	}
	return form, nil
}

func (s *selectionService) Options(ctx context.Context, level Level, sel models.RoomSelection, token string) ([]models.Entity, error) {
	spec, ok := levelSpecs[level]
	if !ok {
		return nil, fmt.Errorf("unknown level %q", level)
	}
	form, err := optionForm(level, sel)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := s.client.PostOptions(ctx, spec.endpoint, sel.System.ID, form, token)
	if err != nil {
		return nil, fmt.Errorf("%s options: %w", level, err)
	}

	opts, err := decodeOptions(body, spec)
	if err != nil {
		return nil, fmt.Errorf("%s options: %w", level, err)
	}
	s.log.Debug(ctx, "options fetched", "level", string(level), "count", len(opts))
	return opts, nil
}

func decodeOptions(body []byte, spec levelSpec) ([]models.Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBillingMalformedResponse, err)
	}

	raw, _ := doc[spec.list].([]any)
	out := make([]models.Entity, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := scalar(m[spec.id])
		if id == "" {
			continue
		}
		out = append(out, models.Entity{ID: id, Name: scalar(m[spec.name])})
	}
	return out, nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
