package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/auth"
	"github.com/brandonhuynh1/eventwish-api/internal/config"
	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/brandonhuynh1/eventwish-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testDevice = "device-1234"

var testLogger = zerolog.Nop()

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// testAuth returns an auth config backed by development tokens, with
// admin@test.dev as super admin and analyst@test.dev as analytics admin
func testAuth() (AuthConfig, *auth.DevVerifier) {
	v := auth.NewDevVerifier("handler-secret")
	return AuthConfig{
		Verifier: v,
		Roles: auth.NewRoles(config.AdminConfig{
			SuperAdmins:     []string{"admin@test.dev"},
			AnalyticsAdmins: []string{"analyst@test.dev"},
		}),
	}, v
}

func bearer(t *testing.T, v *auth.DevVerifier, uid, email string) map[string]string {
	t.Helper()
	token, err := v.Issue(uid, email, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

// The stubs embed the interface so unexercised methods panic

type stubTemplates struct {
	Templates
	page    *models.TemplatePage
	tmpl    *models.Template
	err     error
	query   services.AdminTemplateQuery
	created models.TemplatePatch
	deleted string
}

func (s *stubTemplates) ListActive(_ context.Context, page, limit int) (*models.TemplatePage, error) {
	return s.page, s.err
}

func (s *stubTemplates) ListByCategory(_ context.Context, category string, page, limit int) (*models.TemplatePage, error) {
	return s.page, s.err
}

func (s *stubTemplates) AdminList(_ context.Context, q services.AdminTemplateQuery) (*models.TemplatePage, error) {
	s.query = q
	return s.page, s.err
}

func (s *stubTemplates) Get(_ context.Context, id string) (*models.Template, error) {
	return s.tmpl, s.err
}

func (s *stubTemplates) Create(_ context.Context, in models.TemplatePatch) (*models.Template, error) {
	s.created = in
	return s.tmpl, s.err
}

func (s *stubTemplates) Update(_ context.Context, id string, patch models.TemplatePatch) (*models.Template, error) {
	return s.tmpl, s.err
}

func (s *stubTemplates) Delete(_ context.Context, id string) error {
	s.deleted = id
	return s.err
}

type stubRecs struct {
	recs   *models.Recommendations
	device string
	limit  int
}

func (s *stubRecs) GetRecommendations(_ context.Context, deviceID string, limit int) *models.Recommendations {
	s.device, s.limit = deviceID, limit
	return s.recs
}

type stubUsers struct {
	Users
	user    *models.User
	created bool
	err     error
	uid     string
}

func (s *stubUsers) Register(_ context.Context, deviceID string) (*models.User, bool, error) {
	return s.user, s.created, s.err
}

func (s *stubUsers) Get(_ context.Context, deviceID string) (*models.User, error) {
	return s.user, s.err
}

func (s *stubUsers) UpdateActivity(_ context.Context, deviceID, category, source string) error {
	return s.err
}

func (s *stubUsers) RecordEngagement(_ context.Context, deviceID, templateID, action string) (*models.User, error) {
	return s.user, s.err
}

func (s *stubUsers) UpdateProfile(_ context.Context, deviceID, uid string, patch models.ProfileUpdate) (*models.User, error) {
	s.uid = uid
	return s.user, s.err
}

type stubCoins struct {
	Coins
	balance  *services.Balance
	unlock   *services.UnlockResult
	valid    *services.UnlockValidation
	event    *models.CoinsEvent
	err      error
	duration int
}

func (s *stubCoins) Plan() models.Plan { return models.Plan{RequiredCoins: 100, CoinsPerReward: 10} }

func (s *stubCoins) ServerTime() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func (s *stubCoins) GetCoins(_ context.Context, deviceID string) (*services.Balance, error) {
	return s.balance, s.err
}

func (s *stubCoins) AddCoins(_ context.Context, deviceID string, in services.RewardInput) (*services.Balance, error) {
	return s.balance, s.err
}

func (s *stubCoins) Unlock(_ context.Context, deviceID string, durationDays int) (*services.UnlockResult, error) {
	s.duration = durationDays
	return s.unlock, s.err
}

func (s *stubCoins) ValidateUnlock(deviceID string, timestampMs int64, durationDays int, signature string) (*services.UnlockValidation, error) {
	return s.valid, s.err
}

func (s *stubCoins) CurrentEvent(_ context.Context, deviceID string) (*models.CoinsEvent, error) {
	return s.event, s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

var errBoom = errors.New("boom")

type stubIcons struct {
	CategoryIcons
	icons []models.CategoryIcon
	err   error
}

func (s *stubIcons) List(context.Context) ([]models.CategoryIcon, error) { return s.icons, s.err }

func (s *stubIcons) GetByCategory(_ context.Context, category string) (*models.CategoryIcon, error) {
	for i := range s.icons {
		if s.icons[i].Category == category {
			return &s.icons[i], nil
		}
	}
	return nil, &services.NotFoundError{Resource: "Category icon"}
}

func (s *stubIcons) Create(_ context.Context, in models.CategoryIcon) (*models.CategoryIcon, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.icons = append(s.icons, in)
	return &in, nil
}

type stubAdUnits struct {
	AdUnits
	units   []models.AdUnit
	err     error
	created models.AdUnitInput
}

func (s *stubAdUnits) List(context.Context) ([]models.AdUnit, error) { return s.units, s.err }

func (s *stubAdUnits) Create(_ context.Context, in models.AdUnitInput) (*models.AdUnit, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.AdUnit{AdUnitCode: in.AdUnitCode, AdName: in.AdName, AdType: in.AdType, Status: in.Status == nil || *in.Status}, nil
}

type stubWishes struct {
	wish      *models.SharedWish
	analytics *models.WishAnalytics
	err       error
	input     models.SharedWishInput
	viewer    models.WishViewer
	platform  string
}

func (s *stubWishes) Create(_ context.Context, in models.SharedWishInput) (*models.SharedWish, error) {
	s.input = in
	return s.wish, s.err
}

func (s *stubWishes) Get(_ context.Context, shortCode string, viewer models.WishViewer) (*models.SharedWish, error) {
	s.viewer = viewer
	return s.wish, s.err
}

func (s *stubWishes) Share(_ context.Context, shortCode, platform string) (*models.SharedWish, error) {
	s.platform = platform
	return s.wish, s.err
}

func (s *stubWishes) Analytics(_ context.Context, shortCode string) (*models.WishAnalytics, error) {
	return s.analytics, s.err
}
