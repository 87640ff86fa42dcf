package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"houseprice/internal/auth"
	"houseprice/internal/features"
	"houseprice/internal/models"
	"houseprice/internal/pricing"
	"houseprice/internal/regressor"
	"houseprice/internal/users"
	"houseprice/pkg/geo"
)

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []models.PredictionEvent
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, v.(models.PredictionEvent))
	return p.err
}

type testEnv struct {
	server    *httptest.Server
	client    *http.Client
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T, model regressor.Regressor) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := users.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	pub := &recordingPublisher{}
	h := NewHandler(Deps{
		Auth:      auth.NewService(store),
		Builder:   features.NewBuilder(nil),
		Pricing:   pricing.NewService(model, pricing.Currency{Rate: pricing.DefaultRate, Symbol: pricing.DefaultSymbol}),
		Locations: geo.DefaultTable(),
		Publisher: pub,
	})
	srv := httptest.NewServer(NewRouter(h, SessionOptions{Secret: "test-secret", MaxAge: time.Hour}))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{server: srv, client: client, publisher: pub}
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) (int, map[string]any) {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	require.NoError(t, err)
	return decode(t, resp)
}

func (e *testEnv) postJSON(t *testing.T, path, body string) (int, map[string]any) {
	t.Helper()
	resp, err := e.client.Post(e.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return decode(t, resp)
}

func (e *testEnv) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) (int, map[string]any) {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func (e *testEnv) register(t *testing.T) {
	t.Helper()
	status, body := e.postForm(t, "/register", url.Values{
		"name":             {"Asha"},
		"email":            {"Asha@Example.com "},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	})
	require.Equal(t, http.StatusCreated, status, body)
}

func delhiForm() url.Values {
	return url.Values{
		"bedrooms":    {"3"},
		"bathrooms":   {"2"},
		"sqft_living": {"1800"},
		"sqft_lot":    {"5000"},
		"floors":      {"2"},
		"yr_built":    {"1995"},
		"condition":   {"4"},
		"grade":       {"8"},
		"location":    {"delhi"},
	}
}

func TestPredict_RequiresLogin(t *testing.T) {
	env := newTestEnv(t, regressor.Static{Value: 500000})

	status, body := env.postForm(t, "/predict", delhiForm())
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "/login", body["redirect"])

	status, _ = env.get(t, "/home")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, env.publisher.events)
}

func TestPredict_Delhi(t *testing.T) {
	env := newTestEnv(t, regressor.Static{Value: 500000, Width: features.Size})
	env.register(t)

	status, body := env.postForm(t, "/predict", delhiForm())
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Estimated House Price in Delhi: ₹44,000,000", body["prediction_text"])
	assert.Equal(t, "₹44,000,000", body["formatted"])
	assert.Equal(t, 500000.0, body["estimate"])

	require.Len(t, env.publisher.events, 1)
	event := env.publisher.events[0]
	assert.Equal(t, event.ID, env.publisher.keys[0])
	assert.Equal(t, "asha@example.com", event.User)
	assert.Equal(t, "delhi", event.Location)
	assert.Equal(t, "ttnfucj", event.Geohash)
	assert.InDeltaSlice(t, []float64{3, 2, 2, 1800, 5000, 8, 1995, 0, 0, 0, 4, 1530, 28.6139, 77.2090, 1800, 5000}, event.Features, 1e-9)
}

func TestPredict_HomeAliasAndJSON(t *testing.T) {
	env := newTestEnv(t, regressor.Static{Value: 1234.5})
	env.register(t)

	status, body := env.postJSON(t, "/home", `{
		"bedrooms": 2, "bathrooms": 1, "sqft_living": 900, "sqft_lot": 1200,
		"yr_built": 2005, "condition": 3, "location": "Mumbai"
	}`)
	require.Equal(t, http.StatusOK, status, body)
	// 1234.5 * 88 = 108636
	assert.Equal(t, "Estimated House Price in Mumbai: ₹108,636", body["prediction_text"])
}

func TestPredict_UnknownLocationFallsBack(t *testing.T) {
	env := newTestEnv(t, regressor.Static{Value: 1})
	env.register(t)

	form := delhiForm()
	form.Set("location", "atlantis")
	status, body := env.postForm(t, "/predict", form)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Estimated House Price in Atlantis: ₹88", body["prediction_text"])

	require.Len(t, env.publisher.events, 1)
	got := env.publisher.events[0].Features
	assert.Equal(t, 28.6139, got[12])
	assert.Equal(t, 77.2090, got[13])
}

func TestPredict_BadInput(t *testing.T) {
	env := newTestEnv(t, regressor.Static{Value: 1})
	env.register(t)

	tests := []struct {
		name   string
		mutate func(url.Values)
	}{
		{"missing bedrooms", func(f url.Values) { f.Del("bedrooms") }},
		{"empty required", func(f url.Values) { f.Set("condition", " ") }},
		{"unparsable sqft", func(f url.Values) { f.Set("sqft_living", "big") }},
		{"unparsable optional", func(f url.Values) { f.Set("grade", "high") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := delhiForm()
			tt.mutate(form)
			status, body := env.postForm(t, "/predict", form)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, MsgCheckInputs, body["error"])
		})
	}

	status, body := env.postJSON(t, "/predict", `{"bedrooms": [3]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, MsgCheckInputs, body["error"])
	assert.Empty(t, env.publisher.events)
}

type failingModel struct{}

func (failingModel) Predict([]float64) (float64, error) { return 0, errors.New("session closed") }

func TestPredict_ModelFailure(t *testing.T) {
	env := newTestEnv(t, failingModel{})
	env.register(t)

	status, body := env.postForm(t, "/predict", delhiForm())
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, MsgCheckInputs, body["error"])
	assert.Empty(t, env.publisher.events)
}

func TestPredict_PublishFailureStillAnswers(t *testing.T) {
	env := newTestEnv(t, regressor.Static{Value: 10})
	env.publisher.err = errors.New("broker down")
	env.register(t)

	status, body := env.postForm(t, "/predict", delhiForm())
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "₹880", body["formatted"])
}

func TestAccountFlow(t *testing.T) {
	env := newTestEnv(t, regressor.Static{Value: 1})

	status, body := env.get(t, "/health")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, body["users_count"])

	resp, err := env.client.Get(env.server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	env.register(t)

	status, body = env.get(t, "/home")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Asha", body["user_name"])
	assert.Contains(t, body["locations"], "delhi")

	status, body = env.get(t, "/health")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["users_count"])

	status, _ = env.postForm(t, "/logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = env.get(t, "/home")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.postForm(t, "/login", url.Values{"email": {"asha@example.com"}, "password": {"wrong-pass"}})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, auth.ErrInvalidCredentials.Error(), body["error"])

	status, body = env.postForm(t, "/login", url.Values{"email": {"ASHA@example.com"}, "password": {"secret1"}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Welcome back, Asha!", body["message"])

	resp, err = env.client.Get(env.server.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/home", resp.Header.Get("Location"))
}

func TestRegister_Errors(t *testing.T) {
	env := newTestEnv(t, regressor.Static{Value: 1})
	env.register(t)
	env.postForm(t, "/logout", nil)

	tests := []struct {
		name   string
		form   url.Values
		status int
		want   error
	}{
		{"duplicate", url.Values{"name": {"A"}, "email": {"asha@example.com"}, "password": {"secret1"}, "confirm_password": {"secret1"}}, http.StatusConflict, auth.ErrEmailTaken},
		{"short", url.Values{"name": {"B"}, "email": {"b@example.com"}, "password": {"abc"}, "confirm_password": {"abc"}}, http.StatusBadRequest, auth.ErrPasswordTooShort},
		{"long", url.Values{"name": {"B"}, "email": {"b@example.com"}, "password": {strings.Repeat("p", 73)}, "confirm_password": {strings.Repeat("p", 73)}}, http.StatusBadRequest, auth.ErrPasswordTooLong},
		{"mismatch", url.Values{"name": {"B"}, "email": {"b@example.com"}, "password": {"secret1"}, "confirm_password": {"secret2"}}, http.StatusBadRequest, auth.ErrPasswordMismatch},
		{"missing", url.Values{"email": {"b@example.com"}}, http.StatusBadRequest, auth.ErrFieldsRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.postForm(t, "/register", tt.form)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.want.Error(), body["error"])
		})
	}
}

func TestLocations(t *testing.T) {
	env := newTestEnv(t, regressor.Static{Value: 1})
	status, body := env.get(t, "/locations")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, geo.DefaultLocation, body["default"])
	assert.Len(t, body["locations"], len(geo.DefaultTable().Names()))
}

func TestSentence(t *testing.T) {
	assert.Equal(t, "Estimated House Price in San Francisco: ₹1", Sentence("san francisco", "₹1"))
}
