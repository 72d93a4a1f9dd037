package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animaldex/internal/classifier"
	"animaldex/internal/gateway/handler"
	profilerepo "animaldex/internal/gateway/repository/profile"
	uploadrepo "animaldex/internal/gateway/repository/upload"
	"animaldex/internal/gateway/server"
	"animaldex/internal/gateway/service/auth"
	"animaldex/internal/gateway/service/events"
	"animaldex/internal/gateway/service/facts"
	"animaldex/internal/gateway/service/ledger"
	"animaldex/internal/gateway/service/prediction"
)

type stubClassifier struct {
	label      string
	confidence float64
	err        error
}

func (s *stubClassifier) Classify(context.Context, []byte) (classifier.Prediction, error) {
	if s.err != nil {
		return classifier.Prediction{}, s.err
	}
	return classifier.Prediction{
		Label:        s.label,
		Confidence:   s.confidence,
		Distribution: map[string]float64{s.label: s.confidence},
	}, nil
}

func newTestServer(t *testing.T, cls classifier.Classifier) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	profiles := profilerepo.NewMemoryStore()
	uploads := uploadrepo.NewMemoryStore()
	hub := events.NewHub()

	ledgerSvc := ledger.New(profiles)
	authSvc := auth.New(profiles, time.Minute, logger)
	factProvider := facts.NewProvider(nil, time.Second, logger)
	predictionSvc := prediction.New(cls, factProvider, ledgerSvc, uploads, hub, logger)

	api := handler.NewAPI(logger, authSvc, predictionSvc, ledgerSvc, uploads, hub)
	srv := httptest.NewServer(server.NewMux(logger, api, authSvc, profiles.Ping))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func loginClient(t *testing.T, srv *httptest.Server, handle, password string) *http.Client {
	t.Helper()
	client := newCookieClient(t)
	resp := postJSON(t, client, srv.URL+"/api/register", map[string]string{"handle": handle, "password": password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, client, srv.URL+"/api/login", map[string]string{"handle": handle, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	return client
}

func newCookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func photoRequest(t *testing.T, url string) (*http.Request, error) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "tiger.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func TestRegisterLoginPredictFlow(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{label: "tiger", confidence: 0.93})
	client := loginClient(t, srv, "ava", "hunter2")

	req, err := photoRequest(t, srv.URL+"/api/predict")
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result prediction.Result
	decodeJSON(t, resp, &result)
	assert.Equal(t, "Tiger", result.Label)
	assert.True(t, result.IsNew)
	assert.Equal(t, 2, result.Level)
	assert.Equal(t, "Beginner Explorer", result.Badge)
	assert.NotEmpty(t, result.Fact)
	assert.NotEmpty(t, result.ImageURL)

	// Same species again: recorded once, level unchanged.
	req, err = photoRequest(t, srv.URL+"/api/predict")
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &result)
	assert.False(t, result.IsNew)
	assert.Equal(t, 2, result.Level)
}

func TestPredictRequiresLogin(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{label: "tiger", confidence: 0.93})

	req, err := photoRequest(t, srv.URL+"/api/predict")
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPredictClassificationFailure(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{
		err: classifier.NewClassificationError("image undecodable", nil),
	})
	client := loginClient(t, srv, "ava", "hunter2")

	req, err := photoRequest(t, srv.URL+"/api/predict")
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRegisterDuplicateHandle(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{label: "tiger", confidence: 0.93})
	client := newCookieClient(t)

	resp := postJSON(t, client, srv.URL+"/api/register", map[string]string{"handle": "ava", "password": "x"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, client, srv.URL+"/api/register", map[string]string{"handle": "ava", "password": "y"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{label: "tiger", confidence: 0.93})
	client := newCookieClient(t)

	resp := postJSON(t, client, srv.URL+"/api/register", map[string]string{"handle": "ava", "password": "x"})
	resp.Body.Close()

	resp = postJSON(t, client, srv.URL+"/api/login", map[string]string{"handle": "ava", "password": "wrong"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeReportsLedgerState(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{label: "tiger", confidence: 0.93})
	client := loginClient(t, srv, "ava", "hunter2")

	req, err := photoRequest(t, srv.URL+"/api/predict")
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.Get(srv.URL + "/api/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		Handle          string   `json:"handle"`
		Level           int      `json:"level"`
		Badge           string   `json:"badge"`
		DiscoveredCount int      `json:"discovered_count"`
		Discovered      []string `json:"discovered"`
	}
	decodeJSON(t, resp, &me)
	assert.Equal(t, "ava", me.Handle)
	assert.Equal(t, 2, me.Level)
	assert.Equal(t, 1, me.DiscoveredCount)
	assert.Equal(t, []string{"tiger"}, me.Discovered)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{label: "tiger", confidence: 0.93})
	client := loginClient(t, srv, "ava", "hunter2")

	resp, err := client.Post(srv.URL+"/api/logout", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/api/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubClassifier{label: "tiger", confidence: 0.93})
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
