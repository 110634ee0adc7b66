package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (t staticToken) Token() (string, bool) { return string(t), t != "" }

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(staticToken("tok-abc")))
	err := c.SendOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(staticToken("")))
	require.NoError(t, c.SendOTP(context.Background(), "9876543210"))
	assert.Empty(t, gotAuth)
}

func TestClientIDHeader(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Client-Id")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithClientID("install-42"))
	require.NoError(t, c.SendOTP(context.Background(), "9876543210"))
	assert.Equal(t, "install-42", gotID)
}

func TestVerifyOTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/verify-otp", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "9876543210", body["mobile"])
		assert.Equal(t, "1234", body["otp"])

		w.Write([]byte(`{"access_token":"tok-xyz","is_new_user":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.VerifyOTP(context.Background(), "9876543210", "1234")
	require.NoError(t, err)
	assert.Equal(t, "tok-xyz", res.AccessToken)
	assert.True(t, res.IsNewUser)
}

func TestSendMessagePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Mobile    string     `json:"mobile"`
			Message   string     `json:"message"`
			History   []ChatTurn `json:"history"`
			SessionID string     `json:"session_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SESS_1700000000000", body.SessionID)
		assert.Len(t, body.History, 2)

		w.Write([]byte(`{
			"answer": "The stars align.",
			"assistant": "guruji",
			"wallet_balance": 95,
			"amount": 5,
			"guruji_json": {"para1":"One.","para2":"Two.","para3":"Three.","follow_up":"Ask about career?"}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	history := []ChatTurn{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	}
	res, err := c.SendMessage(context.Background(), "9876543210", "what about love?", history, "SESS_1700000000000")
	require.NoError(t, err)

	assert.Equal(t, "The stars align.", res.Answer)
	assert.Equal(t, "guruji", res.Assistant)
	require.NotNil(t, res.WalletBalance)
	assert.Equal(t, 95.0, *res.WalletBalance)
	assert.Equal(t, 5.0, res.Amount)
	require.NotNil(t, res.GurujiJSON)
	assert.Equal(t, "Ask about career?", res.GurujiJSON.FollowUpText())
}

func TestErrorDetailString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Invalid OTP."}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.VerifyOTP(context.Background(), "9876543210", "0000")
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	assert.Equal(t, "Invalid OTP.", reqErr.UserMessage())
}

func TestErrorDetailValidationList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"msg":"mobile must be 10 digits"},{"msg":"second problem"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.SendOTP(context.Background(), "12")
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "mobile must be 10 digits", reqErr.UserMessage())
	assert.Len(t, reqErr.Messages, 2)
}

func TestErrorUnparseableBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>gateway timeout</html>`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.SendOTP(context.Background(), "9876543210")
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusInternalServerError, reqErr.Status)
	assert.Equal(t, genericMessage, reqErr.UserMessage())
}

func TestTransportFailureIsRequestError(t *testing.T) {
	c := New("http://127.0.0.1:1") // nothing listens here
	_, err := c.UserStatus(context.Background(), "9876543210")
	require.Error(t, err)

	var reqErr *RequestError
	assert.True(t, errors.As(err, &reqErr))
	assert.Zero(t, reqErr.Status)
}

func TestUserStatusCacheBuster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/auth/user-status/9876543210"))
		assert.NotEmpty(t, r.URL.Query().Get("t"))
		w.Write([]byte(`{"status":"ready","user_profile":{"name":"Asha"},"wallet_balance":42}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.UserStatus(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "ready", res.Status)
	require.NotNil(t, res.UserProfile)
	assert.Equal(t, "Asha", res.UserProfile.Name)
}

func TestTestProcessMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "chart.pdf", r.FormValue("filename"))
		w.Write([]byte(`{"doc_id":"doc-1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.TestProcess(context.Background(), "chart.pdf")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", res.DocID)
}

func TestTestUploadMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "notes.txt", hdr.Filename)
		w.Write([]byte(`{"filename":"notes.txt"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.TestUpload(context.Background(), "notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", res.Filename)
}

func TestToggleWalletSystemQueryParam(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.ToggleWalletSystem(context.Background(), true))
	assert.Equal(t, "enabled=true", gotQuery)
}
