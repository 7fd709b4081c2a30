package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/apperr"
)

func TestPostResult(t *testing.T) {
	tests := []struct {
		name        string
		handler     func(w http.ResponseWriter, r *http.Request)
		want        Result
		wantErr     bool
		errContains string
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"success":true,"message":"notified"}`)
			},
			want: Result{Success: true, Message: "notified"},
		},
		{
			name: "business_failure_is_not_an_error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"success":false,"message":"order not found"}`)
			},
			want: Result{Success: false, Message: "order not found"},
		},
		{
			name: "missing_message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"success":true}`)
			},
			wantErr:     true,
			errContains: "malformed result",
		},
		{
			name: "not_json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `<html>login</html>`)
			},
			wantErr:     true,
			errContains: "decode body",
		},
		{
			name: "server_error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr:     true,
			errContains: "status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(tt.handler))
			defer srv.Close()

			c := New(srv.URL, time.Second)
			got, err := c.PostResult(context.Background(), "/order/1/notify-success", nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Equal(t, apperr.KindTransport, apperr.Kind(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostJSONSendsHeadersAndBody(t *testing.T) {
	var (
		gotMethod string
		gotCT     string
		gotReqID  string
		gotCookie string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotReqID = r.Header.Get("X-Request-Id")
		gotCookie = r.Header.Get("Cookie")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"success":true,"message":"ok"}`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second, WithCookie("session=abc"))
	_, err := c.PostResult(context.Background(), ResendNotificationPath, ResendRequest{LogID: 7})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotCT)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, "session=abc", gotCookie)
	assert.Equal(t, map[string]any{"log_id": float64(7)}, gotBody)
}

func TestPostJSONNilBodyIsEmptyObject(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"success":true,"message":"ok"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).PostResult(context.Background(), "/order/3/debug-failed", nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestGetText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == OrderDetailHTMLPath(9) {
			_, _ = io.WriteString(w, `<div class="order">9</div>`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `<div class="alert">not found</div>`)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)

	status, body, err := c.GetText(context.Background(), OrderDetailHTMLPath(9))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, `<div class="order">9</div>`, body)

	status, body, err = c.GetText(context.Background(), OrderDetailHTMLPath(10))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "not found")
}

func TestTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, 50*time.Millisecond)
	_, err := c.PostResult(context.Background(), "/order/1/notify-refund", nil)
	require.Error(t, err)

	var te *apperr.TransportError
	assert.True(t, errors.As(err, &te))
}

func TestResultUnmarshal(t *testing.T) {
	var r Result
	require.NoError(t, json.Unmarshal([]byte(`{"success":false,"message":"","extra":1}`), &r))
	assert.Equal(t, Result{Success: false, Message: ""}, r)

	err := json.Unmarshal([]byte(`{"message":"x"}`), &r)
	assert.ErrorIs(t, err, ErrMalformedResult)

	err = json.Unmarshal([]byte(`{"success":true,"message":null}`), &r)
	assert.ErrorIs(t, err, ErrMalformedResult)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/order/5/detail-html", OrderDetailHTMLPath(5))
	assert.Equal(t, "/order/5/agiso-deliver", OrderActionPath(5, "agiso-deliver"))
	assert.Equal(t, "/order/5/save-cards", SaveCardsPath(5))
	assert.Equal(t, "/order/deliver-card/5", DeliverCardPath(5))
	assert.Equal(t, "/notification/detail/8", NotificationDetailPath(8))
	assert.Equal(t, "/shop/card91-test/2", Card91TestPath(2))
}
