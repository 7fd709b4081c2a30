package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVault(t *testing.T, handler http.HandlerFunc) *Vault {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Vault{Addr: srv.URL, Token: "s.token", Mount: "secret", Path: "console/prod", http: srv.Client()}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("OPENBAO_ADDR", "")
	t.Setenv("OPENBAO_TOKEN", "")
	t.Setenv("OPENBAO_SECRET_PATH", "")
	assert.Nil(t, FromEnv())

	t.Setenv("OPENBAO_ADDR", " http://bao:8200/ ")
	t.Setenv("OPENBAO_TOKEN", "s.token")
	t.Setenv("OPENBAO_SECRET_PATH", "/console/prod/")
	t.Setenv("OPENBAO_MOUNT", "")
	t.Setenv("OPENBAO_NAMESPACE", "ops")

	v := FromEnv()
	require.NotNil(t, v)
	assert.Equal(t, "http://bao:8200", v.Addr)
	assert.Equal(t, "console/prod", v.Path)
	assert.Equal(t, "secret", v.Mount)
	assert.Equal(t, "ops", v.Namespace)
}

func TestRead(t *testing.T) {
	v := newVault(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/console/prod", r.URL.Path)
		assert.Equal(t, "s.token", r.Header.Get("X-Vault-Token"))
		assert.Equal(t, "ops", r.Header.Get("X-Vault-Namespace"))
		_, _ = w.Write([]byte(`{"data":{"data":{"BACKEND_COOKIE":"session=abc","PORT":5432,"FLAG":true,"NESTED":{"a":1}}}}`))
	})
	v.Namespace = "ops"

	got, err := v.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"BACKEND_COOKIE": "session=abc",
		"PORT":           "5432",
		"FLAG":           "true",
	}, got)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{name: "not_found", status: http.StatusNotFound, target: ErrSecretNotFound},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "garbage", status: http.StatusOK, body: "<html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVault(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := v.Read(context.Background())
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestExportKeepsExistingValues(t *testing.T) {
	t.Setenv("BACKEND_COOKIE", "")
	t.Setenv("ORDER_DB_USER", "local")
	t.Setenv("ORDER_DB_PASSWORD", "")
	t.Setenv("UNRELATED", "")

	v := newVault(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"data":{"BACKEND_COOKIE":"session=abc","ORDER_DB_USER":"vault","ORDER_DB_PASSWORD":"pw","UNRELATED":"x"}}}`))
	})

	keys, err := v.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BACKEND_COOKIE", "ORDER_DB_PASSWORD"}, keys)
	assert.Equal(t, "session=abc", os.Getenv("BACKEND_COOKIE"))
	assert.Equal(t, "local", os.Getenv("ORDER_DB_USER"))
	assert.Equal(t, "pw", os.Getenv("ORDER_DB_PASSWORD"))
	assert.Empty(t, os.Getenv("UNRELATED"))
}

func TestBootstrapWithoutConfig(t *testing.T) {
	t.Setenv("OPENBAO_ADDR", "")
	keys, err := Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Nil(t, keys)
}
