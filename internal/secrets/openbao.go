package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrSecretNotFound = errors.New("openbao secret path not found")

// ConsoleKeys are the variables the console accepts from the vault. Anything
// else stored under the secret path is ignored.
var ConsoleKeys = []string{
	"BACKEND_COOKIE",
	"ORDER_DB_USER",
	"ORDER_DB_PASSWORD",
}

// Vault reads a single KV v2 secret from OpenBao.
type Vault struct {
	Addr      string
	Token     string
	Mount     string
	Path      string
	Namespace string

	http *http.Client
}

// FromEnv builds a Vault from OPENBAO_* variables. It returns nil when the
// address, token or secret path is missing.
func FromEnv() *Vault {
	addr := strings.TrimRight(strings.TrimSpace(os.Getenv("OPENBAO_ADDR")), "/")
	token := os.Getenv("OPENBAO_TOKEN")
	path := strings.Trim(strings.TrimSpace(os.Getenv("OPENBAO_SECRET_PATH")), "/")
	if addr == "" || token == "" || path == "" {
		return nil
	}
	mount := strings.Trim(strings.TrimSpace(os.Getenv("OPENBAO_MOUNT")), "/")
	if mount == "" {
		mount = "secret"
	}
	return &Vault{
		Addr:      addr,
		Token:     token,
		Mount:     mount,
		Path:      path,
		Namespace: strings.TrimSpace(os.Getenv("OPENBAO_NAMESPACE")),
	}
}

func (v *Vault) client() *http.Client {
	if v.http != nil {
		return v.http
	}
	return &http.Client{
		Timeout:   5 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Read fetches the secret and flattens its values to strings. Values that
// are neither strings, numbers nor booleans are skipped.
func (v *Vault) Read(ctx context.Context) (map[string]string, error) {
	url := fmt.Sprintf("%s/v1/%s/data/%s", v.Addr, v.Mount, v.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create openbao request: %w", err)
	}
	req.Header.Set("X-Vault-Token", v.Token)
	if v.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", v.Namespace)
	}

	resp, err := v.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("call openbao: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrSecretNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("openbao request failed: status=%d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Data map[string]any `json:"data"`
		} `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openbao response: %w", err)
	}

	out := make(map[string]string, len(payload.Data.Data))
	for k, raw := range payload.Data.Data {
		switch val := raw.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		}
	}
	return out, nil
}

// Export copies the console keys found in the secret into the process
// environment. Variables that are already set win over the vault.
func (v *Vault) Export(ctx context.Context) ([]string, error) {
	values, err := v.Read(ctx)
	if err != nil {
		return nil, err
	}
	var exported []string
	for _, key := range ConsoleKeys {
		val, ok := values[key]
		if !ok || val == "" {
			continue
		}
		if cur, set := os.LookupEnv(key); set && cur != "" {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return exported, fmt.Errorf("export %s: %w", key, err)
		}
		exported = append(exported, key)
	}
	return exported, nil
}

// Bootstrap exports console secrets when OpenBao is configured and is a
// no-op otherwise.
func Bootstrap(ctx context.Context) ([]string, error) {
	v := FromEnv()
	if v == nil {
		return nil, nil
	}
	return v.Export(ctx)
}
