package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:     "single forwarded IP",
			headers:  map[string]string{"X-Forwarded-For": "192.168.1.1"},
			expected: "192.168.1.1",
		},
		{
			name:     "multiple forwarded IPs (take first)",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.1, 198.51.100.1"},
			expected: "203.0.113.1",
		},
		{
			name:     "forwarded IP with extra spaces",
			headers:  map[string]string{"X-Forwarded-For": " 203.0.113.1  ,  198.51.100.1"},
			expected: "203.0.113.1",
		},
		{
			name:     "real IP",
			headers:  map[string]string{"X-Real-IP": "192.168.1.100"},
			expected: "192.168.1.100",
		},
		{
			name:     "forwarded takes preference",
			headers:  map[string]string{"X-Forwarded-For": "10.0.0.1", "X-Real-IP": "10.0.0.2"},
			expected: "10.0.0.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.10:51234",
			expected:   "192.0.2.10",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			expected:   "2001:db8::1",
		},
		{
			name:       "remote addr with no port",
			remoteAddr: "192.0.2.10",
			expected:   "192.0.2.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remoteAddr != "" {
				r.RemoteAddr = tt.remoteAddr
			}

			require.Equal(t, tt.expected, ClientIP(r))
		})
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := AccessLog(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	r := httptest.NewRequest(http.MethodGet, "/about", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	require.Equal(t, http.StatusTeapot, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "request", entry["message"])
	require.Equal(t, "GET", entry["method"])
	require.Equal(t, "/about", entry["path"])
	require.Equal(t, "203.0.113.7", entry["client_ip"])
	require.EqualValues(t, http.StatusTeapot, entry["status"])
	require.EqualValues(t, len("short and stout"), entry["size"])
}
