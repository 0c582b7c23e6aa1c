package realtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCredential(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK, body: `{"id":"sess_1","client_secret":{"value":"ek_abc","expires_at":1}}`, want: "ek_abc"},
		{name: "backend error", status: http.StatusInternalServerError, body: `{"error":"Error interno del servidor"}`, wantErr: true},
		{name: "malformed", status: http.StatusOK, body: `<html>`, wantErr: true},
		{name: "missing value", status: http.StatusOK, body: `{"client_secret":{}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/session", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewBackendClient(srv.URL+"/", time.Second).FetchCredential(context.Background())
			if tt.wantErr {
				var cerr *CredentialError
				assert.ErrorAs(t, err, &cerr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchCredentialUnreachable(t *testing.T) {
	_, err := NewBackendClient("http://127.0.0.1:1", 200*time.Millisecond).FetchCredential(context.Background())
	var cerr *CredentialError
	assert.ErrorAs(t, err, &cerr)
}

func TestDispatchRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/function_call", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "search_frequent_question", body["name"])
		assert.Equal(t, map[string]interface{}{"pregunta": "hola"}, body["arguments"])

		_, _ = w.Write([]byte(`{"type":"conversation.item.create","item":{"type":"function_call_output","call_id":"` +
			body["call_id"].(string) + `","output":"{\"respuesta\":\"Hola, ¿en qué te ayudo?\"}"}}`))
	}))
	defer srv.Close()

	res, err := NewBackendClient(srv.URL, time.Second).Dispatch(context.Background(), FunctionCallRequest{
		Name:      "search_frequent_question",
		Arguments: map[string]interface{}{"pregunta": "hola"},
		CallID:    "abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, "conversation.item.create", res.Type)
	assert.Equal(t, "abc123", res.Item.CallID)

	answer, err := res.Answer()
	require.NoError(t, err)
	assert.Equal(t, "Hola, ¿en qué te ayudo?", answer)
}

func TestDispatchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Función no reconocida"}`))
	}))
	defer srv.Close()

	_, err := NewBackendClient(srv.URL, time.Second).Dispatch(context.Background(), FunctionCallRequest{Name: "other"})

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusBadRequest, derr.StatusCode)
	assert.Equal(t, "Función no reconocida", derr.Message)
}

func TestSDPExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/realtime", r.URL.Path)
		assert.Equal(t, "gpt-4o-realtime-preview-2024-12-17", r.URL.Query().Get("model"))
		assert.Equal(t, "Bearer ek_abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/sdp", r.Header.Get("Content-Type"))

		offer, _ := io.ReadAll(r.Body)
		assert.Equal(t, "v=0 offer", string(offer))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("v=0 answer"))
	}))
	defer srv.Close()

	x := NewHTTPSDPExchanger(srv.URL+"/v1", "gpt-4o-realtime-preview-2024-12-17", time.Second)
	answer, err := x.Exchange(context.Background(), "ek_abc", "v=0 offer")
	require.NoError(t, err)
	assert.Equal(t, "v=0 answer", answer)
}

func TestSDPExchangeFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key"}}`},
		{name: "empty answer", status: http.StatusOK, body: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPSDPExchanger(srv.URL, "m", time.Second).Exchange(context.Background(), "ek", "v=0")
			assert.Error(t, err)
		})
	}
}
