package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BackendClient talks to the trusted backend: it fetches ephemeral
// credentials and forwards function calls. The client never sees the
// long-lived provider key.
type BackendClient struct {
	baseURL string
	client  *http.Client
}

func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *BackendClient) FetchCredential(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session", nil)
	if err != nil {
		return "", &CredentialError{Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &CredentialError{Err: fmt.Errorf("backend unreachable: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CredentialError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &CredentialError{Err: fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var session struct {
		ClientSecret struct {
			Value string `json:"value"`
		} `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return "", &CredentialError{Err: fmt.Errorf("malformed session payload: %w", err)}
	}
	if session.ClientSecret.Value == "" {
		return "", &CredentialError{Err: errors.New("session payload has no client_secret.value")}
	}
	return session.ClientSecret.Value, nil
}

func (c *BackendClient) Dispatch(ctx context.Context, call FunctionCallRequest) (*FunctionCallResult, error) {
	payload, err := json.Marshal(call)
	if err != nil {
		return nil, &DispatchError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/function_call", bytes.NewReader(payload))
	if err != nil {
		return nil, &DispatchError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &DispatchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DispatchError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &errBody)
		return nil, &DispatchError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	var result FunctionCallResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &DispatchError{StatusCode: resp.StatusCode, Message: "malformed function call result", Err: err}
	}
	return &result, nil
}

// HTTPSDPExchanger posts the raw offer SDP to the provider's realtime
// endpoint with the ephemeral credential.
type HTTPSDPExchanger struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSDPExchanger(baseURL, model string, timeout time.Duration) *HTTPSDPExchanger {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSDPExchanger{
		endpoint: strings.TrimRight(baseURL, "/") + "/realtime?model=" + url.QueryEscape(model),
		client:   &http.Client{Timeout: timeout},
	}
}

func (x *HTTPSDPExchanger) Exchange(ctx context.Context, credential, offer string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.endpoint, strings.NewReader(offer))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := x.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", errors.New("provider returned an empty answer")
	}
	return string(body), nil
}
