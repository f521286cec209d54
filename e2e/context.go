// Package e2e runs black-box scenarios against a live libris instance.
//
// The suite talks plain HTTP to the server named by LIBRIS_E2E_URL. Admin
// scenarios need a pre-provisioned administrator token in
// LIBRIS_E2E_ADMIN_TOKEN; member accounts are registered by the scenarios
// themselves.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// TestContext carries shared state between steps in one scenario.
type TestContext struct {
	baseURL    string
	client     *http.Client
	adminToken string

	memberToken string
	lastStatus  int
	lastBody    map[string]any
	lastRawBody []byte

	// IDs captured along the scenario.
	bookID int64
	copyID int64
}

func NewTestContext() *TestContext {
	base := os.Getenv("LIBRIS_E2E_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		baseURL:    base,
		client:     &http.Client{Timeout: 10 * time.Second},
		adminToken: os.Getenv("LIBRIS_E2E_ADMIN_TOKEN"),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.memberToken = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastRawBody = nil
	tc.bookID = 0
	tc.copyID = 0
}

func (tc *TestContext) do(method, path string, body any, token string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastRawBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastBody = nil
	if len(tc.lastRawBody) > 0 {
		_ = json.Unmarshal(tc.lastRawBody, &tc.lastBody)
	}
	return nil
}

// POST sends an anonymous request.
func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, "")
}

// PostAsMember sends a request with the scenario's member token.
func (tc *TestContext) PostAsMember(path string, body any) error {
	return tc.do(http.MethodPost, path, body, tc.memberToken)
}

// PostAsAdmin sends a request with the provisioned admin token.
func (tc *TestContext) PostAsAdmin(path string, body any) error {
	return tc.do(http.MethodPost, path, body, tc.adminToken)
}

// GetAsMember sends a GET with the scenario's member token.
func (tc *TestContext) GetAsMember(path string) error {
	return tc.do(http.MethodGet, path, nil, tc.memberToken)
}

// GetAsAdmin sends a GET with the provisioned admin token.
func (tc *TestContext) GetAsAdmin(path string) error {
	return tc.do(http.MethodGet, path, nil, tc.adminToken)
}

// GET sends an anonymous GET.
func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil, "")
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// Field returns a top-level field from the last JSON response.
func (tc *TestContext) Field(name string) (any, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no JSON body in last response: %s", tc.lastRawBody)
	}
	v, ok := tc.lastBody[name]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", name, tc.lastRawBody)
	}
	return v, nil
}

// ErrorCode returns the error envelope code of the last response.
func (tc *TestContext) ErrorCode() (string, error) {
	raw, err := tc.Field("error")
	if err != nil {
		return "", err
	}
	envelope, ok := raw.(map[string]any)
	if !ok {
		return "", fmt.Errorf("error field is not an object: %s", tc.lastRawBody)
	}
	code, _ := envelope["code"].(string)
	return code, nil
}

func (tc *TestContext) SetMemberToken(token string) { tc.memberToken = token }
func (tc *TestContext) SetBookID(id int64)          { tc.bookID = id }
func (tc *TestContext) BookID() int64               { return tc.bookID }
func (tc *TestContext) SetCopyID(id int64)          { tc.copyID = id }
func (tc *TestContext) CopyID() int64               { return tc.copyID }
