package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nftstaking/core/auth"
	"nftstaking/crypto"
	"nftstaking/rpc"
)

type client struct {
	base  string
	token string
	http  *http.Client
}

func newHTTPClient(base, token string) *client {
	return &client{
		base:  strings.TrimRight(strings.TrimSpace(base), "/"),
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

// apiError is a non-2xx answer of the ledger API.
type apiError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *apiError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%d %s: %s (request %s)", e.Status, http.StatusText(e.Status), e.Message, e.RequestID)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

func (c *client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		var errResp rpc.ErrorResponse
		if json.Unmarshal(raw, &errResp) != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(raw))
		}
		return &apiError{Status: resp.StatusCode, Message: errResp.Error, RequestID: errResp.RequestID}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// sign fetches the next nonce of key and signs operation over fields.
func (c *client) sign(ctx context.Context, key *crypto.PrivateKey, operation string, fields [][]byte) (rpc.Signed, error) {
	addr := key.PubKey().Address()
	var account rpc.AccountView
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+addr.String(), nil, &account); err != nil {
		return rpc.Signed{}, fmt.Errorf("fetch nonce: %w", err)
	}
	sig, err := auth.SignOperation(key, operation, account.Nonce, fields...)
	if err != nil {
		return rpc.Signed{}, err
	}
	return rpc.Signed{Signer: addr.String(), Nonce: account.Nonce, Signature: fmt.Sprintf("%x", sig)}, nil
}
