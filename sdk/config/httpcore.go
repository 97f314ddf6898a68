// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const DefaultPathPrefix = "/spring"

// CoreHTTP is the archive REST collaborator. Session handling is its
// business; callers only see request paths and raw bodies.
type CoreHTTP interface {
	// BuildURL addresses the download service (base + path prefix).
	BuildURL(request string) string
	// BuildDataURL addresses the archive REST API under /data.
	BuildDataURL(resource string, params map[string]string) string
	Do(ctx context.Context, method, url string, data []byte) ([]byte, int, error)
}

type httpCore struct {
	httpClient *http.Client
	coreConfig CoreConfig
}

func NewHTTPCore(httpClient *http.Client, coreConfig CoreConfig) CoreHTTP {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &httpCore{httpClient: httpClient, coreConfig: coreConfig}
}

// BuildURL joins base URL, path prefix and a request such as
// "/download?subjects=100307".
func (httpCore *httpCore) BuildURL(request string) string {
	base := strings.TrimSuffix(httpCore.coreConfig.BaseURL, "/")
	prefix := httpCore.coreConfig.PathPrefix
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if request != "" && !strings.HasPrefix(request, "/") {
		request = "/" + request
	}
	return base + prefix + request
}

func (httpCore *httpCore) BuildDataURL(resource string, params map[string]string) string {
	base := strings.TrimSuffix(httpCore.coreConfig.BaseURL, "/") + "/data/" + strings.TrimPrefix(resource, "/")
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return base
	}
	sort.Strings(keys)
	q := make([]string, len(keys))
	for i, k := range keys {
		q[i] = k + "=" + url.QueryEscape(params[k])
	}
	return base + "?" + strings.Join(q, "&")
}

func (httpCore *httpCore) Do(ctx context.Context, method, url string, data []byte) ([]byte, int, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	// If access token is set, add Authorization header
	if tok := httpCore.coreConfig.AccessToken; tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	// Basic auth needs both parts; a user alone only names the account
	// (token or session auth)
	if user, pass := httpCore.coreConfig.BasicAuthUsername, httpCore.coreConfig.BasicAuthPassword; user != "" && pass != "" {
		req.SetBasicAuth(user, pass)
	}

	if sid := httpCore.coreConfig.SessionID; sid != "" {
		req.AddCookie(&http.Cookie{Name: "JSESSIONID", Value: sid})
	}

	resp, err := httpCore.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	b, rerr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var m map[string]any
		if json.Unmarshal(b, &m) == nil {
			if msg, ok := m["message"].(string); ok && msg != "" {
				return b, resp.StatusCode, fmt.Errorf("archive responded with: %s - %s", resp.Status, msg)
			}
		}
		return b, resp.StatusCode, fmt.Errorf("archive responded with: %s", resp.Status)
	}
	return b, resp.StatusCode, rerr
}
