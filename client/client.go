// Package client is a Go client for the chat server's HTTP API.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/jsonapi"
	"github.com/lotl-ai/lotlchat/auth"
	"github.com/lotl-ai/lotlchat/models"
)

func New(baseURL, apiKey string) Client {
	return Client{
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type Client struct {
	baseURL string
	apiKey  string
}

func (c Client) Health(ctx context.Context) (resp models.HealthGetResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("health").String()
	if err != nil {
		return resp, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return resp, err
	}
	res, err := jsonapi.Raw(req)
	if err != nil {
		return resp, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	err = json.NewDecoder(res.Body).Decode(&resp)
	return resp, err
}

func (c Client) ChatPost(ctx context.Context, req models.ChatPostRequest) (resp models.ChatPostResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("api", "chat").String()
	if err != nil {
		return resp, err
	}
	if c.apiKey != "" {
		return jsonapi.Post[models.ChatPostRequest, models.ChatPostResponse](ctx, url, req, jsonapi.WithRequestHeader(auth.Header, c.apiKey))
	}
	return jsonapi.Post[models.ChatPostRequest, models.ChatPostResponse](ctx, url, req)
}

// UploadPost forwards opaque upload bytes through the server's proxy and
// returns the upstream status code and body.
func (c Client) UploadPost(ctx context.Context, contentType string, body io.Reader) (status int, respBody []byte, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("api", "upload").String()
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set(auth.Header, c.apiKey)
	}
	// The jsonapi middleware would replace the upload's Content-Type with
	// application/json, losing the multipart boundary, so this request goes
	// through the plain HTTP client.
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	respBody, err = io.ReadAll(res.Body)
	return res.StatusCode, respBody, err
}

// Stream consumes the streaming chat endpoint. The leading meta frame is
// delivered to onMeta; every subsequent chunk of token bytes goes to f.
func (c Client) Stream(ctx context.Context, q string, topK int, threshold float64, onMeta func(meta models.StreamMeta) error, f func(ctx context.Context, chunk []byte) error) (err error) {
	url, err := jsonapi.URL(c.baseURL).Path("api", "chat", "stream").Query(map[string]string{
		"q":         q,
		"top_k":     strconv.Itoa(topK),
		"threshold": strconv.FormatFloat(threshold, 'f', -1, 64),
	}).String()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set(auth.Header, c.apiKey)
	}
	res, err := jsonapi.Raw(req)
	if err != nil {
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(res.Body)
		return jsonapi.InvalidStatusError{
			Status: res.StatusCode,
			Body:   string(body),
		}
	}

	br := bufio.NewReader(res.Body)
	first, err := br.ReadBytes('\n')
	if len(first) > 0 {
		var meta models.StreamMeta
		if jsonErr := json.Unmarshal(first, &meta); jsonErr == nil && meta.Type == "meta" {
			if onMeta != nil {
				if metaErr := onMeta(meta); metaErr != nil {
					return metaErr
				}
			}
		} else if fErr := f(ctx, first); fErr != nil {
			return fmt.Errorf("failed to process chunk: %w", fErr)
		}
	}
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to read response body: %w", err)
	}

	for {
		chunk := make([]byte, 1024)
		n, err := br.Read(chunk)
		if n > 0 {
			if err := f(ctx, chunk[:n]); err != nil {
				return fmt.Errorf("failed to process chunk: %w", err)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read response body: %w", err)
		}
	}
}
