// Package imagestore talks to the hosted image CDN. Posts and profiles
// store only the hosted URL returned from Upload, never the raw payload.
package imagestore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Store is the interface the content and profile services use.
type Store interface {
	// Upload persists an image payload (data URI or remote URL) and
	// returns the hosted secure URL.
	Upload(ctx context.Context, payload string) (string, error)
	// Destroy removes the hosted image identified by its public URL.
	Destroy(ctx context.Context, imageURL string) error
}

// Client is a Cloudinary-style REST client.
type Client struct {
	baseURL    string
	cloudName  string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// Config holds the CDN account credentials.
type Config struct {
	BaseURL   string // defaults to the public API endpoint
	CloudName string
	APIKey    string
	APISecret string
}

// NewClient creates a CDN client from account credentials.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.cloudinary.com/v1_1"
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the payload to the CDN and returns the hosted secure URL.
func (c *Client) Upload(ctx context.Context, payload string) (string, error) {
	form := url.Values{}
	form.Set("file", payload)
	c.sign(form)

	resp, err := c.post(ctx, "upload", form)
	if err != nil {
		return "", err
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("image upload failed: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// Destroy removes a previously uploaded image. The public ID is the last
// path element of the hosted URL without its extension.
func (c *Client) Destroy(ctx context.Context, imageURL string) error {
	form := url.Values{}
	form.Set("public_id", PublicID(imageURL))
	c.sign(form)

	resp, err := c.post(ctx, "destroy", form)
	if err != nil {
		return err
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("image destroy failed: %s", resp.Error.Message)
	}
	return nil
}

// PublicID derives the CDN public ID from a hosted image URL.
func PublicID(imageURL string) string {
	name := path.Base(imageURL)
	return strings.TrimSuffix(name, path.Ext(name))
}

// sign adds api_key, timestamp and the SHA-1 request signature the CDN
// requires on authenticated endpoints. The signature covers every field
// except file and api_key, sorted by name.
func (c *Client) sign(form url.Values) {
	form.Set("timestamp", strconv.FormatInt(time.Now().Unix(), 10))

	keys := make([]string, 0, len(form))
	for k := range form {
		if k == "file" || k == "api_key" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + form.Get(k)
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))

	form.Set("api_key", c.apiKey)
	form.Set("signature", hex.EncodeToString(sum[:]))
}

func (c *Client) post(ctx context.Context, action string, form url.Values) (*uploadResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/image/%s", c.baseURL, c.cloudName, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image store request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("image store returned unexpected response: %w", err)
	}
	return &out, nil
}
