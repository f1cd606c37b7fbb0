package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	supafunctions "github.com/supabase-community/functions-go"

	"github.com/navidved/vitrine/internal/apperr"
)

// Client invokes edge functions at <baseURL>/functions/v1/<name>.
type Client struct {
	endpoint string
	apiKey   string
}

// NewClient creates a functions Client for the platform at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/functions/v1",
		apiKey:   apiKey,
	}
}

// session builds an SDK client authorized as accessToken; empty falls back to the API key.
func (c *Client) session(accessToken string) *supafunctions.Client {
	if accessToken == "" {
		accessToken = c.apiKey
	}
	return supafunctions.NewClient(c.endpoint, accessToken, map[string]string{"apikey": c.apiKey})
}

// Invoke POSTs payload as JSON to the named function and decodes the reply into out.
// The SDK call is not cancellable; ctx is checked before it starts.
func (c *Client) Invoke(ctx context.Context, name, accessToken string, payload, out any) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.Invocation, "invoke "+name, err)
	}

	body, err := c.session(accessToken).Invoke(name, payload)
	if err != nil {
		return &apperr.Error{Kind: apperr.Invocation, Op: "invoke " + name, Message: "function " + name + " could not be reached", Err: err}
	}

	if err := json.Unmarshal([]byte(body), out); err != nil {
		return &apperr.Error{Kind: apperr.Invocation, Op: "decode " + name + " response", Message: "function " + name + " returned an unreadable response", Err: err}
	}
	return nil
}

// ProcessImage validates req and runs it through the image hook.
func (c *Client) ProcessImage(ctx context.Context, accessToken string, req ImageRequest) (*ImageResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp imageResponse
	if err := c.Invoke(ctx, ImageProcess, accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("process image: %w", err)
	}
	return resp.result()
}
