package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"poshak-admin-backend/internal/domain"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

// Client speaks to the upstream catalog REST API. Every endpoint answers
// with the {success, data} / {success: false, message} envelope; a
// transport error and a failure envelope are surfaced identically as a
// plain error, which is all the pipeline distinguishes.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var (
	_ domain.CatalogService = (*Client)(nil)
	_ domain.ProductService = (*Client)(nil)
)

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

func decodeEnvelope(resp *http.Response, out interface{}) error {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("backend returned unreadable response (status %d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("backend error (status %d)", resp.StatusCode)
		}
		return fmt.Errorf("%s", msg)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode backend data: %w", err)
		}
	}
	return nil
}

// --- CatalogService ---

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) ListColors(ctx context.Context) ([]domain.AttributeValue, error) {
	var colors []domain.AttributeValue
	if err := c.do(ctx, http.MethodGet, "/colors", nil, &colors); err != nil {
		return nil, err
	}
	return colors, nil
}

func (c *Client) ListSizes(ctx context.Context) ([]domain.AttributeValue, error) {
	var sizes []domain.AttributeValue
	if err := c.do(ctx, http.MethodGet, "/sizes", nil, &sizes); err != nil {
		return nil, err
	}
	return sizes, nil
}

// --- ProductService ---

func (c *Client) Create(ctx context.Context, base domain.ProductBase) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/products", base, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) Update(ctx context.Context, id string, base domain.ProductBase) error {
	return c.do(ctx, http.MethodPut, "/products/"+id, base, nil)
}

// UploadImages pushes the pending files as one concurrent batch and waits
// for the whole group; result URLs keep the input order. One failed file
// fails the batch.
func (c *Client) UploadImages(ctx context.Context, files []domain.PendingImage) ([]string, error) {
	urls := make([]string, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			url, err := c.uploadImage(gctx, f)
			if err != nil {
				return err
			}
			mu.Lock()
			urls[i] = url
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (c *Client) uploadImage(ctx context.Context, file domain.PendingImage) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", file.Filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products/images", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	defer resp.Body.Close()

	var uploaded struct {
		URL string `json:"url"`
	}
	if err := decodeEnvelope(resp, &uploaded); err != nil {
		return "", err
	}
	return uploaded.URL, nil
}

func (c *Client) AssociateImages(ctx context.Context, id string, urls []string) error {
	payload := struct {
		URLs []string `json:"urls"`
	}{URLs: urls}
	return c.do(ctx, http.MethodPost, "/products/"+id+"/images", payload, nil)
}

func (c *Client) AssociateVariants(ctx context.Context, id string, variants []domain.VariantRecord) error {
	payload := struct {
		Variants []domain.VariantRecord `json:"variants"`
	}{Variants: variants}
	return c.do(ctx, http.MethodPost, "/products/"+id+"/variants", payload, nil)
}

func (c *Client) Get(ctx context.Context, id string) (*domain.PersistedProduct, error) {
	var product domain.PersistedProduct
	if err := c.do(ctx, http.MethodGet, "/products/"+id, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
