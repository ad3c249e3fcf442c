package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strconv"

	"github.com/hqnguyen/wastenet-go/internal/conf"
	"github.com/hqnguyen/wastenet-go/internal/errors"
)

// Client submits detections to the backend ingest endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a submission client with the configured bounded
// timeout. A timed out submission is abandoned, never retried.
func NewClient(settings *conf.Settings) *Client {
	return &Client{
		endpoint: settings.Realtime.Backend.URL,
		httpClient: &http.Client{
			Timeout: settings.Realtime.Backend.Timeout,
		},
	}
}

// Submit posts one detection as a multipart form. The image is optional,
// nil means no attachment. A non-201 status is an error.
func (c *Client) Submit(ctx context.Context, typeID uint, confidence float64, image []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("type_id", strconv.FormatUint(uint64(typeID), 10)); err != nil {
		return fmt.Errorf("writing type_id field: %w", err)
	}
	if err := writer.WriteField("confidence", strconv.FormatFloat(confidence, 'f', 2, 64)); err != nil {
		return fmt.Errorf("writing confidence field: %w", err)
	}

	if len(image) > 0 {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="image.jpg"`)
		header.Set("Content-Type", "image/jpeg")
		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("creating image part: %w", err)
		}
		if _, err := part.Write(image); err != nil {
			return fmt.Errorf("writing image part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return fmt.Errorf("creating submission request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.New(fmt.Errorf("submitting detection: %w", err)).
			Component("reporter").
			Category(errors.CategoryNetwork).
			NetworkContext(c.endpoint, c.httpClient.Timeout).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("submission rejected with status %d: %s", resp.StatusCode, respBody).
			Component("reporter").
			Category(errors.CategoryNetwork).
			NetworkContext(c.endpoint, c.httpClient.Timeout).
			Context("status", resp.StatusCode).
			Build()
	}

	return nil
}

// FetchTypes retrieves the backend's waste types and returns a label to
// type id map, so submissions reference the backend's ids rather than
// assuming they match the model's label order.
func (c *Client) FetchTypes(ctx context.Context) (map[string]uint, error) {
	typesURL, err := c.wasteTypesURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, typesURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating waste types request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.New(fmt.Errorf("fetching waste types: %w", err)).
			Component("reporter").
			Category(errors.CategoryNetwork).
			NetworkContext(typesURL, c.httpClient.Timeout).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("waste types request returned status %d", resp.StatusCode)
	}

	var types []struct {
		ID    uint   `json:"id"`
		Label string `json:"label"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&types); err != nil {
		return nil, fmt.Errorf("decoding waste types: %w", err)
	}

	byLabel := make(map[string]uint, len(types))
	for _, t := range types {
		byLabel[t.Label] = t.ID
	}
	return byLabel, nil
}

// wasteTypesURL derives the waste types URL from the ingest endpoint,
// which is expected to end in /records.
func (c *Client) wasteTypesURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing backend URL %q: %w", c.endpoint, err)
	}
	u.Path = path.Join(path.Dir(u.Path), "waste-types")
	return u.String(), nil
}
