package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const distributionTolerance = 1e-3

// HTTPClient calls a model-serving process over JSON/HTTP. The label
// vocabulary is fixed at model-build time; the client fetches it once
// at construction and validates every response against it.
type HTTPClient struct {
	http    *http.Client
	baseURL string
	labels  map[string]struct{}
}

func NewHTTPClient(ctx context.Context, baseURL string, timeout time.Duration) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("classifier base URL is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &HTTPClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
	labels, err := c.fetchLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("load model vocabulary: %w", err)
	}
	c.labels = labels
	return c, nil
}

type labelsResp struct {
	Labels []string `json:"labels"`
}

func (c *HTTPClient) fetchLabels(ctx context.Context) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/labels", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("labels endpoint returned %s", resp.Status)
	}
	var body labelsResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Labels) == 0 {
		return nil, fmt.Errorf("model vocabulary is empty")
	}
	labels := make(map[string]struct{}, len(body.Labels))
	for _, l := range body.Labels {
		labels[strings.TrimSpace(l)] = struct{}{}
	}
	return labels, nil
}

type classifyReq struct {
	ImageBase64 string `json:"image_base64"`
}

type classifyResp struct {
	Label  string             `json:"label"`
	Scores map[string]float64 `json:"scores"`
}

// Classify preprocesses the photo and asks the model server for the
// probability distribution over the known species. Any transport or
// contract failure surfaces as a ClassificationError; there is no
// retry and no fallback species.
func (c *HTTPClient) Classify(ctx context.Context, image []byte) (Prediction, error) {
	prepared, err := preprocess(image)
	if err != nil {
		return Prediction{}, err
	}

	b, _ := json.Marshal(classifyReq{ImageBase64: base64.StdEncoding.EncodeToString(prepared)})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify", bytes.NewReader(b))
	if err != nil {
		return Prediction{}, NewClassificationError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Prediction{}, NewClassificationError("model unavailable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Prediction{}, NewClassificationError(
			"model unavailable",
			fmt.Errorf("unexpected status %s: %s", resp.Status, string(body)),
		)
	}

	var body classifyResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Prediction{}, NewClassificationError("malformed model response", err)
	}
	return c.validate(body)
}

func (c *HTTPClient) validate(body classifyResp) (Prediction, error) {
	label := strings.TrimSpace(body.Label)
	if _, ok := c.labels[label]; !ok {
		return Prediction{}, NewClassificationError(
			"malformed model response",
			fmt.Errorf("label %q is not in the model vocabulary", label),
		)
	}
	sum := 0.0
	for _, p := range body.Scores {
		sum += p
	}
	if math.Abs(sum-1.0) > distributionTolerance {
		return Prediction{}, NewClassificationError(
			"malformed model response",
			fmt.Errorf("distribution sums to %.4f", sum),
		)
	}
	return Prediction{
		Label:        label,
		Confidence:   body.Scores[label],
		Distribution: body.Scores,
	}, nil
}
