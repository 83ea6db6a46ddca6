package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

const defaultInferenceURL = "http://localhost:8080"

// RemoteOptions locate the model on an inference server. Empty fields fall
// back to the checkpoint manifest and then to defaults.
type RemoteOptions struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// RemoteClassifier runs the checkpoint on an inference server speaking the
// KServe v2 (Open Inference Protocol) REST API, e.g. TorchServe or Triton.
type RemoteClassifier struct {
	baseURL string
	model   string
	ckpt    *Checkpoint
	client  *http.Client
}

func NewRemoteClassifier(ckpt *Checkpoint, opts RemoteOptions) *RemoteClassifier {
	baseURL := opts.URL
	if baseURL == "" {
		baseURL = ckpt.Endpoint
	}
	if baseURL == "" {
		baseURL = defaultInferenceURL
	}
	model := opts.Model
	if model == "" {
		model = ckpt.Model
	}
	if model == "" {
		model = ckpt.Name
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &RemoteClassifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		ckpt:    ckpt,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *RemoteClassifier) Name() string {
	return "remote:" + c.model
}

func (c *RemoteClassifier) Classes() []string {
	return slices.Clone(c.ckpt.Classes)
}

type inferTensor struct {
	Name     string    `json:"name"`
	Shape    []int     `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float32 `json:"data"`
}

type inferRequest struct {
	Inputs []inferTensor `json:"inputs"`
}

type inferResponse struct {
	ModelName string        `json:"model_name"`
	Outputs   []inferTensor `json:"outputs"`
}

func (c *RemoteClassifier) Classify(ctx context.Context, img image.Image) (*Prediction, error) {
	size := c.ckpt.InputSize
	tensor := Preprocess(img, size, c.ckpt.Mean, c.ckpt.Std)

	reqBody := inferRequest{
		Inputs: []inferTensor{{
			Name:     "input",
			Shape:    []int{1, 3, size, size},
			Datatype: "FP32",
			Data:     tensor,
		}},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/v2/models/" + url.PathEscape(c.model) + "/infer"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference server error (status %d): %s", resp.StatusCode, string(body))
	}

	var result inferResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Outputs) == 0 {
		return nil, errors.New("inference server returned no outputs")
	}

	return predictionFromLogits(c.ckpt.Classes, result.Outputs[0].Data)
}
