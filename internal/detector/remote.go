package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const defaultEmbeddingURL = "http://localhost:8000"

// Remote detects faces with the embedding server's /embed/face endpoint.
type Remote struct {
	baseURL  string
	minScore float64
	client   *http.Client
}

// NewRemote creates a detector that drops faces scoring below minScore.
func NewRemote(baseURL string, minScore float64) *Remote {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &Remote{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		minScore: minScore,
		client:   &http.Client{},
	}
}

// faceDetection represents a single detected face
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixels
	DetScore  float64   `json:"det_score"`
}

// faceResponse represents the response from the face embedding endpoint
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

func (d *Remote) Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	var jpegData bytes.Buffer
	if err := jpeg.Encode(&jpegData, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	body, err := d.postMultipartImage(ctx, "/embed/face", jpegData.Bytes())
	if err != nil {
		return nil, err
	}

	var faceResp faceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// The server sees the JPEG with its origin at 0,0.
	bounds := img.Bounds()
	offset := bounds.Min
	boxes := make([]image.Rectangle, 0, len(faceResp.Faces))
	for _, f := range faceResp.Faces {
		if len(f.BBox) != 4 || f.DetScore < d.minScore {
			continue
		}
		r := image.Rect(
			int(math.Floor(f.BBox[0])), int(math.Floor(f.BBox[1])),
			int(math.Ceil(f.BBox[2])), int(math.Ceil(f.BBox[3])),
		).Add(offset).Intersect(bounds)
		if !r.Empty() {
			boxes = append(boxes, r)
		}
	}
	return boxes, nil
}

// postMultipartImage posts imageData as the "file" field of a multipart form.
func (d *Remote) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
