package detector

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPadBox(t *testing.T) {
	frame := image.Rect(0, 0, 640, 480)

	tests := []struct {
		name  string
		box   image.Rectangle
		ratio float64
		want  image.Rectangle
	}{
		{"centre", image.Rect(100, 100, 200, 220), 0.2, image.Rect(80, 80, 220, 240)},
		{"clamped top left", image.Rect(5, 10, 105, 110), 0.2, image.Rect(0, 0, 125, 130)},
		{"clamped bottom right", image.Rect(600, 430, 640, 480), 0.2, image.Rect(592, 422, 640, 480)},
		{"truncated margin", image.Rect(10, 10, 17, 17), 0.2, image.Rect(9, 9, 18, 18)},
		{"zero ratio", image.Rect(10, 10, 50, 50), 0, image.Rect(10, 10, 50, 50)},
		{"outside frame", image.Rect(700, 500, 750, 550), 0.2, image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadBox(tt.box, frame, tt.ratio)
			if !got.Eq(tt.want) {
				t.Errorf("PadBox(%v) = %v, want %v", tt.box, got, tt.want)
			}
		})
	}
}

func TestFullFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 110, 70))

	boxes, err := FullFrame{}.Detect(context.Background(), img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(boxes) != 1 || boxes[0] != img.Bounds() {
		t.Errorf("expected full bounds, got %v", boxes)
	}

	boxes, _ = FullFrame{}.Detect(context.Background(), image.NewRGBA(image.Rectangle{}))
	if len(boxes) != 0 {
		t.Errorf("expected no boxes for empty image, got %v", boxes)
	}
}

func TestRemote_Detect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			return
		}
		defer file.Close()
		if header.Header.Get("Content-Type") != "image/jpeg" {
			t.Errorf("expected image/jpeg part, got %q", header.Header.Get("Content-Type"))
		}
		if _, err := jpeg.Decode(file); err != nil {
			t.Errorf("uploaded file is not a JPEG: %v", err)
		}

		json.NewEncoder(w).Encode(faceResponse{
			FacesCount: 3,
			Faces: []faceDetection{
				{FaceIndex: 0, BBox: []float64{10.4, 12.6, 50.2, 60.9}, DetScore: 0.95},
				{FaceIndex: 1, BBox: []float64{70, 10, 120, 90}, DetScore: 0.2},
				{FaceIndex: 2, BBox: []float64{90, 40, 130, 90}, DetScore: 0.8},
			},
		})
	}))
	defer server.Close()

	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for i := range img.Pix {
		img.Pix[i] = 128
	}

	d := NewRemote(server.URL+"/", 0.5)
	boxes, err := d.Detect(context.Background(), img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	want := []image.Rectangle{
		image.Rect(10, 12, 51, 61),
		image.Rect(90, 40, 100, 80), // clamped to frame
	}
	if len(boxes) != len(want) {
		t.Fatalf("expected %d boxes, got %v", len(want), boxes)
	}
	for i := range want {
		if boxes[i] != want[i] {
			t.Errorf("box %d: expected %v, got %v", i, want[i], boxes[i])
		}
	}
}

func TestRemote_OffsetBounds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(faceResponse{
			Faces: []faceDetection{{BBox: []float64{0, 0, 10, 10}, DetScore: 1}},
		})
	}))
	defer server.Close()

	img := image.NewGray(image.Rect(100, 200, 150, 250))
	img.Set(100, 200, color.White)

	boxes, err := NewRemote(server.URL, 0).Detect(context.Background(), img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(boxes) != 1 || boxes[0] != image.Rect(100, 200, 110, 210) {
		t.Errorf("expected box shifted into image coordinates, got %v", boxes)
	}
}

func TestRemote_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no model", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := NewRemote(server.URL, 0).Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8))); err == nil {
		t.Error("expected error for 503 response")
	}
}
