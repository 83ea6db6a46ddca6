package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/emotion-recognizer/internal/database/mock"
)

func TestPredictHandler_Predict_Success(t *testing.T) {
	handler := &PredictHandler{
		config:         testConfig(),
		classifier:     &fakeClassifier{labels: []string{"happy"}},
		sessionManager: newTestSessionManager(t),
	}

	recorder := httptest.NewRecorder()
	handler.Predict(recorder, multipartRequest(t, "/api/predict", pngBytes(t), nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var result PredictResponse
	parseJSONResponse(t, recorder, &result)
	if result.Emotion != "happy" {
		t.Errorf("expected emotion 'happy', got '%s'", result.Emotion)
	}
	if result.Confidence != 0.9 || result.Scores["happy"] != 0.9 {
		t.Errorf("unexpected confidence/scores: %+v", result)
	}
	if result.Stabilized != "" || result.Session != "" {
		t.Errorf("expected no smoothing without a session, got %+v", result)
	}
}

func TestPredictHandler_Predict_WithSession(t *testing.T) {
	sm := newTestSessionManager(t)
	session, _ := sm.CreateSession(3)
	handler := &PredictHandler{
		config:         testConfig(),
		classifier:     &fakeClassifier{labels: []string{"sad", "happy", "happy", "angry"}},
		sessionManager: sm,
	}

	want := []string{"sad", "sad", "happy", "happy"}
	for i, w := range want {
		recorder := httptest.NewRecorder()
		req := multipartRequest(t, "/api/predict", pngBytes(t), map[string]string{"session": session.ID.String()})
		handler.Predict(recorder, req)

		assertStatusCode(t, recorder, http.StatusOK)
		var result PredictResponse
		parseJSONResponse(t, recorder, &result)
		if result.Stabilized != w {
			t.Errorf("call %d: expected stabilized %q, got %q", i, w, result.Stabilized)
		}
		if result.Session != session.ID.String() {
			t.Errorf("call %d: expected session echo, got %q", i, result.Session)
		}
	}
}

func TestPredictHandler_Predict_Errors(t *testing.T) {
	tests := []struct {
		name       string
		file       []byte
		fields     map[string]string
		classErr   error
		wantStatus int
		wantError  string
	}{
		{"missing file", nil, nil, nil, http.StatusBadRequest, "file is required"},
		{"not an image", []byte("definitely not a png"), nil, nil, http.StatusBadRequest, "invalid image"},
		{"unknown session", []byte{}, map[string]string{"session": "7c9e6679-7425-40de-944b-e07fc1f90ae7"}, nil, http.StatusNotFound, "session not found"},
		{"classifier failure", []byte{}, nil, errMockError, http.StatusBadGateway, "classification failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := &fakeClassifier{labels: []string{"happy"}, err: tt.classErr}
			handler := &PredictHandler{
				config:         testConfig(),
				classifier:     cls,
				sessionManager: newTestSessionManager(t),
			}

			file := tt.file
			if file != nil && len(file) == 0 {
				file = pngBytes(t)
			}

			recorder := httptest.NewRecorder()
			handler.Predict(recorder, multipartRequest(t, "/api/predict", file, tt.fields))

			assertStatusCode(t, recorder, tt.wantStatus)
			assertJSONError(t, recorder, tt.wantError)
			if tt.wantStatus == http.StatusNotFound && cls.calls != 0 {
				t.Error("classifier must not run for an unknown session")
			}
		})
	}
}

func TestPredictHandler_Predict_NotMultipart(t *testing.T) {
	handler := &PredictHandler{
		config:         testConfig(),
		classifier:     &fakeClassifier{labels: []string{"happy"}},
		sessionManager: newTestSessionManager(t),
	}

	recorder := httptest.NewRecorder()
	handler.Predict(recorder, httptest.NewRequest("POST", "/api/predict", nil))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "failed to parse multipart form")
}

func TestPredictHandler_Predict_LogsPrediction(t *testing.T) {
	store := mock.NewMockPredictionStore()
	sm := newTestSessionManager(t)
	session, _ := sm.CreateSession(3)
	handler := &PredictHandler{
		config:         testConfig(),
		classifier:     &fakeClassifier{labels: []string{"sad"}},
		sessionManager: sm,
		store:          store,
	}

	handler.Predict(httptest.NewRecorder(), multipartRequest(t, "/api/predict", pngBytes(t), nil))
	handler.Predict(httptest.NewRecorder(), multipartRequest(t, "/api/predict", pngBytes(t), map[string]string{"session": session.ID.String()}))

	records := store.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 logged predictions, got %d", len(records))
	}
	if records[0].Source != "api" || records[0].StreamID != "" || records[0].Stabilized != "" {
		t.Errorf("unexpected unsmoothed record %+v", records[0])
	}
	if records[1].StreamID != session.ID.String() || records[1].Stabilized != "sad" || records[1].Backend != "fake" {
		t.Errorf("unexpected session record %+v", records[1])
	}
}

func TestPredictHandler_Predict_LogFailureIgnored(t *testing.T) {
	store := mock.NewMockPredictionStore()
	store.SaveError = errMockError
	handler := &PredictHandler{
		config:         testConfig(),
		classifier:     &fakeClassifier{labels: []string{"sad"}},
		sessionManager: newTestSessionManager(t),
		store:          store,
	}

	recorder := httptest.NewRecorder()
	handler.Predict(recorder, multipartRequest(t, "/api/predict", pngBytes(t), nil))

	assertStatusCode(t, recorder, http.StatusOK)
}
