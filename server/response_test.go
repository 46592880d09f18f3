package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"melodex/apperr"
)

var errDialRefused = errors.New("dial tcp 10.0.0.1:27017: connection refused")

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindValidationFailed, http.StatusBadRequest},
		{apperr.KindInvalidAudio, http.StatusBadRequest},
		{apperr.KindInvalidAction, http.StatusBadRequest},
		{apperr.KindInvalidID, http.StatusBadRequest},
		{apperr.KindUnauthorized, http.StatusUnauthorized},
		{apperr.KindTokenExpired, http.StatusUnauthorized},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindDuplicateTitle, http.StatusConflict},
		{apperr.KindDuplicateEntry, http.StatusConflict},
		{apperr.KindStorageConflict, http.StatusConflict},
		{apperr.KindAlreadyMember, http.StatusConflict},
		{apperr.KindNotMember, http.StatusConflict},
		{apperr.KindExtractionTimeout, http.StatusGatewayTimeout},
		{apperr.KindStorageFailure, http.StatusInternalServerError},
		{apperr.KindReferenceUpdateFailed, http.StatusInternalServerError},
		{apperr.KindConfigurationError, http.StatusInternalServerError},
		{apperr.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apperr.New(apperr.KindDuplicateTitle, "a song titled \"x\" already exists"))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}

	var body apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Success {
		t.Error("success should be false")
	}
	if body.Kind != "DuplicateTitle" {
		t.Errorf("kind = %q", body.Kind)
	}
	if body.Message == "" {
		t.Error("message should be set")
	}
}

// Unclassified errors must reach the client as a generic internal failure.
func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errDialRefused)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Message != "internal server error" {
		t.Errorf("message = %q, internals must not leak", body.Message)
	}
	if body.Kind != "InternalError" {
		t.Errorf("kind = %q", body.Kind)
	}
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	writeData(rec, http.StatusCreated, map[string]string{"hello": "world"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	var body apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success {
		t.Error("success should be true")
	}
}
