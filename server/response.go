package server

import (
	"encoding/json"
	"net/http"

	"melodex/apperr"
	"melodex/logger"
)

// apiResponse is the uniform JSON envelope for every endpoint.
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// statusForKind maps failure classifications to HTTP statuses. Clients switch
// on the kind field; the status is for proxies and generic tooling.
func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidationFailed, apperr.KindInvalidAudio, apperr.KindInvalidAction, apperr.KindInvalidID:
		return http.StatusBadRequest
	case apperr.KindUnauthorized, apperr.KindTokenExpired:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindDuplicateTitle, apperr.KindDuplicateEntry, apperr.KindStorageConflict,
		apperr.KindAlreadyMember, apperr.KindNotMember:
		return http.StatusConflict
	case apperr.KindExtractionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("could not write response", logger.ErrorField(err))
	}
}

// writeData writes a success envelope.
func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

// writeError writes a failure envelope from a classified error. Unclassified
// errors become InternalError with a generic message; their details go to the
// log, never to the client.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.Error("request failed", logger.ErrorField(err))
	}
	writeJSON(w, statusForKind(kind), apiResponse{
		Success: false,
		Message: apperr.MessageOf(err),
		Kind:    string(kind),
	})
}
