package httputils

import (
	"encoding/json"
	"net/http"

	"chatgw/chatgw/utils/logging"
	"chatgw/chatgw/utils/types"

	"go.uber.org/zap"
)

// WriteJSON writes v as the JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ErrorLogger.Error("write response failed", zap.Error(err))
	}
}

// WriteError writes {"detail": detail}; detail is a string or a list of field errors.
func WriteError(w http.ResponseWriter, status int, detail interface{}) {
	WriteJSON(w, status, types.ErrorResponse{Detail: detail})
}
