package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/facelock/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type errorBody struct {
	Error string `json:"error"`
}

var httpCodes = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.FailedPrecondition: http.StatusPreconditionFailed,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
	codes.Canceled:           http.StatusRequestTimeout,
}

// writeStatus maps a backend error onto an HTTP response. Request decoding
// errors wrap common.ErrorValidation and map to 400.
func writeStatus(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrorValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st := status.Convert(err)
	code, ok := httpCodes[st.Code()]
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeError(w, code, st.Message())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
