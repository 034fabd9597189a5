package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/gorilla/mux"
	"google.golang.org/protobuf/types/known/emptypb"
)

// request bodies larger than this are rejected before decoding
const maxBodyBytes = 16 << 20

// readRequest reads the body, merges the {id} path variable in as itemId
// when present, and decodes the result into v through the request schema.
func readRequest(r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	id, ok := mux.Vars(r)["id"]
	if !ok {
		return api.Decode(body, v)
	}

	fields := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return fmt.Errorf("%w: request must be a json object", common.ErrorValidation)
		}
	}
	if _, dup := fields["itemId"]; dup {
		return fmt.Errorf("%w: itemId belongs in the path", common.ErrorValidation)
	}
	fields["itemId"], _ = json.Marshal(id)

	merged, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return api.Decode(merged, v)
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	resp, err := s.backend.Ping(r.Context(), &emptypb.Empty{})
	if err != nil {
		writeStatus(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) sendItem(w http.ResponseWriter, r *http.Request) {
	var req api.SendLockedItemRequest
	if err := readRequest(r, &req); err != nil {
		writeStatus(w, err)
		return
	}

	resp, err := s.backend.SendLockedItem(r.Context(), &req)
	if err != nil {
		writeStatus(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *HTTPServer) placeholder(w http.ResponseWriter, r *http.Request) {
	var req api.ItemRequest
	if err := readRequest(r, &req); err != nil {
		writeStatus(w, err)
		return
	}

	resp, err := s.backend.GetItemPlaceholder(r.Context(), &req)
	if err != nil {
		writeStatus(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// unlock answers 200 for every business outcome, including failures; the
// outcome field tells them apart.
func (s *HTTPServer) unlock(w http.ResponseWriter, r *http.Request) {
	var req api.UnlockRequest
	if err := readRequest(r, &req); err != nil {
		writeStatus(w, err)
		return
	}

	resp, err := s.backend.Unlock(r.Context(), &req)
	if err != nil {
		writeStatus(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) cancel(w http.ResponseWriter, r *http.Request) {
	var req api.ItemRequest
	if err := readRequest(r, &req); err != nil {
		writeStatus(w, err)
		return
	}

	if _, err := s.backend.CancelUnlock(r.Context(), &req); err != nil {
		writeStatus(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) assessRisk(w http.ResponseWriter, r *http.Request) {
	doc, err := riskQuery(r)
	if err != nil {
		writeStatus(w, err)
		return
	}

	var req api.AssessRiskRequest
	if err := api.Decode(doc, &req); err != nil {
		writeStatus(w, err)
		return
	}

	resp, err := s.backend.AssessRisk(r.Context(), &req)
	if err != nil {
		writeStatus(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) enrollFace(w http.ResponseWriter, r *http.Request) {
	var req api.EnrollFaceRequest
	if err := readRequest(r, &req); err != nil {
		writeStatus(w, err)
		return
	}

	resp, err := s.backend.EnrollFace(r.Context(), &req)
	if err != nil {
		writeStatus(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) faceStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.backend.FaceStatus(r.Context(), &emptypb.Empty{})
	if err != nil {
		writeStatus(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type queryKind int

const (
	queryString queryKind = iota
	queryBool
	queryInt
	queryFloat
)

var riskParams = map[string]queryKind{
	"deviceFingerprint":  queryString,
	"knownDevice":        queryBool,
	"deviceType":         queryString,
	"geoDeltaKm":         queryFloat,
	"localHour":          queryInt,
	"loginsLastHour":     queryInt,
	"recentFailures":     queryInt,
	"daysSinceLastLogin": queryInt,
	"minLevel":           queryString,
}

// riskQuery turns the query string into the JSON document of an
// AssessRiskRequest. Unknown parameters are left in so the schema rejects
// them.
func riskQuery(r *http.Request) ([]byte, error) {
	doc := map[string]any{}
	for name, values := range r.URL.Query() {
		raw := values[len(values)-1]
		kind, known := riskParams[name]
		if !known {
			doc[name] = raw
			continue
		}

		var (
			v   any
			err error
		)
		switch kind {
		case queryString:
			v = raw
		case queryBool:
			v, err = strconv.ParseBool(raw)
		case queryInt:
			v, err = strconv.Atoi(raw)
		case queryFloat:
			v, err = strconv.ParseFloat(raw, 64)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrorValidation, name, err)
		}
		doc[name] = v
	}
	return json.Marshal(doc)
}
