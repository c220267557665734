package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"zone-api/internal/apperr"
	"zone-api/internal/logger"
)

type errorBody struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Status string `json:"status,omitempty"`
	Data   any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor：校验 400，未找到 404，上游 502，其余 500
func statusFor(err error) (int, errorBody) {
	b := errorBody{Error: err.Error()}
	var ve *apperr.ValidationError
	var ie *apperr.InvalidInputError
	var nf *apperr.NotFoundError
	switch {
	case errors.As(err, &ve):
		b.Field = ve.Field
		return http.StatusBadRequest, b
	case errors.As(err, &ie):
		b.Field = ie.Field
		return http.StatusBadRequest, b
	case errors.As(err, &nf):
		b.Status = nf.Status
		return http.StatusNotFound, b
	}
	if se, ok := apperr.AsService(err); ok {
		b.Status = se.Status
		return http.StatusBadGateway, b
	}
	return http.StatusInternalServerError, b
}

// writeError：data 非空时随错误一起返回（例如已保存但未定位的记录）
func writeError(w http.ResponseWriter, r *http.Request, err error, data any) {
	code, b := statusFor(err)
	b.Data = data
	if code >= 500 {
		logger.L().Error("api_error", "path", r.URL.Path, "status", code, "err", err)
	} else {
		logger.L().Debug("api_reject", "path", r.URL.Path, "status", code, "err", err)
	}
	writeJSON(w, code, b)
}

// maxBodyBytes：请求体上限
const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("body", "invalid JSON body")
	}
	return nil
}
