package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"zone-api/internal/apperr"
	"zone-api/internal/geocode"
	"zone-api/internal/logger"
)

// 文档注释：边缘地理编码接口
// 约束：成功 200 {lat,lng,formatted_address}；零结果 404 {error,status:"ZERO_RESULTS"}；
// 其余（缺少密钥、输入不合法、上游非 OK）一律 500 {error}
func (h *handler) geocode(w http.ResponseWriter, r *http.Request) {
	var req geocode.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "invalid JSON body"})
		return
	}
	res, err := h.Geocoder.Geocode(r.Context(), req)
	if err == nil {
		writeJSON(w, http.StatusOK, res)
		return
	}
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "No results found for the given address", Status: "ZERO_RESULTS"})
		return
	}
	logger.L().Error("geocode_edge_error", "err", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
}
