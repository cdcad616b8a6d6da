package server

import (
	"form_guard/internal/dataType"
	"form_guard/internal/utils"
	"net/http"
	"strconv"
	"strings"
	"time"
)

func (s *Server) handleHealthCheck(w http.ResponseWriter, reqData dataType.UserRequest) {
	var builder strings.Builder
	builder.WriteString("ok\n")
	builder.WriteString("version=")
	builder.WriteString(dataType.FormGuardVersion)
	builder.WriteString("\n")
	builder.WriteString("time=")
	builder.WriteString(time.Now().Format(time.RFC3339))
	builder.WriteString("\n")
	builder.WriteString("ts=")
	builder.WriteString(strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 3, 64))
	builder.WriteString("\n")
	builder.WriteString("node=")
	builder.WriteString(s.cfg.NodeName)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(builder.String())); err != nil {
		utils.LogError(reqData, "Error writing response: "+err.Error(), "handleHealthCheck")
	}
}
