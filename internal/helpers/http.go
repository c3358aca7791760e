package helpers

import (
	"encoding/json"
	"net/http"

	"github.com/stackwatch/resource-notifier/internal/models"
)

type httpResponse struct {
	models.Result
	Error string `json:"error,omitempty"`
}

// RespondHTTP writes an invocation result as a JSON response with the
// given status code.
func RespondHTTP(rw http.ResponseWriter, statusCode int, result *models.Result, err error) {
	hR := httpResponse{}
	if result != nil {
		hR.Result = *result
	}
	if err != nil {
		hR.Error = err.Error()
	}

	respBody, _ := json.Marshal(hR)
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	_, _ = rw.Write(respBody)
}
