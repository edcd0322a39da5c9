// Package httpapi exposes the auth and user services over HTTP/JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Response is the envelope of every JSON reply. Code is 0 on success and the
// HTTP status otherwise.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Response{Code: 0, Message: message, Data: data})
}

// decode reads a JSON body into dst. Malformed input becomes InvalidInput.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return common.InvalidInput("request body too large")
		case errors.Is(err, io.EOF):
			return common.InvalidInput("request body is empty")
		default:
			return common.InvalidInput("malformed request body")
		}
	}
	return nil
}
