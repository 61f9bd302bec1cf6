// Package respond writes JSON response bodies.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const internalErrorBody = `{"message":"Internal server error"}`

// JSON encodes v and writes it with status. The body is marshalled before the
// header is sent, so a value that cannot be encoded yields a 500 instead of a
// success status with an empty body. A nil v writes only the header.
func JSON(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	buf, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).WithField("status", status).Error("encode response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(internalErrorBody + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(buf, '\n'))
}
