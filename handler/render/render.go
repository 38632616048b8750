package render

import (
	"encoding/json"
	"net/http"

	"margin/core"

	"github.com/sirupsen/logrus"
)

type H map[string]interface{}

// JSON render with json
func JSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Errorln("render.JSON")
	}
}

// Error write error
func Error(w http.ResponseWriter, statusCode, errCode int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(H{"code": errCode, "msg": err.Error()}); err != nil {
		logrus.WithError(err).Errorln("render.Error")
	}
}

// BadRequest bad request error
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, -1, err)
}

// NotFoundRequest not found request error
func NotFoundRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusNotFound, -1, err)
}

// Reject engine errors with their code, anything else is internal
func Reject(w http.ResponseWriter, err error) {
	var code core.ErrorCode
	if !core.AsErrorCode(err, &code) {
		Error(w, http.StatusInternalServerError, int(core.ErrUnknown), err)
		return
	}

	status := http.StatusBadRequest
	switch code {
	case core.ErrActionNotFound, core.ErrMarketNotFound:
		status = http.StatusNotFound
	case core.ErrUnauthorizedCaller, core.ErrOperationForbidden:
		status = http.StatusForbidden
	}

	Error(w, status, int(code), err)
}
