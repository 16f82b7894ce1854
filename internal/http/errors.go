package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bearer-auth/internal/domain"
)

var statusByKind = map[domain.Kind]int{
	domain.KindInvalidInput:             http.StatusBadRequest,
	domain.KindUserNotFound:             http.StatusNotFound,
	domain.KindUserAlreadyExists:        http.StatusConflict,
	domain.KindInvalidCredentials:       http.StatusUnauthorized,
	domain.KindMissingCredentials:       http.StatusUnauthorized,
	domain.KindInvalidCredentialsFormat: http.StatusUnauthorized,
	domain.KindMalformedToken:           http.StatusUnauthorized,
	domain.KindSignatureInvalid:         http.StatusUnauthorized,
	domain.KindTokenExpired:             http.StatusUnauthorized,
	domain.KindForbidden:                http.StatusForbidden,
	domain.KindTokenCreation:            http.StatusInternalServerError,
	domain.KindInternal:                 http.StatusInternalServerError,
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	if status, ok := statusByKind[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError answers with the error's status. Server errors get a generic
// message; the detail is only logged.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := StatusOf(err)
	kind := domain.KindOf(err)

	entry := h.logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"status": status,
		"kind":   kind.String(),
	})

	message := domain.MessageOf(err)
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
		message = http.StatusText(http.StatusInternalServerError)
	} else {
		entry.Warn(err.Error())
	}

	c.JSON(status, messageResponse{Status: status, Message: message})
}
