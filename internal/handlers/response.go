package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier_back_end/internal/apperrors"
)

// Response : enveloppe uniforme de toutes les réponses de l'API
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Pagination interface{} `json:"pagination,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// respondError traduit les erreurs typées en statut HTTP. Les erreurs de
// persistance sont loggées côté serveur et masquées derrière un message
// générique.
func respondError(c *gin.Context, err error) {
	var ae *apperrors.Error
	if !errors.As(err, &ae) {
		log.Printf("❌ Erreur inattendue [%s %s]: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "Erreur serveur"})
		return
	}

	switch ae.Kind {
	case apperrors.KindValidation:
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: ae.Message})
	case apperrors.KindNotFound:
		c.JSON(http.StatusNotFound, Response{Success: false, Error: ae.Message})
	case apperrors.KindConflict:
		c.JSON(http.StatusConflict, Response{Success: false, Error: ae.Message})
	case apperrors.KindAuthorization:
		c.JSON(http.StatusForbidden, Response{Success: false, Error: ae.Message})
	default:
		log.Printf("❌ Erreur persistance [%s %s]: %v", c.Request.Method, c.Request.URL.Path, ae)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "Erreur serveur"})
	}
}
