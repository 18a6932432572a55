package get

import (
	"net/http"
	"time"

	"github.com/a-h/respond"
	"github.com/lotl-ai/lotlchat/models"
)

func New(port int, model, vsBase string) Handler {
	return Handler{
		port:   port,
		model:  model,
		vsBase: vsBase,
	}
}

type Handler struct {
	port   int
	model  string
	vsBase string
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.WithJSON(w, models.HealthGetResponse{
		OK:    true,
		Time:  time.Now().Unix(),
		Port:  h.port,
		Model: h.model,
		VS:    h.vsBase,
	}, http.StatusOK)
}
