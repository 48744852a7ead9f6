package engine

import (
	"errors"
	"net/http"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/encoding/json"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/strategy/twap"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"github.com/gorilla/mux"
)

// RESTfulErrorResponse is the body sent when a request fails
type RESTfulErrorResponse struct {
	Error string `json:"error"`
}

// RESTfulJSONResponse outputs a JSON response of the response interface
func RESTfulJSONResponse(w http.ResponseWriter, status int, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(response)
}

// RESTfulError prints the REST method and error
func RESTfulError(method string, err error) {
	log.Errorf(log.RESTSys, "RESTful %s: server failed to send JSON response. Error %s",
		method, err)
}

func restRespond(w http.ResponseWriter, r *http.Request, response interface{}, err error) {
	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
		if errors.Is(err, twap.ErrOrderNotFound) {
			status = http.StatusNotFound
		}
		response = RESTfulErrorResponse{Error: err.Error()}
	}
	if err := RESTfulJSONResponse(w, status, response); err != nil {
		RESTfulError(r.Method, err)
	}
}

func (e *Engine) restListTWAPOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := e.ListTWAPOrders(r.Context())
	restRespond(w, r, orders, err)
}

func (e *Engine) restGetTWAPOrder(w http.ResponseWriter, r *http.Request) {
	o, err := e.GetTWAPOrder(r.Context(), mux.Vars(r)["id"])
	restRespond(w, r, o, err)
}

// restGetTWAPFills returns the stored fills without contacting the exchange
func (e *Engine) restGetTWAPFills(w http.ResponseWriter, r *http.Request) {
	fills, err := e.store.GetFills(r.Context(), mux.Vars(r)["id"])
	restRespond(w, r, fills, err)
}

func (e *Engine) restGetTWAPStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := e.TWAPStatistics(r.Context(), mux.Vars(r)["id"])
	restRespond(w, r, stats, err)
}

func (e *Engine) restGetPortfolio(w http.ResponseWriter, r *http.Request) {
	summary, err := e.ViewPortfolio(r.Context())
	restRespond(w, r, summary, err)
}
