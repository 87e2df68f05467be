package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
)

// muxCurrentRoute returns the matched route template, if any
func muxCurrentRoute(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	template, err := route.GetPathTemplate()
	if err != nil {
		return ""
	}
	return template
}
