package http

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// WithValidation checks every request that matches an operation of doc
// against its parameters and body. Requests outside doc pass through.
func WithValidation(doc *openapi3.T) Option {
	return func(s *Server) {
		s.doc = doc
	}
}

func (s *Server) validator() (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(s.doc)
	if err != nil {
		return nil, fmt.Errorf("openapi router: %w", err)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := s.validate(r, route, params); err != nil {
				s.logger.Warn("Request rejected by openapi validation", "path", r.URL.Path, "err", err)
				s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func (s *Server) validate(r *http.Request, route *routers.Route, params map[string]string) error {
	return openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: params,
		Route:      route,
		Options:    &openapi3filter.Options{MultiError: false},
	})
}
