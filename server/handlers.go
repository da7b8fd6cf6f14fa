package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	APIPathPrefix = "/api/v1"
)

var (
	paramTypePats = map[string]string{
		"uuid": "[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}",
	}
)

// p is a quick parameter in a URI, made very small to ease readability in
// route listings.
func p(nameType string) string {
	var name string
	var pat string

	parts := strings.SplitN(nameType, ":", 2)
	name = parts[0]
	if len(parts) == 2 {
		// we have a type, if it's a name in the paramTypePats map use that
		// else treat it as a normal pattern
		pat = parts[1]

		if translatedPat, ok := paramTypePats[parts[1]]; ok {
			pat = translatedPat
		}
	}

	if pat == "" {
		return "{" + name + "}"
	}
	return "{" + name + ":" + pat + "}"
}

func (tks ToksServer) newRouter() chi.Router {
	r := chi.NewRouter()

	r.Mount(APIPathPrefix, tks.newAPIRouter())

	return r
}

func (tks ToksServer) newAPIRouter() chi.Router {
	r := chi.NewRouter()

	r.Mount("/login", tks.newLoginRouter())
	r.Mount("/users", tks.newUsersRouter())
	r.Mount("/rulesets", tks.newRuleSetsRouter())
	r.Mount("/info", tks.newInfoRouter())
	r.HandleFunc("/info/", RedirectNoTrailingSlash)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonNotFound().writeResponse(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(tks.unauthedDelay)
		jsonMethodNotAllowed(r).writeResponse(w, r)
	})

	return r
}

func (tks ToksServer) newLoginRouter() chi.Router {
	r := chi.NewRouter()

	r.Post("/", tks.endpoint(tks.doEndpoint_Login_POST))
	r.Delete("/"+p("id:uuid"), tks.endpointWithID(tks.doEndpoint_LoginID_DELETE))
	r.HandleFunc("/"+p("id:uuid")+"/", RedirectNoTrailingSlash)

	return r
}

func (tks ToksServer) newUsersRouter() chi.Router {
	r := chi.NewRouter()

	r.Post("/", tks.endpoint(tks.doEndpoint_Users_POST))

	return r
}

func (tks ToksServer) newRuleSetsRouter() chi.Router {
	r := chi.NewRouter()

	r.Get("/", tks.endpoint(tks.doEndpoint_RuleSets_GET))
	r.Post("/", tks.endpoint(tks.doEndpoint_RuleSets_POST))

	r.Route("/"+p("id:uuid"), func(r chi.Router) {
		r.Get("/", tks.endpointWithID(tks.doEndpoint_RuleSetsID_GET))
		r.Put("/", tks.endpointWithID(tks.doEndpoint_RuleSetsID_PUT))
		r.Delete("/", tks.endpointWithID(tks.doEndpoint_RuleSetsID_DELETE))
		r.Post("/tokens", tks.endpointWithID(tks.doEndpoint_RuleSetsIDTokens_POST))
	})

	return r
}

func (tks ToksServer) newInfoRouter() chi.Router {
	r := chi.NewRouter()

	r.Get("/", tks.endpoint(tks.doEndpoint_Info_GET))

	return r
}

// endpoint wraps an endpoint function in an http.HandlerFunc that recovers
// panics to an HTTP-500 and applies the unauthed delay to results that bounce
// the client.
func (tks ToksServer) endpoint(fn func(req *http.Request) EndpointResult) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)

		result := fn(req)
		if result.status == http.StatusUnauthorized || result.status == http.StatusForbidden {
			time.Sleep(tks.unauthedDelay)
		}
		result.writeResponse(w, req)
	}
}

// endpointWithID is like endpoint but for handlers on routes with an {id}
// URI parameter, parsed and validated before the endpoint function is called.
func (tks ToksServer) endpointWithID(fn func(req *http.Request, id uuid.UUID) EndpointResult) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)

		idStr := chi.URLParam(req, "id")
		id, err := uuid.Parse(idStr)
		if err != nil {
			jsonBadRequest("id: not a valid UUID", "id %q is not a valid UUID", idStr).writeResponse(w, req)
			return
		}

		result := fn(req, id)
		if result.status == http.StatusUnauthorized || result.status == http.StatusForbidden {
			time.Sleep(tks.unauthedDelay)
		}
		result.writeResponse(w, req)
	}
}

// RedirectNoTrailingSlash is an http.HandlerFunc that redirects to the same
// URL as the request but with no trailing slash.
func RedirectNoTrailingSlash(w http.ResponseWriter, req *http.Request) {
	redirPath := strings.TrimRight(req.URL.Path, "/")
	redirection(redirPath).writeResponse(w, req)
}

func panicTo500(w http.ResponseWriter, req *http.Request) (panicRecovered bool) {
	if panicErr := recover(); panicErr != nil {
		textErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		).writeResponse(w, req)
		return true
	}
	return false
}
