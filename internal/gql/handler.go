package gql

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Request is a GraphQL-over-HTTP request.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

type errorMessage struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Errors []errorMessage `json:"errors"`
}

// Handler executes GraphQL requests against a schema.
type Handler struct {
	schema graphql.Schema
	opts   Options
	logger *zap.Logger
}

// NewHandler returns the /graphql endpoint.
func NewHandler(schema graphql.Schema, opts Options, logger *zap.Logger) *Handler {
	return &Handler{schema: schema, opts: opts, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var (
		req Request
		err error
	)
	switch r.Method {
	case http.MethodGet:
		if h.opts.Playground && r.URL.Query().Get("query") == "" && acceptsHTML(r) {
			servePlayground(w, r.URL.Path)
			return
		}
		req, err = requestFromQuery(r)
	case http.MethodPost:
		req, err = requestFromBody(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeErrors(w, r, http.StatusMethodNotAllowed, "GraphQL only supports GET and POST requests.")
		return
	}
	if err != nil {
		writeErrors(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeErrors(w, r, http.StatusBadRequest, "Must provide query string.")
		return
	}
	if !h.opts.Introspection {
		if err := checkIntrospection(req.Query); err != nil {
			writeErrors(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})
	if result.HasErrors() {
		h.logger.Debug("graphql request returned errors",
			zap.String("operation", req.OperationName),
			zap.Int("errors", len(result.Errors)),
		)
	}
	render.JSON(w, r, result)
}

func requestFromQuery(r *http.Request) (Request, error) {
	values := r.URL.Query()
	req := Request{
		Query:         values.Get("query"),
		OperationName: values.Get("operationName"),
	}
	if raw := values.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			return req, errBadVariables
		}
	}
	return req, nil
}

func requestFromBody(w http.ResponseWriter, r *http.Request) (Request, error) {
	var req Request
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/graphql" {
		raw, err := io.ReadAll(body)
		if err != nil {
			return req, errBadBody
		}
		req.Query = string(raw)
		return req, nil
	}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return req, errBadBody
	}
	return req, nil
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeErrors(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Errors: []errorMessage{{Message: message}}})
}
