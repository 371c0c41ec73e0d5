package main

import (
	"html/template"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/simple-easy-sites/simple-sales-crm/platform/go/httpx"
)

// contractName is the document served at /openapi/{contractName}.json.
const contractName = "crm"

var swaggerUI = template.Must(template.New("docs").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}} {{.Version}} - API docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
    <style>body{margin:0} #swagger-ui{max-width:1400px;margin:0 auto}</style>
  </head>
  <body>
    <div id="swagger-ui" data-url="{{.URL}}"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: document.getElementById('swagger-ui').dataset.url,
        dom_id: '#swagger-ui',
        deepLinking: true,
        persistAuthorization: true,
        presets: [SwaggerUIBundle.presets.apis]
      });
    </script>
  </body>
</html>`))

type docsPage struct {
	Title   string
	Version string
	URL     string
}

// registerDocsRoutes serves Swagger UI at /docs and the contract as JSON. The
// JSON is rendered once; a contract that cannot be marshalled disables both.
func registerDocsRoutes(router chi.Router, spec *openapi3.T, logger *zap.Logger) {
	if spec == nil {
		return
	}
	body, err := spec.MarshalJSON()
	if err != nil {
		logger.Error("marshal openapi contract; docs disabled", zap.Error(err))
		return
	}

	page := docsPage{Title: "Simple Sales CRM", URL: "/openapi/" + contractName + ".json"}
	if spec.Info != nil {
		page.Title = spec.Info.Title
		page.Version = spec.Info.Version
	}

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := swaggerUI.Execute(w, page); err != nil {
			logger.Warn("render docs page", zap.Error(err))
		}
	})
	router.Get("/openapi/{name}.json", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "name") != contractName {
			detail := "unknown contract"
			httpx.WriteProblem(w, httpx.ProblemDetails{Title: "Not Found", Status: http.StatusNotFound, Detail: &detail})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}

// logSecuritySchemes adds bearerAuth when the contract omits it and logs the schemes in use.
func logSecuritySchemes(logger *zap.Logger, spec *openapi3.T) {
	if spec.Components.SecuritySchemes == nil {
		spec.Components.SecuritySchemes = openapi3.SecuritySchemes{}
	}
	schemes := spec.Components.SecuritySchemes
	if _, ok := schemes["bearerAuth"]; !ok {
		schemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
			Value: openapi3.NewJWTSecurityScheme(),
		}
		logger.Warn("contract has no bearerAuth scheme; using a default JWT bearer scheme")
	}

	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	logger.Info("loaded security schemes", zap.Strings("names", names))
}
