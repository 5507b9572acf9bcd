package api

import (
	_ "embed"
	"net/http"
	"strings"
)

//go:embed openapi.yaml
var openapiSpec []byte

// OpenAPISpec returns the embedded API description.
func OpenAPISpec() []byte {
	return openapiSpec
}

// SpecHandler serves the OpenAPI YAML spec.
func SpecHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(openapiSpec)
	}
}

// SwaggerHandler returns an HTTP handler that serves the Swagger UI for the
// spec published at specURL. The page uses the CDN-hosted assets.
func SwaggerHandler(specURL string) http.HandlerFunc {
	html := strings.ReplaceAll(swaggerHTML, "${SPEC_URL}", specURL)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>Deployment Portal API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
  <script>
  window.onload = function() {
    window.ui = SwaggerUIBundle({
      url: "${SPEC_URL}",
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: "BaseLayout",
      withCredentials: true
    });
  }
  </script>
</body>
</html>`
