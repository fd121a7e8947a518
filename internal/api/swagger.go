package api

import (
	"net/http"

	"github.com/swaggo/swag"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"currencyconverter/internal/api/docs"
)

// SwaggerUIHandler returns a handler for Swagger UI backed by /openapi.json
func SwaggerUIHandler() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL("/openapi.json"))
}

// OpenAPISpecHandler serves the generated OpenAPI document
func OpenAPISpecHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	}
}
