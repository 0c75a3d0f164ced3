package http

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>GIS Portal API - Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>html{box-sizing:border-box}*,*::before,*::after{box-sizing:inherit}body{margin:0;background:#fafafa}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/docs/openapi.yaml',
      dom_id: '#swagger-ui',
      deepLinking: true,
      withCredentials: true,
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout',
    });
  </script>
</body>
</html>`

// OpenAPIPath is where the API description is read from, relative to the
// working directory.
var OpenAPIPath = "api/openapi.yaml"

// apiDocument is the OpenAPI description in both wire forms.
type apiDocument struct {
	yaml []byte
	json []byte
}

// loadAPIDocument parses and validates the description so a broken file is
// reported at startup instead of by the browser.
func loadAPIDocument(path string) (*apiDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	js, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	return &apiDocument{yaml: data, json: js}, nil
}

// SetupDocs registers Swagger UI at /docs and the OpenAPI description at
// /docs/openapi.yaml and /docs/openapi.json. The description is loaded once;
// when it is missing or invalid only the UI page is served.
func SetupDocs(app *fiber.App) {
	doc, err := loadAPIDocument(OpenAPIPath)
	if err != nil {
		slog.Warn("API description unavailable", "path", OpenAPIPath, "error", err)
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/html; charset=utf-8")
		return c.SendString(swaggerUIHTML)
	})

	serve := func(body func(*apiDocument) []byte, contentType string) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if doc == nil {
				return newError(c, fiber.StatusNotFound, "not_found", "API description not available")
			}
			c.Set(fiber.HeaderContentType, contentType)
			return c.Send(body(doc))
		}
	}
	app.Get("/docs/openapi.yaml", serve(func(d *apiDocument) []byte { return d.yaml }, "application/yaml"))
	app.Get("/docs/openapi.json", serve(func(d *apiDocument) []byte { return d.json }, fiber.MIMEApplicationJSON))
}
