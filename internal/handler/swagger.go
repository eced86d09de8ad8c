package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
	"github.com/vastra/storefront/docs"
)

// ProductionServerURL is listed after the server the document was fetched from
const ProductionServerURL = "https://api.vastra.shop/api/v1"

// OpenAPI3Document is the swag output rewritten as OpenAPI 3.0
type OpenAPI3Document struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []APIServer            `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// APIServer is an entry of the OpenAPI 3.0 servers list
type APIServer struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

var schemaFields = []string{"type", "format", "enum", "default", "minimum", "maximum", "items"}

// convertSwagger2 turns a Swagger 2.0 document into OpenAPI 3.0. Body and
// formData parameters become request bodies; refs move to components/schemas.
func convertSwagger2(raw []byte, servers []APIServer) (*OpenAPI3Document, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse swagger doc: %w", err)
	}

	out := &OpenAPI3Document{
		OpenAPI:    "3.0.3",
		Servers:    servers,
		Paths:      map[string]interface{}{},
		Components: map[string]interface{}{},
	}
	out.Info, _ = doc["info"].(map[string]interface{})

	paths, _ := doc["paths"].(map[string]interface{})
	for path, item := range paths {
		methods, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		converted := make(map[string]interface{}, len(methods))
		for method, op := range methods {
			if opMap, ok := op.(map[string]interface{}); ok {
				converted[method] = convertOperation(opMap)
			}
		}
		out.Paths[path] = converted
	}

	if secDefs, ok := doc["securityDefinitions"]; ok {
		out.Components["securitySchemes"] = secDefs
	}
	if defs, ok := doc["definitions"]; ok {
		out.Components["schemas"] = rewriteRefs(defs)
	}
	return out, nil
}

func convertOperation(op map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(op))
	for k, v := range op {
		if k != "parameters" && k != "consumes" && k != "produces" {
			result[k] = rewriteRefs(v)
		}
	}

	params, _ := op["parameters"].([]interface{})
	var kept []interface{}
	form := map[string]interface{}{}
	var required []string

	for _, p := range params {
		param, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		switch param["in"] {
		case "body":
			result["requestBody"] = map[string]interface{}{
				"required": param["required"] == true,
				"content": map[string]interface{}{
					echo.MIMEApplicationJSON: map[string]interface{}{"schema": rewriteRefs(param["schema"])},
				},
			}
		case "formData":
			name, _ := param["name"].(string)
			if param["type"] == "file" {
				form[name] = map[string]interface{}{"type": "string", "format": "binary"}
			} else {
				form[name] = paramSchema(param)
			}
			if param["required"] == true {
				required = append(required, name)
			}
		default:
			kept = append(kept, convertParameter(param))
		}
	}

	if len(form) > 0 {
		schema := map[string]interface{}{"type": "object", "properties": form}
		if len(required) > 0 {
			schema["required"] = required
		}
		result["requestBody"] = map[string]interface{}{
			"content": map[string]interface{}{
				echo.MIMEMultipartForm: map[string]interface{}{"schema": schema},
			},
		}
	}
	if len(kept) > 0 {
		result["parameters"] = kept
	}

	if responses, ok := op["responses"].(map[string]interface{}); ok {
		result["responses"] = convertResponses(responses)
	}
	return result
}

// convertParameter moves the inline type fields of a path or query parameter into a schema
func convertParameter(param map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if v, ok := param[field]; ok {
			result[field] = v
		}
	}
	if schema := paramSchema(param); len(schema) > 0 {
		result["schema"] = schema
	}
	return result
}

func paramSchema(param map[string]interface{}) map[string]interface{} {
	schema := make(map[string]interface{})
	for _, field := range schemaFields {
		if v, ok := param[field]; ok {
			schema[field] = rewriteRefs(v)
		}
	}
	return schema
}

func convertResponses(responses map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(responses))
	for code, r := range responses {
		resp, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		converted := map[string]interface{}{"description": resp["description"]}
		if schema, ok := resp["schema"]; ok {
			converted["content"] = map[string]interface{}{
				echo.MIMEApplicationJSON: map[string]interface{}{"schema": rewriteRefs(schema)},
			}
		}
		result[code] = converted
	}
	return result
}

// rewriteRefs points every $ref at components/schemas
func rewriteRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				result[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			result[key] = rewriteRefs(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = rewriteRefs(item)
		}
		return result
	default:
		return data
	}
}

// ServeOpenAPI3Spec serves the API description as OpenAPI 3.0, listing the
// requesting host first.
func ServeOpenAPI3Spec(c echo.Context) error {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read swagger doc")
		return NewInternalError(c, "API description unavailable")
	}

	local := APIServer{
		URL:         c.Scheme() + "://" + c.Request().Host + docs.SwaggerInfo.BasePath,
		Description: "This server",
	}
	servers := []APIServer{local}
	if local.URL != ProductionServerURL {
		servers = append(servers, APIServer{URL: ProductionServerURL, Description: "Production"})
	}

	spec, err := convertSwagger2([]byte(raw), servers)
	if err != nil {
		log.Error().Err(err).Msg("Failed to convert swagger doc")
		return NewInternalError(c, "API description unavailable")
	}
	return c.JSON(http.StatusOK, spec)
}
