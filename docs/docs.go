// Package docs registers the generated Swagger specification.
// Regenerate with: swag init -g cmd/contact-pipeline/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service is up"}
                }
            }
        },
        "/pipeline/run": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Run the pipeline",
                "description": "Extract records from the source endpoint, map them to contacts, and load them into the store. Per-record load failures are not retried within the run; resubmit the request to retry them.",
                "parameters": [
                    {
                        "description": "Source endpoint and optional timeout override",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.RunRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "All records loaded", "schema": {"$ref": "#/definitions/model.RunOutcome"}},
                    "207": {"description": "Partial failure", "schema": {"$ref": "#/definitions/model.RunOutcome"}},
                    "400": {"description": "Malformed request"},
                    "502": {"description": "Extraction aborted", "schema": {"$ref": "#/definitions/model.RunOutcome"}}
                }
            }
        },
        "/pipeline/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "List runs",
                "responses": {
                    "200": {"description": "Run history"}
                }
            }
        },
        "/pipeline/runs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Get run",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Run details"},
                    "404": {"description": "Run not found"}
                }
            }
        },
        "/pipeline/runs/{id}/errors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Get run errors",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Error log entries"}
                }
            }
        }
    },
    "definitions": {
        "model.RunRequest": {
            "type": "object",
            "properties": {
                "sourceEndpoint": {"type": "string"},
                "timeoutMs": {"type": "integer"}
            }
        },
        "model.RunOutcome": {
            "type": "object",
            "properties": {
                "requestId": {"type": "string"},
                "state": {"type": "string"},
                "extractedCount": {"type": "integer"},
                "transformedCount": {"type": "integer"},
                "loadedCount": {"type": "integer"},
                "failedCount": {"type": "integer"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/model.ErrorRecord"}},
                "startedAt": {"type": "string"},
                "finishedAt": {"type": "string"}
            }
        },
        "model.ErrorRecord": {
            "type": "object",
            "properties": {
                "stage": {"type": "string"},
                "message": {"type": "string"},
                "relatedRecord": {"type": "object"},
                "timestamp": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Contact Pipeline API",
	Description:      "Composite ETL and REST integration pipeline service",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
