// Package docs holds the Swagger 2.0 document served at /swagger/*.
// It mirrors the @Router annotations on the handlers in internal/http/handler;
// `swag init -g cmd/api/main.go` regenerates it from them.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/upload_pdf": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "summary": "Upload a book and make it the session's active document",
                "parameters": [
                    {"type": "file", "description": "PDF or plain-text book", "name": "pdf", "in": "formData", "required": true},
                    {"type": "string", "description": "1 to answer with a 303 redirect to /", "name": "redirect", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Document"}},
                    "303": {"description": "See Other"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/ask": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["audio/mpeg", "audio/wav"],
                "summary": "Ask a recorded or typed question about the active document",
                "parameters": [
                    {"type": "file", "description": "Recorded question", "name": "audio_data", "in": "formData"},
                    {"type": "string", "description": "Typed question; takes precedence over audio_data", "name": "question", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "Synthesized answer", "headers": {
                        "X-Audio-File": {"type": "string"},
                        "X-Transcript-File": {"type": "string"}
                    }},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "409": {"description": "No document uploaded", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "502": {"description": "Upstream stage failed", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "504": {"description": "Upstream stage timed out", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/upload_text": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["audio/mpeg", "audio/wav"],
                "summary": "Synthesize text directly",
                "parameters": [
                    {"type": "string", "name": "text", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Synthesized audio"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/answers": {
            "get": {
                "produces": ["application/json"],
                "summary": "List the session's answered questions",
                "parameters": [
                    {"type": "integer", "default": 10, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.InteractionListResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/{folder}/{filename}": {
            "get": {
                "summary": "Download a persisted upload or synthesized answer",
                "parameters": [
                    {"enum": ["uploads", "tts"], "type": "string", "name": "folder", "in": "path", "required": true},
                    {"type": "string", "name": "filename", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "File content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.errorEnvelope"},
                "request_id": {"type": "string"}
            }
        },
        "model.DocumentHandle": {
            "type": "object",
            "properties": {
                "mime_type": {"type": "string"},
                "name": {"type": "string"},
                "uri": {"type": "string"}
            }
        },
        "model.Document": {
            "type": "object",
            "properties": {
                "content_type": {"type": "string"},
                "created_at": {"type": "string"},
                "handle": {"$ref": "#/definitions/model.DocumentHandle"},
                "key": {"type": "string"},
                "original_filename": {"type": "string"},
                "size": {"type": "integer"}
            }
        },
        "model.Interaction": {
            "type": "object",
            "properties": {
                "answer": {"type": "string"},
                "audio_key": {"type": "string"},
                "created_at": {"type": "string"},
                "document_key": {"type": "string"},
                "grounding": {"type": "string"},
                "id": {"type": "string"},
                "question": {"type": "string"},
                "session_id": {"type": "string"}
            }
        },
        "service.InteractionListResult": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.Interaction"}},
                "total": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Booktalk API",
	Description:      "Ask spoken questions about an uploaded book and get spoken answers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
