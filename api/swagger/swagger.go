package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Martial Arts Tracker API",
        "description": "Local API for logging martial arts practice sessions and tracking progress",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Arts", "description": "Art catalog and rolling statistics"},
        {"name": "Criteria", "description": "Per-art rating criteria"},
        {"name": "Sessions", "description": "Practice session history"},
        {"name": "Backup", "description": "Whole-store JSON backup and restore"},
        {"name": "Exports", "description": "Coach pack and signed export downloads"},
        {"name": "System", "description": "Process counters"}
    ],
    "paths": {
        "/arts": {
            "get": {
                "tags": ["Arts"],
                "summary": "List martial arts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/arts/{id}": {
            "get": {
                "tags": ["Arts"],
                "summary": "Get a martial art",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/arts/{id}/stats": {
            "get": {
                "tags": ["Arts"],
                "summary": "Rolling averages over the last five sessions",
                "description": "data is null when the art has no sessions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/arts/{id}/criteria": {
            "get": {
                "tags": ["Criteria"],
                "summary": "List criteria of an art",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "all", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Criteria"],
                "summary": "Add a criterion to an art",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CriterionNameRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/criteria/{id}": {
            "patch": {
                "tags": ["Criteria"],
                "summary": "Rename a criterion",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CriterionNameRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Criteria"],
                "summary": "Soft-delete a criterion",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/criteria/{id}/move": {
            "post": {
                "tags": ["Criteria"],
                "summary": "Move a criterion up or down",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveCriterionRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions, newest first",
                "parameters": [
                    {"name": "artId", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Record a session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/backup": {
            "get": {
                "tags": ["Backup"],
                "summary": "Download a full JSON backup",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Backup document", "schema": {"type": "file"}}
                }
            }
        },
        "/backup/restore": {
            "post": {
                "tags": ["Backup"],
                "summary": "Replace all data with a backup",
                "consumes": ["application/json", "multipart/form-data"],
                "responses": {
                    "204": {"description": "No Content"},
                    "422": {"description": "Rejected backup, store unchanged", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/coach-pack": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the coach pack",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]}
                ],
                "responses": {
                    "200": {"description": "Coach pack", "schema": {"type": "file"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Store an export and return a signed download link",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a stored export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Export file", "schema": {"type": "file"}},
                    "404": {"description": "Unknown or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Process counters as JSON",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CriterionNameRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        },
        "MoveCriterionRequest": {
            "type": "object",
            "required": ["direction"],
            "properties": {
                "direction": {"type": "string", "enum": ["up", "down"]}
            }
        },
        "RatingInput": {
            "type": "object",
            "required": ["criterionId", "value"],
            "properties": {
                "criterionId": {"type": "string"},
                "value": {"type": "integer", "minimum": 0, "maximum": 5}
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "required": ["artId", "ratings"],
            "properties": {
                "artId": {"type": "string"},
                "dateISO": {"type": "string", "format": "date-time"},
                "ratings": {"type": "array", "items": {"$ref": "#/definitions/RatingInput"}},
                "notesText": {"type": "string"}
            }
        },
        "GenerateExportRequest": {
            "type": "object",
            "required": ["kind"],
            "properties": {
                "kind": {"type": "string", "enum": ["backup", "coach_pack"]},
                "format": {"type": "string", "enum": ["json", "csv", "pdf", "xlsx"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "retryable": {"type": "boolean"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
