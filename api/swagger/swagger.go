package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Letter Office API",
        "description": "Official document numbering and approval workflow service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and identity"},
        {"name": "Letters", "description": "Letter request approval workflow"},
        {"name": "Numbering", "description": "Numbering template administration"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/letters": {
            "get": {
                "tags": ["Letters"],
                "summary": "List letter requests",
                "parameters": [
                    {"name": "stage", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "orgUnit", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Letters"],
                "summary": "Submit a letter request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitLetterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/letters/{id}": {
            "get": {
                "tags": ["Letters"],
                "summary": "Get letter detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/letters/{id}/history": {
            "get": {
                "tags": ["Letters"],
                "summary": "Get the append-only audit trail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/letters/{id}/forward": {
            "post": {
                "tags": ["Letters"],
                "summary": "Forward a letter to unit approval",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ForwardLetterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Stage precondition failed"},
                    "422": {"description": "Transition not permitted"}
                }
            }
        },
        "/letters/{id}/decide": {
            "post": {
                "tags": ["Letters"],
                "summary": "Approve or reject a letter",
                "description": "Approving allocates the official document number atomically with the stage change.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideLetterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Stage precondition failed"},
                    "422": {"description": "Transition not permitted or numbering not configured"}
                }
            }
        },
        "/letters/{id}/artifact": {
            "get": {
                "tags": ["Letters"],
                "summary": "Get a signed download link for a completed letter",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Letter has no issued document number"}
                }
            }
        },
        "/numbering/templates": {
            "get": {
                "tags": ["Numbering"],
                "summary": "List numbering templates",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/numbering/templates/{category}": {
            "put": {
                "tags": ["Numbering"],
                "summary": "Create or replace a category template",
                "parameters": [
                    {"name": "category", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LetterRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "category": {"type": "string"},
                "subject": {"type": "string"},
                "ownerId": {"type": "string"},
                "orgUnitId": {"type": "string"},
                "stage": {"type": "string", "enum": ["IN_REVIEW", "UNIT_APPROVAL", "COMPLETED", "REJECTED"]},
                "assignedTo": {"type": "string"},
                "documentNumber": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "LetterHistoryEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "letterId": {"type": "string"},
                "action": {"type": "string", "enum": ["SUBMITTED", "FORWARDED", "APPROVED", "REJECTED"]},
                "actorId": {"type": "string"},
                "actorRole": {"type": "string"},
                "notes": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "SubmitLetterRequest": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "subject": {"type": "string"},
                "orgUnitId": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["category", "subject"]
        },
        "ForwardLetterRequest": {
            "type": "object",
            "properties": {
                "expectedStage": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["expectedStage"]
        },
        "DecideLetterRequest": {
            "type": "object",
            "properties": {
                "expectedStage": {"type": "string"},
                "outcome": {"type": "string", "enum": ["APPROVE", "REJECT"]},
                "notes": {"type": "string"},
                "idempotencyKey": {"type": "string"}
            },
            "required": ["expectedStage", "outcome"]
        },
        "UpsertTemplateRequest": {
            "type": "object",
            "properties": {
                "pattern": {"type": "string"},
                "resetPolicy": {"type": "string", "enum": ["NEVER", "YEARLY", "MONTHLY"]}
            },
            "required": ["pattern", "resetPolicy"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
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
