package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "HR Rewards API",
        "description": "Reward lifecycle engine: catalog, eligibility, application workflow and reporting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "RewardTypes", "description": "Tenant reward catalog"},
        {"name": "Rewards", "description": "Reward application and approval workflow"},
        {"name": "Reports", "description": "Aggregated reporting and exports"},
        {"name": "Streaks", "description": "Attendance streak trigger"},
        {"name": "Kudos", "description": "Peer recognition"},
        {"name": "Settings", "description": "Tenant reward settings"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and obtain an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Change the current user's password",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Password changed"}
                }
            }
        },
        "/reward-types": {
            "get": {
                "tags": ["RewardTypes"],
                "summary": "List reward types",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "trigger", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["RewardTypes"],
                "summary": "Create reward type",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/reward-types/{id}": {
            "get": {
                "tags": ["RewardTypes"],
                "summary": "Get reward type by id",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["RewardTypes"],
                "summary": "Update reward type",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["RewardTypes"],
                "summary": "Delete reward type without records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Reward type has associated records"}
                }
            }
        },
        "/reward-types/{id}/toggle": {
            "patch": {
                "tags": ["RewardTypes"],
                "summary": "Activate or deactivate a reward type",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Toggled"}
                }
            }
        },
        "/rewards/apply": {
            "post": {
                "tags": ["Rewards"],
                "summary": "Apply a reward to one employee",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Employee not eligible"}
                }
            }
        },
        "/rewards/apply-bulk": {
            "post": {
                "tags": ["Rewards"],
                "summary": "Apply a reward to many employees",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Per-employee outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rewards/{id}/approve": {
            "post": {
                "tags": ["Rewards"],
                "summary": "Approve a pending reward record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Record is not pending"}
                }
            }
        },
        "/rewards/{id}/reject": {
            "post": {
                "tags": ["Rewards"],
                "summary": "Reject a pending reward record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rewards/{id}/void": {
            "post": {
                "tags": ["Rewards"],
                "summary": "Void a pending or approved reward record",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Record included in payroll"}
                }
            }
        },
        "/reports/monthly": {
            "get": {
                "tags": ["Reports"],
                "summary": "Monthly reward report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "month", "in": "query", "required": true, "type": "integer"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/cost-analysis": {
            "get": {
                "tags": ["Reports"],
                "summary": "Reward cost analysis over a date range",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/streaks/process": {
            "post": {
                "tags": ["Streaks"],
                "summary": "Run the streak trigger for all active employees",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "202": {"description": "Batch queued"}
                }
            }
        },
        "/kudos": {
            "get": {
                "tags": ["Kudos"],
                "summary": "List kudos",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Kudos"],
                "summary": "Send kudos to a colleague",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
