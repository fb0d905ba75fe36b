// Package docs holds the OpenAPI document served by swaggerkit. Regenerate with swag from the handler annotations.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.0.3",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "paths": {
        "/repos/{owner}/{repo}": {
            "get": {
                "tags": ["indexing"],
                "summary": "Generated documentation",
                "parameters": [
                    {"name": "owner", "in": "path", "required": true, "schema": {"type": "string"}},
                    {"name": "repo", "in": "path", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.Docs"}}}},
                    "400": {"description": "malformed owner/repo"},
                    "404": {"description": "no documentation"}
                }
            },
            "post": {
                "tags": ["indexing"],
                "summary": "Queue an indexing run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "owner", "in": "path", "required": true, "schema": {"type": "string"}, "example": "vercel"},
                    {"name": "repo", "in": "path", "required": true, "schema": {"type": "string"}, "example": "next.js"}
                ],
                "responses": {
                    "202": {"description": "queued", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.SubmitOutput"}}}},
                    "400": {"description": "malformed owner/repo"},
                    "401": {"description": "no session"},
                    "403": {"description": "repository quota reached"},
                    "404": {"description": "user or upstream repository missing"},
                    "409": {"description": "a run is in progress", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.ConflictData"}}}},
                    "502": {"description": "upstream could not be reached"},
                    "503": {"description": "worker queue unavailable"}
                }
            }
        },
        "/repos/{owner}/{repo}/status": {
            "get": {
                "tags": ["indexing"],
                "summary": "Stream indexing status",
                "description": "Server-sent events, one data frame per poll.",
                "parameters": [
                    {"name": "owner", "in": "path", "required": true, "schema": {"type": "string"}},
                    {"name": "repo", "in": "path", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "event frames", "content": {"text/event-stream": {"schema": {"$ref": "#/components/schemas/domain.Event"}}}},
                    "400": {"description": "malformed owner/repo"}
                }
            }
        },
        "/github/check": {
            "get": {
                "tags": ["indexing"],
                "summary": "Check a repository exists on GitHub",
                "parameters": [
                    {"name": "owner", "in": "query", "required": true, "schema": {"type": "string"}},
                    {"name": "repo", "in": "query", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "exists", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.CheckOutput"}}}},
                    "400": {"description": "malformed owner/repo"},
                    "404": {"description": "not on GitHub"},
                    "502": {"description": "upstream could not be reached"}
                }
            }
        },
        "/admin/reset-limit": {
            "post": {
                "tags": ["admin"],
                "summary": "Reset a user's repository count",
                "security": [{"BearerAuth": []}],
                "requestBody": {"required": false, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.ResetLimitInput"}}}},
                "responses": {
                    "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.ResetLimitOutput"}}}},
                    "401": {"description": "no session"},
                    "403": {"description": "not an admin"},
                    "404": {"description": "unknown user"}
                }
            }
        },
        "/meta/health": {
            "get": {"tags": ["meta"], "summary": "Liveness", "responses": {"200": {"description": "ok"}}}
        },
        "/meta/ready": {
            "get": {"tags": ["meta"], "summary": "Readiness of every backend", "responses": {"200": {"description": "ok"}, "503": {"description": "a backend is down"}}}
        },
        "/meta/version": {
            "get": {"tags": ["meta"], "summary": "Build information", "responses": {"200": {"description": "ok"}}}
        }
    },
    "components": {
        "securitySchemes": {
            "BearerAuth": {"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}
        },
        "schemas": {
            "domain.SubmitOutput": {
                "type": "object",
                "properties": {
                    "repoId": {"type": "string", "example": "5b0f7c1e-3a52-4f4e-9a0f-2f4f1f1f7d10"},
                    "statusUrl": {"type": "string", "example": "/api/repos/vercel/next.js/status"}
                }
            },
            "domain.ConflictData": {
                "type": "object",
                "properties": {
                    "repoId": {"type": "string"},
                    "statusUrl": {"type": "string", "example": "/api/repos/vercel/next.js/status"}
                }
            },
            "domain.Event": {
                "type": "object",
                "properties": {
                    "status": {"type": "string", "example": "ANALYZING"},
                    "progress": {"type": "integer", "example": 60},
                    "message": {"type": "string", "example": "Generating architecture overview"}
                }
            },
            "domain.Docs": {
                "type": "object",
                "properties": {
                    "id": {"type": "string"},
                    "owner": {"type": "string", "example": "vercel"},
                    "name": {"type": "string", "example": "next.js"},
                    "fullName": {"type": "string", "example": "vercel/next.js"},
                    "status": {"type": "string", "example": "COMPLETED"},
                    "updatedAt": {"type": "string", "format": "date-time"},
                    "indexedWith": {"type": "string", "example": "claude"},
                    "systemOverview": {"type": "object"},
                    "architecture": {"type": "object"},
                    "techStack": {"type": "object"},
                    "keyModules": {"type": "object"},
                    "entryPoints": {"type": "object"},
                    "dependencies": {"type": "object"},
                    "repoContext": {"type": "string"}
                }
            },
            "domain.CheckOutput": {
                "type": "object",
                "properties": {"exists": {"type": "boolean", "example": true}}
            },
            "domain.ResetLimitInput": {
                "type": "object",
                "properties": {"userId": {"type": "string"}}
            },
            "domain.ResetLimitOutput": {
                "type": "object",
                "properties": {
                    "ok": {"type": "boolean", "example": true},
                    "message": {"type": "string", "example": "Repo limit reset to 0"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Title:            "QuickGitHub API",
	Description:      "Indexing lifecycle: submit a repository, follow its status, read the generated documentation",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
