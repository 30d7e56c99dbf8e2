// Package docs registers the OpenAPI document served at /swagger. It follows
// the layout produced by `swag init -g cmd/server/main.go`; regenerate it
// after changing handler annotations.
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
        "/shorten": {
            "post": {
                "description": "Returns the alias for longUrl, creating it on first submission. Submitting the same URL again returns the existing alias.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["URLs"],
                "summary": "Shorten a URL",
                "operationId": "shortenURL",
                "parameters": [
                    {
                        "description": "URL to shorten",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.ShortenRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.ShortenResponse"}},
                    "400": {"description": "Missing, malformed, or too long URL", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/{shortUrl}": {
            "get": {
                "description": "Redirects to the original URL with 301 and counts the click in the background.",
                "tags": ["URLs"],
                "summary": "Follow a short URL",
                "operationId": "redirectShortURL",
                "parameters": [
                    {"type": "string", "example": "21", "description": "Short code", "name": "shortUrl", "in": "path", "required": true}
                ],
                "responses": {
                    "301": {"description": "Moved Permanently", "schema": {"type": "string"}, "headers": {"Location": {"type": "string", "description": "Original URL"}}},
                    "400": {"description": "Invalid short URL format", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Short URL not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/info/{shortUrl}": {
            "get": {
                "description": "Returns the stored record, including its click count. Does not count a click.",
                "produces": ["application/json"],
                "tags": ["URLs"],
                "summary": "Short URL analytics",
                "operationId": "getURLInfo",
                "parameters": [
                    {"type": "string", "example": "21", "description": "Short code", "name": "shortUrl", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.URLResponse"}},
                    "400": {"description": "Invalid short URL format", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Short URL not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/urls": {
            "get": {
                "description": "Returns a page of records, newest first. Supports weak ETag via If-None-Match and may return 304.",
                "produces": ["application/json"],
                "tags": ["URLs"],
                "summary": "List short URLs (paginated)",
                "operationId": "listURLs",
                "parameters": [
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 10, "description": "Items per page", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListURLsResponse"}, "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}},
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "400": {"description": "Bad pagination", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/urls/{shortUrl}": {
            "delete": {
                "description": "Removes the alias; later lookups return 404.",
                "produces": ["application/json"],
                "tags": ["URLs"],
                "summary": "Delete a short URL",
                "operationId": "deleteURL",
                "parameters": [
                    {"type": "string", "example": "21", "description": "Short code", "name": "shortUrl", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.URLResponse"}},
                    "400": {"description": "Invalid short URL format", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Short URL not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Probes storage. Returns 200 when healthy and 500 with database status \"unhealthy\" otherwise.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Service health",
                "operationId": "health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.URL": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "shortUrl": {"type": "string"},
                "longUrl": {"type": "string"},
                "clickCount": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "Short URL not found"},
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.ShortenRequest": {
            "type": "object",
            "properties": {
                "longUrl": {"type": "string", "example": "https://example.com/very/long/path"}
            }
        },
        "handlers.ShortenedURL": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 125},
                "longUrl": {"type": "string", "example": "https://example.com/very/long/path"},
                "shortUrl": {"type": "string", "example": "21"},
                "fullShortUrl": {"type": "string", "example": "https://sho.rt/api/v1/21"},
                "clickCount": {"type": "integer", "example": 0},
                "createdAt": {"type": "string"}
            }
        },
        "handlers.ShortenResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "data": {"$ref": "#/definitions/handlers.ShortenedURL"}
            }
        },
        "handlers.URLResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "data": {"$ref": "#/definitions/domain.URL"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "currentPage": {"type": "integer"},
                "totalPages": {"type": "integer"},
                "totalCount": {"type": "integer"},
                "limit": {"type": "integer"},
                "hasNextPage": {"type": "boolean"},
                "hasPrevPage": {"type": "boolean"}
            }
        },
        "handlers.ListURLsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.URL"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.ComponentStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "timestamp": {"type": "string"},
                "uptime": {"type": "number", "example": 3600.5}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "code": {"type": "string", "example": "unhealthy"},
                "error": {"type": "string"},
                "database": {"$ref": "#/definitions/handlers.ComponentStatus"},
                "server": {"$ref": "#/definitions/handlers.ComponentStatus"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "URL Shortener API",
	Description:      "Shortens long URLs, redirects aliases, and reports click analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
