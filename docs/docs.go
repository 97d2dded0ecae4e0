// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@arche-des-savoirs.fr"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/savoirs": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["savoirs"],
                "summary": "List savoirs",
                "parameters": [
                    {"type": "string", "name": "category", "in": "query"},
                    {"type": "string", "name": "era", "in": "query"},
                    {"type": "string", "name": "region", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "string", "enum": ["recent", "votes", "trending"], "name": "sort", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SavoirPage"}}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["savoirs"],
                "summary": "Create a savoir",
                "parameters": [
                    {"description": "Savoir", "name": "savoir", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SavoirInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Savoir"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/savoirs/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["savoirs"],
                "summary": "Get a savoir by id or slug",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Savoir"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "tags": ["savoirs"],
                "summary": "Update a savoir",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Savoir"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "tags": ["savoirs"],
                "summary": "Delete a savoir",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/search": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["savoirs"],
                "summary": "Full text search",
                "parameters": [{"type": "string", "name": "q", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SavoirPage"}}}
            }
        },
        "/votes": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["votes"],
                "summary": "Current user's vote",
                "parameters": [{"type": "string", "name": "savoir_id", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "tags": ["votes"],
                "summary": "Cast a vote",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.VoteResult"}}}
            }
        },
        "/comments": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["comments"],
                "summary": "Comment tree of a savoir",
                "parameters": [{"type": "string", "name": "savoir_id", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "tags": ["comments"],
                "summary": "Add a comment",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/reactions": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["reactions"], "summary": "Reaction summary", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"ApiKeyAuth": []}, {"BearerAuth": []}], "tags": ["reactions"], "summary": "React to a savoir", "responses": {"200": {"description": "OK"}}}
        },
        "/favorites": {
            "get": {"security": [{"ApiKeyAuth": []}, {"BearerAuth": []}], "tags": ["favorites"], "summary": "List favorites", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"ApiKeyAuth": []}, {"BearerAuth": []}], "tags": ["favorites"], "summary": "Toggle a favorite", "responses": {"200": {"description": "OK"}}}
        },
        "/favorites/check": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["favorites"], "summary": "Favorite state", "responses": {"200": {"description": "OK"}}}
        },
        "/follows": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["follows"], "summary": "Followers or followings", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"ApiKeyAuth": []}, {"BearerAuth": []}], "tags": ["follows"], "summary": "Toggle a follow", "responses": {"200": {"description": "OK"}}}
        },
        "/follows/check": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["follows"], "summary": "Follow state", "responses": {"200": {"description": "OK"}}}
        },
        "/profiles": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["profiles"], "summary": "Leaderboard", "responses": {"200": {"description": "OK"}}},
            "patch": {"security": [{"ApiKeyAuth": []}, {"BearerAuth": []}], "tags": ["profiles"], "summary": "Update own profile", "responses": {"200": {"description": "OK"}}}
        },
        "/profiles/{username}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["profiles"],
                "summary": "Profile with stats",
                "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}
            }
        },
        "/activities": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["activities"], "summary": "Activity feed", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/signup": {
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["auth"], "summary": "Create an account", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}
        },
        "/auth/signin": {
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["auth"], "summary": "Sign in with credentials", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}
        },
        "/auth/oauth/{provider}": {
            "get": {"tags": ["auth"], "summary": "Redirect to the OAuth provider", "parameters": [{"type": "string", "name": "provider", "in": "path", "required": true}], "responses": {"302": {"description": "Found"}}}
        },
        "/auth/callback/{provider}": {
            "get": {"tags": ["auth"], "summary": "OAuth callback", "parameters": [{"type": "string", "name": "provider", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "302": {"description": "Found"}}}
        },
        "/auth/session": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["auth"], "summary": "Current session", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/me": {
            "get": {"security": [{"ApiKeyAuth": []}, {"BearerAuth": []}], "tags": ["auth"], "summary": "Current profile", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/signout": {
            "post": {"security": [{"ApiKeyAuth": []}], "tags": ["auth"], "summary": "Sign out", "responses": {"204": {"description": "No Content"}}}
        },
        "/gamification/badges": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["gamification"], "summary": "Badge catalog", "responses": {"200": {"description": "OK"}}}
        },
        "/images": {
            "post": {"security": [{"ApiKeyAuth": []}, {"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["images"], "summary": "Upload an image", "responses": {"201": {"description": "Created"}}}
        },
        "/ws/activities": {
            "get": {"tags": ["activities"], "summary": "Live activity feed", "responses": {"101": {"description": "Switching Protocols"}}}
        },
        "/admin/feature-flags": {
            "get": {"security": [{"ApiKeyAuth": []}], "tags": ["admin"], "summary": "Feature flags", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "models.Savoir": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "slug": {"type": "string"},
                "title": {"type": "string"},
                "excerpt": {"type": "string"},
                "content": {"type": "string"},
                "category": {"type": "string"},
                "era": {"type": "string"},
                "region": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "images": {"type": "array", "items": {"type": "string"}},
                "contributor_id": {"type": "string"},
                "published": {"type": "boolean"},
                "views_count": {"type": "integer"},
                "comments_count": {"type": "integer"},
                "votes_count": {"type": "integer"},
                "approval_rate": {"type": "integer"}
            }
        },
        "models.SavoirPage": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/models.Savoir"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "limit": {"type": "integer"}
            }
        },
        "models.VoteResult": {
            "type": "object",
            "properties": {
                "savoir_id": {"type": "string"},
                "vote": {"type": "integer"},
                "votes_count": {"type": "integer"},
                "approval_rate": {"type": "integer"}
            }
        },
        "service.SavoirInput": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "excerpt": {"type": "string"},
                "content": {"type": "string"},
                "category": {"type": "string"},
                "era": {"type": "string"},
                "region": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "images": {"type": "array", "items": {"type": "string"}},
                "published": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "apikey", "in": "header"},
        "BearerAuth": {"description": "Type \"Bearer\" followed by a space and the session token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8375",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "L'Arche des Savoirs API",
	Description:      "Partage de savoirs ancestraux: savoirs, votes, commentaires, favoris, abonnements et fil d'activité.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
