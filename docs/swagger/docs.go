// Package swagger registers the OpenAPI document served at /swagger/doc.json.
// It is maintained by hand to match the handler annotations; regenerating it
// with `swag init -g cmd/api/main.go -o docs/swagger` replaces this file.
package swagger

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
        "/auth/signin": {
            "post": {
                "description": "Sign in with email and password. Returns a session token for the Authorization header.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/session.credentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "description": "Create an account. Unless the platform auto-confirms, the email must be verified before the first sign-in.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign up",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/session.credentialsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/auth/signout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "End the platform session and discard the session token.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/session": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Current identity, page, profile image, and gallery overlay.",
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Session state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/session/page": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Switch between the profile, storage, and gallery pages.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Navigate",
                "parameters": [
                    {"description": "Page", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/session.pageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the identity summary (email, id, last sign-in) and profile image of the signed-in user.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get current user",
                "parameters": [
                    {"type": "boolean", "description": "Re-read the identity from the platform", "name": "reload", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/users/me/avatar": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Replace the profile image (image types only, at most 5 MiB).",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Upload profile image",
                "parameters": [
                    {"type": "file", "description": "Image file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/buckets/{bucket}/objects": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "List up to 100 objects of a bucket with search, category filter, and sort applied.",
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "List objects",
                "parameters": [
                    {"enum": ["user-files", "avatars", "gallery"], "type": "string", "description": "Bucket", "name": "bucket", "in": "path", "required": true},
                    {"type": "string", "description": "Case-insensitive name substring", "name": "search", "in": "query"},
                    {"enum": ["all", "images", "documents", "videos"], "type": "string", "description": "Category", "name": "category", "in": "query"},
                    {"enum": ["name", "size", "createdAt"], "type": "string", "description": "Sort key", "name": "sort", "in": "query"},
                    {"type": "boolean", "description": "Bypass the cached listing", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Upload any file to the user-files bucket under a random key.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Upload a file",
                "parameters": [
                    {"enum": ["user-files"], "type": "string", "description": "Bucket", "name": "bucket", "in": "path", "required": true},
                    {"type": "file", "description": "File", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Delete an object after explicit confirmation, then return the re-fetched listing.",
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Delete a file",
                "parameters": [
                    {"type": "string", "description": "Bucket", "name": "bucket", "in": "path", "required": true},
                    {"type": "string", "description": "Object name", "name": "name", "in": "query", "required": true},
                    {"type": "boolean", "description": "Must be true", "name": "confirm", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/buckets/{bucket}/objects/download": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Stream an object as an attachment named after its last path segment.",
                "produces": ["application/octet-stream"],
                "tags": ["files"],
                "summary": "Download a file",
                "parameters": [
                    {"type": "string", "description": "Bucket", "name": "bucket", "in": "path", "required": true},
                    {"type": "string", "description": "Object name", "name": "name", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/images/process": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Run the image-process edge function (resize, compress, or thumbnail) on a stored image.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Process an image",
                "parameters": [
                    {"description": "Transform", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/files.processRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/gallery": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Displayable images of the gallery bucket, newest first.",
                "produces": ["application/json"],
                "tags": ["gallery"],
                "summary": "List gallery",
                "parameters": [
                    {"type": "boolean", "description": "Bypass the cached listing", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Upload an image to the gallery under the signed-in user's folder.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["gallery"],
                "summary": "Upload to gallery",
                "parameters": [
                    {"type": "file", "description": "Image file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Delete a gallery image after confirmation. Closes the overlay if it shows that image.",
                "produces": ["application/json"],
                "tags": ["gallery"],
                "summary": "Delete gallery image",
                "parameters": [
                    {"type": "string", "description": "Image name", "name": "name", "in": "query", "required": true},
                    {"type": "boolean", "description": "Must be true", "name": "confirm", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/gallery/overlay": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Open the full-size overlay on an image.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["gallery"],
                "summary": "Open overlay",
                "parameters": [
                    {"description": "Image", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gallery.overlayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Close the overlay.",
                "produces": ["application/json"],
                "tags": ["gallery"],
                "summary": "Close overlay",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "files.processRequest": {
            "type": "object",
            "properties": {
                "bucket": {"type": "string", "example": "user-files"},
                "fileName": {"type": "string", "example": "3f2c9e1a.png"},
                "operation": {"type": "string", "example": "resize"},
                "width": {"type": "integer", "example": 300},
                "height": {"type": "integer", "example": 300},
                "quality": {"type": "integer", "example": 80}
            }
        },
        "gallery.overlayRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            }
        },
        "response.Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"type": "string"},
                "kind": {"type": "string"}
            }
        },
        "session.credentialsRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "ada@example.com"},
                "password": {"type": "string", "example": "correct horse battery staple"}
            }
        },
        "session.pageRequest": {
            "type": "object",
            "properties": {
                "page": {"type": "string", "example": "gallery"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Session token from /auth/signin. Format: **Bearer {token}**",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Vitrine API",
	Description:      "Backend for Vitrine: sign-in, file storage, and an image gallery on a hosted auth/storage platform.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
