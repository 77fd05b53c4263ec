// Package docs holds the OpenAPI description served at /docs.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Worker information",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WorkerInfoResponse"}}}
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}}
            }
        },
        "/cameras": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cameras"],
                "summary": "List all feeds",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cameras"],
                "summary": "Start a feed",
                "parameters": [
                    {"description": "Feed configuration", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.CameraRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.CameraResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/cameras/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["cameras"],
                "summary": "Get feed details",
                "parameters": [{"type": "string", "description": "Camera ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CameraResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["cameras"],
                "summary": "Stop a feed",
                "parameters": [{"type": "string", "description": "Camera ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/cameras/{id}/stream": {
            "get": {
                "produces": ["multipart/x-mixed-replace"],
                "tags": ["cameras"],
                "summary": "Annotated MJPEG stream of a feed",
                "parameters": [{"type": "string", "description": "Camera ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/api/lanes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "List video files",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}}
            }
        },
        "/video_feed/{file}": {
            "get": {
                "produces": ["multipart/x-mixed-replace"],
                "tags": ["videos"],
                "summary": "Stream a video file",
                "parameters": [{"type": "string", "description": "Video file name", "name": "file", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/api/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["violations"],
                "summary": "Dashboard statistics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Stats"}}}
            }
        },
        "/api/violations": {
            "get": {
                "produces": ["application/json"],
                "tags": ["violations"],
                "summary": "List violations",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Violation"}}}}
            }
        },
        "/api/clear_history": {
            "post": {
                "produces": ["application/json"],
                "tags": ["violations"],
                "summary": "Clear history",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/download/challan/{filename}": {
            "get": {
                "produces": ["application/pdf"],
                "tags": ["violations"],
                "summary": "Download a challan",
                "parameters": [{"type": "string", "description": "Challan file name", "name": "filename", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/system/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get system stats",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "camera not found"}}
        },
        "handlers.SuccessResponse": {
            "type": "object",
            "properties": {"message": {"type": "string", "example": "Camera stopped successfully"}}
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "worker_id": {"type": "string", "example": "worker-1"}
            }
        },
        "handlers.WorkerInfoResponse": {
            "type": "object",
            "properties": {
                "worker_id": {"type": "string"},
                "status": {"type": "string"},
                "version": {"type": "string"},
                "environment": {"type": "string"},
                "start_time": {"type": "string"},
                "capabilities": {"type": "array", "items": {"type": "string"}},
                "config": {"type": "object"}
            }
        },
        "models.CameraRequest": {
            "type": "object",
            "required": ["camera_id", "source"],
            "properties": {
                "camera_id": {"type": "string"},
                "source": {"type": "string"},
                "signal_offset": {"type": "string", "example": "5s"}
            }
        },
        "models.CameraResponse": {
            "type": "object",
            "properties": {
                "camera_id": {"type": "string"},
                "source": {"type": "string"},
                "is_active": {"type": "boolean"},
                "created_at": {"type": "string"},
                "last_frame_time": {"type": "string"},
                "frame_count": {"type": "integer"},
                "error_count": {"type": "integer"},
                "violations": {"type": "integer"},
                "phase": {"type": "string"}
            }
        },
        "models.RecentViolation": {
            "type": "object",
            "properties": {
                "time": {"type": "string"},
                "id": {"type": "string"},
                "speed": {"type": "number"},
                "lane": {"type": "string"}
            }
        },
        "models.Stats": {
            "type": "object",
            "properties": {
                "total_vehicles": {"type": "integer"},
                "violations": {"type": "integer"},
                "current_speed_avg": {"type": "number"},
                "recent_violations": {"type": "array", "items": {"$ref": "#/definitions/models.RecentViolation"}}
            }
        },
        "models.Violation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "plate": {"type": "string"},
                "timestamp": {"type": "string"},
                "speed": {"type": "number"},
                "limit": {"type": "number"},
                "lane": {"type": "string"},
                "violation_type": {"type": "string"},
                "snapshot_path": {"type": "string"},
                "challan_path": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Traffic Worker API",
	Description:      "Traffic enforcement worker: speed, lane, helmet and red-light violations with challan generation and live MJPEG feeds",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
