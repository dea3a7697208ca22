package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Timetable generation and schedule management for SMA terms",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Scheduler", "description": "Automatic timetable generation per term"},
        {"name": "Schedules", "description": "Manual entries, conflicts and timetable views"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/terms/{termId}/schedules/generate": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Generate the timetable of a term",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/GenerationSettings"}}
                ],
                "responses": {
                    "200": {"description": "Generation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid settings"},
                    "404": {"description": "Term not found"},
                    "409": {"description": "Generation already running or entries exist"},
                    "412": {"description": "Curriculum, teacher assignments or time slots missing"},
                    "500": {"description": "Persist failed, nothing was changed"}
                }
            }
        },
        "/terms/{termId}/schedules": {
            "delete": {
                "tags": ["Scheduler"],
                "summary": "Delete every entry of a term",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Deleted count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Generation running"}
                }
            }
        },
        "/terms/{termId}/schedules/coverage": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Compare curriculum with persisted entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Coverage report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{termId}/curriculum/normalize": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Copy term-wide curriculum rows to every class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Class-specific rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedule entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "termId", "in": "query", "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "dayOfWeek", "in": "query", "type": "string"},
                    {"name": "weekNumber", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Entries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create a manual entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicts found and force not set"}
                }
            }
        },
        "/schedules/conflicts": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Check a candidate entry for conflicts",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "Findings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}": {
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete an entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/terms/{termId}/classes/{classId}/timetable": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Class timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Week view", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{termId}/classes/{classId}/timetable/export": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Export a class timetable",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File attachment"}
                }
            }
        },
        "/terms/{termId}/teachers/{teacherId}/timetable": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Teacher timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"},
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Week view", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerationSettings": {
            "type": "object",
            "properties": {
                "clearExisting": {"type": "boolean"},
                "generateSpecialActivities": {"type": "boolean"},
                "respectConstraints": {"type": "boolean"},
                "balanceSubjects": {"type": "boolean"},
                "optimizeWorkload": {"type": "boolean"},
                "maxPeriodsPerDay": {"type": "integer"},
                "weekNumber": {"type": "integer"},
                "days": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "ScheduleEntryRequest": {
            "type": "object",
            "required": ["termId", "classId", "teacherId", "subjectId", "timeSlotId", "dayOfWeek"],
            "properties": {
                "termId": {"type": "string"},
                "classId": {"type": "string"},
                "teacherId": {"type": "string"},
                "subjectId": {"type": "string"},
                "timeSlotId": {"type": "string"},
                "dayOfWeek": {"type": "integer"},
                "weekNumber": {"type": "integer"},
                "room": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "CreateScheduleRequest": {
            "allOf": [
                {"$ref": "#/definitions/ScheduleEntryRequest"},
                {"type": "object", "properties": {"force": {"type": "boolean"}}}
            ]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
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
