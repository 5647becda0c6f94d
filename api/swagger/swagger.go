package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CBC Report Card API",
        "description": "Renders CBC student progress report cards as PDF documents.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Reports", "description": "Report card generation"},
        {"name": "Health", "description": "Liveness and readiness probes"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/reports/generate": {
            "post": {
                "tags": ["Reports"],
                "summary": "Generate report cards",
                "description": "Renders one report card (mode=single) or a merged batch (any other mode) as a PDF download.",
                "consumes": ["application/json"],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateReportRequest"}}
                ],
                "responses": {
                    "200": {
                        "description": "PDF document",
                        "schema": {"type": "file"},
                        "headers": {
                            "Content-Disposition": {"type": "string"},
                            "X-Student-Count": {"type": "integer"},
                            "X-Page-Count": {"type": "integer"}
                        }
                    },
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No students", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Payload too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Rendering failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AssessmentEntry": {
            "type": "object",
            "properties": {
                "subject_name": {"type": "string"},
                "strand_id": {"type": "string"},
                "score": {"type": "string", "example": "ME"},
                "teacher_remarks": {"type": "string"},
                "teacher_name": {"type": "string"},
                "term": {"type": "integer"},
                "academic_year": {"type": "integer"}
            }
        },
        "StudentRecord": {
            "type": "object",
            "required": ["full_name"],
            "properties": {
                "full_name": {"type": "string"},
                "readable_id": {"type": "string"},
                "date_of_birth": {"type": "string", "example": "2014-03-09"},
                "gender": {"type": "string"},
                "current_grade": {"type": "string"},
                "parent_name": {"type": "string"},
                "parent_phone": {"type": "string"},
                "assessments": {"type": "array", "items": {"$ref": "#/definitions/AssessmentEntry"}}
            }
        },
        "GenerateReportRequest": {
            "type": "object",
            "required": ["students"],
            "properties": {
                "students": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/StudentRecord"}},
                "term": {"type": "integer", "example": 1},
                "academic_year": {"type": "integer", "example": 2026},
                "mode": {"type": "string", "enum": ["single", "bulk"]},
                "grade": {"type": "string", "example": "Grade 4"}
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
