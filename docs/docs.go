// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/api/cities": {
            "get": {
                "produces": ["application/json"],
                "tags": ["flights"],
                "summary": "List every departure and destination city",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/flights": {
            "get": {
                "produces": ["application/json"],
                "tags": ["flights"],
                "summary": "Search flights",
                "parameters": [
                    {"type": "string", "description": "Departure city substring, case-insensitive", "name": "departure", "in": "query"},
                    {"type": "string", "description": "Destination city substring, case-insensitive", "name": "destination", "in": "query"},
                    {"type": "string", "description": "Departure day, YYYY-MM-DD", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Flight"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/flights/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["flights"],
                "summary": "Get a flight",
                "parameters": [
                    {"type": "integer", "description": "Flight ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Flight"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/bookings": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Book one seat on a flight",
                "parameters": [
                    {"type": "string", "description": "Replays the first response for repeated keys", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Booking request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.createBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.createBookingResponse"}},
                    "400": {"description": "No seats available or invalid input", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Flight not found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Same Idempotency-Key in progress", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "503": {"description": "Store temporarily unavailable", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/bookings/{userId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "List a user's bookings, latest flight first",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.UserBooking"}}}
                }
            }
        },
        "/api/bookings/{id}/cancel": {
            "put": {
                "produces": ["application/json"],
                "tags": ["bookings"],
                "summary": "Cancel a booking and return its seat",
                "parameters": [
                    {"type": "integer", "description": "Booking ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.messageResponse"}},
                    "404": {"description": "Booking not found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "api.messageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "api.createBookingRequest": {
            "type": "object",
            "properties": {"user_id": {"type": "string"}, "flight_id": {"type": "integer"}}
        },
        "api.createBookingResponse": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "message": {"type": "string"}}
        },
        "domain.Flight": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "departure": {"type": "string"},
                "destination": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "price": {"type": "number"},
                "total_seats": {"type": "integer"},
                "seats": {"type": "integer"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "domain.UserBooking": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "status": {"type": "string", "enum": ["confirmed", "cancelled"]},
                "departure": {"type": "string"},
                "destination": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "price": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Flight Seats API",
	Description:      "Seat inventory booking: search flights, book and cancel seats.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
