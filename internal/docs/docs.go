// Package docs registra la descripción OpenAPI que sirve /swagger.
// Mantener alineado con las anotaciones godoc de los handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/pets": {
            "get": {"tags": ["pets"], "summary": "Listar mascotas", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["pets"], "summary": "Registrar mascota", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "validación"}}}
        },
        "/pets/{petID}": {
            "get": {"tags": ["pets"], "summary": "Obtener mascota", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "no existe"}}},
            "patch": {"tags": ["pets"], "summary": "Actualizar mascota", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["pets"], "summary": "Borrar mascota", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/tasks": {
            "get": {
                "tags": ["tasks"], "summary": "Listar tareas",
                "parameters": [
                    {"type": "string", "name": "category", "in": "query"},
                    {"type": "string", "name": "pet_id", "in": "query"},
                    {"type": "boolean", "name": "show_completed", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query", "enum": ["due_date", "priority", "category", "created_at"]}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {"tags": ["tasks"], "summary": "Crear tarea de cuidado", "responses": {"201": {"description": "Created"}, "400": {"description": "validación o regla inválida"}}}
        },
        "/tasks/today": {"get": {"tags": ["tasks"], "summary": "Tareas que vencen hoy", "responses": {"200": {"description": "OK"}}}},
        "/tasks/overdue": {"get": {"tags": ["tasks"], "summary": "Tareas vencidas", "responses": {"200": {"description": "OK"}}}},
        "/tasks/upcoming": {"get": {"tags": ["tasks"], "summary": "Próximas tareas", "parameters": [{"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/tasks/{taskID}/complete": {"post": {"tags": ["tasks"], "summary": "Completar tarea", "parameters": [{"type": "string", "name": "taskID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "no existe"}}}},
        "/reminders": {
            "get": {"tags": ["reminders"], "summary": "Listar recordatorios", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["reminders"], "summary": "Crear recordatorio", "responses": {"201": {"description": "Created"}, "400": {"description": "validación o intervalo inválido"}}}
        },
        "/reminders/reschedule": {"post": {"tags": ["reminders"], "summary": "Adelantar y reprogramar todos", "responses": {"200": {"description": "OK"}}}},
        "/vaccines": {
            "get": {"tags": ["vaccines"], "summary": "Listar vacunas", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["vaccines"], "summary": "Registrar vacuna", "responses": {"201": {"description": "Created"}}}
        },
        "/vaccines/due": {"get": {"tags": ["vaccines"], "summary": "Vacunas vencidas o por vencer", "responses": {"200": {"description": "OK"}}}},
        "/medications": {
            "get": {"tags": ["medications"], "summary": "Listar medicaciones", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["medications"], "summary": "Registrar medicación", "responses": {"201": {"description": "Created"}}}
        },
        "/medications/{medicationID}/doses": {"post": {"tags": ["medications"], "summary": "Registrar dosis", "parameters": [{"type": "string", "name": "medicationID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/stats/dashboard": {"get": {"tags": ["stats"], "summary": "Dashboard", "parameters": [{"type": "boolean", "name": "fresh", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/stats/weekly": {"get": {"tags": ["stats"], "summary": "Totales de la semana", "parameters": [{"type": "string", "name": "date", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/stats/monthly": {"get": {"tags": ["stats"], "summary": "Totales del mes", "parameters": [{"type": "string", "name": "date", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/stats/streak": {"get": {"tags": ["stats"], "summary": "Racha actual", "responses": {"200": {"description": "OK"}}}},
        "/sync/pull": {"post": {"tags": ["sync"], "summary": "Traer la foto remota y mergear por id", "responses": {"200": {"description": "OK"}, "502": {"description": "colaborador de nube no disponible"}}}},
        "/sync/push": {"post": {"tags": ["sync"], "summary": "Subir la foto local", "responses": {"200": {"description": "OK"}, "502": {"description": "colaborador de nube no disponible"}}}}
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pet Care Tracker API",
	Description:      "Mascotas, tareas de cuidado, recordatorios, vacunas, medicaciones y estadísticas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
