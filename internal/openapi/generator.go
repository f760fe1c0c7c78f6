package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/folioapp/folio/internal/model"
)

// componentModels are the payload types published under
// #/components/schemas. Schemas are derived from their JSON tags.
var componentModels = map[string]interface{}{
	"Admin":                  model.Admin{},
	"Project":                model.Project{},
	"Testimonial":            model.Testimonial{},
	"ContactMessage":         model.ContactMessage{},
	"ChatRequest":            model.ChatRequest{},
	"ChatReply":              model.ChatReply{},
	"ErrorResponse":          model.ErrorResponse{},
	"MessageResponse":        model.MessageResponse{},
	"LoginResponse":          model.LoginResponse{},
	"ProfileResponse":        model.ProfileResponse{},
	"ContactCreatedResponse": model.ContactCreatedResponse{},
	"HealthResponse":         model.HealthResponse{},
}

// Generate builds the OpenAPI 3.1 document for the portfolio API.
func Generate(version, baseURL string) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Portfolio API",
			Description: "Content, contact and admin endpoints backing the portfolio site.",
			Version:     version,
		},
	}
	if baseURL != "" {
		doc.Servers = openapi3.Servers{{URL: baseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"bearerAuth": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			},
		},
	}
	doc.Components = &components

	for name, v := range componentModels {
		ref, err := openapi3gen.NewSchemaRefForValue(v, openapi3.Schemas{})
		if err != nil {
			return nil, fmt.Errorf("generate schema %s: %w", name, err)
		}
		doc.Components.Schemas[name] = ref
	}
	doc.Components.Schemas["LoginRequest"] = objectSchema(map[string]string{
		"email": "email", "password": "password",
	}, "email", "password")
	doc.Components.Schemas["StatusUpdate"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"status"},
			Properties: openapi3.Schemas{
				"status": &openapi3.SchemaRef{Value: &openapi3.Schema{
					Type: &openapi3.Types{"string"},
					Enum: []interface{}{model.StatusPending, model.StatusRead, model.StatusReplied},
				}},
			},
		},
	}
	doc.Components.Schemas["ContactRequest"] = objectSchema(map[string]string{
		"name": "", "email": "email", "message": "",
	}, "name", "email", "message")

	doc.Paths = openapi3.NewPaths()
	addAdminPaths(doc)
	addProjectPaths(doc)
	addTestimonialPaths(doc)
	addContactPaths(doc)
	addSystemPaths(doc)

	return doc, nil
}

func addAdminPaths(doc *openapi3.T) {
	login := operation("admin", "adminLogin", "Log in as the site admin", false).
		body("LoginRequest").
		respond("200", "Login successful", ref("LoginResponse")).
		build()
	doc.Paths.Set("/api/admin/login", &openapi3.PathItem{Post: login})

	alias := *login
	alias.OperationID = "authLogin"
	alias.Summary = "Log in as the site admin (alias)"
	doc.Paths.Set("/api/auth/login", &openapi3.PathItem{Post: &alias})

	doc.Paths.Set("/api/admin/profile", &openapi3.PathItem{
		Get: operation("admin", "adminProfile", "Get the authenticated admin", true).
			respond("200", "Admin profile", ref("ProfileResponse")).
			build(),
	})
	doc.Paths.Set("/api/admin/logout", &openapi3.PathItem{
		Post: operation("admin", "adminLogout", "End the admin session", true).
			respond("200", "Logout successful", ref("MessageResponse")).
			build(),
	})
}

func addProjectPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/projects", &openapi3.PathItem{
		Get: operation("projects", "listProjects", "List projects in display order", false).
			query("featured", "boolean", "Only featured projects").
			query("category", "string", "Only projects in this category").
			respond("200", "Projects", arrayOf("Project")).
			build(),
		Post: operation("projects", "createProject", "Create a project", true).
			body("Project").
			respond("201", "Created project", ref("Project")).
			build(),
	})
	doc.Paths.Set("/api/projects/{idOrSlug}", &openapi3.PathItem{
		Get: operation("projects", "getProject", "Get a project by ID or slug", false).
			path("idOrSlug").
			respond("200", "Project", ref("Project")).
			build(),
	})
	doc.Paths.Set("/api/projects/{id}", &openapi3.PathItem{
		Put: operation("projects", "updateProject", "Update a project; absent fields are kept", true).
			path("id").
			body("Project").
			respond("200", "Updated project", ref("Project")).
			build(),
		Delete: operation("projects", "deleteProject", "Delete a project", true).
			path("id").
			respond("200", "Project deleted", ref("MessageResponse")).
			build(),
	})
}

func addTestimonialPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/testimonials", &openapi3.PathItem{
		Get: operation("testimonials", "listTestimonials", "List testimonials, featured first", false).
			respond("200", "Testimonials", arrayOf("Testimonial")).
			build(),
		Post: operation("testimonials", "createTestimonial", "Create a testimonial", true).
			body("Testimonial").
			respond("201", "Created testimonial", ref("Testimonial")).
			build(),
	})
	doc.Paths.Set("/api/testimonials/{id}", &openapi3.PathItem{
		Put: operation("testimonials", "updateTestimonial", "Update a testimonial", true).
			path("id").
			body("Testimonial").
			respond("200", "Updated testimonial", ref("Testimonial")).
			build(),
		Delete: operation("testimonials", "deleteTestimonial", "Delete a testimonial", true).
			path("id").
			respond("200", "Testimonial removed", ref("MessageResponse")).
			build(),
	})
}

func addContactPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/contact", &openapi3.PathItem{
		Post: operation("contact", "sendContactMessage", "Send a message to the site owner", false).
			body("ContactRequest").
			respond("201", "Message sent", ref("ContactCreatedResponse")).
			build(),
		Get: operation("contact", "listContactMessages", "List contact messages, newest first", true).
			query("status", "string", "Only messages with this status").
			respond("200", "Messages", arrayOf("ContactMessage")).
			build(),
	})
	doc.Paths.Set("/api/contact/messages", &openapi3.PathItem{
		Get: operation("contact", "listContactMessagesAlias", "List contact messages (alias)", true).
			respond("200", "Messages", arrayOf("ContactMessage")).
			build(),
	})
	doc.Paths.Set("/api/contact/{id}", &openapi3.PathItem{
		Patch: operation("contact", "updateContactStatus", "Set a message's triage status", true).
			path("id").
			body("StatusUpdate").
			respond("200", "Updated message", ref("ContactMessage")).
			build(),
		Delete: operation("contact", "deleteContactMessage", "Delete a message", true).
			path("id").
			respond("200", "Message deleted", ref("MessageResponse")).
			build(),
	})
}

func addSystemPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/chatbot", &openapi3.PathItem{
		Post: operation("chatbot", "chat", "Ask the site assistant", false).
			body("ChatRequest").
			respond("200", "Reply", ref("ChatReply")).
			build(),
	})
	doc.Paths.Set("/api/health", &openapi3.PathItem{
		Get: operation("system", "health", "Process and database liveness", false).
			respond("200", "Healthy", ref("HealthResponse")).
			build(),
	})
}

// ─── Operation builder ──────────────────────────────────────────────────────

type opBuilder struct {
	op *openapi3.Operation
}

func operation(tag, id, summary string, secured bool) *opBuilder {
	op := &openapi3.Operation{
		Tags:        []string{tag},
		OperationID: id,
		Summary:     summary,
		Responses:   newResponses(secured),
	}
	if secured {
		op.Security = &openapi3.SecurityRequirements{{"bearerAuth": {}}}
	}
	return &opBuilder{op: op}
}

func (b *opBuilder) body(schema string) *opBuilder {
	b.op.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithJSONSchemaRef(ref(schema)),
	}
	return b
}

func (b *opBuilder) path(name string) *opBuilder {
	b.op.Parameters = append(b.op.Parameters, &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()),
	})
	return b
}

func (b *opBuilder) query(name, typ, description string) *opBuilder {
	schema := openapi3.NewStringSchema()
	if typ == "boolean" {
		schema = openapi3.NewBoolSchema()
	}
	b.op.Parameters = append(b.op.Parameters, &openapi3.ParameterRef{
		Value: openapi3.NewQueryParameter(name).WithDescription(description).WithSchema(schema),
	})
	return b
}

func (b *opBuilder) respond(status, description string, schema *openapi3.SchemaRef) *opBuilder {
	desc := description
	b.op.Responses.Set(status, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})
	return b
}

func (b *opBuilder) build() *openapi3.Operation {
	return b.op
}

// newResponses returns the error responses every operation shares. 401 is
// only listed for secured operations.
func newResponses(secured bool) *openapi3.Responses {
	responses := openapi3.NewResponses()

	errorRef := ref("ErrorResponse")
	errors := []struct{ code, desc string }{
		{"400", "Bad request"},
		{"404", "Not found"},
		{"500", "Internal server error"},
	}
	if secured {
		errors = append(errors, struct{ code, desc string }{"401", "Not authorized"})
	}
	for _, e := range errors {
		desc := e.desc
		responses.Set(e.code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}

// ─── Schema helpers ─────────────────────────────────────────────────────────

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func arrayOf(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: ref(name),
		},
	}
}

// objectSchema builds an object of string properties; the map value is the
// string format, if any.
func objectSchema(props map[string]string, required ...string) *openapi3.SchemaRef {
	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: openapi3.Schemas{},
		Required:   required,
	}
	for name, format := range props {
		schema.Properties[name] = &openapi3.SchemaRef{
			Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: format},
		}
	}
	return &openapi3.SchemaRef{Value: schema}
}
