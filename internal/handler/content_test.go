package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/folioapp/folio/internal/model"
)

func validProject(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":            title,
		"description":      "A longer description of " + title,
		"shortDescription": "Short " + title,
		"technologies":     []string{"Go", " React ", ""},
	}
}

func createProject(t *testing.T, env *testEnv, body map[string]interface{}) model.Project {
	t.Helper()
	rr := env.do(t, "POST", "/api/projects", toJSON(t, body))
	assertStatus(t, rr, http.StatusCreated)
	var p model.Project
	decodeJSON(t, rr, &p)
	return p
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

func TestCreateProject_Defaults(t *testing.T) {
	env := newTestEnv(t)
	p := createProject(t, env, validProject("My Site"))

	if p.ID == "" {
		t.Error("expected ID")
	}
	if p.Slug != "my-site" {
		t.Errorf("slug = %q, want %q", p.Slug, "my-site")
	}
	if p.ImageURL != model.DefaultProjectImage {
		t.Errorf("imageUrl = %q", p.ImageURL)
	}
	if p.Category != model.CategoryWeb {
		t.Errorf("category = %q", p.Category)
	}
	if len(p.Technologies) != 2 || p.Technologies[1] != "React" {
		t.Errorf("technologies = %v", p.Technologies)
	}
}

func TestCreateProject_Validation(t *testing.T) {
	env := newTestEnv(t)

	body := validProject("")
	body["category"] = "games"
	rr := env.do(t, "POST", "/api/projects", toJSON(t, body))
	assertStatus(t, rr, http.StatusBadRequest)

	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	if _, ok := resp.Errors["title"]; !ok {
		t.Errorf("expected title error, got %v", resp.Errors)
	}
	if _, ok := resp.Errors["category"]; !ok {
		t.Errorf("expected category error, got %v", resp.Errors)
	}
}

func TestCreateProject_TitleLength(t *testing.T) {
	env := newTestEnv(t)

	body := validProject(strings.Repeat("t", model.MaxTitleLength+1))
	body["shortDescription"] = "Too long a title"
	rr := env.do(t, "POST", "/api/projects", toJSON(t, body))
	assertStatus(t, rr, http.StatusBadRequest)
	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	if _, ok := resp.Errors["title"]; !ok {
		t.Errorf("expected title error, got %v", resp.Errors)
	}

	body = validProject(strings.Repeat("t", model.MaxTitleLength))
	body["shortDescription"] = "Longest allowed title"
	p := createProject(t, env, body)

	rr = env.do(t, "PUT", "/api/projects/"+p.ID, toJSON(t, map[string]interface{}{
		"title": strings.Repeat("u", model.MaxTitleLength+50),
	}))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestCreateProject_MalformedBody(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "POST", "/api/projects", bytesReader(`{"title":`))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestCreateProject_DuplicateTitleGetsDistinctSlug(t *testing.T) {
	env := newTestEnv(t)
	a := createProject(t, env, validProject("Same"))
	b := createProject(t, env, validProject("Same"))
	if a.Slug == b.Slug {
		t.Errorf("slugs collide: %q", a.Slug)
	}
}

func TestGetProject_ByIDAndSlug(t *testing.T) {
	env := newTestEnv(t)
	p := createProject(t, env, validProject("Lookup Me"))

	for _, key := range []string{p.ID, p.Slug} {
		rr := env.do(t, "GET", "/api/projects/"+key, nil)
		assertStatus(t, rr, http.StatusOK)
		var got model.Project
		decodeJSON(t, rr, &got)
		if got.ID != p.ID {
			t.Errorf("GET %s returned %q", key, got.ID)
		}
	}

	rr := env.do(t, "GET", "/api/projects/missing", nil)
	assertStatus(t, rr, http.StatusNotFound)
	assertErrorMessage(t, rr, "Project not found")
}

func TestListProjects_Filters(t *testing.T) {
	env := newTestEnv(t)
	web := validProject("Web One")
	web["featured"] = true
	createProject(t, env, web)

	mobile := validProject("Mobile One")
	mobile["category"] = model.CategoryMobile
	createProject(t, env, mobile)

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?featured=true", 1},
		{"?category=mobile", 1},
		{"?category=design", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := env.do(t, "GET", "/api/projects"+tt.query, nil)
			assertStatus(t, rr, http.StatusOK)
			var got []model.Project
			decodeJSON(t, rr, &got)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestUpdateProject_Merge(t *testing.T) {
	env := newTestEnv(t)
	p := createProject(t, env, validProject("Before"))

	rr := env.do(t, "PUT", "/api/projects/"+p.ID, toJSON(t, map[string]interface{}{
		"title":    "After",
		"featured": true,
	}))
	assertStatus(t, rr, http.StatusOK)

	var got model.Project
	decodeJSON(t, rr, &got)
	if got.Title != "After" || !got.Featured {
		t.Errorf("update = %+v", got)
	}
	if got.Description != p.Description {
		t.Errorf("description changed to %q", got.Description)
	}
	if got.Slug != "after" {
		t.Errorf("slug = %q, want %q", got.Slug, "after")
	}
}

func TestUpdateProject_BySlugIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	p := createProject(t, env, validProject("Slugged"))
	rr := env.do(t, "PUT", "/api/projects/"+p.Slug, toJSON(t, map[string]interface{}{"title": "x"}))
	assertStatus(t, rr, http.StatusNotFound)
}

func TestDeleteProject(t *testing.T) {
	env := newTestEnv(t)
	p := createProject(t, env, validProject("Doomed"))

	rr := env.do(t, "DELETE", "/api/projects/"+p.ID, nil)
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "DELETE", "/api/projects/"+p.ID, nil)
	assertStatus(t, rr, http.StatusNotFound)
}

// ---------------------------------------------------------------------------
// Testimonials
// ---------------------------------------------------------------------------

func TestTestimonials_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/testimonials", toJSON(t, map[string]interface{}{
		"name": "Grace", "role": "CTO", "content": "Great work",
	}))
	assertStatus(t, rr, http.StatusCreated)
	var created model.Testimonial
	decodeJSON(t, rr, &created)
	if created.Rating != 5 || created.Avatar != model.DefaultAvatar {
		t.Errorf("defaults = rating %d avatar %q", created.Rating, created.Avatar)
	}

	rr = env.do(t, "PUT", "/api/testimonials/"+created.ID, toJSON(t, map[string]interface{}{
		"rating": 4, "featured": true,
	}))
	assertStatus(t, rr, http.StatusOK)
	var updated model.Testimonial
	decodeJSON(t, rr, &updated)
	if updated.Rating != 4 || !updated.Featured || updated.Name != "Grace" {
		t.Errorf("updated = %+v", updated)
	}

	rr = env.do(t, "GET", "/api/testimonials", nil)
	assertStatus(t, rr, http.StatusOK)
	var list []model.Testimonial
	decodeJSON(t, rr, &list)
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}

	rr = env.do(t, "DELETE", "/api/testimonials/"+created.ID, nil)
	assertStatus(t, rr, http.StatusOK)
	rr = env.do(t, "PUT", "/api/testimonials/"+created.ID, toJSON(t, map[string]interface{}{"rating": 3}))
	assertStatus(t, rr, http.StatusNotFound)
}

func TestTestimonials_RatingOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "POST", "/api/testimonials", toJSON(t, map[string]interface{}{
		"name": "Grace", "role": "CTO", "content": "Great work", "rating": 9,
	}))
	assertStatus(t, rr, http.StatusBadRequest)
}

// ---------------------------------------------------------------------------
// Contact
// ---------------------------------------------------------------------------

func TestContact_Send(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/contact", toJSON(t, map[string]string{
		"name":    " Visitor ",
		"email":   "Visitor@Example.com",
		"message": "Hello there",
		"status":  "replied",
	}))
	assertStatus(t, rr, http.StatusCreated)

	var resp model.ContactCreatedResponse
	decodeJSON(t, rr, &resp)
	if !resp.Success || resp.Message != "Message sent" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Contact.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", resp.Contact.Status)
	}
	if resp.Contact.Email != "visitor@example.com" || resp.Contact.Name != "Visitor" {
		t.Errorf("contact = %+v", resp.Contact)
	}

	if len(env.notifier.received) != 1 || env.notifier.received[0].ID != resp.Contact.ID {
		t.Errorf("notifier received %v", env.notifier.received)
	}
}

func TestContact_SendValidation(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "POST", "/api/contact", toJSON(t, map[string]string{
		"name": "V", "email": "not-an-email", "message": "  ",
	}))
	assertStatus(t, rr, http.StatusBadRequest)

	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	for _, field := range []string{"email", "message"} {
		if _, ok := resp.Errors[field]; !ok {
			t.Errorf("missing %s error in %v", field, resp.Errors)
		}
	}
	if len(env.notifier.received) != 0 {
		t.Error("notifier called for invalid message")
	}
}

func TestContact_Inbox(t *testing.T) {
	env := newTestEnv(t)
	var ids []string
	for i := 0; i < 3; i++ {
		rr := env.do(t, "POST", "/api/contact", toJSON(t, map[string]string{
			"name": "V", "email": "v@example.com", "message": fmt.Sprintf("msg %d", i),
		}))
		assertStatus(t, rr, http.StatusCreated)
		var resp model.ContactCreatedResponse
		decodeJSON(t, rr, &resp)
		ids = append(ids, resp.Contact.ID)
	}

	rr := env.do(t, "PATCH", "/api/contact/"+ids[0], toJSON(t, map[string]string{"status": "read"}))
	assertStatus(t, rr, http.StatusOK)
	var c model.ContactMessage
	decodeJSON(t, rr, &c)
	if c.Status != model.StatusRead {
		t.Errorf("status = %q", c.Status)
	}

	rr = env.do(t, "GET", "/api/contact?status=pending", nil)
	assertStatus(t, rr, http.StatusOK)
	var pending []model.ContactMessage
	decodeJSON(t, rr, &pending)
	if len(pending) != 2 {
		t.Errorf("pending = %d, want 2", len(pending))
	}

	rr = env.do(t, "PATCH", "/api/contact/"+ids[1], toJSON(t, map[string]string{"status": "archived"}))
	assertStatus(t, rr, http.StatusBadRequest)
	assertErrorMessage(t, rr, "Invalid status")

	rr = env.do(t, "PATCH", "/api/contact/missing", toJSON(t, map[string]string{"status": "read"}))
	assertStatus(t, rr, http.StatusNotFound)
	assertErrorMessage(t, rr, "Message not found")

	rr = env.do(t, "DELETE", "/api/contact/"+ids[2], nil)
	assertStatus(t, rr, http.StatusOK)
	rr = env.do(t, "DELETE", "/api/contact/"+ids[2], nil)
	assertStatus(t, rr, http.StatusNotFound)
}
