package web

import (
	"bytes"
	"html/template"
	"testing"
	"time"

	"todo-calendar/internal/models"
	"todo-calendar/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, name string, data interface{}) string {
	t.Helper()
	tmpl, err := Templates()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, name, data))
	return buf.String()
}

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)
	for _, name := range []string{"index.html", "register.html", "complete.html", "admin.html", "detail.html"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestRegisterShowsErrors(t *testing.T) {
	out := render(t, "register.html", map[string]interface{}{
		"Username": "<bob>",
		"Errors":   []string{"Passwords do not match."},
	})
	assert.Contains(t, out, "<li>Passwords do not match.</li>")
	assert.Contains(t, out, `value="&lt;bob&gt;"`)
}

func TestAdminPage(t *testing.T) {
	deadline := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
	tasks := []models.Task{{ID: 7, Content: "<b>pay rent</b>", Deadline: deadline}}
	view := &services.DashboardView{
		Username: "alice",
		Tasks:    tasks,
		Upcoming: tasks,
		Links:    []string{"/todo/alice/2024/01/16"},
		Calendar: template.HTML(`<table class="year"></table>`),
		Year:     2024,
		Now:      time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
	}

	out := render(t, "admin.html", map[string]interface{}{"View": view})

	assert.Contains(t, out, `<a href="/todo/alice/2024/01/16">2024-01-16 09:00:00</a>`)
	assert.Contains(t, out, `<table class="year"></table>`, "calendar markup is trusted")
	assert.Contains(t, out, "&lt;b&gt;pay rent&lt;/b&gt;", "task content is escaped")
	assert.Contains(t, out, `name="done[]" value="7"`)
	assert.Contains(t, out, `href="/delete/7"`)
	assert.Contains(t, out, `name="month" value="1"`)
}

func TestDetailPage(t *testing.T) {
	out := render(t, "detail.html", map[string]interface{}{
		"Username": "alice",
		"Year":     "2024",
		"Month":    "01",
		"Day":      "15",
		"Tasks":    []models.Task{{ID: 3, Content: "dentist", Done: true}},
	})
	assert.Contains(t, out, "<h1>2024/01/15</h1>")
	assert.Contains(t, out, "dentist")
	assert.Contains(t, out, `class="done"`)
}
