package handler

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	_ "taskmind/api/swagger"

	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

var ginParam = regexp.MustCompile(`:([A-Za-z_]+)`)

// Every mounted /api route must be described in the served OpenAPI document.
func TestSwaggerDocCoversRoutes(t *testing.T) {
	env := newAPI(t)

	raw, err := swag.ReadDoc("swagger")
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]struct {
			Parameters []struct {
				Name string `json:"name"`
			} `json:"parameters"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	for _, route := range env.router.Routes() {
		if !strings.HasPrefix(route.Path, "/api/") {
			continue
		}
		path := ginParam.ReplaceAllString(route.Path, "{$1}")
		ops, ok := doc.Paths[path]
		require.Truef(t, ok, "%s missing from swagger doc", path)
		_, ok = ops[strings.ToLower(route.Method)]
		require.Truef(t, ok, "%s %s missing from swagger doc", route.Method, path)
	}

	var names []string
	for _, p := range doc.Paths["/api/admin/audit-logs"]["get"].Parameters {
		names = append(names, p.Name)
	}
	require.ElementsMatch(t, []string{"action", "entity_id", "user_id", "page", "limit"}, names)
}
