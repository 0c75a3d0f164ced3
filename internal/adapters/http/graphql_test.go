package http_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func TestGraphQL_UTM37N(t *testing.T) {
	app := setupApp(makeDeps(nil))

	body := `{"query":"{ utm37n(lat: 24.7136, lon: 46.6753) { easting northing zone epsg } }"}`
	resp := do(t, app, "POST", "/graphql", body)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out gqlResponse
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Errors) > 0 {
		t.Fatalf("errors: %+v", out.Errors)
	}
	var pt struct {
		Easting  float64 `json:"easting"`
		Northing float64 `json:"northing"`
		Zone     string  `json:"zone"`
		EPSG     int     `json:"epsg"`
	}
	if err := json.Unmarshal(out.Data["utm37n"], &pt); err != nil {
		t.Fatalf("decode utm37n: %v", err)
	}
	if math.Abs(pt.Easting-1277820.5436996724) > 1e-6 || pt.Zone != "37N" || pt.EPSG != 32637 {
		t.Errorf("unexpected point %+v", pt)
	}
}

func TestGraphQL_MenuRequiresSession(t *testing.T) {
	app := setupApp(makeDeps(nil))

	body := `{"query":"{ menu { id } }"}`
	resp := do(t, app, "POST", "/graphql", body)
	var out gqlResponse
	_ = json.Unmarshal(readBody(t, resp.Body), &out)
	if len(out.Errors) == 0 {
		t.Error("expected an authentication error")
	}
}

func TestGraphQL_MenuAndMe(t *testing.T) {
	app := setupApp(makeDeps(nil))

	body := `{"query":"{ me { username role } menu { id children { widget min_role } } }"}`
	resp := do(t, app, "POST", "/graphql", body, accessCookie(t, "root", domain.RoleOrgAdmin))
	var out gqlResponse
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Errors) > 0 {
		t.Fatalf("errors: %+v", out.Errors)
	}

	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	_ = json.Unmarshal(out.Data["me"], &me)
	if me.Username != "root" || me.Role != "org_admin" {
		t.Errorf("me = %+v", me)
	}

	var menu []struct {
		ID       string `json:"id"`
		Children []struct {
			Widget string `json:"widget"`
		} `json:"children"`
	}
	_ = json.Unmarshal(out.Data["menu"], &menu)
	if len(menu) != 3 || menu[2].ID != "admin" {
		t.Errorf("menu = %+v", menu)
	}
}

func TestGraphQL_BadBody(t *testing.T) {
	app := setupApp(makeDeps(nil))

	if resp := do(t, app, "POST", "/graphql", `{"query":""}`); resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}
