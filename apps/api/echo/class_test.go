package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pta/core/class"
	"github.com/trezcool/pta/core/user"
	"github.com/trezcool/pta/testutil"
)

func Test_classApi_permissions(t *testing.T) {
	f := setup(t)
	cls := testutil.CreateClass(t, repos.Class, f.school.ID, "Blue", "3", "")
	body := marchallObj(t, map[string]string{"name": "Red"})

	type perm struct {
		method string
		path   string
		body   []byte
		roles  map[string]int // role -> want code
	}
	detail := "/api/classes/" + cls.ID
	all := func(ok int, allowed ...string) map[string]int {
		codes := make(map[string]int, len(user.AllRoles))
		for _, r := range user.AllRoles {
			codes[r] = http.StatusForbidden
		}
		for _, r := range allowed {
			codes[r] = ok
		}
		return codes
	}
	perms := []perm{
		{http.MethodGet, "/api/classes", nil, all(http.StatusOK, user.AllRoles...)},
		{http.MethodGet, detail, nil, all(http.StatusOK, user.AllRoles...)},
		{http.MethodPost, "/api/classes", body, all(http.StatusCreated, user.RolePrincipal, user.RoleAdmin)},
		{http.MethodPut, detail, body, all(http.StatusOK, user.RolePrincipal, user.RoleAdmin)},
	}

	var tests []httpTest
	for _, p := range perms {
		for _, role := range user.AllRoles {
			tests = append(tests, httpTest{
				name:     p.method + " " + p.path + " as " + role,
				method:   p.method,
				path:     p.path,
				body:     p.body,
				token:    f.token(role),
				wantCode: p.roles[role],
			})
		}
		tests = append(tests, httpTest{
			name:     p.method + " " + p.path + " anonymously",
			method:   p.method,
			path:     p.path,
			body:     p.body,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		})
	}
	runTests(t, tests)

	t.Run("delete", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodDelete, path: detail, token: f.token(user.RoleTeacher)})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = serve(httpTest{method: http.MethodDelete, path: detail, token: f.token(user.RolePrincipal)})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = serve(httpTest{method: http.MethodGet, path: detail, token: f.token(user.RolePrincipal)})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_classApi_query(t *testing.T) {
	f := setup(t)
	teacher := f.user(user.RoleTeacher)
	blue := testutil.CreateClass(t, repos.Class, f.school.ID, "Blue", "3", teacher.ID)
	amber := testutil.CreateClass(t, repos.Class, f.school.ID, "Amber", "4", "")
	cyan := testutil.CreateClass(t, repos.Class, f.school.ID, "Cyan", "3", "")

	other := newFixture(t, "Riverside", "riverside.cd")
	testutil.CreateClass(t, repos.Class, other.school.ID, "Blue", "3", "")

	token := f.token(user.RoleParent)
	runTests(t, []httpTest{
		{name: "all", method: http.MethodGet, path: "/api/classes", token: token, wantCode: http.StatusOK, wantData: marchallList(t, amber, blue, cyan)},
		{name: "grade", method: http.MethodGet, path: "/api/classes?grade=3", token: token, wantCode: http.StatusOK, wantData: marchallList(t, blue, cyan)},
		{name: "teacher", method: http.MethodGet, path: "/api/classes?teacher_id=" + teacher.ID, token: token, wantCode: http.StatusOK, wantData: marchallList(t, blue)},
		{name: "search", method: http.MethodGet, path: "/api/classes?search=YA", token: token, wantCode: http.StatusOK, wantData: marchallList(t, cyan)},
		{name: "malformed teacher id", method: http.MethodGet, path: "/api/classes?teacher_id=blue", token: token, wantCode: http.StatusBadRequest, wantData: marchallObj(t, errInvalidFields("teacher_id"))},
		{name: "other school", method: http.MethodGet, path: "/api/classes", token: other.token(user.RoleAdmin), wantCode: http.StatusOK},
	})

	t.Run("ordering", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodGet, path: "/api/classes?ordering=-name", token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, string(marchallList(t, cyan, blue, amber)), rec.Body.String())
	})

	t.Run("backend down degrades to an empty list", func(t *testing.T) {
		dataDB.SetUnavailable(true)
		defer dataDB.SetUnavailable(false)

		rec := serve(httpTest{method: http.MethodGet, path: "/api/classes", token: token})
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)

		rec = serve(httpTest{method: http.MethodGet, path: "/api/classes/" + blue.ID, token: token})
		checkCodeAndData(t, httpTest{wantCode: http.StatusServiceUnavailable, wantData: marchallObj(t, errUnavailable)}, rec)
	})
}

func Test_classApi_create(t *testing.T) {
	f := setup(t)
	other := newFixture(t, "Riverside", "riverside.cd")
	token := f.token(user.RoleAdmin)

	runTests(t, []httpTest{
		{
			name:     "missing name",
			method:   http.MethodPost,
			path:     "/api/classes",
			body:     marchallObj(t, map[string]string{"grade": "3"}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name:     "teacher of another school",
			method:   http.MethodPost,
			path:     "/api/classes",
			body:     marchallObj(t, map[string]string{"name": "Blue", "teacher_id": other.user(user.RoleTeacher).ID}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errInvalidFields("teacher_id")),
		},
		{
			name:     "parent as teacher",
			method:   http.MethodPost,
			path:     "/api/classes",
			body:     marchallObj(t, map[string]string{"name": "Blue", "teacher_id": f.user(user.RoleParent).ID}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errInvalidFields("teacher_id")),
		},
	})

	t.Run("success", func(t *testing.T) {
		teacherID := f.user(user.RoleTeacher).ID
		rec := serve(httpTest{
			method: http.MethodPost,
			path:   "/api/classes",
			body:   marchallObj(t, map[string]string{"name": "  Blue ", "grade": "3", "teacher_id": teacherID}),
			token:  token,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		classes, err := repos.Class.QueryClasses(ctxBg, class.QueryFilter{SchoolID: f.school.ID})
		require.NoError(t, err)
		require.Len(t, classes, 1)
		assert.Equal(t, "Blue", classes[0].Name)
		assert.Equal(t, teacherID, classes[0].TeacherID.String)
		assert.JSONEq(t, string(marchallObj(t, classes[0])), rec.Body.String())
	})

	t.Run("unavailable", func(t *testing.T) {
		dataDB.SetUnavailable(true)
		defer dataDB.SetUnavailable(false)

		rec := serve(httpTest{method: http.MethodPost, path: "/api/classes", body: marchallObj(t, map[string]string{"name": "Red"}), token: token})
		checkCodeAndData(t, httpTest{wantCode: http.StatusServiceUnavailable, wantData: marchallObj(t, errUnavailable)}, rec)
	})
}

func Test_classApi_tenantIsolation(t *testing.T) {
	f := setup(t)
	other := newFixture(t, "Riverside", "riverside.cd")
	theirs := testutil.CreateClass(t, repos.Class, other.school.ID, "Blue", "3", "")
	path := "/api/classes/" + theirs.ID

	runTests(t, []httpTest{
		{name: "get", method: http.MethodGet, path: path, token: f.token(user.RoleAdmin), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "update", method: http.MethodPut, path: path, body: marchallObj(t, map[string]string{"name": "Mine"}), token: f.token(user.RoleAdmin), wantCode: http.StatusNotFound},
		{name: "delete", method: http.MethodDelete, path: path, token: f.token(user.RoleAdmin), wantCode: http.StatusNotFound},
		{name: "unknown", method: http.MethodGet, path: "/api/classes/nope", token: f.token(user.RoleAdmin), wantCode: http.StatusNotFound},
		{name: "owner", method: http.MethodGet, path: path, token: other.token(user.RoleTeacher), wantCode: http.StatusOK, wantData: marchallObj(t, theirs)},
	})
}
