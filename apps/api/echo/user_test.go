package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pta/core/user"
	"github.com/trezcool/pta/testutil"
)

func Test_userApi_permissions(t *testing.T) {
	f := setup(t)
	teacher := f.user(user.RoleTeacher)
	treasurer := f.user(user.RoleTreasurer)

	runTests(t, []httpTest{
		{name: "admin lists", method: http.MethodGet, path: "/api/users", token: f.token(user.RoleAdmin), wantCode: http.StatusOK},
		{name: "principal lists", method: http.MethodGet, path: "/api/users", token: f.token(user.RolePrincipal), wantCode: http.StatusOK},
		{name: "teacher cannot list", method: http.MethodGet, path: "/api/users", token: f.token(user.RoleTeacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "parent cannot list roles", method: http.MethodGet, path: "/api/users/roles", token: f.token(user.RoleParent), wantCode: http.StatusForbidden},
		{name: "principal lists roles", method: http.MethodGet, path: "/api/users/roles", token: f.token(user.RolePrincipal), wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
		{name: "teacher reads self", method: http.MethodGet, path: "/api/users/" + teacher.ID, token: f.token(user.RoleTeacher), wantCode: http.StatusOK, wantData: marchallObj(t, teacher)},
		{name: "teacher cannot read others", method: http.MethodGet, path: "/api/users/" + treasurer.ID, token: f.token(user.RoleTeacher), wantCode: http.StatusForbidden},
		{name: "principal reads others", method: http.MethodGet, path: "/api/users/" + treasurer.ID, token: f.token(user.RolePrincipal), wantCode: http.StatusOK, wantData: marchallObj(t, treasurer)},
		{
			name:     "principal cannot create",
			method:   http.MethodPost,
			path:     "/api/users",
			body:     marchallObj(t, map[string]string{"name": "New", "email": "new@test.cd", "role": user.RoleTeacher, "password": "Walnut-Tr33-Lantern", "password_confirm": "Walnut-Tr33-Lantern"}),
			token:    f.token(user.RolePrincipal),
			wantCode: http.StatusForbidden,
		},
		{name: "principal cannot delete", method: http.MethodDelete, path: "/api/users/" + teacher.ID, token: f.token(user.RolePrincipal), wantCode: http.StatusForbidden},
		{name: "admin cannot delete self", method: http.MethodDelete, path: "/api/users/" + f.user(user.RoleAdmin).ID, token: f.token(user.RoleAdmin), wantCode: http.StatusForbidden},
		{name: "admin deletes", method: http.MethodDelete, path: "/api/users/" + teacher.ID, token: f.token(user.RoleAdmin), wantCode: http.StatusNoContent},
	})

	t.Run("users of other schools are hidden", func(t *testing.T) {
		other := newFixture(t, "Riverside", "riverside.cd")
		rec := serve(httpTest{method: http.MethodGet, path: "/api/users/" + treasurer.ID, token: other.token(user.RoleAdmin)})
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)}, rec)
	})
}

func Test_userApi_query(t *testing.T) {
	f := setup(t)
	newFixture(t, "Riverside", "riverside.cd")
	token := f.token(user.RoleAdmin)

	t.Run("school users only", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodGet, path: "/api/users", token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		var users []user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
		assert.Len(t, users, len(user.AllRoles))
		for _, usr := range users {
			assert.Equal(t, f.school.ID, usr.SchoolID)
		}
	})

	runTests(t, []httpTest{
		{name: "by role", method: http.MethodGet, path: "/api/users?role=teacher&role=parent", token: token, wantCode: http.StatusOK, wantData: marchallList(t, f.user(user.RoleParent), f.user(user.RoleTeacher))},
		{name: "search", method: http.MethodGet, path: "/api/users?search=TREASURER@", token: token, wantCode: http.StatusOK, wantData: marchallList(t, f.user(user.RoleTreasurer))},
	})
}

func Test_userApi_create(t *testing.T) {
	f := setup(t)
	token := f.token(user.RoleAdmin)
	pwd := "Walnut-Tr33-Lantern"

	runTests(t, []httpTest{
		{
			name:     "email taken",
			method:   http.MethodPost,
			path:     "/api/users",
			body:     marchallObj(t, map[string]string{"name": "Dup", "email": "Teacher@test.cd", "role": user.RoleTeacher, "password": pwd, "password_confirm": pwd}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name:     "password mismatch",
			method:   http.MethodPost,
			path:     "/api/users",
			body:     marchallObj(t, map[string]string{"name": "Jo", "email": "jo@test.cd", "role": user.RoleTeacher, "password": pwd, "password_confirm": pwd + "!"}),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown role",
			method:   http.MethodPost,
			path:     "/api/users",
			body:     marchallObj(t, map[string]string{"name": "Jo", "email": "jo@test.cd", "role": "janitor", "password": pwd, "password_confirm": pwd}),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("success", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPost,
			path:   "/api/users",
			body:   marchallObj(t, map[string]string{"name": " Jo ", "email": "Jo@Test.cd", "role": "Treasurer", "password": pwd, "password_confirm": pwd}),
			token:  token,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		created, err := repos.User.GetUserByEmail(ctxBg, "jo@test.cd")
		require.NoError(t, err)
		assert.Equal(t, "Jo", created.Name)
		assert.Equal(t, user.RoleTreasurer, created.Role)
		assert.Equal(t, f.school.ID, created.SchoolID)
		assert.True(t, created.IsActive)
		assert.NoError(t, created.CheckPassword(pwd))
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func Test_userApi_update(t *testing.T) {
	f := setup(t)
	teacher := f.user(user.RoleTeacher)
	newPwd := "Lantern-Walnut-44!"

	runTests(t, []httpTest{
		{
			name:     "self-serve name and password",
			method:   http.MethodPut,
			path:     "/api/users/" + teacher.ID,
			body:     marchallObj(t, map[string]string{"name": "Ms. Frizzle", "password": newPwd, "password_confirm": newPwd}),
			token:    f.token(user.RoleTeacher),
			wantCode: http.StatusOK,
		},
		{
			name:     "cannot promote self",
			method:   http.MethodPut,
			path:     "/api/users/" + teacher.ID,
			body:     marchallObj(t, map[string]string{"role": user.RoleAdmin}),
			token:    f.token(user.RoleTeacher),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "cannot deactivate self",
			method:   http.MethodPut,
			path:     "/api/users/" + teacher.ID,
			body:     []byte(`{"is_active": false}`),
			token:    f.token(user.RoleTeacher),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "email of another user",
			method:   http.MethodPut,
			path:     "/api/users/" + teacher.ID,
			body:     marchallObj(t, map[string]string{"email": "parent@test.cd"}),
			token:    f.token(user.RoleAdmin),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
	})

	updated, err := repos.User.GetUserByID(ctxBg, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ms. Frizzle", updated.Name)
	assert.Equal(t, user.RoleTeacher, updated.Role)
	assert.NoError(t, updated.CheckPassword(newPwd))

	t.Run("admin changes role and deactivates", func(t *testing.T) {
		rec := serve(httpTest{
			method: http.MethodPut,
			path:   "/api/users/" + teacher.ID,
			body:   []byte(`{"role": "principal", "is_active": false}`),
			token:  f.token(user.RoleAdmin),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		updated, err := repos.User.GetUserByID(ctxBg, teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, user.RolePrincipal, updated.Role)
		assert.False(t, updated.IsActive)
	})

	t.Run("admin cannot demote or deactivate self", func(t *testing.T) {
		admin := f.user(user.RoleAdmin)
		for _, body := range []string{
			`{"is_active": false}`,
			`{"role": "parent"}`,
			`{"role": "parent", "is_active": false}`,
		} {
			rec := serve(httpTest{method: http.MethodPut, path: "/api/users/" + admin.ID, body: []byte(body), token: f.token(user.RoleAdmin)})
			assert.Equal(t, http.StatusForbidden, rec.Code, body)
		}

		rec := serve(httpTest{method: http.MethodPut, path: "/api/users/" + admin.ID, body: []byte(`{"name": "The Head", "is_active": true}`), token: f.token(user.RoleAdmin)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		stored, err := repos.User.GetUserByID(ctxBg, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, "The Head", stored.Name)
		assert.Equal(t, user.RoleAdmin, stored.Role)
		assert.True(t, stored.IsActive)
	})

	t.Run("deactivated users are locked out", func(t *testing.T) {
		deactivated := testutil.CreateUser(t, repos.User, f.school.ID, "Gone", "gone@test.cd", testPassword, user.RoleTeacher, false)
		rec := serve(httpTest{method: http.MethodGet, path: "/api/users/" + deactivated.ID, token: getToken(t, deactivated)})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
