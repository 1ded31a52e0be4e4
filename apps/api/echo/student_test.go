package echoapi_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	echoapi "github.com/trezcool/pta/apps/api/echo"
	"github.com/trezcool/pta/core/student"
	"github.com/trezcool/pta/core/user"
	"github.com/trezcool/pta/services/spreadsheet"
	"github.com/trezcool/pta/testutil"
)

func Test_studentApi_parentScope(t *testing.T) {
	f := setup(t)
	mom := testutil.CreateParent(t, repos.Parent, f.school.ID, "Grace", "Hopper", "grace@test.cd", f.user(user.RoleParent).ID)
	dad := testutil.CreateParent(t, repos.Parent, f.school.ID, "Alan", "Kay", "alan@test.cd", "")
	mine := testutil.CreateStudent(t, repos.Student, f.school.ID, "Ada", "Hopper", "", mom.ID)
	theirs := testutil.CreateStudent(t, repos.Student, f.school.ID, "Bob", "Kay", "", dad.ID)

	lonely := testutil.CreateUser(t, repos.User, f.school.ID, "Lonely", "lonely@test.cd", testPassword, user.RoleParent, true)

	runTests(t, []httpTest{
		{
			name:     "parent lists own children",
			method:   http.MethodGet,
			path:     "/api/students",
			token:    f.token(user.RoleParent),
			wantCode: http.StatusOK,
			wantData: marchallList(t, mine),
		},
		{
			name:     "parent filter cannot widen the scope",
			method:   http.MethodGet,
			path:     "/api/students?parent_id=" + dad.ID,
			token:    f.token(user.RoleParent),
			wantCode: http.StatusOK,
			wantData: marchallList(t, mine),
		},
		{
			name:     "parent without a record",
			method:   http.MethodGet,
			path:     "/api/students",
			token:    getToken(t, lonely),
			wantCode: http.StatusOK,
			wantData: marchallList(t),
		},
		{
			name:     "parent reads own child",
			method:   http.MethodGet,
			path:     "/api/students/" + mine.ID,
			token:    f.token(user.RoleParent),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, mine),
		},
		{
			name:     "other children are hidden",
			method:   http.MethodGet,
			path:     "/api/students/" + theirs.ID,
			token:    f.token(user.RoleParent),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errNotFound),
		},
		{
			name:     "teacher lists all",
			method:   http.MethodGet,
			path:     "/api/students",
			token:    f.token(user.RoleTeacher),
			wantCode: http.StatusOK,
			wantData: marchallList(t, mine, theirs),
		},
		{
			name:     "teacher filters by parent",
			method:   http.MethodGet,
			path:     "/api/students?parent_id=" + dad.ID,
			token:    f.token(user.RoleTeacher),
			wantCode: http.StatusOK,
			wantData: marchallList(t, theirs),
		},
		{
			name:     "malformed flag",
			method:   http.MethodGet,
			path:     "/api/students?is_active=maybe",
			token:    f.token(user.RoleTeacher),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"filters": "invalid filter value"}),
		},
		{
			name:     "malformed class id",
			method:   http.MethodGet,
			path:     "/api/students?class_id=not-a-uuid",
			token:    f.token(user.RoleTeacher),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errInvalidFields("class_id")),
		},
		{
			name:     "parent cannot update",
			method:   http.MethodPut,
			path:     "/api/students/" + mine.ID,
			body:     marchallObj(t, map[string]string{"grade": "5"}),
			token:    f.token(user.RoleParent),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
	})
}

func Test_studentApi_crud(t *testing.T) {
	f := setup(t)
	other := newFixture(t, "Riverside", "riverside.cd")
	cls := testutil.CreateClass(t, repos.Class, f.school.ID, "Blue", "3", "")
	theirClass := testutil.CreateClass(t, repos.Class, other.school.ID, "Blue", "3", "")
	theirParent := testutil.CreateParent(t, repos.Parent, other.school.ID, "Al", "Other", "", "")
	s := testutil.CreateStudent(t, repos.Student, f.school.ID, "Ada", "Lovelace", cls.ID, "")

	runTests(t, []httpTest{
		{
			name:     "teacher cannot create",
			method:   http.MethodPost,
			path:     "/api/students",
			body:     marchallObj(t, map[string]string{"first_name": "Bob", "last_name": "Kay"}),
			token:    f.token(user.RoleTeacher),
			wantCode: http.StatusForbidden,
		},
		{
			name:   "references of another school",
			method: http.MethodPost,
			path:   "/api/students",
			body: marchallObj(t, map[string]string{
				"first_name": "Bob", "last_name": "Kay", "class_id": theirClass.ID, "parent_id": theirParent.ID,
			}),
			token:    f.token(user.RolePrincipal),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errInvalidFields("class_id", "parent_id")),
		},
		{
			name:     "malformed reference",
			method:   http.MethodPost,
			path:     "/api/students",
			body:     marchallObj(t, map[string]string{"first_name": "Bob", "last_name": "Kay", "class_id": "blue"}),
			token:    f.token(user.RolePrincipal),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errInvalidFields("class_id")),
		},
		{
			name:     "created",
			method:   http.MethodPost,
			path:     "/api/students",
			body:     marchallObj(t, map[string]string{"first_name": "Bob", "last_name": "Kay", "class_id": cls.ID, "date_of_birth": "2015-04-01"}),
			token:    f.token(user.RolePrincipal),
			wantCode: http.StatusCreated,
		},
		{
			name:     "teacher moves a student out of class",
			method:   http.MethodPut,
			path:     "/api/students/" + s.ID,
			body:     marchallObj(t, map[string]string{"class_id": ""}),
			token:    f.token(user.RoleTeacher),
			wantCode: http.StatusOK,
		},
		{
			name:     "teacher cannot delete",
			method:   http.MethodDelete,
			path:     "/api/students/" + s.ID,
			token:    f.token(user.RoleTeacher),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "principal deletes",
			method:   http.MethodDelete,
			path:     "/api/students/" + s.ID,
			token:    f.token(user.RolePrincipal),
			wantCode: http.StatusNoContent,
		},
	})

	students, err := repos.Student.QueryStudents(ctxBg, student.QueryFilter{SchoolID: f.school.ID})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Bob", students[0].FirstName)
	assert.Equal(t, "2015-04-01", students[0].DateOfBirth.String())
}

func Test_studentApi_unavailable(t *testing.T) {
	f := setup(t)
	testutil.CreateStudent(t, repos.Student, f.school.ID, "Ada", "Lovelace", "", "")
	dataDB.SetUnavailable(true)
	defer dataDB.SetUnavailable(false)

	runTests(t, []httpTest{
		{name: "staff list degrades", method: http.MethodGet, path: "/api/students", token: f.token(user.RoleTeacher), wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "parent list degrades", method: http.MethodGet, path: "/api/students", token: f.token(user.RoleParent), wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name:     "create fails",
			method:   http.MethodPost,
			path:     "/api/students",
			body:     marchallObj(t, map[string]string{"first_name": "Bob", "last_name": "Kay"}),
			token:    f.token(user.RoleAdmin),
			wantCode: http.StatusServiceUnavailable,
			wantData: marchallObj(t, errUnavailable),
		},
	})
}

func newImportRequest(t *testing.T, token string, rows [][]interface{}) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	xl := excelize.NewFile()
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, xl.SetSheetRow("Sheet1", axis, &row))
	}
	file, err := xl.WriteToBuffer()
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "students.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(file.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req, httptest.NewRecorder()
}

func Test_studentApi_importFile(t *testing.T) {
	f := setup(t)
	other := newFixture(t, "Riverside", "riverside.cd")
	cls := testutil.CreateClass(t, repos.Class, f.school.ID, "Blue", "3", "")
	theirClass := testutil.CreateClass(t, repos.Class, other.school.ID, "Blue", "3", "")
	p := testutil.CreateParent(t, repos.Parent, f.school.ID, "Grace", "Hopper", "", "")

	rows := [][]interface{}{
		{"first_name", "last_name", "grade", "class_id", "parent_id", "date_of_birth"},
		{"Ada", "Hopper", "3", cls.ID, p.ID, "2015-04-01"},
		{"", "Nobody"},
		{"Alan", "Turing", "4", theirClass.ID},
		{"Bob", "Kay", "3", "", "", "01/04/2015"},
		{},
		{"Barbara", "Liskov"},
	}

	t.Run("treasurer cannot import", func(t *testing.T) {
		req, rec := newImportRequest(t, f.token(user.RoleTreasurer), rows)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("import", func(t *testing.T) {
		req, rec := newImportRequest(t, f.token(user.RoleAdmin), rows)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.ImportResponse{
				Imported: 2,
				Skipped: []spreadsheet.RowError{
					{Row: 5, Error: "date_of_birth: invalid date, expected YYYY-MM-DD"},
					{Row: 3, Error: "first_name: this field is required"},
					{Row: 4, Error: "class_id: invalid value"},
				},
			}),
		}, rec)

		students, err := repos.Student.QueryStudents(ctxBg, student.QueryFilter{SchoolID: f.school.ID})
		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, "Hopper", students[0].LastName)
		assert.Equal(t, p.ID, students[0].ParentID.String)
		assert.Equal(t, "Liskov", students[1].LastName)
	})

	t.Run("no file", func(t *testing.T) {
		rec := serve(httpTest{method: http.MethodPost, path: "/api/students/import", token: f.token(user.RoleAdmin)})
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file": "this field is required"}),
		}, rec)
	})
}
