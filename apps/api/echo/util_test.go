package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/pta/apps/api/echo"
	"github.com/trezcool/pta/core/school"
	"github.com/trezcool/pta/core/user"
	"github.com/trezcool/pta/testutil"
)

const testPassword = "Ch@ngeM3!x"

var ctxBg = context.Background()

var (
	errMissingToken  = httpErr{Error: "missing or malformed jwt"}
	errForbidden     = httpErr{Error: "permission denied"}
	errNotFound      = httpErr{Error: "not found"}
	errUnavailable   = httpErr{Error: "service unavailable"}
	errUnauthorized  = httpErr{Error: "user not authenticated"}
	errInvalidFields = func(flds ...string) map[string]string {
		m := make(map[string]string, len(flds))
		for _, f := range flds {
			m[f] = "invalid value"
		}
		return m
	}
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

// fixture is a school with one active user per role.
type fixture struct {
	school school.School
	users  map[string]user.User
	tokens map[string]string
}

func (f fixture) token(role string) string { return f.tokens[role] }
func (f fixture) user(role string) user.User { return f.users[role] }

// setup empties the stores and creates a fresh fixture.
func setup(t *testing.T) fixture {
	t.Helper()
	authDB.Flush()
	dataDB.Flush()
	dataDB.SetUnavailable(false)
	mailSvc.Reset()
	return newFixture(t, "Greenwood Elementary", "")
}

func newFixture(t *testing.T, schoolName, emailDomain string) fixture {
	t.Helper()
	if emailDomain == "" {
		emailDomain = "test.cd"
	}
	f := fixture{
		school: testutil.CreateSchool(t, repos.School, schoolName),
		users:  make(map[string]user.User, len(user.AllRoles)),
		tokens: make(map[string]string, len(user.AllRoles)),
	}
	for _, role := range user.AllRoles {
		usr := testutil.CreateUser(t, repos.User, f.school.ID, "The "+role, role+"@"+emailDomain, testPassword, role, true)
		f.users[role] = usr
		f.tokens[role] = getToken(t, usr)
	}
	return f
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func serve(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(conf, echoapi.GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if !ok1 || !ok2 {
		return false, nil
	}
	return assert.ElementsMatch(t, l1, l2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// runTests serves every test and checks its code and data.
func runTests(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, serve(tt))
		})
	}
}
