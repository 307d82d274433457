package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/schooldesk/apps/api/echo"
	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/access"
	"github.com/trezcool/schooldesk/core/attendance"
	"github.com/trezcool/schooldesk/core/auth"
	"github.com/trezcool/schooldesk/core/classroom"
	"github.com/trezcool/schooldesk/core/course"
	"github.com/trezcool/schooldesk/core/dashboard"
	"github.com/trezcool/schooldesk/core/fee"
	"github.com/trezcool/schooldesk/core/material"
	"github.com/trezcool/schooldesk/core/testutil"
	"github.com/trezcool/schooldesk/core/user"
	emailsvc "github.com/trezcool/schooldesk/services/email"
	inmemdb "github.com/trezcool/schooldesk/storage/database/inmem"
)

const pwd = "Str0ng#Pass"

var (
	conf    *core.Config
	logger  *testutil.Logger
	mailSvc *emailsvc.ConsoleServiceMock
	authSvc *auth.Service

	usrRepo    user.Repository
	classRepo  classroom.Repository
	courseRepo course.Repository
	attRepo    attendance.Repository
	feeRepo    fee.Repository
	matRepo    material.Repository
	sessStore  auth.Store

	errNotFound = httpErr{Error: "not found"}
)

type setupOption func(deps *ServerDeps)

func withPinger(name string, p core.Pinger) setupOption {
	return func(deps *ServerDeps) { deps.Pingers[name] = p }
}

// setup builds a server backed by a fresh in-memory database.
func setup(t *testing.T, opts ...setupOption) *Server {
	t.Helper()

	conf = core.NewTestConfig()
	logger = &testutil.Logger{}
	core.ParseEmailTemplates(conf, logger)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	classRepo = inmemdb.NewClassRepository(db)
	courseRepo = inmemdb.NewCourseRepository(db)
	attRepo = inmemdb.NewAttendanceRepository(db)
	feeRepo = inmemdb.NewFeeRepository(db)
	matRepo = inmemdb.NewMaterialRepository(db)
	sessStore = inmemdb.NewSessionStore()

	// set up services
	mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	authSvc = auth.NewService(sessStore, usrSvc, conf)
	classSvc := classroom.NewService(classRepo)
	courseSvc := course.NewService(courseRepo, classSvc)
	attSvc := attendance.NewService(attRepo, usrSvc)
	feeSvc := fee.NewService(feeRepo, classSvc, usrSvc)
	matSvc := material.NewService(matRepo, courseSvc)
	validate, translator := testutil.NewValidator()

	deps := ServerDeps{
		Conf:           conf,
		Logger:         logger,
		DisableReqLogs: true,
		Guard:          access.NewGuard(usrSvc),
		AuthSvc:        authSvc,
		UserSvc:        usrSvc,
		ClassSvc:       classSvc,
		CourseSvc:      courseSvc,
		AttendanceSvc:  attSvc,
		FeeSvc:         feeSvc,
		MaterialSvc:    matSvc,
		DashboardSvc:   dashboard.NewService(usrSvc, courseSvc, attSvc, feeSvc, matSvc),
		Validate:       validate,
		Translator:     translator,
		Pingers:        map[string]core.Pinger{"database": db, "sessions": sessStore},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewServer(deps)
}

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

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: conf.Session.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// createUser stores a user whose password is pwd; class 0 leaves the class empty.
func createUser(t *testing.T, name, email string, role user.Role, class int) user.User {
	return testutil.CreateUser(t, usrRepo, name, email, pwd, role, class)
}

// getToken signs usr in; usr must have been created with pwd.
func getToken(t *testing.T, usr user.User) string {
	_, _, token, err := authSvc.SignIn(context.Background(), usr.Email, pwd)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == conf.Session.CookieName {
			return c
		}
	}
	return nil
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "status code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v; body %s", err, rec.Body.String())
		return
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
			if loc, ok := tt.extra.(string); ok {
				assert.Equal(t, loc, rec.Header().Get("Location"))
			}
		})
	}
}
