package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/schooldesk/apps/api/echo"
	"github.com/trezcool/schooldesk/core/user"
)

func Test_accountApi_forms(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{
			name: "login form", path: "/auth/login", wantCode: http.StatusOK,
			wantData: marchallObj(t, FormDescriptor{Form: "login", Action: "/auth/login", Fields: []string{"email", "password"}}),
		},
		{
			name: "register form", path: "/auth/register", wantCode: http.StatusOK,
			wantData: marchallObj(t, FormDescriptor{
				Form:   "register",
				Action: "/auth/register",
				Fields: []string{"full_name", "email", "role", "class_number", "password", "password_confirm"},
			}),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_accountApi_login(t *testing.T) {
	app := setup(t)
	student := createUser(t, "Sam Student", "sam@school.test", user.RoleStudent, 3)
	admin := createUser(t, "Ada Admin", "ada@school.test", user.RoleAdmin, 0)

	invalidCreds := marchallObj(t, httpErr{Error: "invalid credentials"})
	tests := []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: "/auth/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "this field is required", "password": "this field is required"}`),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/auth/login",
			body:     marchallObj(t, LoginRequest{Email: "nobody@school.test", Password: pwd}),
			wantCode: http.StatusBadRequest, wantData: invalidCreds,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/auth/login",
			body:     marchallObj(t, LoginRequest{Email: student.Email, Password: "Wr0ng#Pass"}),
			wantCode: http.StatusBadRequest, wantData: invalidCreds,
		},
		{
			name: "student", method: http.MethodPost, path: "/auth/login",
			body:     marchallObj(t, LoginRequest{Email: " SAM@school.test ", Password: pwd}),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, LoginResponse{Redirect: "/student/dashboard", User: student}),
		},
		{
			name: "admin", method: http.MethodPost, path: "/auth/login",
			body:     marchallObj(t, LoginRequest{Email: admin.Email, Password: pwd}),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, LoginResponse{Redirect: "/admin/dashboard", User: admin}),
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("sets the session cookie", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/auth/login", marchallObj(t, LoginRequest{Email: admin.Email, Password: pwd}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

		sess, err := authSvc.Resolve(context.Background(), cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, sess.UserID)

		// the cookie opens the admin pages
		req, rec = newAuthRequest(http.MethodGet, "/admin/dashboard", cookie.Value)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_accountApi_register(t *testing.T) {
	app := setup(t)
	createUser(t, "Taken", "taken@school.test", user.RoleStudent, 1)

	body := func(email, role string, class interface{}, password string) []byte {
		return marchallObj(t, map[string]interface{}{
			"full_name":    "Nia Nyota",
			"email":        email,
			"role":         role,
			"class_number": class,
			"password":     password,
		})
	}

	tests := []httpTest{
		{
			name: "duplicate email", method: http.MethodPost, path: "/auth/register",
			body:     body("TAKEN@school.test", "student", 2, pwd),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "a user with this email already exists"}`),
		},
		{
			name: "student without class", method: http.MethodPost, path: "/auth/register",
			body:     body("nia@school.test", "student", nil, pwd),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"class_number": "students must belong to a class"}`),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/auth/register",
			body:     body("nia@school.test", "student", 2, "12345678"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password": "password cannot be entirely numeric"}`),
		},
		{
			name: "unknown role", method: http.MethodPost, path: "/auth/register",
			body:     body("nia@school.test", "teacher", 2, pwd),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"role": "invalid role"}`),
		},
	}
	runHTTPTests(t, app, tests)
	assert.Empty(t, mailSvc.Sent())

	t.Run("student", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/auth/register", body(" Nia@School.test", "student", 2, pwd))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "nia@school.test"})
		require.NoError(t, err)
		checkCodeAndData(t, httpTest{wantCode: http.StatusCreated, wantData: marchallObj(t, usr)}, rec)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.Equal(t, 2, usr.ClassNumber.Int)
		assert.NoError(t, usr.CheckPassword(pwd))

		// signing up does not sign in
		assert.Nil(t, sessionCookie(rec))

		sent := mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "welcome", sent[0].TemplateName)
		assert.Equal(t, "nia@school.test", sent[0].To[0].Address)
	})
}

func Test_accountApi_logout(t *testing.T) {
	app := setup(t)
	student := createUser(t, "Sam Student", "sam@school.test", user.RoleStudent, 3)
	token := getToken(t, student)

	req, rec := newAuthRequest(http.MethodPost, "/auth/logout", token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, RedirectResponse{Redirect: "/auth/login"})}, rec)
	if cookie := sessionCookie(rec); assert.NotNil(t, cookie) {
		assert.Empty(t, cookie.Value)
	}

	// the session is gone
	req, rec = newAuthRequest(http.MethodGet, "/student/dashboard", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	// signing out twice is fine
	req, rec = newAuthRequest(http.MethodPost, "/auth/logout", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_accountApi_passwordReset(t *testing.T) {
	app := setup(t)
	student := createUser(t, "Sam Student", "sam@school.test", user.RoleStudent, 3)
	success := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	tests := []httpTest{
		{
			name: "invalid email", method: http.MethodPost, path: "/auth/password-reset",
			body:     []byte(`{"email": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "email must be a valid email address"}`),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/auth/password-reset",
			body:     []byte(`{"email": "nobody@school.test"}`),
			wantCode: http.StatusOK, wantData: success,
		},
	}
	runHTTPTests(t, app, tests)
	require.Empty(t, mailSvc.Sent())

	req, rec := newRequest(http.MethodPost, "/auth/password-reset", []byte(`{"email": "Sam@School.test"}`))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: success}, rec)

	sent := mailSvc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "password_reset", sent[0].TemplateName)
	data, ok := sent[0].TemplateData.(map[string]interface{})
	require.True(t, ok)
	uid, token := data["UID"].(string), data["Token"].(string)

	newPwd := "N3w#Secret"
	confirm := func(token, password string) []byte {
		b, _ := json.Marshal(user.ResetUserPassword{UID: uid, Token: token, Password: password, PasswordConfirm: password})
		return b
	}

	tests = []httpTest{
		{
			name: "bad token", method: http.MethodPost, path: "/auth/password-reset-confirm",
			body:     confirm("bogus-token", newPwd),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"token": "invalid token"}`),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/auth/password-reset-confirm",
			body:     confirm(token, "short"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password": "password must contain at least 8 characters"}`),
		},
		{
			name: "valid", method: http.MethodPost, path: "/auth/password-reset-confirm",
			body:     confirm(token, newPwd),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "token is single use", method: http.MethodPost, path: "/auth/password-reset-confirm",
			body:     confirm(token, "An0ther#Secret"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"token": "invalid token"}`),
		},
	}
	runHTTPTests(t, app, tests)

	_, _, _, err := authSvc.SignIn(context.Background(), student.Email, newPwd)
	assert.NoError(t, err)
}

func Test_accountApi_loginRateLimit(t *testing.T) {
	app := setup(t, func(deps *ServerDeps) { deps.Conf.Auth.LoginRatePerMinute = 2 })
	body := marchallObj(t, LoginRequest{Email: "nobody@school.test", Password: pwd})

	tests := []httpTest{
		{name: "first", method: http.MethodPost, path: "/auth/login", body: body, wantCode: http.StatusBadRequest},
		{name: "second", method: http.MethodPost, path: "/auth/login", body: body, wantCode: http.StatusBadRequest},
		{
			name: "throttled", method: http.MethodPost, path: "/auth/login", body: body,
			wantCode: http.StatusTooManyRequests, wantData: marchallObj(t, httpErr{Error: "too many requests"}),
		},
		{name: "register is not throttled", path: "/auth/register", wantCode: http.StatusOK},
	}
	runHTTPTests(t, app, tests)
}
