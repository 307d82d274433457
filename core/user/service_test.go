package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/testutil"
	"github.com/trezcool/schooldesk/core/user"
	emailsvc "github.com/trezcool/schooldesk/services/email"
	inmemdb "github.com/trezcool/schooldesk/storage/database/inmem"
)

const pwd = "Str0ng#Pass"

var ctx = context.Background()

type env struct {
	repo     user.Repository
	svc      *user.Service
	mail     *emailsvc.ConsoleServiceMock
	validate *validator.Validate
}

func setup(t *testing.T) env {
	t.Helper()
	conf := core.NewTestConfig()
	logger := &testutil.Logger{}
	core.ParseEmailTemplates(conf, logger)

	repo := inmemdb.NewUserRepository(inmemdb.Open())
	mail := emailsvc.NewConsoleServiceMock(conf, logger)
	validate, _ := testutil.NewValidator()
	return env{repo: repo, svc: user.NewService(repo, mail, conf), mail: mail, validate: validate}
}

func TestNewUser_Validate(t *testing.T) {
	e := setup(t)
	testutil.CreateUser(t, e.repo, "Taken", "taken@school.test", "", user.RoleStudent, 1)

	valid := func() user.NewUser {
		return user.NewUser{
			FullName:    "  Sam Student ",
			Email:       " Sam@School.TEST",
			Role:        "Student",
			ClassNumber: null.IntFrom(3),
			Password:    pwd,
		}
	}

	t.Run("cleans fields", func(t *testing.T) {
		nu := valid()
		require.NoError(t, nu.Validate(ctx, e.validate, e.svc))
		assert.Equal(t, "Sam Student", nu.FullName)
		assert.Equal(t, "sam@school.test", nu.Email)
		assert.Equal(t, user.RoleStudent, nu.Role)
	})

	t.Run("admins have no class", func(t *testing.T) {
		nu := valid()
		nu.Role = user.RoleAdmin
		require.NoError(t, nu.Validate(ctx, e.validate, e.svc))
		assert.False(t, nu.ClassNumber.Valid)
	})

	tests := []struct {
		name      string
		mutate    func(nu *user.NewUser)
		wantField string
		wantTag   string
	}{
		{name: "blank name", mutate: func(nu *user.NewUser) { nu.FullName = "   " }, wantField: "full_name", wantTag: "required"},
		{name: "bad email", mutate: func(nu *user.NewUser) { nu.Email = "nope" }, wantField: "email", wantTag: "email"},
		{name: "unknown role", mutate: func(nu *user.NewUser) { nu.Role = "teacher" }, wantField: "role", wantTag: "role"},
		{name: "student without class", mutate: func(nu *user.NewUser) { nu.ClassNumber = null.Int{} }, wantField: "class_number", wantTag: "class_required"},
		{name: "class out of range", mutate: func(nu *user.NewUser) { nu.ClassNumber = null.IntFrom(13) }, wantField: "class_number", wantTag: "max"},
		{name: "short password", mutate: func(nu *user.NewUser) { nu.Password = "Ab1#" }, wantField: "password", wantTag: "pwdminlen"},
		{name: "weak password", mutate: func(nu *user.NewUser) { nu.Password = "alllowercase" }, wantField: "password", wantTag: "pwdcplx"},
		{name: "password like email", mutate: func(nu *user.NewUser) { nu.Password = "Sam@school.test1" }, wantField: "password", wantTag: "pwdtoosim"},
		{name: "confirmation mismatch", mutate: func(nu *user.NewUser) { nu.PasswordConfirm = "other" }, wantField: "password_confirm", wantTag: "eqfield"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			tt.mutate(&nu)
			err := nu.Validate(ctx, e.validate, e.svc)
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantField, verrs[0].Field())
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
		})
	}

	t.Run("email taken", func(t *testing.T) {
		nu := valid()
		nu.Email = "TAKEN@school.test"
		err := nu.Validate(ctx, e.validate, e.svc)
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "email", verr.Fields[0].Field)
	})
}

func TestService_Create(t *testing.T) {
	e := setup(t)
	usr, err := e.svc.Create(ctx, user.NewUser{
		FullName:    "Sam Student",
		Email:       "sam@school.test",
		Role:        user.RoleStudent,
		ClassNumber: null.IntFrom(3),
		Password:    pwd,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.NoError(t, usr.CheckPassword(pwd))
	assert.False(t, usr.ProfileImage.Valid)

	sent := e.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "sam@school.test", sent[0].To[0].Address)
	assert.Equal(t, "welcome", sent[0].TemplateName)
	assert.Contains(t, sent[0].TextContent, "Hi Sam Student,")
}

func TestService_students(t *testing.T) {
	e := setup(t)
	adm := testutil.CreateUser(t, e.repo, "Ada Admin", "ada@school.test", "", user.RoleAdmin, 0)
	s3 := testutil.CreateUser(t, e.repo, "Bea Three", "bea@school.test", "", user.RoleStudent, 3)
	s5 := testutil.CreateUser(t, e.repo, "Cal Five", "cal@school.test", "", user.RoleStudent, 5)

	roster, err := e.svc.Roster(ctx, null.Int{})
	require.NoError(t, err)
	assert.Equal(t, []user.User{s3, s5}, roster)

	roster, err = e.svc.Roster(ctx, null.IntFrom(5))
	require.NoError(t, err)
	assert.Equal(t, []user.User{s5}, roster)

	n, err := e.svc.CountStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := e.svc.GetStudent(ctx, s3.ID)
	require.NoError(t, err)
	assert.Equal(t, s3, got)

	_, err = e.svc.GetStudent(ctx, adm.ID)
	assert.Equal(t, user.ErrNotFound, err)
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, e.svc.Delete(ctx, s3.ID))
	_, err = e.svc.GetByID(ctx, s3.ID)
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_Authenticate(t *testing.T) {
	e := setup(t)
	usr := testutil.CreateUser(t, e.repo, "Sam Student", "sam@school.test", pwd, user.RoleStudent, 3)

	got, err := e.svc.Authenticate(ctx, "  SAM@school.test ", pwd)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = e.svc.Authenticate(ctx, "sam@school.test", "wrong")
	assert.Equal(t, user.ErrInvalidCredentials, err)

	_, err = e.svc.Authenticate(ctx, "ghost@school.test", pwd)
	assert.Equal(t, user.ErrInvalidCredentials, err)
}

func TestService_SetPassword(t *testing.T) {
	e := setup(t)
	usr := testutil.CreateUser(t, e.repo, "Sam Student", "sam@school.test", pwd, user.RoleStudent, 3)

	_, err := e.svc.SetPassword(ctx, usr, "short")
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Fields[0].Field)

	_, err = e.svc.SetPassword(ctx, usr, "N3w#Password")
	require.NoError(t, err)
	_, err = e.svc.Authenticate(ctx, "sam@school.test", "N3w#Password")
	assert.NoError(t, err)
}

func TestService_ResetPassword(t *testing.T) {
	e := setup(t)
	usr := testutil.CreateUser(t, e.repo, "Sam Student", "sam@school.test", pwd, user.RoleStudent, 3)

	assert.Equal(t, user.ErrNotFound, e.svc.RequestPasswordReset(ctx, "ghost@school.test"))
	require.NoError(t, e.svc.RequestPasswordReset(ctx, "sam@school.test"))

	sent := e.mail.Sent()
	require.Len(t, sent, 1)
	data := sent[0].TemplateData.(map[string]interface{})
	uid, token := data["UID"].(string), data["Token"].(string)
	assert.Equal(t, user.EncodeUID(usr), uid)
	assert.Contains(t, sent[0].TextContent, token)

	const newPwd = "An0ther#Pass"
	reset := user.ResetUserPassword{Token: token, UID: uid, Password: newPwd, PasswordConfirm: newPwd}
	require.NoError(t, reset.Validate(e.validate))

	t.Run("bad uid", func(t *testing.T) {
		bad := reset
		bad.UID = user.EncodeUID(user.User{ID: "ghost"})
		var verr *core.ValidationError
		require.ErrorAs(t, e.svc.ResetPassword(ctx, bad), &verr)
		assert.Equal(t, "uid", verr.Fields[0].Field)
	})

	t.Run("bad token", func(t *testing.T) {
		bad := reset
		bad.Token = "nope-nope"
		var verr *core.ValidationError
		require.ErrorAs(t, e.svc.ResetPassword(ctx, bad), &verr)
		assert.Equal(t, "token", verr.Fields[0].Field)
	})

	require.NoError(t, e.svc.ResetPassword(ctx, reset))
	_, err := e.svc.Authenticate(ctx, "sam@school.test", newPwd)
	require.NoError(t, err)

	// the token dies with the old password
	var verr *core.ValidationError
	require.ErrorAs(t, e.svc.ResetPassword(ctx, reset), &verr)
	assert.Equal(t, "token", verr.Fields[0].Field)
}
