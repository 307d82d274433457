package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/attendance"
	"github.com/trezcool/schooldesk/core/classroom"
	"github.com/trezcool/schooldesk/core/course"
	"github.com/trezcool/schooldesk/core/dashboard"
	"github.com/trezcool/schooldesk/core/fee"
	"github.com/trezcool/schooldesk/core/material"
	"github.com/trezcool/schooldesk/core/testutil"
	"github.com/trezcool/schooldesk/core/user"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decodeBody() failed: %v; body %s", err, rec.Body.String())
	}
}

func Test_adminApi_dashboard(t *testing.T) {
	app := setup(t)
	admin := createUser(t, "Ada Admin", "ada@school.test", user.RoleAdmin, 0)
	ann := createUser(t, "Ann Bell", "ann@school.test", user.RoleStudent, 3)
	bob := createUser(t, "Bob Cole", "bob@school.test", user.RoleStudent, 3)

	today := core.Today()
	c3 := testutil.CreateClass(t, classRepo, 3, "A")
	testutil.CreateCourse(t, courseRepo, c3, "Maths", "Maths")
	tuition := testutil.CreateFee(t, feeRepo, c3, 10000, today, "Tuition")
	testutil.CreatePayment(t, feeRepo, ann, tuition, 10000, fee.PaymentCompleted)
	testutil.CreatePayment(t, feeRepo, bob, tuition, 5000, fee.PaymentPending)
	testutil.CreateRecord(t, attRepo, ann, today, attendance.StatusPresent)
	testutil.CreateRecord(t, attRepo, bob, today, attendance.StatusLate)
	testutil.CreateRecord(t, attRepo, bob, today.AddDays(-1), attendance.StatusPresent)

	runHTTPTests(t, app, []httpTest{{
		name: "stats", path: "/admin/dashboard", token: getToken(t, admin), wantCode: http.StatusOK,
		wantData: marchallObj(t, dashboard.AdminStats{
			Date:          today,
			TotalStudents: 2,
			TotalCourses:  1,
			FeesCollected: 10000,
			PresentToday:  1,
		}),
	}})
}

func Test_adminApi_students(t *testing.T) {
	app := setup(t)
	admin := createUser(t, "Ada Admin", "ada@school.test", user.RoleAdmin, 0)
	ann := createUser(t, "Ann Bell", "ann@school.test", user.RoleStudent, 3)
	bob := createUser(t, "Bob Cole", "bob@school.test", user.RoleStudent, 4)
	cyd := createUser(t, "Cyd Bello", "cyd@school.test", user.RoleStudent, 3)
	token := getToken(t, admin)

	tests := []httpTest{
		{name: "all", path: "/admin/students", token: token, wantCode: http.StatusOK, wantData: marchallList(t, ann, bob, cyd)},
		{name: "class=3", path: "/admin/students?class=3", token: token, wantCode: http.StatusOK, wantData: marchallList(t, ann, cyd)},
		{name: "search=bel", path: "/admin/students?search=BEL", token: token, wantCode: http.StatusOK, wantData: marchallList(t, ann, cyd)},
		{name: "class=4&search=bel", path: "/admin/students?class=4&search=bel", token: token, wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name: "bad class", path: "/admin/students?class=three", token: token, wantCode: http.StatusBadRequest,
			wantData: []byte(`{"class": "must be a class number"}`),
		},
		{name: "delete unknown", method: http.MethodDelete, path: "/admin/students/nope", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "delete admin", method: http.MethodDelete, path: "/admin/students/" + admin.ID, token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "delete", method: http.MethodDelete, path: "/admin/students/" + bob.ID, token: token, wantCode: http.StatusNoContent},
		{name: "deleted", path: "/admin/students", token: token, wantCode: http.StatusOK, wantData: marchallList(t, ann, cyd)},
	}
	runHTTPTests(t, app, tests)

	t.Run("create", func(t *testing.T) {
		mailSvc.Reset()
		body := []byte(`{"full_name": "Dee Dale", "email": "dee@school.test", "role": "admin", "class_number": 5, "password": "` + pwd + `"}`)
		req, rec := newAuthRequest(http.MethodPost, "/admin/students", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got user.User
		decodeBody(t, rec, &got)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Dee Dale", got.FullName)
		assert.Equal(t, user.RoleStudent, got.Role, "admins cannot be created from here")
		assert.Equal(t, 5, got.ClassNumber.Int)
		assert.Len(t, mailSvc.Sent(), 1)
	})
}

func Test_adminApi_classes(t *testing.T) {
	app := setup(t)
	token := getToken(t, createUser(t, "Ada Admin", "ada@school.test", user.RoleAdmin, 0))
	c4 := testutil.CreateClass(t, classRepo, 4, "A")
	c3b := testutil.CreateClass(t, classRepo, 3, "B")
	c3a := testutil.CreateClass(t, classRepo, 3, "A")

	tests := []httpTest{
		{name: "ordered", path: "/admin/classes", token: token, wantCode: http.StatusOK, wantData: marchallList(t, c3a, c3b, c4)},
		{name: "number=3", path: "/admin/classes?number=3", token: token, wantCode: http.StatusOK, wantData: marchallList(t, c3a, c3b)},
		{
			name: "duplicate", method: http.MethodPost, path: "/admin/classes", token: token,
			body:     []byte(`{"number": 3, "section": " a "}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"section": "this class already exists"}`),
		},
		{
			name: "out of range", method: http.MethodPost, path: "/admin/classes", token: token,
			body:     []byte(`{"number": 13, "section": "A"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"number": "number must be 12 or less"}`),
		},
	}
	runHTTPTests(t, app, tests)

	req, rec := newAuthRequest(http.MethodPost, "/admin/classes", token, []byte(`{"number": 5, "section": "C"}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var got classroom.Class
	decodeBody(t, rec, &got)
	assert.Equal(t, classroom.ClassRef{Number: 5, Section: "C"}, got.Ref())
}

func Test_adminApi_courses(t *testing.T) {
	app := setup(t)
	token := getToken(t, createUser(t, "Ada Admin", "ada@school.test", user.RoleAdmin, 0))
	c3 := testutil.CreateClass(t, classRepo, 3, "A")
	c4 := testutil.CreateClass(t, classRepo, 4, "A")
	reading := testutil.CreateCourse(t, courseRepo, c3, "Reading", "English")
	maths := testutil.CreateCourse(t, courseRepo, c3, "Maths", "Maths")
	physics := testutil.CreateCourse(t, courseRepo, c4, "Physics", "Science")
	testutil.CreateMaterial(t, matRepo, physics, "forces", user.User{})

	tests := []httpTest{
		{name: "all", path: "/admin/courses", token: token, wantCode: http.StatusOK, wantData: marchallList(t, maths, reading, physics)},
		{name: "class_id", path: "/admin/courses?class_id=" + c4.ID, token: token, wantCode: http.StatusOK, wantData: marchallList(t, physics)},
		{name: "search", path: "/admin/courses?search=engl", token: token, wantCode: http.StatusOK, wantData: marchallList(t, reading)},
		{
			name: "unknown class", method: http.MethodPost, path: "/admin/courses", token: token,
			body:     marchallObj(t, course.NewCourse{Name: "Art", Subject: "Art", ClassID: "9b2d7c4e-5e0f-4a53-9d5a-0c8a7f3e2b11"}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"class_id": "unknown class"}`),
		},
		{
			name: "missing name", method: http.MethodPost, path: "/admin/courses", token: token,
			body:     marchallObj(t, course.NewCourse{Subject: "Art", ClassID: c3.ID}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"name": "this field is required"}`),
		},
		{name: "delete", method: http.MethodDelete, path: "/admin/courses/" + physics.ID, token: token, wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: "/admin/courses/" + physics.ID, token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "materials cascade", path: "/admin/materials", token: token, wantCode: http.StatusOK, wantData: marchallList(t)},
	}
	runHTTPTests(t, app, tests)

	req, rec := newAuthRequest(http.MethodPost, "/admin/courses", token,
		marchallObj(t, course.NewCourse{Name: " Art ", Subject: "Art", ClassID: c4.ID, IsOptional: true}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got course.Course
	decodeBody(t, rec, &got)
	assert.Equal(t, "Art", got.Name)
	assert.True(t, got.IsOptional)
	assert.Equal(t, c4.Ref(), got.Class)
}

// attendanceJSON mirrors the attendance view payload.
type attendanceJSON struct {
	Date    string `json:"date"`
	Class   *int   `json:"class"`
	Total   int    `json:"total"`
	Entries []struct {
		Kind    string            `json:"kind"`
		Student user.User         `json:"student"`
		Record  attendance.Record `json:"record"`
	} `json:"entries"`
}

func Test_adminApi_attendance(t *testing.T) {
	app := setup(t)
	token := getToken(t, createUser(t, "Ada Admin", "ada@school.test", user.RoleAdmin, 0))
	ab := createUser(t, "A B", "ab@school.test", user.RoleStudent, 3)
	cy := createUser(t, "Cy Dee", "cy@school.test", user.RoleStudent, 3)
	ed := createUser(t, "Ed Fox", "ed@school.test", user.RoleStudent, 4)

	day := core.NewDate(2024, time.January, 1)
	abRec := testutil.CreateRecord(t, attRepo, ab, day, attendance.StatusPresent)
	testutil.CreateRecord(t, attRepo, ed, day, attendance.StatusLate)            // off-roster for class 3
	testutil.CreateRecord(t, attRepo, cy, day.AddDays(1), attendance.StatusLate) // another day

	view := func(t *testing.T, path string) attendanceJSON {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var v attendanceJSON
		decodeBody(t, rec, &v)
		return v
	}

	t.Run("class roster", func(t *testing.T) {
		v := view(t, "/admin/attendance?date=2024-01-01&class=3")
		assert.Equal(t, "2024-01-01", v.Date)
		require.NotNil(t, v.Class)
		assert.Equal(t, 3, *v.Class)
		assert.Equal(t, 2, v.Total)
		require.Len(t, v.Entries, 2)

		assert.Equal(t, "persisted", v.Entries[0].Kind)
		assert.Equal(t, ab.ID, v.Entries[0].Student.ID)
		assert.Equal(t, abRec.ID, v.Entries[0].Record.ID)
		assert.Equal(t, attendance.StatusPresent, v.Entries[0].Record.Status)

		assert.Equal(t, "synthesized", v.Entries[1].Kind)
		assert.Equal(t, cy.ID, v.Entries[1].Student.ID)
		assert.Empty(t, v.Entries[1].Record.ID)
		assert.Equal(t, attendance.StatusAbsent, v.Entries[1].Record.Status)
	})

	t.Run("all students", func(t *testing.T) {
		v := view(t, "/admin/attendance?date=2024-01-01")
		assert.Nil(t, v.Class)
		assert.Equal(t, 3, v.Total)
		require.Len(t, v.Entries, 3)
		assert.Equal(t, ed.ID, v.Entries[2].Student.ID)
		assert.Equal(t, attendance.StatusLate, v.Entries[2].Record.Status)

		for _, class := range []string{"all", "ALL", " All "} {
			vAll := view(t, "/admin/attendance?date=2024-01-01&class="+url.QueryEscape(class))
			assert.Nil(t, vAll.Class, class)
			assert.Equal(t, v.Total, vAll.Total, class)
			assert.Equal(t, v.Entries, vAll.Entries, class)
		}
	})

	t.Run("search narrows the list only", func(t *testing.T) {
		v := view(t, "/admin/attendance?date=2024-01-01&class=3&search=dee")
		assert.Equal(t, 2, v.Total)
		require.Len(t, v.Entries, 1)
		assert.Equal(t, cy.ID, v.Entries[0].Student.ID)
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "bad date", path: "/admin/attendance?date=01/01/2024", token: token, wantCode: http.StatusBadRequest,
			wantData: []byte(`{"date": "invalid date, expected format YYYY-MM-DD"}`),
		},
		{
			name: "mark bad status", method: http.MethodPut, path: "/admin/attendance/" + cy.ID + "?date=2024-01-01",
			token: token, body: []byte(`{"status": "sick"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"status": "status must be one of present, absent or late"}`),
		},
		{
			name: "mark unknown student", method: http.MethodPut, path: "/admin/attendance/nope?date=2024-01-01",
			token: token, body: []byte(`{"status": "late"}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	})

	t.Run("mark then rebuild", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/admin/attendance/"+cy.ID+"?date=2024-01-01&class=3", token, []byte(`{"status": "Late"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var v attendanceJSON
		decodeBody(t, rec, &v)
		require.Len(t, v.Entries, 2)
		assert.Equal(t, "persisted", v.Entries[1].Kind)
		assert.NotEmpty(t, v.Entries[1].Record.ID)
		assert.Equal(t, attendance.StatusLate, v.Entries[1].Record.Status)

		// marking again updates the same record
		req, rec = newAuthRequest(http.MethodPut, "/admin/attendance/"+cy.ID+"?date=2024-01-01&class=3", token, []byte(`{"status": "present"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var v2 attendanceJSON
		decodeBody(t, rec, &v2)
		assert.Equal(t, v.Entries[1].Record.ID, v2.Entries[1].Record.ID)
		assert.Equal(t, attendance.StatusPresent, v2.Entries[1].Record.Status)

		n, err := attRepo.CountRecords(context.Background(), attendance.RecordFilter{Date: day})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("export", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/admin/attendance/export?date=2024-01-01&class=3&search=a+b", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="attendance-2024-01-01.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "Name,Class,Status,Date\nA B,Class 3,present,2024-01-01\n", rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/admin/attendance/export?date=2024-01-01&class=all&search=fox", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Name,Class,Status,Date\nEd Fox,Class 4,late,2024-01-01\n", rec.Body.String())
	})

	t.Run("mark across all classes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/admin/attendance/"+ed.ID+"?date=2024-01-01&class=all", token, []byte(`{"status": "absent"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var v attendanceJSON
		decodeBody(t, rec, &v)
		assert.Nil(t, v.Class)
		require.Len(t, v.Entries, 3)
		assert.Equal(t, ed.ID, v.Entries[2].Student.ID)
		assert.Equal(t, "persisted", v.Entries[2].Kind)
		assert.Equal(t, attendance.StatusAbsent, v.Entries[2].Record.Status)
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "unknown class word", path: "/admin/attendance?date=2024-01-01&class=every", token: token,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"class": "must be a class number"}`),
		},
	})
}

func Test_adminApi_fees(t *testing.T) {
	app := setup(t)
	token := getToken(t, createUser(t, "Ada Admin", "ada@school.test", user.RoleAdmin, 0))
	ann := createUser(t, "Ann Bell", "ann@school.test", user.RoleStudent, 3)
	c3 := testutil.CreateClass(t, classRepo, 3, "A")
	c4 := testutil.CreateClass(t, classRepo, 4, "B")

	due := core.NewDate(2024, time.March, 1)
	trip := testutil.CreateFee(t, feeRepo, c4, 2550, due, "Trip, museum")
	tuition := testutil.CreateFee(t, feeRepo, c3, 10000, due, "Tuition")
	books := testutil.CreateFee(t, feeRepo, c3, 1999, due.AddDays(-10), `Books "set"`)

	runHTTPTests(t, app, []httpTest{
		{name: "all", path: "/admin/fees", token: token, wantCode: http.StatusOK, wantData: marchallList(t, books, tuition, trip)},
		{name: "class_id", path: "/admin/fees?class_id=" + c4.ID, token: token, wantCode: http.StatusOK, wantData: marchallList(t, trip)},
		{name: "search", path: "/admin/fees?search=TUIT", token: token, wantCode: http.StatusOK, wantData: marchallList(t, tuition)},
		{
			name: "invalid fee", method: http.MethodPost, path: "/admin/fees", token: token,
			body:     []byte(`{"class_id": "` + c3.ID + `", "amount": 0, "due_date": "2024-04-01", "description": "Sports"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"amount": "amount must be greater than 0"}`),
		},
	})

	t.Run("create", func(t *testing.T) {
		body := []byte(`{"class_id": "` + c3.ID + `", "amount": "45.50", "due_date": "2024-04-01", "description": "Sports"}`)
		req, rec := newAuthRequest(http.MethodPost, "/admin/fees", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var got fee.Fee
		decodeBody(t, rec, &got)
		assert.Equal(t, fee.Amount(4550), got.Amount)
		assert.Equal(t, "2024-04-01", got.DueDate.String())
		assert.Equal(t, c3.Ref(), got.Class)
	})

	t.Run("export", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/admin/fees/export?class_id="+c4.ID, token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="fees-`)
		created := core.DateOf(trip.CreatedAt).String()
		assert.Equal(t,
			"Class,Amount,Due Date,Description,Created At\n"+
				`Class 4 - B,25.50,2024-03-01,"Trip, museum",`+created+"\n",
			rec.Body.String())
	})

	t.Run("payments", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/admin/payments", token,
			[]byte(`{"student_id": "`+ann.ID+`", "fee_id": "`+tuition.ID+`", "amount": 100}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var p fee.Payment
		decodeBody(t, rec, &p)
		assert.Equal(t, fee.PaymentPending, p.Status)
		assert.Equal(t, fee.Amount(10000), p.Amount)
		assert.Equal(t, fee.StudentRef{FullName: ann.FullName, Email: ann.Email}, p.Student)

		runHTTPTests(t, app, []httpTest{
			{
				name: "unknown fee", method: http.MethodPost, path: "/admin/payments", token: token,
				body:     []byte(`{"student_id": "` + ann.ID + `", "fee_id": "9b2d7c4e-5e0f-4a53-9d5a-0c8a7f3e2b11", "amount": 1}`),
				wantCode: http.StatusBadRequest, wantData: []byte(`{"fee_id": "unknown fee"}`),
			},
			{
				name: "bad status", method: http.MethodPatch, path: "/admin/payments/" + p.ID, token: token,
				body:     []byte(`{"status": "refunded"}`),
				wantCode: http.StatusBadRequest, wantData: []byte(`{"status": "status must be one of pending, completed or failed"}`),
			},
			{
				name: "unknown payment", method: http.MethodPatch, path: "/admin/payments/nope", token: token,
				body:     []byte(`{"status": "completed"}`),
				wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
			},
		})

		req, rec = newAuthRequest(http.MethodPatch, "/admin/payments/"+p.ID, token, []byte(`{"status": "completed"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		p.Status = fee.PaymentCompleted

		req, rec = newAuthRequest(http.MethodGet, "/admin/payments?status=completed", token)
		app.ServeHTTP(rec, req)
		var list []fee.Payment
		decodeBody(t, rec, &list)
		require.Len(t, list, 1)
		assert.Equal(t, p.ID, list[0].ID)
		assert.Equal(t, fee.PaymentCompleted, list[0].Status)
	})
}

func Test_adminApi_materials(t *testing.T) {
	app := setup(t)
	admin := createUser(t, "Ada Admin", "ada@school.test", user.RoleAdmin, 0)
	token := getToken(t, admin)
	c3 := testutil.CreateClass(t, classRepo, 3, "A")
	maths := testutil.CreateCourse(t, courseRepo, c3, "Maths", "Maths")
	reading := testutil.CreateCourse(t, courseRepo, c3, "Reading", "English")

	now := time.Now()
	fractions := testutil.CreateMaterial(t, matRepo, maths, "fractions", admin, now.Add(-time.Hour))
	poems := testutil.CreateMaterial(t, matRepo, reading, "poems", admin, now)

	runHTTPTests(t, app, []httpTest{
		{name: "newest first", path: "/admin/materials", token: token, wantCode: http.StatusOK, wantData: marchallList(t, poems, fractions)},
		{name: "course_id", path: "/admin/materials?course_id=" + maths.ID, token: token, wantCode: http.StatusOK, wantData: marchallList(t, fractions)},
		{name: "search", path: "/admin/materials?search=POEM", token: token, wantCode: http.StatusOK, wantData: marchallList(t, poems)},
		{
			name: "bad url", method: http.MethodPost, path: "/admin/materials", token: token,
			body:     marchallObj(t, material.NewMaterial{Title: "x", FileURL: "not a url", FileType: "pdf", CourseID: maths.ID}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"file_url": "file_url must be a valid URL"}`),
		},
		{name: "delete", method: http.MethodDelete, path: "/admin/materials/" + fractions.ID, token: token, wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: "/admin/materials/" + fractions.ID, token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	})

	req, rec := newAuthRequest(http.MethodPost, "/admin/materials", token, marchallObj(t, material.NewMaterial{
		Title: "Times tables", FileURL: "https://files.example.com/times.pdf", FileType: "PDF", CourseID: maths.ID,
	}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got material.Material
	decodeBody(t, rec, &got)
	assert.Equal(t, "pdf", got.FileType)
	assert.Equal(t, admin.ID, got.UploadedBy.String)
	assert.Equal(t, material.CourseRef{Name: "Maths", Subject: "Maths"}, got.Course)
}
