// Package testutil holds fixtures shared by the repository & API tests.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/attendance"
	"github.com/trezcool/schooldesk/core/classroom"
	"github.com/trezcool/schooldesk/core/course"
	"github.com/trezcool/schooldesk/core/fee"
	"github.com/trezcool/schooldesk/core/material"
	"github.com/trezcool/schooldesk/core/user"
)

func timestamp(createdAt []time.Time) time.Time {
	if len(createdAt) > 0 {
		return createdAt[0].UTC()
	}
	return time.Now().UTC()
}

// CreateUser stores a user; classNumber 0 leaves the class empty.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	fullName, email, pwd string,
	role user.Role,
	classNumber int,
	createdAt ...time.Time,
) user.User {
	tstamp := timestamp(createdAt)
	usr := user.User{
		FullName:  fullName,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if classNumber > 0 {
		usr.ClassNumber = null.IntFrom(classNumber)
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClass(t *testing.T, repo classroom.Repository, number int, section string) classroom.Class {
	c, err := repo.CreateClass(context.Background(), classroom.Class{
		Number:    number,
		Section:   section,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return c
}

func CreateCourse(t *testing.T, repo course.Repository, class classroom.Class, name, subject string) course.Course {
	c, err := repo.CreateCourse(context.Background(), course.Course{
		Name:      name,
		Subject:   subject,
		ClassID:   class.ID,
		Class:     class.Ref(),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func CreateRecord(
	t *testing.T,
	repo attendance.Repository,
	student user.User,
	date core.Date,
	status attendance.Status,
) attendance.Record {
	now := time.Now().UTC()
	rec, err := repo.SaveRecord(context.Background(), attendance.Record{
		StudentID: student.ID,
		Date:      date,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}

func CreateFee(
	t *testing.T,
	repo fee.Repository,
	class classroom.Class,
	amount fee.Amount,
	due core.Date,
	description string,
) fee.Fee {
	f, err := repo.CreateFee(context.Background(), fee.Fee{
		ClassID:     class.ID,
		Class:       class.Ref(),
		Amount:      amount,
		DueDate:     due,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateFee() failed: %v", err)
	}
	return f
}

func CreatePayment(
	t *testing.T,
	repo fee.Repository,
	student user.User,
	f fee.Fee,
	amount fee.Amount,
	status fee.PaymentStatus,
	createdAt ...time.Time,
) fee.Payment {
	tstamp := timestamp(createdAt)
	p, err := repo.CreatePayment(context.Background(), fee.Payment{
		StudentID:   student.ID,
		Student:     fee.StudentRef{FullName: student.FullName, Email: student.Email},
		FeeID:       f.ID,
		Amount:      amount,
		PaymentDate: core.DateOf(tstamp),
		Status:      status,
		CreatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreatePayment() failed: %v", err)
	}
	return p
}

func CreateMaterial(
	t *testing.T,
	repo material.Repository,
	c course.Course,
	title string,
	uploader user.User,
	createdAt ...time.Time,
) material.Material {
	m := material.Material{
		Title:     title,
		FileURL:   "https://files.example.com/" + title,
		FileType:  "pdf",
		CourseID:  c.ID,
		Course:    material.CourseRef{Name: c.Name, Subject: c.Subject},
		CreatedAt: timestamp(createdAt),
	}
	if uploader.ID != "" {
		m.UploadedBy = null.StringFrom(uploader.ID)
	}
	m, err := repo.CreateMaterial(context.Background(), m)
	if err != nil {
		t.Fatalf("CreateMaterial() failed: %v", err)
	}
	return m
}

// NewValidator returns a validator with every domain validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	fee.InitValidators(validate, translator)
	return validate, translator
}
