// Package inmemdb is a process-local storage engine, used for development and tests.
package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/schooldesk/core/attendance"
	"github.com/trezcool/schooldesk/core/classroom"
	"github.com/trezcool/schooldesk/core/course"
	"github.com/trezcool/schooldesk/core/fee"
	"github.com/trezcool/schooldesk/core/material"
	"github.com/trezcool/schooldesk/core/user"
)

type (
	DB struct {
		user       *userTable
		class      *classTable
		course     *courseTable
		attendance *attendanceTable
		fee        *feeTable
		payment    *paymentTable
		material   *materialTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	classTable struct {
		table map[string]*classroom.Class
		mutex sync.RWMutex
	}

	courseTable struct {
		table map[string]*course.Course
		mutex sync.RWMutex
	}

	attendanceTable struct {
		table map[string]*attendance.Record
		mutex sync.RWMutex
	}

	feeTable struct {
		table map[string]*fee.Fee
		mutex sync.RWMutex
	}

	paymentTable struct {
		table map[string]*fee.Payment
		mutex sync.RWMutex
	}

	materialTable struct {
		table map[string]*material.Material
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		class:      &classTable{table: make(map[string]*classroom.Class)},
		course:     &courseTable{table: make(map[string]*course.Course)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
		fee:        &feeTable{table: make(map[string]*fee.Fee)},
		payment:    &paymentTable{table: make(map[string]*fee.Payment)},
		material:   &materialTable{table: make(map[string]*material.Material)},
	}
}

func (db *DB) Ping(context.Context) error { return nil }

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
