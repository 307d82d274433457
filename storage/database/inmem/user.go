package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.user.table))
	for _, u := range repo.db.user.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.user.mutex.RLock()
	defer repo.db.user.mutex.RUnlock()

	for _, usr := range repo.db.user.table {
		if usr.Email == email && !isExcluded(*usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.user.mutex.Lock()
	defer repo.db.user.mutex.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	for _, u := range repo.db.user.table {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.user.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.user.mutex.RLock()
	defer repo.db.user.mutex.RUnlock()

	switch {
	case filter.ID != "":
		if usr, ok := repo.db.user.table[filter.ID]; ok {
			return *usr, nil
		}
	case filter.Email != "":
		for _, usr := range repo.db.user.table {
			if usr.Email == filter.Email {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) filter(filter user.QueryFilter) []user.User {
	search := strings.ToLower(filter.Search)
	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if filter.ClassNumber.Valid && (!usr.ClassNumber.Valid || usr.ClassNumber.Int != filter.ClassNumber.Int) {
			continue
		}
		if filter.IDs != nil && !containsString(filter.IDs, usr.ID) {
			continue
		}
		if search != "" && !(core.ContainsFold(usr.FullName, search) || core.ContainsFold(usr.Email, search)) {
			continue
		}
		users = append(users, usr)
	}
	return users
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.user.mutex.RLock()
	defer repo.db.user.mutex.RUnlock()

	users := repo.filter(filter)
	sort.Slice(users, func(i, j int) bool {
		if users[i].FullName != users[j].FullName {
			return users[i].FullName < users[j].FullName
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (repo *userRepository) CountUsers(_ context.Context, filter user.QueryFilter) (int, error) {
	repo.db.user.mutex.RLock()
	defer repo.db.user.mutex.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.user.mutex.Lock()
	defer repo.db.user.mutex.Unlock()

	origUsr, ok := repo.db.user.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	// only save set fields
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	origUsr.FullName = usr.FullName
	origUsr.Email = usr.Email
	origUsr.ClassNumber = usr.ClassNumber
	origUsr.ProfileImage = usr.ProfileImage
	origUsr.UpdatedAt = usr.UpdatedAt
	return *origUsr, nil
}

// DeleteUsersByID also deletes the users' attendance records & payments.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.user.mutex.Lock()
	for _, id := range ids {
		delete(repo.db.user.table, id)
	}
	repo.db.user.mutex.Unlock()

	repo.db.attendance.mutex.Lock()
	for id, rec := range repo.db.attendance.table {
		if containsString(ids, rec.StudentID) {
			delete(repo.db.attendance.table, id)
		}
	}
	repo.db.attendance.mutex.Unlock()

	repo.db.payment.mutex.Lock()
	for id, p := range repo.db.payment.table {
		if containsString(ids, p.StudentID) {
			delete(repo.db.payment.table, id)
		}
	}
	repo.db.payment.mutex.Unlock()

	repo.db.material.mutex.Lock()
	for _, m := range repo.db.material.table {
		if m.UploadedBy.Valid && containsString(ids, m.UploadedBy.String) {
			m.UploadedBy.Valid = false
			m.UploadedBy.String = ""
		}
	}
	repo.db.material.mutex.Unlock()
	return nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}
