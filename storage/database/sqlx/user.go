package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/user"
)

var (
	userColumns  = []string{"id", "email", "full_name", "role", "class_number", "profile_image", "password_hash", "created_at", "updated_at"}
	userOrdering = []core.DBOrdering{{Field: "full_name", Ascending: true}, {Field: "id", Ascending: true}}
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := psql.Select("COUNT(*)").From("users").Where(sq.Eq{"email": email})
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		query = query.Where(sq.NotEq{"id::text": ids})
	}

	var count int
	if err := repo.db.getBuilt(ctx, &count, query); err != nil {
		return errors.Wrap(err, "counting users by email")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, full_name, role, class_number, profile_image, password_hash, created_at, updated_at)
		VALUES (:id, :email, :full_name, :role, :class_number, :profile_image, :password_hash, :created_at, :updated_at)`,
		usr,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	query := psql.Select(userColumns...).From("users")
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		query = query.Where(sq.Eq{"id": filter.ID})
	case filter.Email != "":
		query = query.Where(sq.Eq{"email": filter.Email})
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.db.getBuilt(ctx, &usr, query); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return usr, nil
}

func userConds(filter user.QueryFilter) sq.And {
	var role, class sq.Sqlizer
	if filter.Role != "" {
		role = sq.Eq{"role": filter.Role}
	}
	if filter.ClassNumber.Valid {
		class = sq.Eq{"class_number": filter.ClassNumber.Int}
	}
	return conds(role, class, inList("id::text", filter.IDs), search(filter.Search, "full_name", "email"))
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	query := psql.Select(userColumns...).From("users").Where(userConds(filter)).OrderBy(orderBy(userOrdering...)...)
	users := make([]user.User, 0)
	if err := repo.db.selectBuilt(ctx, &users, query); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return users, nil
}

func (repo *userRepository) CountUsers(ctx context.Context, filter user.QueryFilter) (int, error) {
	var count int
	if err := repo.db.getBuilt(ctx, &count, psql.Select("COUNT(*)").From("users").Where(userConds(filter))); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return count, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE users SET
			email = :email,
			full_name = :full_name,
			class_number = :class_number,
			profile_image = :profile_image,
			password_hash = :password_hash,
			updated_at = :updated_at
		WHERE id = :id`,
		usr,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}

// DeleteUsersByID relies on the schema's cascades for attendance, payments & materials.
func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.execBuilt(ctx, psql.Delete("users").Where(sq.Eq{"id::text": ids})); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
