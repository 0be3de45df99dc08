package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserFinder reads users. The default finder hides removed rows, the
// one returned by Users.WithDeleted includes them.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, opts ListOptions) ([]*User, int, error)
}

// Users is the soft-delete aware user store
type Users interface {
	UserFinder
	WithDeleted() UserFinder

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Save(ctx context.Context, user *User) (*User, error)
	SaveTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	UpdateTrackingActivity(ctx context.Context, user *User, ipAddress string) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	SoftDelete(ctx context.Context, user *User) error
	BulkDelete(ctx context.Context, ids []string) (int, error)
	GetBulkActionIDs(ctx context.Context, scope string, ids, omitIDs []string, query string) ([]string, error)
}

// ListOptions controls sorting, search and paging of List
type ListOptions struct {
	Sort      string
	Direction string
	Query     string
	Limit     int
	Offset    int
}

type users struct {
	repository.Repository[*User]
	db    *bun.DB
	clock Clock
}

var _ Users = (*users)(nil)

// UsersOption configures the users repository
type UsersOption func(*users)

// WithUsersClock injects a custom clock (useful for tests).
func WithUsersClock(clock Clock) UsersOption {
	return func(u *users) {
		if clock != nil {
			u.clock = clock
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) finder(withDeleted bool) userFinder {
	return userFinder{db: a.db, withDeleted: withDeleted}
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.finder(false).FindByID(ctx, id)
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.finder(false).FindByEmail(ctx, email)
}

func (a *users) List(ctx context.Context, opts ListOptions) ([]*User, int, error) {
	return a.finder(false).List(ctx, opts)
}

// WithDeleted returns a finder that includes removed users
func (a *users) WithDeleted() UserFinder {
	return a.finder(true)
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	a.prepareUserDefaults(user)

	record, err := a.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}

	return record, nil
}

func (a *users) Save(ctx context.Context, user *User) (*User, error) {
	return a.SaveTx(ctx, a.db, user)
}

func (a *users) SaveTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user == nil || user.ID == uuid.Nil {
		return nil, goerrors.New("user must have an id to be saved", goerrors.CategoryBadInput)
	}

	now := a.clock.now()
	user.UpdatedAt = &now
	user.Email = normalizeEmail(user.Email)

	res, err := tx.NewUpdate().
		Model(user).
		ExcludeColumn("id", "created_at", "deleted_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// UpdateTrackingActivity moves the current sign in pair into the last
// sign in pair, stamps a new current pair and bumps the counter. The
// write is last-write-wins, callers invoke it once per login.
func (a *users) UpdateTrackingActivity(ctx context.Context, user *User, ipAddress string) error {
	if user == nil {
		return ErrUserNotFound
	}

	now := a.clock.now()

	user.SignInCount++
	user.LastSignInOn = user.CurrentSignInOn
	user.LastSignInIP = user.CurrentSignInIP
	user.CurrentSignInOn = &now
	user.CurrentSignInIP = ipAddress
	user.UpdatedAt = &now

	_, err := a.db.NewUpdate().
		Model(user).
		Column(
			"sign_in_count",
			"last_sign_in_on",
			"last_sign_in_ip",
			"current_sign_in_on",
			"current_sign_in_ip",
			"updated_at",
		).
		WherePK().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update tracking activity")
	}

	return nil
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	now := a.clock.now()
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("password = ?", passwordHash).
		Set("updated_at = ?", now).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reset password")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SoftDelete flags the user as removed. The row stays in place.
func (a *users) SoftDelete(ctx context.Context, user *User) error {
	if user == nil || user.ID == uuid.Nil {
		return ErrUserNotFound
	}

	res, err := a.db.NewDelete().
		Model(user).
		WherePK().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}

	if user.DeletedAt == nil {
		now := a.clock.now()
		user.DeletedAt = &now
	}

	return nil
}

// BulkDelete soft deletes the users with the given ids and returns
// how many rows were flagged.
func (a *users) BulkDelete(ctx context.Context, ids []string) (int, error) {
	uids := parseUUIDs(ids)
	if len(uids) == 0 {
		return 0, nil
	}

	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id IN (?)", bun.In(uids)).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to bulk remove users")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count removed users")
	}

	return int(n), nil
}

// GetBulkActionIDs resolves the ids a bulk action applies to. With the
// "all_search_results" scope every live user matching query is selected.
// omitIDs are always dropped, e.g. to keep admins from removing themselves.
func (a *users) GetBulkActionIDs(ctx context.Context, scope string, ids, omitIDs []string, query string) ([]string, error) {
	if scope == BulkScopeAllSearchResults {
		var found []uuid.UUID
		err := a.db.NewSelect().
			Model((*User)(nil)).
			Column("id").
			Apply(searchUsers(query)).
			Scan(ctx, &found)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve bulk action ids")
		}

		ids = make([]string, 0, len(found))
		for _, id := range found {
			ids = append(ids, id.String())
		}
	}

	return OmitIDs(ids, omitIDs), nil
}

func (a *users) prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleMember
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = normalizeEmail(record.Email)

	now := a.clock.now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	record.UpdatedAt = &now
}

type userFinder struct {
	db          bun.IDB
	withDeleted bool
}

func (f userFinder) query(model any) *bun.SelectQuery {
	q := f.db.NewSelect().Model(model)
	if f.withDeleted {
		q = q.WhereAllWithDeleted()
	}
	return q
}

func (f userFinder) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}
	err := f.query(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	return f.result(record, err, "id", id.String())
}

func (f userFinder) FindByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}
	err := f.query(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	return f.result(record, err, "email", email)
}

func (f userFinder) List(ctx context.Context, opts ListOptions) ([]*User, int, error) {
	field, direction := SortBy(userSortColumns, opts.Sort, opts.Direction)

	var records []*User
	q := f.query(&records).
		Apply(searchUsers(opts.Query)).
		OrderExpr("?TableAlias.? "+strings.ToUpper(direction), bun.Ident(field))

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	count, err := q.ScanAndCount(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	return records, count, nil
}

func (f userFinder) result(record *User, err error, key, value string) (*User, error) {
	if err == nil {
		return record, nil
	}

	if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
		return nil, ErrUserNotFound
	}

	return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user").
		WithMetadata(map[string]any{key: value})
}

var userSortColumns = []string{
	"created_at",
	"updated_at",
	"email",
	"name",
	"role",
	"is_active",
	"sign_in_count",
	"current_sign_in_on",
	"last_sign_in_on",
}

func searchUsers(query string) func(*bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		term := strings.ToLower(strings.TrimSpace(query))
		if term == "" {
			return q
		}
		pattern := "%" + term + "%"
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(?TableAlias.email) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.name) LIKE ?", pattern)
		})
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseUUIDs(ids []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if uid, err := uuid.Parse(strings.TrimSpace(id)); err == nil {
			out = append(out, uid)
		}
	}
	return out
}
