// Package user manages accounts: registration, authentication and role
// assignment. Passwords are stored as bcrypt hashes; roles are the
// four-level hierarchy from the access package.
package user

import (
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/errors"
	"github.com/hafizlab/alfurqan/internal/logging"
	"github.com/hafizlab/alfurqan/internal/validation"
)

// User is one account. PasswordHash never leaves the package.
type User struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Role      access.Role `json:"role"`
	CreatedAt string      `json:"created_at"`
}

// Actor converts a user record into the actor value core operations
// take.
func (u *User) Actor() access.Actor {
	return access.Actor{ID: u.ID, Role: u.Role}
}

// Policy carries the store's behavior knobs.
type Policy struct {
	// AllowLastAdminDemotion permits SetRole to demote or delete the
	// only remaining Admin. Off by default so a store cannot be locked
	// out of administration.
	AllowLastAdminDemotion bool
}

// Store provides account persistence.
type Store struct {
	db     *sql.DB
	policy Policy
}

// New creates a Store with default policy.
func New(db *sql.DB) *Store {
	return NewWithPolicy(db, Policy{})
}

// NewWithPolicy creates a Store with an explicit policy.
func NewWithPolicy(db *sql.DB, policy Policy) *Store {
	return &Store{db: db, policy: policy}
}

// Create registers a new account with the given role. The username must
// pass the shared username rules and be unused.
func (s *Store) Create(username, password string, role access.Role) (*User, error) {
	username = strings.TrimSpace(username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, errors.NewValidation("username", err.Error())
	}
	if password == "" {
		return nil, errors.NewValidation("password", "password required")
	}
	if !role.Valid() {
		return nil, errors.NewValidation("role", fmt.Sprintf("unknown role %q", role))
	}

	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&exists)
	if err != nil {
		return nil, errors.NewStorage("check username", err)
	}
	if exists > 0 {
		return nil, errors.NewConflict("user", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	res, err := s.db.Exec(`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, string(hash), role.String())
	if err != nil {
		return nil, errors.NewStorage("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.NewStorage("insert user", err)
	}
	logging.Info("user_created", "username", username, "role", role.String())
	return s.ByID(id)
}

// Authenticate verifies a username/password pair and returns the
// account. A missing user and a wrong password are indistinguishable to
// the caller.
func (s *Store) Authenticate(username, password string) (*User, error) {
	var (
		u    User
		hash string
		role string
	)
	err := s.db.QueryRow(`SELECT id, username, password_hash, role, created_at
		FROM users WHERE username = ?`, strings.TrimSpace(username)).
		Scan(&u.ID, &u.Username, &hash, &role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewPermission("authenticate", "")
	}
	if err != nil {
		return nil, errors.NewStorage("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, errors.NewPermission("authenticate", "")
	}
	u.Role, err = access.ParseRole(role)
	if err != nil {
		return nil, errors.NewStorage("load user", err)
	}
	return &u, nil
}

// ByID returns one account.
func (s *Store) ByID(id int64) (*User, error) {
	return s.scanOne(s.db.QueryRow(`SELECT id, username, role, created_at
		FROM users WHERE id = ?`, id), fmt.Sprintf("%d", id))
}

// ByUsername returns one account.
func (s *Store) ByUsername(username string) (*User, error) {
	return s.scanOne(s.db.QueryRow(`SELECT id, username, role, created_at
		FROM users WHERE username = ?`, strings.TrimSpace(username)), username)
}

// List returns all accounts ordered by username.
func (s *Store) List() ([]User, error) {
	rows, err := s.db.Query(`SELECT id, username, role, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, errors.NewStorage("list users", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var (
			u    User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Username, &role, &u.CreatedAt); err != nil {
			return nil, errors.NewStorage("scan user", err)
		}
		if u.Role, err = access.ParseRole(role); err != nil {
			return nil, errors.NewStorage("scan user", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetRole changes an account's role. Admin only. Demoting the last
// remaining Admin is refused unless the policy allows it.
func (s *Store) SetRole(actor access.Actor, userID int64, role access.Role) (*User, error) {
	if !actor.Can(access.Admin) {
		return nil, errors.NewPermission("set role", access.Admin.String())
	}
	if !role.Valid() {
		return nil, errors.NewValidation("role", fmt.Sprintf("unknown role %q", role))
	}
	target, err := s.ByID(userID)
	if err != nil {
		return nil, err
	}
	if target.Role == access.Admin && role != access.Admin && !s.policy.AllowLastAdminDemotion {
		n, err := s.countAdmins()
		if err != nil {
			return nil, err
		}
		if n <= 1 {
			return nil, errors.NewConflict("admin", target.Username)
		}
	}
	if _, err := s.db.Exec(`UPDATE users SET role = ? WHERE id = ?`, role.String(), userID); err != nil {
		return nil, errors.NewStorage("set role", err)
	}
	logging.Info("role_changed", "user_id", userID, "role", role.String(), "actor_id", actor.ID)
	return s.ByID(userID)
}

// Delete removes an account and, through the schema's cascades, all of
// its annotations. Admin only; the last Admin cannot be deleted unless
// the policy allows it.
func (s *Store) Delete(actor access.Actor, userID int64) error {
	if !actor.Can(access.Admin) {
		return errors.NewPermission("delete user", access.Admin.String())
	}
	target, err := s.ByID(userID)
	if err != nil {
		return err
	}
	if target.Role == access.Admin && !s.policy.AllowLastAdminDemotion {
		n, err := s.countAdmins()
		if err != nil {
			return err
		}
		if n <= 1 {
			return errors.NewConflict("admin", target.Username)
		}
	}
	if _, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, userID); err != nil {
		return errors.NewStorage("delete user", err)
	}
	logging.Info("user_deleted", "user_id", userID, "actor_id", actor.ID)
	return nil
}

// SeedAccount is one account created by Seed.
type SeedAccount struct {
	Username string
	Password string
	Role     access.Role
}

// DefaultSeed is the account set a fresh store is provisioned with.
var DefaultSeed = []SeedAccount{
	{Username: "admin", Password: "admin", Role: access.Admin},
	{Username: "ulama", Password: "ulama", Role: access.Ulama},
	{Username: "user", Password: "user", Role: access.User},
}

// Seed creates the given accounts, skipping usernames that already
// exist. It returns the number created.
func (s *Store) Seed(accounts []SeedAccount) (int, error) {
	if accounts == nil {
		accounts = DefaultSeed
	}
	created := 0
	for _, a := range accounts {
		_, err := s.Create(a.Username, a.Password, a.Role)
		if errors.Is(err, errors.ErrConflict) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Store) countAdmins() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE role = ?`, access.Admin.String()).Scan(&n); err != nil {
		return 0, errors.NewStorage("count admins", err)
	}
	return n, nil
}

func (s *Store) scanOne(row *sql.Row, ref string) (*User, error) {
	var (
		u    User
		role string
	)
	err := row.Scan(&u.ID, &u.Username, &role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("user", ref)
	}
	if err != nil {
		return nil, errors.NewStorage("load user", err)
	}
	if u.Role, err = access.ParseRole(role); err != nil {
		return nil, errors.NewStorage("load user", err)
	}
	return &u, nil
}
