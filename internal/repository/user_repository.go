package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/erp-api/internal/hierarchy"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/pkg/database"
)

// ErrParentNotFound is returned when parent_id does not reference a user.
var ErrParentNotFound = errors.New("parent user not found")

const userColumns = "id, email, password_hash, full_name, role, active, department_id, parent_id, hierarchy_level, last_login, created_at, updated_at"

const (
	lockNodeQuery = `SELECT id, parent_id, hierarchy_level FROM users WHERE id = $1 FOR UPDATE`
	// UNION drops repeated rows so a pre-existing loop terminates.
	ancestorsQuery = `WITH RECURSIVE ancestors(id, parent_id) AS (
	SELECT id, parent_id FROM users WHERE id = $1
	UNION
	SELECT u.id, u.parent_id FROM users u JOIN ancestors a ON u.id = a.parent_id
) SELECT id FROM ancestors`
	subtreeLockQuery = `WITH RECURSIVE subtree(id) AS (
	SELECT id FROM users WHERE parent_id = $1
	UNION
	SELECT u.id FROM users u JOIN subtree s ON u.parent_id = s.id
) SELECT id, parent_id, hierarchy_level FROM users WHERE id IN (SELECT id FROM subtree) ORDER BY id FOR UPDATE`
	setLevelQuery = `UPDATE users SET hierarchy_level = $2, updated_at = $3 WHERE id = $1`
)

// UserRepository provides database access for user management and the
// reporting hierarchy.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.ParentID != "" {
		conditions = append(conditions, fmt.Sprintf("parent_id = $%d", len(args)+1))
		args = append(args, filter.ParentID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	order := orderClause(filter.SortBy, filter.SortOrder, map[string]bool{
		"email":           true,
		"created_at":      true,
		"updated_at":      true,
		"full_name":       true,
		"hierarchy_level": true,
	}, "created_at")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", userColumns, baseQuery, order, limit, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// Create inserts a new user. When a parent is set the parent row is locked
// and the level derived from it inside the same transaction.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		level, err := resolveParentLevel(ctx, tx, user.ID, user.ParentID)
		if err != nil {
			return err
		}
		user.HierarchyLevel = level

		const query = `INSERT INTO users (id, email, password_hash, full_name, role, active, department_id, parent_id, hierarchy_level, created_at, updated_at) VALUES (:id, :email, :password_hash, :full_name, :role, :active, :department_id, :parent_id, :hierarchy_level, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
}

// Update updates mutable fields of a user. A parent change recomputes the
// user's level and cascades to every descendant atomically.
func (r *UserRepository) Update(ctx context.Context, user *models.User) ([]hierarchy.Change, error) {
	user.UpdatedAt = time.Now().UTC()
	var changes []hierarchy.Change
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := lockNode(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		user.HierarchyLevel = current.HierarchyLevel
		moved := !sameID(current.ParentID, user.ParentID)
		if moved {
			level, err := resolveParentLevel(ctx, tx, user.ID, user.ParentID)
			if err != nil {
				return err
			}
			user.HierarchyLevel = level
		}

		const query = `UPDATE users SET full_name = :full_name, role = :role, active = :active, department_id = :department_id, parent_id = :parent_id, hierarchy_level = :hierarchy_level, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, query, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		if moved {
			changes, err = cascadeLevels(ctx, tx, user.ID, user.HierarchyLevel, user.UpdatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// AssignParent moves a user under parentID (nil makes it a root) and
// returns every level change, the user's own first.
func (r *UserRepository) AssignParent(ctx context.Context, userID string, parentID *string) ([]hierarchy.Change, error) {
	now := time.Now().UTC()
	var changes []hierarchy.Change
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := lockNode(ctx, tx, userID)
		if err != nil {
			return err
		}
		level, err := resolveParentLevel(ctx, tx, userID, parentID)
		if err != nil {
			return err
		}

		const query = `UPDATE users SET parent_id = $2, hierarchy_level = $3, updated_at = $4 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query, userID, parentID, level, now); err != nil {
			return fmt.Errorf("assign parent: %w", err)
		}
		changes = append(changes, hierarchy.Change{ID: userID, Previous: current.HierarchyLevel, Level: level})

		cascaded, err := cascadeLevels(ctx, tx, userID, level, now)
		if err != nil {
			return err
		}
		changes = append(changes, cascaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// ListHierarchyNodes returns the id/parent/level triple of every user.
func (r *UserRepository) ListHierarchyNodes(ctx context.Context) ([]models.HierarchyNode, error) {
	const query = `SELECT id, parent_id, hierarchy_level FROM users ORDER BY id`
	var nodes []models.HierarchyNode
	if err := r.db.SelectContext(ctx, &nodes, query); err != nil {
		return nil, fmt.Errorf("list hierarchy nodes: %w", err)
	}
	return nodes, nil
}

// RebuildLevels recomputes every level from the roots under a table-wide row lock.
func (r *UserRepository) RebuildLevels(ctx context.Context) ([]hierarchy.Change, []hierarchy.Violation, error) {
	var (
		changes    []hierarchy.Change
		violations []hierarchy.Violation
	)
	now := time.Now().UTC()
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `SELECT id, parent_id, hierarchy_level FROM users ORDER BY id FOR UPDATE`
		var nodes []models.HierarchyNode
		if err := tx.SelectContext(ctx, &nodes, query); err != nil {
			return fmt.Errorf("load hierarchy: %w", err)
		}
		changes, violations = hierarchy.Rebuild(nodes)
		return applyLevels(ctx, tx, changes, now)
	})
	if err != nil {
		return nil, nil, err
	}
	return changes, violations, nil
}

// Subordinates returns every transitive report of userID ordered by depth.
func (r *UserRepository) Subordinates(ctx context.Context, userID string) ([]models.Subordinate, error) {
	const query = `WITH RECURSIVE subtree(id, depth) AS (
	SELECT id, 1 FROM users WHERE parent_id = $1
	UNION
	SELECT u.id, s.depth + 1 FROM users u JOIN subtree s ON u.parent_id = s.id WHERE s.depth < 64
) SELECT u.id, u.full_name, u.email, u.role, u.parent_id, u.hierarchy_level, MIN(s.depth) AS depth
FROM subtree s JOIN users u ON u.id = s.id
GROUP BY u.id, u.full_name, u.email, u.role, u.parent_id, u.hierarchy_level
ORDER BY depth, u.full_name`
	subs := make([]models.Subordinate, 0)
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("list subordinates: %w", err)
	}
	return subs, nil
}

// Delete performs a soft delete by marking the user inactive.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateRefreshToken persists a refresh token entry.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent) VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by token string.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes all refresh tokens for a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func lockNode(ctx context.Context, tx *sqlx.Tx, id string) (*models.HierarchyNode, error) {
	var node models.HierarchyNode
	if err := tx.GetContext(ctx, &node, lockNodeQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock user: %w", err)
	}
	return &node, nil
}

// resolveParentLevel locks the parent, rejects self or cyclic assignments and
// returns the level the child must take. A nil parent yields a NULL level.
func resolveParentLevel(ctx context.Context, tx *sqlx.Tx, userID string, parentID *string) (*int, error) {
	if parentID == nil {
		return nil, nil
	}
	if *parentID == userID {
		return nil, hierarchy.ErrSelfParent
	}
	parent, err := lockNode(ctx, tx, *parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParentNotFound
		}
		return nil, err
	}

	var ancestors []string
	if err := tx.SelectContext(ctx, &ancestors, ancestorsQuery, *parentID); err != nil {
		return nil, fmt.Errorf("load ancestors: %w", err)
	}
	if err := hierarchy.CheckParent(userID, *parentID, ancestors); err != nil {
		return nil, err
	}

	level := hierarchy.LevelFor(parent.HierarchyLevel)
	return &level, nil
}

func cascadeLevels(ctx context.Context, tx *sqlx.Tx, rootID string, rootLevel *int, now time.Time) ([]hierarchy.Change, error) {
	var descendants []models.HierarchyNode
	if err := tx.SelectContext(ctx, &descendants, subtreeLockQuery, rootID); err != nil {
		return nil, fmt.Errorf("load subordinates: %w", err)
	}
	changes := hierarchy.Cascade(rootID, rootLevel, descendants)
	if err := applyLevels(ctx, tx, changes, now); err != nil {
		return nil, err
	}
	return changes, nil
}

func applyLevels(ctx context.Context, tx *sqlx.Tx, changes []hierarchy.Change, now time.Time) error {
	for _, c := range changes {
		if _, err := tx.ExecContext(ctx, setLevelQuery, c.ID, c.Level, now); err != nil {
			return fmt.Errorf("update hierarchy level: %w", err)
		}
	}
	return nil
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
