package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type UserDTO struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	IsHR           bool       `json:"is_hr"`
	IsActive       bool       `json:"is_active"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	DepartmentID   *int64     `json:"department_id"`
	DepartmentName *string    `json:"department_name,omitempty"`
}

type DepartmentDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsBreakRoom bool      `json:"is_break_room"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateUserRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Name         string `json:"name" binding:"required"`
	DepartmentID *int64 `json:"department_id"`
	IsHR         bool   `json:"is_hr"`
}

type UpdateUserRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Name         string `json:"name" binding:"required"`
	DepartmentID *int64 `json:"department_id"`
	IsHR         bool   `json:"is_hr"`
	IsActive     bool   `json:"is_active"`
}

type IDirectoryService interface {
	Authenticate(ctx context.Context, email, password string) (*UserDTO, error)
	ListUsers(ctx context.Context) ([]UserDTO, error)
	CreateUser(ctx context.Context, actorID int64, req CreateUserRequest) (*UserDTO, error)
	UpdateUser(ctx context.Context, actorID, id int64, req UpdateUserRequest) (*UserDTO, error)
	DeleteUser(ctx context.Context, actorID, id int64) error
	SwitchDepartment(ctx context.Context, actorID, id, departmentID int64) (*UserDTO, error)
	ListDepartments(ctx context.Context) ([]DepartmentDTO, error)
}

type directoryService struct {
	db *sql.DB
}

func NewDirectoryService(db *sql.DB) IDirectoryService {
	return &directoryService{db: db}
}

// Authenticate checks the password for an active account, touches
// last_login and records the login in the activity log.
func (svc *directoryService) Authenticate(ctx context.Context, email, password string) (*UserDTO, error) {
	const q = `SELECT u.id, u.email, u.password, u.name, u.is_hr, u.is_active,
	                  u.department_id, d.name
	             FROM users u
	             LEFT JOIN departments d ON u.department_id = d.id
	            WHERE u.email = $1 AND u.is_active = true`

	var (
		dto  UserDTO
		hash string
	)
	err := svc.db.QueryRowContext(ctx, q, email).Scan(
		&dto.ID, &dto.Email, &hash, &dto.Name, &dto.IsHR, &dto.IsActive,
		&dto.DepartmentID, &dto.DepartmentName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if _, err := svc.db.ExecContext(ctx,
		`UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1`, dto.ID); err != nil {
		return nil, err
	}
	svc.logActivity(ctx, dto.ID, "login", "User logged in successfully")
	return &dto, nil
}

func (svc *directoryService) ListUsers(ctx context.Context) ([]UserDTO, error) {
	const q = `SELECT u.id, u.email, u.name, u.is_hr, u.is_active, u.last_login,
	                  u.created_at, d.name, d.id
	             FROM users u
	             LEFT JOIN departments d ON u.department_id = d.id
	            ORDER BY u.created_at DESC`

	rows, err := svc.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]UserDTO, 0)
	for rows.Next() {
		var u UserDTO
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.IsHR, &u.IsActive,
			&u.LastLogin, &u.CreatedAt, &u.DepartmentName, &u.DepartmentID); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (svc *directoryService) CreateUser(ctx context.Context, actorID int64, req CreateUserRequest) (*UserDTO, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
	if err != nil {
		return nil, err
	}

	const q = `INSERT INTO users (email, password, name, department_id, is_hr)
	                VALUES ($1, $2, $3, $4, $5)
	             RETURNING id, email, name, is_hr, department_id, created_at`

	var dto UserDTO
	if err := svc.db.QueryRowContext(ctx, q,
		req.Email, string(hash), req.Name, req.DepartmentID, req.IsHR,
	).Scan(&dto.ID, &dto.Email, &dto.Name, &dto.IsHR, &dto.DepartmentID, &dto.CreatedAt); err != nil {
		return nil, err
	}
	dto.IsActive = true

	svc.logActivity(ctx, actorID, "create_user", fmt.Sprintf("Created user: %s", req.Email))
	return &dto, nil
}

func (svc *directoryService) UpdateUser(ctx context.Context, actorID, id int64, req UpdateUserRequest) (*UserDTO, error) {
	const q = `UPDATE users
	              SET email = $1, name = $2, department_id = $3, is_hr = $4, is_active = $5
	            WHERE id = $6
	        RETURNING id, email, name, is_hr, department_id, is_active`

	var dto UserDTO
	err := svc.db.QueryRowContext(ctx, q,
		req.Email, req.Name, req.DepartmentID, req.IsHR, req.IsActive, id,
	).Scan(&dto.ID, &dto.Email, &dto.Name, &dto.IsHR, &dto.DepartmentID, &dto.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	svc.logActivity(ctx, actorID, "update_user", fmt.Sprintf("Updated user: %s", req.Email))
	return &dto, nil
}

func (svc *directoryService) DeleteUser(ctx context.Context, actorID, id int64) error {
	var email string
	err := svc.db.QueryRowContext(ctx,
		`DELETE FROM users WHERE id = $1 RETURNING email`, id).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	svc.logActivity(ctx, actorID, "delete_user", fmt.Sprintf("Deleted user: %s", email))
	return nil
}

func (svc *directoryService) SwitchDepartment(ctx context.Context, actorID, id, departmentID int64) (*UserDTO, error) {
	const q = `UPDATE users SET department_id = $1 WHERE id = $2
	        RETURNING id, email, name, department_id`

	var dto UserDTO
	err := svc.db.QueryRowContext(ctx, q, departmentID, id).Scan(
		&dto.ID, &dto.Email, &dto.Name, &dto.DepartmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	svc.logActivity(ctx, actorID, "switch_department",
		fmt.Sprintf("Switched to department ID: %d", departmentID))
	return &dto, nil
}

func (svc *directoryService) ListDepartments(ctx context.Context) ([]DepartmentDTO, error) {
	rows, err := svc.db.QueryContext(ctx,
		`SELECT id, name, coalesce(description,''), is_break_room, created_at
		   FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]DepartmentDTO, 0)
	for rows.Next() {
		var d DepartmentDTO
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.IsBreakRoom, &d.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// logActivity is best-effort: a failed audit row never fails the request.
func (svc *directoryService) logActivity(ctx context.Context, userID int64, kind, desc string) {
	_, err := svc.db.ExecContext(ctx,
		`INSERT INTO user_activity (user_id, activity_type, description) VALUES ($1, $2, $3)`,
		userID, kind, desc)
	if err != nil {
		zap.L().Warn("directory.activity", zap.String("type", kind), zap.Error(err))
	}
}
