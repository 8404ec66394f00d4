package auth

import "fmt"

// Role 是账号的固定身份，注册时确定。
type Role string

const (
	RoleSeeker   Role = "seeker"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleSeeker, RoleEmployer, RoleAdmin:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// SelfRegistrableRoles 列出注册表单可选的身份；admin 只能通过 CLI 创建。
func SelfRegistrableRoles() []Role {
	return []Role{RoleSeeker, RoleEmployer}
}

// Actor 是当前请求关联的身份，由会话中间件解析后显式传入每个鉴权点。
type Actor struct {
	ID       uint
	Username string
	Role     Role
}
