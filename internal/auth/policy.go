package auth

import (
	"errors"
	"fmt"
)

// Action 是策略表中受角色约束的操作。
type Action string

const (
	ActionPostJob               Action = "post_job"
	ActionViewEmployerDashboard Action = "view_employer_dashboard"
	ActionViewSeekerDashboard   Action = "view_seeker_dashboard"
	ActionApplyToJob            Action = "apply_to_job"
	ActionViewAdminDashboard    Action = "view_admin_dashboard"
	ActionDeleteUser            Action = "delete_user"
	ActionDeleteJob             Action = "delete_job"
)

// ErrForbidden 表示当前身份不允许执行该操作。
var ErrForbidden = errors.New("forbidden")

var requiredRole = map[Action]Role{
	ActionPostJob:               RoleEmployer,
	ActionViewEmployerDashboard: RoleEmployer,
	ActionViewSeekerDashboard:   RoleSeeker,
	ActionApplyToJob:            RoleSeeker,
	ActionViewAdminDashboard:    RoleAdmin,
	ActionDeleteUser:            RoleAdmin,
	ActionDeleteJob:             RoleAdmin,
}

// Authorize 是纯函数：根据策略表判定 actor 是否可以执行 action。
// 必须在任何变更发生之前调用。
func Authorize(actor Actor, action Action) error {
	role, ok := requiredRole[action]
	if !ok {
		return fmt.Errorf("unknown action %q: %w", action, ErrForbidden)
	}
	if actor.Role != role {
		return fmt.Errorf("action %s requires role %s: %w", action, role, ErrForbidden)
	}
	return nil
}
