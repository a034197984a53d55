package user

type Permission string

const (
	// Attendance
	PermissionAttendancePunch   Permission = "attendance.punch"
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceReview  Permission = "attendance.review"

	// Corrections
	PermissionCorrectionSubmit Permission = "correction.submit"
	PermissionCorrectionReview Permission = "correction.review"

	// Salary & money
	PermissionSalaryView     Permission = "salary.view"
	PermissionSalaryManage   Permission = "salary.manage"
	PermissionCashbookManage Permission = "cashbook.manage"
	PermissionCashbookDelete Permission = "cashbook.delete"

	// Company
	PermissionCompanyManage Permission = "company.manage"
)

var staffPermissions = []Permission{
	PermissionAttendancePunch,
	PermissionAttendanceViewOwn,
	PermissionCorrectionSubmit,
}

var managerPermissions = append(append([]Permission{}, staffPermissions...),
	PermissionAttendanceViewAll,
	PermissionAttendanceReview,
	PermissionCorrectionReview,
	PermissionSalaryView,
)

var ownerPermissions = append(append([]Permission{}, managerPermissions...),
	PermissionSalaryManage,
	PermissionCashbookManage,
	PermissionCashbookDelete,
	PermissionCompanyManage,
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: ownerPermissions,
	RoleAdmin:      ownerPermissions,
	RoleManager:    managerPermissions,
	RoleStaff:      staffPermissions,
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
