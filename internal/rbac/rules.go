package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"user": {
		"course:view",
		"chapter:view",
		"lesson:view",
		"exam:view",
		"exam:submit",
		"exam:results",
		"enrollment:manage-own",
		"certificate:view-own",
		"user:update-own",
	},
	"admin": {
		"*", // everything
	},
}
