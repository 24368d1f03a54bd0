package rbac

// Default role policy for the platform.
var RolePermissions = map[string][]string{
	"student": {
		"course:view",
		"lesson:view",
		"quiz:view",
		"quiz:submit",
		"enrollment:create",
		"enrollment:view-own",
		"progress:update-own",
	},
	"teacher": {
		"course:view",
		"course:create",
		"course:edit-own",
		"course:delete-own",
		"lesson:*",
		"quiz:*",
		"content:reorder",
		"enrollment:view-course",
		"asset:upload",
		"quizgen:run",
	},
	"admin": {
		"*", // everything
	},
}
