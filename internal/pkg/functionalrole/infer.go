package functionalrole

import (
	"strings"

	"github.com/meridianhr/payroll-backend-go/internal/domain/user"
)

// Position-title phrase sets, matched case-insensitively by substring.
// These exist to classify accounts created before functional_role was an
// explicit column; new accounts get the column set at provisioning and the
// backfill command uses Infer to migrate the rest.
var (
	departmentHeadPhrases = []string{
		"head",
		"director",
		"manager",
	}

	hrManagerPhrases = []string{
		"hr manager",
		"head of hr",
		"hr head",
		"head of human resources",
		"human resources manager",
		"hr director",
	}

	financeDirectorPhrases = []string{
		"finance director",
		"director of finance",
		"head of finance",
		"finance head",
		"finance manager",
		"chief financial officer",
		"cfo",
	}
)

// PhrasesFor returns the phrase set for a functional role.
func PhrasesFor(fr user.FunctionalRole) []string {
	switch fr {
	case user.FunctionalRoleDepartmentHead:
		return departmentHeadPhrases
	case user.FunctionalRoleHRManager:
		return hrManagerPhrases
	case user.FunctionalRoleFinanceDirector:
		return financeDirectorPhrases
	}
	return nil
}

// Matches reports whether a position title satisfies the functional role's
// phrase set.
func Matches(position string, fr user.FunctionalRole) bool {
	title := strings.ToLower(position)
	for _, phrase := range PhrasesFor(fr) {
		if strings.Contains(title, phrase) {
			return true
		}
	}
	return false
}

// Infer classifies a position title. The more specific HR and finance sets
// are checked before the generic department-head set, since "HR Manager"
// also contains "manager".
func Infer(position string) (user.FunctionalRole, bool) {
	for _, fr := range []user.FunctionalRole{
		user.FunctionalRoleFinanceDirector,
		user.FunctionalRoleHRManager,
		user.FunctionalRoleDepartmentHead,
	} {
		if Matches(position, fr) {
			return fr, true
		}
	}
	return "", false
}

// HasFunctionalRole checks a user against a functional role, preferring the
// explicit column and only falling back to title inference when it is unset.
func HasFunctionalRole(u user.User, fr user.FunctionalRole) bool {
	if u.FunctionalRole != nil {
		return *u.FunctionalRole == fr
	}
	return Matches(u.Position, fr)
}
