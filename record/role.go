package record

import "strings"

// Role is the relationship of an actor to the project.
type Role int

const (
	RoleUser Role = iota
	RoleBot
	RoleMember
	RoleContributor
)

func (r Role) String() string {
	switch r {
	case RoleBot:
		return "Bot"
	case RoleMember:
		return "Member"
	case RoleContributor:
		return "Contributor"
	default:
		return "User"
	}
}

const (
	accountTypeBot         = "Bot"
	associationContributor = "CONTRIBUTOR"
	associationMember      = "MEMBER"
)

// ClassifyRole decides the role of an actor from its account type and
// association string. An empty association means none was present.
//
// Only MEMBER is compared case-insensitively: the source data spells it
// both "MEMBER" and "Member", while CONTRIBUTOR has only ever been seen
// upper-case.
func ClassifyRole(accountType, association string) Role {
	if accountType == accountTypeBot {
		return RoleBot
	}
	switch {
	case association == associationContributor:
		return RoleContributor
	case strings.EqualFold(association, associationMember):
		return RoleMember
	default:
		return RoleUser
	}
}
