package authroles

import (
	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
)

// StaticRoleMapper maps SSO directory groups to staff roles by simple
// string membership. Groups are checked in privilege order so a user in
// both the admin and support groups maps to admin.
type StaticRoleMapper struct {
	AdminGroup     string
	SupportGroup   string
	CTOGroup       string
	DataEntryGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	rules := []struct {
		group string
		role  domainauth.Role
	}{
		{m.AdminGroup, domainauth.RoleAdmin},
		{m.CTOGroup, domainauth.RoleCTO},
		{m.SupportGroup, domainauth.RoleSupport},
		{m.DataEntryGroup, domainauth.RoleDataEntry},
	}
	for _, rule := range rules {
		if rule.group == "" {
			continue
		}
		for _, g := range groups {
			if g == rule.group {
				return rule.role
			}
		}
	}
	return domainauth.RoleUnknown
}
