package domain

// MenuItem is an entry of the dashboard navigation.
type MenuItem struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Widget   string     `json:"widget,omitempty"`
	MinRole  Role       `json:"min_role"`
	Children []MenuItem `json:"children,omitempty"`
}

// FilterMenu returns a copy of items containing only entries role may see.
// Groups without a widget are dropped once none of their children survive.
func FilterMenu(items []MenuItem, role Role) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if !role.AtLeast(it.MinRole) {
			continue
		}
		cp := it
		cp.Children = nil
		if len(it.Children) > 0 {
			cp.Children = FilterMenu(it.Children, role)
			if len(cp.Children) == 0 && cp.Widget == "" {
				continue
			}
		}
		out = append(out, cp)
	}
	return out
}

// DefaultMenu is the dashboard layout shipped with the portal.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{
			ID: "map", Label: "Map", MinRole: RoleViewer,
			Children: []MenuItem{
				{ID: "legend", Label: "Legend", Widget: "Legend", MinRole: RoleViewer},
				{ID: "basemaps", Label: "Basemap gallery", Widget: "BasemapGallery", MinRole: RoleViewer},
				{ID: "coordinates", Label: "Coordinate conversion", Widget: "CoordinateConversion", MinRole: RoleViewer},
			},
		},
		{
			ID: "tools", Label: "Tools", MinRole: RoleOrgUser,
			Children: []MenuItem{
				{ID: "sketch", Label: "Sketch", Widget: "Sketch", MinRole: RoleOrgUser},
				{ID: "print", Label: "Print", Widget: "Print", MinRole: RoleOrgUser},
				{ID: "directions", Label: "Directions", Widget: "Directions", MinRole: RoleOrgUser},
				{ID: "editor", Label: "Editor", Widget: "Editor", MinRole: RoleOrgPublisher},
			},
		},
		{
			ID: "admin", Label: "Administration", MinRole: RoleOrgAdmin,
			Children: []MenuItem{
				{ID: "usage", Label: "Usage statistics", Widget: "UsageStatistics", MinRole: RoleOrgAdmin},
			},
		},
	}
}
