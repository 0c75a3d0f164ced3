package usecases

import "github.com/samirrijal/gisportal/internal/core/domain"

// MenuService serves the dashboard navigation filtered by role.
type MenuService struct {
	items []domain.MenuItem
}

// NewMenuService creates a MenuService over items. A nil items uses the default menu.
func NewMenuService(items []domain.MenuItem) *MenuService {
	if items == nil {
		items = domain.DefaultMenu()
	}
	return &MenuService{items: items}
}

// For returns the entries visible to role.
func (s *MenuService) For(role domain.Role) []domain.MenuItem {
	return domain.FilterMenu(s.items, role)
}
