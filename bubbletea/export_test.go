package bubbletea

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// BlockCount returns the number of blocks shown for the active session.
func BlockCount(m Model) int {
	return len(m.order)
}

// SidebarWidth exports sidebarWidth for testing.
const SidebarWidth = sidebarWidth
