package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/yok-tottii/EzKeymap/internal/i18n"
)

// Manager manages the system tray icon and menu
type Manager struct {
	mu               sync.Mutex
	translator       *i18n.Translator
	onReadyCallback  func()
	onOpenManager    func()
	onCopyCheatSheet func()
	onQuit           func()
	menuOpen         *systray.MenuItem
	menuCopy         *systray.MenuItem
	menuQuit         *systray.MenuItem
	icon             []byte
}

// Config holds tray manager configuration
type Config struct {
	OnReady          func() // Called when systray is ready for initialization
	OnOpenManager    func()
	OnCopyCheatSheet func()
	OnQuit           func()
	Translator       *i18n.Translator
}

// NewManager creates a new tray manager
func NewManager(config Config) *Manager {
	translator := config.Translator
	if translator == nil {
		translator = i18n.NewDefault(i18n.LanguageJapanese)
	}

	return &Manager{
		translator:       translator,
		onReadyCallback:  config.OnReady,
		onOpenManager:    config.OnOpenManager,
		onCopyCheatSheet: config.OnCopyCheatSheet,
		onQuit:           config.OnQuit,
		icon:             keyboardIcon(),
	}
}

// Run starts the system tray (blocking call, main goroutine only)
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// MenuLabels returns the menu titles in the current language
func (m *Manager) MenuLabels() []string {
	return []string{
		m.translator.Translate("menu.open_manager"),
		m.translator.Translate("menu.copy_cheatsheet"),
		m.translator.Translate("menu.quit"),
	}
}

// onReady is called when systray is ready
func (m *Manager) onReady() {
	systray.SetTemplateIcon(m.icon, m.icon)
	systray.SetTooltip(m.translator.Translate("menu.tooltip"))

	labels := m.MenuLabels()

	m.mu.Lock()
	m.menuOpen = systray.AddMenuItem(labels[0], "Open the shortcut manager in the browser")
	m.menuCopy = systray.AddMenuItem(labels[1], "Copy all shortcuts as a text table")
	systray.AddSeparator()
	m.menuQuit = systray.AddMenuItem(labels[2], "Quit the application")
	m.mu.Unlock()

	go m.handleMenuEvents()

	if m.onReadyCallback != nil {
		m.onReadyCallback()
	}
}

// onExit is called when systray is exiting
func (m *Manager) onExit() {}

// handleMenuEvents handles menu item clicks
func (m *Manager) handleMenuEvents() {
	for {
		select {
		case <-m.menuOpen.ClickedCh:
			m.dispatch(m.onOpenManager)
		case <-m.menuCopy.ClickedCh:
			m.dispatch(m.onCopyCheatSheet)
		case <-m.menuQuit.ClickedCh:
			m.dispatch(m.onQuit)
			systray.Quit()
			return
		}
	}
}

// dispatch calls fn if it is set
func (m *Manager) dispatch(fn func()) {
	if fn != nil {
		fn()
	}
}

// SetLanguage relabels the menu after the UI language changes
func (m *Manager) SetLanguage(language i18n.Language) {
	m.translator.SetLanguage(language)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.menuOpen == nil {
		return
	}

	labels := m.MenuLabels()
	m.menuOpen.SetTitle(labels[0])
	m.menuCopy.SetTitle(labels[1])
	m.menuQuit.SetTitle(labels[2])
	systray.SetTooltip(m.translator.Translate("menu.tooltip"))
}

// Quit quits the system tray
func (m *Manager) Quit() {
	systray.Quit()
}

// keyboardIcon returns a 16x16 PNG used as the template icon
func keyboardIcon() []byte {
	return []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff,
		0x61, 0x00, 0x00, 0x00, 0x19, 0x74, 0x45, 0x58,
		0x74, 0x53, 0x6f, 0x66, 0x74, 0x77, 0x61, 0x72,
		0x65, 0x00, 0x41, 0x64, 0x6f, 0x62, 0x65, 0x20,
		0x49, 0x6d, 0x61, 0x67, 0x65, 0x52, 0x65, 0x61,
		0x64, 0x79, 0x71, 0xc9, 0x65, 0x3c, 0x00, 0x00,
		0x00, 0x18, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda,
		0x62, 0xfc, 0xff, 0xff, 0x3f, 0x03, 0x00, 0x00,
		0x00, 0xff, 0xff, 0x03, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60,
		0x82,
	}
}
