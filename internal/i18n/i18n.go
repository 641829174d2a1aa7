package i18n

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Language represents a supported language
type Language string

const (
	// Japanese language
	LanguageJapanese Language = "ja"
	// English language
	LanguageEnglish Language = "en"
)

// Translator manages translations for the application
type Translator struct {
	currentLanguage Language
	translations    map[Language]map[string]string
	mu              sync.RWMutex
}

// NewTranslator creates a new translator with no translations loaded
func NewTranslator(language Language) *Translator {
	return &Translator{
		currentLanguage: language,
		translations:    make(map[Language]map[string]string),
	}
}

// NewDefault creates a translator preloaded with the built-in ja/en tables
func NewDefault(language Language) *Translator {
	t := NewTranslator(language)
	t.SetTranslations(LanguageEnglish, DefaultEnglishTranslations())
	t.SetTranslations(LanguageJapanese, DefaultJapaneseTranslations())
	return t
}

// LoadTranslations loads translations from JSON data. Loaded keys are merged
// over the existing table for language.
func (t *Translator) LoadTranslations(language Language, data []byte) error {
	var translations map[string]string
	if err := json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("failed to unmarshal translations: %w", err)
	}

	t.SetTranslations(language, translations)
	return nil
}

// SetTranslations merges translations into the table for language
func (t *Translator) SetTranslations(language Language, translations map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	table, ok := t.translations[language]
	if !ok {
		table = make(map[string]string, len(translations))
		t.translations[language] = table
	}
	for k, v := range translations {
		table[k] = v
	}
}

// SetLanguage sets the current language
func (t *Translator) SetLanguage(language Language) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentLanguage = language
}

// GetLanguage returns the current language
func (t *Translator) GetLanguage() Language {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentLanguage
}

// Translate translates a key in the current language
func (t *Translator) Translate(key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if translations, ok := t.translations[t.currentLanguage]; ok {
		if text, ok := translations[key]; ok {
			return text
		}
	}

	// Fallback to English if translation not found
	if t.currentLanguage != LanguageEnglish {
		if translations, ok := t.translations[LanguageEnglish]; ok {
			if text, ok := translations[key]; ok {
				return text
			}
		}
	}

	// Return key itself if no translation found
	return key
}

// TranslateWithFormat translates a key and formats with parameters
func (t *Translator) TranslateWithFormat(key string, params map[string]string) string {
	text := t.Translate(key)

	for param, value := range params {
		placeholder := fmt.Sprintf("{%s}", param)
		text = strings.ReplaceAll(text, placeholder, value)
	}

	return text
}

// GetAllTranslations returns all translations for the current language
func (t *Translator) GetAllTranslations() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]string)
	if t.currentLanguage != LanguageEnglish {
		for k, v := range t.translations[LanguageEnglish] {
			result[k] = v
		}
	}
	for k, v := range t.translations[t.currentLanguage] {
		result[k] = v
	}
	return result
}

// HasTranslation checks if a translation key exists
func (t *Translator) HasTranslation(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if translations, ok := t.translations[t.currentLanguage]; ok {
		_, ok := translations[key]
		return ok
	}

	return false
}

// ValidateLanguage validates that a language is supported
func ValidateLanguage(language string) bool {
	return language == string(LanguageJapanese) || language == string(LanguageEnglish)
}

// GetSupportedLanguages returns a list of supported languages
func GetSupportedLanguages() []Language {
	return []Language{LanguageJapanese, LanguageEnglish}
}

// DefaultEnglishTranslations returns default English translations
func DefaultEnglishTranslations() map[string]string {
	return map[string]string{
		// Menu items
		"menu.open_manager":    "Open Shortcut Manager...",
		"menu.copy_cheatsheet": "Copy Cheat Sheet",
		"menu.quit":            "Quit",
		"menu.tooltip":         "EzKeymap - keyboard shortcut manager",

		// Conflict types
		"conflict.exact":       "Exact duplicate",
		"conflict.appSpecific": "Same shortcut, different function",
		"conflict.crossApp":    "Used in other applications",
		"conflict.none":        "No conflict",
		"conflict.system":      "Reserved by {name}",

		// Cheat sheet
		"cheatsheet.application": "Application",
		"cheatsheet.shortcut":    "Shortcut",
		"cheatsheet.description": "Description",

		// Notifications
		"notification.started":           "Shortcut manager is running at {url}",
		"notification.cheatsheet_copied": "Cheat sheet copied to clipboard",
		"notification.save_failed":       "Failed to save shortcuts",

		// Errors
		"error.clipboard_failed": "Failed to copy to clipboard",
	}
}

// DefaultJapaneseTranslations returns default Japanese translations
func DefaultJapaneseTranslations() map[string]string {
	return map[string]string{
		// Menu items
		"menu.open_manager":    "ショートカット管理を開く...",
		"menu.copy_cheatsheet": "チートシートをコピー",
		"menu.quit":            "終了",
		"menu.tooltip":         "EzKeymap - キーボードショートカット管理",

		// Conflict types
		"conflict.exact":       "完全な重複",
		"conflict.appSpecific": "同じショートカット、異なる機能",
		"conflict.crossApp":    "他のアプリケーションで使用中",
		"conflict.none":        "競合なし",
		"conflict.system":      "{name} で使用されています",

		// Cheat sheet
		"cheatsheet.application": "アプリケーション",
		"cheatsheet.shortcut":    "ショートカット",
		"cheatsheet.description": "説明",

		// Notifications
		"notification.started":           "ショートカット管理を {url} で起動しました",
		"notification.cheatsheet_copied": "チートシートをクリップボードにコピーしました",
		"notification.save_failed":       "ショートカットの保存に失敗しました",

		// Errors
		"error.clipboard_failed": "クリップボードへのコピーに失敗しました",
	}
}
