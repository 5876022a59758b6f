package bot

import "fmt"

// Main menu button labels. These double as message-text triggers because
// reply-keyboard presses arrive as plain messages.
const (
	BtnCollect = "Собрать семантику"
	BtnList    = "Генерация из списка"
	BtnAnalyze = "Анализ сайта"
)

// Callback data for the seed-selection keyboard. Toggles carry the seed index
// rather than the phrase to stay inside the 64-byte callback limit.
const (
	cbSeedTogglePrefix = "toggle_sem_"
	cbSeedConfirm      = "confirm_sem"
)

// MainKeyboard is the persistent mode-selection keyboard.
func MainKeyboard() *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{{Text: BtnCollect}},
			{{Text: BtnList}},
			{{Text: BtnAnalyze}},
		},
		ResizeKeyboard: true,
	}
}

// SeedKeyboard renders the seed-selection list, one checkbox row per seed.
// The confirm button appears only once something is selected.
func SeedKeyboard(seeds []string, selected map[string]bool) *InlineKeyboardMarkup {
	var rows [][]InlineKeyboardButton
	selectedCount := 0

	for i, seed := range seeds {
		mark := "⬜"
		if selected[seed] {
			mark = "✅"
			selectedCount++
		}
		rows = append(rows, []InlineKeyboardButton{{
			Text:         mark + " " + seed,
			CallbackData: fmt.Sprintf("%s%d", cbSeedTogglePrefix, i),
		}})
	}

	if selectedCount > 0 {
		rows = append(rows, []InlineKeyboardButton{{
			Text:         fmt.Sprintf("🚀 Собрать (%d)", selectedCount),
			CallbackData: cbSeedConfirm,
		}})
	}

	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}
