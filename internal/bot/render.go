package bot

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-board/internal/board"
)

const (
	btnSkip          = "⏭️ Skip"
	btnCancelDialog  = "⏪ Cancel input"
	iconOpen         = "🟢"
	iconDone         = "✅"
	menuLabelNewTask = "➕ New task"
	menuLabelTasks   = "📋 Tasks"
	menuLabelDigest  = "🗓 Digest"
	menuLabelHelp    = "ℹ️ Help"
)

func (b *Bot) sendTaskList(chatID int64, brd *board.Board) error {
	snap := brd.Snapshot()
	text, markup := renderTaskList(snap)
	if markup == nil {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, *markup)
}

func renderTaskList(snap board.Snapshot) (string, *tgbotapi.InlineKeyboardMarkup) {
	if snap.Loading {
		return "⏳ Loading tasks…", nil
	}
	if len(snap.Tasks) == 0 {
		return "No tasks yet. Add one with /new.", nil
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Tasks</b> · %s\n\n", snap.Sort.Label()))

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, task := range snap.Tasks {
		n := i + 1
		icon := iconOpen
		if task.Completed {
			icon = iconDone
		}
		builder.WriteString(fmt.Sprintf("%d. %s <b>%s</b>", n, icon, escape(normalizeTitle(task.Title))))
		if task.Description != "" {
			builder.WriteString(fmt.Sprintf("\n   📝 %s", escape(strings.TrimSpace(task.Description))))
		}
		builder.WriteString(fmt.Sprintf("\n   ⏰ %s\n", deadlineLabel(task.Deadline)))

		toggle := fmt.Sprintf("✅ %d · %s", n, shortTitle(task.Title, 16))
		if task.Completed {
			toggle = fmt.Sprintf("↩️ %d · reopen", n)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggle, cbTogglePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Edit", cbEditPrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", cbDeletePrefix+task.ID),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return strings.TrimSpace(builder.String()), &markup
}

func sortKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(board.SortNewest.Label(), cbSortPrefix+string(board.SortNewest)),
		tgbotapi.NewInlineKeyboardButtonData(board.SortOldest.Label(), cbSortPrefix+string(board.SortOldest)),
		tgbotapi.NewInlineKeyboardButtonData(board.SortDeadline.Label(), cbSortPrefix+string(board.SortDeadline)),
	))
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelDigest),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func resetEntry(brd *board.Board) {
	brd.SetEntryTitle("")
	brd.SetEntryDescription("")
	brd.SetEntryDeadline("")
}

// isSkipInput matches the keyboard button only, so "Skip" stays a valid title.
func isSkipInput(text string) bool {
	return strings.TrimSpace(text) == btnSkip
}

func isCancelDialogInput(text string) bool {
	return strings.TrimSpace(text) == btnCancelDialog
}

func shortTitle(title string, maxLen int) string {
	clean := normalizeTitle(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

func escape(s string) string {
	return html.EscapeString(s)
}
