package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-board/internal/board"
	"todo-board/internal/model"
)

const (
	cbEditPrefix   = "edit:"
	cbDeletePrefix = "delete:"
	cbTogglePrefix = "toggle:"
	cbSortPrefix   = "sort:"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		return b.cancelConversation(ctx, chatID)
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.WithField("chat", chatID).Infof("command /%s %s", msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if state := b.getConversation(chatID); state != nil {
		return b.handleConversation(ctx, chatID, state, strings.TrimSpace(msg.Text))
	}

	return b.sendText(chatID, "I didn't get that. Send /new to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(chatID, helpText)
	case "new", "newtask":
		return b.startNewTask(ctx, chatID)
	case "tasks":
		return b.handleListTasks(ctx, chatID, msg.CommandArguments())
	case "sort":
		return b.handleSort(ctx, chatID, msg.CommandArguments())
	case "digest":
		return b.handleDigest(ctx, chatID)
	case "cancel":
		return b.cancelConversation(ctx, chatID)
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /new - add a task step by step\n" +
	"• /tasks [newest|oldest|deadline] - show the board\n" +
	"• /sort &lt;order&gt; - change the sort order\n" +
	"• /digest - overdue and upcoming deadlines\n" +
	"• /cancel - abort the current input\n\n" +
	"Use the buttons under each task to mark it done, edit or delete it."

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	b.boardFor(ctx, msg.Chat.ID)

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep a shared to-do board for this chat.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	chatID := msg.Chat.ID
	switch strings.TrimSpace(strings.ToLower(msg.Text)) {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTask(ctx, chatID)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, chatID, "")
	case strings.ToLower(menuLabelDigest):
		return true, b.handleDigest(ctx, chatID)
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(chatID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) startNewTask(ctx context.Context, chatID int64) error {
	brd := b.boardFor(ctx, chatID)
	b.abandonEdit(chatID, brd)
	resetEntry(brd)

	b.setConversation(chatID, &conversationState{mode: modeNew, stage: stageTitle})
	return b.sendWithReplyMarkup(chatID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) startEdit(ctx context.Context, chatID int64, id string) error {
	brd := b.boardFor(ctx, chatID)
	b.abandonEdit(chatID, brd)

	if err := brd.OpenEdit(id); err != nil {
		if errors.Is(err, board.ErrUnknownTask) {
			return b.sendText(chatID, "That task is no longer on the board. Refresh with /tasks.")
		}
		return err
	}
	edit := brd.Snapshot().Edit
	b.setConversation(chatID, &conversationState{mode: modeEdit, stage: stageTitle, taskID: id})
	text := fmt.Sprintf("✏️ Editing «%s».\n<b>Step 1:</b> new title (or «Skip» to keep it).", escape(edit.Title))
	return b.sendWithReplyMarkup(chatID, text, skipKeyboard())
}

// abandonEdit closes an edit left open by a previous conversation.
func (b *Bot) abandonEdit(chatID int64, brd *board.Board) {
	if state := b.getConversation(chatID); state != nil && state.mode == modeEdit {
		brd.CancelEdit()
	}
}

func (b *Bot) cancelConversation(ctx context.Context, chatID int64) error {
	state := b.getConversation(chatID)
	if state != nil {
		brd := b.boardFor(ctx, chatID)
		if state.mode == modeEdit {
			brd.CancelEdit()
		} else {
			resetEntry(brd)
		}
	}
	b.clearConversation(chatID)
	return b.sendText(chatID, "⏪ Input cancelled.")
}

func (b *Bot) handleConversation(ctx context.Context, chatID int64, state *conversationState, text string) error {
	brd := b.boardFor(ctx, chatID)
	editing := state.mode == modeEdit
	skip := isSkipInput(text)

	switch state.stage {
	case stageTitle:
		switch {
		case editing && (skip || text == ""):
		case model.BlankTitle(text) || skip:
			return b.sendWithReplyMarkup(chatID, "The title can't be empty. What should the task be called?", cancelKeyboard())
		case editing:
			brd.SetEditTitle(text)
		default:
			brd.SetEntryTitle(text)
		}
		state.stage = stageDescription
		prompt := "✏️ Add a short description (or «Skip»)."
		if editing {
			prompt = "✏️ New description (or «Skip» to keep it, «-» to clear)."
		}
		return b.sendWithReplyMarkup(chatID, prompt, skipKeyboard())

	case stageDescription:
		switch {
		case editing && text == "-":
			brd.SetEditDescription("")
		case skip:
		case editing:
			brd.SetEditDescription(text)
		default:
			brd.SetEntryDescription(text)
		}
		state.stage = stageDeadline
		prompt := "⏰ Deadline as <code>2024-03-05</code>, «today» or «tomorrow» (or «Skip» for today)."
		if editing {
			prompt = fmt.Sprintf("⏰ New deadline (currently %s), «clear» to remove it, or «Skip» to keep it.",
				deadlineLabel(brd.Snapshot().Edit.Deadline))
		}
		return b.sendWithReplyMarkup(chatID, prompt, skipKeyboard())

	case stageDeadline:
		if !skip {
			deadline, ok := b.parseDeadlineInput(text, editing)
			if !ok {
				return b.sendWithReplyMarkup(chatID, "I can't read that date. Use <code>2024-03-05</code>, «today», «tomorrow» or «Skip».", skipKeyboard())
			}
			if editing {
				brd.SetEditDeadline(deadline)
			} else {
				brd.SetEntryDeadline(deadline)
			}
		}
		return b.finishConversation(ctx, chatID, brd, state)

	default:
		b.clearConversation(chatID)
		return b.sendText(chatID, "Conversation reset. Start again with /new.")
	}
}

func (b *Bot) parseDeadlineInput(text string, editing bool) (string, bool) {
	now := b.now()
	switch strings.ToLower(text) {
	case "today":
		return model.Today(now), true
	case "tomorrow":
		return model.AddDays("", 1, now), true
	case "clear", "none":
		return "", editing
	}
	t, err := model.ParseDeadline(text, now.Location())
	if err != nil {
		return "", false
	}
	return t.Format(model.DateLayout), true
}

// finishConversation submits the form. A failed submit leaves the
// conversation on its last step so the user can retry or cancel.
func (b *Bot) finishConversation(ctx context.Context, chatID int64, brd *board.Board, state *conversationState) error {
	var (
		err     error
		summary string
	)
	if state.mode == modeEdit {
		form := brd.Snapshot().Edit
		err = brd.SubmitEdit(ctx)
		summary = fmt.Sprintf("✅ <b>Task updated</b>\n• %s\n• ⏰ %s", escape(form.Title), deadlineLabel(form.Deadline))
	} else {
		err = brd.Add(ctx)
		if err == nil {
			tasks := brd.Snapshot().Tasks
			summary = "✅ <b>Task saved</b>"
			if added, ok := newestProvisional(tasks); ok {
				summary += fmt.Sprintf("\n• %s\n• ⏰ %s", escape(added.Title), deadlineLabel(added.Deadline))
			}
		}
	}
	if err != nil {
		return nil
	}

	b.clearConversation(chatID)
	if err := b.sendText(chatID, summary); err != nil {
		return err
	}
	return b.sendTaskList(chatID, brd)
}

func newestProvisional(tasks []model.Task) (model.Task, bool) {
	var found model.Task
	ok := false
	for _, t := range tasks {
		if t.Provisional && (!ok || t.CreatedAt.After(found.CreatedAt)) {
			found, ok = t, true
		}
	}
	return found, ok
}

func (b *Bot) handleListTasks(ctx context.Context, chatID int64, args string) error {
	brd := b.boardFor(ctx, chatID)
	if args = strings.TrimSpace(args); args != "" {
		order, err := board.ParseSort(args)
		if err != nil {
			return b.sendText(chatID, "Sort by newest, oldest or deadline, e.g. /tasks deadline")
		}
		brd.SetSort(order)
	}
	return b.sendTaskList(chatID, brd)
}

func (b *Bot) handleSort(ctx context.Context, chatID int64, args string) error {
	brd := b.boardFor(ctx, chatID)
	if strings.TrimSpace(args) == "" {
		text := fmt.Sprintf("Current order: <b>%s</b>. Pick another:", brd.Snapshot().Sort.Label())
		return b.sendWithReplyMarkup(chatID, text, sortKeyboard())
	}
	return b.handleListTasks(ctx, chatID, args)
}

func (b *Bot) handleDigest(ctx context.Context, chatID int64) error {
	b.boardFor(ctx, chatID)
	digest, err := b.digest.Summary(ctx, b.now())
	if err != nil {
		b.log.WithError(err).WithField("chat", chatID).Warn("build digest")
		return b.sendText(chatID, "The digest isn't available right now.")
	}
	return b.sendText(chatID, digest.HTML())
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	b.ack(cb)

	chatID := cb.Message.Chat.ID
	data := cb.Data
	b.log.WithField("chat", chatID).Infof("callback %s", data)

	switch {
	case strings.HasPrefix(data, cbEditPrefix):
		return b.startEdit(ctx, chatID, strings.TrimPrefix(data, cbEditPrefix))

	case strings.HasPrefix(data, cbDeletePrefix):
		brd := b.boardFor(ctx, chatID)
		id := strings.TrimPrefix(data, cbDeletePrefix)
		task, _ := brd.Task(id)
		if err := brd.Delete(ctx, id); err != nil {
			return nil
		}
		if err := b.sendText(chatID, fmt.Sprintf("🗑 Task «%s» deleted.", escape(normalizeTitle(task.Title)))); err != nil {
			return err
		}
		return b.sendTaskList(chatID, brd)

	case strings.HasPrefix(data, cbTogglePrefix):
		brd := b.boardFor(ctx, chatID)
		if err := brd.ToggleComplete(ctx, strings.TrimPrefix(data, cbTogglePrefix)); err != nil {
			return nil
		}
		return b.sendTaskList(chatID, brd)

	case strings.HasPrefix(data, cbSortPrefix):
		return b.handleListTasks(ctx, chatID, strings.TrimPrefix(data, cbSortPrefix))
	}
	return nil
}
