package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Admin commands. The update loop only routes them here for ids listed in
// ADMIN_TELEGRAM_IDS.

func (b *GameBot) handleStats(ctx context.Context) string {
	stats, err := b.admin.GetStats(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf(`<b>📊 Статистика игры</b>

<b>👥 Игроки:</b>
• Всего: %d
• Активных сегодня: %d
• Активных за неделю: %d
• С престижем: %d
• Максимальный уровень: %d

<b>💰 Экономика:</b>
• Валюты в обороте: %s
• Зданий куплено: %d

<b>📋 Задания:</b>
• Выполняется сейчас: %d
• Завершено всего: %d`,
		stats.TotalUsers,
		stats.ActiveUsersToday,
		stats.ActiveUsersWeek,
		stats.PrestigeUsers,
		stats.MaxLevel,
		fmtMoney(stats.TotalCurrency),
		stats.BuildingsOwned,
		stats.TasksRunning,
		stats.TasksCompleted,
	)
}

func (b *GameBot) handleTop(ctx context.Context, args string) string {
	limit := 10
	if args != "" {
		if n, err := strconv.Atoi(args); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	users, err := b.admin.GetTopUsers(ctx, limit)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	if len(users) == 0 {
		return "❌ Пользователи не найдены"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>🏆 Топ %d по валюте</b>\n\n", limit))

	for i, u := range users {
		username := u.Username
		if username == "" {
			username = u.FirstName
		}
		sb.WriteString(fmt.Sprintf("%d. @%s — %s 💰 (ур. %d, ⭐%d)\n", i+1, username, fmtMoney(u.Currency), u.Level, u.Prestige))
	}

	return sb.String()
}

func (b *GameBot) handleUsers(ctx context.Context, args string) string {
	page := 1
	if args != "" {
		if n, err := strconv.Atoi(args); err == nil && n > 0 {
			page = n
		}
	}

	limit := 20
	offset := (page - 1) * limit

	users, total, err := b.admin.GetAllUsers(ctx, limit, offset)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	if len(users) == 0 {
		return "❌ Пользователи не найдены"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>👥 Игроки (стр. %d, всего: %d)</b>\n\n", page, total))

	for i, u := range users {
		username := u.Username
		if username == "" {
			username = u.FirstName
		}
		if username == "" {
			username = fmt.Sprintf("id:%d", u.TgID)
		}

		num := offset + i + 1
		sb.WriteString(fmt.Sprintf("%d. @%s | 💰%s | ур.%d | ⭐%d\n", num, username, fmtMoney(u.Currency), u.Level, u.Prestige))
	}

	totalPages := (total + limit - 1) / limit
	if totalPages > 1 {
		sb.WriteString(fmt.Sprintf("\nСтраница %d/%d. Используйте /users %d", page, totalPages, page+1))
	}

	return sb.String()
}

func (b *GameBot) handleAddCurrency(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "❌ Использование: /addcurrency <tg_id> <сумма>"
	}

	tgID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "❌ Неверный Telegram ID"
	}

	amount, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "❌ Неверная сумма"
	}

	newBalance, err := b.admin.AddUserCurrency(ctx, tgID, amount)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf("✅ Баланс пользователя %d изменён на %s. Новый баланс: %s 💰", tgID, fmtMoney(amount), fmtMoney(newBalance))
}

func (b *GameBot) executeBroadcast(msg *tgbotapi.Message) {
	adminID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.Text == "/cancel" {
		b.clearBroadcastPending(adminID)
		b.send(chatID, "❌ Рассылка отменена")
		return
	}

	b.clearBroadcastPending(adminID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	b.log.Info("starting broadcast", "admin_id", adminID)

	userIDs, err := b.admin.GetAllUserTgIDs(ctx)
	if err != nil {
		b.log.Error("failed to get user IDs", "error", err)
		b.send(chatID, fmt.Sprintf("❌ Ошибка: %v", err))
		return
	}

	if len(userIDs) == 0 {
		b.send(chatID, "❌ Нет пользователей для рассылки")
		return
	}

	b.send(chatID, fmt.Sprintf("📤 Начинаю рассылку %d пользователям...", len(userIDs)))

	sent := 0
	failed := 0
	blocked := 0

	for _, tgID := range userIDs {
		textMsg := tgbotapi.NewMessage(tgID, msg.Text)
		textMsg.ParseMode = "HTML"
		textMsg.DisableWebPagePreview = true
		if _, err := b.bot.Send(textMsg); err != nil {
			if strings.Contains(err.Error(), "blocked") || strings.Contains(err.Error(), "deactivated") {
				blocked++
			} else {
				b.log.Error("failed to send broadcast", "tg_id", tgID, "error", err)
			}
			failed++
		} else {
			sent++
		}

		// Rate limiting - 20 messages per second
		time.Sleep(50 * time.Millisecond)
	}

	b.log.Info("broadcast complete", "sent", sent, "failed", failed, "blocked", blocked)

	b.send(chatID, fmt.Sprintf(`✅ <b>Рассылка завершена</b>

📨 Отправлено: %d
❌ Не доставлено: %d
🚫 Заблокировали бота: %d`, sent, failed-blocked, blocked))
}
