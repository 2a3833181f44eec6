package bot

import (
	"fmt"
	"strconv"
	"strings"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/service"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func fmtMoney(n int64) string {
	return humanize.Comma(n)
}

func helpMessage(admin bool) string {
	base := `<b>🏙 Команды</b>

/status - Ваша империя
/buildings - Купить здания
/tasks - Задания
/prestige - Престиж
/help - Это сообщение`

	if !admin {
		return base
	}

	return base + `

<b>🔧 Администратор:</b>
/stats - Статистика игры
/top [лимит] - Топ по валюте
/users [страница] - Все игроки
/addcurrency &lt;tg_id&gt; &lt;сумма&gt; - Изменить баланс
/broadcast - Рассылка всем игрокам`
}

func renderWelcome(u *domain.User) string {
	return fmt.Sprintf(`🏙 <b>Добро пожаловать, %s!</b>

Вы начинаете с %s 💰.

Покупайте здания (/buildings) — они приносят доход каждый тик.
Выполняйте задания (/tasks) — они дают валюту и опыт.
Накопите на престиж (/prestige), чтобы умножить весь доход.`,
		u.FirstName, fmtMoney(u.Currency))
}

func renderStatus(u *domain.User, income int64, activeTask string) string {
	var sb strings.Builder
	sb.WriteString("<b>🏙 Ваша империя</b>\n\n")
	sb.WriteString(fmt.Sprintf("💰 Баланс: %s\n", fmtMoney(u.Currency)))
	sb.WriteString(fmt.Sprintf("📈 Доход за тик: %s\n", fmtMoney(income)))
	sb.WriteString(fmt.Sprintf("🎖 Уровень: %d (%s/%s опыта)\n", u.Level, fmtMoney(u.XP), fmtMoney(domain.RequiredXP(u.Level))))
	sb.WriteString(fmt.Sprintf("⭐ Престиж: %d\n", u.Prestige))
	if activeTask != "" {
		sb.WriteString(fmt.Sprintf("\n⏳ Выполняется: <b>%s</b>\n", activeTask))
	}
	return sb.String()
}

func renderBuildings(views []domain.BuildingView, balance int64) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>🏗 Здания</b> (баланс: %s 💰)\n\n", fmtMoney(balance)))
	for _, v := range views {
		sb.WriteString(fmt.Sprintf("<b>%s</b> — %s 💰\n", v.Name, fmtMoney(v.Cost)))
		sb.WriteString(fmt.Sprintf("  доход %s/тик | куплено: %d\n", fmtMoney(v.Income), v.Owned))
	}
	return sb.String()
}

func buildingsKeyboard(views []domain.BuildingView) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, v := range views {
		label := fmt.Sprintf("Купить %s (%s)", v.Name, fmtMoney(v.Cost))
		data := "buy:" + strconv.FormatInt(v.ID, 10)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func renderPurchase(r *service.PurchaseResult) string {
	if !r.Purchased {
		return fmt.Sprintf("❌ Недостаточно средств: нужно %s 💰, у вас %s.", fmtMoney(r.Building.Cost), fmtMoney(r.NewBalance))
	}
	return fmt.Sprintf("✅ Куплено: <b>%s</b> (всего %d). Баланс: %s 💰", r.Building.Name, r.Owned, fmtMoney(r.NewBalance))
}

func renderTasks(views []domain.TaskView, level int) string {
	var sb strings.Builder
	sb.WriteString("<b>📋 Задания</b>\n\n")
	for _, v := range views {
		sb.WriteString(fmt.Sprintf("<b>%s</b>", v.Name))
		if v.Active {
			sb.WriteString(" ⏳")
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  награда %s 💰 + %s опыта\n", fmtMoney(v.Reward), fmtMoney(v.ExpReward)))
		sb.WriteString(fmt.Sprintf("  стоимость %s | длительность %d тик.", fmtMoney(v.Cost), v.Length))
		if v.RequiredLevel > level {
			sb.WriteString(fmt.Sprintf(" | нужен уровень %d", v.RequiredLevel))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func tasksKeyboard(views []domain.TaskView) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, v := range views {
		label := fmt.Sprintf("Начать %s", v.Name)
		data := "task:" + strconv.FormatInt(v.ID, 10)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func renderStartResult(r *service.StartResult) string {
	switch r.Status {
	case domain.StartOK:
		return fmt.Sprintf("⏳ Задание <b>%s</b> начато. Баланс: %s 💰", r.Task.Name, fmtMoney(r.NewBalance))
	case domain.StartAlreadyExecuting:
		if r.ActiveTask != nil {
			return fmt.Sprintf("❌ Вы уже выполняете задание <b>%s</b>.", r.ActiveTask.Name)
		}
		return "❌ Вы уже выполняете задание."
	case domain.StartInsufficientFunds:
		return fmt.Sprintf("❌ Недостаточно средств: нужно %s 💰, у вас %s.", fmtMoney(r.Task.Cost), fmtMoney(r.NewBalance))
	case domain.StartInsufficientLevel:
		return fmt.Sprintf("❌ Нужен уровень %d для задания <b>%s</b>.", r.Task.RequiredLevel, r.Task.Name)
	}
	return "❌ Неизвестный статус."
}

func renderPrestige(s *service.PrestigeStatus) string {
	return fmt.Sprintf(`<b>⭐ Престиж</b>

Текущий престиж: %d
Весь доход умножается на престиж.

Следующий престиж стоит %s 💰 (у вас %s).
Покупка сбрасывает уровень, опыт и здания.`,
		s.Prestige, fmtMoney(s.NextCost), fmtMoney(s.Currency))
}

func prestigeKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Купить престиж ⭐", "prestige_up"),
		),
	)
	return &kb
}

func renderPrestigeBought(s *service.PrestigeStatus) string {
	return fmt.Sprintf(`⭐ <b>Престиж %d!</b>

Империя сброшена, доход теперь умножается на %d.
Стартовый капитал: %s 💰`,
		s.Prestige, s.Prestige, fmtMoney(s.Currency))
}

func renderOutcome(o domain.TaskOutcome) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ Задание <b>%s</b> выполнено!\n\n", o.Task.Name))
	sb.WriteString(fmt.Sprintf("💰 Награда: %s\n", fmtMoney(o.RewardPaid)))
	sb.WriteString(fmt.Sprintf("✨ Опыт: +%s\n", fmtMoney(o.XPAwarded)))
	if o.LeveledUp {
		sb.WriteString(fmt.Sprintf("\n🎉 Новый уровень: <b>%d</b>! Бонус: %s\n", o.NewLevel, domain.LevelReward(o.NewLevel).Describe()))
	}
	return sb.String()
}
