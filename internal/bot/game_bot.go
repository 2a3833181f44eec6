package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/logger"
	"tycoon_bot/internal/repository"
	"tycoon_bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// GameBot is the chat frontend: it registers players, renders the economy
// and drives purchases, tasks and prestige through the service layer.
type GameBot struct {
	bot              *tgbotapi.BotAPI
	users            repository.UserStore
	economy          *service.EconomyService
	progression      *service.ProgressionService
	tasks            *service.TaskService
	admin            *service.AdminService
	adminIDs         []int64
	startingCurrency int64
	stopCh           chan struct{}
	wg               sync.WaitGroup
	log              *slog.Logger

	pendingMu        sync.Mutex
	broadcastPending map[int64]bool
}

// Handlers run in their own goroutines while the update loop keeps reading,
// so the pending-broadcast set needs its own lock.
func (b *GameBot) setBroadcastPending(adminID int64) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	b.broadcastPending[adminID] = true
}

func (b *GameBot) clearBroadcastPending(adminID int64) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	delete(b.broadcastPending, adminID)
}

func (b *GameBot) isBroadcastPending(adminID int64) bool {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	return b.broadcastPending[adminID]
}

func NewGameBot(token string, users repository.UserStore, economy *service.EconomyService, progression *service.ProgressionService, tasks *service.TaskService, admin *service.AdminService, adminIDs []int64, startingCurrency int64) (*GameBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "game_bot")
	log.Info("bot authorized", "username", api.Self.UserName)

	return &GameBot{
		bot:              api,
		users:            users,
		economy:          economy,
		progression:      progression,
		tasks:            tasks,
		admin:            admin,
		adminIDs:         adminIDs,
		startingCurrency: startingCurrency,
		stopCh:           make(chan struct{}),
		log:              log,
		broadcastPending: make(map[int64]bool),
	}, nil
}

// Start runs the update loop until Stop is called.
func (b *GameBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			switch {
			case update.CallbackQuery != nil:
				b.wg.Add(1)
				go func(cb *tgbotapi.CallbackQuery) {
					defer b.wg.Done()
					b.handleCallback(cb)
				}(update.CallbackQuery)

			case update.Message != nil:
				msg := update.Message

				if b.isBroadcastPending(msg.From.ID) && !msg.IsCommand() {
					b.wg.Add(1)
					go func(m *tgbotapi.Message) {
						defer b.wg.Done()
						b.executeBroadcast(m)
					}(msg)
					continue
				}

				if !msg.IsCommand() {
					continue
				}

				b.wg.Add(1)
				go func(m *tgbotapi.Message) {
					defer b.wg.Done()
					b.handleCommand(m)
				}(msg)
			}
		}
	}
}

// Stop gracefully stops the bot
func (b *GameBot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *GameBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *GameBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var response string
	var keyboard *tgbotapi.InlineKeyboardMarkup

	switch msg.Command() {
	case "start":
		response = b.handleStart(ctx, msg)

	case "help":
		response = helpMessage(b.isAdmin(msg.From.ID))

	case "status":
		response = b.withUser(ctx, msg, func(u *domain.User) string {
			return b.handleStatus(ctx, u)
		})

	case "buildings":
		response, keyboard = b.handleBuildings(ctx, msg)

	case "tasks":
		response, keyboard = b.handleTasks(ctx, msg)

	case "prestige":
		response, keyboard = b.handlePrestige(ctx, msg)

	// admin commands
	case "stats":
		if b.isAdmin(msg.From.ID) {
			response = b.handleStats(ctx)
		}

	case "top":
		if b.isAdmin(msg.From.ID) {
			response = b.handleTop(ctx, msg.CommandArguments())
		}

	case "users":
		if b.isAdmin(msg.From.ID) {
			response = b.handleUsers(ctx, msg.CommandArguments())
		}

	case "addcurrency":
		if b.isAdmin(msg.From.ID) {
			response = b.handleAddCurrency(ctx, msg.CommandArguments())
		}

	case "broadcast":
		if b.isAdmin(msg.From.ID) {
			b.setBroadcastPending(msg.From.ID)
			response = "📢 Введите сообщение для рассылки. /cancel для отмены."
		}

	default:
		response = "❌ Неизвестная команда. Используйте /help для списка команд."
	}

	if response == "" {
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	reply.ReplyToMessageID = msg.MessageID
	if keyboard != nil {
		reply.ReplyMarkup = keyboard
	}

	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

// withUser runs fn for a registered player, or prompts for /start.
func (b *GameBot) withUser(ctx context.Context, msg *tgbotapi.Message, fn func(u *domain.User) string) string {
	user, err := b.users.GetByTgID(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "Вы ещё не зарегистрированы. Отправьте /start."
		}
		b.log.Error("failed to load user", "tg_id", msg.From.ID, "error", err)
		return "❌ Что-то пошло не так, попробуйте позже."
	}
	return fn(user)
}

func (b *GameBot) handleStart(ctx context.Context, msg *tgbotapi.Message) string {
	if _, err := b.users.GetByTgID(ctx, msg.From.ID); err == nil {
		return "С возвращением! /status покажет вашу империю."
	}

	user := &domain.User{
		TgID:      msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		Currency:  b.startingCurrency,
	}
	if err := b.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "С возвращением! /status покажет вашу империю."
		}
		b.log.Error("registration failed", "tg_id", msg.From.ID, "error", err)
		return "❌ Не удалось зарегистрироваться, попробуйте позже."
	}

	b.log.Info("user registered", "user_id", user.ID, "tg_id", user.TgID)
	return renderWelcome(user)
}

func (b *GameBot) handleStatus(ctx context.Context, u *domain.User) string {
	income, err := b.users.IncomePerTick(ctx, u.ID)
	if err != nil {
		b.log.Error("failed to load income", "user_id", u.ID, "error", err)
		income = 0
	}

	var activeName string
	if u.ActiveTaskID != nil {
		if task, err := b.tasks.ActiveTask(ctx, u.ID); err == nil && task != nil {
			activeName = task.Name
		}
	}

	return renderStatus(u, income, activeName)
}

func (b *GameBot) handleBuildings(ctx context.Context, msg *tgbotapi.Message) (string, *tgbotapi.InlineKeyboardMarkup) {
	var (
		text string
		kb   *tgbotapi.InlineKeyboardMarkup
	)
	text = b.withUser(ctx, msg, func(u *domain.User) string {
		views, err := b.economy.ListBuildings(ctx, u.ID)
		if err != nil {
			b.log.Error("failed to list buildings", "user_id", u.ID, "error", err)
			return "❌ Не удалось загрузить здания."
		}
		kb = buildingsKeyboard(views)
		return renderBuildings(views, u.Currency)
	})
	return text, kb
}

func (b *GameBot) handleTasks(ctx context.Context, msg *tgbotapi.Message) (string, *tgbotapi.InlineKeyboardMarkup) {
	var (
		text string
		kb   *tgbotapi.InlineKeyboardMarkup
	)
	text = b.withUser(ctx, msg, func(u *domain.User) string {
		views, err := b.tasks.ListTasks(ctx, u.ID)
		if err != nil {
			b.log.Error("failed to list tasks", "user_id", u.ID, "error", err)
			return "❌ Не удалось загрузить задания."
		}
		kb = tasksKeyboard(views)
		return renderTasks(views, u.Level)
	})
	return text, kb
}

func (b *GameBot) handlePrestige(ctx context.Context, msg *tgbotapi.Message) (string, *tgbotapi.InlineKeyboardMarkup) {
	var (
		text string
		kb   *tgbotapi.InlineKeyboardMarkup
	)
	text = b.withUser(ctx, msg, func(u *domain.User) string {
		status, err := b.progression.PrestigeStatus(ctx, u.ID)
		if err != nil {
			b.log.Error("failed to load prestige", "user_id", u.ID, "error", err)
			return "❌ Не удалось загрузить престиж."
		}
		kb = prestigeKeyboard()
		return renderPrestige(status)
	})
	return text, kb
}

// handleCallback services the inline buttons: buy:<id>, task:<id>,
// prestige_up.
func (b *GameBot) handleCallback(cb *tgbotapi.CallbackQuery) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// always answer so the button stops spinning
	defer func() {
		if _, err := b.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.log.Error("callback answer failed", "error", err)
		}
	}()

	user, err := b.users.GetByTgID(ctx, cb.From.ID)
	if err != nil {
		b.send(cb.Message.Chat.ID, "Вы ещё не зарегистрированы. Отправьте /start.")
		return
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, "buy:"):
		b.send(cb.Message.Chat.ID, b.callbackBuy(ctx, user, strings.TrimPrefix(data, "buy:")))

	case strings.HasPrefix(data, "task:"):
		b.send(cb.Message.Chat.ID, b.callbackStartTask(ctx, user, strings.TrimPrefix(data, "task:")))

	case data == "prestige_up":
		b.send(cb.Message.Chat.ID, b.callbackPrestigeUp(ctx, user))
	}
}

func (b *GameBot) callbackBuy(ctx context.Context, u *domain.User, arg string) string {
	buildingID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return "❌ Неверное здание."
	}

	result, err := b.economy.PurchaseBuilding(ctx, u.ID, buildingID)
	if err != nil {
		if errors.Is(err, service.ErrBuildingNotFound) {
			return "❌ Здание не найдено."
		}
		b.log.Error("purchase failed", "user_id", u.ID, "building_id", buildingID, "error", err)
		return "❌ Покупка не удалась, попробуйте позже."
	}

	return renderPurchase(result)
}

func (b *GameBot) callbackStartTask(ctx context.Context, u *domain.User, arg string) string {
	taskID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return "❌ Неверное задание."
	}

	result, err := b.tasks.StartTask(ctx, u.ID, taskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return "❌ Задание не найдено."
		}
		b.log.Error("task start failed", "user_id", u.ID, "task_id", taskID, "error", err)
		return "❌ Не удалось начать задание, попробуйте позже."
	}

	return renderStartResult(result)
}

func (b *GameBot) callbackPrestigeUp(ctx context.Context, u *domain.User) string {
	status, err := b.progression.PrestigeUp(ctx, u.ID)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientFunds) {
			return "❌ Недостаточно средств для престижа."
		}
		b.log.Error("prestige failed", "user_id", u.ID, "error", err)
		return "❌ Престиж не удался, попробуйте позже."
	}

	return renderPrestigeBought(status)
}

// NotifyTaskComplete is installed as the task completion handler: it tells
// the player the task finished and what it paid.
func (b *GameBot) NotifyTaskComplete(outcome domain.TaskOutcome) {
	msg := tgbotapi.NewMessage(outcome.TgID, renderOutcome(outcome))
	msg.ParseMode = "HTML"
	if _, err := b.bot.Send(msg); err != nil {
		b.log.Error("completion notification failed", "tg_id", outcome.TgID, "error", err)
	}
}

func (b *GameBot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	if _, err := b.bot.Send(msg); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}
