package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/vklymiuk/tg-star-shop/internal/kafka"
	"github.com/vklymiuk/tg-star-shop/internal/orders"
	"github.com/vklymiuk/tg-star-shop/internal/pricing"
	"github.com/vklymiuk/tg-star-shop/internal/redisx"
)

// invoicePayload rides inside the Telegram invoice so the payment
// callback can find its order again.
type invoicePayload struct {
	OrderID int `json:"order_id"`
}

type Bot struct {
	API         *tgbotapi.BotAPI
	Store       orders.Store
	Redis       *redis.Client
	WebAppURL   string
	ServiceName string
}

func New(token string, store orders.Store, rdb *redis.Client, webAppURL, service string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot api: %w", err)
	}
	return &Bot{API: api, Store: store, Redis: rdb, WebAppURL: webAppURL, ServiceName: service}, nil
}

// Run long-polls Telegram updates until ctx is canceled.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.API.GetUpdatesChan(cfg)

	log.Printf("bot @%s polling", b.API.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.API.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.PreCheckoutQuery != nil:
		// Stock was already reserved at checkout, nothing left to veto.
		_, err := b.API.Request(tgbotapi.PreCheckoutConfig{
			PreCheckoutQueryID: upd.PreCheckoutQuery.ID,
			OK:                 true,
		})
		if err != nil {
			log.Printf("pre-checkout answer: %v", err)
		}
	case upd.Message != nil && upd.Message.SuccessfulPayment != nil:
		b.handlePayment(ctx, upd.Message)
	case upd.Message != nil && upd.Message.IsCommand():
		b.handleCommand(upd.Message)
	}
}

func (b *Bot) handleCommand(m *tgbotapi.Message) {
	switch m.Command() {
	case "start":
		name := m.From.FirstName
		if name == "" {
			name = "друг"
		}
		text := fmt.Sprintf("👋 Привет, %s!\n\nДобро пожаловать в наш магазин!\n\nНажмите кнопку ниже, чтобы открыть каталог товаров 👇", name)
		b.sendShopButton(m.Chat.ID, text)
	case "shop":
		b.sendShopButton(m.Chat.ID, "🛒 Нажмите кнопку для открытия магазина:")
	}
}

func (b *Bot) sendShopButton(chatID int64, text string) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.InlineKeyboardButton{
				Text:   "🛍️ Открыть магазин",
				WebApp: &tgbotapi.WebAppInfo{URL: b.WebAppURL + "/app"},
			},
		),
	)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.API.Send(msg); err != nil {
		log.Printf("send shop button: %v", err)
	}
}

func (b *Bot) handlePayment(ctx context.Context, m *tgbotapi.Message) {
	pay := m.SuccessfulPayment

	var p invoicePayload
	if err := json.Unmarshal([]byte(pay.InvoicePayload), &p); err != nil || p.OrderID == 0 {
		log.Printf("payment with unreadable payload: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := b.Store.MarkPaid(ctx, p.OrderID, pay.TelegramPaymentChargeID); err != nil {
		log.Printf("mark order %d paid: %v", p.OrderID, err)
		b.plainMessage(m.Chat.ID, "❌ Произошла ошибка при обработке платежа. Пожалуйста, свяжитесь с поддержкой.")
		return
	}

	o, err := b.Store.Order(ctx, p.OrderID)
	if err != nil {
		log.Printf("load order %d for receipt: %v", p.OrderID, err)
		return
	}
	b.sendReceipt(m.Chat.ID, o, pay)
}

func (b *Bot) sendReceipt(chatID int64, o orders.Order, pay *tgbotapi.SuccessfulPayment) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ <b>Оплата успешно выполнена!</b>\n\n🧾 <b>Чек #%d</b>\n\n📦 <b>Товары:</b>\n", o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&sb, "  • %s x%d - %.2f грн\n", it.ProductName, it.Quantity, it.PriceUAH)
	}
	fmt.Fprintf(&sb, "\n💰 <b>Итого:</b>\n  • %.2f грн\n  • %d ⭐ Stars\n", o.TotalUAH, pay.TotalAmount)
	fmt.Fprintf(&sb, "\n🆔 <b>ID платежа:</b> %s\n\nСпасибо за покупку! 🎉", pay.TelegramPaymentChargeID)

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.API.Send(msg); err != nil {
		log.Printf("send receipt: %v", err)
	}
}

func (b *Bot) plainMessage(chatID int64, text string) {
	if _, err := b.API.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("send message: %v", err)
	}
}

// HandleOrderCreated is the Kafka consumer handler: it runs strictly
// after the placement transaction committed, and delivers the invoice or
// the confirmation the checkout itself never sends.
func (b *Bot) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, b.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, b.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	switch p.PaymentMethod {
	case orders.PayStars:
		if err := b.sendInvoice(p); err != nil {
			return err
		}
	case orders.PayTON:
		b.plainMessage(p.TelegramUserID, fmt.Sprintf(
			"🧾 Заказ #%d создан.\n\nК оплате: %s TON.\nПодтвердите перевод в кошельке.",
			p.OrderID, pricing.FormatTON(p.TotalTON)))
	case orders.PayCOD:
		b.plainMessage(p.TelegramUserID, fmt.Sprintf(
			"🧾 Заказ #%d создан.\n\nОплата при получении: %.2f грн.", p.OrderID, p.TotalUAH))
	}

	_ = b.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return nil
}

func (b *Bot) sendInvoice(p orders.OrderCreatedPayload) error {
	var lines []string
	for _, it := range p.Items {
		lines = append(lines, fmt.Sprintf("• %s x%d - %.2f грн", it.ProductName, it.Quantity, it.PriceUAH))
	}
	description := fmt.Sprintf("Заказ:\n%s\n\nИтого: %.2f грн", strings.Join(lines, "\n"), p.TotalUAH)

	payload, err := json.Marshal(invoicePayload{OrderID: p.OrderID})
	if err != nil {
		return err
	}

	// Stars invoices use the XTR pseudo-currency and no provider token.
	inv := tgbotapi.NewInvoice(
		p.TelegramUserID,
		"🛍️ Оплата заказа",
		description,
		string(payload),
		"", // provider token is empty for Stars
		"",
		"XTR",
		[]tgbotapi.LabeledPrice{{
			Label:  fmt.Sprintf("Товары (%.2f грн)", p.TotalUAH),
			Amount: p.TotalStars,
		}},
	)
	if _, err := b.API.Send(inv); err != nil {
		return fmt.Errorf("send invoice for order %d: %w", p.OrderID, err)
	}
	return nil
}
