package ui

import (
	"fmt"
	"html"
	"strings"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
	"github.com/ave4ge/findateammatebot/internal/infra/telegram"
)

func RenderShop(balance int64) string {
	return fmt.Sprintf("<b>🏪 Магазин</b>\n\n<b>💰 Ваши тимбаллы:</b> %d\n\nВыберите промокод:", balance)
}

func ShopKeyboard(catalog []model.Promo) [][]telegram.InlineButton {
	rows := make([][]telegram.InlineButton, 0, len(catalog)+1)
	for _, promo := range catalog {
		rows = append(rows, []telegram.InlineButton{{
			Text: fmt.Sprintf("%s - %d тимбалов", promo.Title, promo.Price),
			Data: Action{Kind: ActionBuy, PromoID: promo.ID}.Encode(),
		}})
	}
	rows = append(rows, BackToMenu()...)
	return rows
}

func InsufficientBalance(price int64) string {
	return fmt.Sprintf("❌ Недостаточно тимбалов! Нужно: %d", price)
}

func PurchaseDone(receipt model.PurchaseReceipt) string {
	return fmt.Sprintf(
		"✅ Покупка успешна! Промокод на %s приобретен.\n\n<b>💰 Остаток:</b> %d",
		html.EscapeString(receipt.Promo.Title),
		receipt.Balance,
	)
}

// PurchaseNotice goes to admins, who hand out the promo code manually.
func PurchaseNotice(buyer model.Participant, receipt model.PurchaseReceipt) string {
	var b strings.Builder
	b.WriteString("<b>🛒 Новая покупка!</b>\n\n")
	fmt.Fprintf(&b, "<b>Пользователь:</b> %s\n", handle(buyer.Username))
	fmt.Fprintf(&b, "<b>ID:</b> %d\n", buyer.UserID)
	fmt.Fprintf(&b, "<b>Промокод:</b> %s\n", html.EscapeString(receipt.Promo.Title))
	fmt.Fprintf(&b, "<b>Стоимость:</b> %d тимбалов\n\n", receipt.Purchase.Spent)
	b.WriteString(contactLink(buyer.UserID))
	return b.String()
}

func RenderReferral(summary model.ReferralSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>🔗 Ваша реферальная ссылка:</b>\n\n<code>%s</code>\n\n", html.EscapeString(summary.Link))
	b.WriteString("<b>📊 Статистика:</b>\n")
	fmt.Fprintf(&b, "• Приглашено друзей: %d\n", summary.Completed)
	fmt.Fprintf(&b, "• Заработано тимбалов: %d\n\n", summary.Earned)
	fmt.Fprintf(
		&b,
		"💡 За каждого друга, который перейдет по ссылке и найдет %d тиммейтов, вы получите %d тимбалов!",
		summary.Required,
		summary.Reward,
	)
	return b.String()
}
