package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MorseWayne/players_club/internal/domain"
)

const (
	orderGreeting     = "Hello Players!"
	orderSeparator    = "\n\n---\n\n"
	OrderEmailSubject = "Order Request - The Players Club"
)

// ComposeOrderMessage 生成下单消息：问候语、逐行明细、总价。
// 行没有商品链接时使用 fallbackURL。
func ComposeOrderMessage(items []domain.CartItem, total float64, fallbackURL string) string {
	blocks := make([]string, 0, len(items))
	for _, it := range items {
		link := it.ProductURL
		if link == "" {
			link = fallbackURL
		}
		blocks = append(blocks, fmt.Sprintf(
			"I want to order \"%s\"\nQuantity: %d\nColor: %s\nSize: %s\nAmount to pay: %.2f LEK\nProduct link: %s",
			it.Name, it.Quantity, it.Color, it.Size, it.Subtotal(), link,
		))
	}
	return orderGreeting + "\n\n" + strings.Join(blocks, orderSeparator) +
		orderSeparator + fmt.Sprintf("Total Amount: %.2f LEK", total)
}

// escapeComponent 与浏览器 encodeURIComponent 一致，空格编码为 %20
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// WhatsAppURL 生成 wa.me 链接
func WhatsAppURL(number, message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", number, escapeComponent(message))
}

// EmailURL 生成 mailto 链接
func EmailURL(address, subject, body string) string {
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s", address, escapeComponent(subject), escapeComponent(body))
}
