// Package notify 发送订单通知邮件
package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/MorseWayne/players_club/internal/config"
)

// OrderNotification 一次下单请求的通知内容
type OrderNotification struct {
	Subject string
	Body    string
	Method  string
	Total   float64
}

// OrderNotifier 订单通知发送者
type OrderNotifier interface {
	NotifyOrder(ctx context.Context, n OrderNotification) error
}

// sendFunc 发送邮件，返回 HTTP 状态码与响应体
type sendFunc func(ctx context.Context, msg *mail.SGMailV3) (int, string, error)

// SendGridNotifier 通过 SendGrid 把订单副本发送到店铺邮箱
type SendGridNotifier struct {
	from   *mail.Email
	to     *mail.Email
	send   sendFunc
	logger *zap.Logger
}

// New 按配置创建通知发送者，未配置 API Key 时返回空实现
func New(cfg config.SendGridConfig, logger *zap.Logger) OrderNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		logger.Info("sendgrid api key not set, order emails disabled")
		return NopNotifier{}
	}

	client := sendgrid.NewSendClient(cfg.APIKey)
	return &SendGridNotifier{
		from: mail.NewEmail(cfg.FromName, cfg.FromEmail),
		to:   mail.NewEmail("The Players Club", cfg.ToEmail),
		send: func(ctx context.Context, msg *mail.SGMailV3) (int, string, error) {
			resp, err := client.SendWithContext(ctx, msg)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		},
		logger: logger,
	}
}

// NotifyOrder 发送订单副本
func (n *SendGridNotifier) NotifyOrder(ctx context.Context, o OrderNotification) error {
	subject := fmt.Sprintf("%s (%s)", o.Subject, o.Method)
	message := mail.NewSingleEmail(n.from, subject, n.to, o.Body, "")

	status, body, err := n.send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send order email: %w", err)
	}
	if status >= 400 {
		n.logger.Warn("sendgrid api error", zap.Int("status", status), zap.String("body", body))
		return fmt.Errorf("failed to send order email, status code: %d", status)
	}

	n.logger.Info("order email sent",
		zap.String("method", o.Method),
		zap.Float64("total", o.Total),
		zap.Int("status", status),
	)
	return nil
}

// NopNotifier 不发送任何通知
type NopNotifier struct{}

func (NopNotifier) NotifyOrder(ctx context.Context, n OrderNotification) error {
	return nil
}
