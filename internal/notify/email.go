package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"sync"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/haihvite/printiful-bot/internal/logbus"
	"github.com/haihvite/printiful-bot/internal/model"
	"github.com/haihvite/printiful-bot/internal/store/sqlite"
)

// EmailNotifier 把注册成功事件攒在一个窗口里，按批发汇总邮件。
// 配置从 settings 表现取，没配或没启用就静默丢弃。
type EmailNotifier struct {
	store *sqlite.Store
	bus   *logbus.Bus

	mu     sync.Mutex
	queue  chan AccountRegisteredEvent
	ctx    context.Context
	cancel func()
	wg     sync.WaitGroup

	summaryWindow time.Duration
	maxBatch      int
}

func NewEmailNotifier(store *sqlite.Store, bus *logbus.Bus) *EmailNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &EmailNotifier{
		store:         store,
		bus:           bus,
		queue:         make(chan AccountRegisteredEvent, 200),
		ctx:           ctx,
		cancel:        cancel,
		summaryWindow: time.Minute,
		maxBatch:      50,
	}
	n.wg.Add(1)
	go n.loop()
	return n
}

func (n *EmailNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	cancel := n.cancel
	n.cancel = nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *EmailNotifier) AccountRegistered(evt AccountRegisteredEvent) {
	if evt.At == 0 {
		evt.At = time.Now().UnixMilli()
	}
	select {
	case n.queue <- evt:
	default:
		if n.bus != nil {
			n.bus.Log("warn", "邮件通知丢弃：队列已满", map[string]any{"email": evt.Email})
		}
	}
}

func (n *EmailNotifier) loop() {
	defer n.wg.Done()

	var (
		pending []AccountRegisteredEvent
		timer   *time.Timer
		timerCh <-chan time.Time
	)

	stopTimer := func() {
		if timer == nil {
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer = nil
		timerCh = nil
	}

	flush := func(reason string) {
		if len(pending) == 0 {
			stopTimer()
			return
		}
		events := append([]AccountRegisteredEvent(nil), pending...)
		pending = pending[:0]
		stopTimer()
		n.handleBatch(reason, events)
	}

	for {
		select {
		case <-n.ctx.Done():
			flush("shutdown")
			return
		case evt := <-n.queue:
			pending = append(pending, evt)
			if len(pending) >= n.maxBatch {
				flush("max")
				continue
			}
			if timer == nil {
				timer = time.NewTimer(n.summaryWindow)
				timerCh = timer.C
			}
		case <-timerCh:
			flush("idle")
		}
	}
}

func (n *EmailNotifier) handleBatch(reason string, events []AccountRegisteredEvent) {
	settings, ok, err := n.store.GetEmailSettings(n.ctx)
	if err != nil {
		if n.bus != nil {
			n.bus.Log("warn", "读取邮件配置失败", map[string]any{"error": err.Error()})
		}
		return
	}
	if !ok || !settings.Enabled {
		return
	}
	if err := validateEmailSettings(settings); err != nil {
		if n.bus != nil {
			n.bus.Log("warn", "邮件配置无效", map[string]any{"error": err.Error()})
		}
		return
	}
	if err := SendSummaryEmail(n.ctx, settings, events); err != nil {
		if n.bus != nil {
			n.bus.Log("warn", "邮件发送失败", map[string]any{
				"error":  err.Error(),
				"count":  len(events),
				"reason": reason,
			})
		}
		return
	}
	if n.bus != nil {
		n.bus.Log("info", "注册汇总邮件已发送", map[string]any{
			"count": len(events),
			"to":    strings.TrimSpace(settings.Email),
		})
	}
}

func validateEmailSettings(s model.EmailSettings) error {
	email := strings.TrimSpace(s.Email)
	if email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email")
	}
	if strings.TrimSpace(s.AuthCode) == "" {
		return errors.New("authCode is required")
	}
	return nil
}

// SendTestEmail 给配置里的地址发一封验证邮件，面板的“测试”按钮用。
func SendTestEmail(ctx context.Context, settings model.EmailSettings) error {
	return send(ctx, settings, "注册助手测试邮件", "这是一封测试邮件，收到说明邮件配置可用。", "<p>这是一封测试邮件，收到说明邮件配置可用。</p>")
}

func SendSummaryEmail(ctx context.Context, settings model.EmailSettings, events []AccountRegisteredEvent) error {
	if len(events) == 0 {
		return errors.New("no events")
	}
	subject := fmt.Sprintf("注册结果汇总（%d 个账号）", len(events))

	var htmlBuf bytes.Buffer
	if err := summaryHTMLTpl.Execute(&htmlBuf, events); err != nil {
		return err
	}
	var textBuf strings.Builder
	for _, evt := range events {
		fmt.Fprintf(&textBuf, "%s  profile=%s  %s\n",
			evt.Email, evt.ProfileID, time.UnixMilli(evt.At).Format("2006-01-02 15:04:05"))
	}
	return send(ctx, settings, subject, textBuf.String(), htmlBuf.String())
}

func send(ctx context.Context, settings model.EmailSettings, subject, textBody, htmlBody string) error {
	if err := validateEmailSettings(settings); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	email := strings.TrimSpace(settings.Email)
	host, port, useSSL, err := smtpConfigForEmail(email)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(email, "注册助手"))
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(host, port, email, strings.TrimSpace(settings.AuthCode))
	d.SSL = useSSL
	return d.DialAndSend(msg)
}

func smtpConfigForEmail(email string) (host string, port int, useSSL bool, err error) {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return "", 0, false, errors.New("invalid email format")
	}
	domain := strings.ToLower(strings.TrimSpace(parts[1]))

	switch {
	case domain == "qq.com" || strings.HasSuffix(domain, ".qq.com") || domain == "foxmail.com":
		return "smtp.qq.com", 465, true, nil
	case domain == "163.com" || domain == "126.com" || domain == "yeah.net":
		return "smtp.163.com", 465, true, nil
	case domain == "gmail.com":
		return "smtp.gmail.com", 587, false, nil
	case domain == "outlook.com" || domain == "hotmail.com" || domain == "live.com":
		return "smtp.office365.com", 587, false, nil
	default:
		return "smtp." + domain, 465, true, nil
	}
}

var summaryHTMLTpl = template.Must(template.New("summary").Parse(`
<!doctype html>
<html lang="zh-CN">
  <head><meta charset="utf-8" /><title>注册结果汇总</title></head>
  <body style="margin:0;padding:0;background:#f6f8fb;font-family:-apple-system,'Segoe UI',Roboto,'PingFang SC','Microsoft YaHei',sans-serif;">
    <div style="max-width:720px;margin:0 auto;padding:24px;">
      <div style="background:#ffffff;border:1px solid #e6e8ef;border-radius:14px;overflow:hidden;">
        <div style="padding:18px 22px;background:linear-gradient(135deg,#0ea5e9,#6366f1);color:#ffffff;">
          <div style="font-size:16px;font-weight:700;">注册结果汇总</div>
        </div>
        <div style="padding:22px;">
          <table role="presentation" cellspacing="0" cellpadding="0" border="0" style="width:100%;border-collapse:collapse;">
            <tbody>
              {{ range . }}
              <tr>
                <td style="padding:10px 12px;border-bottom:1px solid #eef0f6;color:#111827;font-size:13px;font-weight:600;">{{ .Email }}</td>
                <td style="padding:10px 12px;border-bottom:1px solid #eef0f6;color:#6b7280;font-size:12px;">{{ .ProfileID }}</td>
              </tr>
              {{ end }}
            </tbody>
          </table>
          <div style="margin-top:14px;color:#9ca3af;font-size:12px;">此邮件由系统自动发送</div>
        </div>
      </div>
    </div>
  </body>
</html>
`))
