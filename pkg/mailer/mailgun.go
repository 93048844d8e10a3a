package mailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultMailgunURL = "https://api.mailgun.net"

type MailgunClient struct {
	BaseURL    string
	APIKey     string
	Domain     string
	From       string
	HTTPClient *http.Client
}

func NewMailgunClient(apiKey, domain, from string) *MailgunClient {
	if from == "" {
		from = fmt.Sprintf("Ranjan Medicine <no-reply@%s>", domain)
	}
	return &MailgunClient{
		BaseURL: DefaultMailgunURL,
		APIKey:  apiKey,
		Domain:  domain,
		From:    from,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *MailgunClient) Name() string { return "mailgun" }

func (c *MailgunClient) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("from", c.From)
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	if msg.Text != "" {
		form.Set("text", msg.Text)
	}
	if msg.HTML != "" {
		form.Set("html", msg.HTML)
	}

	endpoint := fmt.Sprintf("%s/v3/%s/messages", strings.TrimRight(c.BaseURL, "/"), c.Domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mailgun returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
