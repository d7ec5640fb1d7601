package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/mens-health/internal/domain/healthfn"
)

const defaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// Config identifies the EmailJS service, template and account.
type Config struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	UserID     string
	Timeout    time.Duration
}

// Client sends article emails through the EmailJS REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds an EmailJS client.
func NewClient(cfg Config) *Client {
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams templateParams `json:"template_params"`
}

type templateParams struct {
	ToEmail         string `json:"to_email"`
	FromName        string `json:"from_name"`
	ArticleTitle    string `json:"article_title"`
	ArticleContent  string `json:"article_content"`
	ArticleCategory string `json:"article_category"`
	ArticleID       string `json:"article_id"`
}

// Send implements healthfn.EmailSender. Anything but HTTP 200 is an error.
func (c *Client) Send(ctx context.Context, msg healthfn.EmailMessage) error {
	body, err := json.Marshal(sendRequest{
		ServiceID:  c.cfg.ServiceID,
		TemplateID: c.cfg.TemplateID,
		UserID:     c.cfg.UserID,
		TemplateParams: templateParams{
			ToEmail:         msg.ToEmail,
			FromName:        msg.FromName,
			ArticleTitle:    msg.Article.Title,
			ArticleContent:  msg.Article.Content,
			ArticleCategory: msg.Article.Category,
			ArticleID:       msg.Article.ID,
		},
	})
	if err != nil {
		return fmt.Errorf("encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("EmailJS API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return nil
}

var _ healthfn.EmailSender = (*Client)(nil)
