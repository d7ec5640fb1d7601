package article

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/yanqian/mens-health/internal/domain/remote"
	apperrors "github.com/yanqian/mens-health/pkg/errors"
	"github.com/yanqian/mens-health/pkg/util"
)

// MsgShareFailed is shown when the article could not be mailed.
const MsgShareFailed = "Failed to send email. Please try again later."

// Archive keeps rendered article pages.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// ShareRequest names who receives the article and who sent it.
type ShareRequest struct {
	RecipientEmail string `json:"recipientEmail"`
	SenderName     string `json:"senderName"`
}

// ShareResult reports the outcome shown to the user.
type ShareResult struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Article Article `json:"article"`
}

// Service serves and shares health articles.
type Service interface {
	Random(ctx context.Context) Article
	ByID(ctx context.Context, id string) (Article, error)
	Share(ctx context.Context, req ShareRequest) (ShareResult, error)
}

type service struct {
	invoker remote.Invoker
	archive Archive
	pick    func(n int) int
	logger  *slog.Logger
}

// NewService constructs the article service. archive may be nil.
func NewService(invoker remote.Invoker, archive Archive, logger *slog.Logger) Service {
	return &service{
		invoker: invoker,
		archive: archive,
		pick:    rand.IntN,
		logger:  logger.With("component", "article.service"),
	}
}

func (s *service) Random(context.Context) Article {
	return catalog[s.pick(len(catalog))]
}

func (s *service) ByID(_ context.Context, id string) (Article, error) {
	for _, a := range catalog {
		if a.ID == id {
			return a, nil
		}
	}
	return Article{}, apperrors.Wrap(apperrors.CodeNotFound, "article not found", nil)
}

type emailPayload struct {
	RecipientEmail string  `json:"recipientEmail"`
	SenderName     string  `json:"senderName"`
	ArticleContent Article `json:"articleContent"`
}

type emailAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *service) Share(ctx context.Context, req ShareRequest) (ShareResult, error) {
	recipient := strings.TrimSpace(req.RecipientEmail)
	if recipient == "" {
		return ShareResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "recipient email cannot be empty", nil)
	}
	sender := strings.TrimSpace(req.SenderName)
	if sender == "" {
		sender = "Anonymous"
	}
	a := s.Random(ctx)
	s.archivePage(ctx, a)

	res := remote.Call[emailAck](ctx, s.invoker, remote.FnSendHealthEmail, emailPayload{
		RecipientEmail: recipient,
		SenderName:     sender,
		ArticleContent: a,
	})
	if !res.OK() || !res.Value.Success {
		if res.Err != nil {
			s.logger.Warn("article email failed", "articleId", a.ID, "error", res.Err)
		}
		return ShareResult{Success: false, Message: MsgShareFailed, Article: a}, nil
	}
	message := res.Value.Message
	if message == "" {
		message = "Health article sent successfully!"
	}
	return ShareResult{Success: true, Message: message, Article: a}, nil
}

func (s *service) archivePage(ctx context.Context, a Article) {
	if s.archive == nil {
		return
	}
	page, err := RenderHTML(a)
	if err != nil {
		s.logger.Warn("failed to render article", "articleId", a.ID, "error", err)
		return
	}
	key := "articles/" + util.DateOf(util.NowUTC()) + "/article-" + a.ID + ".html"
	if err := s.archive.Put(ctx, key, page, "text/html; charset=utf-8"); err != nil {
		s.logger.Warn("failed to archive article", "key", key, "error", err)
	}
}
