package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/sfms-dev/facility_bot/internal/model"
)

// maxAttachmentSize caps feedback attachments at Telegram's bot download limit.
const maxAttachmentSize = 20 << 20

func (h *Handlers) downloadDocument(ctx context.Context, b *bot.Bot, doc *models.Document) (*model.Attachment, error) {
	f, err := b.GetFile(ctx, &bot.GetFileParams{FileID: doc.FileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.FileDownloadLink(f), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(content) > maxAttachmentSize {
		return nil, fmt.Errorf("file larger than %d bytes", maxAttachmentSize)
	}

	name := doc.FileName
	if name == "" {
		name = "register"
	}
	return &model.Attachment{Filename: name, Content: content}, nil
}
