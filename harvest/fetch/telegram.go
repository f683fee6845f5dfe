package fetch

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"proxyharvest/harvest/extract"
	"proxyharvest/internal/shared/logger"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

// Fetcher retrieves the two text populations of one channel page. A
// transport error, timeout or non-2xx status is returned as an error; the
// caller treats it as zero entries for that channel, never as fatal.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, url string) (*extract.Page, error)
}

// TelegramFetcher fetches t.me/s/ preview pages and pulls out message
// bodies and code/pre blocks.
type TelegramFetcher struct {
	timeout   time.Duration
	userAgent string
}

// NewTelegramFetcher returns a fetcher with the given per-request timeout.
func NewTelegramFetcher(timeout time.Duration) *TelegramFetcher {
	return &TelegramFetcher{
		timeout:   timeout,
		userAgent: defaultUserAgent,
	}
}

// Name returns the fetcher's name for logging.
func (f *TelegramFetcher) Name() string {
	return "t.me"
}

// Fetch retrieves url and collects message-body texts and code/pre block
// texts. A fresh collector per call keeps the fetcher safe for concurrent
// use from the worker pool.
func (f *TelegramFetcher) Fetch(ctx context.Context, url string) (*extract.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := logger.WithComponent("Harvest/Fetch")

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(f.timeout)

	page := &extract.Page{}
	var parseErr error

	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			parseErr = err
			return
		}
		doc.Find("div.tgme_widget_message_text, span.tgme_widget_message_text").Each(func(_ int, sel *goquery.Selection) {
			page.Messages = append(page.Messages, strings.TrimSpace(sel.Text()))
		})
		doc.Find("code, pre").Each(func(_ int, sel *goquery.Selection) {
			page.CodeBlocks = append(page.CodeBlocks, strings.TrimSpace(sel.Text()))
		})
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if parseErr != nil {
		return nil, parseErr
	}

	l.Debug().Str("url", url).
		Int("messages", len(page.Messages)).
		Int("code_blocks", len(page.CodeBlocks)).
		Msg("Page fetched.")
	return page, nil
}
