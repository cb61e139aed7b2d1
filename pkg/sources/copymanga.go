package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/utils"
	"golang.org/x/net/html"
)

const (
	DefaultAPIBaseURL  = "https://api.copymanga.com"
	DefaultSiteBaseURL = "https://www.copymanga.com"
	DefaultPageSize    = 500

	platform = "3"
)

type chapterListResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Results *struct {
		List []struct {
			Name string `json:"name"`
			UUID string `json:"uuid"`
		} `json:"list"`
		Total  int `json:"total"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	} `json:"results"`
}

type chapterPagesResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Results *struct {
		Chapter *struct {
			Contents []struct {
				URL string `json:"url"`
			} `json:"contents"`
		} `json:"chapter"`
	} `json:"results"`
}

type CopyManga struct {
	api         *utils.API
	siteBaseURL string
	pageSize    int
}

func NewCopyManga(api *utils.API, siteBaseURL string, pageSize int) *CopyManga {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CopyManga{
		api:         api,
		siteBaseURL: strings.TrimRight(siteBaseURL, "/"),
		pageSize:    pageSize,
	}
}

func (c *CopyManga) GetChapters(ctx context.Context, seriesKey string) ([]data.Chapter, error) {
	path := fmt.Sprintf("/api/v3/comic/%s/group/default/chapters", url.PathEscape(seriesKey))

	var chapters []data.Chapter
	for offset := 0; ; {
		params := url.Values{
			"limit":    {strconv.Itoa(c.pageSize)},
			"offset":   {strconv.Itoa(offset)},
			"platform": {platform},
		}

		var resp chapterListResponse
		if err := c.api.Get(ctx, path, params, &resp); err != nil {
			if errors.Is(err, utils.ErrMalformedResponse) {
				return nil, fmt.Errorf("%w: %w", data.ErrCatalogMalformed, err)
			}
			return nil, fmt.Errorf("%w: %w", data.ErrCatalogUnavailable, err)
		}
		if resp.Code != 0 && resp.Code != 200 {
			return nil, fmt.Errorf("%w: %s: code %d: %s", data.ErrCatalogUnavailable, seriesKey, resp.Code, resp.Message)
		}
		if resp.Results == nil || resp.Results.List == nil {
			return nil, fmt.Errorf("%w: %s: missing results.list", data.ErrCatalogMalformed, seriesKey)
		}

		for _, item := range resp.Results.List {
			if item.Name == "" || item.UUID == "" {
				return nil, fmt.Errorf("%w: %s: chapter without name or uuid", data.ErrCatalogMalformed, seriesKey)
			}
			chapters = append(chapters, data.Chapter{
				Name:    item.Name,
				ID:      item.UUID,
				Ordinal: len(chapters),
			})
		}

		offset += len(resp.Results.List)
		if len(resp.Results.List) == 0 || offset >= resp.Results.Total {
			break
		}
	}

	return chapters, nil
}

func (c *CopyManga) GetPages(ctx context.Context, seriesKey string, chapter data.Chapter) ([]string, error) {
	path := fmt.Sprintf("/api/v3/comic/%s/chapter2/%s", url.PathEscape(seriesKey), url.PathEscape(chapter.ID))

	var resp chapterPagesResponse
	if err := c.api.Get(ctx, path, url.Values{"platform": {platform}}, &resp); err != nil {
		if errors.Is(err, utils.ErrMalformedResponse) {
			return nil, fmt.Errorf("%w: %w", data.ErrPageListMalformed, err)
		}
		return nil, fmt.Errorf("%w: %w", data.ErrPageListUnavailable, err)
	}
	if resp.Code != 0 && resp.Code != 200 {
		return nil, fmt.Errorf("%w: %s: code %d: %s", data.ErrPageListUnavailable, chapter.Name, resp.Code, resp.Message)
	}
	if resp.Results == nil || resp.Results.Chapter == nil || resp.Results.Chapter.Contents == nil {
		return nil, fmt.Errorf("%w: %s: missing results.chapter.contents", data.ErrPageListMalformed, chapter.Name)
	}

	pages := make([]string, len(resp.Results.Chapter.Contents))
	for i, content := range resp.Results.Chapter.Contents {
		if content.URL == "" {
			return nil, fmt.Errorf("%w: %s: page %d has no url", data.ErrPageListMalformed, chapter.Name, i+1)
		}
		pages[i] = content.URL
	}
	return pages, nil
}

func (c *CopyManga) GetTitle(ctx context.Context, seriesKey string) (string, error) {
	page := fmt.Sprintf("%s/comic/%s", c.siteBaseURL, url.PathEscape(seriesKey))
	body, err := c.api.GetText(ctx, page)
	if err != nil {
		return "", fmt.Errorf("%w: %w", data.ErrTitleUnavailable, err)
	}

	title, err := ParseTitle(body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", data.ErrTitleUnavailable, seriesKey, err)
	}
	return title, nil
}

// ParseTitle extracts the series name from the index page's <title>, which reads
// "<name> - <site suffix>".
func ParseTitle(document string) (string, error) {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", err
	}

	var title string
	var walker func(*html.Node) bool
	walker = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walker(c) {
				return true
			}
		}
		return false
	}
	walker(doc)

	if i := strings.Index(title, "-"); i >= 0 {
		title = title[:i]
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("no title element")
	}
	return title, nil
}
