package integrations

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/CknightX/CopyMangaDownloader/pkg/utils"
	"github.com/go-shiori/go-epub"
)

// ErrNothingToExport is returned when none of the requested chapters has pages on disk.
var ErrNothingToExport = errors.New("no downloaded chapters to export")

// EPubBuilder writes chapters into an EPUB as they are on disk. Page bytes are embedded unchanged.
type EPubBuilder struct {
	outputDir string
	logger    *slog.Logger
}

func NewEPubBuilder(outputDir string, logger *slog.Logger) *EPubBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EPubBuilder{outputDir: outputDir, logger: logger}
}

// Export compiles the chapters, in the order given, into <outputDir>/<title>.epub.
// Chapters without a folder or pages are skipped.
func (p *EPubBuilder) Export(title string, chapters []ChapterFolder) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	e, err := epub.NewEpub(title)
	if err != nil {
		return "", fmt.Errorf("failed to create EPub: %w", err)
	}
	e.SetAuthor("CopyManga")
	e.SetLang("zh")

	added := 0
	for i, chapter := range chapters {
		pages, err := pageFiles(chapter.Dir)
		if err != nil || len(pages) == 0 {
			p.logger.Warn("chapter not downloaded, skipping", "chapter", chapter.Name, "dir", chapter.Dir)
			continue
		}
		if err := p.addChapter(e, i, chapter, pages); err != nil {
			return "", fmt.Errorf("failed to add chapter %s: %w", chapter.Name, err)
		}
		added++
	}
	if added == 0 {
		return "", ErrNothingToExport
	}

	outputPath := filepath.Join(p.outputDir, utils.SanitizeFilename(title)+".epub")
	if err := e.Write(outputPath); err != nil {
		return "", fmt.Errorf("failed to write EPub: %w", err)
	}

	p.logger.Info("exported epub", "path", outputPath, "chapters", added)
	return outputPath, nil
}

func (p *EPubBuilder) addChapter(e *epub.Epub, index int, chapter ChapterFolder, pages []string) error {
	var htmlContent strings.Builder
	htmlContent.WriteString(fmt.Sprintf("<h1>%s</h1>\n", chapter.Name))

	for i, page := range pages {
		// Every chapter numbers its pages from 1, so internal names carry the chapter index.
		filename := fmt.Sprintf("c%04d_p%04d%s", index+1, i+1, strings.ToLower(filepath.Ext(page)))
		internalPath, err := e.AddImage(filepath.Join(chapter.Dir, page), filename)
		if err != nil {
			return fmt.Errorf("failed to add image %s: %w", page, err)
		}
		htmlContent.WriteString(fmt.Sprintf(
			`<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>%s`,
			internalPath, i+1, "\n",
		))
	}

	_, err := e.AddSection(htmlContent.String(), chapter.Name, "", "")
	return err
}

// pageFiles lists the page images in dir in page order. Pages are named by number, so
// "10.jpg" sorts after "9.jpg". Temporary files of unfinished downloads are ignored.
func pageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var pages []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !isImageFile(name) {
			continue
		}
		pages = append(pages, name)
	}

	sort.Slice(pages, func(i, j int) bool {
		ni, erri := strconv.Atoi(strings.TrimSuffix(pages[i], filepath.Ext(pages[i])))
		nj, errj := strconv.Atoi(strings.TrimSuffix(pages[j], filepath.Ext(pages[j])))
		if erri != nil || errj != nil {
			return pages[i] < pages[j]
		}
		return ni < nj
	})
	return pages, nil
}

// isImageFile checks if a file has an image extension
func isImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".gif" || ext == ".webp"
}
