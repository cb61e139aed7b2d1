package integrations

// ChapterFolder is a downloaded chapter: its name and the folder its pages were written to.
type ChapterFolder struct {
	Name string
	Dir  string
}

// Exporter packs downloaded chapters into a single file and returns its path.
type Exporter interface {
	Export(title string, chapters []ChapterFolder) (string, error)
}
