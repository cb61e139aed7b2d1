package main

import (
	cmd "github.com/CknightX/CopyMangaDownloader/cmd/copymanga"
)

func main() {
	cmd.Execute()
}
