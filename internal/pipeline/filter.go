package pipeline

import (
	"collsync/internal/model"
	"path/filepath"
	"strings"
)

func Filter(inCh <-chan model.FileEvent, ignoreList []string) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		defer close(outCh)

		for event := range inCh {
			if shouldIgnore(event.Path, ignoreList) {
				continue
			}
			outCh <- event
		}
	}()

	return outCh
}

// Markdown keeps only write/create events on markdown files; everything
// else is irrelevant to the save-hook trigger.
func Markdown(inCh <-chan model.FileEvent) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		defer close(outCh)

		for event := range inCh {
			if event.Type != model.EventCreate && event.Type != model.EventWrite {
				continue
			}

			if !strings.HasSuffix(event.Path, ".md") {
				continue
			}

			outCh <- event
		}
	}()

	return outCh
}

func shouldIgnore(path string, ignoreList []string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")

	for _, part := range parts {
		for _, pattern := range ignoreList {
			matched, err := filepath.Match(pattern, part)
			if err == nil && matched {
				return true
			}
		}
	}

	return false
}
