package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Ref points at one exercise document on disk.
type Ref struct {
	ID    string
	Title string
	Path  string
}

var (
	fileNamePattern = regexp.MustCompile(`(?i)^Ex\s*(\d+)[.\s\-]+(.+?)\.pdf$`)
	textPattern     = regexp.MustCompile(`(?i)EXERCISE\s+(\d+)\s*\n\s*Title\s*:\s*(.+)`)
	firstNumber     = regexp.MustCompile(`\d+`)
)

// Discover lists the exercise PDFs in dir sorted by exercise number. Files
// that don't start with "ex" (such as generated reports) are skipped.
func Discover(dir string) ([]Ref, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var refs []Ref
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".pdf") || !strings.HasPrefix(lower, "ex") {
			continue
		}

		id, title := FromFileName(name)
		refs = append(refs, Ref{
			ID:    id,
			Title: title,
			Path:  filepath.Join(dir, name),
		})
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return numberOf(filepath.Base(refs[i].Path)) < numberOf(filepath.Base(refs[j].Path))
	})

	return refs, nil
}

// Select picks the exercises named by selector: "all" or one exercise number.
func Select(refs []Ref, selector string) ([]Ref, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, fmt.Errorf("no exercise selected (use a number or \"all\")")
	}
	if strings.EqualFold(selector, "all") {
		return refs, nil
	}

	pattern, err := regexp.Compile(`(?i)Ex\s*` + regexp.QuoteMeta(selector) + `[.\s\-]`)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	var selected []Ref
	for _, ref := range refs {
		if pattern.MatchString(filepath.Base(ref.Path)) {
			selected = append(selected, ref)
		}
	}

	if len(selected) == 0 {
		var names []string
		for _, ref := range refs {
			names = append(names, filepath.Base(ref.Path))
		}
		return nil, fmt.Errorf("exercise %s not found; available: %s", selector, strings.Join(names, ", "))
	}

	return selected, nil
}

// FromFileName extracts the exercise number and title from names like
// "Ex 4. SQL Operators.pdf". It returns "" for the number when the name
// doesn't follow that shape.
func FromFileName(name string) (id, title string) {
	if m := fileNamePattern.FindStringSubmatch(name); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return "", strings.TrimSuffix(name, filepath.Ext(name))
}

// FromText looks for an "EXERCISE 4 / Title: ..." header in document text.
func FromText(text string) (id, title string, ok bool) {
	if m := textPattern.FindStringSubmatch(text); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

func numberOf(name string) int {
	if m := firstNumber.FindString(name); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 0
}
