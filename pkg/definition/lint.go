package definition

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Issue is a problem found while linting definition files.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Journey string `json:"journey,omitempty"`
	Message string `json:"message"`
}

// LintResult captures the outcome of Lint.
type LintResult struct {
	Valid     bool     `json:"valid"`
	Journeys  []string `json:"journeys,omitempty"`
	Issues    []Issue  `json:"issues,omitempty"`
	FileCount int      `json:"files"`
}

// Lint checks every definition file in fsys and keeps going after failures
// so all problems are reported at once.
func Lint(fsys fs.FS, opts ...Option) LintResult {
	result := LintResult{Valid: true}
	if fsys == nil {
		return result
	}
	l := newLoader(opts)
	seen := map[string]string{}

	walkErr := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			result.add(Issue{Path: path, Message: err.Error()})
			return nil
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		result.FileCount++

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			result.add(Issue{Path: path, Message: err.Error()})
			return nil
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			result.add(Issue{Path: path, Message: err.Error()})
			return nil
		}
		journeys := journeysOf(doc)
		if len(journeys) == 0 {
			result.add(Issue{Path: path, Message: "no journeys defined"})
		}
		for _, raw := range journeys {
			j, err := l.build(raw, path)
			if err != nil {
				result.add(Issue{Path: path, Journey: strings.TrimSpace(raw.Slug), Message: trimPrefix(err.Error())})
				continue
			}
			if prev, dup := seen[j.Slug]; dup {
				result.add(Issue{Path: path, Journey: j.Slug, Message: fmt.Sprintf("duplicate journey (also in %s)", prev)})
				continue
			}
			seen[j.Slug] = path
			result.Journeys = append(result.Journeys, j.Slug)
		}
		return nil
	})
	if walkErr != nil {
		result.add(Issue{Message: walkErr.Error()})
	}
	sort.Strings(result.Journeys)
	return result
}

func (r *LintResult) add(issue Issue) {
	r.Valid = false
	r.Issues = append(r.Issues, issue)
}

func trimPrefix(msg string) string {
	return strings.TrimSpace(strings.TrimPrefix(msg, "definition:"))
}
