package files

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Spandan7724/songbird/pkg/models"
)

// knownExtensions mirrors songbird/tools/file_search.py's filename-
// search heuristic: a pattern ending in one of these, with no path
// separator and no glob metacharacter, is an exact filename search.
var knownExtensions = []string{".py", ".js", ".md", ".txt", ".json", ".yaml", ".yml", ".go"}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[]")
}

func isFilenameSearch(pattern string) bool {
	if strings.Contains(pattern, "/") || hasGlobMeta(pattern) {
		return false
	}
	for _, ext := range knownExtensions {
		if strings.HasSuffix(pattern, ext) {
			return true
		}
	}
	return false
}

// SearchTool implements file_search(pattern, directory=".", file_type?,
// case_sensitive=false, max_results=50) with the three-mode
// auto-detection from §4.1: exact filename, glob, or text/regex.
type SearchTool struct {
	Resolver Resolver
}

func NewSearchTool(resolver Resolver) *SearchTool { return &SearchTool{Resolver: resolver} }

func (t *SearchTool) Name() string        { return "file_search" }
func (t *SearchTool) Description() string { return "Search for an exact filename, a glob, or text/regex across files." }

func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string"},
			"directory": {"type": "string"},
			"file_type": {"type": "string"},
			"case_sensitive": {"type": "boolean"},
			"max_results": {"type": "integer"}
		},
		"required": ["pattern"]
	}`)
}

type searchParams struct {
	Pattern       string `json:"pattern"`
	Directory     string `json:"directory"`
	FileType      string `json:"file_type"`
	CaseSensitive bool   `json:"case_sensitive"`
	MaxResults    int    `json:"max_results"`
}

type searchMatch struct {
	Type      string `json:"type"` // "file" or "text"
	File      string `json:"file"`
	LineNum   int    `json:"line_number,omitempty"`
	MatchText string `json:"match_text"`
}

func (t *SearchTool) Execute(_ context.Context, params json.RawMessage) (*models.ToolResult, error) {
	var p searchParams
	if err := json.Unmarshal(params, &p); err != nil {
		return &models.ToolResult{Success: false, Error: "invalid arguments: " + err.Error()}, nil
	}
	filenameMode := isFilenameSearch(p.Pattern)
	globMode := !filenameMode && hasGlobMeta(p.Pattern)
	return t.runSearch(p, filenameMode, globMode)
}

// runSearch resolves p.Directory and dispatches to the ripgrep-backed
// or in-process implementation for the given mode; filenameMode and
// globMode are forced by glob/grep's thin wrappers rather than
// re-derived from the pattern.
func (t *SearchTool) runSearch(p searchParams, filenameMode, globMode bool) (*models.ToolResult, error) {
	if p.Directory == "" {
		p.Directory = "."
	}
	if p.MaxResults <= 0 {
		p.MaxResults = 50
	}
	dirAbs, err := t.Resolver.Resolve(p.Directory)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	if _, err := os.Stat(dirAbs); err != nil {
		return &models.ToolResult{Success: false, Error: "directory not found: " + p.Directory}, nil
	}

	var matches []searchMatch
	if rgPath, err := exec.LookPath("rg"); err == nil && !globMode {
		matches, err = t.searchWithRipgrep(rgPath, p, dirAbs, filenameMode)
		if err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}, nil
		}
	} else if globMode {
		matches = t.searchWithGlob(p, dirAbs)
	} else {
		matches = t.searchWithWalk(p, dirAbs, filenameMode)
	}

	truncated := len(matches) > p.MaxResults
	if truncated {
		matches = matches[:p.MaxResults]
	}
	result, _ := json.Marshal(map[string]any{
		"pattern":   p.Pattern,
		"matches":   matches,
		"truncated": truncated,
	})
	return &models.ToolResult{Success: true, Result: result}, nil
}

func (t *SearchTool) searchWithRipgrep(rgPath string, p searchParams, dir string, filenameMode bool) ([]searchMatch, error) {
	var matches []searchMatch
	if filenameMode {
		args := []string{"--files"}
		if p.FileType != "" {
			args = append(args, "--type", p.FileType)
		}
		args = append(args, dir)
		out, _ := exec.Command(rgPath, args...).Output()
		for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
			if line == "" {
				continue
			}
			if filepath.Base(line) == p.Pattern {
				rel, _ := filepath.Rel(dir, line)
				matches = append(matches, searchMatch{Type: "file", File: rel, MatchText: filepath.Base(line)})
			}
		}
		return matches, nil
	}

	args := []string{"--json", "--max-count", strconv.Itoa(p.MaxResults)}
	if !p.CaseSensitive {
		args = append(args, "--ignore-case")
	}
	if p.FileType != "" {
		args = append(args, "--type", p.FileType)
	}
	args = append(args, p.Pattern, dir)
	out, _ := exec.Command(rgPath, args...).Output()
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		var ev struct {
			Type string `json:"type"`
			Data struct {
				Path struct {
					Text string `json:"text"`
				} `json:"path"`
				LineNumber int `json:"line_number"`
				Lines      struct {
					Text string `json:"text"`
				} `json:"lines"`
			} `json:"data"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil || ev.Type != "match" {
			continue
		}
		rel, _ := filepath.Rel(dir, ev.Data.Path.Text)
		matches = append(matches, searchMatch{
			Type: "text", File: rel, LineNum: ev.Data.LineNumber,
			MatchText: strings.TrimSpace(ev.Data.Lines.Text),
		})
	}
	return matches, nil
}

func (t *SearchTool) searchWithGlob(p searchParams, dir string) []searchMatch {
	full := filepath.Join(dir, p.Pattern)
	paths, err := filepath.Glob(full)
	if err != nil {
		return nil
	}
	matches := make([]searchMatch, 0, len(paths))
	for _, path := range paths {
		rel, _ := filepath.Rel(dir, path)
		matches = append(matches, searchMatch{Type: "file", File: rel, MatchText: filepath.Base(path)})
	}
	return matches
}

func (t *SearchTool) searchWithWalk(p searchParams, dir string, filenameMode bool) []searchMatch {
	var matches []searchMatch
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if len(matches) >= p.MaxResults {
			return nil
		}
		if p.FileType != "" && !strings.HasSuffix(info.Name(), "."+p.FileType) {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		if filenameMode {
			if info.Name() == p.Pattern {
				matches = append(matches, searchMatch{Type: "file", File: rel, MatchText: info.Name()})
			}
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		needle, haystackLines := p.Pattern, strings.Split(string(data), "\n")
		for i, line := range haystackLines {
			if len(matches) >= p.MaxResults {
				break
			}
			hay, pat := line, needle
			if !p.CaseSensitive {
				hay, pat = strings.ToLower(line), strings.ToLower(needle)
			}
			if strings.Contains(hay, pat) {
				matches = append(matches, searchMatch{Type: "text", File: rel, LineNum: i + 1, MatchText: strings.TrimSpace(line)})
			}
		}
		return nil
	})
	return matches
}
