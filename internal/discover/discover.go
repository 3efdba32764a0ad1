package discover

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/lang"
)

// IGNORE_PATTERNS are directory names to skip during discovery.
var IGNORE_PATTERNS = map[string]bool{
	".cache": true, ".claude": true, ".eclipse": true, ".eggs": true,
	".env": true, ".git": true, ".gradle": true, ".hg": true,
	".idea": true, ".maven": true, ".mypy_cache": true, ".nox": true,
	".npm": true, ".nyc_output": true, ".pnpm-store": true,
	".pytest_cache": true, ".qdrant_code_embeddings": true,
	".ruff_cache": true, ".svn": true, ".tmp": true, ".tox": true,
	".venv": true, ".vs": true, ".vscode": true, ".yarn": true,
	"__pycache__": true, "bin": true, "bower_components": true,
	"build": true, "coverage": true, "dist": true, "env": true,
	"htmlcov": true, "node_modules": true, "obj": true, "out": true,
	"Pods": true, "site-packages": true, "target": true, "temp": true,
	"tmp": true, "vendor": true, "venv": true,
}

// IGNORE_SUFFIXES are file suffixes to skip.
var IGNORE_SUFFIXES = map[string]bool{
	".tmp": true, "~": true, ".pyc": true, ".pyo": true,
	".o": true, ".a": true, ".so": true, ".dll": true, ".class": true,
}

// IgnoreFileName is the name of the project-level ignore file, following
// the same .gitignore syntax via sabhiram/go-gitignore.
const IgnoreFileName = ".cruxeignore"

// FileInfo represents a discovered source file eligible for extraction.
type FileInfo struct {
	Path      string        // absolute path
	RelPath   string        // relative to repo root
	Language  lang.Language // detected language
	SizeBytes int64
}

// Options configures file discovery.
type Options struct {
	IgnoreFile string // path to .cruxeignore file (optional, defaults to <repoPath>/.cruxeignore)
}

// shouldSkipDir returns true if the directory should be skipped during discovery.
func shouldSkipDir(name string, matcher *ignore.GitIgnore, rel string) bool {
	if IGNORE_PATTERNS[name] {
		return true
	}
	if matcher != nil && rel != "." && matcher.MatchesPath(rel) {
		return true
	}
	return false
}

// Discover walks a repository and returns every file in a supported
// language, honoring .cruxeignore rules and skipping anything larger than
// MaxFileSize.
func Discover(ctx context.Context, repoPath string, opts *Options) ([]FileInfo, error) {
	repoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ignoreFile := filepath.Join(repoPath, IgnoreFileName)
	if opts != nil && opts.IgnoreFile != "" {
		ignoreFile = opts.IgnoreFile
	}
	matcher, _ := ignore.CompileIgnoreFile(ignoreFile)

	var files []FileInfo

	err = filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(repoPath, path)
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if shouldSkipDir(info.Name(), matcher, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}

		for suffix := range IGNORE_SUFFIXES {
			if strings.HasSuffix(path, suffix) {
				return nil
			}
		}

		if info.Size() > ids.MaxFileSize {
			return nil
		}

		ext := filepath.Ext(path)
		l, ok := lang.ForExtensionLanguage(ext)
		if !ok {
			return nil
		}

		files = append(files, FileInfo{
			Path:      path,
			RelPath:   rel,
			Language:  l,
			SizeBytes: info.Size(),
		})
		return nil
	})

	return files, err
}
