// Package state implements the portable state bundle: exporting a
// project's data directory (SQLite store plus every ref's text-index
// overlay) into a single compressed archive, and importing one back via
// the same stage-then-rename protocol internal/overlay uses for a
// single overlay, applied here to the whole data directory.
package state

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/store"
	"github.com/cruxe/cruxe/internal/textindex"
)

// Metadata is the manifest entry written as metadata.json inside every
// bundle, read back on import before anything is unpacked.
type Metadata struct {
	SchemaVersion int    `json:"schema_version"`
	ParserVersion string `json:"parser_version"`
	ProjectID     string `json:"project_id"`
	RepoRoot      string `json:"repo_root"`
	ExportedAt    string `json:"exported_at"`
}

// NewMetadata stamps the current textindex schema version onto a fresh
// manifest for the given project.
func NewMetadata(projectID, repoRoot string) Metadata {
	return Metadata{
		SchemaVersion: textindex.SchemaVersion,
		ParserVersion: cruxeParserVersion,
		ProjectID:     projectID,
		RepoRoot:      repoRoot,
		ExportedAt:    store.Now(),
	}
}

const metadataEntryName = "metadata.json"

// cruxeParserVersion mirrors internal/ids.ParserVersion without importing
// internal/ids here, avoiding a dependency edge state doesn't otherwise
// need.
const cruxeParserVersion = "1"

// ExportBundle writes dataDir (in full) plus a metadata.json manifest
// into a zstd-compressed tar archive at bundlePath.
func ExportBundle(dataDir, bundlePath string, meta Metadata) error {
	if _, err := os.Stat(dataDir); err != nil {
		return cxerr.Wrap(cxerr.CodeInternalError, fmt.Sprintf("data directory does not exist: %s", dataDir), err)
	}
	if err := os.MkdirAll(filepath.Dir(bundlePath), 0o755); err != nil {
		return fmt.Errorf("create bundle parent: %w", err)
	}

	f, err := os.Create(bundlePath)
	if err != nil {
		return fmt.Errorf("create bundle file: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("open zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeTarBytes(tw, metadataEntryName, metaBytes); err != nil {
		return err
	}

	if err := filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == dataDir {
			return nil
		}
		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return err
		}
		return writeTarEntry(tw, path, rel, info)
	}); err != nil {
		return fmt.Errorf("archive data directory: %w", err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar writer: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	return nil
}

func writeTarBytes(tw *tar.Writer, name string, payload []byte) error {
	header := &tar.Header{
		Name: name,
		Mode: 0o644,
		Size: int64(len(payload)),
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header for %s: %w", name, err)
	}
	if _, err := tw.Write(payload); err != nil {
		return fmt.Errorf("write tar body for %s: %w", name, err)
	}
	return nil
}

func writeTarEntry(tw *tar.Writer, fullPath, relPath string, info os.FileInfo) error {
	if info.IsDir() {
		header := &tar.Header{
			Name:     relPath + "/",
			Mode:     0o755,
			Typeflag: tar.TypeDir,
		}
		return tw.WriteHeader(header)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", fullPath, err)
	}
	defer file.Close()

	header := &tar.Header{
		Name: relPath,
		Mode: int64(info.Mode().Perm()),
		Size: info.Size(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header for %s: %w", relPath, err)
	}
	if _, err := io.Copy(tw, file); err != nil {
		return fmt.Errorf("write tar body for %s: %w", relPath, err)
	}
	return nil
}

// ImportBundle unpacks bundlePath into a staging directory beside
// dataDir, validates its metadata against the running binary's schema
// version, then atomically promotes it over dataDir: the previous
// dataDir (if any) is renamed to a timestamped backup, the staged
// directory is renamed into dataDir's place, and the backup is removed
// only after the rename succeeds. A failed final rename restores the
// backup. Callers must hold the project maintenance lock (internal/lock)
// for the full call.
func ImportBundle(bundlePath, dataDir string) (Metadata, error) {
	var meta Metadata
	if _, err := os.Stat(bundlePath); err != nil {
		return meta, cxerr.Wrap(cxerr.CodeInternalError, fmt.Sprintf("bundle not found: %s", bundlePath), err)
	}

	parentDir := filepath.Dir(dataDir)
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return meta, fmt.Errorf("create data dir parent: %w", err)
	}
	stagedDir, err := os.MkdirTemp(parentDir, ".import-state-")
	if err != nil {
		return meta, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stagedDir)

	meta, err = unpackBundle(bundlePath, stagedDir)
	if err != nil {
		return meta, err
	}

	if meta.SchemaVersion > textindex.SchemaVersion {
		return meta, &cxerr.SchemaMigrationRequired{Current: textindex.SchemaVersion, Required: meta.SchemaVersion}
	}

	if err := promoteStagedData(stagedDir, dataDir); err != nil {
		return meta, err
	}
	return meta, nil
}

func unpackBundle(bundlePath, destDir string) (Metadata, error) {
	var meta Metadata
	f, err := os.Open(bundlePath)
	if err != nil {
		return meta, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return meta, fmt.Errorf("open zstd reader: %w", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	sawMetadata := false
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return meta, fmt.Errorf("read tar entry: %w", err)
		}

		if header.Name == metadataEntryName {
			raw, err := io.ReadAll(tr)
			if err != nil {
				return meta, fmt.Errorf("read metadata.json: %w", err)
			}
			if err := json.Unmarshal(raw, &meta); err != nil {
				return meta, cxerr.Wrap(cxerr.CodeCorruptManifest, "metadata.json is not valid JSON", err)
			}
			sawMetadata = true
			continue
		}

		target := filepath.Join(destDir, header.Name)
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return meta, fmt.Errorf("create dir %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return meta, fmt.Errorf("create parent for %s: %w", header.Name, err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return meta, fmt.Errorf("create file %s: %w", header.Name, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return meta, fmt.Errorf("write file %s: %w", header.Name, err)
			}
			out.Close()
		}
	}
	if !sawMetadata {
		return meta, cxerr.New(cxerr.CodeCorruptManifest, "bundle is missing metadata.json")
	}
	return meta, nil
}

func promoteStagedData(stagedDir, dataDir string) error {
	parentDir := filepath.Dir(dataDir)
	backupDir := filepath.Join(parentDir, fmt.Sprintf(".state-backup-%d", time.Now().UnixNano()))

	previousMoved := false
	if _, err := os.Stat(dataDir); err == nil {
		if err := os.Rename(dataDir, backupDir); err != nil {
			return fmt.Errorf("back up existing data dir: %w", err)
		}
		previousMoved = true
	}

	if err := os.Rename(stagedDir, dataDir); err != nil {
		if previousMoved {
			_ = os.Rename(backupDir, dataDir)
		}
		return fmt.Errorf("promote staged data dir: %w", err)
	}
	if previousMoved {
		_ = os.RemoveAll(backupDir)
	}
	return nil
}
