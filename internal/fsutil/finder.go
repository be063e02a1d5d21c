// Package fsutil locates service template entry points inside a file tree,
// either an unpacked directory or an opened CSAR archive.
package fsutil

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// MetadataPath is where a CSAR keeps its block-0 metadata.
const MetadataPath = "TOSCA-Metadata/TOSCA.meta"

// FindFilesByExtension recursively searches fsys below root for files whose
// name ends with one of the extensions, in lexical walk order.
func FindFilesByExtension(fsys fs.FS, root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("extension must not be empty")
	}

	var files []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(d.Name(), ext) {
				files = append(files, p)
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// ReadMetadata parses TOSCA.meta into its "Key: Value" entries. A missing
// file yields an empty map.
func ReadMetadata(fsys fs.FS) (map[string]string, error) {
	f, err := fsys.Open(MetadataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%s: malformed line %q", MetadataPath, line)
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return meta, scanner.Err()
}

// EntryDefinitions returns the path of the service template a tree starts
// from: the metadata's Entry-Definitions, or else the only YAML file at the
// root of the tree.
func EntryDefinitions(fsys fs.FS) (string, error) {
	meta, err := ReadMetadata(fsys)
	if err != nil {
		return "", err
	}
	if entry := meta["Entry-Definitions"]; entry != "" {
		return path.Clean(strings.TrimPrefix(entry, "/")), nil
	}

	files, err := FindFilesByExtension(fsys, ".", ".yaml", ".yml")
	if err != nil {
		return "", err
	}
	var rootLevel []string
	for _, f := range files {
		if !strings.Contains(f, "/") {
			rootLevel = append(rootLevel, f)
		}
	}
	if len(rootLevel) != 1 {
		return "", fmt.Errorf("no Entry-Definitions in %s and %d root-level YAML files", MetadataPath, len(rootLevel))
	}
	return rootLevel[0], nil
}
