package utils

import (
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"
)

// ChainExtension is the suffix of saved chain files.
const ChainExtension = ".blk"

// WithExtension appends ext to name unless name already ends with it.
func WithExtension(name, ext string) string {
	if strings.HasSuffix(name, ext) {
		return name
	}
	return name + ext
}

// ChainFile returns the file name a chain called name is saved under.
func ChainFile(name string) string {
	return WithExtension(name, ChainExtension)
}

// ChainName is the inverse of ChainFile: it strips the directory and the
// chain extension from path.
func ChainName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ChainExtension)
}

// CheckChainName rejects names that cannot be used as a key or a file name.
func CheckChainName(name string) error {
	if name == "" {
		return xerrors.New("chain name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return xerrors.Errorf("invalid chain name %q", name)
	}
	// ChainFile would map it onto the file of the name without extension.
	if strings.HasSuffix(name, ChainExtension) {
		return xerrors.Errorf("chain name %q ends in %s", name, ChainExtension)
	}
	return nil
}
