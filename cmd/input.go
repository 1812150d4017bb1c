package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// maxInputSize bounds what an import will read from a file or stdin.
const maxInputSize = 50 * 1024 * 1024

// readInput returns the contents of the file named by the first argument, or
// of stdin when there is no argument or it is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	var r io.Reader
	source := "stdin"
	if len(args) == 0 || args[0] == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
		source = args[0]
	}

	content, err := io.ReadAll(io.LimitReader(r, maxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if len(content) > maxInputSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", source, maxInputSize)
	}
	return content, nil
}

// readBodyFromFile reads file content with path validation to prevent directory traversal
func readBodyFromFile(filename string) (string, error) {
	// Get working directory
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	// Get absolute path of the requested file
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}

	// Clean the path to resolve any .. or . components
	cleanPath := filepath.Clean(absPath)

	// Ensure file is within working directory (prevent path traversal)
	if !within(wd, cleanPath) {
		return "", fmt.Errorf("access denied: file must be within current directory")
	}

	// Check for symlinks - resolve and verify target is also within working directory
	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		// If file doesn't exist, we'll let ReadFile handle the error
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = cleanPath
	} else if !within(wd, realPath) {
		return "", fmt.Errorf("access denied: symlink target must be within current directory")
	}

	content, err := os.ReadFile(realPath)
	if err != nil {
		return "", err
	}

	return string(content), nil
}

func within(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}
