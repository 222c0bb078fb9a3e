package main

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// readTemplate resolves the -t value. A value that names no file but
// contains an expression is taken as the template itself.
func readTemplate(value string, stdin io.Reader) (string, error) {
	data, err := readInput(value, stdin)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && strings.ContainsRune(value, '{') {
			return value, nil
		}
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}
