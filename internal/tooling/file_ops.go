package tooling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileOperations reads and writes files under the workspace root.
func FileOperations(guard pathGuard) *Capability {
	return NewCapability("file_operations").
		Add("read_file", func(ctx context.Context, args ...string) (string, error) {
			if err := checkArgs("read_file", args, 1, 1); err != nil {
				return "", err
			}
			return readFile(guard, args[0]), nil
		}).
		Add("write_file", func(ctx context.Context, args ...string) (string, error) {
			if err := checkArgs("write_file", args, 2, -1); err != nil {
				return "", err
			}
			// Content containing commas arrives split; rejoin it.
			return writeFile(guard, args[0], strings.Join(args[1:], ", ")), nil
		})
}

func readFile(guard pathGuard, name string) string {
	full, err := guard.Resolve(name)
	if err != nil {
		return fmt.Sprintf("Error reading file '%s': %v", name, err)
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Sprintf("Error: File '%s' does not exist.", full)
	}
	if err != nil {
		return fmt.Sprintf("Error reading file '%s': %v", full, err)
	}
	return fmt.Sprintf("Content of '%s':\n%s", full, data)
}

func writeFile(guard pathGuard, name, content string) string {
	full, err := guard.Resolve(name)
	if err != nil {
		return fmt.Sprintf("Error writing to file '%s': %v", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Sprintf("Error writing to file '%s': %v", full, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Sprintf("Error writing to file '%s': %v", full, err)
	}
	return fmt.Sprintf("Successfully wrote content to '%s'", full)
}
