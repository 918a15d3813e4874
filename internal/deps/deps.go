package deps

import (
	"fmt"
	"os"
	"strings"
)

// Requirement names a local file framepress needs, such as a runtime asset
// published under a file:// base URL.
type Requirement struct {
	Name        string
	Path        string
	Description string
	Optional    bool
}

// Status is the result of checking one Requirement. Detail explains why an
// unavailable requirement failed and is empty otherwise.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// CheckFiles checks each requirement in order.
func CheckFiles(requirements []Requirement) []Status {
	out := make([]Status, len(requirements))
	for i, req := range requirements {
		out[i] = CheckFile(req)
	}
	return out
}

// CheckFile reports whether req.Path is a non-empty regular file.
func CheckFile(req Requirement) Status {
	req.Path = strings.TrimSpace(req.Path)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	status.Detail = problem(req.Path)
	status.Available = status.Detail == ""
	return status
}

func problem(path string) string {
	if path == "" {
		return "path not configured"
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return fmt.Sprintf("file %q not found", path)
	case !info.Mode().IsRegular():
		return fmt.Sprintf("%q is not a regular file", path)
	case info.Size() == 0:
		return fmt.Sprintf("file %q is empty", path)
	}
	return ""
}
