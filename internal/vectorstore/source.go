package vectorstore

import "fmt"

// sourceFromMetadata derives a human-readable citation key from a
// document's metadata: "file_name§section" when a section is known,
// falling back to "file_name#id".
func sourceFromMetadata(id string, metadata map[string]string) string {
	file := metadata["file_name"]
	if file == "" {
		file = metadata["file"]
	}
	if file == "" {
		return id
	}
	if section, ok := metadata["section"]; ok && section != "" {
		return fmt.Sprintf("%s§%s", file, section)
	}
	return fmt.Sprintf("%s#%s", file, id)
}
