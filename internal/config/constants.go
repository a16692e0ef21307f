package config

// Version is the current tysketch version.
// Set at build time via -ldflags or by writing to this file.
var Version = "0.1.0"

const FixtureFileExt = ".yaml"

// FixtureFileExtensions are all recognized fixture file extensions.
var FixtureFileExtensions = []string{".yaml", ".yml", ".json", ".bits"}

// TrimFixtureExt removes any recognized fixture extension from a filename.
// Returns the original string if no extension matches.
func TrimFixtureExt(name string) string {
	for _, ext := range FixtureFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasFixtureExt returns true if the path ends with any recognized fixture extension.
func HasFixtureExt(path string) bool {
	for _, ext := range FixtureFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsJSONFixture reports whether path names a JSON-encoded fixture.
func IsJSONFixture(path string) bool {
	return len(path) >= 5 && path[len(path)-5:] == ".json"
}

// IsBitsFixture reports whether path names a bit-precise points-to stream.
func IsBitsFixture(path string) bool {
	return len(path) >= 5 && path[len(path)-5:] == ".bits"
}
