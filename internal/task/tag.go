package task

import "strings"

// Tag delimiters. The tag is a literal substring of the mirror task notes,
// e.g. "[OriginID:6X7rfF3j]".
const (
	tagPrefix = "[OriginID:"
	tagSuffix = "]"
)

// EmbedTag returns the note tag recording the given origin task ID.
func EmbedTag(originID string) string {
	return tagPrefix + originID + tagSuffix
}

// AppendTag returns notes for a new mirror task: the origin description
// followed by a blank line and the embedded tag.
func AppendTag(notes, originID string) string {
	return notes + "\n\n" + EmbedTag(originID)
}

// HasTagPrefix reports whether the notes contain the tag marker at all,
// well-formed or not. A marker without a parsable ID means the task was
// linked once but the link is no longer recoverable.
func HasTagPrefix(notes string) bool {
	return strings.Contains(notes, tagPrefix)
}

// ParseTag extracts the origin task ID from mirror notes. It takes the first
// occurrence of the tag prefix and the substring up to the next closing
// bracket. A missing, unterminated, or empty tag yields ok=false; absence of
// a tag is a normal outcome, not an error.
func ParseTag(notes string) (id string, ok bool) {
	start := strings.Index(notes, tagPrefix)
	if start == -1 {
		return "", false
	}
	rest := notes[start+len(tagPrefix):]
	end := strings.Index(rest, tagSuffix)
	if end == -1 {
		return "", false
	}
	id = rest[:end]
	if id == "" {
		return "", false
	}
	return id, true
}
