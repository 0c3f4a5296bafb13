package content

import "strings"

// NormalizeTag lowercases and trims a tag for comparison and storage.
func NormalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// JoinTagsForStorage renders tags as ",a,b," so a single tag can be matched
// with instr(tags, ',tag,').
func JoinTagsForStorage(tags []string) string {
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		if n := NormalizeTag(t); n != "" {
			normalized = append(normalized, n)
		}
	}
	return "," + strings.Join(normalized, ",") + ","
}

// HasTag reports whether tags contains tag, ignoring case and surrounding space.
func HasTag(tags []string, tag string) bool {
	want := NormalizeTag(tag)
	for _, t := range tags {
		if NormalizeTag(t) == want {
			return true
		}
	}
	return false
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FilterRelatedPosts finds posts that share at least one tag with current.
func FilterRelatedPosts(current BlogPost, posts []BlogPost) []BlogPost {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		if tag := NormalizeTag(t); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var related []BlogPost
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		for _, t := range p.Tags {
			if _, ok := tagSet[NormalizeTag(t)]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}
