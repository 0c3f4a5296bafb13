package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"  Go & Echo: a tour  ", "go-echo-a-tour"},
		{"Café Crème", "cafe-creme"},
		{"---", ""},
		{"v1.2 release!", "v1-2-release"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Slugify(tt.input), "Slugify(%q)", tt.input)
	}
}

func TestParseTagsRoundTripsStorageFormat(t *testing.T) {
	stored := JoinTagsForStorage([]string{" Go ", "Web", ""})
	assert.Equal(t, ",go,web,", stored)
	assert.Equal(t, []string{"go", "web"}, ParseTags(stored))
	assert.Nil(t, ParseTags(",,"))
}

func TestHasTagIgnoresCase(t *testing.T) {
	assert.True(t, HasTag([]string{"Go", "templ"}, " go"))
	assert.False(t, HasTag([]string{"Go"}, "rust"))
}

func TestFilterRelatedPosts(t *testing.T) {
	current := BlogPost{Slug: "a", Tags: []string{"Go"}}
	posts := []BlogPost{
		current,
		{Slug: "b", Tags: []string{"go", "web"}},
		{Slug: "c", Tags: []string{"rust"}},
	}
	related := FilterRelatedPosts(current, posts)
	if assert.Len(t, related, 1) {
		assert.Equal(t, "b", related[0].Slug)
	}
}

func TestProjectLink(t *testing.T) {
	assert.Equal(t, "/projects/folio/", Project{Slug: "folio"}.Link())
}
