package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPublicID(t *testing.T) {
	cases := []struct{ url, want string }{
		{"https://res.cloudinary.com/soc/image/upload/v1712345/events/posters/event_3_poster_1712.jpg", "events/posters/event_3_poster_1712"},
		{"https://res.cloudinary.com/soc/image/upload/events/posters/event_3_poster_1712.png", "events/posters/event_3_poster_1712"},
		{"https://res.cloudinary.com/soc/image/upload/poster", "poster"},
		{"https://example.com/images/poster.jpg", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractPublicID(tc.url), tc.url)
	}
}
