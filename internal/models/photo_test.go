package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrideApply(t *testing.T) {
	photo := Photo{ID: 5, AlbumID: 1, Title: "remote", URL: "u", ThumbnailURL: "t"}

	t.Run("no title leaves photo untouched", func(t *testing.T) {
		o := Override{"url": json.RawMessage(`"other"`)}
		assert.Equal(t, photo, o.Apply(photo))
	})

	t.Run("title wins", func(t *testing.T) {
		o := TitleOverride(photo, "Sunset over the bay")
		got := o.Apply(photo)
		assert.Equal(t, "Sunset over the bay", got.Title)
		assert.Equal(t, photo.URL, got.URL)
	})

	t.Run("malformed title is ignored", func(t *testing.T) {
		o := Override{"title": json.RawMessage(`42`)}
		_, ok := o.Title()
		assert.False(t, ok)
		assert.Equal(t, photo, o.Apply(photo))
	})
}

func TestOverrideMerge(t *testing.T) {
	base := Override{
		"title": json.RawMessage(`"old"`),
		"extra": json.RawMessage(`true`),
	}
	merged := base.Merge(Override{"title": json.RawMessage(`"new"`)})

	title, ok := merged.Title()
	require.True(t, ok)
	assert.Equal(t, "new", title)
	assert.JSONEq(t, `true`, string(merged["extra"]))

	// base is not modified
	title, _ = base.Title()
	assert.Equal(t, "old", title)
}

func TestPhotoJSONShape(t *testing.T) {
	body := `{"albumId":1,"id":1,"title":"accusamus beatae","url":"https://via.placeholder.com/600/92c952","thumbnailUrl":"https://via.placeholder.com/150/92c952"}`
	var p Photo
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	assert.Equal(t, 1, p.AlbumID)
	assert.Equal(t, "https://via.placeholder.com/150/92c952", p.ThumbnailURL)
}
