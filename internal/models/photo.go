package models

import (
	"encoding/json"
	"maps"
)

// Photo is a single image in an album. Title is the only field edited locally.
type Photo struct {
	ID           int    `json:"id"`
	AlbumID      int    `json:"albumId"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Override is the persisted record for one photo id. It is kept as a raw JSON
// object so fields written by older versions survive a merge untouched.
type Override map[string]json.RawMessage

// TitleOverride builds the record written after a successful title edit:
// the photo's fields as last seen, with title replaced.
func TitleOverride(p Photo, title string) Override {
	o := Override{}
	o.set("albumId", p.AlbumID)
	o.set("url", p.URL)
	o.set("thumbnailUrl", p.ThumbnailURL)
	o.set("title", title)
	return o
}

// Title returns the overridden title, if the record carries one.
func (o Override) Title() (string, bool) {
	raw, ok := o["title"]
	if !ok {
		return "", false
	}
	var title string
	if err := json.Unmarshal(raw, &title); err != nil {
		return "", false
	}
	return title, true
}

// Merge returns a copy of o with every key of fields written over it.
func (o Override) Merge(fields Override) Override {
	out := make(Override, len(o)+len(fields))
	maps.Copy(out, o)
	maps.Copy(out, fields)
	return out
}

// Apply overlays the record onto p. Only the title is taken from the record.
func (o Override) Apply(p Photo) Photo {
	if title, ok := o.Title(); ok {
		p.Title = title
	}
	return p
}

func (o Override) set(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	o[key] = raw
}
