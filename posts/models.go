package posts

import (
	"encoding/json"
)

// Blog is the subset of the blog/{user} endpoint the archiver needs.
// SignedQuery is absent when authentication did not succeed.
type Blog struct {
	IsSubscribed     bool   `json:"isSubscribed"`
	SubscriptionKind string `json:"subscriptionKind"`
	SignedQuery      string `json:"signedQuery"`
}

// PostsResponse is the listing endpoint envelope.
type PostsResponse struct {
	Data  []Post     `json:"data"`
	Extra PostsExtra `json:"extra"`
}

// PostsExtra carries the opaque pagination cursor. Offset from page N must be
// sent verbatim to request page N+1.
type PostsExtra struct {
	Offset string `json:"offset"`
	IsLast bool   `json:"isLast"`
}

type Post struct {
	ID          string `json:"id"` // UUID
	IntID       int64  `json:"int_id"`
	Title       string `json:"title"`
	HasAccess   bool   `json:"hasAccess"`
	SignedQuery string `json:"signedQuery"`
	Data        []ContentItem
}

func (p *Post) UnmarshalJSON(b []byte) error {
	type postAlias Post
	aux := struct {
		*postAlias
		Data []json.RawMessage `json:"data"`
	}{postAlias: (*postAlias)(p)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	p.Data = make([]ContentItem, 0, len(aux.Data))
	for _, raw := range aux.Data {
		p.Data = append(p.Data, decodeContentItem(raw))
	}
	return nil
}

// ContentItem is one entry of a post's data array. The upstream schema is a
// tagged union on the "type" field; anything unrecognized decodes to
// UnknownItem instead of failing the post.
type ContentItem interface {
	ItemType() string
}

const (
	itemTypeText  = "text"
	itemTypeLink  = "link"
	itemTypeFile  = "file"
	itemTypeImage = "image"
	itemTypeVideo = "ok_video"
	itemTypeAudio = "audio_file"

	// ModifierBlockEnd marks a text item that renders as a line break.
	ModifierBlockEnd = "BLOCK_END"
)

// TextItem content is itself stringified JSON, e.g. ["Bold text","unstyled",[[0,0,6]]].
type TextItem struct {
	Content     string `json:"content"`
	Modificator string `json:"modificator"`
}

func (TextItem) ItemType() string { return itemTypeText }

type LinkItem struct {
	Content  string `json:"content"`
	URL      string `json:"url"`
	Explicit bool   `json:"explicit"`
}

func (LinkItem) ItemType() string { return itemTypeLink }

type FileItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Size       *int64 `json:"size"`
	IsMigrated bool   `json:"isMigrated"`
	Complete   bool   `json:"complete"`
}

func (FileItem) ItemType() string { return itemTypeFile }

// ImageItem width/height/size are all absent when the image was deleted from
// the CDN; the stub URL still responds with a placeholder.
type ImageItem struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Rendition string `json:"rendition"`
	Width     *int   `json:"width"`
	Height    *int   `json:"height"`
	Size      *int64 `json:"size"`
}

func (ImageItem) ItemType() string { return itemTypeImage }

// PlayerURL is one labeled video rendition. URL is empty when the encoding
// profile is an upstream placeholder.
type PlayerURL struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type VideoItem struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Width        *int        `json:"width"`
	Height       *int        `json:"height"`
	Duration     *int        `json:"duration"`
	FailoverHost string      `json:"failoverHost"`
	PlayerURLs   []PlayerURL `json:"playerUrls"`
	Complete     bool        `json:"complete"`
	UploadStatus string      `json:"uploadStatus"`
}

func (VideoItem) ItemType() string { return itemTypeVideo }

// StreamURLs maps each rendition label to its URL, dropping the empty
// placeholder entries.
func (v *VideoItem) StreamURLs() map[string]string {
	urls := make(map[string]string, len(v.PlayerURLs))
	for _, u := range v.PlayerURLs {
		if u.URL != "" {
			urls[u.Type] = u.URL
		}
	}
	return urls
}

type AudioItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"` // original filename, may be empty
	URL        string `json:"url"`
	Size       *int64 `json:"size"`
	IsMigrated bool   `json:"isMigrated"`
	FileType   string `json:"fileType"` // e.g. "MP3"
	Duration   int    `json:"duration"`
}

func (AudioItem) ItemType() string { return itemTypeAudio }

// UnknownItem preserves items with an unrecognized tag so the dispatcher can
// log them without dropping the rest of the post.
type UnknownItem struct {
	Type string
	Raw  json.RawMessage
}

func (u UnknownItem) ItemType() string { return u.Type }

func decodeContentItem(raw json.RawMessage) ContentItem {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return &UnknownItem{Type: "", Raw: raw}
	}

	var (
		item ContentItem
		err  error
	)
	switch probe.Type {
	case itemTypeText:
		v := &TextItem{}
		err = json.Unmarshal(raw, v)
		item = v
	case itemTypeLink:
		v := &LinkItem{}
		err = json.Unmarshal(raw, v)
		item = v
	case itemTypeFile:
		v := &FileItem{}
		err = json.Unmarshal(raw, v)
		item = v
	case itemTypeImage:
		v := &ImageItem{}
		err = json.Unmarshal(raw, v)
		item = v
	case itemTypeVideo:
		v := &VideoItem{}
		err = json.Unmarshal(raw, v)
		item = v
	case itemTypeAudio:
		v := &AudioItem{}
		err = json.Unmarshal(raw, v)
		item = v
	default:
		return &UnknownItem{Type: probe.Type, Raw: raw}
	}

	if err != nil {
		return &UnknownItem{Type: probe.Type, Raw: raw}
	}
	return item
}

// PostURL is the canonical web address of a post, used in the link report.
func PostURL(user, postID string) string {
	return "https://boosty.to/" + user + "/posts/" + postID
}
