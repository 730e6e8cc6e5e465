package pocket

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// RequestTokenResult is returned by the first step of the authorization flow.
type RequestTokenResult struct {
	Code  string  `json:"code"`
	State *string `json:"state"`
}

// AccessTokenResult holds the credentials of a user who authorized the app.
type AccessTokenResult struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// ItemState is the value of an item's status field.
type ItemState string

const (
	StateUnread   ItemState = "0"
	StateArchived ItemState = "1"
	StateDeleted  ItemState = "2"
)

func (s ItemState) String() string {
	switch s {
	case StateUnread:
		return "unread"
	case StateArchived:
		return "archived"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// MediaPresence is the value of the has_image and has_video fields.
type MediaPresence string

const (
	MediaNone MediaPresence = "0"
	MediaHas  MediaPresence = "1"
	MediaIs   MediaPresence = "2"
)

func (m MediaPresence) String() string {
	switch m {
	case MediaNone:
		return "none"
	case MediaHas:
		return "has"
	case MediaIs:
		return "is"
	default:
		return "unknown"
	}
}

// Tag is the detail Pocket attaches to every tag of an item.
type Tag struct {
	ItemID string `json:"item_id"`
	Tag    string `json:"tag"`
}

// Image describes an image found in a saved page.
type Image struct {
	ItemID  string `json:"item_id"`
	ImageID string `json:"image_id,omitempty"`
	Src     string `json:"src"`
	Width   string `json:"width"`
	Height  string `json:"height"`
	Credit  string `json:"credit,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// SavedItem is one entry of a user's list.
//
// Flags and timestamps are kept as Pocket sends them (strings); use the
// accessor methods for typed values.
type SavedItem struct {
	ItemID                 string           `json:"item_id"`
	ResolvedID             string           `json:"resolved_id"`
	GivenURL               string           `json:"given_url"`
	GivenTitle             string           `json:"given_title"`
	Favorite               string           `json:"favorite"`
	Status                 string           `json:"status"`
	TimeAdded              string           `json:"time_added"`
	TimeUpdated            string           `json:"time_updated"`
	TimeRead               string           `json:"time_read"`
	TimeFavorited          string           `json:"time_favorited"`
	SortID                 int              `json:"sort_id"`
	ResolvedTitle          string           `json:"resolved_title"`
	ResolvedURL            string           `json:"resolved_url"`
	Excerpt                string           `json:"excerpt"`
	IsArticleFlag          string           `json:"is_article"`
	IsIndex                string           `json:"is_index"`
	HasVideo               string           `json:"has_video"`
	HasImage               string           `json:"has_image"`
	WordCount              string           `json:"word_count"`
	Lang                   string           `json:"lang"`
	TopImageURL            string           `json:"top_image_url"`
	Tags                   map[string]Tag   `json:"tags"`
	Image                  *Image           `json:"image"`
	Images                 map[string]Image `json:"images"`
	ListenDurationEstimate int              `json:"listen_duration_estimate"`
}

func (i SavedItem) IsFavorite() bool { return i.Favorite == "1" }
func (i SavedItem) IsArticle() bool  { return i.IsArticleFlag == "1" }

func (i SavedItem) State() ItemState          { return ItemState(i.Status) }
func (i SavedItem) ImageMedia() MediaPresence { return MediaPresence(i.HasImage) }
func (i SavedItem) VideoMedia() MediaPresence { return MediaPresence(i.HasVideo) }

func (i SavedItem) AddedAt() time.Time     { return epoch(i.TimeAdded) }
func (i SavedItem) UpdatedAt() time.Time   { return epoch(i.TimeUpdated) }
func (i SavedItem) ReadAt() time.Time      { return epoch(i.TimeRead) }
func (i SavedItem) FavoritedAt() time.Time { return epoch(i.TimeFavorited) }

// Title returns the resolved title, falling back to the one given on save.
func (i SavedItem) Title() string {
	if i.ResolvedTitle != "" {
		return i.ResolvedTitle
	}
	return i.GivenTitle
}

// URL returns the resolved URL, falling back to the one given on save.
func (i SavedItem) URL() string {
	if i.ResolvedURL != "" {
		return i.ResolvedURL
	}
	return i.GivenURL
}

// TagNames returns the item's tag names in lexical order.
func (i SavedItem) TagNames() []string {
	names := make([]string, 0, len(i.Tags))
	for name := range i.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ItemList maps item ids to items. Pocket encodes an empty list as [],
// which decodes to an empty map.
type ItemList map[string]SavedItem

func (l *ItemList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if bytes.Equal(trimmed, []byte("[]")) {
		*l = ItemList{}
		return nil
	}

	items := map[string]SavedItem{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

type SearchMeta struct {
	SearchType string `json:"search_type"`
}

// ListResponse is the envelope returned by the /get endpoint.
type ListResponse struct {
	Status     int        `json:"status"`
	Complete   int        `json:"complete"`
	List       ItemList   `json:"list"`
	Error      *string    `json:"error"`
	SearchMeta SearchMeta `json:"search_meta"`
	Since      int64      `json:"since"`
}

// SinceTime returns the sync watermark as a time.
func (r ListResponse) SinceTime() time.Time {
	if r.Since == 0 {
		return time.Time{}
	}
	return time.Unix(r.Since, 0).UTC()
}

// TagSummary is the number of items carrying a tag.
type TagSummary struct {
	Tag       string `json:"tag"`
	ItemCount int    `json:"item_count"`
}

func epoch(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs == 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
