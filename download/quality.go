package download

// videoQualityOrder is the descending preference over static rendition
// labels. hls/dash playlists are deliberately absent, they are handled by
// the playlist fallback instead.
var videoQualityOrder = []string{
	"ultra_hd", "quad_hd", "full_hd", "high", "medium", "tiny", "low", "lowest",
}

// BestVideoQuality picks the most preferred rendition present in urls,
// which must already exclude empty placeholder URLs. ok is false when no
// ordered label is available; the asset is then unavailable, not failed.
func BestVideoQuality(urls map[string]string) (quality, url string, ok bool) {
	for _, q := range videoQualityOrder {
		if u, present := urls[q]; present {
			return q, u, true
		}
	}
	return "", "", false
}
