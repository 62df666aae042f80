package frameworker

// ManifestEntry describes one deduplicated frame kept from a capture.
type ManifestEntry struct {
	IndexAfterDedup int     `json:"index_after_dedup"`
	Filename        string  `json:"filename"`
	TimestampSecs   float64 `json:"timestamp_secs"`
	PHashBase64     string  `json:"phash_base64"`
}

// Manifest is the JSON document uploaded alongside a capture's extracted
// frames, recording which frames survived deduplication and their hashes.
type Manifest struct {
	Entries []ManifestEntry `json:"entries"`
}
