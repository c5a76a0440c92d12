package scripture

// Surah is one chapter of the reference text. Rows are immutable after
// seeding.
type Surah struct {
	Number      int    `json:"number"`
	NameArabic  string `json:"name_arabic"`
	NameEnglish string `json:"name_english,omitempty"`
	AyahCount   int    `json:"ayah_count"`
}

// Ayah is one verse, addressed by (surah, ayah_number). Translations is
// a per-language map; languages not imported are absent.
type Ayah struct {
	ID           int64             `json:"id"`
	Surah        int               `json:"surah"`
	Number       int               `json:"ayah_number"`
	ArabicText   string            `json:"arabic_text"`
	Translations map[string]string `json:"translations,omitempty"`
}

// Word is one dictionary entry. The id is stable across re-imports;
// duplicate literal text is allowed, identity is the numeric id.
type Word struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	UrMeaning string `json:"ur_meaning,omitempty"`
	EnMeaning string `json:"en_meaning,omitempty"`
}

// WordAt is a dictionary word at a position within an ayah. Positions
// are strictly ascending and unique per ayah, but not necessarily
// contiguous integers.
type WordAt struct {
	Position int  `json:"position"`
	Word     Word `json:"word"`
}
