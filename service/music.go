package service

// MusicTrack 配乐库条目
type MusicTrack struct {
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Mood     string  `json:"mood"`
	Duration float64 `json:"duration"`
	BPM      int     `json:"bpm"`
}

// 内置配乐库，按情绪分组。找不到对应情绪时回退 professional。
var musicLibrary = map[string][]MusicTrack{
	"energetic": {
		{Title: "Upbeat Pop Energy", URL: "https://assets.brandscene.io/music/upbeat-pop-energy.mp3", Mood: "energetic", Duration: 120, BPM: 128},
		{Title: "Electric Drive", URL: "https://assets.brandscene.io/music/electric-drive.mp3", Mood: "energetic", Duration: 95, BPM: 140},
	},
	"calm": {
		{Title: "Gentle Waves", URL: "https://assets.brandscene.io/music/gentle-waves.mp3", Mood: "calm", Duration: 150, BPM: 72},
		{Title: "Soft Morning", URL: "https://assets.brandscene.io/music/soft-morning.mp3", Mood: "calm", Duration: 130, BPM: 80},
	},
	"inspiring": {
		{Title: "Rise Above", URL: "https://assets.brandscene.io/music/rise-above.mp3", Mood: "inspiring", Duration: 140, BPM: 100},
		{Title: "New Horizons", URL: "https://assets.brandscene.io/music/new-horizons.mp3", Mood: "inspiring", Duration: 160, BPM: 110},
	},
	"professional": {
		{Title: "Corporate Clarity", URL: "https://assets.brandscene.io/music/corporate-clarity.mp3", Mood: "professional", Duration: 135, BPM: 96},
		{Title: "Clean Progress", URL: "https://assets.brandscene.io/music/clean-progress.mp3", Mood: "professional", Duration: 125, BPM: 104},
	},
}

// SuggestMusic 按情绪推荐配乐
func SuggestMusic(mood string) []MusicTrack {
	if tracks, ok := musicLibrary[mood]; ok {
		return tracks
	}
	return musicLibrary["professional"]
}
