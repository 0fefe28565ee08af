package cluster

// Color is a pair of style tokens for light and dark themes.
type Color struct {
	Bg     string `json:"bg"`
	DarkBg string `json:"dark_bg"`
}

// PaletteSize is the number of distinct cluster colors.
const PaletteSize = 8

// palette is the fixed, ordered list of cluster colors.
// Cluster i uses palette[i % PaletteSize]; clusters past the end reuse colors.
var palette = [PaletteSize]Color{
	{Bg: "bg-blue-50", DarkBg: "dark:bg-blue-950/30"},
	{Bg: "bg-green-50", DarkBg: "dark:bg-green-950/30"},
	{Bg: "bg-purple-50", DarkBg: "dark:bg-purple-950/30"},
	{Bg: "bg-amber-50", DarkBg: "dark:bg-amber-950/30"},
	{Bg: "bg-rose-50", DarkBg: "dark:bg-rose-950/30"},
	{Bg: "bg-cyan-50", DarkBg: "dark:bg-cyan-950/30"},
	{Bg: "bg-indigo-50", DarkBg: "dark:bg-indigo-950/30"},
	{Bg: "bg-teal-50", DarkBg: "dark:bg-teal-950/30"},
}

// PaletteColor returns the palette slot for a cluster index.
func PaletteColor(index int) Color {
	return palette[((index%PaletteSize)+PaletteSize)%PaletteSize]
}

// Palette returns a copy of the palette.
func Palette() [PaletteSize]Color {
	return palette
}

// ColorFor returns the color of noteID's cluster. The boolean is false when the
// note has no relations, in which case it gets no cluster styling.
func ColorFor(noteID string, clusters Map) (Color, bool) {
	idx, ok := clusters[noteID]
	if !ok {
		return Color{}, false
	}
	return PaletteColor(idx), true
}
