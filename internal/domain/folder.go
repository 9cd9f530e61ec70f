package domain

import "time"

// FolderPalette is the fixed set of folder colors, in pick order.
var FolderPalette = []string{
	"#3B82F6",
	"#10B981",
	"#8B5CF6",
	"#F59E0B",
	"#EF4444",
	"#EC4899",
	"#06B6D4",
	"#84CC16",
}

// Folder groups posts in the library.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (f *Folder) Touch() {
	f.UpdatedAt = time.Now()
}

// NextFolderColor returns the first palette color not used by folders,
// cycling by count once every color is taken.
func NextFolderColor(folders []*Folder) string {
	used := make(map[string]bool, len(folders))
	for _, f := range folders {
		used[f.Color] = true
	}
	for _, c := range FolderPalette {
		if !used[c] {
			return c
		}
	}
	return FolderPalette[len(folders)%len(FolderPalette)]
}

// IsPaletteColor reports whether c is one of the palette colors.
func IsPaletteColor(c string) bool {
	for _, p := range FolderPalette {
		if p == c {
			return true
		}
	}
	return false
}
