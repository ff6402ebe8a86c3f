package utils

import (
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

var categoryByExt = map[string]string{}

func init() {
	table := map[string][]string{
		"image":      {"png", "jpg", "jpeg", "gif", "bmp", "webp", "svg", "heic", "tiff"},
		"music":      {"mp3", "flac", "aac", "wav", "ogg", "m4a"},
		"video":      {"mp4", "mkv", "avi", "mov", "webm", "flv", "wmv", "m4v"},
		"apps":       {"exe", "msi", "apk", "dmg", "pkg", "deb", "rpm", "appimage"},
		"document":   {"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "md", "rtf"},
		"compressed": {"zip", "rar", "7z", "tar", "gz", "bz2", "xz", "zst"},
	}
	for cat, exts := range table {
		for _, ext := range exts {
			categoryByExt[ext] = cat
		}
	}
}

// GuessCategory classifies a filename by extension into one of: image, music,
// video, apps, document, compressed, other. Extensions outside the explicit
// table are looked up in the filetype registry and mapped by MIME class.
func GuessCategory(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "other"
	}
	if cat, ok := categoryByExt[ext]; ok {
		return cat
	}
	if kind := filetype.GetType(ext); kind != filetype.Unknown {
		switch kind.MIME.Type {
		case "image":
			return "image"
		case "audio":
			return "music"
		case "video":
			return "video"
		}
	}
	return "other"
}
