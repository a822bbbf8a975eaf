package fsview

import (
	"math"
	"path"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"ftp2http/storage"
)

var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".zip":  "application/zip",
	".rar":  "application/x-rar-compressed",
	".json": "application/json",
	".xml":  "application/xml",
}

// MimeType 根据文件扩展名返回 MIME 类型，未知扩展名返回 application/octet-stream。
func MimeType(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Playable 判断文件是否可以进入同步播放页面。
func Playable(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".mp4", ".mkv", ".mp3":
		return true
	}
	return false
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatSize 把字节数格式化为人类可读的大小，如 "1.5 MB"。
func FormatSize(bytes uint64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	value := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}

// NaturalLess 数字感知的不区分大小写比较："file2" 排在 "file10" 之前。
func NaturalLess(a, b string) bool {
	for a != "" && b != "" {
		aChunk, aRest, aNum := chunk(a)
		bChunk, bRest, bNum := chunk(b)

		if aNum && bNum {
			av, _ := strconv.ParseUint(aChunk, 10, 64)
			bv, _ := strconv.ParseUint(bChunk, 10, 64)
			if av != bv {
				return av < bv
			}
		} else {
			al, bl := strings.ToLower(aChunk), strings.ToLower(bChunk)
			if al != bl {
				return al < bl
			}
		}
		a, b = aRest, bRest
	}
	return len(a) < len(b)
}

// chunk 取出开头的连续数字段或非数字段。
func chunk(s string) (head, rest string, numeric bool) {
	numeric = unicode.IsDigit(rune(s[0]))
	for i, r := range s {
		if unicode.IsDigit(r) != numeric {
			return s[:i], s[i:], numeric
		}
	}
	return s, "", numeric
}

// SortEntries 对目录条目排序：目录在前，同类按名称自然排序。
func SortEntries(entries []storage.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return NaturalLess(entries[i].Name, entries[j].Name)
	})
}
