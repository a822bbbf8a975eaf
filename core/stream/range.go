package stream

import (
	"strconv"
	"strings"
)

// ResolvedRange 是由请求 Range 头和已知文件总大小解析出的具体字节区间。
// Total > 0 时恒满足 Start <= End < Total。
type ResolvedRange struct {
	Start   uint64
	End     uint64
	Total   uint64
	Partial bool // 响应是否为 206 部分内容
}

// Length 返回区间覆盖的字节数。
func (r ResolvedRange) Length() uint64 {
	if r.Total == 0 {
		return 0
	}
	return r.End - r.Start + 1
}

// ContentRange 返回 Content-Range 头的值，形如 "bytes 100-199/1000"。
func (r ResolvedRange) ContentRange() string {
	return "bytes " + strconv.FormatUint(r.Start, 10) + "-" +
		strconv.FormatUint(r.End, 10) + "/" + strconv.FormatUint(r.Total, 10)
}

// Resolve 把请求的 Range 头解析为具体区间。
//
// Range 头缺失或文件总大小未知（为 0）时返回全文件区间，响应为 200；
// 否则按 bytes=START-END 解析：START 缺失、非数字或越界时取 0，
// END 缺失或超出文件末尾时收敛到 Total-1。
func Resolve(rangeHeader string, total uint64) ResolvedRange {
	if rangeHeader == "" || total == 0 {
		return fullRange(total)
	}

	spec := strings.TrimPrefix(rangeHeader, "bytes=")
	startStr, endStr, _ := strings.Cut(spec, "-")

	start, err := strconv.ParseUint(strings.TrimSpace(startStr), 10, 64)
	if err != nil {
		start = 0
	}

	end := total - 1
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		if parsed, err := strconv.ParseUint(endStr, 10, 64); err == nil && parsed < total {
			end = parsed
		}
	}

	// 起点越过终点视为无效起点，归零后仍保持部分响应
	if start > end {
		start = 0
	}

	return ResolvedRange{Start: start, End: end, Total: total, Partial: true}
}

func fullRange(total uint64) ResolvedRange {
	if total == 0 {
		return ResolvedRange{}
	}
	return ResolvedRange{End: total - 1, Total: total}
}
