package playback

// State 全局共享的播放状态，进程生命周期内只有一份。
// 进程重启后回到默认值，不做任何持久化。
type State struct {
	URL      string  `json:"url"`
	Position float64 `json:"time"` // 播放位置（秒）
	Speed    float64 `json:"speed"`
	Paused   bool    `json:"paused"`
}

// DefaultState 返回进程启动时的初始状态。
func DefaultState() State {
	return State{URL: "", Position: 0, Speed: 1, Paused: true}
}

// Delta 部分状态更新。指针为 nil 的字段表示"保持不变"，
// 合并是浅合并，最后一次合并生效。
type Delta struct {
	URL      *string  `json:"url,omitempty"`
	Position *float64 `json:"time,omitempty"`
	Speed    *float64 `json:"speed,omitempty"`
	Paused   *bool    `json:"paused,omitempty"`
}

// Apply 把增量合并进状态。未出现的字段保留原值。
func (s *State) Apply(d Delta) {
	if d.URL != nil {
		s.URL = *d.URL
	}
	if d.Position != nil {
		s.Position = *d.Position
	}
	if d.Speed != nil {
		s.Speed = *d.Speed
	}
	if d.Paused != nil {
		s.Paused = *d.Paused
	}
}
