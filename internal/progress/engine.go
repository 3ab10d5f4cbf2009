package progress

import (
	"math"
	"time"

	"go_4_interview_prep/internal/model"
)

// State は1ユーザー分の進捗ストア (会社別進捗 + 集計値)。
// 各操作は State をその場で書き換え、永続化は呼び出し側 (service) が行う。
// 操作の戻り値 bool は「何か変更したか」で、前提条件を満たさない場合は false (no-op)。
type State struct {
	Tracks model.ProgressMap
	Stats  model.LearningStats
}

func NewState(tracks model.ProgressMap, stats model.LearningStats) *State {
	if tracks == nil {
		tracks = model.ProgressMap{}
	}
	return &State{Tracks: tracks, Stats: stats}
}

// Track は会社名で進捗を取り出す
func (s *State) Track(companyName string) (*model.TrackProgress, bool) {
	tp, ok := s.Tracks[companyName]
	return tp, ok
}

// StartTrack はトラックを開始する。既に開始済みなら何もしない。
func (s *State) StartTrack(track *model.Track, now time.Time) bool {
	if _, ok := s.Tracks[track.CompanyName]; ok {
		return false
	}

	s.Tracks[track.CompanyName] = &model.TrackProgress{
		CompanyName:    track.CompanyName,
		StartedAt:      now,
		CurrentDay:     1,
		CompletedDays:  0,
		LastActivityAt: now,
		Topics:         map[string]*model.TopicProgress{},
	}

	s.Stats.TotalTracksStarted++
	RecordActivity(&s.Stats, now)
	return true
}

// ToggleTask はタスク1件の完了フラグを反転する。
// completedDays / currentDay は変更しない (丸ごと完了は CompleteTopic の役目)。
func (s *State) ToggleTask(companyName, topicID string, taskIndex, totalTasks int, now time.Time) bool {
	tp, ok := s.Tracks[companyName]
	if !ok {
		return false
	}

	topic, ok := tp.Topics[topicID]
	if !ok {
		if taskIndex < 0 || taskIndex >= totalTasks {
			return false
		}
		topic = &model.TopicProgress{TopicID: topicID}
		tp.Topics[topicID] = topic
	}
	// メモだけ先に保存されたトピックは、最初のトグル時にタスク数を確定させる
	if len(topic.TasksCompleted) == 0 && totalTasks > 0 {
		topic.TasksCompleted = make([]bool, totalTasks)
	}
	if taskIndex < 0 || taskIndex >= len(topic.TasksCompleted) {
		return false
	}

	topic.TasksCompleted[taskIndex] = !topic.TasksCompleted[taskIndex]

	wasCompleted := topic.Completed
	topic.Completed = allDone(topic.TasksCompleted)
	switch {
	case topic.Completed && !wasCompleted:
		t := now
		topic.CompletedAt = &t
	case !topic.Completed:
		topic.CompletedAt = nil
	}

	tp.LastActivityAt = now
	RecordActivity(&s.Stats, now)
	return true
}

// CompleteTopic はトピック (1日分) を丸ごと完了にする。
// 既に完了済みでも totalDaysCompleted は加算される (既存の挙動を維持)。
func (s *State) CompleteTopic(companyName, topicID string, track *model.Track, now time.Time) bool {
	content, ok := track.FindTopic(topicID)
	if !ok {
		return false
	}
	tp, ok := s.Tracks[companyName]
	if !ok {
		return false
	}

	topic, ok := tp.Topics[topicID]
	if !ok {
		topic = &model.TopicProgress{TopicID: topicID}
		tp.Topics[topicID] = topic
	}

	tasks := make([]bool, len(content.Tasks))
	for i := range tasks {
		tasks[i] = true
	}
	topic.TasksCompleted = tasks
	if !topic.Completed || topic.CompletedAt == nil {
		t := now
		topic.CompletedAt = &t
	}
	topic.Completed = true

	tp.CompletedDays = countCompleted(tp.Topics)
	tp.CurrentDay = currentDay(tp.CompletedDays, track.TotalDays)
	tp.LastActivityAt = now

	s.Stats.TotalDaysCompleted++
	RecordActivity(&s.Stats, now)
	return true
}

// SaveNotes はトピックのメモを上書きする。ストリーク・集計には影響しない。
func (s *State) SaveNotes(companyName, topicID, notes string, now time.Time) bool {
	tp, ok := s.Tracks[companyName]
	if !ok {
		return false
	}

	topic, ok := tp.Topics[topicID]
	if !ok {
		topic = &model.TopicProgress{TopicID: topicID, TasksCompleted: []bool{}}
		tp.Topics[topicID] = topic
	}
	n := notes
	topic.Notes = &n
	tp.LastActivityAt = now
	return true
}

// SaveQuizScore はクイズの点数を上書きする。トピックの進捗が無ければ何もしない。
func (s *State) SaveQuizScore(companyName, topicID string, score int, now time.Time) bool {
	tp, ok := s.Tracks[companyName]
	if !ok {
		return false
	}
	topic, ok := tp.Topics[topicID]
	if !ok {
		return false
	}
	sc := score
	topic.QuizScore = &sc
	tp.LastActivityAt = now
	return true
}

// ResetTrack は会社の進捗を削除する。集計値は戻さない。
func (s *State) ResetTrack(companyName string) bool {
	if _, ok := s.Tracks[companyName]; !ok {
		return false
	}
	delete(s.Tracks, companyName)
	return true
}

// View は進捗に派生値 (総日数・完了率) を付ける
func View(tp *model.TrackProgress, totalDays int) *model.TrackProgressView {
	if tp == nil {
		return nil
	}
	return &model.TrackProgressView{
		TrackProgress:        tp,
		TotalDays:            totalDays,
		CompletionPercentage: CompletionPercentage(tp.CompletedDays, totalDays),
	}
}

func CompletionPercentage(completedDays, totalDays int) int {
	if totalDays <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completedDays) * 100 / float64(totalDays)))
	if pct > 100 {
		return 100
	}
	return pct
}

func currentDay(completedDays, totalDays int) int {
	day := completedDays + 1
	if totalDays > 0 && day > totalDays {
		day = totalDays
	}
	if day < 1 {
		day = 1
	}
	return day
}

func countCompleted(topics map[string]*model.TopicProgress) int {
	n := 0
	for _, t := range topics {
		if t.Completed {
			n++
		}
	}
	return n
}

func allDone(tasks []bool) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, done := range tasks {
		if !done {
			return false
		}
	}
	return true
}
