// Package progress は学習トラックの進捗とストリークを計算する純粋なロジックです。
// DBやHTTPには依存せず、呼び出し側が「現在時刻 (ユーザーのローカル時刻)」を渡します。
package progress

import (
	"time"

	"go_4_interview_prep/internal/model"
)

const dateLayout = "2006-01-02"

// DateOf は t のロケーションでのカレンダー日付 (YYYY-MM-DD) を返す
func DateOf(t time.Time) string {
	return t.Format(dateLayout)
}

// daysBetween は2つのカレンダー日付の差 (to - from) を日数で返す。
// 経過時間ではなく日付で比較するため、どちらもUTCの0時として扱う。
func daysBetween(from, to string) (int, bool) {
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0, false
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return 0, false
	}
	return int(t.Sub(f).Hours() / 24), true
}

// RecordActivity は学習アクティビティを1回記録し、ストリークを更新します。
//   - 同じ日、または保存日付より前の日 (タイムゾーンが西へ移った等) なら変化なし
//   - 前日なら +1
//   - それ以外 (初回・2日以上空いた) なら 1 から
func RecordActivity(stats *model.LearningStats, now time.Time) {
	today := DateOf(now)

	if stats.LastActivityDate == today {
		return
	}

	gap, ok := daysBetween(stats.LastActivityDate, today)
	// ExpireStreak と同じく未来の日付は失効扱いにせず、日付も巻き戻さない
	if ok && gap <= 0 {
		return
	}
	if ok && gap == 1 {
		stats.CurrentStreak++
	} else {
		stats.CurrentStreak = 1
	}

	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	stats.LastActivityDate = today
	stats.TimeZone = now.Location().String()
}

// ExpireStreak はセッション開始時のチェック。最終アクティビティが今日でも昨日でもなければ
// currentStreak を 0 にします。変更があれば true を返す。
func ExpireStreak(stats *model.LearningStats, now time.Time) bool {
	if stats.LastActivityDate == "" || stats.CurrentStreak == 0 {
		return false
	}

	// 未来の日付 (端末の時計ずれ等) は失効させない
	gap, ok := daysBetween(stats.LastActivityDate, DateOf(now))
	if ok && gap <= 1 {
		return false
	}

	stats.CurrentStreak = 0
	return true
}
