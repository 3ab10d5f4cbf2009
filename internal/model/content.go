// internal/model/content.go
package model

// Article はトピックに紐づく参考記事
type Article struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// QuizQuestion はトピック末尾の確認クイズ
type QuizQuestion struct {
	Question string   `json:"question" yaml:"question"`
	Options  []string `json:"options" yaml:"options"`
	Answer   int      `json:"answer" yaml:"answer"`
}

// CodeExample はトピックのコード例
type CodeExample struct {
	Title    string `json:"title" yaml:"title"`
	Language string `json:"language" yaml:"language"`
	Code     string `json:"code" yaml:"code"`
}

// Topic は1日分の学習内容。進捗エンジンは ID とタスク数だけを使う
type Topic struct {
	ID           string         `json:"id" yaml:"id"`
	Day          int            `json:"day" yaml:"day"`
	Title        string         `json:"title" yaml:"title"`
	Articles     []Article      `json:"articles,omitempty" yaml:"articles"`
	Tasks        []string       `json:"tasks" yaml:"tasks"`
	Quiz         []QuizQuestion `json:"quiz,omitempty" yaml:"quiz"`
	CodeExamples []CodeExample  `json:"code_examples,omitempty" yaml:"code_examples"`
}

// Track は会社ごとの複数日カリキュラム
type Track struct {
	CompanyName string  `json:"company_name" yaml:"company_name"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description"`
	TotalDays   int     `json:"total_days" yaml:"total_days"`
	Topics      []Topic `json:"topics" yaml:"topics"`
}

// FindTopic はIDでトピックを探す
func (t *Track) FindTopic(topicID string) (*Topic, bool) {
	for i := range t.Topics {
		if t.Topics[i].ID == topicID {
			return &t.Topics[i], true
		}
	}
	return nil, false
}

// TrackSummary はトラック一覧のレスポンスDTO
type TrackSummary struct {
	CompanyName string `json:"company_name"`
	Title       string `json:"title"`
	TotalDays   int    `json:"total_days"`
}
