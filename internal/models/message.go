package models

import "time"

// DateLayout はメッセージの date フィールドの形式（ミリ秒精度の UTC ISO-8601）
const DateLayout = "2006-01-02T15:04:05.000Z"

// User はメッセージに埋め込まれるユーザー情報
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// Message はチャンネルに投稿されたメッセージを表す構造体
// ID はストアが採番したキーで、レコード本体には保存しない
type Message struct {
	ID   string `json:"id,omitempty"`
	Body string `json:"body"`
	Date string `json:"date"`
	User User   `json:"user"`
}

var (
	// Anonymous は認証されていないリクエストのユーザー
	Anonymous = User{ID: "anon", Name: "Anonymous", AvatarURL: ""}

	// Robot はチャンネル作成時のシードメッセージの投稿者
	Robot = User{ID: "robot", Name: "Robot", AvatarURL: ""}
)

// FormatDate は時刻を DateLayout 形式の文字列にする
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
