package chat

import "golang.org/x/text/language"

// DefaultLocale は通知メッセージの既定の言語
const DefaultLocale = "ko"

var createdNotices = map[string]string{
	"ko": "채널 생성 완료!!",
	"en": "Channel created!",
	"ja": "チャンネルを作成しました！",
}

// 先頭が既定値になる
var noticeMatcher = language.NewMatcher([]language.Tag{
	language.Korean,
	language.English,
	language.Japanese,
})

// CreatedNotice は locale に最も近い言語のチャンネル作成通知を返す
func CreatedNotice(locale string) string {
	tag, _ := language.MatchStrings(noticeMatcher, locale)
	base, _ := tag.Base()
	if n, ok := createdNotices[base.String()]; ok {
		return n
	}
	return createdNotices[DefaultLocale]
}
