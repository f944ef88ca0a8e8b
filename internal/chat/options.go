package chat

import (
	"log/slog"
	"time"
)

// Option はサービスの設定を変更する
type Option func(*options)

type options struct {
	now       func() time.Time
	locale    string
	publisher Publisher
	log       *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		locale: DefaultLocale,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock は現在時刻の取得方法を差し替える
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLocale はチャンネル作成通知の言語を指定する
func WithLocale(locale string) Option {
	return func(o *options) {
		o.locale = locale
	}
}

// WithPublisher は投稿されたメッセージの配信先を指定する
func WithPublisher(p Publisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithLogger はロガーを指定する
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}
