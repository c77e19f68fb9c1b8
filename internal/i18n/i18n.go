package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	// LocaleEN 英文
	LocaleEN = "en-US"
	// LocaleZH 简体中文
	LocaleZH = "zh-CN"
	// DefaultLocale 默认语言
	DefaultLocale = LocaleEN
)

var supportedTags = []language.Tag{language.AmericanEnglish, language.SimplifiedChinese}

var matcher = language.NewMatcher(supportedTags)

// ResolveLocale 解析请求语言：优先 query lang，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if raw := strings.TrimSpace(c.Query("lang")); raw != "" {
		return matchLocale(raw)
	}
	return matchLocale(c.GetHeader("Accept-Language"))
}

func matchLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	if supportedTags[index] == language.SimplifiedChinese {
		return LocaleZH
	}
	return LocaleEN
}

// T 翻译消息 key，未命中时回退英文，仍未命中返回 key 本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
