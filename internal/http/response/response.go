package response

import (
	"net/http"

	"github.com/bookstore-next/internal/i18n"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构，HTTP 状态恒为 200，业务结果看 StatusCode
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// Success 成功响应，消息按请求语言本地化
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		StatusCode: CodeOK,
		Msg:        i18n.T(i18n.ResolveLocale(c), "common.success"),
		Data:       data,
	})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PageResponse{
		StatusCode: CodeOK,
		Msg:        i18n.T(i18n.ResolveLocale(c), "common.success"),
		Data:       data,
		Pagination: pagination,
	})
}

// Fail 按消息 key 返回本地化错误
func Fail(c *gin.Context, code int, key string) {
	Error(c, code, i18n.T(i18n.ResolveLocale(c), key))
}

// Failf 按带参数的消息 key 返回本地化错误
func Failf(c *gin.Context, code int, key string, args ...interface{}) {
	Error(c, code, i18n.Sprintf(i18n.ResolveLocale(c), key, args...))
}

// Error 以已本地化的消息返回错误，data 中带上 request_id
func Error(c *gin.Context, code int, msg string) {
	c.JSON(http.StatusOK, Response{
		StatusCode: code,
		Msg:        msg,
		Data:       requestIDData(c),
	})
}

func requestIDData(c *gin.Context) interface{} {
	if c == nil {
		return nil
	}
	value, ok := c.Get("request_id")
	if !ok {
		return nil
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return nil
	}
	return gin.H{"request_id": id}
}
