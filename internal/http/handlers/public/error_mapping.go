package public

import (
	"errors"

	"github.com/voyago-next/internal/cache"
	"github.com/voyago-next/internal/http/handlers/shared"
	"github.com/voyago-next/internal/http/response"
	"github.com/voyago-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			shared.RespondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	shared.RespondError(c, fallbackCode, fallbackMsg, err)
}

var quoteCommonErrorRules = []mappedHandlerError{
	{target: service.ErrQuoteNotFound, code: response.CodeNotFound, msg: "报价单不存在"},
	{target: service.ErrQuoteInvalid, code: response.CodeBadRequest, msg: "报价单参数无效"},
	{target: service.ErrQuoteStateInvalid, code: response.CodeBadRequest, msg: "报价单状态不允许该操作"},
	{target: service.ErrAgentNotFound, code: response.CodeBadRequest, msg: "销售顾问不存在"},
	{target: service.ErrItemCostMissing, code: response.CodeBadRequest, msg: "行程项缺少供应商成本"},
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, msg: "收款参数无效"},
	{target: service.ErrProviderNotBound, code: response.CodeBadRequest, msg: "供应来源未注册实时供应商"},
	{target: service.ErrRefundNotAllowed, code: response.CodeBadRequest, msg: "当前状态不允许退款"},
	{target: cache.ErrQuoteLocked, code: response.CodeTooManyRequests, msg: "报价单操作进行中，请稍后重试"},
}
