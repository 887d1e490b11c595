package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册支付相关路由
//
// HTTP层只做两件事：把请求体/查询串/表单拍平成载荷映射转交
// 网关，以及把网关结果翻译成HTTP响应；对账核心对传输方式不敏感。
func RegisterRoutes(r *gin.Engine, g *Gateway) {
	group := r.Group("/payment")
	{
		// 创建订单
		group.POST("/orders", func(c *gin.Context) {
			var req struct {
				Amount   float64 `json:"amount" binding:"required,gt=0"`
				Currency string  `json:"currency"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": TranslateBindingError(err)})
				return
			}

			order, err := g.CreateOrder(c.Request.Context(), req.Amount, req.Currency)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, order)
		})

		// 查询订单与流转记录
		group.GET("/orders/:order_code", func(c *gin.Context) {
			order, err := g.Order(c.Request.Context(), c.Param("order_code"))
			if err != nil {
				respondError(c, err)
				return
			}
			transitions, _ := g.Transitions(c.Request.Context(), order.OrderCode)
			c.JSON(http.StatusOK, gin.H{"order": order, "transitions": transitions})
		})

		// 可用支付方式列表
		group.GET("/methods", func(c *gin.Context) {
			methods, err := g.EnabledMethods(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, methods)
		})

		// 结账：选择支付方式并发起支付
		group.POST("/checkout", func(c *gin.Context) {
			var req struct {
				OrderCode string `json:"order_code" binding:"required"`
				Method    string `json:"method" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": TranslateBindingError(err)})
				return
			}

			result, err := g.Checkout(c.Request.Context(), req.OrderCode, req.Method)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, result)
		})

		// 渠道异步回调，任意方法/形态
		group.Any("/notify/:plugin", func(c *gin.Context) {
			payload := flattenRequest(c)

			resp, err := g.HandleCallback(c.Request.Context(), c.Param("plugin"), payload)
			if err != nil {
				if errors.Is(err, ErrPluginNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				// 状态机层面的拒绝也要对渠道响应确定的结果
				c.JSON(http.StatusOK, gin.H{"received": true, "applied": false})
				return
			}
			c.JSON(http.StatusOK, gin.H{"received": true, "order_code": resp.OrderCode, "success": resp.Success})
		})

		// 同步跳转落地页
		group.GET("/return/success", returnHandler(g, true))
		group.GET("/return/failure", returnHandler(g, false))

		// 线下支付的本地确认
		group.POST("/confirm/:order_code", func(c *gin.Context) {
			resp, err := g.Confirm(c.Request.Context(), c.Param("order_code"))
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, resp)
		})

		// 退款
		group.POST("/refund", func(c *gin.Context) {
			var req struct {
				OrderCode string `json:"order_code" binding:"required"`
				Reason    string `json:"reason"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": TranslateBindingError(err)})
				return
			}

			resp, err := g.Refund(c.Request.Context(), req.OrderCode, req.Reason)
			if err != nil {
				if errors.Is(err, ErrRefundNotSupported) {
					c.JSON(http.StatusUnprocessableEntity, resp)
					return
				}
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, resp)
		})
	}
}

// returnHandler 处理支付完成后的同步跳转
func returnHandler(g *Gateway, success bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderCode := c.Query("order_code")

		// 优先信任签名令牌中的订单号
		if token := c.Query("token"); token != "" && len(g.tokenSecret) > 0 {
			if code, err := ParseOrderToken(g.tokenSecret, token); err == nil {
				orderCode = code
			}
		}
		if orderCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "缺少订单号"})
			return
		}

		order, err := g.Order(c.Request.Context(), orderCode)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order_code": order.OrderCode,
			"status":     order.Status,
			"landed_on":  map[bool]string{true: "success", false: "failure"}[success],
		})
	}
}

// flattenRequest 把查询串、表单与JSON体拍平成一个载荷映射
//
// 原始请求体与签名头以保留键透传，需要验签的插件自行取用。
func flattenRequest(c *gin.Context) map[string]string {
	payload := make(map[string]string)

	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			payload[k] = v[0]
		}
	}

	body, _ := io.ReadAll(c.Request.Body)
	if len(body) > 0 {
		payload["_raw_body"] = string(body)

		contentType := c.ContentType()
		switch {
		case strings.Contains(contentType, "json"):
			var m map[string]interface{}
			if err := json.Unmarshal(body, &m); err == nil {
				flattenJSON(payload, m)
			}
		case strings.Contains(contentType, "x-www-form-urlencoded"):
			if values, err := url.ParseQuery(string(body)); err == nil {
				for k, v := range values {
					if len(v) > 0 {
						payload[k] = v[0]
					}
				}
			}
		}
	}

	if sig := c.GetHeader("Stripe-Signature"); sig != "" {
		payload["_stripe_signature"] = sig
	}
	return payload
}

// flattenJSON 递归提取JSON中的字符串叶子
//
// 渠道通知常把订单标识埋在嵌套对象或数组里（如PayPal的
// resource.purchase_units[].reference_id），这里把所有层级的
// 字符串叶子按键名提升到顶层；已存在的键不被覆盖，外层优先。
func flattenJSON(payload map[string]string, value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		// 同层字符串先于子层级写入，保证外层优先
		for k, child := range v {
			if s, ok := child.(string); ok {
				if _, exists := payload[k]; !exists {
					payload[k] = s
				}
			}
		}
		for _, child := range v {
			switch child.(type) {
			case map[string]interface{}, []interface{}:
				flattenJSON(payload, child)
			}
		}
	case []interface{}:
		for _, child := range v {
			flattenJSON(payload, child)
		}
	}
}

// respondError 把核心错误翻译为HTTP状态码
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrMethodNotFound), errors.Is(err, ErrPluginNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrMethodDisabled), errors.Is(err, ErrOrderNotPayable), errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrProviderUnreachable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
