package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"carelink-backend/internal/middleware"
	corepayment "carelink-backend/internal/payment"
	"carelink-backend/internal/services"
	"carelink-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	payments *services.PaymentService
	log      *zap.Logger
}

func NewHandler(payments *services.PaymentService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{payments: payments, log: log}
}

// Checkout godoc
// @Summary Start a payment attempt
// @Description Build the signed gateway form for a new order. Accepts camelCase or snake_case keys and nested customer details.
// @Tags payment
// @Accept  json
// @Produce  json
// @Security Bearer
// @Success 201 {object} utils.Response{data=payment.CheckoutResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /payment/checkout [post]
func (h *Handler) Checkout(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		utils.AbortWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var raw map[string]interface{}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		utils.AbortWithError(c, http.StatusBadRequest, "Malformed JSON or invalid request body")
		return
	}

	req, err := corepayment.ParseRequest(raw)
	if err != nil {
		h.abortWithPaymentError(c, err)
		return
	}

	res, err := h.payments.StartCheckout(c.Request.Context(), userID, req)
	if err != nil {
		h.abortWithPaymentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.Response{
		Status:  http.StatusCreated,
		Message: "Payment attempt started",
		Data: CheckoutResponse{
			OrderID:   res.Attempt.ID,
			ActionURL: res.ActionURL,
			Fields:    res.Fields,
			Status:    string(res.Attempt.Status),
		},
	})
}

// Event godoc
// @Summary Deliver a payment page signal
// @Description Forward a navigation, in-page message, load error or dismissal from the payment page
// @Tags payment
// @Accept  json
// @Produce  json
// @Security Bearer
// @Param   order_id  path   string        true  "Order ID"
// @Param   input     body   EventRequest  true  "Event"
// @Success 200 {object} utils.Response{data=payment.EventResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /payment/attempts/{order_id}/events [post]
func (h *Handler) Event(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		utils.AbortWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req EventRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	ev := services.PaymentEvent{
		Kind:  services.EventKind(req.Type),
		URL:   req.URL,
		Data:  req.messageBytes(),
		Error: req.Error,
	}
	res, err := h.payments.HandleEvent(c.Request.Context(), userID, c.Param("order_id"), ev)
	if err != nil {
		h.abortWithPaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", EventResponse{
		Intercepted: res.Intercepted,
		Attempt:     NewAttemptResponse(res.Attempt),
	}))
}

// GetAttempt godoc
// @Summary Get a payment attempt
// @Tags payment
// @Produce  json
// @Security Bearer
// @Param   order_id  path   string  true  "Order ID"
// @Success 200 {object} utils.Response{data=payment.AttemptResponse}
// @Failure 404 {object} utils.Response
// @Router /payment/attempts/{order_id} [get]
func (h *Handler) GetAttempt(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		utils.AbortWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	attempt, err := h.payments.GetAttempt(c.Request.Context(), userID, c.Param("order_id"))
	if err != nil {
		h.abortWithPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("success", NewAttemptResponse(attempt)))
}

// Notify handles the gateway's server to server callback. The body is form
// encoded and the gateway only looks at the status code.
func (h *Handler) Notify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "Fail: malformed form")
		return
	}
	params := make(map[string]string, len(c.Request.PostForm))
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	if _, err := h.payments.HandleNotify(c.Request.Context(), params); err != nil {
		h.log.Warn("Rejected payment notification",
			zap.String("order_id", params["order_id"]),
			zap.Error(err))
		switch {
		case errors.Is(err, services.ErrAttemptNotFound):
			c.String(http.StatusNotFound, "Fail: unknown order")
		case errors.Is(err, corepayment.ErrInvalidSignature),
			errors.Is(err, corepayment.ErrIncompletePayload),
			errors.Is(err, services.ErrNotifyMismatch):
			c.String(http.StatusBadRequest, "Fail: "+err.Error())
		default:
			c.String(http.StatusInternalServerError, "Fail")
		}
		return
	}

	c.String(http.StatusOK, "OK")
}

// abortWithPaymentError maps payment errors to HTTP statuses.
func (h *Handler) abortWithPaymentError(c *gin.Context, err error) {
	var incomplete *corepayment.IncompletePayloadError
	switch {
	case errors.As(err, &incomplete):
		c.AbortWithStatusJSON(http.StatusBadRequest, utils.Response{
			Status:  http.StatusBadRequest,
			Message: "Payment details are incomplete",
			Data:    gin.H{"missing": incomplete.Missing},
		})
	case errors.Is(err, corepayment.ErrInvalidAmount),
		errors.Is(err, corepayment.ErrUnsupportedCurrency),
		errors.Is(err, services.ErrUnknownEvent):
		utils.AbortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrAttemptNotFound):
		utils.AbortWithError(c, http.StatusNotFound, err.Error())
	default:
		h.log.Error("Payment request failed", zap.Error(err))
		utils.AbortWithError(c, http.StatusInternalServerError, "Payment could not be processed")
	}
}
