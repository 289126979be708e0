package utils

import "github.com/gin-gonic/gin"

// Response is the envelope of every JSON response: a status code, a message,
// and data (null on errors).
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func NewSuccessResponse(message string, data interface{}) Response {
	return Response{
		Status:  200,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(status int, message string) Response {
	return Response{
		Status:  status,
		Message: message,
		Data:    nil,
	}
}

// AbortWithError writes an error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, NewErrorResponse(status, message))
}

// RedirectData tells the app which route to move to after a rejected call.
type RedirectData struct {
	Redirect string `json:"redirect"`
}

// AbortWithRedirect is AbortWithError carrying the route the app should show.
func AbortWithRedirect(c *gin.Context, status int, message, target string) {
	c.AbortWithStatusJSON(status, Response{
		Status:  status,
		Message: message,
		Data:    RedirectData{Redirect: target},
	})
}
